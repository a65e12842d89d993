package httpapi

import (
	"net/http"
	"strconv"
	"time"

	svcerrors "github.com/R3E-Network/stablecoin_layer/internal/errors"
	internalhttputil "github.com/R3E-Network/stablecoin_layer/internal/httputil"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
)

const statusSuccess = "success"

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   ServiceName,
		"mint":      h.token.MintAddress(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.token.Status())
}

func (h *handler) supply(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"totalSupply": h.token.Ledger().TotalSupply()})
}

func (h *handler) holders(w http.ResponseWriter, r *http.Request) {
	var minBalance int64
	if raw := r.URL.Query().Get("minBalance"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			internalhttputil.WriteServiceError(w, r, svcerrors.BadRequest("minBalance must be an integer", err))
			return
		}
		minBalance = v
	}
	list := h.token.Ledger().ListHolders(minBalance)
	if list == nil {
		list = []ledger.Holder{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(list), "holders": list})
}

type mintRequest struct {
	Amount      float64 `json:"amount"`
	Destination string  `json:"destination"`
}

func (h *handler) mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.token.Mint(r.Context(), h.actor(r, roles.Minter), req.Amount, req.Destination)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      statusSuccess,
		"amount":      res.Amount,
		"destination": res.Address,
		"txId":        res.TxID,
		"totalSupply": res.TotalSupply,
	})
}

type burnRequest struct {
	Amount float64 `json:"amount"`
	Source string  `json:"source"`
}

func (h *handler) burn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.token.Burn(r.Context(), h.actor(r, roles.Burner), req.Amount, req.Source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      statusSuccess,
		"amount":      res.Amount,
		"source":      res.Address,
		"txId":        res.TxID,
		"totalSupply": res.TotalSupply,
	})
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	tx, err := h.token.Pause(r.Context(), h.actor(r, roles.Pauser))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "paused": true, "txId": tx})
}

func (h *handler) unpause(w http.ResponseWriter, r *http.Request) {
	tx, err := h.token.Unpause(r.Context(), h.actor(r, roles.Pauser))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "paused": false, "txId": tx})
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *handler) minters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"minters": h.token.Roles().Minters()})
}

func (h *handler) addMinter(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.token.AddMinter(r.Context(), h.actor(r, roles.Master), req.Address); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "minters": h.token.Roles().Minters()})
}

func (h *handler) removeMinter(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.token.RemoveMinter(r.Context(), h.actor(r, roles.Master), req.Address); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "minters": h.token.Roles().Minters()})
}

func (h *handler) listRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.token.Roles().Snapshot())
}

func (h *handler) updateRoles(w http.ResponseWriter, r *http.Request) {
	var req roles.Update
	if !h.decode(w, r, &req) {
		return
	}
	assignments, err := h.token.UpdateRoles(r.Context(), h.actor(r, roles.Master), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *handler) transferAuthority(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	tx, err := h.token.TransferAuthority(r.Context(), h.actor(r, roles.Master), req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "master": req.Address, "txId": tx})
}

type blacklistRequest struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

func (h *handler) blacklist(w http.ResponseWriter, _ *http.Request) {
	entries := h.token.Compliance().List()
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(entries), "entries": entries})
}

func (h *handler) blacklistAdd(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if !h.decode(w, r, &req) {
		return
	}
	count, err := h.token.BlacklistAdd(r.Context(), h.actor(r, roles.Blacklister), req.Address, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "count": count})
}

func (h *handler) blacklistRemove(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	count, err := h.token.BlacklistRemove(r.Context(), h.actor(r, roles.Blacklister), req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": statusSuccess, "count": count})
}

func (h *handler) freeze(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.token.Freeze(r.Context(), h.actor(r, roles.Pauser), req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  statusSuccess,
		"address": res.Address,
		"changed": res.Changed,
		"txId":    res.TxID,
	})
}

func (h *handler) thaw(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.token.Thaw(r.Context(), h.actor(r, roles.Pauser), req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  statusSuccess,
		"address": res.Address,
		"changed": res.Changed,
		"txId":    res.TxID,
	})
}

type seizeRequest struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Amount *float64 `json:"amount,omitempty"`
}

func (h *handler) seize(w http.ResponseWriter, r *http.Request) {
	var req seizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.token.Seize(r.Context(), h.actor(r, roles.Seizer), req.From, req.To, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": statusSuccess,
		"from":   res.From,
		"to":     res.To,
		"amount": res.Amount,
		"txId":   res.TxID,
	})
}

func (h *handler) complianceAuditLog(w http.ResponseWriter, r *http.Request) {
	entries := h.token.ComplianceAuditLog(r.URL.Query().Get("action"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(entries), "entries": entries})
}

// auditLog serves the merged history along with per-source counts.
func (h *handler) auditLog(w http.ResponseWriter, r *http.Request) {
	entries := h.token.AuditLog(r.URL.Query().Get("action"))
	compliance := 0
	for _, e := range entries {
		if e.Action.Compliance() {
			compliance++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(entries),
		"entries":    entries,
		"mintBurn":   len(entries) - compliance,
		"compliance": compliance,
	})
}
