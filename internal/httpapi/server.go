// Package httpapi exposes a stablecoin over a JSON HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	svcerrors "github.com/R3E-Network/stablecoin_layer/internal/errors"
	internalhttputil "github.com/R3E-Network/stablecoin_layer/internal/httputil"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
	"github.com/R3E-Network/stablecoin_layer/internal/middleware"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
)

// ServiceName labels logs and metrics.
const ServiceName = "sss-api"

// Options configures the handler.
type Options struct {
	// JWTSecret enables bearer authentication. Empty runs in operator mode,
	// where every request acts as the holder of the role it needs.
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	// Limiter replaces the limiter built from RateLimit and RateBurst, letting
	// the caller own its cleanup loop.
	Limiter *middleware.RateLimiter

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

type handler struct {
	token    *stablecoin.Token
	log      *logging.Logger
	metrics  *metrics.Metrics
	auth     bool
	upgrader websocket.Upgrader
	started  time.Time
}

// NewHandler builds the API router. Every route is served at the root and
// again under /api.
func NewHandler(tok *stablecoin.Token, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.NewDefault(ServiceName)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("sss")
	}

	h := &handler{
		token:   tok,
		log:     log,
		metrics: m,
		auth:    len(opts.JWTSecret) > 0,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if !h.auth {
		log.Warn("SSS_JWT_SECRET is not set: running in operator mode without authentication")
	}

	router := mux.NewRouter()
	router.Use(middleware.NewTracingMiddleware(log).Handler)
	router.Use(middleware.MetricsMiddleware(ServiceName, m))
	if h.auth {
		skip := []string{"/health", "/metrics", "/api/health", "/api/metrics"}
		router.Use(middleware.NewAuthMiddleware(opts.JWTSecret, log, skip).Handler)
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst, log)
	}
	router.Use(limiter.Handler)

	h.register(router)
	h.register(router.PathPrefix("/api").Subrouter())
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalhttputil.WriteServiceError(w, r, svcerrors.NotFound("route"))
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.NewCORSMiddleware(origins).Handler(router)
}

func (h *handler) register(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/audit", h.auditStream).Methods(http.MethodGet)

	r.HandleFunc("/status", h.status).Methods(http.MethodGet)
	r.HandleFunc("/supply", h.supply).Methods(http.MethodGet)
	r.HandleFunc("/holders", h.holders).Methods(http.MethodGet)
	r.HandleFunc("/mint", h.mint).Methods(http.MethodPost)
	r.HandleFunc("/burn", h.burn).Methods(http.MethodPost)
	r.HandleFunc("/pause", h.pause).Methods(http.MethodPost)
	r.HandleFunc("/unpause", h.unpause).Methods(http.MethodPost)

	r.HandleFunc("/minters", h.minters).Methods(http.MethodGet)
	r.HandleFunc("/minters/add", h.addMinter).Methods(http.MethodPost)
	r.HandleFunc("/minters/remove", h.removeMinter).Methods(http.MethodPost)
	r.HandleFunc("/roles", h.listRoles).Methods(http.MethodGet)
	r.HandleFunc("/roles", h.updateRoles).Methods(http.MethodPost)
	r.HandleFunc("/authority/transfer", h.transferAuthority).Methods(http.MethodPost)

	r.HandleFunc("/compliance/blacklist", h.blacklist).Methods(http.MethodGet)
	r.HandleFunc("/compliance/blacklist", h.blacklistAdd).Methods(http.MethodPost)
	r.HandleFunc("/compliance/blacklist/remove", h.blacklistRemove).Methods(http.MethodPost)
	r.HandleFunc("/compliance/freeze", h.freeze).Methods(http.MethodPost)
	r.HandleFunc("/compliance/thaw", h.thaw).Methods(http.MethodPost)
	r.HandleFunc("/compliance/seize", h.seize).Methods(http.MethodPost)
	r.HandleFunc("/compliance/audit-log", h.complianceAuditLog).Methods(http.MethodGet)
	r.HandleFunc("/audit-log", h.auditLog).Methods(http.MethodGet)
}

// actor resolves who performs a request that needs role.
func (h *handler) actor(r *http.Request, role roles.Role) roles.Actor {
	if h.auth {
		return roles.As(middleware.GetUserID(r.Context()))
	}
	return h.token.HolderOf(role)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	internalhttputil.WriteJSON(w, status, v)
}

// writeError maps engine errors to 400, or 403 for a missing role.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se := svcerrors.FromDomain(err)
	h.log.WithContext(r.Context()).WithError(err).WithField("status", se.HTTPStatus).Warn("request failed")
	internalhttputil.WriteServiceError(w, r, se)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := internalhttputil.ReadJSON(r, v); err != nil {
		internalhttputil.WriteServiceError(w, r, svcerrors.BadRequest(err.Error(), err))
		return false
	}
	return true
}
