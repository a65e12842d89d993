package errors

import (
	"errors"

	"github.com/R3E-Network/stablecoin_layer/internal/compliance"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

var domainKinds = []struct {
	err  error
	kind string
}{
	{ledger.ErrInvalidAmount, "INVALID_AMOUNT"},
	{ledger.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ledger.ErrTokenPaused, "TOKEN_PAUSED"},
	{ledger.ErrVerificationTimeout, "VERIFICATION_TIMEOUT"},
	{roles.ErrNotCurrentHolder, "NOT_CURRENT_HOLDER"},
	{roles.ErrUnknownRole, "UNKNOWN_ROLE"},
	{compliance.ErrNotBlacklisted, "NOT_BLACKLISTED"},
	{compliance.ErrComplianceNotEnabled, "COMPLIANCE_NOT_ENABLED"},
	{compliance.ErrTargetNotBlacklisted, "TARGET_NOT_BLACKLISTED"},
	{token.ErrAddressParse, "ADDRESS_PARSE"},
	{token.ErrInvalidConfig, "INVALID_CONFIG"},
}

// FromDomain maps an engine error to a ServiceError. A missing role is 403;
// every other engine failure is a 400 carrying the error message and its kind.
func FromDomain(err error) *ServiceError {
	if err == nil {
		return nil
	}
	if se := GetServiceError(err); se != nil {
		return se
	}
	if errors.Is(err, roles.ErrUnauthorized) {
		return Forbidden(err.Error(), err)
	}
	se := BadRequest(err.Error(), err)
	for _, k := range domainKinds {
		if errors.Is(err, k.err) {
			return se.WithDetails("kind", k.kind)
		}
	}
	return se
}
