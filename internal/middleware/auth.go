// Package middleware provides HTTP middleware for the stablecoin API.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/stablecoin_layer/internal/errors"
	internalhttputil "github.com/R3E-Network/stablecoin_layer/internal/httputil"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
)

const bearerPrefix = "Bearer "

// Claims are the bearer token claims. Subject is the caller's wallet address;
// which roles that address holds is decided by the registry, not the token.
type Claims struct {
	jwt.RegisteredClaims
}

// AuthMiddleware validates HS256 bearer tokens. Read-only requests pass without
// a token; mutating requests require one.
type AuthMiddleware struct {
	secret []byte
	parser *jwt.Parser
	logger *logging.Logger
	public map[string]struct{}
}

func NewAuthMiddleware(secret []byte, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	public := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		public[p] = struct{}{}
	}
	return &AuthMiddleware{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		logger: logger,
		public: public,
	}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.public[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		raw, present, err := bearerToken(r)
		switch {
		case err != nil:
			m.reject(w, r, err)
			return
		case !present && safeMethod(r.Method):
			next.ServeHTTP(w, r)
			return
		case !present:
			m.reject(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		claims, err := m.validateToken(raw)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), logging.UserIDKey, claims.Subject)
		m.logger.WithContext(ctx).Debug("bearer token accepted")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reports whether an Authorization header was sent and extracts
// its token. A header with another scheme is an error.
func bearerToken(r *http.Request) (string, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
		return "", true, errors.Unauthorized("Invalid Authorization header format")
	}
	return strings.TrimPrefix(header, bearerPrefix), true, nil
}

func safeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func (m *AuthMiddleware) validateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}
	if claims.Subject == "" {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "missing subject")
	}
	return claims, nil
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := errors.GetServiceError(err)
	if svcErr == nil {
		svcErr = errors.Internal("Authentication failed", err)
	}
	m.logger.LogSecurityEvent(r.Context(), "auth_rejected", map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"code":   svcErr.Code,
		"error":  err.Error(),
	})
	internalhttputil.WriteServiceError(w, r, svcErr)
}

// IssueToken signs an HS256 token for subject, valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GetUserID returns the authenticated wallet address, or "".
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(logging.UserIDKey).(string)
	return id
}
