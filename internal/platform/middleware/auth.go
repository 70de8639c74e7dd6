package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "vprove/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Account id.AccountID
	JTI     string
}

type contextKeyAccount struct{}

// ContextKeyAccount is exported for use in handlers
var ContextKeyAccount = contextKeyAccount{}

// GetAccount retrieves the authenticated caller account from the context.
// Returns the null account if the request was not authenticated.
func GetAccount(ctx context.Context) id.AccountID {
	account, ok := ctx.Value(ContextKeyAccount).(id.AccountID)
	if !ok {
		return id.AccountID{}
	}
	return account
}

// RequireAuth authenticates the caller from a Bearer token and stores the
// account in the request context. Operations downstream treat this identity
// as unforgeable.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(token)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}

				ctx := context.WithValue(r.Context(), ContextKeyAccount, claims.Account)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// No Authorization header or invalid format
			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", GetRequestID(ctx),
			)
			writeUnauthorized(w, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
