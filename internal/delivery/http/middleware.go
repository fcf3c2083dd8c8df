package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"grievchat/internal/entity"
	"grievchat/pkg/jwt"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// AuthMiddleware validates bearer tokens issued by the portal's auth
// service. Session issuance itself lives outside this service.
type AuthMiddleware struct {
	jwtManager *jwt.JWTManager
}

func NewAuthMiddleware(jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, "authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeUnauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects department sessions; citizen-only routes use it after
// Authenticate.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return requireType(next, entity.SenderUser, "user account required")
}

// RequireDepartment rejects citizen sessions; department-only routes use it
// after Authenticate.
func (m *AuthMiddleware) RequireDepartment(next http.Handler) http.Handler {
	return requireType(next, entity.SenderDepartment, "department account required")
}

func requireType(next http.Handler, userType entity.SenderType, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.UserType != userType {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(Response{Message: message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the validated session claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) (entity.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(entity.TokenClaims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(Response{Message: message})
}
