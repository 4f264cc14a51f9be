package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/accessride/internal/apperrors"
)

type callerKey struct{}

// Claims carried by client tokens. user_id falls back to the registered
// subject when absent.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, apperrors.E(apperrors.Unauthenticated, "authorization header required"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		if raw == auth {
			writeError(w, apperrors.E(apperrors.Unauthenticated, "bearer token required"))
			return
		}
		token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			writeError(w, apperrors.E(apperrors.Unauthenticated, "invalid token"))
			return
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			writeError(w, apperrors.E(apperrors.Unauthenticated, "invalid token claims"))
			return
		}
		uid := claims.UserID
		if uid == "" {
			uid = claims.Subject
		}
		if uid == "" {
			writeError(w, apperrors.E(apperrors.Unauthenticated, "token carries no user id"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, uid)))
	})
}

func callerID(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey{}).(string); ok {
		return v
	}
	return ""
}
