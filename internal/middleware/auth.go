package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"hamkae-backend/pkg/utils"
)

// UserClaims is the authenticated identity extracted from the JWT.
type UserClaims struct {
	UserID   string
	Username string
}

type contextKey string

const userContextKey contextKey = "user"

// ParseToken validates a JWT and extracts the user claims.
func ParseToken(tokenString, secret string) (*UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token missing user_id")
	}

	return &UserClaims{UserID: userID, Username: username}, nil
}

// RequireAuth rejects requests without a valid Bearer token and puts
// the claims on the request context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				utils.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
			if err != nil {
				utils.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the claims set by RequireAuth.
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	claims, ok := r.Context().Value(userContextKey).(UserClaims)
	return claims, ok
}
