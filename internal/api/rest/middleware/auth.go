// Package middleware provides various middleware functionality.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelclaims"
	"github.com/devtomiwa9/pxsm-backend/internal/service/secretary"
)

type contextKey int

const claimsKey contextKey = iota

// TokenHandler sets object structure.
type TokenHandler struct {
	sec *secretary.Secretary
}

// NewTokenHandler initializes a new token handler.
func NewTokenHandler(sec *secretary.Secretary) (*TokenHandler, error) {
	if sec == nil {
		return nil, errors.New("nil secretary object was found")
	}
	return &TokenHandler{sec: sec}, nil
}

// TokenHandle provides bearer token handling functionality. Verified claims
// are placed into the request context for downstream handlers.
func (c *TokenHandler) TokenHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if len(tokenString) == 0 {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		tokenString = strings.Replace(tokenString, "Bearer ", "", 1)
		claims, err := c.sec.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// GetClaims retrieves verified claims stored by TokenHandle, nil when absent.
func GetClaims(ctx context.Context) *modelclaims.MyCustomClaims {
	claims, _ := ctx.Value(claimsKey).(*modelclaims.MyCustomClaims)
	return claims
}
