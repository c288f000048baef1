package middleware

import (
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/model"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserContextKey contextKey = "userContext"

type TokenVerifier interface {
	VerifyUser(ctx context.Context, token string) (*model.UserDTO, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// UserFromContext returns the authenticated user stored by VerifyToken or VerifyWSToken.
func UserFromContext(ctx context.Context) (*model.UserDTO, bool) {
	user, ok := ctx.Value(UserContextKey).(*model.UserDTO)
	return user, ok && user != nil
}

func (m *AuthMiddleware) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.authenticate(w, r, next, parts[1])
	})
}

func (m *AuthMiddleware) VerifyWSToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.authenticate(w, r, next, tokenString)
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request, next http.Handler, token string) {
	userContext, err := m.verifier.VerifyUser(r.Context(), token)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	ctx := context.WithValue(r.Context(), UserContextKey, userContext)
	next.ServeHTTP(w, r.WithContext(ctx))
}
