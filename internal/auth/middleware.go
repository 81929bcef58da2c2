package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/noah-isme/storefront/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware wires verified identities into HTTP handlers.
type Middleware struct {
	Verifier *Verifier
}

// Authenticate attaches the identity when a valid token is present and
// otherwise serves the request anonymously.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth enforces that a valid token is present before executing the next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
				common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated callers whose role is not listed. It must
// run after RequireAuth.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := common.UserID(r.Context()); !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			if !slices.Contains(roles, common.Role(r.Context())) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	if m.Verifier == nil {
		return r.Context(), errors.New("auth: verifier not configured")
	}
	token := bearerToken(r)
	if token == "" {
		return r.Context(), errNoToken
	}
	claims, err := m.Verifier.Verify(token)
	if err != nil {
		return r.Context(), err
	}
	ctx := common.WithUserID(r.Context(), claims.UserID)
	ctx = common.WithRole(ctx, claims.Role)
	if claims.Phone != "" {
		ctx = withPhone(ctx, claims.Phone)
	}
	return ctx, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

type phoneKey struct{}

func withPhone(ctx context.Context, phone string) context.Context {
	return context.WithValue(ctx, phoneKey{}, phone)
}

// Phone returns the verified phone number claim, if the token carried one.
func Phone(ctx context.Context) string {
	phone, _ := ctx.Value(phoneKey{}).(string)
	return phone
}
