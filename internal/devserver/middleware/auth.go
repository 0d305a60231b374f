package middleware

import (
	"context"
	"net/http"
	"strings"

	"ticketing-front/internal/devserver/service"
	"ticketing-front/pkg/apierror"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// bearerToken extracts the token of an "Authorization: Bearer ..." header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		noteUser(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authClaimsContextKey, claims)))
	})
}

// roleSet holds role names without their ROLE_ prefix, upper-cased.
type roleSet map[string]struct{}

func newRoleSet(roles []string) roleSet {
	set := roleSet{}
	for _, role := range roles {
		set[normalizeRole(role)] = struct{}{}
	}
	return set
}

func (s roleSet) admitsAny(roles []string) bool {
	for _, role := range roles {
		if _, ok := s[normalizeRole(role)]; ok {
			return true
		}
	}
	return false
}

// RequireRoles lets the request through when the caller holds any of the
// roles. "ADMIN" and "ROLE_ADMIN" are the same role.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := newRoleSet(allowedRoles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !allowed.admitsAny(claims.Roles) {
				deny(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*service.Claims)
	return claims, ok
}

func normalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}

func deny(w http.ResponseWriter, status int, message string) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	writeJSONError(w, apierror.New(code, message, status))
}
