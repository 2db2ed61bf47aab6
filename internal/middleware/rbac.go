package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// Self grants access when the :id route param names the caller, either as a
// user or as the employee the account belongs to.
const Self = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	p := newPolicy(allowed)

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !p.permits(claims, c.Param("id")) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Allowed applies the RBAC rule inside a handler, with Self matched against
// targetID rather than the :id route param.
func Allowed(c *gin.Context, targetID string, allowed ...string) bool {
	claims, ok := Claims(c)
	if !ok {
		return false
	}
	return newPolicy(allowed).permits(claims, targetID)
}

type policy struct {
	roles map[models.UserRole]struct{}
	self  bool
}

func newPolicy(allowed []string) policy {
	p := policy{roles: make(map[models.UserRole]struct{}, len(allowed))}
	for _, a := range allowed {
		if a == Self {
			p.self = true
			continue
		}
		p.roles[models.UserRole(a)] = struct{}{}
	}
	return p
}

func (p policy) permits(claims *models.JWTClaims, targetID string) bool {
	if _, ok := p.roles[claims.Role]; ok {
		return true
	}
	return p.self && targetID != "" && (targetID == claims.UserID || targetID == claims.AccountID)
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
