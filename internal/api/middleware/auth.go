package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"gocg-permutas/pkg/jwt"
	"gocg-permutas/pkg/response"
)

// Context keys. Mirrored by handler.MustGetRG and friends.
const (
	ctxRG       = "rg"
	ctxRole     = "role"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// Blacklist reports revoked token IDs.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth authenticates the request with the access token from the
// Authorization: Bearer header, falling back to the session cookie.
// bl may be nil, in which case revocation is not checked. A blacklist
// lookup error lets the request through.
func JWTAuth(jwtMgr *jwt.Manager, bl Blacklist, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c, cookieName)
		if !ok {
			response.Unauthorized(c, 10002, "Faça login para continuar.")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Sessão expirada. Faça login novamente.")
			c.Abort()
			return
		}

		if bl != nil && claims.ID != "" {
			revoked, err := bl.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Sessão encerrada. Faça login novamente.")
				c.Abort()
				return
			}
		}

		c.Set(ctxRG, claims.RG)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v, true
		}
	}
	return "", false
}

// RoleAuth allows the request only when the caller holds one of allowedRoles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Unauthorized(c, 10002, "Faça login para continuar.")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "Acesso restrito a administradores.")
		c.Abort()
	}
}
