package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"gocg-permutas/pkg/response"
)

// Context keys set by middleware.JWTAuth.
const (
	CtxRG       = "rg"
	CtxRole     = "role"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetRG extracts the caller's RG. When the auth middleware did not run it
// writes a 401 and returns false; the caller should return immediately.
func MustGetRG(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxRG)
}

// MustGetRole extracts the caller's role.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxRole)
}

// MustGetCaller extracts both RG and role.
func MustGetCaller(c *gin.Context) (rg, role string, ok bool) {
	if rg, ok = MustGetRG(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return rg, role, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "Sessão expirada. Faça login novamente.")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Sessão expirada. Faça login novamente.")
		return "", false
	}
	return s, true
}

// tokenInfo returns the ID and expiry of the token that authenticated the
// request, zero values when absent.
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(CtxTokenJTI)
	exp, _ := c.Get(CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}
