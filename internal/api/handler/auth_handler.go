package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gocg-permutas/config"
	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/service"
	"gocg-permutas/pkg/response"
)

const defaultSessionCookie = "permutas_session"

const passwordTooLongMsg = "Senha muito longa. Use no máximo 72 bytes (caracteres acentuados contam em dobro)."

// AuthHandler session HTTP handlers.
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
}

// NewAuthHandler creates an AuthHandler. cookie may be nil in tests.
func NewAuthHandler(authSvc service.AuthService, cookie *config.CookieConfig) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if cookie != nil {
		h.cookie = *cookie
	}
	if h.cookie.Name == "" {
		h.cookie.Name = defaultSessionCookie
	}
	return h
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Informe RG e senha.")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRegistered):
			response.Error(c, http.StatusUnauthorized, 11001, "RG não encontrado.")
		case errors.Is(err, service.ErrWrongPassword):
			response.Error(c, http.StatusUnauthorized, 11002, "Senha incorreta.")
		default:
			response.Error(c, http.StatusInternalServerError, 50000, "Erro ao fazer login. Tente novamente.")
		}
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.ExpiresIn)
	response.OK(c, result)
}

// Register
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Preencha todos os campos. A senha deve ter ao menos 6 caracteres.")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		var mismatch *service.DataMismatchError
		switch {
		case errors.Is(err, service.ErrAlreadyRegistered):
			response.Conflict(c, 11003, "RG já cadastrado.")
		case errors.Is(err, service.ErrUnknownPersonnel):
			response.NotFound(c, 11004, "RG não encontrado no efetivo. Procure o administrador.")
		case errors.Is(err, service.ErrPasswordTooLong):
			response.BadRequest(c, 11006, passwordTooLongMsg)
		case errors.As(err, &mismatch):
			response.ErrorWithDetails(c, http.StatusBadRequest, 11005,
				"Os dados informados não conferem com o efetivo.",
				gin.H{"fields": mismatch.Fields})
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Logout revokes the current token and clears the session cookie.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	h.setSessionCookie(c, "", -1)
	response.OK(c, nil)
}

// GetCurrentUser
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	result, err := h.authSvc.CurrentUser(c.Request.Context(), rg)
	if err != nil {
		if errors.Is(err, service.ErrNotRegistered) {
			response.Unauthorized(c, 10002, "Sessão expirada. Faça login novamente.")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ChangePassword
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "A nova senha deve ter ao menos 6 caracteres.")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), rg, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			response.BadRequest(c, 11002, "Senha atual incorreta.")
		case errors.Is(err, service.ErrPasswordTooLong):
			response.BadRequest(c, 11006, passwordTooLongMsg)
		case errors.Is(err, service.ErrNotRegistered):
			response.Unauthorized(c, 10002, "Sessão expirada. Faça login novamente.")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// setSessionCookie writes the HttpOnly session cookie; maxAge < 0 deletes it.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(sameSiteMode(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sameSiteMode(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
