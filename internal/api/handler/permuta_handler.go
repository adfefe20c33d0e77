package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/service"
	pkgerrors "gocg-permutas/pkg/errors"
	"gocg-permutas/pkg/response"
)

// PermutaHandler swap lifecycle HTTP handlers.
type PermutaHandler struct {
	permutaSvc service.PermutaService
}

// NewPermutaHandler creates a PermutaHandler.
func NewPermutaHandler(permutaSvc service.PermutaService) *PermutaHandler {
	return &PermutaHandler{permutaSvc: permutaSvc}
}

// ListPermutas
// GET /api/v1/permutas?arquivada=&status=&rg=
func (h *PermutaHandler) ListPermutas(c *gin.Context) {
	rg, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.PermutaListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Filtro inválido.")
		return
	}

	list := h.permutaSvc.List(&req, rg, role)
	response.OKList(c, list, len(list))
}

// GetPermuta
// GET /api/v1/permutas/:id
func (h *PermutaHandler) GetPermuta(c *gin.Context) {
	rg, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.permutaSvc.Get(c.Param("id"), rg, role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// CreatePermutas creates every requested swap or none.
// POST /api/v1/permutas
func (h *PermutaHandler) CreatePermutas(c *gin.Context) {
	rg, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreatePermutasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Preencha data, função e os dois militares de cada permuta.")
		return
	}

	ids, err := h.permutaSvc.Create(c.Request.Context(), &req, rg, role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, dto.CreatePermutasResponse{IDs: ids})
}

// SetStatus approves or rejects a pending swap.
// PUT /api/v1/permutas/:id/status
func (h *PermutaHandler) SetStatus(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Situação deve ser Aprovada ou Rejeitada.")
		return
	}

	if err := h.permutaSvc.SetStatus(c.Request.Context(), c.Param("id"), req.Status, rg); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// MarkSent
// POST /api/v1/permutas/enviar
func (h *PermutaHandler) MarkSent(c *gin.Context) {
	h.batch(c, h.permutaSvc.MarkSent)
}

// Archive
// POST /api/v1/permutas/arquivar
func (h *PermutaHandler) Archive(c *gin.Context) {
	h.batch(c, h.permutaSvc.Archive)
}

// Unarchive
// POST /api/v1/permutas/desarquivar
func (h *PermutaHandler) Unarchive(c *gin.Context) {
	h.batch(c, h.permutaSvc.Unarchive)
}

type batchFunc func(ctx context.Context, ids []string, callerRG string) (int, error)

func (h *PermutaHandler) batch(c *gin.Context, fn batchFunc) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.BatchIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Selecione ao menos uma permuta.")
		return
	}

	n, err := fn(c.Request.Context(), req.IDs, rg)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, dto.BatchResponse{Updated: n})
}

// Confirm records the caller's agreement; the password is checked again.
// POST /api/v1/permutas/:id/confirmar
func (h *PermutaHandler) Confirm(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.ConfirmPermutaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Informe sua senha para confirmar.")
		return
	}

	err := h.permutaSvc.Confirm(c.Request.Context(), c.Param("id"), rg, req.Password)
	switch {
	case err == nil:
		response.OK(c, nil)
	case errors.Is(err, service.ErrWrongPassword):
		response.Error(c, http.StatusUnauthorized, 11002, "Senha incorreta.")
	case errors.Is(err, service.ErrNotRegistered):
		response.Forbidden(c, 13005, "Você precisa estar cadastrado na plataforma para confirmar permutas.")
	case isKnownPermutaError(err):
		h.handleError(c, err)
	default:
		response.Error(c, http.StatusInternalServerError, 50000, "Erro ao confirmar permuta. Tente novamente.")
	}
}

// Invert swaps the incoming and outgoing militares.
// POST /api/v1/permutas/:id/inverter
func (h *PermutaHandler) Invert(c *gin.Context) {
	rg, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	err := h.permutaSvc.Invert(c.Request.Context(), c.Param("id"), rg, role)
	switch {
	case err == nil:
		response.OK(c, nil)
	case isKnownPermutaError(err):
		h.handleError(c, err)
	default:
		response.Error(c, http.StatusInternalServerError, 50000, "Erro ao inverter militares. Tente novamente.")
	}
}

func isKnownPermutaError(err error) bool {
	for _, target := range []error{
		service.ErrPermutaNotFound,
		service.ErrInvalidPermuta,
		service.ErrNotParticipant,
		service.ErrAlreadyConfirmed,
		service.ErrInvalidTransition,
		service.ErrAlreadySent,
		pkgerrors.ErrOptimisticLock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *PermutaHandler) handleError(c *gin.Context, err error) {
	var invalid *service.PermutaValidationError
	switch {
	case errors.Is(err, service.ErrPermutaNotFound):
		response.NotFound(c, 13001, "Permuta não encontrada.")
	case errors.As(err, &invalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13002, invalid.Reason,
			gin.H{"index": invalid.Index})
	case errors.Is(err, service.ErrNotParticipant):
		response.Forbidden(c, 13003, "Você não está envolvido nesta permuta.")
	case errors.Is(err, service.ErrAlreadyConfirmed):
		response.Conflict(c, 13004, "Você já confirmou esta permuta.")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 13006, "A situação desta permuta não permite esta operação.")
	case errors.Is(err, service.ErrAlreadySent):
		response.Conflict(c, 13007, "Permuta já enviada não pode ser alterada.")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13008, "A permuta foi alterada por outra pessoa. Atualize a página e tente novamente.")
	default:
		response.InternalError(c)
	}
}
