package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/service"
	"gocg-permutas/pkg/response"
)

const maxImportFileSize = 5 << 20

// MilitarHandler roster HTTP handlers.
type MilitarHandler struct {
	militarSvc service.MilitarService
}

// NewMilitarHandler creates a MilitarHandler.
func NewMilitarHandler(militarSvc service.MilitarService) *MilitarHandler {
	return &MilitarHandler{militarSvc: militarSvc}
}

// ListMilitares
// GET /api/v1/militares
func (h *MilitarHandler) ListMilitares(c *gin.Context) {
	list := h.militarSvc.List()
	response.OKList(c, list, len(list))
}

// GetMilitar
// GET /api/v1/militares/:rg
func (h *MilitarHandler) GetMilitar(c *gin.Context) {
	result, err := h.militarSvc.Get(c.Param("rg"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// CreateMilitar
// POST /api/v1/militares
func (h *MilitarHandler) CreateMilitar(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.CreateMilitarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Preencha RG, graduação, nome e unidade.")
		return
	}

	result, err := h.militarSvc.Create(c.Request.Context(), &req, rg)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateMilitar
// PUT /api/v1/militares/:rg
func (h *MilitarHandler) UpdateMilitar(c *gin.Context) {
	callerRG, ok := MustGetRG(c)
	if !ok {
		return
	}

	var req dto.UpdateMilitarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Preencha graduação, nome e unidade.")
		return
	}

	result, err := h.militarSvc.Update(c.Request.Context(), c.Param("rg"), &req, callerRG)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteMilitar
// DELETE /api/v1/militares/:rg
func (h *MilitarHandler) DeleteMilitar(c *gin.Context) {
	if err := h.militarSvc.Delete(c.Request.Context(), c.Param("rg")); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ImportMilitares bulk roster upsert from an .xlsx upload (field "file").
// POST /api/v1/militares/import
func (h *MilitarHandler) ImportMilitares(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "Envie a planilha no campo file.")
		return
	}
	if fh.Size > maxImportFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, 12004, "Planilha muito grande (máximo 5 MB).")
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		response.BadRequest(c, 12005, "Apenas arquivos .xlsx são aceitos.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	rows, err := h.militarSvc.ParseImportFile(f)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.militarSvc.Import(c.Request.Context(), rows, rg)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *MilitarHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMilitarNotFound):
		response.NotFound(c, 12001, "RG não encontrado.")
	case errors.Is(err, service.ErrMilitarExists):
		response.Conflict(c, 12002, "RG já cadastrado no efetivo.")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 12003, "A planilha não contém linhas de dados.")
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 12003, "A planilha deve ter as colunas RG, GRAD, NOME e UNIDADE.")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 12003, "A planilha excede o limite de linhas.")
	default:
		response.InternalError(c)
	}
}
