package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"gocg-permutas/internal/service"
	"gocg-permutas/pkg/response"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler document export HTTP handlers.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPermutas downloads the selected permutas as a spreadsheet.
// GET /api/v1/export/permutas?ids=a,b
func (h *ExportHandler) ExportPermutas(c *gin.Context) {
	ids, ok := selectedIDs(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(ids)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// PrintPermutas renders the selected permutas as a printable page.
// GET /api/v1/export/permutas/print?ids=a,b
func (h *ExportHandler) PrintPermutas(c *gin.Context) {
	ids, ok := selectedIDs(c)
	if !ok {
		return
	}

	page, err := h.exportSvc.ExportPrint(ids)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ExportCalendar downloads the caller's active permutas as iCalendar.
// GET /api/v1/export/calendar
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	rg, ok := MustGetRG(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportCalendar(rg)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// selectedIDs reads the comma separated ids query parameter.
func selectedIDs(c *gin.Context) ([]string, bool) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		response.BadRequest(c, 14001, "Nenhuma permuta selecionada.")
		return nil, false
	}
	return ids, true
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportEmpty):
		response.BadRequest(c, 14001, "Nenhuma permuta selecionada.")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 14002, "Erro ao gerar o documento. Tente novamente.")
	default:
		response.InternalError(c)
	}
}
