package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/service"
	"gocg-permutas/pkg/mailer"
	"gocg-permutas/pkg/response"
)

// NotificationHandler e-mail notification HTTP handlers.
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// SendPermutaEmail
// POST /api/v1/notifications/permuta-email
func (h *NotificationHandler) SendPermutaEmail(c *gin.Context) {
	var req dto.SendPermutaEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Dados do e-mail inválidos.")
		return
	}

	result, err := h.notificationSvc.SendPermutaEmail(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmailRequest):
			response.BadRequest(c, 15001, "Informe um e-mail válido e os dados completos da permuta.")
		case errors.Is(err, mailer.ErrUnavailable):
			response.Error(c, http.StatusServiceUnavailable, 15002, "Serviço de e-mail indisponível. Tente novamente mais tarde.")
		case errors.Is(err, mailer.ErrRejected):
			response.Error(c, http.StatusBadGateway, 15003, "O provedor recusou o e-mail.")
		default:
			response.Error(c, http.StatusInternalServerError, 50000, "Erro ao enviar e-mail. Tente novamente.")
		}
		return
	}

	response.OK(c, result)
}
