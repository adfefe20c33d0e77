package handler

import (
	"gocg-permutas/config"
	"gocg-permutas/internal/service"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth         *AuthHandler
	Militar      *MilitarHandler
	Permuta      *PermutaHandler
	Export       *ExportHandler
	Notification *NotificationHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth.Cookie),
		Militar:      NewMilitarHandler(svc.Militar),
		Permuta:      NewPermutaHandler(svc.Permuta),
		Export:       NewExportHandler(svc.Export),
		Notification: NewNotificationHandler(svc.Notification),
	}
}
