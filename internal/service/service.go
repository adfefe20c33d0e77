package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gocg-permutas/config"
	"gocg-permutas/internal/projection"
	"gocg-permutas/internal/repository"
	"gocg-permutas/pkg/jwt"
	"gocg-permutas/pkg/mailer"
)

// TokenBlacklist revokes session tokens before they expire.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Views the read models kept current by the projection syncer.
type Views struct {
	Directory *projection.Directory
	Swaps     *projection.SwapProjection
}

// Service aggregates every service.
type Service struct {
	Auth         AuthService
	Militar      MilitarService
	Permuta      PermutaService
	Export       ExportService
	Notification NotificationService
}

// NewService builds the aggregate. blacklist may be nil when Redis is not
// configured; logout then only clears the cookie.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	views Views,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m mailer.Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Militar:      NewMilitarService(repo, views.Directory, logger),
		Permuta:      NewPermutaService(repo, views.Swaps, logger),
		Export:       NewExportService(views.Swaps, logger),
		Notification: NewNotificationService(cfg.Mail.From, m, logger),
	}
}
