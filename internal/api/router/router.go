package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocg-permutas/config"
	"gocg-permutas/internal/api/handler"
	"gocg-permutas/internal/api/middleware"
	"gocg-permutas/internal/model"
	"gocg-permutas/pkg/jwt"
	"gocg-permutas/pkg/redis"
)

const (
	authRateLimit  = 10
	authRateWindow = 5 * time.Minute
)

// Setup builds the Gin engine. rdb and db may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var bl middleware.Blacklist
	if rdb != nil {
		bl = rdb
	}
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			limited := middleware.RateLimit(rdb, authRateLimit, authRateWindow)
			auth.POST("/login", limited, h.Auth.Login)
			auth.POST("/register", limited, h.Auth.Register)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, bl, cfg.Auth.Cookie.Name))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			militares := authorized.Group("/militares")
			{
				militares.GET("", h.Militar.ListMilitares)
				militares.GET("/:rg", h.Militar.GetMilitar)
				militares.POST("", adminOnly, h.Militar.CreateMilitar)
				militares.POST("/import", adminOnly, h.Militar.ImportMilitares)
				militares.PUT("/:rg", adminOnly, h.Militar.UpdateMilitar)
				militares.DELETE("/:rg", adminOnly, h.Militar.DeleteMilitar)
			}

			permutas := authorized.Group("/permutas")
			{
				permutas.GET("", h.Permuta.ListPermutas)
				permutas.POST("", h.Permuta.CreatePermutas)
				permutas.POST("/enviar", adminOnly, h.Permuta.MarkSent)
				permutas.POST("/arquivar", adminOnly, h.Permuta.Archive)
				permutas.POST("/desarquivar", adminOnly, h.Permuta.Unarchive)
				permutas.GET("/:id", h.Permuta.GetPermuta)
				permutas.PUT("/:id/status", adminOnly, h.Permuta.SetStatus)
				permutas.POST("/:id/confirmar", h.Permuta.Confirm)
				permutas.POST("/:id/inverter", h.Permuta.Invert)
			}

			export := authorized.Group("/export")
			{
				export.GET("/permutas", adminOnly, h.Export.ExportPermutas)
				export.GET("/permutas/print", adminOnly, h.Export.PrintPermutas)
				export.GET("/calendar", h.Export.ExportCalendar)
			}

			authorized.POST("/notifications/permuta-email", h.Notification.SendPermutaEmail)
		}
	}

	return r
}
