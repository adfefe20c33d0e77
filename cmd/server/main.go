package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gocg-permutas/config"
	"gocg-permutas/internal/api/handler"
	"gocg-permutas/internal/api/router"
	"gocg-permutas/internal/projection"
	"gocg-permutas/internal/repository"
	"gocg-permutas/internal/service"
	"gocg-permutas/pkg/changefeed"
	"gocg-permutas/pkg/database"
	"gocg-permutas/pkg/jwt"
	applogger "gocg-permutas/pkg/logger"
	"gocg-permutas/pkg/mailer"
	"gocg-permutas/pkg/redis"
)

func main() {
	// 1. configuration (.env first so viper sees it)
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("PERMUTAS_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("mail_provider", cfg.Mail.Provider),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. Redis is optional: without it there is no token blacklist, no rate
	// limit and the change feed stays in process.
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running single-instance", zap.Error(err))
		rdb = nil
	}

	var feed changefeed.Feed
	var blacklist service.TokenBlacklist
	if rdb != nil {
		feed = changefeed.NewRedisFeed(rdb, cfg.Redis.ChangeChannel, logger)
		blacklist = rdb
	} else {
		feed = changefeed.NewBroker(256)
	}

	// 5. store + projections
	repo := repository.NewRepository(db, feed, logger)
	views := service.Views{
		Directory: projection.NewDirectory(),
		Swaps:     projection.NewSwapProjection(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer := projection.NewSyncer(repo.Militar, repo.Permuta, views.Directory, views.Swaps, feed, logger)
	if err := syncer.Start(ctx); err != nil {
		logger.Fatal("start projection syncer", zap.Error(err))
	}
	logger.Info("projections loaded",
		zap.Int("militares", views.Directory.Len()),
		zap.Int("permutas", views.Swaps.Len()),
	)

	// 6. periodic full resync heals notifications lost by pub/sub
	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("create scheduler", zap.Error(err))
	}
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Sync.ResyncInterval),
		gocron.NewTask(func() {
			if err := syncer.Resync(ctx); err != nil {
				logger.Error("periodic resync failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Fatal("schedule resync", zap.Error(err))
	}
	sched.Start()

	// 7. Service → Handler → Router
	m, err := mailer.New(&cfg.Mail, logger)
	if err != nil {
		logger.Fatal("init mailer", zap.Error(err))
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repo, views, jwtMgr, blacklist, m, logger)
	h := handler.NewHandler(cfg, svc)
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	if err := sched.Shutdown(); err != nil {
		logger.Error("scheduler shutdown", zap.Error(err))
	}

	select {
	case <-syncer.Done():
	case <-shutdownCtx.Done():
		logger.Warn("projection syncer did not stop in time")
	}

	if rdb != nil {
		rdb.Close()
	}
	sqlDB.Close()

	logger.Info("stopped")
}
