// Command createadmin creates or promotes the first administrator so the
// service can be reached before anyone has registered.
//
//	createadmin [-rg 12961] [-grad CAP] [-quadro QOA] [-nome J.SANTOS] [-unidade GOCG] [-reset-password]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gocg-permutas/config"
	"gocg-permutas/internal/repository"
	"gocg-permutas/pkg/changefeed"
	"gocg-permutas/pkg/database"
	applogger "gocg-permutas/pkg/logger"
	"gocg-permutas/pkg/redis"
)

func main() {
	var opts adminOptions
	flag.StringVar(&opts.RG, "rg", "12961", "RG of the administrator")
	flag.StringVar(&opts.Grad, "grad", "CAP", "graduação")
	flag.StringVar(&opts.Quadro, "quadro", "QOA", "quadro")
	flag.StringVar(&opts.Nome, "nome", "J.SANTOS", "nome de guerra")
	flag.StringVar(&opts.Unidade, "unidade", "GOCG", "unidade")
	flag.BoolVar(&opts.ResetPassword, "reset-password", false, "replace the password of an existing usuario")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "createadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(opts adminOptions) error {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("PERMUTAS_CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Running servers pick the change up through the feed when Redis is
	// there, otherwise on their next periodic resync.
	var feed changefeed.Publisher
	if rdb, err := redis.NewClient(&cfg.Redis, logger); err == nil {
		defer rdb.Close()
		feed = changefeed.NewRedisFeed(rdb, cfg.Redis.ChangeChannel, logger)
	} else {
		logger.Warn("redis unavailable, servers will see the admin after their next resync", zap.Error(err))
	}
	repo := repository.NewRepository(db, feed, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := bootstrap(ctx, repo.Militar, repo.Usuario, opts, func() (string, error) {
		return promptPassword(os.Stdout)
	})
	if err != nil {
		return err
	}

	fmt.Printf("RG:   %s\nNome: %s %s %s\nRole: admin\n", opts.RG, opts.Grad, opts.Quadro, opts.Nome)
	switch {
	case res.Created:
		fmt.Println("Usuario admin criado. Troque a senha após o primeiro acesso.")
	case res.PasswordReset:
		fmt.Println("Usuario promovido a admin e senha redefinida.")
	default:
		fmt.Println("Usuario já existia: promovido a admin, senha mantida.")
	}
	return nil
}
