package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/config"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/handler"
	"github.com/jamiec/internal/logging"
	"github.com/jamiec/internal/router"
	"github.com/jamiec/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	// 初始化数据库
	gdb, err := db.Open(db.Options{Dialect: cfg.DatabaseDialect, DSN: cfg.DatabaseURL})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(gdb)

	ctx := context.Background()
	if cfg.AutoMigrate {
		fsys, err := db.Migrations(cfg.DatabaseDialect)
		if err != nil {
			slog.Error("failed to load migrations", "error", err)
			os.Exit(1)
		}
		if _, err := db.NewMigrator(gdb, fsys).Up(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	if cfg.OfficeAuthEnabled() {
		if _, err := service.NewUserService(gdb).EnsureUser(ctx, cfg.OfficeUserName, cfg.OfficePassword); err != nil {
			slog.Error("failed to provision office user", "error", err)
			os.Exit(1)
		}
	}

	gin.SetMode(cfg.GinMode)

	api := handler.NewAPI(gdb, handler.Options{
		SiteTitle:       cfg.SiteTitle,
		SiteDescription: cfg.SiteDescription,
		OfficeAuth:      cfg.OfficeAuthEnabled(),
	})
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.SecureCookies,
	})

	slog.Info("server starting", "addr", cfg.ListenAddr, "dialect", cfg.DatabaseDialect)
	if err := r.Run(cfg.ListenAddr); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}
