package main

import (
	"context"
	"log/slog"
	"os"

	"polltree/internal/config"
	"polltree/internal/platform/database"
	"polltree/internal/repository/gormrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	db, err := database.Open(context.Background(), cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("db connect error", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	if err := gormrepo.AutoMigrate(db); err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}
	slog.Info("schema up to date", "driver", cfg.DBDriver)
}
