package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"stock-notification-service/config"
	"stock-notification-service/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	logger.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	dbURL := migrationURL(cfg.Db)

	sourceURL := os.Getenv("MIGRATIONS_PATH")
	if sourceURL == "" {
		sourceURL = "file://migrations"
	}

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		slog.Error("failed to init migrations", "error", err)
		os.Exit(1)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			slog.Warn("failed to close migrations", "source", sourceErr, "db", dbErr)
		}
	}()

	switch os.Args[1] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			slog.Error("migrate up failed", "error", err)
			os.Exit(1)
		} else if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("no change, database is up to date")
		} else {
			slog.Info("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			slog.Error("migrate down failed", "error", err)
			os.Exit(1)
		}
		slog.Info("last migration rolled back")

	case "goto":
		if len(os.Args) < 3 {
			slog.Error("goto needs a version")
			os.Exit(1)
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			slog.Error("invalid version", "version", os.Args[2], "error", err)
			os.Exit(1)
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			slog.Error("migrate goto failed", "version", version, "error", err)
			os.Exit(1)
		}
		slog.Info("migrated", "version", version)

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			slog.Error("read version failed", "error", err)
			os.Exit(1)
		}
		slog.Info("current version", "version", version, "dirty", dirty)

	default:
		printUsage()
		os.Exit(1)
	}
}

func migrationURL(cfg config.DbConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.DbName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

func printUsage() {
	fmt.Println("usage: migrate <up|down|goto VERSION|version>")
}
