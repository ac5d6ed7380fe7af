package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"upsignal/internal/infrastructure/config"
	"upsignal/internal/infrastructure/db"
	httpapi "upsignal/internal/interface/http"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("load config failed")
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("database connection failed, falling back to in-memory store")
		pool = nil
	} else if pool == nil {
		logger.Info().Msg("no DB_DSN provided; running with in-memory store only")
	} else {
		defer pool.Close()
		logger.Info().Msg("database connected")
	}

	apiServer := httpapi.NewServer(cfg, pool, logger)
	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
	if err := http.ListenAndServe(cfg.HTTP.Addr, apiServer.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger 依設定組出 zerolog logger；format=console 時輸出人類可讀格式。
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
