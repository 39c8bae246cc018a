package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clinreg/registry-mcp/internal/dispatch"
	"github.com/clinreg/registry-mcp/internal/query"
	"github.com/clinreg/registry-mcp/internal/registry"
	"github.com/clinreg/registry-mcp/internal/schema"
	"github.com/clinreg/registry-mcp/internal/server"
	"github.com/clinreg/registry-mcp/internal/storage"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("REGISTRY_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	maxConns := envOrDefaultInt("REGISTRY_MAX_CONNS", 10)
	queryTimeoutMs := envOrDefaultInt("REGISTRY_QUERY_TIMEOUT_MS", 30_000)

	logger.Info("starting registry mcp server",
		zap.Int("max_conns", maxConns),
		zap.Int("query_timeout_ms", queryTimeoutMs),
	)

	// Connection pool — the single shared database resource
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("invalid DATABASE_URL", zap.Error(err))
	}
	poolCfg.MaxConns = int32(maxConns)
	poolCfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("failed to open postgres pool", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	logger.Info("postgres pool connected")

	// Audit sink — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Tool table, validator, executor, dispatcher
	reg := registry.New()
	validator, err := schema.NewValidator(reg)
	if err != nil {
		logger.Fatal("failed to compile tool schemas", zap.Error(err))
	}
	executor := query.NewPoolExecutor(pool, time.Duration(queryTimeoutMs)*time.Millisecond, logger)
	dispatcher := dispatch.New(reg, validator, executor, writer, logger)

	srv := server.NewMCPServer(reg, dispatcher, logger)

	// Graceful shutdown on signal: drain the audit writer before exiting.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		writer.Close()
		pool.Close()
		_ = logger.Sync()
		os.Exit(0)
	}()

	logger.Info("registry mcp server listening on stdio",
		zap.Strings("tools", reg.Names()),
	)
	if err := server.ServeStdio(srv); err != nil {
		logger.Fatal("mcp server failed", zap.Error(err))
	}
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
