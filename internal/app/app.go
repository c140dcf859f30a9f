package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	server "oni-rush/server"
	servernet "oni-rush/server/internal/net"
	"oni-rush/server/internal/telemetry"
	"oni-rush/server/logging"
	loggingSinks "oni-rush/server/logging/sinks"
)

type Config struct {
	Addr      string
	ClientDir string
	Logger    telemetry.Logger
}

// Run wires the process: structured logger, event router, hub, and HTTP
// surface. It blocks until the listener fails or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	processLogger := cfg.Logger
	if processLogger == nil {
		zapLogger, err := buildZapLogger()
		if err != nil {
			return fmt.Errorf("failed to construct logger: %w", err)
		}
		defer zapLogger.Sync()
		processLogger = telemetry.WrapZap(zapLogger.Sugar())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("EVENT_LOG_FILE"); path != "" {
		jsonCfg := logConfig.JSON
		jsonCfg.FilePath = path
		namedSinks = append(namedSinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSONFile(jsonCfg)})
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		// The run context is already cancelled on shutdown; give the router
		// its own window to flush.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			processLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	worldCfg := worldConfigFromEnv(processLogger)

	env, err := server.DefaultCityEnvironment()
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}

	hub := server.NewHub(worldCfg, env, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	if raw := os.Getenv("ADDR"); raw != "" {
		addr = raw
	}

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    processLogger,
	})

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	processLogger.Printf("server listening on %s (seed=%q ai=%d)", addr, worldCfg.Seed, worldCfg.AICount)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func buildZapLogger() (*zap.Logger, error) {
	if path := os.Getenv("LOG_FILE"); path != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    64,
			MaxBackups: 4,
			Compress:   true,
		})
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(encoder, writer, zap.InfoLevel)
		return zap.New(core), nil
	}
	return zap.NewProduction()
}

func worldConfigFromEnv(logger telemetry.Logger) server.WorldConfig {
	cfg := server.DefaultWorldConfig()
	if raw := os.Getenv("WORLD_SEED"); raw != "" {
		cfg.Seed = raw
	}
	if raw := os.Getenv("ROUND_SECONDS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.RoundSeconds = value
		} else {
			logger.Printf("invalid ROUND_SECONDS=%q", raw)
		}
	}
	if raw := os.Getenv("AI_COUNT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.AICount = value
		} else {
			logger.Printf("invalid AI_COUNT=%q", raw)
		}
	}
	if raw := os.Getenv("TRAFFIC"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Traffic = value
		} else {
			logger.Printf("invalid TRAFFIC=%q", raw)
		}
	}
	return cfg
}
