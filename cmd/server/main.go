// The main file of Codepad.

package main

import (
	"Codepad/internal/config"
	"Codepad/pkg/cleanup"
	"Codepad/pkg/db"
	"Codepad/pkg/log"
	"Codepad/pkg/validations"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Indicates the current version of Codepad.
var Version = "1.0.0"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.New(Version).Fatal().Err(err).Msg("Couldn't load .env")
	}
	cfg, err := config.Load()
	logger := log.New(Version)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info().Msg(fmt.Sprintf("Welcome to Codepad: v%s", Version))
	logger.Info().Msg(fmt.Sprintf("Codepad Environment: %s", cfg.Env))

	// This is the preferred mode used by gin server in DEV environment.
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	validations.RegisterCustomValidations(ctx, logger)

	dbconn, err := db.NewDbConnection(ctx, logger, db.Options{
		Addr:         cfg.RedisAddr,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DBNumber:     cfg.RedisDBNumber,
		TxMaxRetries: cfg.RedisTxMaxRetries,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Redis client couldn't be created.")
	}
	// Sending a PING request to DB for connection status check.
	if err := dbconn.CheckDbConnection(ctx, logger); err != nil {
		logger.Fatal().Err(err).Msg("Redis client couldn't PING the redis-server.")
	}

	app := newApp(ctx, cfg, dbconn, logger)

	// Initializing the gin server.
	server := gin.New()
	// Forcing gin to use custom Logger instead of the default one.
	server.Use(log.LoggerGinExtension(logger))
	server.Use(gin.Recovery())
	// Running Router() which routes all of the REST API groups and paths.
	Router(server, cfg, app, logger)

	// Running the server with defined addr and port.
	srv := newHTTPServer(cfg.SrvAddr+":"+cfg.SrvPort, server)
	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Gin server stopped unexpectedly")
		}
	}()

	// Graceful shutdown of Codepad server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(ctx, logger, 5*time.Second, map[string]cleanup.Operation{
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"Rooms": func(ctx context.Context) error {
			return app.stop(ctx)
		},
	})
	<-wait
	if err := dbconn.CloseDbConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Closing redis connection failed")
	}
}
