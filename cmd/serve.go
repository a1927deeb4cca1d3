package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/mecsentinel/internal/advisor"
	"github.com/ukydev/mecsentinel/internal/auth"
	"github.com/ukydev/mecsentinel/internal/config"
	"github.com/ukydev/mecsentinel/internal/dashboard"
	"github.com/ukydev/mecsentinel/internal/db"
	"github.com/ukydev/mecsentinel/internal/handlers"
	"github.com/ukydev/mecsentinel/internal/llm"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/notify"
	"github.com/zoobzio/clockz"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Start the HTTP API. Settings are read from the environment and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat)

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}
	store := db.NewStore(database)

	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.WithError(err).Warn("Assistant provider unavailable, using fallback answers")
		completer = llm.Disabled{}
	}

	publisher, err := notify.NewMQTTPublisher(cfg.MQTT)
	if err != nil {
		log.WithError(err).Warn("Alert publishing disabled")
		publisher = notify.NopPublisher{}
	}
	defer publisher.Close()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authService.CookieName = cfg.SessionCookie

	service := dashboard.NewService(
		store,
		maintenance.NewScheduler(cfg.Scheduler),
		advisor.New(completer, log.StandardLogger()),
		publisher,
		clockz.RealClock,
	)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Auth:        authService,
			Users:       store.Users,
			Vehicles:    service,
			CORSOrigins: cfg.CORSOrigins,
			AIRateLimit: cfg.AIRateLimit,
			Logger:      log.StandardLogger(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":         cfg.Port,
			"llm_provider": cfg.LLM.Provider,
			"mqtt_broker":  cfg.MQTT.Broker,
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
