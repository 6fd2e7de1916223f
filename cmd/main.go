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

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"job-board/application"
	"job-board/domain"
	"job-board/infrastructure"
	"job-board/interfaces"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var embeddedWorker bool

	cmd := &cobra.Command{
		Use:   "job-board",
		Short: "Multi-tenant job board with magic-link access",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(embeddedWorker)
		},
	}
	serve.Flags().BoolVar(&embeddedWorker, "with-worker", true, "Consume the notification queue in this process")

	cmd.AddCommand(serve)
	cmd.AddCommand(&cobra.Command{
		Use:   "worker",
		Short: "Deliver queued notification emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := bootstrap()
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge-tokens",
		Short: "Clear expired magic-link tokens once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			store := newStore(cfg, db)
			purged, err := store.PurgeExpiredTokens(context.Background(), store.Tokens.Now())
			if err != nil {
				return err
			}
			log.WithField("purged", purged).Info("expired tokens purged")
			return nil
		},
	})
	return cmd
}

// bootstrap loads configuration, sets up logging and opens the database.
func bootstrap() (*infrastructure.Config, *gorm.DB, error) {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	infrastructure.SetupLogger(cfg)

	db, err := infrastructure.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newStore(cfg *infrastructure.Config, db *gorm.DB) *infrastructure.Store {
	return infrastructure.NewStore(db, domain.NewTokenPolicy(), cfg.AdminTokenTTLHours, cfg.EditTokenTTLHours)
}

func connectQueue(cfg *infrastructure.Config) *infrastructure.RabbitMQ {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, notifications are sent in-process")
		return nil
	}
	rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, notifications are sent in-process")
		return nil
	}
	return rmq
}

func runServer(embeddedWorker bool) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}

	metrics := infrastructure.NewMetrics()
	sender := infrastructure.NewEmailSender(cfg)
	if sender == nil {
		log.Warn("no email provider configured, emails are written to the log")
	}

	rmq := connectQueue(cfg)
	var queue infrastructure.NotificationPublisher
	if rmq != nil {
		queue = rmq
		defer rmq.Close()
	}
	dispatcher := infrastructure.NewDispatcher(sender, queue, metrics)
	defer dispatcher.Wait()

	if rmq != nil && embeddedWorker {
		if _, err := rmq.ConsumeNotifications(func(msg domain.EmailMessage) {
			dispatcher.Send(context.Background(), msg)
		}); err != nil {
			return err
		}
		log.Info("notification consumer started")
	}

	store := newStore(cfg, db)
	janitor, err := infrastructure.NewTokenJanitor(store, metrics, cfg.TokenPurgeSchedule)
	if err != nil {
		return fmt.Errorf("invalid TOKEN_PURGE_SCHEDULE: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	verifier := infrastructure.NewTurnstileVerifier(cfg, metrics)
	service := application.NewBoardService(store, dispatcher, verifier, metrics, cfg)
	router := interfaces.NewRouter(service, db, metrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.BaseURL).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-shutdownCtx.Done():
		log.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runWorker() error {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return err
	}
	infrastructure.SetupLogger(cfg)

	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required for the worker")
	}
	rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer rmq.Close()

	dispatcher := infrastructure.NewDispatcher(infrastructure.NewEmailSender(cfg), nil, infrastructure.NewMetrics())
	done, err := rmq.ConsumeNotifications(func(msg domain.EmailMessage) {
		dispatcher.Send(context.Background(), msg)
	})
	if err != nil {
		return err
	}
	log.Info("worker waiting for notifications")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case <-done:
		log.Warn("notification queue closed")
	}
	return nil
}
