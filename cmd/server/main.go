package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"messaging_go/internal/config"
	"messaging_go/internal/delivery"
	"messaging_go/internal/directory"
	"messaging_go/internal/domain"
	"messaging_go/internal/events"
	"messaging_go/internal/httpserver"
	"messaging_go/internal/security"
	"messaging_go/internal/service"
	"messaging_go/internal/store/postgres"
	"messaging_go/internal/store/sealed"
	"messaging_go/internal/store/sqlite"
	"messaging_go/internal/ws"
)

// @title           Wellness Messaging API
// @version         1.0
// @description     Direct messaging between wellness platform users.

// @host            localhost:8083
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:   "messaging",
		Short: "Direct messaging service for the wellness platform",
		Long: `Persists two-party conversations and messages, computes unread counts
and pushes new messages, read receipts and typing notices over WebSocket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrate(cfg, db); err != nil {
				return err
			}
			log.Printf("migrations applied (%s)", cfg.DBDriver)
			return nil
		},
	})

	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tokenCmd signs a JWT with JWT_SECRET so a local client can reach the API
// and WebSocket without the identity service.
func tokenCmd() *cobra.Command {
	var (
		userID   int64
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for a local user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tok, err := security.NewTokenService(cfg.JWTSecret).Issue(userID, username, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id placed in the providerId claim")
	cmd.Flags().StringVar(&username, "name", "dev", "username placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	default:
		return postgres.Open(cfg.DatabaseURL)
	}
}

func migrate(cfg *config.Config, db *sql.DB) error {
	if cfg.DBDriver == "sqlite" {
		return sqlite.Migrate(db)
	}
	return postgres.Migrate(db)
}

func repositories(cfg *config.Config, db *sql.DB) (domain.ConversationRepository, domain.MessageRepository, error) {
	var (
		convs domain.ConversationRepository
		msgs  domain.MessageRepository
	)
	if cfg.DBDriver == "sqlite" {
		convs, msgs = sqlite.NewConversationRepo(db), sqlite.NewMessageRepo(db)
	} else {
		convs, msgs = postgres.NewConversationRepo(db), postgres.NewMessageRepo(db)
	}

	if cfg.EncryptKey == "" {
		return convs, msgs, nil
	}
	contentCipher, err := security.NewContentCipher(cfg.EncryptKey, cfg.EncryptLegacyKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize content cipher: %w", err)
	}
	return convs, sealed.NewMessageRepo(msgs, contentCipher), nil
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrate(cfg, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	convs, msgs, err := repositories(cfg, db)
	if err != nil {
		return err
	}

	// Directory client, optionally behind the Redis profile cache
	var dir domain.Directory = directory.NewClient(cfg.DirectoryURL, cfg.DirectoryTimeout)
	if cfg.RedisURL != "" && cfg.ProfileCacheTTL > 0 {
		cache, err := directory.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("profile cache disabled: %v", err)
		} else {
			defer cache.Close()
			dir = directory.NewCachedDirectory(dir, cache, cfg.ProfileCacheTTL)
		}
	}

	// Real-time delivery
	dispatcher := delivery.NewDispatcher(cfg.DeliveryQueueSize, cfg.DeliveryWorkers, cfg.DeliveryTimeout)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		dispatcher.Run(dispatchCtx)
		close(dispatchDone)
	}()
	hub := ws.NewHub()
	gateway := delivery.NewGateway(dispatcher, hub)

	// Event fan-out
	var publisher domain.EventPublisher = events.Nop{}
	if cfg.RedisURL != "" {
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("asynq: parse REDIS_URL: %w", err)
		}
		client := asynq.NewClient(opt)
		defer client.Close()
		publisher = events.NewAsynqPublisher(client, dispatcher, events.Routing{
			Queue:       cfg.EventsExchange,
			MessageSent: cfg.RoutingKeyMessageSent,
			MessageRead: cfg.RoutingKeyMessageRead,
		})
	}

	engine := service.NewMessagingService(convs, msgs, dir, gateway, publisher, service.Options{
		MaxMessageLength: cfg.MaxMessageLength,
		ReadTimeout:      cfg.ReadTimeout,
	})
	tokenSvc := security.NewTokenService(cfg.JWTSecret)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httpserver.NewRouter(cfg, engine, tokenSvc, hub),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting %s on %s (%s, db=%s)", cfg.AppName, cfg.HTTPAddr(), cfg.Env, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopDispatch()
		<-dispatchDone
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	stopDispatch()
	<-dispatchDone
	return nil
}
