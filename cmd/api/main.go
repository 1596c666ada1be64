package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"civicvoice/api/internal/app"
	"civicvoice/api/internal/assistant"
	"civicvoice/api/internal/authpw"
	"civicvoice/api/internal/config"
	"civicvoice/api/internal/email"
	"civicvoice/api/internal/export"
	"civicvoice/api/internal/media"
	"civicvoice/api/internal/search"
	"civicvoice/api/internal/session"
	"civicvoice/api/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("civicvoice: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed, err := store.LoadSeed(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	opts, err := buildOptions(ctx, cfg)
	if err != nil {
		return err
	}
	service := app.New(cfg, opts)
	defer service.Close()

	if err := service.Bootstrap(ctx, seed); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("CivicVoice API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}

// buildOptions connects the optional backends. Anything opened before a
// failure is closed again.
func buildOptions(ctx context.Context, cfg config.Config) (opts app.Options, err error) {
	state := store.New()
	opts = app.Options{
		Store:     state,
		Passwords: authpw.NewService(state, cfg.BcryptCost),
		Chats:     assistant.NewChats(cfg.ChatDelay),
		Export:    export.NewService(state.Issues, export.NewChromeRenderer(export.PDFOptions{ExecPath: cfg.ChromePath})),
	}
	defer func() {
		if err == nil {
			return
		}
		opts.Chats.Shutdown()
		if opts.Search != nil {
			opts.Search.Close()
		}
		if opts.Sessions != nil {
			_ = opts.Sessions.Close()
		}
		if opts.Audit != nil {
			_ = opts.Audit.Close()
		}
	}()

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return opts, fmt.Errorf("redis connection: %w", err)
		}
		opts.Sessions = redisStore
	} else {
		log.Printf("Using in-process session storage")
		opts.Sessions = session.NewMemoryStore()
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		var migrations fs.FS
		if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
			migrations = os.DirFS(dir)
		}
		auditLog, err := store.OpenAudit(ctx, cfg.DatabaseURL, migrations)
		if err != nil {
			return opts, fmt.Errorf("audit database: %w", err)
		}
		opts.Audit = auditLog
	} else {
		log.Printf("DATABASE_URL not set, audit trail disabled")
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	opts.Search = search.NewService(meiliClient, search.NewMemory(state.Issues))

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		uploader, err := media.NewMinioUploader(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return opts, fmt.Errorf("object storage: %w", err)
		}
		opts.Media = media.NewService(uploader)
	} else {
		opts.Media = media.NewService(nil)
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: "CivicVoice",
		To:       cfg.NotifyEmails,
	})
	if mailer.IsConfigured() {
		log.Printf("Moderator notifications enabled for %d recipients", len(cfg.NotifyEmails))
		opts.Notifier = mailer
	}

	return opts, nil
}
