package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lorinsinzig/lisa-chat/backend/internal/config"
	"github.com/lorinsinzig/lisa-chat/backend/internal/handler"
	"github.com/lorinsinzig/lisa-chat/backend/internal/ollama"
	"github.com/lorinsinzig/lisa-chat/backend/internal/service/ai"
	"github.com/lorinsinzig/lisa-chat/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Pick the message store: Postgres when configured, in-memory otherwise.
	var chatStore store.Store
	if cfg.Store.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pgStore.Close()
		chatStore = pgStore
		log.Println("using Postgres store")
	} else {
		chatStore = store.NewMemoryStore()
		log.Println("DATABASE_URL not set, using in-memory store; conversations will not survive restarts")
	}

	// The Ollama client does not dial until the first request, so the
	// service is always wired; unavailability surfaces per request.
	client := ollama.NewClient(ollama.Config{
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
	})
	aiService := ai.NewService(client, cfg.AI.Timeout)
	log.Printf("model backend %s, model %s", cfg.AI.BaseURL, cfg.AI.Model)

	router := handler.NewRouter(chatStore, aiService, cfg.CORS)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("LISA chat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
