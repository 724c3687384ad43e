package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/dsa-tutor/backend/internal/config"
	"github.com/zhouzirui/dsa-tutor/backend/internal/handler"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/account"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/ai"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/memory"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/postgres"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/sqlite"
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

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer st.Close()
	log.Printf("using %s store", cfg.Store.Driver)

	chatOpts := []chat.Option{}
	if remote := newRemoteGenerator(ctx, cfg.AI); remote != nil {
		chatOpts = append(chatOpts, chat.WithRemote(remote))
	}

	accountService := account.NewService(st)
	chatService := chat.NewService(st, chatOpts...)

	router := handler.NewRouter(accountService, chatService, cfg.Server.AllowOrigins)

	startServer(ctx, cfg.Server, router)
}

// newRemoteGenerator returns nil when the model is not configured, leaving every turn to the
// local topic answers.
func newRemoteGenerator(ctx context.Context, cfg config.AIConfig) ai.Generator {
	if !cfg.Enabled() {
		log.Println("ark credentials not configured, answering from the local topic table only")
		return nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize chat model: %v", err)
		log.Println("continuing with local topic answers only")
		return nil
	}

	remote, err := ai.NewRemoteGenerator(ctx, chatModel, ai.RemoteConfig{
		SystemInstruction: ai.TutorSystemInstruction,
		Timeout:           cfg.Timeout,
	})
	if err != nil {
		log.Printf("warning: failed to initialize remote generator: %v", err)
		return nil
	}

	log.Printf("AI service initialized with model %s", cfg.Model)
	return remote
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := postgres.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("DSA tutor backend listening on %s", addr)
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
