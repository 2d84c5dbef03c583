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

	"github.com/neurolens/agent/internal/capture"
	"github.com/neurolens/agent/internal/config"
	"github.com/neurolens/agent/internal/handler"
	sessionhandler "github.com/neurolens/agent/internal/handler/session"
	"github.com/neurolens/agent/internal/model/perf"
	"github.com/neurolens/agent/internal/session"
	"github.com/neurolens/agent/internal/transport"
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

	registry := session.NewRegistry()
	defer registry.CloseAll()

	factory := func(analysisCfg config.AnalysisConfig) (*session.Controller, error) {
		client := transport.NewWebsocketClient(cfg.Transport.URL, transport.DefaultOptions())
		source := &capture.SyntheticSource{Clock: func() int64 { return time.Now().UnixMilli() }}
		return session.New(analysisCfg, client, source, perf.NewRuntimeProvider()), nil
	}

	go registry.RunCleanup(ctx, time.Hour)

	router := handler.NewRouter(cfg, registry, sessionhandler.Factory(factory))

	log.Printf("analysis interval=%dms threshold=%.2f inference=%s",
		cfg.Analysis.IntervalMs, cfg.Analysis.ConfidenceThreshold, cfg.Transport.URL)

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

	log.Printf("NeuroLens agent listening on %s", addr)
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
