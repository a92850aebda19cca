package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tabledadrian/adrian-backend/internal/config"
	"github.com/tabledadrian/adrian-backend/internal/db"
	"github.com/tabledadrian/adrian-backend/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	srv := server.New(cfg, nil, db.NewRedisClient(cfg.Redis))
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// The listener comes up before the database so health checks pass
	// while Cloud SQL is still warming up.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if err := db.Migrate(conn); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
		srv.SetDB(conn)
		log.Printf("database ready")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
