package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/spingames/partyround/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sqlDB *sql.DB
		pool  *pgxpool.Pool
	)
	if !cfg.DisableDB {
		sqlDB, pool, err = setupDatabase(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer sqlDB.Close()
		defer pool.Close()
	}

	services, err := setupServices(cfg, sqlDB, pool)
	if err != nil {
		log.Fatalf("Failed to wire services: %v", err)
	}
	defer services.Shutdown()

	server := setupServer(cfg, services.Gateway)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services.ConnMgr.Start(ctx)
		return nil
	})
	if services.Consumer != nil {
		g.Go(func() error {
			return services.Consumer.Start(ctx)
		})
	}
	if services.Listener != nil {
		g.Go(func() error {
			return services.Listener.Run(ctx)
		})
	}
	if services.Worker != nil {
		if err := services.Worker.Start(ctx); err != nil {
			log.Fatalf("Failed to start outbox worker: %v", err)
		}
	}

	g.Go(func() error {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
