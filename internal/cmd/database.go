package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/spingames/partyround/internal/dbconfig"
)

// setupDatabase opens both connections the service needs: a database/sql
// handle for the outbox (lib/pq, shared with the LISTEN/NOTIFY relay) and a
// pgx pool for the session repository.
func setupDatabase(ctx context.Context) (*sql.DB, *pgxpool.Pool, error) {
	cfg := dbconfig.NewConfigFromEnv()
	dsn := cfg.DSN()

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := database.Ping(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		database.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database via pgx: %w", err)
	}

	log.Printf("Connected to database: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
	return database, pool, nil
}
