// Package store persists session snapshots to Postgres: configuration,
// archived rounds and score totals, keyed by session id and round sequence
// number. This is what makes a session resumable after a restart.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spingames/partyround/internal/models"
)

var ErrSessionNotFound = errors.New("store: session not found")

// Repository is a pgx-backed session store. It implements rooms.Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an open pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession inserts the initial snapshot.
func (r *Repository) CreateSession(ctx context.Context, sess models.GameSession) error {
	cfg, err := json.Marshal(sess.Config)
	if err != nil {
		return fmt.Errorf("marshal session config: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (id, status, config, created_at)
		VALUES ($1, $2, $3, $4)`,
		sess.ID, string(sess.Status), cfg, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateSessionStatus moves a session to a new status.
func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = $2, completed_at = $3 WHERE id = $1`,
		sessionID, string(status), completedAt,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ArchiveRound stores a terminal round, including its full guess log.
func (r *Repository) ArchiveRound(ctx context.Context, round models.Round) error {
	eventLog, err := json.Marshal(round.Events)
	if err != nil {
		return fmt.Errorf("marshal round events: %w", err)
	}
	var winner *string
	if round.WinnerID != "" {
		winner = &round.WinnerID
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO rounds (id, session_id, seq, actor_id, status, target, prompt, duration_sec, winner_id, events, started_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id, seq) DO UPDATE
		SET status = EXCLUDED.status, winner_id = EXCLUDED.winner_id,
		    events = EXCLUDED.events, closed_at = EXCLUDED.closed_at`,
		round.ID, round.SessionID, round.Seq, round.ActorID, string(round.Status),
		round.Target, []byte(round.Prompt), round.DurationSec, winner, eventLog,
		round.StartedAt, round.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("archive round: %w", err)
	}
	return nil
}

// SaveScores upserts the full totals map for a session.
func (r *Repository) SaveScores(ctx context.Context, sessionID uuid.UUID, totals map[string]int) error {
	batch := &pgx.Batch{}
	for entityID, total := range totals {
		batch.Queue(`
			INSERT INTO scores (session_id, entity_id, total)
			VALUES ($1, $2, $3)
			ON CONFLICT (session_id, entity_id) DO UPDATE SET total = EXCLUDED.total`,
			sessionID, entityID, total,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range totals {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
	}
	return nil
}

// GetSession loads a full snapshot: config, archived rounds and totals.
func (r *Repository) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	var (
		sess   models.GameSession
		status string
		rawCfg []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, status, config, created_at, completed_at
		FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&sess.ID, &status, &rawCfg, &sess.CreatedAt, &sess.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Status = models.SessionStatus(status)
	if err := json.Unmarshal(rawCfg, &sess.Config); err != nil {
		return nil, fmt.Errorf("unmarshal session config: %w", err)
	}

	rounds, err := r.roundsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Rounds = rounds

	scores, err := r.scoresForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Scores = scores
	return &sess, nil
}

func (r *Repository) roundsForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Round, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, seq, actor_id, status, target, prompt, duration_sec, winner_id, events, started_at, closed_at
		FROM rounds WHERE session_id = $1 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		var (
			round    models.Round
			status   string
			prompt   []byte
			winner   *string
			eventLog []byte
		)
		if err := rows.Scan(&round.ID, &round.SessionID, &round.Seq, &round.ActorID, &status,
			&round.Target, &prompt, &round.DurationSec, &winner, &eventLog,
			&round.StartedAt, &round.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		round.Status = models.RoundStatus(status)
		round.Prompt = prompt
		if winner != nil {
			round.WinnerID = *winner
		}
		if len(eventLog) > 0 {
			if err := json.Unmarshal(eventLog, &round.Events); err != nil {
				return nil, fmt.Errorf("unmarshal round events: %w", err)
			}
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *Repository) scoresForSession(ctx context.Context, sessionID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT entity_id, total FROM scores WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			entityID string
			total    int
		)
		if err := rows.Scan(&entityID, &total); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		totals[entityID] = total
	}
	return totals, rows.Err()
}
