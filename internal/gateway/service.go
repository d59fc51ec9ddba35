package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/engine/round"
	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/engine/session"
	"github.com/spingames/partyround/internal/models"
	"github.com/spingames/partyround/internal/rooms"
	"github.com/spingames/partyround/internal/store"
)

// Service is the HTTP surface over the room manager. All mutating commands
// are POSTs; the WebSocket carries events out and guesses in.
type Service struct {
	rooms   *rooms.Manager
	cm      *ConnectionManager
	archive Archive
}

// Archive reads persisted session snapshots, which outlive the room that
// produced them. Nil when the service runs without a database.
type Archive interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error)
}

// NewService creates the gateway service. archive may be nil.
func NewService(manager *rooms.Manager, cm *ConnectionManager, archive Archive) *Service {
	return &Service{rooms: manager, cm: cm, archive: archive}
}

// SubmitGuess implements GuessHandler so the connection manager can route
// inbound WebSocket guess frames through the same path as HTTP guesses.
func (s *Service) SubmitGuess(ctx context.Context, sessionID uuid.UUID, playerID, payload string) error {
	_, _, err := s.rooms.Submit(ctx, sessionID, playerID, payload)
	return err
}

// Routes returns the chi router for the gateway.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleCancelSession)
			r.Get("/state", s.handleState)
			r.Get("/archive", s.handleArchive)
			r.Get("/ws", s.handleWebSocket)
			r.Post("/rounds", s.handleStartRound)
			r.Post("/guesses", s.handleSubmitGuess)
			r.Post("/abort", s.handleAbort)
			r.Post("/finalize", s.handleFinalize)
		})
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg models.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := s.rooms.CreateSession(r.Context(), cfg)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	st, err := s.rooms.State(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleStartRound(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var prompt models.RoundPrompt
	if err := json.NewDecoder(r.Body).Decode(&prompt); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if prompt.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	st, err := s.rooms.StartRound(r.Context(), id, prompt)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

type guessRequest struct {
	PlayerID string `json:"player_id"`
	Payload  string `json:"payload"`
}

type guessResponse struct {
	Guess models.GuessEvent `json:"guess"`
	State session.State     `json:"state"`
}

func (s *Service) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	guess, st, err := s.rooms.Submit(r.Context(), id, req.PlayerID, req.Payload)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guessResponse{Guess: guess, State: st})
}

type abortRequest struct {
	Reason string `json:"reason"`
}

func (s *Service) handleAbort(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req abortRequest
	if r.Body != nil {
		// Reason is optional; ignore decode errors on an empty body.
		json.NewDecoder(r.Body).Decode(&req)
	}

	st, err := s.rooms.Abort(r.Context(), id, req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleCancelSession aborts the whole session and closes its room. The
// archive keeps serving the persisted snapshot afterwards.
func (s *Service) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req abortRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	st, err := s.rooms.CancelSession(r.Context(), id, req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type finalizeResponse struct {
	Standings []score.Standing `json:"standings"`
	State     session.State    `json:"state"`
}

func (s *Service) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	standings, st, err := s.rooms.Finalize(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{Standings: standings, State: st})
}

// handleArchive serves the persisted snapshot, which survives the in-memory
// room. Completed and aborted sessions are only reachable here.
func (s *Service) handleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "session archive not enabled")
		return
	}

	sess, err := s.archive.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("failed to load session archive")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	// Verify the session exists before upgrading.
	st, err := s.rooms.State(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		playerID = "spectator"
	}

	if err := s.cm.UpgradeConnection(w, r, playerID, id); err != nil {
		log.Error().
			Err(err).
			Str("session_id", id.String()).
			Str("player_id", playerID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	// Push the current state to the new client so it can render without a
	// separate HTTP round trip.
	if evt, err := events.New(id, events.TypeStateSnapshot, time.Now(), st); err == nil {
		s.cm.BroadcastToPlayer(id, playerID, evt)
	} else {
		log.Error().Err(err).Str("session_id", id.String()).Msg("failed to build state snapshot")
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// writeEngineError maps engine failures onto HTTP status codes. Sequencing
// conflicts (a closed round losing a race, finalize before the last round)
// are 409s; configuration problems are 400s.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rooms.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rules.ErrUnknownRuleSet),
		errors.Is(err, session.ErrInvalidDuration),
		errors.Is(err, session.ErrInvalidRoundCount),
		errors.Is(err, session.ErrEmptyRoster),
		errors.Is(err, score.ErrUnknownEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, session.ErrRoundInProgress),
		errors.Is(err, session.ErrSessionNotReady),
		errors.Is(err, round.ErrRoundNotStarted),
		errors.Is(err, round.ErrRoundAlreadyClosed),
		errors.Is(err, round.ErrAttemptsExhausted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request timed out")
	default:
		log.Error().Err(err).Msg("internal gateway error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
