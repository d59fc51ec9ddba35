package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/engine/session"
	"github.com/spingames/partyround/internal/models"
)

// room is the actor hosting one session. Only run() touches sess, lastTick
// and lastActive after construction; commands reach it through cmds.
type room struct {
	id      uuid.UUID
	sess    *session.Session
	cmds    chan func()
	closed  chan struct{}
	once    sync.Once
	manager *Manager

	// lastTick is the base for the next tick delta. Commands that begin a
	// round reset it so pre-round wall time is never charged to the round.
	lastTick time.Time

	// lastActive drives the idle reaper.
	lastActive time.Time
}

func (r *room) run() {
	ticker := r.manager.clock.NewTicker(r.manager.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.closed:
			return
		case <-r.manager.stopped:
			r.close()
			return
		case fn := <-r.cmds:
			fn()
			r.lastActive = r.manager.clock.Now()
		case now := <-ticker.Chan():
			delta := now.Sub(r.lastTick)
			r.lastTick = now
			r.tick(delta, now)
			if _, active := r.sess.CurrentRound(); active {
				r.lastActive = now
			} else if idle := r.manager.cfg.IdleTimeout; idle > 0 && now.Sub(r.lastActive) >= idle {
				log.Info().
					Str("session_id", r.id.String()).
					Dur("idle", now.Sub(r.lastActive)).
					Msg("room idle, closing")
				r.manager.remove(r.id)
				return
			}
		}
	}
}

func (r *room) close() {
	r.once.Do(func() {
		close(r.closed)
	})
}

// tick advances the session clock by the observed delta and pushes a
// countdown update to connected clients while a round is on the clock.
func (r *room) tick(delta time.Duration, now time.Time) {
	evts, err := r.sess.Tick(delta, now)
	if err != nil {
		log.Error().Err(err).Str("session_id", r.id.String()).Msg("tick failed")
		return
	}
	r.dispatch(evts)

	cur, ok := r.sess.CurrentRound()
	if !ok || cur.Status != models.RoundStatusActive {
		return
	}
	if r.manager.broadcaster == nil {
		return
	}
	tickEvt, err := events.New(r.id, events.TypeTimerTick, now, events.TimerTickPayload{
		RoundID:      cur.ID.String(),
		Seq:          cur.Seq,
		RemainingSec: int(r.sess.Remaining() / time.Second),
		TickedAt:     now,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", r.id.String()).Msg("failed to build TimerTick event")
		return
	}
	r.manager.broadcaster.Broadcast(r.id, tickEvt)
}

// dispatch appends domain events to the sink and applies the persistence
// hooks tied to terminal transitions.
func (r *room) dispatch(evts []events.Event) {
	for _, evt := range evts {
		r.emit(evt)
		r.persistFor(evt)
	}
}

func (r *room) emit(evt events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.manager.cfg.PersistTimeout)
	defer cancel()
	if err := r.manager.sink.Append(ctx, evt); err != nil {
		log.Error().
			Err(err).
			Str("session_id", r.id.String()).
			Str("event_type", string(evt.Type)).
			Msg("failed to append event")
	}
}

func (r *room) persistFor(evt events.Event) {
	if r.manager.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.manager.cfg.PersistTimeout)
	defer cancel()

	switch evt.Type {
	case events.TypeRoundScored, events.TypeRoundExpired, events.TypeRoundAborted:
		snap := r.sess.Snapshot()
		if len(snap.Rounds) > 0 {
			last := snap.Rounds[len(snap.Rounds)-1]
			if err := r.manager.store.ArchiveRound(ctx, last); err != nil {
				log.Error().Err(err).Str("session_id", r.id.String()).Int("seq", last.Seq).Msg("failed to archive round")
			}
		}
		if err := r.manager.store.SaveScores(ctx, r.id, snap.Scores); err != nil {
			log.Error().Err(err).Str("session_id", r.id.String()).Msg("failed to save scores")
		}
	case events.TypeSessionCompleted:
		completedAt := evt.Timestamp
		if err := r.manager.store.UpdateSessionStatus(ctx, r.id, models.SessionStatusCompleted, &completedAt); err != nil {
			log.Error().Err(err).Str("session_id", r.id.String()).Msg("failed to mark session completed")
		}
	case events.TypeSessionAborted:
		abortedAt := evt.Timestamp
		if err := r.manager.store.UpdateSessionStatus(ctx, r.id, models.SessionStatusAborted, &abortedAt); err != nil {
			log.Error().Err(err).Str("session_id", r.id.String()).Msg("failed to mark session aborted")
		}
	}
}
