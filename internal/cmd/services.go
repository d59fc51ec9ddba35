package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/spingames/partyround/internal/config"
	"github.com/spingames/partyround/internal/dbconfig"
	"github.com/spingames/partyround/internal/gateway"
	"github.com/spingames/partyround/internal/outbox"
	"github.com/spingames/partyround/internal/rooms"
	"github.com/spingames/partyround/internal/store"
)

// Services bundles the wired application components and their lifecycles.
type Services struct {
	Rooms   *rooms.Manager
	Gateway *gateway.Service
	ConnMgr *gateway.ConnectionManager

	// Outbox relay: exactly one of Worker or Listener runs when Postgres and
	// NATS are both configured.
	Worker    *outbox.Worker
	Listener  *outbox.Listener
	Publisher *outbox.JetStreamPublisher
	Consumer  *gateway.EventConsumer
}

// setupServices wires the dependency chain:
// engine → rooms manager → outbox sink → gateway.
// sqlDB and pool are nil when the service runs without Postgres; events then
// flow through an in-memory sink straight to the WebSocket fanout.
func setupServices(cfg config.Server, sqlDB *sql.DB, pool *pgxpool.Pool) (*Services, error) {
	registry, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rule sets: %w", err)
	}

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), nil)

	services := &Services{ConnMgr: cm}

	var (
		sink      rooms.Sink
		sessStore rooms.Store
	)
	switch {
	case sqlDB == nil:
		sink = outbox.NewMemorySink(cm)

	case cfg.NATSURL != "":
		obStore := outbox.NewStore(sqlDB)
		sink = obStore

		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		publisher, err := outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, fmt.Errorf("connect JetStream publisher: %w", err)
		}
		services.Publisher = publisher

		if cfg.OutboxMode == "poll" {
			services.Worker = outbox.NewWorker(sqlDB, obStore, publisher, outbox.DefaultConfig(), slog.Default())
		} else {
			lcfg := outbox.DefaultListenerConfig()
			lcfg.DatabaseURL = dbconfig.NewConfigFromEnv().DSN()
			listener, err := outbox.NewListener(sqlDB, obStore, publisher, lcfg)
			if err != nil {
				return nil, fmt.Errorf("start outbox listener: %w", err)
			}
			services.Listener = listener
		}

		ccfg := gateway.DefaultJetStreamConsumerConfig()
		ccfg.URL = cfg.NATSURL
		consumer, err := gateway.NewEventConsumer(cm, ccfg)
		if err != nil {
			return nil, fmt.Errorf("connect JetStream consumer: %w", err)
		}
		services.Consumer = consumer

	default:
		// Durable outbox without a bus: mirror appended events to the
		// gateway directly.
		sink = outbox.Tee{Sink: outbox.NewStore(sqlDB), Broadcaster: cm}
	}

	var archive gateway.Archive
	if pool != nil {
		repo := store.NewRepository(pool)
		sessStore = repo
		archive = repo
	}

	roomsCfg := rooms.DefaultConfig()
	roomsCfg.TickInterval = cfg.TickInterval
	roomsCfg.IdleTimeout = cfg.IdleTimeout
	manager := rooms.NewManager(clockwork.NewRealClock(), registry, sink, cm, sessStore, roomsCfg)
	services.Rooms = manager

	svc := gateway.NewService(manager, cm, archive)
	cm.SetGuessHandler(svc.SubmitGuess)
	services.Gateway = svc

	return services, nil
}

// Shutdown releases everything setupServices acquired, in reverse order.
func (s *Services) Shutdown() {
	if s.Rooms != nil {
		s.Rooms.Close()
	}
	if s.Worker != nil {
		s.Worker.Stop()
	}
	if s.Consumer != nil {
		s.Consumer.Stop()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}
