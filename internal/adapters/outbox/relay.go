package outbox

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100
)

// Relay listens for PostgreSQL NOTIFY signals on the outbox_channel and
// publishes booking and cleaning events to the broker.
type Relay struct {
	db        *sql.DB
	publisher ports.EventPublisher
	listener  *pq.Listener
	dbURL     string
	dbCB      *gobreaker.CircuitBreaker
	published *prometheus.CounterVec
	logger    *slog.Logger

	lastProcessed atomic.Int64
	healthy       atomic.Bool
}

// NewRelay creates a new outbox relay. published may be nil.
func NewRelay(db *sql.DB, dbURL string, publisher ports.EventPublisher, published *prometheus.CounterVec, logger *slog.Logger) *Relay {
	r := &Relay{
		db:        db,
		dbURL:     dbURL,
		publisher: publisher,
		dbCB:      config.NewCircuitBreaker(config.BreakerRelayDatabase),
		published: published,
		logger:    logger,
	}
	r.markProcessed()
	r.healthy.Store(true)
	return r
}

func (r *Relay) markProcessed() {
	r.lastProcessed.Store(time.Now().UnixNano())
}

// IsHealthy reports whether the relay process is alive. An open breaker is
// degraded but recoverable and does not count against liveness.
func (r *Relay) IsHealthy() bool {
	return r.healthy.Load()
}

// IsReady reports whether the relay can currently process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(time.Unix(0, r.lastProcessed.Load())) > healthCheckStaleThreshold {
		return false
	}
	return r.healthy.Load()
}

// Start begins listening for outbox notifications and processing events.
// It blocks until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error("outbox listener error", "event", ev, "err", err)
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.logger.Info("outbox relay listening", "channel", outboxChannelName)

	// Catch up on anything written while the relay was down.
	if err := r.processUnprocessedEvents(ctx); err != nil {
		r.logger.Error("outbox startup backlog failed", "err", err)
	}

	ticker := time.NewTicker(periodicProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.logger.Warn("outbox listener reconnecting")
				r.healthy.Store(false)
				continue
			}

			if err := r.processEventByID(ctx, notification.Extra); err != nil {
				r.logger.Error("outbox event failed", "event_id", notification.Extra, "err", err)
			} else {
				r.markProcessed()
				r.healthy.Store(true)
			}

		case <-ticker.C:
			// Keep the connection alive and pick up missed notifications.
			go r.listener.Ping()

			if err := r.processUnprocessedEvents(ctx); err != nil {
				r.logger.Error("outbox periodic sweep failed", "err", err)
			} else {
				r.markProcessed()
			}
		}
	}
}

// processEventByID publishes a single event and marks it processed.
func (r *Relay) processEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var evt ports.OutboxEvent
		err = tx.QueryRowContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&evt.ID, &evt.EventType, &evt.Payload)

		// Already handled, or claimed by another relay.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.publish(ctx, evt); err != nil {
			return nil, err
		}
		if err := markEventProcessed(ctx, tx, evt.ID); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// processUnprocessedEvents publishes the oldest pending events in one batch.
// An event that fails to publish stays pending for the next sweep.
func (r *Relay) processUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}

		var pending []ports.OutboxEvent
		for rows.Next() {
			var evt ports.OutboxEvent
			if err := rows.Scan(&evt.ID, &evt.EventType, &evt.Payload); err != nil {
				rows.Close()
				return nil, err
			}
			pending = append(pending, evt)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, evt := range pending {
			if err := r.publish(ctx, evt); err != nil {
				r.logger.Error("outbox publish failed", "event_id", evt.ID, "event_type", evt.EventType, "err", err)
				continue
			}
			if err := markEventProcessed(ctx, tx, evt.ID); err != nil {
				return nil, err
			}
		}

		return nil, tx.Commit()
	})
	return err
}

func (r *Relay) publish(ctx context.Context, evt ports.OutboxEvent) error {
	if err := r.publisher.PublishEvent(ctx, evt); err != nil {
		return err
	}
	if r.published != nil {
		r.published.WithLabelValues(evt.EventType).Inc()
	}
	r.logger.Info("outbox event published", "event_id", evt.ID, "event_type", evt.EventType)
	return nil
}

func markEventProcessed(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	return err
}
