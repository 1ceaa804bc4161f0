// Package activity publishes an event for every backend operation the console
// performs and keeps the recent activity feed shown on the dashboard.
package activity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the stage of an operation an event reports.
type Phase string

// Operation phases.
const (
	PhaseStart   Phase = "start"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Collections operated on by the console.
const (
	CollectionUsers   = "users"
	CollectionTasks   = "tasks"
	CollectionSession = "session"
)

// Operations performed by the console.
const (
	OpRead      = "read"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
	OpLogin     = "login"
	OpLogout    = "logout"
	OpExport    = "export"
)

// EventType identifies an event as collection:operation:phase, for example
// "tasks:update:success".
type EventType string

// TypeOf builds the event type for collection, operation and phase.
func TypeOf(collection, operation string, phase Phase) EventType {
	return EventType(fmt.Sprintf("%s:%s:%s", collection, operation, phase))
}

// Event describes one phase of an operation.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	Phase      Phase     `json:"phase"`
	Subject    string    `json:"subject,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Duration   *int64    `json:"duration,omitempty"` // milliseconds, set on success and failure
}

// Action is the feed label of the event's operation, e.g. "tasks:create".
func (e Event) Action() string {
	return e.Collection + ":" + e.Operation
}

// Details is the feed text of the event.
func (e Event) Details() string {
	switch {
	case e.Error != "" && e.Subject != "":
		return fmt.Sprintf("%s failed: %s", e.Subject, e.Error)
	case e.Error != "":
		return "failed: " + e.Error
	default:
		return e.Subject
	}
}

// Handler receives events from the bus.
type Handler func(ctx context.Context, event Event) error

// Bus delivers operation events to subscribers.
type Bus struct {
	bus    *events.TypedEventBus[Event]
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[EventType]int
	pending     atomic.Int64
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) (*Bus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &Bus{bus: bus, logger: logger, subscribers: make(map[EventType]int)}, nil
}

// Emit publishes event under its type.
func (b *Bus) Emit(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.pending.Add(int64(b.subscribers[event.Type]))
	b.mu.Unlock()
	b.bus.Emit(string(event.Type), event)
}

// Subscribe registers handler for events of type t and returns the function
// that removes the subscription.
func (b *Bus) Subscribe(t EventType, handler Handler) func() {
	unsubscribe := b.bus.Subscribe(string(t), func(ctx context.Context, event Event) error {
		defer b.pending.Add(-1)
		return handler(ctx, event)
	})

	b.mu.Lock()
	b.subscribers[t]++
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.subscribers[t]--
			b.mu.Unlock()
			unsubscribe()
		})
	}
}

// Drain blocks until every emitted event has reached its subscribers or ctx
// is done. Delivery may be asynchronous, so short-lived processes call it
// before exiting.
func (b *Bus) Drain(ctx context.Context) error {
	if b == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for b.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func newEvent(collection, operation string, phase Phase, subject string, err error, start time.Time) Event {
	event := Event{
		ID:         uuid.NewString(),
		Type:       TypeOf(collection, operation, phase),
		Collection: collection,
		Operation:  operation,
		Phase:      phase,
		Subject:    subject,
		Timestamp:  time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if phase != PhaseStart {
		d := time.Since(start).Milliseconds()
		event.Duration = &d
	}
	return event
}

// Track runs fn and publishes start, then success or failed events around it.
// A nil bus just runs fn.
func (b *Bus) Track(collection, operation, subject string, fn func() error) error {
	if b == nil {
		return fn()
	}

	start := time.Now()
	b.Emit(newEvent(collection, operation, PhaseStart, subject, nil, start))

	if err := fn(); err != nil {
		b.logger.Debug("Operation failed",
			zap.String("collection", collection),
			zap.String("operation", operation),
			zap.Error(err))
		b.Emit(newEvent(collection, operation, PhaseFailed, subject, err, start))
		return err
	}

	b.Emit(newEvent(collection, operation, PhaseSuccess, subject, nil, start))
	return nil
}
