package activity

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLimit is the number of entries the feed keeps.
const DefaultLimit = 50

// Entry is one line of the activity feed.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// Sink persists feed entries.
type Sink interface {
	AppendActivity(ctx context.Context, entry Entry) error
}

// Log is the activity feed: the most recent entries, oldest first.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	sink    Sink
	logger  *zap.Logger
}

// NewLog creates a feed holding at most limit entries. A non-positive limit
// uses DefaultLimit. sink may be nil.
func NewLog(limit int, sink Sink, logger *zap.Logger) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{limit: limit, sink: sink, logger: logger}
}

// Seed replaces the in-memory entries, keeping the newest limit of them.
func (l *Log) Seed(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = slices.Clone(entries)
	l.trim()
}

// Record appends an entry and hands it to the sink. A sink failure is logged
// and does not drop the entry from memory.
func (l *Log) Record(ctx context.Context, action, details string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.trim()
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.AppendActivity(ctx, entry); err != nil {
			l.logger.Warn("Failed to persist activity entry", zap.String("action", action), zap.Error(err))
		}
	}
	return entry
}

// Entries returns a copy of the feed, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

func (l *Log) trim() {
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = slices.Delete(l.entries, 0, over)
	}
}

// tracked lists the operations that appear in the feed. Reads do not.
var tracked = []struct{ collection, operation string }{
	{CollectionSession, OpLogin},
	{CollectionSession, OpLogout},
	{CollectionUsers, OpCreate},
	{CollectionUsers, OpDelete},
	{CollectionUsers, OpDeleteAll},
	{CollectionUsers, OpExport},
	{CollectionTasks, OpCreate},
	{CollectionTasks, OpUpdate},
	{CollectionTasks, OpDelete},
	{CollectionTasks, OpExport},
}

// Attach subscribes the feed to the success and failure events of every
// tracked operation. The returned function detaches it.
func (l *Log) Attach(bus *Bus) func() {
	handler := func(ctx context.Context, event Event) error {
		l.Record(ctx, event.Action(), event.Details())
		return nil
	}

	var unsubscribe []func()
	for _, t := range tracked {
		for _, phase := range []Phase{PhaseSuccess, PhaseFailed} {
			unsubscribe = append(unsubscribe, bus.Subscribe(TypeOf(t.collection, t.operation, phase), handler))
		}
	}
	return func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}
}
