// Package notify carries short user-facing messages produced by background
// work (cart syncs, checkout steps) to the next response the user sees.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single toast-style message.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier accepts notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(level Level, message string)
}

// Notifyf formats and sends a notice; a nil notifier is a no-op.
func Notifyf(n Notifier, level Level, format string, args ...any) {
	if n == nil {
		return
	}
	n.Notify(level, fmt.Sprintf(format, args...))
}

const defaultCapacity = 20

// Buffer keeps the most recent notices until they are drained.
type Buffer struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	now      func() time.Time
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{capacity: capacity, now: time.Now}
}

func (b *Buffer) Notify(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{Level: level, Message: message, At: b.now().UTC()})
	if overflow := len(b.notices) - b.capacity; overflow > 0 {
		b.notices = append([]Notice(nil), b.notices[overflow:]...)
	}
}

// Drain returns pending notices oldest first and empties the buffer.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notices)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Level, string) {}

type ctxKey struct{}

// WithNotifier attaches a request-scoped notifier to ctx.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier attached to ctx, or Discard.
func FromContext(ctx context.Context) Notifier {
	if ctx != nil {
		if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
			return n
		}
	}
	return Discard{}
}
