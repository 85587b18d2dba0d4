// Package notify provides the in-process notification center backing the
// console's toasts and banners. Producers post human-readable messages;
// the shell subscribes and renders them. Publishing never blocks.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	default:
		return "error"
	}
}

// Notification is one user-visible toast/banner message.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Center fans notifications out to subscribers and keeps a bounded recent
// history for late subscribers (the shell may mount after the first
// failures happen).
type Center struct {
	mu      sync.Mutex
	subs    map[int]chan Notification
	next    int
	recent  []Notification
	maxKeep int
}

// NewCenter creates a notification center retaining the last 50 messages.
func NewCenter() *Center {
	return &Center{
		subs:    make(map[int]chan Notification),
		maxKeep: 50,
	}
}

// Subscribe returns a channel of notifications and a cancel func.
func (c *Center) Subscribe() (<-chan Notification, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	ch := make(chan Notification, 16)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Recent returns a copy of the retained notification history.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.recent))
	copy(out, c.recent)
	return out
}

// Info posts an informational notification.
func (c *Center) Info(format string, args ...interface{}) {
	c.post(LevelInfo, format, args...)
}

// Success posts a success notification.
func (c *Center) Success(format string, args ...interface{}) {
	c.post(LevelSuccess, format, args...)
}

// Warning posts a warning notification.
func (c *Center) Warning(format string, args ...interface{}) {
	c.post(LevelWarning, format, args...)
}

// Error posts an error notification.
func (c *Center) Error(format string, args ...interface{}) {
	c.post(LevelError, format, args...)
}

func (c *Center) post(level Level, format string, args ...interface{}) {
	n := Notification{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		At:      time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.recent = append(c.recent, n)
	if len(c.recent) > c.maxKeep {
		c.recent = c.recent[len(c.recent)-c.maxKeep:]
	}

	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
			// slow subscriber; drop rather than block the producer
		}
	}
}
