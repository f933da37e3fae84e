// Package notify surfaces user-facing notifications decoupled from any
// particular UI. Producers (auth, sync) post notifications; consumers
// (the CLI, tests) read and dismiss them.
package notify

import (
	"log/slog"
	"sync"
)

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the level's display name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one user-facing message. Error notifications may
// carry a retry action the UI can offer.
type Notification struct {
	ID         int
	Message    string
	Level      Level
	Retry      func()
	RetryLabel string
}

// Notifier is the interface producers post through.
type Notifier interface {
	// Error posts an error message, optionally with a retry action.
	// retry may be nil; label names the action for the UI ("Try Again").
	Error(msg string, retry func(), label string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// Center is the default Notifier: an in-memory, concurrency-safe list
// of pending notifications.
type Center struct {
	mu      sync.Mutex
	nextID  int
	pending []Notification
	logger  *slog.Logger
}

// NewCenter creates an empty notification center.
func NewCenter(logger *slog.Logger) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{nextID: 1, logger: logger}
}

func (c *Center) post(n Notification) {
	c.mu.Lock()
	n.ID = c.nextID
	c.nextID++
	c.pending = append(c.pending, n)
	c.mu.Unlock()
}

// Error posts an error notification and logs it.
func (c *Center) Error(msg string, retry func(), label string) {
	c.logger.Error("user-facing error", "message", msg, "retryable", retry != nil)
	c.post(Notification{Message: msg, Level: LevelError, Retry: retry, RetryLabel: label})
}

// Warning posts a warning notification.
func (c *Center) Warning(msg string) {
	c.post(Notification{Message: msg, Level: LevelWarning})
}

// Info posts an informational notification.
func (c *Center) Info(msg string) {
	c.post(Notification{Message: msg, Level: LevelInfo})
}

// Success posts a success notification.
func (c *Center) Success(msg string) {
	c.post(Notification{Message: msg, Level: LevelSuccess})
}

// Notifications returns a copy of the pending notifications.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.pending))
	copy(out, c.pending)
	return out
}

// Dismiss removes the notification with the given ID.
func (c *Center) Dismiss(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.pending {
		if n.ID == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// DismissAll removes every pending notification.
func (c *Center) DismissAll() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}
