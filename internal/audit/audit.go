// Package audit records journal mutations as JSON lines in a rotating file.
package audit

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/natefinch/lumberjack.v2"

	"forex-journal/internal/logging"
)

// EventType represents the type of audit event.
type EventType string

const (
	TradeCreated    EventType = "TRADE_CREATED"
	TradeDeleted    EventType = "TRADE_DELETED"
	TradesImported  EventType = "TRADES_IMPORTED"
	InputValidation EventType = "INPUT_VALIDATION"
)

// maxValueLen bounds how much of a rejected field value is recorded.
const maxValueLen = 64

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	TradeID   string                 `json:"trade_id,omitempty"`
	Pair      string                 `json:"pair,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Success   bool                   `json:"success"`
	ErrorMsg  string                 `json:"error,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Logger handles audit logging. A nil *Logger discards every event.
type Logger struct {
	writer    io.WriteCloser
	mu        sync.Mutex
	sessionID string
	now       func() time.Time
}

// Config holds audit logger configuration.
type Config struct {
	LogDir     string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns the default audit configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		LogDir:     dir,
		MaxSize:    50,
		MaxBackups: 30,
		MaxAge:     365,
		Compress:   true,
	}
}

// New creates a new audit logger writing to <LogDir>/audit.log.
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "audit.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return NewWithWriter(writer), nil
}

// NewWithWriter creates an audit logger on an arbitrary writer.
func NewWithWriter(w io.WriteCloser) *Logger {
	return &Logger{
		writer:    w,
		sessionID: generateSessionID(),
		now:       time.Now,
	}
}

// SessionID returns the id stamped on every event of this process.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Log writes an audit event.
func (l *Logger) Log(ctx context.Context, event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = l.now().UTC()
	event.SessionID = l.sessionID
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing audit event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// LogTradeCreated records a stored trade.
func (l *Logger) LogTradeCreated(ctx context.Context, id, pair, side, result string) error {
	return l.Log(ctx, Event{
		EventType: TradeCreated,
		TradeID:   id,
		Pair:      pair,
		Action:    side,
		Success:   true,
		Details:   map[string]interface{}{"result": result},
	})
}

// LogTradeDeleted records a delete attempt.
func (l *Logger) LogTradeDeleted(ctx context.Context, id string, success bool, errorMsg string) error {
	return l.Log(ctx, Event{
		EventType: TradeDeleted,
		TradeID:   id,
		Success:   success,
		ErrorMsg:  errorMsg,
	})
}

// LogTradesImported records a bulk import.
func (l *Logger) LogTradesImported(ctx context.Context, count int, replace bool, success bool, errorMsg string) error {
	return l.Log(ctx, Event{
		EventType: TradesImported,
		Success:   success,
		ErrorMsg:  errorMsg,
		Details: map[string]interface{}{
			"count":   count,
			"replace": replace,
		},
	})
}

// LogInputValidation logs an input validation failure.
func (l *Logger) LogInputValidation(ctx context.Context, field, value, reason string) error {
	return l.Log(ctx, Event{
		EventType: InputValidation,
		Success:   false,
		ErrorMsg:  reason,
		Details: map[string]interface{}{
			"field": field,
			"value": truncate(value),
		},
	})
}

// Close closes the audit logger.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.writer.Close()
}

func truncate(s string) string {
	if len(s) <= maxValueLen {
		return s
	}
	return s[:maxValueLen] + "..."
}

// generateSessionID generates a unique session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
