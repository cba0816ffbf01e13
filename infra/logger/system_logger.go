package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/paybridge/paybridge/infra/opensearch"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Gateway   string         `json:"gateway,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Service   string         `json:"service"`
}

// LogContext holds contextual information for logging
type LogContext struct {
	Gateway   string
	RequestID string
	Fields    map[string]any
}

// SystemLoggerConfig represents configuration for the system logger
type SystemLoggerConfig struct {
	EnableConsole    bool
	EnableOpenSearch bool
	MinLevel         LogLevel
	Service          string
	MaxRecent        int
}

// SystemLogger handles structured, redacting logging to console, an
// in-memory ring buffer of recent entries and optionally OpenSearch.
// Sensitive fields are redacted before an entry is stored or shipped.
type SystemLogger struct {
	openSearchClient *opensearch.Client
	enableConsole    bool
	enableOpenSearch bool
	minLevel         LogLevel
	service          string

	mu        sync.Mutex
	recent    []LogEntry
	maxRecent int
}

const defaultMaxRecent = 256

// NewSystemLogger creates a new system logger
func NewSystemLogger(osClient *opensearch.Client, config SystemLoggerConfig) *SystemLogger {
	maxRecent := config.MaxRecent
	if maxRecent <= 0 {
		maxRecent = defaultMaxRecent
	}
	return &SystemLogger{
		openSearchClient: osClient,
		enableConsole:    config.EnableConsole,
		enableOpenSearch: config.EnableOpenSearch && osClient.IsEnabled(),
		minLevel:         config.MinLevel,
		service:          config.Service,
		maxRecent:        maxRecent,
	}
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}
	if logCtx.Fields == nil {
		logCtx.Fields = make(map[string]any)
	}
	if err != nil {
		logCtx.Fields["error"] = err.Error()
	}
	sl.log(LevelError, message, logCtx)
}

// Recent returns a snapshot of the buffered entries, oldest first.
func (sl *SystemLogger) Recent() []LogEntry {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	out := make([]LogEntry, len(sl.recent))
	copy(out, sl.recent)
	return out
}

func (sl *SystemLogger) log(level LogLevel, message string, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Service:   sl.service,
	}

	if len(ctx) > 0 {
		logCtx := ctx[0]
		entry.Gateway = logCtx.Gateway
		entry.RequestID = logCtx.RequestID
		entry.Fields = RedactFields(logCtx.Fields)
		if errMsg, ok := entry.Fields["error"].(string); ok {
			entry.Error = errMsg
		}
	}

	sl.buffer(entry)

	if sl.enableConsole {
		sl.logToConsole(entry)
	}

	if sl.enableOpenSearch {
		go sl.logToOpenSearch(entry)
	}
}

// buffer appends to the capped ring of recent entries, evicting the oldest.
func (sl *SystemLogger) buffer(entry LogEntry) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.recent = append(sl.recent, entry)
	if len(sl.recent) > sl.maxRecent {
		sl.recent = sl.recent[len(sl.recent)-sl.maxRecent:]
	}
}

func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	levelOrder := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levelOrder[level] >= levelOrder[sl.minLevel]
}

func (sl *SystemLogger) logToConsole(entry LogEntry) {
	var parts []string
	if entry.Gateway != "" {
		parts = append(parts, fmt.Sprintf("gateway=%s", entry.Gateway))
	}
	if entry.RequestID != "" {
		id := entry.RequestID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("req_id=%s", id))
	}
	for k, v := range entry.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}

	context := ""
	if len(parts) > 0 {
		context = " [" + strings.Join(parts, " ") + "]"
	}

	log.Printf("%-5s %s%s", strings.ToUpper(string(entry.Level)), entry.Message, context)
}

func (sl *SystemLogger) logToOpenSearch(entry LogEntry) {
	body, err := json.Marshal(entry)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sl.openSearchClient.IndexDocument(ctx, string(body)); err != nil {
		if sl.enableConsole {
			log.Printf("WARN  failed to ship log entry to opensearch: %v", err)
		}
	}
}
