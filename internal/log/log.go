// Package log provides structured logging for nodegraph.
// Entries carry a level, a category and key=value fields. Logging stays disabled
// until Init or InitWriter runs, which the CLI does for --debug or NODEGRAPH_DEBUG.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/nodegraph/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, case-insensitively. The empty string is info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatRegistry    Category = "registry"    // GUID registry integrity
	CatDefine      Category = "define"      // Port reconciliation passes
	CatWire        Category = "wire"        // Wire creation, reattachment, index rebuilds
	CatPlaceholder Category = "placeholder" // Placeholder substitution and repair
	CatDocument    Category = "document"    // Document encode/decode and files
	CatDB          Category = "db"          // Database operations
	CatCache       Category = "cache"       // Cache operations
	CatConfig      Category = "config"      // Configuration loading/saving
	CatWatcher     Category = "watcher"     // File watcher events
	CatTrace       Category = "trace"       // Tracing provider lifecycle
	CatCLI         Category = "cli"         // Command execution
)

// Entry is one log record.
type Entry struct {
	Time     time.Time
	Level    Level
	Category Category
	Message  string
	Fields   []any
}

// String renders the entry on one line:
//
//	2025-12-06T10:45:00 [WARN] [registry] message key=value key2=value2
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", e.Time.Format("2006-01-02T15:04:05"), e.Level, e.Category, e.Message)
	for i := 0; i+1 < len(e.Fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Fields[i], e.Fields[i+1])
	}
	// Odd field count: the orphan key gets no value
	if len(e.Fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", e.Fields[len(e.Fields)-1])
	}
	return b.String()
}

// Logger writes entries at or above its minimum level and publishes every
// written entry to subscribers.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[Entry]
}

// New returns an enabled logger writing to w.
func New(w io.Writer, minLevel Level) *Logger {
	return &Logger{
		writer:   w,
		enabled:  true,
		minLevel: minLevel,
		broker:   pubsub.NewBroker[Entry](),
	}
}

// Log writes one entry.
func (l *Logger) Log(level Level, cat Category, msg string, fields ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	entry := Entry{Time: time.Now(), Level: level, Category: cat, Message: msg, Fields: fields}
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry.String()+"\n")
	}
	l.broker.Publish(pubsub.LoggedEvent, entry)
}

// Close stops publishing and closes the underlying file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
	l.broker.Close()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

var current atomic.Pointer[Logger]

// Init points the global logger at the file path, appending to it.
// The returned cleanup closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: debug log path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l := New(f, LevelDebug)
	l.closer = f
	install(l)
	return func() { _ = l.Close() }, nil
}

// InitWriter points the global logger at w, replacing any previous logger.
func InitWriter(w io.Writer, minLevel Level) {
	install(New(w, minLevel))
}

func install(l *Logger) {
	if prev := current.Swap(l); prev != nil && prev.closer == nil {
		// Writer loggers own nothing; just stop their subscribers
		_ = prev.Close()
	}
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	logAt(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	logAt(LevelInfo, cat, msg, fields...)
}

// Warn logs at warn level.
func Warn(cat Category, msg string, fields ...any) {
	logAt(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	logAt(LevelError, cat, msg, fields...)
}

// ErrorErr logs err at error level under the "error" key.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	logAt(LevelError, cat, msg, fields...)
}

func logAt(level Level, cat Category, msg string, fields ...any) {
	if l := current.Load(); l != nil {
		l.Log(level, cat, msg, fields...)
	}
}

// Subscribe returns a channel of log entries, closed when ctx is cancelled or
// the logger is replaced. It returns nil when logging was never initialized.
func Subscribe(ctx context.Context) <-chan pubsub.Event[Entry] {
	l := current.Load()
	if l == nil {
		return nil
	}
	return l.broker.Subscribe(ctx)
}
