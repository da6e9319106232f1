// Package logging writes one JSON object per line with a timestamp, level and message.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Fields are extra key/value pairs merged into a log line.
type Fields map[string]any

// Logger is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New returns a Logger writing to w with timestamps rendered in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

// Default logs to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// Location is the zone used for the ts field.
func (l *Logger) Location() *time.Location {
	return l.loc
}

func (l *Logger) Info(msg string, f Fields)  { l.Log(LevelInfo, msg, f) }
func (l *Logger) Warn(msg string, f Fields)  { l.Log(LevelWarn, msg, f) }
func (l *Logger) Error(msg string, f Fields) { l.Log(LevelError, msg, f) }

// Log writes a single line. Keys in f override ts, level and msg.
func (l *Logger) Log(level, msg string, f Fields) {
	entry := make(map[string]any, len(f)+3)
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	if msg != "" {
		entry["msg"] = msg
	}
	for k, v := range f {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(entry)
}
