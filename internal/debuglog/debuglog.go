// Package debuglog writes a raw event log for debugging stream issues.
// Each line is one JSON object: timestamp, kind, and payload. The log is
// opt-in (--debug-raw) and lives under the mindroot data directory; the
// TUI owns the terminal, so diagnostics never go to stdout.
package debuglog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one logged line.
type Entry struct {
	Timestamp time.Time       `json:"ts"`
	Session   string          `json:"session"`
	Kind      string          `json:"kind"` // "event", "api", "error"
	Message   string          `json:"msg,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Logger appends entries to a JSONL file. The zero value is a disabled
// logger that discards everything, so call sites never nil-check.
type Logger struct {
	mu      sync.Mutex
	f       *os.File
	session string
}

// Open creates a logger writing to dir/raw-<timestamp>.jsonl.
func Open(dir, session string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating debug log dir: %w", err)
	}
	name := fmt.Sprintf("raw-%s.jsonl", time.Now().Format("2006-01-02T15-04-05"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	return &Logger{f: f, session: session}, nil
}

// Event logs a received stream event with its raw payload.
func (l *Logger) Event(name string, payload []byte) {
	l.write(Entry{Kind: "event", Message: name, Payload: json.RawMessage(payload)})
}

// Errorf logs a recoverable error.
func (l *Logger) Errorf(format string, args ...any) {
	l.write(Entry{Kind: "error", Message: fmt.Sprintf(format, args...)})
}

// APICall logs an outbound REST call.
func (l *Logger) APICall(op, detail string) {
	l.write(Entry{Kind: "api", Message: op + " " + detail})
}

func (l *Logger) write(e Entry) {
	if l == nil || l.f == nil {
		return
	}
	e.Timestamp = time.Now()
	e.Session = l.session

	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.f.Write(b)
	l.f.Write([]byte{'\n'})
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
