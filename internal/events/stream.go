// Package events implements the SSE client for a MindRoot chat session.
// One Stream owns one persistent connection and demultiplexes named events
// onto a Handler. There is no reconnect: the first transport failure is
// terminal for the view instance that opened the stream.
package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/runvnc/mindroot-tui/internal/transcript"
)

// Event names delivered by the backend.
const (
	EventImage          = "image"
	EventPartialCommand = "partial_command"
	EventRunningCommand = "running_command"
	EventCommandResult  = "command_result"
	EventFinishedChat   = "finished_chat"
)

// maxEventSize caps a single SSE data payload (1 MiB). A larger payload
// means a broken stream, not a bigger message.
const maxEventSize = 1 << 20

// Handler receives demultiplexed stream events. The chat assembler glue
// implements this; methods are called in strict arrival order from the
// stream's reader goroutine.
type Handler interface {
	OnImage(url string)
	OnPartialCommand(env transcript.Envelope)
	OnRunningCommand()
	OnCommandResult(env transcript.Envelope)
	OnFinished()
}

// imagePayload is the body of an image event.
type imagePayload struct {
	URL string `json:"url"`
}

// Stream is one SSE subscription scoped to a chat session.
type Stream struct {
	url     string
	handler Handler
	http    *http.Client
	logf    func(format string, args ...any)
}

// New creates a stream for the given events URL.
func New(url string, handler Handler) *Stream {
	return &Stream{
		url:     url,
		handler: handler,
		// No client timeout: the connection is long-lived by design.
		http: &http.Client{},
	}
}

// SetLogf registers a destination for recoverable per-event errors.
func (s *Stream) SetLogf(fn func(format string, args ...any)) {
	s.logf = fn
}

// Run connects and dispatches events until the stream ends. It blocks and
// returns nil on context cancellation, or the terminal error otherwise.
// Run must be called at most once per Stream.
func (s *Stream) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connecting event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("event stream returned content type %q", ct)
	}

	if err := s.readLoop(resp.Body); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// readLoop parses the SSE wire format: "event:" and "data:" lines grouped
// by blank-line separators, dispatched in arrival order.
func (s *Stream) readLoop(body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var name string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if name != "" || data.Len() > 0 {
				s.dispatch(name, data.String())
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// Comment/keepalive line, ignored.
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	// EOF without cancellation: the server closed the stream.
	return errors.New("event stream closed by server")
}

// dispatch maps one named event onto the handler. A malformed payload is
// fatal to that event only: it is logged and the subscription continues.
func (s *Stream) dispatch(name, data string) {
	switch name {
	case EventImage:
		var p imagePayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			s.logError(name, data, err)
			return
		}
		s.handler.OnImage(p.URL)
	case EventPartialCommand:
		var env transcript.Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			s.logError(name, data, err)
			return
		}
		s.handler.OnPartialCommand(env)
	case EventRunningCommand:
		s.handler.OnRunningCommand()
	case EventCommandResult:
		var env transcript.Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			s.logError(name, data, err)
			return
		}
		s.handler.OnCommandResult(env)
	case EventFinishedChat:
		s.handler.OnFinished()
	default:
		if s.logf != nil {
			s.logf("ignoring unknown event %q", name)
		}
	}
}

func (s *Stream) logError(name, data string, err error) {
	if s.logf != nil {
		s.logf("malformed %s event (%v): %.200s", name, err, data)
	}
}
