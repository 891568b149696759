package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/runvnc/mindroot-tui/internal/transcript"
)

// recordingHandler appends a tag per received event, preserving order.
type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) OnImage(url string) {
	h.calls = append(h.calls, "image:"+url)
}

func (h *recordingHandler) OnPartialCommand(env transcript.Envelope) {
	h.calls = append(h.calls, "partial:"+env.Command)
}

func (h *recordingHandler) OnRunningCommand() {
	h.calls = append(h.calls, "running")
}

func (h *recordingHandler) OnCommandResult(env transcript.Envelope) {
	h.calls = append(h.calls, "result:"+env.Command)
}

func (h *recordingHandler) OnFinished() {
	h.calls = append(h.calls, "finished")
}

// sseServer serves a fixed SSE body and closes the stream.
func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}))
}

func TestStreamDispatchOrder(t *testing.T) {
	body := "event: partial_command\n" +
		`data: {"command":"say","params":{"text":"hi"}}` + "\n\n" +
		"event: running_command\ndata: {}\n\n" +
		"event: partial_command\n" +
		`data: {"command":"say","params":{"text":"more"}}` + "\n\n" +
		"event: command_result\n" +
		`data: {"command":"say","args":{}}` + "\n\n" +
		"event: image\n" +
		`data: {"url":"http://x/i.png"}` + "\n\n" +
		"event: finished_chat\ndata: {}\n\n"

	srv := sseServer(t, body)
	defer srv.Close()

	h := &recordingHandler{}
	s := New(srv.URL, h)

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected terminal error when server closes the stream")
	}

	want := []string{
		"partial:say", "running", "partial:say",
		"result:say", "image:http://x/i.png", "finished",
	}
	if len(h.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", h.calls, want)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, h.calls[i], want[i])
		}
	}
}

func TestStreamMalformedEventIsSkipped(t *testing.T) {
	body := "event: partial_command\ndata: {not json\n\n" +
		"event: running_command\ndata: {}\n\n"

	srv := sseServer(t, body)
	defer srv.Close()

	h := &recordingHandler{}
	s := New(srv.URL, h)
	var logged bool
	s.SetLogf(func(format string, args ...any) { logged = true })

	s.Run(context.Background())

	if len(h.calls) != 1 || h.calls[0] != "running" {
		t.Errorf("calls = %v, want only the running event", h.calls)
	}
	if !logged {
		t.Error("malformed event should be logged")
	}
}

func TestStreamUnknownEventIgnored(t *testing.T) {
	body := "event: plugin_reloaded\ndata: {}\n\n" +
		"event: finished_chat\ndata: {}\n\n"

	srv := sseServer(t, body)
	defer srv.Close()

	h := &recordingHandler{}
	New(srv.URL, h).Run(context.Background())

	if len(h.calls) != 1 || h.calls[0] != "finished" {
		t.Errorf("calls = %v", h.calls)
	}
}

func TestStreamCancelReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- New(srv.URL, &recordingHandler{}).Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("cancelled stream should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestStreamNon200IsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if err := New(srv.URL, &recordingHandler{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestStreamKeepaliveComments(t *testing.T) {
	body := ": keepalive\n\n" +
		"event: finished_chat\ndata: {}\n\n" +
		": another\n\n"

	srv := sseServer(t, body)
	defer srv.Close()

	h := &recordingHandler{}
	New(srv.URL, h).Run(context.Background())

	if len(h.calls) != 1 || h.calls[0] != "finished" {
		t.Errorf("calls = %v", h.calls)
	}
}
