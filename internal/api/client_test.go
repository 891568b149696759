package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/sess-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]HistoryRecord{
			{Content: "hello", Persona: "user"},
			{Content: `[{"command":"say","params":{"text":"hi"}}]`, Persona: "Assistant"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	records, err := c.History(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Content != "hello" || records[1].Persona != "Assistant" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestHistoryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such session", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.History(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestSend(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/chat/sess-1/send" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(SendResponse{TaskID: "task-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	taskID, err := c.Send(context.Background(), "sess-1", "Hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if taskID != "task-42" {
		t.Errorf("taskID = %q, want task-42", taskID)
	}
	if gotBody["message"] != "Hello" {
		t.Errorf("sent message = %q, want Hello", gotBody["message"])
	}
}

func TestCancel(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Cancel(context.Background(), "sess-1", "task-42"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if gotPath != "/chat/sess-1/task-42/cancel" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestEventsURL(t *testing.T) {
	c := NewClient("http://localhost:8010/")
	got := c.EventsURL("a b")
	want := "http://localhost:8010/chat/a%20b/events"
	if got != want {
		t.Errorf("EventsURL = %q, want %q", got, want)
	}
}
