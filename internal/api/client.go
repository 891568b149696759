// Package api implements the REST client for a MindRoot backend.
// It covers the three collaborator endpoints the chat core needs:
// history retrieval, message send, and task cancellation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HistoryRecord is one entry from GET /history/{session}.
// Content is either a plain user message, a [SYSTEM] bookkeeping record,
// or a JSON-encoded array of command envelopes for an agent reply.
type HistoryRecord struct {
	Content string `json:"content"`
	Persona string `json:"persona"`
}

// SendResponse is the body returned by POST /chat/{session}/send.
type SendResponse struct {
	TaskID string `json:"task_id"`
}

// Client talks to a MindRoot backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://localhost:8010).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// History fetches the stored conversation for a session, oldest first.
func (c *Client) History(ctx context.Context, session string) ([]HistoryRecord, error) {
	u := fmt.Sprintf("%s/history/%s", c.baseURL, url.PathEscape(session))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("history", resp)
	}

	var records []HistoryRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return records, nil
}

// Send posts a user message. The returned task id identifies the agent
// processing it triggers and can be passed to Cancel; it is empty when the
// backend finished synchronously.
func (c *Client) Send(ctx context.Context, session, message string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/chat/%s/send", c.baseURL, url.PathEscape(session))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpError("send", resp)
	}

	var sr SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decoding send response: %w", err)
	}
	return sr.TaskID, nil
}

// Cancel asks the backend to stop processing a task. The acknowledgement
// body is not contract-relevant and is discarded.
func (c *Client) Cancel(ctx context.Context, session, taskID string) error {
	u := fmt.Sprintf("%s/chat/%s/%s/cancel", c.baseURL, url.PathEscape(session), url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError("cancel", resp)
	}
	return nil
}

// EventsURL returns the SSE endpoint for a session.
func (c *Client) EventsURL(session string) string {
	return fmt.Sprintf("%s/chat/%s/events", c.baseURL, url.PathEscape(session))
}

// httpError builds an error from a non-200 response, including a snippet
// of the body when the backend says something useful.
func httpError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("%s: backend returned %s", op, resp.Status)
	}
	return fmt.Errorf("%s: backend returned %s: %s", op, resp.Status, msg)
}
