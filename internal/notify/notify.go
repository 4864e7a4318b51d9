// FILE: notify.go
// Package notify – best-effort, timeout-bounded notifications tagged
// signal/order/trade: a fire-and-forget webhook POST, silently dropped on
// any transport error, with a bounded timeout so a stalled webhook never
// blocks the single-threaded execution loop.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Tag classifies a notification.
type Tag string

const (
	TagSignal Tag = "signal"
	TagOrder  Tag = "order"
	TagTrade  Tag = "trade"
)

// Notifier sends a tagged message. Implementations are expected to be
// best-effort: a failed send must never propagate to the caller.
type Notifier interface {
	Send(message string, tag Tag)
}

// EnabledTags filters a Notifier down to the tag subset a Trade was
// configured to emit.
type EnabledTags struct {
	Notifier
	Enabled map[Tag]bool
}

// Send drops the message if tag isn't enabled.
func (e EnabledTags) Send(message string, tag Tag) {
	if !e.Enabled[tag] {
		return
	}
	e.Notifier.Send(message, tag)
}

// SlackWebhook posts to a Slack incoming webhook URL: 3-second timeout,
// errors swallowed.
type SlackWebhook struct {
	URL    string
	Client *http.Client
}

// NewSlackWebhook returns a Notifier posting to url. An empty url makes
// every Send a no-op.
func NewSlackWebhook(url string) *SlackWebhook {
	return &SlackWebhook{URL: url, Client: http.DefaultClient}
}

func (s *SlackWebhook) Send(message string, tag Tag) {
	if s.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"text": "[" + string(tag) + "] " + message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	_, _ = client.Do(req)
}

// Noop discards every message; useful as a default when no webhook is configured.
type Noop struct{}

func (Noop) Send(string, Tag) {}
