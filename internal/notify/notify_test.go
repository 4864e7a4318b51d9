package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	msg []string
}

func (r *recorder) Send(message string, tag Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msg = append(r.msg, string(tag)+":"+message)
}

func TestEnabledTagsFiltersDisabledTag(t *testing.T) {
	rec := &recorder{}
	n := EnabledTags{Notifier: rec, Enabled: map[Tag]bool{TagOrder: true}}

	n.Send("buy filled", TagOrder)
	n.Send("signal flipped", TagSignal)

	require.Len(t, rec.msg, 1)
	require.Equal(t, "order:buy filled", rec.msg[0])
}

func TestSlackWebhookEmptyURLIsNoop(t *testing.T) {
	s := NewSlackWebhook("")
	require.NotPanics(t, func() { s.Send("hello", TagTrade) })
}

func TestSlackWebhookPostsJSON(t *testing.T) {
	received := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/hook", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body["text"]
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSlackWebhook(srv.URL + "/hook")
	s.Send("fill at 101.50", TagOrder)

	require.Equal(t, "[order] fill at 101.50", <-received)
}
