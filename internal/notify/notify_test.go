package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, string, string) error {
	s.calls++
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierConfirmsDelivery(t *testing.T) {
	tests := []struct {
		name    string
		senders []Sender
		want    bool
	}{
		{"no senders", nil, false},
		{"single success", []Sender{&stubSender{name: "a"}}, true},
		{"single failure", []Sender{&stubSender{name: "a", err: errors.New("down")}}, false},
		{"one of two succeeds", []Sender{
			&stubSender{name: "a", err: errors.New("down")},
			&stubSender{name: "b"},
		}, true},
		{"all fail", []Sender{
			&stubSender{name: "a", err: errors.New("down")},
			&stubSender{name: "b", err: errors.New("down")},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(tt.senders, testLogger())
			if got := n.Send(context.Background(), "t", "m"); got != tt.want {
				t.Errorf("Send = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotifierTriesEverySender(t *testing.T) {
	a := &stubSender{name: "a", err: errors.New("down")}
	b := &stubSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, testLogger())
	n.Send(context.Background(), "t", "m")
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}

func TestTelegramSendPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bottok123/sendMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok123", "chat42")
	s.baseURL = srv.URL
	if err := s.Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "chat42" {
		t.Errorf("chat_id = %q", got["chat_id"])
	}
	if got["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %q", got["parse_mode"])
	}
	if want := "<b>Title</b>\n\nBody"; got["text"] != want {
		t.Errorf("text = %q, want %q", got["text"], want)
	}
}

func TestTelegramRetriesOnceOnRateLimit(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"ok":false,"parameters":{"retry_after":1}}`)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "chat")
	s.baseURL = srv.URL
	if err := s.Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send after retry: %v", err)
	}
	if hits != 2 {
		t.Errorf("requests = %d, want 2", hits)
	}
}

func TestTelegramRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"ok":false,"parameters":{"retry_after":30}}`)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "chat")
	s.baseURL = srv.URL
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, "Title", "Body"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTelegramSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "chat")
	s.baseURL = srv.URL
	err := s.Send(context.Background(), "Title", "Body")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want the API description surfaced", err)
	}
}
