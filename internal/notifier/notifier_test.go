package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

func TestFormatPacketMessages_Single(t *testing.T) {
	msgs := FormatPacketMessages("AAPL", "<<<TICKER_PACKET_V1>>>\nTICKER: AAPL\n<<<END_TICKER_PACKET_V1>>>\n")
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if !strings.Contains(m, "<b>AAPL</b> (1/1)") || !strings.Contains(m, "<pre>&lt;&lt;&lt;TICKER_PACKET_V1&gt;&gt;&gt;") || !strings.HasSuffix(m, "&gt;&gt;&gt;</pre>") {
		t.Errorf("message = %q", m)
	}
}

func TestFormatPacketMessages_Split(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("2024-07-10T09:30:00-04:00,220.100000,221.000000,219.500000,220.750000,12000\n")
	}
	b.WriteString(strings.Repeat("é<", 3000) + "\n")
	msgs := FormatPacketMessages("AAPL", b.String())
	if len(msgs) < 3 {
		t.Fatalf("expected several messages, got %d", len(msgs))
	}
	rows := 0
	for i, m := range msgs {
		if len(m) > MaxMessageLen {
			t.Errorf("message %d is %d bytes", i, len(m))
		}
		if !utf8.ValidString(m) {
			t.Errorf("message %d split a rune", i)
		}
		if !strings.HasPrefix(m, "📦 <b>AAPL</b> (") || !strings.HasSuffix(m, "</pre>") {
			t.Errorf("message %d framing = %q...", i, m[:40])
		}
		body := m[strings.Index(m, "<pre>")+5 : len(m)-len("</pre>")]
		if strings.Contains(body, "<") {
			t.Errorf("message %d has unescaped markup", i)
		}
		if strings.HasSuffix(body, "&lt") || strings.HasSuffix(body, "&") {
			t.Errorf("message %d split an entity", i)
		}
		rows += strings.Count(body, "220.750000,12000")
	}
	if rows != 400 {
		t.Errorf("rows across messages = %d", rows)
	}
}

func TestFormatRunSummary(t *testing.T) {
	s := FormatRunSummary("run-1", []RunResult{
		{Ticker: "AAPL", Bars: 49, Duration: 1200 * time.Millisecond},
		{Ticker: "MSFT", Err: errors.New("no <data>")},
	})
	if !strings.Contains(s, "ok: 1/2") || !strings.Contains(s, "AAPL: 49 bars") || !strings.Contains(s, "no &lt;data&gt;") {
		t.Errorf("summary = %s", s)
	}
}

type fakeBot struct {
	mu       sync.Mutex
	sent     []string
	failures int
	updates  string
}

func (f *fakeBot) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failures > 0 {
				f.failures--
				http.Error(w, "busy", http.StatusTooManyRequests)
				return
			}
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode: %v", err)
			}
			if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
				t.Errorf("payload = %v", payload)
			}
			f.sent = append(f.sent, payload["text"])
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			body := f.updates
			f.updates = `{"ok":true,"result":[]}`
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	return tn
}

func TestSendWithRetry(t *testing.T) {
	bot := &fakeBot{failures: 1}
	srv := httptest.NewServer(bot.handler(t))
	defer srv.Close()

	tn := newTestNotifier(srv)
	if err := tn.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(bot.sent) != 1 || bot.sent[0] != "hello" {
		t.Errorf("sent = %v", bot.sent)
	}
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	bot := &fakeBot{failures: 5}
	srv := httptest.NewServer(bot.handler(t))
	defer srv.Close()

	if err := newTestNotifier(srv).SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Error("expected error")
	}
}

func TestSendPacket(t *testing.T) {
	bot := &fakeBot{}
	srv := httptest.NewServer(bot.handler(t))
	defer srv.Close()

	text := strings.Repeat("2024-07-10T09:30:00-04:00,1.000000,1.000000,1.000000,1.000000,1\n", 200)
	if err := newTestNotifier(srv).SendPacket(context.Background(), "AAPL", text, 0); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if len(bot.sent) != len(FormatPacketMessages("AAPL", text)) || len(bot.sent) < 2 {
		t.Errorf("sent %d messages", len(bot.sent))
	}
}

func TestStartPolling(t *testing.T) {
	bot := &fakeBot{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /help "}},
		{"update_id":8}
	]}`}
	srv := httptest.NewServer(bot.handler(t))
	defer srv.Close()

	tn := newTestNotifier(srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	go tn.StartPolling(ctx, func(cmd string) string {
		got <- cmd
		return "pong"
	})

	select {
	case cmd := <-got:
		if cmd != "/help" {
			t.Errorf("command = %q", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		bot.mu.Lock()
		n := len(bot.sent)
		bot.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("reply not sent")
}
