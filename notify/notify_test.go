package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	msg, err := r.Render(KindApplicationReviewed, map[string]any{
		"Name":          "Lin",
		"Status":        "confirmed",
		"Note":          "see you there",
		"ApplicationID": "app-1",
		"Slots": []SlotLine{
			{Date: "2025-06-02", Start: "10:00", End: "11:00", Room: "A205", Status: "confirmed"},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if msg.Subject != "Your booking request was confirmed" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "<strong>confirmed</strong>") {
		t.Errorf("HTML missing bold status: %s", msg.HTML)
	}
	if !strings.Contains(msg.Text, "2025-06-02 10:00-11:00, room A205: confirmed") {
		t.Errorf("Text missing slot line: %s", msg.Text)
	}
}

func TestRenderer_EscapesHTML(t *testing.T) {
	msg, err := NewRenderer().Render(KindApplicationReceived, map[string]any{
		"Name":          "<script>alert(1)</script>",
		"Purpose":       "meeting",
		"ApplicationID": "app-1",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Errorf("raw HTML leaked into email: %s", msg.HTML)
	}
}

func TestRenderer_EscapesMarkdownInUserFields(t *testing.T) {
	msg, err := NewRenderer().Render(KindReviewRequested, map[string]any{
		"Name":         "**Boss**",
		"Email":        "a@gms.ndhu.edu.tw",
		"Organization": "# Club\n- fake item",
		"Purpose":      "[Approve here](https://evil.example/phish) ![x](https://evil.example/track.png)",
		"Link":         "https://booking.example/admin",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, bad := range []string{`href="https://evil.example`, "<img", "<strong>Boss</strong>", "<h1>"} {
		if strings.Contains(msg.HTML, bad) {
			t.Errorf("user markup %q rendered: %s", bad, msg.HTML)
		}
	}
	if !strings.Contains(msg.HTML, "[Approve here](https://evil.example/phish)") {
		t.Errorf("purpose should appear as plain text: %s", msg.HTML)
	}
	// Link do hệ thống tạo vẫn là link thật.
	if !strings.Contains(msg.HTML, `href="https://booking.example/admin"`) {
		t.Errorf("admin link missing: %s", msg.HTML)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain text", "plain text"},
		{"a_b*c", `a\_b\*c`},
		{"line1\nline2", "line1 line2"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderer_UnknownKind(t *testing.T) {
	if _, err := NewRenderer().Render(Kind("nope"), nil); err == nil {
		t.Error("Render() error = nil for unknown kind")
	}
}

type captureSender struct {
	sent []Message
}

func (c *captureSender) Send(ctx context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestMailer_Notify(t *testing.T) {
	sender := &captureSender{}
	m := NewMailer(sender)

	err := m.Notify(context.Background(), KindLoginLink, "admin@gms.ndhu.edu.tw", map[string]any{
		"Link":      "https://booking.example/admin/verify?token=abc",
		"ExpiresIn": "10 minutes",
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "admin@gms.ndhu.edu.tw" {
		t.Errorf("To = %q", sender.sent[0].To)
	}
	if !strings.Contains(sender.sent[0].HTML, `href="https://booking.example/admin/verify?token=abc"`) {
		t.Errorf("HTML missing link: %s", sender.sent[0].HTML)
	}
}

func TestHTTPSender_Send(t *testing.T) {
	var got httpMailPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "key-123", "booking@ndhu.edu.tw")
	err := s.Send(context.Background(), Message{To: "a@gms.ndhu.edu.tw", Subject: "hi", HTML: "<p>hi</p>", Text: "hi"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if auth != "Bearer key-123" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.From != "booking@ndhu.edu.tw" || len(got.To) != 1 || got.To[0] != "a@gms.ndhu.edu.tw" {
		t.Errorf("payload = %+v", got)
	}
}

func TestHTTPSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.URL, "", "x@y").Send(context.Background(), Message{To: "a@b"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Send() error = %v, want 429", err)
	}
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME("booking@ndhu.edu.tw", Message{To: "a@gms.ndhu.edu.tw", Subject: "Xin chào", HTML: "<p>x</p>"}))
	if !strings.Contains(raw, "To: a@gms.ndhu.edu.tw\r\n") {
		t.Errorf("missing To header: %q", raw)
	}
	if !strings.Contains(raw, "Subject: =?utf-8?q?") {
		t.Errorf("subject not encoded: %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\n<p>x</p>") {
		t.Errorf("body not separated: %q", raw)
	}
}
