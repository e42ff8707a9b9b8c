package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "test-tpl",
		Name:    "Test Template",
		Subject: "Hello {{name}}",
		Body:    "Dear {{name}}, your code is {{code}}.",
		Channel: ChannelEmail,
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{
		"name": "Alice",
		"code": "1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hello Alice" {
		t.Errorf("subject = %q, want %q", subject, "Hello Alice")
	}
	if body != "Dear Alice, your code is 1234." {
		t.Errorf("body = %q, want %q", body, "Dear Alice, your code is 1234.")
	}
}

func TestTemplateEngine_RenderMissing(t *testing.T) {
	eng := NewTemplateEngine()
	_, _, err := eng.Render("nonexistent", nil)
	if err == nil {
		t.Fatal("expected error for missing template, got nil")
	}
}

func TestTemplateEngine_BuiltInTemplates(t *testing.T) {
	eng := NewTemplateEngine()
	builtIn := []string{
		TemplateApplicationApproved,
		TemplateApplicationRejected,
		TemplateExpiryAlert,
		TemplateRequestFulfilled,
	}
	for _, id := range builtIn {
		_, _, err := eng.Render(id, map[string]string{
			"name":       "Central Blood Bank",
			"role":       "blood_bank",
			"reason":     "missing license",
			"count":      "4",
			"days":       "7",
			"blood_bank": "Central Blood Bank",
			"request_id": "abc",
			"quantity":   "2",
			"blood_type": "O-",
		})
		if err != nil {
			t.Errorf("built-in template %q not found: %v", id, err)
		}
	}
}

func TestManagerSendEmail(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	n := &Notification{
		Channel:   ChannelEmail,
		Recipient: "ops@bank.example.org",
		Subject:   "hi",
		Body:      "body",
	}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("status = %s, sentAt = %v; want sent with timestamp", n.Status, n.SentAt)
	}
	if len(email.Calls()) != 1 {
		t.Fatalf("got %d email calls, want 1", len(email.Calls()))
	}

	stored, err := mgr.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Recipient != n.Recipient {
		t.Error("stored notification mismatch")
	}
}

func TestManagerSendFromTemplate(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	n, err := mgr.SendFromTemplate(context.Background(), TemplateApplicationRejected,
		map[string]string{"name": "Clinic A", "role": "medical_institution", "reason": "duplicate"},
		"admin@clinica.example.org")
	if err != nil {
		t.Fatalf("send from template: %v", err)
	}
	if !strings.Contains(n.Body, "duplicate") {
		t.Errorf("rendered body %q missing reason", n.Body)
	}
	if n.Channel != ChannelEmail {
		t.Errorf("channel = %s, want email", n.Channel)
	}
}

func TestManagerRetry(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	n := &Notification{Channel: ChannelEmail, Recipient: "x@y.example.org", Body: "b"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send failure")
	}
	if n.Status != "failed" {
		t.Fatalf("status = %s, want failed", n.Status)
	}

	// retrying a sent notification is refused
	ok := &Notification{Channel: ChannelEmail, Recipient: "x@y.example.org", Body: "b"}
	email.ShouldFail = false
	if err := mgr.Send(context.Background(), ok); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Retry(context.Background(), ok.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}

	// retry succeeds once the sender recovers
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	got, _ := mgr.Get(context.Background(), n.ID)
	if got.Status != "sent" || got.Error != "" {
		t.Errorf("after retry status = %s, error = %q; want sent with no error", got.Status, got.Error)
	}
}

func TestManagerStats(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	_ = mgr.Send(context.Background(), &Notification{Channel: ChannelEmail, Recipient: "a@x.example.org", Body: "b"})
	email.ShouldFail = true
	email.FailError = "boom"
	_ = mgr.Send(context.Background(), &Notification{Channel: ChannelEmail, Recipient: "b@x.example.org", Body: "b"})

	stats := mgr.Stats(context.Background())
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("stats = %v, want 1 sent / 1 failed", stats)
	}
}

func TestManagerUnsupportedChannel(t *testing.T) {
	mgr := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())
	n := &Notification{Channel: "pigeon", Recipient: "r", Body: "b"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Error("expected error for unsupported channel")
	}
}
