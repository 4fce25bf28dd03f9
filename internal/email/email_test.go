package email

import (
	"strings"
	"testing"
	"time"

	"iris/internal/config"
)

func newTestService() *Service {
	return NewService(&config.EmailConfig{
		SMTPHost:  "127.0.0.1",
		SMTPPort:  "1",
		SMTPFrom:  "iris@example.test",
		PortalURL: "https://iris.example.test",
	})
}

func TestRenderDigest(t *testing.T) {
	s := newTestService()
	body, err := s.RenderDigest("Ian", []DigestItem{
		{Message: "New idea 'A' submitted for your challenge: B.", Link: "/my-ideas/", CreatedAt: time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)},
		{Message: "<script>alert(1)</script>"},
	})
	if err != nil {
		t.Fatalf("RenderDigest failed: %v", err)
	}

	for _, want := range []string{
		"Hello Ian,",
		"2 unread notification(s)",
		`href="https://iris.example.test/my-ideas/"`,
		"2025-04-01 09:30",
		"&lt;script&gt;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("digest does not contain %q", want)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Error("message must be escaped")
	}
}

func TestRenderReminder(t *testing.T) {
	s := newTestService()
	body, err := s.RenderReminder("Mona", "RM", "/rm-dashboard/", []ReminderItem{
		{IdeatorName: "Ian Ideator", Excerpt: "Automate timesheets", DaysInStatus: 8},
	})
	if err != nil {
		t.Fatalf("RenderReminder failed: %v", err)
	}
	for _, want := range []string{"your RM queue", "Ian Ideator", "Automate timesheets", "8 days", "/rm-dashboard/"} {
		if !strings.Contains(body, want) {
			t.Errorf("reminder does not contain %q", want)
		}
	}
}

func TestEmptyMailsAreNotSent(t *testing.T) {
	s := newTestService()
	// an unreachable SMTP server proves nothing is dialled
	if err := s.SendNotificationDigest("a@example.test", "A", nil); err != nil {
		t.Errorf("empty digest should be skipped, got %v", err)
	}
	if err := s.SendReviewReminder("a@example.test", "A", "IBU", "/ibu-dashboard/", nil); err != nil {
		t.Errorf("empty reminder should be skipped, got %v", err)
	}
}
