package email

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"iris/internal/config"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// DigestItem is one unread notification listed in the daily digest
type DigestItem struct {
	Message   string
	Link      string
	CreatedAt time.Time
}

// ReminderItem is one grassroot idea waiting in a reviewer queue
type ReminderItem struct {
	IdeatorName  string
	Excerpt      string
	DaysInStatus int
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>IRIS digest</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Hello {{.Name}},</h2>
        <p>You have <strong>{{len .Items}} unread notification(s)</strong> on the innovation portal:</p>
        <ul>
        {{- range .Items}}
            <li>{{.Message}}{{if .Link}} <a href="{{$.PortalURL}}{{.Link}}" style="color: #4a90e2;">Open</a>{{end}}
                <span style="color: #999; font-size: 12px;">{{.CreatedAt.Format "2006-01-02 15:04"}}</span></li>
        {{- end}}
        </ul>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`))

var reminderTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Ideas waiting for review</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 800px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Hello {{.Name}},</h2>
        <p><strong>{{len .Items}} grassroot idea(s)</strong> are waiting in your {{.Queue}} queue:</p>
        <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
            <thead>
                <tr style="background-color: #f5f5f5; border-bottom: 2px solid #ddd;">
                    <th style="padding: 12px 8px; text-align: left;">Ideator</th>
                    <th style="padding: 12px 8px; text-align: left;">Idea</th>
                    <th style="padding: 12px 8px; text-align: center;">Waiting</th>
                </tr>
            </thead>
            <tbody>
            {{- range .Items}}
                <tr style="border-bottom: 1px solid #eee;">
                    <td style="padding: 12px 8px;">{{.IdeatorName}}</td>
                    <td style="padding: 12px 8px;">{{.Excerpt}}</td>
                    <td style="padding: 12px 8px; text-align: center;">{{.DaysInStatus}} days</td>
                </tr>
            {{- end}}
            </tbody>
        </table>
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.PortalURL}}{{.Link}}" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Open dashboard</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">You receive this reminder weekly. This is an automated email.</p>
    </div>
</body>
</html>
`))

// RenderDigest renders the unread-notification digest body
func (s *Service) RenderDigest(name string, items []DigestItem) (string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, map[string]any{
		"Name":      name,
		"Items":     items,
		"PortalURL": s.config.PortalURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

// RenderReminder renders the review-queue reminder body. queue is "RM" or
// "IBU"; link is the dashboard path of that queue.
func (s *Service) RenderReminder(name, queue, link string, items []ReminderItem) (string, error) {
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, map[string]any{
		"Name":      name,
		"Queue":     queue,
		"Link":      link,
		"Items":     items,
		"PortalURL": s.config.PortalURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render reminder: %w", err)
	}
	return buf.String(), nil
}

// SendNotificationDigest mails the daily summary of unread notifications
func (s *Service) SendNotificationDigest(to, name string, items []DigestItem) error {
	if len(items) == 0 {
		return nil // Don't send empty digests
	}
	body, err := s.RenderDigest(name, items)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("IRIS: %d unread notification(s)", len(items))
	return s.sendEmail(to, subject, body)
}

// SendReviewReminder mails a reviewer the grassroot ideas waiting in their queue
func (s *Service) SendReviewReminder(to, name, queue, link string, items []ReminderItem) error {
	if len(items) == 0 {
		return nil
	}
	body, err := s.RenderReminder(name, queue, link, items)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("IRIS: %d grassroot idea(s) waiting for your review", len(items))
	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	headers := []struct{ key, value string }{
		{"From", s.config.SMTPFrom},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message bytes.Buffer
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h.key, h.value))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server", "address", addr)

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		slog.Error("Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Debug("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Debug("Failed to close SMTP client", "error", err)
		}
	}(client)

	// For development (e.g., Mailpit), no authentication is needed
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			slog.Warn("SMTP authentication failed, continuing unauthenticated", "error", err)
		}
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("Failed to close write closer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to, "subject", subject)
	return nil
}
