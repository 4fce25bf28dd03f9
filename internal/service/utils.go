package service

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/pkg/validator"
)

// FileStore accepts a named byte stream and returns a retrievable reference
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// DetailCipher seals and opens the narrative of confidential ideas
type DetailCipher interface {
	Seal(ctx context.Context, d *models.IdeaDetail) error
	Open(ctx context.Context, d *models.IdeaDetail) error
}

// ChallengeSearch is the full-text index consulted before the database
type ChallengeSearch interface {
	MatchIDs(query string) ([]string, bool)
	Suggest(query string, limit int) ([]string, bool)
	IndexChallenge(c *models.Challenge)
}

// requireActor turns a missing actor into an authentication error
func requireActor(actor *models.User) error {
	if actor == nil {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

// validate runs struct tag validation and reports failures as validation errors
func validate(v any) error {
	if err := validator.ValidateStruct(v); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// strPtr returns a pointer to s, or nil for an empty string
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeEmails trims, lowercases and de-duplicates a list of emails
func normalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	var out []string
	for _, e := range emails {
		e = validator.SanitizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// nonEmpty reports whether s has any non-space content
func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
