package search

import (
	"context"
	"log/slog"

	"iris/internal/models"
)

// Engine is the subset of Meili the facade needs
type Engine interface {
	Healthy() bool
	Search(query string, limit int) ([]ChallengeRecord, error)
	IndexChallenges(records []ChallengeRecord) error
}

// Service is the facade that tries the search engine first. Callers fall
// back to the database ILIKE match when it reports no result.
type Service struct {
	engine Engine
}

// NewService creates a search service. engine may be nil when search is disabled.
func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) available() bool {
	return s != nil && s.engine != nil && s.engine.Healthy()
}

// MatchIDs returns the ids of challenges matching query. ok is false when
// the engine is unavailable or failed and the caller must search itself.
func (s *Service) MatchIDs(query string) (ids []string, ok bool) {
	if !s.available() {
		return nil, false
	}
	records, err := s.engine.Search(query, 0)
	if err != nil {
		slog.Warn("Search engine error, falling back to database", "error", err)
		return nil, false
	}
	ids = make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, true
}

// Suggest returns up to limit titles matching query, with the same fallback contract as MatchIDs
func (s *Service) Suggest(query string, limit int) (titles []string, ok bool) {
	if !s.available() {
		return nil, false
	}
	records, err := s.engine.Search(query, limit)
	if err != nil {
		slog.Warn("Search engine error, falling back to database", "error", err)
		return nil, false
	}
	titles = make([]string, 0, len(records))
	for _, r := range records {
		titles = append(titles, r.Title)
	}
	return titles, true
}

// IndexChallenge pushes a challenge to the index (fire-and-forget)
func (s *Service) IndexChallenge(c *models.Challenge) {
	if !s.available() {
		return
	}
	record := RecordFromChallenge(c)
	go func() {
		if err := s.engine.IndexChallenges([]ChallengeRecord{record}); err != nil {
			slog.Warn("Failed to index challenge", "challenge_id", record.ID, "error", err)
		}
	}()
}

// Reindex pushes every given challenge synchronously
func (s *Service) Reindex(ctx context.Context, challenges []models.Challenge) error {
	if !s.available() {
		return nil
	}
	records := make([]ChallengeRecord, 0, len(challenges))
	for i := range challenges {
		records = append(records, RecordFromChallenge(&challenges[i]))
	}
	return s.engine.IndexChallenges(records)
}
