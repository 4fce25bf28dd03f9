package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"iris/internal/models"
)

type fakeEngine struct {
	mu      sync.Mutex
	healthy bool
	err     error
	records []ChallengeRecord
	indexed []ChallengeRecord
}

func (f *fakeEngine) Healthy() bool { return f.healthy }

func (f *fakeEngine) Search(query string, limit int) ([]ChallengeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.records
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEngine) IndexChallenges(records []ChallengeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, records...)
	return nil
}

func TestMatchIDsFallback(t *testing.T) {
	tests := []struct {
		name   string
		svc    *Service
		wantOK bool
	}{
		{"nil service", nil, false},
		{"no engine", NewService(nil), false},
		{"unhealthy engine", NewService(&fakeEngine{healthy: false}), false},
		{"engine error", NewService(&fakeEngine{healthy: true, err: errors.New("boom")}), false},
		{"healthy engine", NewService(&fakeEngine{healthy: true, records: []ChallengeRecord{{ID: "c1"}, {ID: "c2"}}}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, ok := tt.svc.MatchIDs("water")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && len(ids) != 2 {
				t.Errorf("ids = %v, want 2", ids)
			}
		})
	}
}

func TestSuggestLimit(t *testing.T) {
	engine := &fakeEngine{healthy: true, records: []ChallengeRecord{
		{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}, {Title: "E"}, {Title: "F"},
	}}
	titles, ok := NewService(engine).Suggest("x", 5)
	if !ok {
		t.Fatal("expected engine result")
	}
	if len(titles) != 5 || titles[0] != "A" {
		t.Errorf("titles = %v", titles)
	}
}

func TestReindex(t *testing.T) {
	engine := &fakeEngine{healthy: true}
	challenges := []models.Challenge{
		{ID: "c1", Title: "Water", Status: models.ChallengeLive},
		{ID: "c2", Title: "Energy", Status: models.ChallengeDraft},
	}
	if err := NewService(engine).Reindex(context.Background(), challenges); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if len(engine.indexed) != 2 || engine.indexed[1].Status != "DRAFT" {
		t.Errorf("indexed = %+v", engine.indexed)
	}
}
