// Package search keeps a Meilisearch index of challenges for free-text
// listing queries and title suggestions.
package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"iris/internal/models"
)

// ChallengeRecord is the data we index for a challenge
type ChallengeRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// RecordFromChallenge builds the index record of a challenge
func RecordFromChallenge(c *models.Challenge) ChallengeRecord {
	return ChallengeRecord{
		ID:          c.ID,
		Title:       c.Title,
		Keywords:    c.Keywords,
		Description: c.Description,
		Status:      string(c.Status),
	}
}

// Meili implements the challenge index via Meilisearch
type Meili struct {
	client  meili.ServiceManager
	index   string
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the challenge index.
// An unreachable server is not an error: the index reports unhealthy and a
// background loop reconfigures it once the server comes back.
func NewMeili(url, apiKey, index string) *Meili {
	if index == "" {
		index = "challenges"
	}
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		index:  index,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		slog.Warn("Meilisearch unavailable, using database search", "url", url, "error", err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		slog.Debug("Create search index (may already exist)", "index", m.index, "error", err)
	}

	index := m.client.Index(m.index)
	filterable := []interface{}{"status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("Failed to update filterable attributes", "index", m.index, "error", err)
	}
	searchable := []string{"title", "keywords", "description"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		slog.Warn("Failed to update searchable attributes", "index", m.index, "error", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				slog.Info("Meilisearch recovered, reconfiguring index", "index", m.index)
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search returns matching challenge records in relevance order
func (m *Meili) Search(query string, limit int) ([]ChallengeRecord, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}
	if limit <= 0 {
		limit = 100
	}

	resp, err := m.client.Index(m.index).Search(query, &meili.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id", "title"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	records := make([]ChallengeRecord, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		records = append(records, ChallengeRecord{
			ID:    decodeString(hit, "id"),
			Title: decodeString(hit, "title"),
		})
	}
	return records, nil
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// IndexChallenges adds or updates challenge records
func (m *Meili) IndexChallenges(records []ChallengeRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(m.index).AddDocuments(records, nil)
	return err
}
