package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"kudos/api/internal/store"
)

const idxContributions = "kudos_contributions"

// Meili implements contribution search via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the contribution
// index. The client starts unhealthy if the initial connection fails; the
// background monitor promotes it once the server comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxContributions,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxContributions, err)
	}

	index := m.client.Index(idxContributions)
	filterable := []interface{}{"chapterId", "participantId", "authorId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxContributions, err)
	}
	searchable := []string{"description"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxContributions, err)
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
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the contribution index scoped to the chapter. The caller's
// contribution list resolves hits back to full entities so the API shape
// matches the fallback path exactly.
func (m *Meili) Search(q Query, contributions []store.Contribution) ([]store.Contribution, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxContributions,
			Query:    q.Text,
			Limit:    limit,
			Filter:   []string{fmt.Sprintf("chapterId = %q", q.ChapterID)},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	byID := map[string]store.Contribution{}
	for _, c := range contributions {
		byID[c.ID] = c
	}

	results := []store.Contribution{}
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		for _, hit := range sr.Hits {
			id := decodeString(hit, "id")
			if c, ok := byID[id]; ok {
				results = append(results, c)
			}
		}
	}
	return results, total, nil
}

// IndexContribution adds or updates a contribution in the search index.
func (m *Meili) IndexContribution(c store.Contribution) error {
	_, err := m.client.Index(idxContributions).AddDocuments([]ContributionRecord{recordFrom(c)}, nil)
	return err
}

// DeleteContribution removes a contribution from the search index.
func (m *Meili) DeleteContribution(id string) error {
	_, err := m.client.Index(idxContributions).DeleteDocument(id, nil)
	return err
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
