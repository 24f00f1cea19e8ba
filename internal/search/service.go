package search

import (
	"log"
	"strings"

	"kudos/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to a
// plain scan over the chapter's contributions.
type Service struct {
	meili *Meili
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

// Search runs the query against Meilisearch when healthy. The caller
// supplies the chapter's contributions so the fallback path has something
// to scan without the search layer owning a store handle.
func (s *Service) Search(q Query, contributions []store.Contribution) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q, contributions)
		if err == nil {
			return Response{Results: results, Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to scan: %v", err)
	}

	results := scanContributions(q, contributions)
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexContribution indexes a contribution (fire-and-forget to Meilisearch).
func (s *Service) IndexContribution(c store.Contribution) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexContribution(c); err != nil {
			log.Printf("search: index contribution %s: %v", c.ID, err)
		}
	}()
}

// DeleteContribution removes a contribution from the index (fire-and-forget).
func (s *Service) DeleteContribution(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteContribution(id); err != nil {
			log.Printf("search: delete contribution %s: %v", id, err)
		}
	}()
}

// DeleteContributions removes a batch of contributions from the index, used
// when a cascade wipes a whole chapter.
func (s *Service) DeleteContributions(ids []string) {
	if s.meili == nil || !s.meili.Healthy() || len(ids) == 0 {
		return
	}
	go func() {
		for _, id := range ids {
			if err := s.meili.DeleteContribution(id); err != nil {
				log.Printf("search: delete contribution %s: %v", id, err)
			}
		}
	}()
}

// Close stops the Meilisearch health monitor when one is running.
func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

func scanContributions(q Query, contributions []store.Contribution) []store.Contribution {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	results := []store.Contribution{}
	for _, c := range contributions {
		if c.ChapterID != q.ChapterID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Description), needle) {
			continue
		}
		results = append(results, c)
		if q.Limit > 0 && len(results) >= q.Limit {
			break
		}
	}
	return results
}
