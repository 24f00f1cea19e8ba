// Package search finds contributions by their free text. Meilisearch is
// used when configured and healthy; otherwise the query falls back to a
// scan over the chapter's contributions, which is fine at the data volumes
// a recognition session produces.
package search

import "kudos/api/internal/store"

// Query is a contribution text search scoped to one chapter.
type Query struct {
	ChapterID string
	Text      string
	Limit     int
}

// Response is the search result envelope returned to the API.
type Response struct {
	Results []store.Contribution `json:"results"`
	Total   int                  `json:"total"`
	Query   string               `json:"query"`
}

// ContributionRecord is the shape indexed into Meilisearch.
type ContributionRecord struct {
	ID            string `json:"id"`
	ChapterID     string `json:"chapterId"`
	ParticipantID string `json:"participantId"`
	AuthorID      string `json:"authorId"`
	Description   string `json:"description"`
}

func recordFrom(c store.Contribution) ContributionRecord {
	return ContributionRecord{
		ID:            c.ID,
		ChapterID:     c.ChapterID,
		ParticipantID: c.ParticipantID,
		AuthorID:      c.AuthorID,
		Description:   c.Description,
	}
}
