package app

import (
	"context"

	"kudos/api/internal/export"
	"kudos/api/internal/store"
)

// ExportData assembles the complete bundle for one chapter: the chapter
// plus every entity scoped to it.
func (s *Service) ExportData(ctx context.Context, chapterID string) (export.Data, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return export.Data{}, storageError(err)
	}
	chapter := findChapter(doc, chapterID)
	if chapter == nil {
		return export.Data{}, notFoundError("chapter not found")
	}

	data := export.Data{
		Chapter:       *chapter,
		Participants:  []store.Participant{},
		Contributions: []store.Contribution{},
		Distributions: []store.Distribution{},
		Comments:      []store.Comment{},
	}
	for _, p := range doc.Participants {
		if p.ChapterID == chapterID {
			data.Participants = append(data.Participants, p)
		}
	}
	for _, c := range doc.Contributions {
		if c.ChapterID == chapterID {
			data.Contributions = append(data.Contributions, c)
		}
	}
	for _, d := range doc.Distributions {
		if d.ChapterID == chapterID {
			data.Distributions = append(data.Distributions, d)
		}
	}
	for _, c := range doc.Comments {
		if c.ChapterID == chapterID {
			data.Comments = append(data.Comments, c)
		}
	}
	return data, nil
}
