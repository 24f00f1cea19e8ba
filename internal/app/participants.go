package app

import (
	"context"
	"strings"

	"kudos/api/internal/store"
	"kudos/api/internal/util"
)

func (s *Service) Participants(ctx context.Context, chapterID string) ([]store.Participant, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	participants := []store.Participant{}
	for _, p := range doc.Participants {
		if p.ChapterID == chapterID {
			participants = append(participants, p)
		}
	}
	return participants, nil
}

// AddParticipant adds a named participant to a chapter. Names are unique
// per chapter, compared case-insensitively; the chapter's denormalized name
// list is kept in lockstep with the entity set.
func (s *Service) AddParticipant(ctx context.Context, chapterID, name string) (store.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Participant{}, validationError("participant name is required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Participant{}, storageError(err)
	}
	chapter := findChapter(doc, chapterID)
	if chapter == nil {
		return store.Participant{}, notFoundError("chapter not found")
	}

	for _, p := range doc.Participants {
		if p.ChapterID == chapterID && strings.EqualFold(p.Name, name) {
			return store.Participant{}, conflictError("participant already exists in this chapter")
		}
	}

	participant := store.Participant{
		ID:        util.NewID(),
		Name:      name,
		ChapterID: chapterID,
	}
	doc.Participants = append(doc.Participants, participant)

	present := false
	for _, existing := range chapter.Participants {
		if existing == name {
			present = true
			break
		}
	}
	if !present {
		chapter.Participants = append(chapter.Participants, name)
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Participant{}, storageError(err)
	}
	return participant, nil
}

// RemoveParticipant deletes the participant and cascades: contributions
// where they are subject or author, their comments, and their
// distributions all go with them.
func (s *Service) RemoveParticipant(ctx context.Context, participantID string) error {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return storageError(err)
	}

	var participant *store.Participant
	for i := range doc.Participants {
		if doc.Participants[i].ID == participantID {
			participant = &doc.Participants[i]
			break
		}
	}
	if participant == nil {
		return notFoundError("participant not found")
	}

	if chapter := findChapter(doc, participant.ChapterID); chapter != nil {
		names := []string{}
		removed := false
		for _, name := range chapter.Participants {
			if !removed && name == participant.Name {
				removed = true
				continue
			}
			names = append(names, name)
		}
		chapter.Participants = names
	}

	doc.Participants = filterParticipants(doc.Participants, func(p store.Participant) bool {
		return p.ID != participantID
	})
	doc.Contributions = filterContributions(doc.Contributions, func(c store.Contribution) bool {
		return c.ParticipantID != participantID && c.AuthorID != participantID
	})
	doc.Comments = filterComments(doc.Comments, func(c store.Comment) bool {
		return c.ParticipantID != participantID
	})
	doc.Distributions = filterDistributions(doc.Distributions, func(d store.Distribution) bool {
		return d.FromParticipantID != participantID
	})

	if err := s.store.Write(ctx, doc); err != nil {
		return storageError(err)
	}
	return nil
}
