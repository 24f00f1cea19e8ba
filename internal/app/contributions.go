package app

import (
	"context"

	"kudos/api/internal/store"
	"kudos/api/internal/util"
)

// CreateContribution always inserts; several notes about the same person by
// the same author are allowed.
func (s *Service) CreateContribution(ctx context.Context, subjectID, authorID, chapterID, description string) (store.Contribution, error) {
	if subjectID == "" || authorID == "" || chapterID == "" {
		return store.Contribution{}, validationError("participantId, authorId and chapterId are required")
	}
	if description == "" {
		return store.Contribution{}, validationError("description is required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Contribution{}, storageError(err)
	}

	contribution := store.Contribution{
		ID:            util.NewID(),
		ParticipantID: subjectID,
		AuthorID:      authorID,
		ChapterID:     chapterID,
		Description:   description,
		CreatedAt:     s.now(),
	}
	doc.Contributions = append(doc.Contributions, contribution)

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Contribution{}, storageError(err)
	}
	if s.search != nil {
		s.search.IndexContribution(contribution)
	}
	return contribution, nil
}

// UpdateContribution replaces the text and refreshes the timestamp.
func (s *Service) UpdateContribution(ctx context.Context, id, description string) (store.Contribution, error) {
	if description == "" {
		return store.Contribution{}, validationError("description is required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Contribution{}, storageError(err)
	}

	var contribution *store.Contribution
	for i := range doc.Contributions {
		if doc.Contributions[i].ID == id {
			contribution = &doc.Contributions[i]
			break
		}
	}
	if contribution == nil {
		return store.Contribution{}, notFoundError("contribution not found")
	}

	contribution.Description = description
	contribution.CreatedAt = s.now()

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Contribution{}, storageError(err)
	}
	if s.search != nil {
		s.search.IndexContribution(*contribution)
	}
	return *contribution, nil
}

// DeleteContribution cascades to the comments on it and every distribution
// row targeting it.
func (s *Service) DeleteContribution(ctx context.Context, id string) error {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return storageError(err)
	}

	found := false
	for _, c := range doc.Contributions {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		return notFoundError("contribution not found")
	}

	doc.Contributions = filterContributions(doc.Contributions, func(c store.Contribution) bool {
		return c.ID != id
	})
	doc.Comments = filterComments(doc.Comments, func(c store.Comment) bool {
		return c.ContributionID != id
	})
	doc.Distributions = filterDistributions(doc.Distributions, func(d store.Distribution) bool {
		return d.ToContributionID != id
	})

	if err := s.store.Write(ctx, doc); err != nil {
		return storageError(err)
	}
	if s.search != nil {
		s.search.DeleteContribution(id)
	}
	return nil
}

// Contributions lists a chapter's contributions. When forParticipant is
// set the list becomes that participant's allocation candidates: notes
// about themself are excluded, so nobody can fund their own recognition.
func (s *Service) Contributions(ctx context.Context, chapterID, forParticipant string) ([]store.Contribution, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	contributions := []store.Contribution{}
	for _, c := range doc.Contributions {
		if c.ChapterID != chapterID {
			continue
		}
		if forParticipant != "" && c.ParticipantID == forParticipant {
			continue
		}
		contributions = append(contributions, c)
	}
	return contributions, nil
}

func (s *Service) CreateComment(ctx context.Context, contributionID, participantID, chapterID, text string) (store.Comment, error) {
	if contributionID == "" || participantID == "" || chapterID == "" {
		return store.Comment{}, validationError("contributionId, participantId and chapterId are required")
	}
	if text == "" {
		return store.Comment{}, validationError("text is required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Comment{}, storageError(err)
	}

	comment := store.Comment{
		ID:             util.NewID(),
		ContributionID: contributionID,
		ParticipantID:  participantID,
		ChapterID:      chapterID,
		Text:           text,
		CreatedAt:      s.now(),
	}
	doc.Comments = append(doc.Comments, comment)

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Comment{}, storageError(err)
	}
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, contributionID string) ([]store.Comment, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	comments := []store.Comment{}
	for _, c := range doc.Comments {
		if c.ContributionID == contributionID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}
