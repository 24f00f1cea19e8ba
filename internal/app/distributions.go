package app

import (
	"context"

	"kudos/api/internal/store"
	"kudos/api/internal/util"
)

// PointBudget is the fixed allocation each participant spreads across
// contributions in a chapter.
const PointBudget = 100

type AllocationEntry struct {
	ContributionID string `json:"contributionId"`
	Points         int    `json:"points"`
}

// Allocate replaces a participant's entire allocation for a chapter. The
// submission is the complete desired state, never a delta: every prior row
// for the (participant, chapter) pair is dropped before the new set is
// inserted, and the whole change lands in one document write.
//
// All validation happens up front; nothing is written on failure. Targeting
// a contribution about yourself is rejected here as well, not just hidden
// from the candidate list, so a direct API call cannot slip past the UI
// filter.
func (s *Service) Allocate(ctx context.Context, fromParticipantID, chapterID string, entries []AllocationEntry) error {
	if fromParticipantID == "" || chapterID == "" {
		return validationError("participantId and chapterId are required")
	}

	total := 0
	for _, entry := range entries {
		if entry.Points < 0 {
			return validationError("points must be non-negative")
		}
		total += entry.Points
	}
	if total > PointBudget {
		return validationError("total points cannot exceed 100")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return storageError(err)
	}
	if findChapter(doc, chapterID) == nil {
		return notFoundError("chapter not found")
	}

	participantExists := false
	for _, p := range doc.Participants {
		if p.ID == fromParticipantID && p.ChapterID == chapterID {
			participantExists = true
			break
		}
	}
	if !participantExists {
		return notFoundError("participant not found in chapter")
	}

	contributionsByID := map[string]store.Contribution{}
	for _, c := range doc.Contributions {
		if c.ChapterID == chapterID {
			contributionsByID[c.ID] = c
		}
	}
	for _, entry := range entries {
		contribution, ok := contributionsByID[entry.ContributionID]
		if !ok {
			return validationError("contribution is not part of this chapter")
		}
		if contribution.ParticipantID == fromParticipantID {
			return validationError("cannot allocate points to a contribution about yourself")
		}
	}

	doc.Distributions = filterDistributions(doc.Distributions, func(d store.Distribution) bool {
		return d.FromParticipantID != fromParticipantID || d.ChapterID != chapterID
	})

	now := s.now()
	for _, entry := range entries {
		doc.Distributions = append(doc.Distributions, store.Distribution{
			ID:                util.NewID(),
			FromParticipantID: fromParticipantID,
			ToContributionID:  entry.ContributionID,
			Points:            entry.Points,
			ChapterID:         chapterID,
			CreatedAt:         now,
		})
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Service) Distributions(ctx context.Context, chapterID string) ([]store.Distribution, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	distributions := []store.Distribution{}
	for _, d := range doc.Distributions {
		if d.ChapterID == chapterID {
			distributions = append(distributions, d)
		}
	}
	return distributions, nil
}

func (s *Service) ParticipantDistributions(ctx context.Context, participantID, chapterID string) ([]store.Distribution, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	distributions := []store.Distribution{}
	for _, d := range doc.Distributions {
		if d.FromParticipantID == participantID && d.ChapterID == chapterID {
			distributions = append(distributions, d)
		}
	}
	return distributions, nil
}

// TotalFor sums a participant's currently allocated points. Display only;
// the budget is enforced when allocating, not here.
func (s *Service) TotalFor(ctx context.Context, participantID, chapterID string) (int, error) {
	distributions, err := s.ParticipantDistributions(ctx, participantID, chapterID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range distributions {
		total += d.Points
	}
	return total, nil
}
