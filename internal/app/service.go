package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"kudos/api/internal/archive"
	"kudos/api/internal/search"
	"kudos/api/internal/store"
	"kudos/api/internal/util"
)

// Legacy phase lengths, in hours, used only when a chapter has no absolute
// deadline for the phase.
const (
	defaultContributionHours = 1.0
	defaultDistributionHours = 0.5
)

// Service owns all domain logic. Every mutation follows the same shape:
// read the whole document, change the in-memory copy, write the whole
// document back. There is no cross-request locking; concurrent writers can
// lose updates, which is accepted for the handful of humans using a session.
type Service struct {
	store   store.Store
	search  *search.Service
	archive *archive.Service
	now     func() time.Time
}

func New(dataStore store.Store, searchService *search.Service, archiveService *archive.Service) *Service {
	return &Service{
		store:   dataStore,
		search:  searchService,
		archive: archiveService,
		now:     time.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type CreateChapterInput struct {
	Title                string     `json:"title"`
	Participants         []string   `json:"participants"`
	ContributionDeadline *time.Time `json:"contributionDeadline"`
	DistributionDeadline *time.Time `json:"distributionDeadline"`
	ContributionDuration float64    `json:"contributionDuration"`
	DistributionDuration float64    `json:"distributionDuration"`
}

// CreateChapter creates a chapter in setup together with its participants.
// The chapter keeps a denormalized copy of the participant names.
func (s *Service) CreateChapter(ctx context.Context, input CreateChapterInput) (store.Chapter, error) {
	if input.Title == "" {
		return store.Chapter{}, validationError("title is required")
	}
	if len(input.Participants) == 0 {
		return store.Chapter{}, validationError("at least one participant is required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Chapter{}, storageError(err)
	}

	now := s.now()
	contributionDuration := input.ContributionDuration
	if contributionDuration <= 0 {
		contributionDuration = defaultContributionHours
	}
	distributionDuration := input.DistributionDuration
	if distributionDuration <= 0 {
		distributionDuration = defaultDistributionHours
	}

	chapter := store.Chapter{
		ID:                   util.NewID(),
		Title:                input.Title,
		Duration:             displayDuration(input.ContributionDeadline, input.DistributionDeadline, now),
		ContributionDuration: contributionDuration,
		DistributionDuration: distributionDuration,
		ContributionDeadline: input.ContributionDeadline,
		DistributionDeadline: input.DistributionDeadline,
		Participants:         append([]string{}, input.Participants...),
		Status:               store.StatusSetup,
		CreatedAt:            now,
	}
	doc.Chapters = append(doc.Chapters, chapter)

	for _, name := range input.Participants {
		doc.Participants = append(doc.Participants, store.Participant{
			ID:        util.NewID(),
			Name:      name,
			ChapterID: chapter.ID,
		})
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Chapter{}, storageError(err)
	}
	return chapter, nil
}

func (s *Service) GetChapter(ctx context.Context, id string) (store.Chapter, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Chapter{}, storageError(err)
	}
	chapter := findChapter(doc, id)
	if chapter == nil {
		return store.Chapter{}, notFoundError("chapter not found")
	}
	return *chapter, nil
}

// ActiveChapter returns the first non-finished chapter, or nil when every
// chapter has finished.
func (s *Service) ActiveChapter(ctx context.Context) (*store.Chapter, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	for i := range doc.Chapters {
		if doc.Chapters[i].Status != store.StatusFinished {
			chapter := doc.Chapters[i]
			return &chapter, nil
		}
	}
	return nil, nil
}

// LatestChapter returns the most recently created chapter, or nil when none
// exist.
func (s *Service) LatestChapter(ctx context.Context) (*store.Chapter, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if len(doc.Chapters) == 0 {
		return nil, nil
	}
	latest := doc.Chapters[0]
	for _, chapter := range doc.Chapters[1:] {
		if chapter.CreatedAt.After(latest.CreatedAt) {
			latest = chapter
		}
	}
	return &latest, nil
}

// AllChapters returns every chapter, newest first.
func (s *Service) AllChapters(ctx context.Context) ([]store.Chapter, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	chapters := append([]store.Chapter{}, doc.Chapters...)
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].CreatedAt.After(chapters[j].CreatedAt)
	})
	return chapters, nil
}

// SetChapterStatus forces a phase transition, including admin-driven
// regressions. Timing fields are reset or recomputed so the chapter is
// consistent with its new phase; recorded contributions and distributions
// survive a regression untouched.
func (s *Service) SetChapterStatus(ctx context.Context, id, status string) (store.Chapter, error) {
	if !store.ValidStatus(status) {
		return store.Chapter{}, validationError("invalid status")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Chapter{}, storageError(err)
	}
	chapter := findChapter(doc, id)
	if chapter == nil {
		return store.Chapter{}, notFoundError("chapter not found")
	}

	previous := chapter.Status
	chapter.Status = status
	now := s.now()

	switch status {
	case store.StatusSetup:
		// Full reset regardless of origin state.
		chapter.StartTime = nil
		chapter.EndTime = nil
		chapter.ContributionEndTime = nil
		chapter.DistributionEndTime = nil

	case store.StatusContribution:
		if previous == store.StatusSetup || chapter.StartTime == nil {
			chapter.StartTime = timePtr(now)
		}
		if previous == store.StatusDistribution || previous == store.StatusFinished {
			chapter.EndTime = nil
			chapter.DistributionEndTime = nil
		}
		chapter.ContributionEndTime = timePtr(contributionEnd(*chapter, now))

	case store.StatusDistribution:
		if chapter.StartTime == nil {
			chapter.StartTime = timePtr(now)
		}
		if previous == store.StatusFinished {
			chapter.EndTime = nil
		}
		chapter.DistributionEndTime = timePtr(distributionEnd(*chapter, now))

	case store.StatusFinished:
		chapter.EndTime = timePtr(now)
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Chapter{}, storageError(err)
	}
	return *chapter, nil
}

// UpdateDeadlines overwrites the supplied absolute deadline(s). When the
// chapter is currently in the matching phase the end time moves with the
// deadline so the change takes effect immediately.
func (s *Service) UpdateDeadlines(ctx context.Context, id string, contributionDeadline, distributionDeadline *time.Time) (store.Chapter, error) {
	if contributionDeadline == nil && distributionDeadline == nil {
		return store.Chapter{}, validationError("at least one deadline must be provided")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return store.Chapter{}, storageError(err)
	}
	chapter := findChapter(doc, id)
	if chapter == nil {
		return store.Chapter{}, notFoundError("chapter not found")
	}

	if contributionDeadline != nil {
		chapter.ContributionDeadline = contributionDeadline
		if chapter.Status == store.StatusContribution {
			chapter.ContributionEndTime = timePtr(*contributionDeadline)
		}
	}
	if distributionDeadline != nil {
		chapter.DistributionDeadline = distributionDeadline
		if chapter.Status == store.StatusDistribution {
			chapter.DistributionEndTime = timePtr(*distributionDeadline)
		}
	}
	if chapter.ContributionDeadline != nil && chapter.DistributionDeadline != nil {
		chapter.Duration = displayDuration(chapter.ContributionDeadline, chapter.DistributionDeadline, s.now())
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return store.Chapter{}, storageError(err)
	}
	return *chapter, nil
}

// AutoTransition sweeps every chapter and advances those whose phase end has
// passed: contribution moves to distribution, distribution moves to
// finished. Running it twice at the same instant changes nothing the second
// time; the document is persisted once and only when a chapter moved.
func (s *Service) AutoTransition(ctx context.Context) (bool, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return false, storageError(err)
	}

	now := s.now()
	updated := false

	for i := range doc.Chapters {
		chapter := &doc.Chapters[i]
		switch chapter.Status {
		case store.StatusContribution:
			end := effectiveEnd(chapter.ContributionDeadline, chapter.ContributionEndTime)
			if end != nil && !now.Before(*end) {
				chapter.Status = store.StatusDistribution
				chapter.DistributionEndTime = timePtr(distributionEnd(*chapter, now))
				updated = true
			}
		case store.StatusDistribution:
			end := effectiveEnd(chapter.DistributionDeadline, chapter.DistributionEndTime)
			if end != nil && !now.Before(*end) {
				chapter.Status = store.StatusFinished
				chapter.EndTime = timePtr(now)
				updated = true
			}
		}
	}

	if updated {
		if err := s.store.Write(ctx, doc); err != nil {
			return false, storageError(err)
		}
	}
	return updated, nil
}

// DeleteChapter removes the chapter and everything scoped to it. A missing
// chapter reports false rather than an error.
func (s *Service) DeleteChapter(ctx context.Context, id string) (bool, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return false, storageError(err)
	}

	index := -1
	for i := range doc.Chapters {
		if doc.Chapters[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return false, nil
	}

	removedContributions := []string{}
	for _, c := range doc.Contributions {
		if c.ChapterID == id {
			removedContributions = append(removedContributions, c.ID)
		}
	}

	doc.Chapters = append(doc.Chapters[:index], doc.Chapters[index+1:]...)
	doc.Participants = filterParticipants(doc.Participants, func(p store.Participant) bool {
		return p.ChapterID != id
	})
	doc.Contributions = filterContributions(doc.Contributions, func(c store.Contribution) bool {
		return c.ChapterID != id
	})
	doc.Comments = filterComments(doc.Comments, func(c store.Comment) bool {
		return c.ChapterID != id
	})
	doc.Distributions = filterDistributions(doc.Distributions, func(d store.Distribution) bool {
		return d.ChapterID != id
	})

	if err := s.store.Write(ctx, doc); err != nil {
		return false, storageError(err)
	}
	if s.search != nil {
		s.search.DeleteContributions(removedContributions)
	}
	return true, nil
}

// effectiveEnd prefers the absolute deadline over the legacy end time, the
// same rule the countdown display uses.
func effectiveEnd(deadline, legacyEnd *time.Time) *time.Time {
	if deadline != nil {
		return deadline
	}
	return legacyEnd
}

func contributionEnd(chapter store.Chapter, now time.Time) time.Time {
	if chapter.ContributionDeadline != nil {
		return *chapter.ContributionDeadline
	}
	hours := chapter.ContributionDuration
	if hours <= 0 {
		hours = defaultContributionHours
	}
	return now.Add(time.Duration(hours * float64(time.Hour)))
}

func distributionEnd(chapter store.Chapter, now time.Time) time.Time {
	if chapter.DistributionDeadline != nil {
		return *chapter.DistributionDeadline
	}
	hours := chapter.DistributionDuration
	if hours <= 0 {
		hours = defaultDistributionHours
	}
	return now.Add(time.Duration(hours * float64(time.Hour)))
}

// displayDuration is the human string shown in the admin list: the rounded
// span until the distribution deadline when both deadlines are known.
func displayDuration(contributionDeadline, distributionDeadline *time.Time, now time.Time) string {
	if contributionDeadline != nil && distributionDeadline != nil {
		hours := math.Ceil(distributionDeadline.Sub(now).Hours())
		return fmt.Sprintf("%dh", int(hours))
	}
	return "1h"
}

func findChapter(doc store.Document, id string) *store.Chapter {
	for i := range doc.Chapters {
		if doc.Chapters[i].ID == id {
			return &doc.Chapters[i]
		}
	}
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

func filterParticipants(list []store.Participant, keep func(store.Participant) bool) []store.Participant {
	out := []store.Participant{}
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func filterContributions(list []store.Contribution, keep func(store.Contribution) bool) []store.Contribution {
	out := []store.Contribution{}
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func filterComments(list []store.Comment, keep func(store.Comment) bool) []store.Comment {
	out := []store.Comment{}
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func filterDistributions(list []store.Distribution, keep func(store.Distribution) bool) []store.Distribution {
	out := []store.Distribution{}
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
