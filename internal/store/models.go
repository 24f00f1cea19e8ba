package store

import "time"

// Chapter statuses, in lifecycle order.
const (
	StatusSetup        = "setup"
	StatusContribution = "contribution"
	StatusDistribution = "distribution"
	StatusFinished     = "finished"
)

// ValidStatus reports whether s is one of the four chapter phases.
func ValidStatus(s string) bool {
	switch s {
	case StatusSetup, StatusContribution, StatusDistribution, StatusFinished:
		return true
	}
	return false
}

// Chapter is one peer-recognition session. The absolute deadlines are
// preferred; the duration fields are kept for documents written before
// deadlines existed and only apply when no deadline is set.
type Chapter struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Duration             string     `json:"duration"`
	ContributionDuration float64    `json:"contributionDuration,omitempty"`
	DistributionDuration float64    `json:"distributionDuration,omitempty"`
	ContributionDeadline *time.Time `json:"contributionDeadline,omitempty"`
	DistributionDeadline *time.Time `json:"distributionDeadline,omitempty"`
	Participants         []string   `json:"participants"`
	Status               string     `json:"status"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	ContributionEndTime  *time.Time `json:"contributionEndTime,omitempty"`
	DistributionEndTime  *time.Time `json:"distributionEndTime,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ChapterID string `json:"chapterId"`
}

// Contribution is a free-text note. ParticipantID is the subject (who the
// note is about); AuthorID is who wrote it. Multiple notes per pair are
// allowed.
type Contribution struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	AuthorID      string    `json:"authorId"`
	ChapterID     string    `json:"chapterId"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Comment struct {
	ID             string    `json:"id"`
	ContributionID string    `json:"contributionId"`
	ParticipantID  string    `json:"participantId"`
	ChapterID      string    `json:"chapterId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Distribution is one point allocation from a participant toward a
// contribution. The sum for a (from, chapter) pair never exceeds the
// budget; that is enforced at the service boundary, not here.
type Distribution struct {
	ID                string    `json:"id"`
	FromParticipantID string    `json:"fromParticipantId"`
	ToContributionID  string    `json:"toContributionId"`
	Points            int       `json:"points"`
	ChapterID         string    `json:"chapterId"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Document is the aggregate persisted as a single unit. The chapters array
// keeps its legacy "epochs" key so documents written by earlier deployments
// load unchanged.
type Document struct {
	Chapters      []Chapter      `json:"epochs"`
	Participants  []Participant  `json:"participants"`
	Contributions []Contribution `json:"contributions"`
	Comments      []Comment      `json:"comments"`
	Distributions []Distribution `json:"distributions"`
}

// NewDocument returns an empty document with non-nil arrays so it always
// serializes with all five keys present.
func NewDocument() Document {
	return Document{
		Chapters:      []Chapter{},
		Participants:  []Participant{},
		Contributions: []Contribution{},
		Comments:      []Comment{},
		Distributions: []Distribution{},
	}
}

// Normalize replaces nil arrays with empty ones. Stores call it on read so
// callers never see a partially nil document.
func (d *Document) Normalize() {
	if d.Chapters == nil {
		d.Chapters = []Chapter{}
	}
	if d.Participants == nil {
		d.Participants = []Participant{}
	}
	if d.Contributions == nil {
		d.Contributions = []Contribution{}
	}
	if d.Comments == nil {
		d.Comments = []Comment{}
	}
	if d.Distributions == nil {
		d.Distributions = []Distribution{}
	}
}
