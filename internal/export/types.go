// Package export renders a chapter's complete data for offline use: a
// flattened JSON bundle, a sectioned CSV, or a printable PDF standings
// sheet.
package export

import (
	"errors"
	"time"

	"kudos/api/internal/store"
)

// Format represents the export output format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Data is the chapter bundle every format renders from.
type Data struct {
	Chapter       store.Chapter
	Participants  []store.Participant
	Contributions []store.Contribution
	Distributions []store.Distribution
	Comments      []store.Comment
}

// Bundle is the flattened JSON shape served to offline analysis tools. It
// mirrors the shape earlier deployments produced.
type Bundle struct {
	ChapterID     string               `json:"chapterId"`
	ChapterTitle  string               `json:"chapterTitle"`
	Status        string               `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	Participants  []store.Participant  `json:"participants"`
	Contributions []store.Contribution `json:"contributions"`
	Distributions []store.Distribution `json:"distributions"`
	Comments      []store.Comment      `json:"comments"`
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
