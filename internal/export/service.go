package export

import (
	"encoding/json"
	"fmt"
	"time"
)

// Generate renders the chapter bundle in the requested format.
func Generate(data Data, format Format, now time.Time) (*Result, error) {
	switch format {
	case FormatJSON, "":
		return generateJSON(data)
	case FormatCSV:
		return generateCSV(data, now)
	case FormatPDF:
		return generatePDF(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func generateJSON(data Data) (*Result, error) {
	bundle := Bundle{
		ChapterID:     data.Chapter.ID,
		ChapterTitle:  data.Chapter.Title,
		Status:        data.Chapter.Status,
		CreatedAt:     data.Chapter.CreatedAt,
		Participants:  data.Participants,
		Contributions: data.Contributions,
		Distributions: data.Distributions,
		Comments:      data.Comments,
	}
	payload, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return &Result{
		Data:     payload,
		Filename: sanitizeFilename(data.Chapter.Title) + ".json",
		MimeType: "application/json",
	}, nil
}

// pointsSummary tallies received and given points per participant. Received
// points follow the contribution's subject, not its author.
type pointsSummary struct {
	Received int
	Given    int
}

func summarizePoints(data Data) map[string]*pointsSummary {
	summary := map[string]*pointsSummary{}
	for _, p := range data.Participants {
		summary[p.ID] = &pointsSummary{}
	}

	subjectByContribution := map[string]string{}
	for _, c := range data.Contributions {
		subjectByContribution[c.ID] = c.ParticipantID
	}

	for _, d := range data.Distributions {
		if subject, ok := subjectByContribution[d.ToContributionID]; ok {
			if s, ok := summary[subject]; ok {
				s.Received += d.Points
			}
		}
		if s, ok := summary[d.FromParticipantID]; ok {
			s.Given += d.Points
		}
	}
	return summary
}

func participantName(data Data, id string) string {
	for _, p := range data.Participants {
		if p.ID == id {
			return p.Name
		}
	}
	return "Unknown"
}

// sanitizeFilename creates a safe filename from a chapter title.
func sanitizeFilename(title string) string {
	result := ""
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result += string(r)
		case r == ' ':
			result += "-"
		case r == '-', r == '_':
			result += string(r)
		}
	}
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "chapter"
	}
	return result
}
