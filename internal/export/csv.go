package export

import (
	"fmt"
	"strings"
	"time"
)

// generateCSV builds the sectioned CSV document offline analysis has always
// consumed: participants, contributions, distributions, comments, then the
// summary metrics and per-participant points table.
func generateCSV(data Data, now time.Time) (*Result, error) {
	rows := []string{}
	push := func(row string) { rows = append(rows, row) }

	push("# Chapter Export Data")
	push(fmt.Sprintf("# Chapter: %s", data.Chapter.Title))
	push(fmt.Sprintf("# Status: %s", data.Chapter.Status))
	push(fmt.Sprintf("# Created: %s", data.Chapter.CreatedAt.Format(time.RFC3339)))
	push(fmt.Sprintf("# Export Date: %s", now.Format(time.RFC3339)))
	push("")

	push("## PARTICIPANTS")
	push("Participant ID,Name")
	for _, p := range data.Participants {
		push(fmt.Sprintf("%s,%s", quote(p.ID), quote(p.Name)))
	}
	push("")

	push("## CONTRIBUTIONS")
	push("Contribution ID,About Participant,Author Participant,Description,Created At")
	for _, c := range data.Contributions {
		push(fmt.Sprintf("%s,%s,%s,%s,%s",
			quote(c.ID),
			quote(participantName(data, c.ParticipantID)),
			quote(participantName(data, c.AuthorID)),
			quote(c.Description),
			quote(c.CreatedAt.Format(time.RFC3339)),
		))
	}
	push("")

	subjectByContribution := map[string]string{}
	for _, c := range data.Contributions {
		subjectByContribution[c.ID] = c.ParticipantID
	}

	push("## POINT DISTRIBUTIONS")
	push("Distribution ID,From Participant,To Contribution,Points,Created At")
	for _, d := range data.Distributions {
		toParticipant := "Unknown"
		if subject, ok := subjectByContribution[d.ToContributionID]; ok {
			toParticipant = participantName(data, subject)
		}
		push(fmt.Sprintf("%s,%s,%s,%s,%s",
			quote(d.ID),
			quote(participantName(data, d.FromParticipantID)),
			quote(fmt.Sprintf("%s (%s)", toParticipant, d.ToContributionID)),
			quote(fmt.Sprintf("%d", d.Points)),
			quote(d.CreatedAt.Format(time.RFC3339)),
		))
	}
	push("")

	if len(data.Comments) > 0 {
		push("## COMMENTS")
		push("Comment ID,Contribution ID,Participant,Text,Created At")
		for _, c := range data.Comments {
			push(fmt.Sprintf("%s,%s,%s,%s,%s",
				quote(c.ID),
				quote(c.ContributionID),
				quote(participantName(data, c.ParticipantID)),
				quote(c.Text),
				quote(c.CreatedAt.Format(time.RFC3339)),
			))
		}
		push("")
	}

	totalPoints := 0
	for _, d := range data.Distributions {
		totalPoints += d.Points
	}

	push("## SUMMARY")
	push("Metric,Value")
	push(fmt.Sprintf("%s,%s", quote("Total Participants"), quote(fmt.Sprintf("%d", len(data.Participants)))))
	push(fmt.Sprintf("%s,%s", quote("Total Contributions"), quote(fmt.Sprintf("%d", len(data.Contributions)))))
	push(fmt.Sprintf("%s,%s", quote("Total Points Distributed"), quote(fmt.Sprintf("%d", totalPoints))))
	push(fmt.Sprintf("%s,%s", quote("Total Comments"), quote(fmt.Sprintf("%d", len(data.Comments)))))

	push("")
	push("## POINTS SUMMARY")
	push("Participant,Points Received,Points Given")
	summary := summarizePoints(data)
	for _, p := range data.Participants {
		s := summary[p.ID]
		push(fmt.Sprintf("%s,%s,%s",
			quote(p.Name),
			quote(fmt.Sprintf("%d", s.Received)),
			quote(fmt.Sprintf("%d", s.Given)),
		))
	}

	return &Result{
		Data:     []byte(strings.Join(rows, "\n")),
		Filename: sanitizeFilename(data.Chapter.Title) + ".csv",
		MimeType: "text/csv; charset=utf-8",
	}, nil
}

// quote wraps a CSV field in double quotes, doubling embedded quotes.
func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
