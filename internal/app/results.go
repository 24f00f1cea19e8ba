package app

import (
	"context"
	"math"
	"sort"

	"kudos/api/internal/store"
)

// ContributionResult is one contribution joined to its incoming points and
// comments.
type ContributionResult struct {
	Contribution store.Contribution `json:"contribution"`
	Points       int                `json:"points"`
	Comments     []store.Comment    `json:"comments"`
}

// ParticipantResult is a participant's standing: the contributions written
// about them and the summed points those collected.
type ParticipantResult struct {
	ParticipantID string               `json:"participantId"`
	Name          string               `json:"name"`
	TotalPoints   int                  `json:"totalPoints"`
	Contributions []ContributionResult `json:"contributions"`
}

// ChapterStats are the dashboard's aggregate numbers, re-derived from the
// same data on every call, never stored.
type ChapterStats struct {
	TotalPoints        int `json:"totalPoints"`
	TotalContributions int `json:"totalContributions"`
	TotalComments      int `json:"totalComments"`
	AveragePoints      int `json:"averagePoints"`
}

type ResultsResponse struct {
	Results []ParticipantResult `json:"results"`
	Stats   ChapterStats        `json:"stats"`
}

// Results builds the ranked standings for a chapter: pure projection over
// the document, sorted descending by total with ties keeping the original
// participant order.
func (s *Service) Results(ctx context.Context, chapterID string) (ResultsResponse, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return ResultsResponse{}, storageError(err)
	}
	if findChapter(doc, chapterID) == nil {
		return ResultsResponse{}, notFoundError("chapter not found")
	}

	pointsByContribution := map[string]int{}
	for _, d := range doc.Distributions {
		if d.ChapterID == chapterID {
			pointsByContribution[d.ToContributionID] += d.Points
		}
	}

	commentsByContribution := map[string][]store.Comment{}
	for _, c := range doc.Comments {
		if c.ChapterID == chapterID {
			commentsByContribution[c.ContributionID] = append(commentsByContribution[c.ContributionID], c)
		}
	}

	results := []ParticipantResult{}
	for _, participant := range doc.Participants {
		if participant.ChapterID != chapterID {
			continue
		}

		contributionResults := []ContributionResult{}
		total := 0
		for _, contribution := range doc.Contributions {
			if contribution.ChapterID != chapterID || contribution.ParticipantID != participant.ID {
				continue
			}
			comments := commentsByContribution[contribution.ID]
			if comments == nil {
				comments = []store.Comment{}
			}
			points := pointsByContribution[contribution.ID]
			contributionResults = append(contributionResults, ContributionResult{
				Contribution: contribution,
				Points:       points,
				Comments:     comments,
			})
			total += points
		}

		results = append(results, ParticipantResult{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			TotalPoints:   total,
			Contributions: contributionResults,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalPoints > results[j].TotalPoints
	})

	return ResultsResponse{
		Results: results,
		Stats:   deriveStats(results),
	}, nil
}

func deriveStats(results []ParticipantResult) ChapterStats {
	stats := ChapterStats{}
	for _, r := range results {
		stats.TotalPoints += r.TotalPoints
		stats.TotalContributions += len(r.Contributions)
		for _, c := range r.Contributions {
			stats.TotalComments += len(c.Comments)
		}
	}
	if len(results) > 0 {
		stats.AveragePoints = int(math.Round(float64(stats.TotalPoints) / float64(len(results))))
	}
	return stats
}
