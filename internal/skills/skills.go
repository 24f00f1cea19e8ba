// Package skills derives a short skills list for a person from the free
// text written about them. It is a keyword-prefix matcher over a static
// table, nothing more.
package skills

import (
	"regexp"
	"strings"
)

type detection struct {
	skills   []string
	keywords []string
}

// The table pairs each skill with the keywords that suggest it. Ordering
// matters: earlier rows win the cap when many skills match.
var skillDetection = []detection{
	// Conventional skills
	{skills: []string{"leadership"}, keywords: []string{"lead", "leading", "manage", "managing", "guide", "guiding", "direct", "organize"}},
	{skills: []string{"collaboration"}, keywords: []string{"collaborate", "team", "work with", "together", "coordinate", "help", "support"}},
	{skills: []string{"communication"}, keywords: []string{"communicate", "present", "explain", "discuss", "talk", "meeting", "speaking"}},
	{skills: []string{"problem-solving"}, keywords: []string{"solve", "fix", "debug", "troubleshoot", "resolve", "issue", "problem"}},
	{skills: []string{"research"}, keywords: []string{"research", "investigate", "analyze", "study", "explore", "user research"}},
	{skills: []string{"planning"}, keywords: []string{"plan", "schedule", "organize", "strategy", "roadmap", "timeline"}},
	{skills: []string{"mentoring"}, keywords: []string{"mentor", "teach", "guide", "help", "train", "coach", "support"}},
	{skills: []string{"documentation"}, keywords: []string{"document", "write", "docs", "readme", "guide", "record"}},
	{skills: []string{"testing"}, keywords: []string{"test", "qa", "quality", "bug", "validate", "verify", "check"}},
	{skills: []string{"design"}, keywords: []string{"design", "ui", "ux", "interface", "visual", "layout", "aesthetic"}},

	// More specific conventional skills
	{skills: []string{"project management"}, keywords: []string{"project", "deadline", "deliver", "milestone", "scope", "timeline"}},
	{skills: []string{"data analysis"}, keywords: []string{"data", "metrics", "analytics", "insights", "report", "dashboard"}},
	{skills: []string{"client relations"}, keywords: []string{"client", "customer", "stakeholder", "requirements", "business"}},
	{skills: []string{"code review"}, keywords: []string{"review", "code review", "feedback", "quality", "standards"}},

	// Unconventional skills
	{skills: []string{"space beautifying"}, keywords: []string{"beauty", "beautiful", "aesthetic", "well-dressed", "appearance", "visual appeal"}},
	{skills: []string{"orderliness"}, keywords: []string{"clean", "organize", "tidy", "order", "orderly", "neat", "structure"}},
	{skills: []string{"daily rituals"}, keywords: []string{"daily", "check-in", "routine", "ritual", "regular", "consistent"}},
	{skills: []string{"trip guiding"}, keywords: []string{"trip", "guide", "journey", "experience", "lead through"}},
	{skills: []string{"shamanic work"}, keywords: []string{"shaman", "shamanic", "psychedelic", "spiritual", "healing", "ceremony"}},
	{skills: []string{"moderating"}, keywords: []string{"moderate", "facilitate", "host", "run meetings", "discussion"}},
	{skills: []string{"atmosphere creation"}, keywords: []string{"atmosphere", "vibe", "energy", "mood", "environment", "space"}},
	{skills: []string{"wellness facilitation"}, keywords: []string{"wellness", "wellbeing", "health", "care", "healing"}},
	{skills: []string{"community building"}, keywords: []string{"community", "bring together", "connect", "network", "social"}},
	{skills: []string{"creative thinking"}, keywords: []string{"creative", "innovative", "original", "unique", "artistic"}},
	{skills: []string{"intuitive guidance"}, keywords: []string{"intuitive", "instinct", "feeling", "sense", "guidance"}},
}

const maxSkills = 6

// NoSkillsFound is returned when nothing in the text matches the table.
const NoSkillsFound = "No specific skills clearly identified from the contributions."

// Summarize detects skills in the combined contribution text and formats
// them as a comma-separated list, capped at six.
func Summarize(contributions string) string {
	text := strings.ToLower(contributions)

	detected := []string{}
	seen := map[string]bool{}
	for _, d := range skillDetection {
		if !matchesAny(text, d.keywords) {
			continue
		}
		for _, skill := range d.skills {
			if !seen[skill] {
				seen[skill] = true
				detected = append(detected, skill)
			}
		}
	}

	if len(detected) == 0 {
		return NoSkillsFound
	}
	if len(detected) > maxSkills {
		detected = detected[:maxSkills]
	}
	return strings.Join(detected, ", ")
}

func matchesAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		// Word-boundary prefix match: "lead" hits "leading" but not "mislead".
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword))
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
