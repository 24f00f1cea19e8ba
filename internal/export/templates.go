package export

import (
	"bytes"
	"html/template"
	"sort"
	"time"
)

// standingsTemplate is the printable results sheet fed to the PDF renderer.
var standingsTemplate = template.Must(template.New("standings").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Georgia, serif; color: #1a1a1a; margin: 0; }
  h1 { font-size: 24px; margin-bottom: 4px; }
  .meta { color: #666; font-size: 12px; margin-bottom: 24px; }
  table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
  th { text-align: left; border-bottom: 2px solid #1a1a1a; padding: 6px 8px; font-size: 13px; }
  td { border-bottom: 1px solid #ddd; padding: 6px 8px; font-size: 13px; vertical-align: top; }
  .points { text-align: right; white-space: nowrap; }
  .note { color: #444; font-size: 12px; margin: 2px 0; }
</style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">Status: {{.Status}} &middot; Created {{.CreatedAt}} &middot; {{.ParticipantCount}} participants &middot; {{.TotalPoints}} points distributed</div>
  <table>
    <tr><th>Rank</th><th>Participant</th><th>Recognition</th><th class="points">Points</th></tr>
    {{range .Rows}}
    <tr>
      <td>{{.Rank}}</td>
      <td>{{.Name}}</td>
      <td>{{range .Notes}}<p class="note">{{.}}</p>{{end}}</td>
      <td class="points">{{.Points}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`))

type standingsRow struct {
	Rank   int
	Name   string
	Points int
	Notes  []string
}

type standingsData struct {
	Title            string
	Status           string
	CreatedAt        string
	ParticipantCount int
	TotalPoints      int
	Rows             []standingsRow
}

// renderStandingsHTML ranks participants by received points and renders the
// printable sheet.
func renderStandingsHTML(data Data) (string, error) {
	summary := summarizePoints(data)

	notesBySubject := map[string][]string{}
	for _, c := range data.Contributions {
		notesBySubject[c.ParticipantID] = append(notesBySubject[c.ParticipantID], c.Description)
	}

	rows := []standingsRow{}
	totalPoints := 0
	for _, p := range data.Participants {
		s := summary[p.ID]
		rows = append(rows, standingsRow{
			Name:   p.Name,
			Points: s.Received,
			Notes:  notesBySubject[p.ID],
		})
		totalPoints += s.Received
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Points > rows[j].Points })
	for i := range rows {
		rows[i].Rank = i + 1
	}

	var buf bytes.Buffer
	err := standingsTemplate.Execute(&buf, standingsData{
		Title:            data.Chapter.Title,
		Status:           data.Chapter.Status,
		CreatedAt:        data.Chapter.CreatedAt.Format(time.DateOnly),
		ParticipantCount: len(data.Participants),
		TotalPoints:      totalPoints,
		Rows:             rows,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
