package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kudos/api/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc, _ := newTestService()
	ts := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on every response")
	}
}

func TestReadyEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/ready")
	if err != nil {
		t.Fatalf("GET /api/ready failed: %v", err)
	}
	var body struct {
		OK     bool   `json:"ok"`
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK || !body.OK || body.Status != "ready" {
		t.Fatalf("expected ready, got status %d body %+v", resp.StatusCode, body)
	}
}

func TestCreateChapterEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chapters", map[string]any{
		"title":        "Sprint 1",
		"participants": []string{"Alice", "Bob"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var chapter store.Chapter
	decodeJSON(t, resp, &chapter)
	if chapter.ID == "" || chapter.Status != store.StatusSetup {
		t.Errorf("unexpected chapter payload: %+v", chapter)
	}
	if len(chapter.Participants) != 2 {
		t.Errorf("expected denormalized participant names, got %v", chapter.Participants)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chapters", map[string]any{
		"title": "No people",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing participants, got %d", resp.StatusCode)
	}
}

func TestGetChapterActiveAndLatest(t *testing.T) {
	ts, svc := newTestServer(t)

	// No chapters yet: both queries answer 200 with a null body.
	resp, err := http.Get(ts.URL + "/api/chapters")
	if err != nil {
		t.Fatalf("GET /api/chapters failed: %v", err)
	}
	var active *store.Chapter
	decodeJSON(t, resp, &active)
	if resp.StatusCode != http.StatusOK || active != nil {
		t.Fatalf("expected 200 null, got status %d chapter %+v", resp.StatusCode, active)
	}

	chapter := createTestChapter(t, svc, CreateChapterInput{Title: "Sprint 1", Participants: []string{"Alice"}})

	resp, _ = http.Get(ts.URL + "/api/chapters")
	decodeJSON(t, resp, &active)
	if active == nil || active.ID != chapter.ID {
		t.Fatalf("expected active chapter %s, got %+v", chapter.ID, active)
	}

	// Finish it: no active chapter, but latest still finds it.
	if _, err := svc.SetChapterStatus(context.Background(), chapter.ID, store.StatusFinished); err != nil {
		t.Fatalf("SetChapterStatus failed: %v", err)
	}
	resp, _ = http.Get(ts.URL + "/api/chapters")
	decodeJSON(t, resp, &active)
	if active != nil {
		t.Errorf("expected no active chapter after finish, got %+v", active)
	}
	resp, _ = http.Get(ts.URL + "/api/chapters?latest=true")
	var latest *store.Chapter
	decodeJSON(t, resp, &latest)
	if latest == nil || latest.ID != chapter.ID {
		t.Errorf("expected latest chapter %s, got %+v", chapter.ID, latest)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	chapter := createTestChapter(t, svc, CreateChapterInput{Title: "Sprint 1", Participants: []string{"Alice"}})

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/chapters/%s/status", ts.URL, chapter.ID), map[string]string{
		"status": "contribution",
	})
	var updated store.Chapter
	decodeJSON(t, resp, &updated)
	if resp.StatusCode != http.StatusOK || updated.Status != store.StatusContribution {
		t.Fatalf("expected contribution status, got %d %+v", resp.StatusCode, updated)
	}
	if updated.StartTime == nil || updated.ContributionEndTime == nil {
		t.Error("expected timing fields set on phase entry")
	}

	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/chapters/%s/status", ts.URL, chapter.ID), map[string]string{
		"status": "bogus",
	})
	assertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestAllocateEndpointRejectsOverBudget(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/distributions", map[string]any{
		"participantId": seed.alice,
		"chapterId":     seed.chapterID,
		"distributions": []map[string]any{
			{"contributionId": seed.aboutBob, "points": 60},
			{"contributionId": seed.aboutCar, "points": 45},
		},
	})
	assertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/distributions", map[string]any{
		"participantId": seed.alice,
		"chapterId":     seed.chapterID,
		"distributions": []map[string]any{
			{"contributionId": seed.aboutBob, "points": 60},
			{"contributionId": seed.aboutCar, "points": 40},
		},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for an exact-budget allocation, got %d", resp.StatusCode)
	}

	listResp, err := http.Get(fmt.Sprintf("%s/api/distributions?chapterId=%s&participantId=%s", ts.URL, seed.chapterID, seed.alice))
	if err != nil {
		t.Fatalf("GET /api/distributions failed: %v", err)
	}
	var rows []store.Distribution
	decodeJSON(t, listResp, &rows)
	if len(rows) != 2 {
		t.Fatalf("expected 2 distribution rows, got %d", len(rows))
	}
}

func TestContributionEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/contributions", map[string]string{
		"participantId": seed.carol,
		"authorId":      seed.bob,
		"chapterId":     seed.chapterID,
		"description":   "Carol triaged the pager storm.",
	})
	var created store.Contribution
	decodeJSON(t, resp, &created)
	if resp.StatusCode != http.StatusCreated || created.ID == "" {
		t.Fatalf("expected 201 with id, got %d %+v", resp.StatusCode, created)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/contributions/"+created.ID, map[string]string{
		"description": "Carol triaged the pager storm and wrote the followup.",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}

	listResp, _ := http.Get(fmt.Sprintf("%s/api/contributions?chapterId=%s&forParticipant=%s", ts.URL, seed.chapterID, seed.carol))
	var visible []store.Contribution
	decodeJSON(t, listResp, &visible)
	for _, c := range visible {
		if c.ParticipantID == seed.carol {
			t.Errorf("candidate list includes the viewer's own contribution %s", c.ID)
		}
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/contributions/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/contributions/"+created.ID, nil)
	assertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestCommentEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/comments", map[string]string{
		"contributionId": seed.aboutBob,
		"participantId":  seed.carol,
		"chapterId":      seed.chapterID,
		"text":           "This unblocked me too.",
	})
	var comment store.Comment
	decodeJSON(t, resp, &comment)
	if resp.StatusCode != http.StatusCreated || comment.ID == "" {
		t.Fatalf("expected 201 with id, got %d %+v", resp.StatusCode, comment)
	}

	listResp, _ := http.Get(ts.URL + "/api/comments?contributionId=" + seed.aboutBob)
	var comments []store.Comment
	decodeJSON(t, listResp, &comments)
	if len(comments) != 1 || comments[0].Text != "This unblocked me too." {
		t.Fatalf("unexpected comment list: %+v", comments)
	}

	missingResp, _ := http.Get(ts.URL + "/api/comments")
	assertErrorResponse(t, missingResp, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestParticipantEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	chapter := createTestChapter(t, svc, CreateChapterInput{Title: "Sprint 1", Participants: []string{"Alice"}})

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/chapters/%s/participants/add", ts.URL, chapter.ID), map[string]string{
		"name": "Bob",
	})
	var added store.Participant
	decodeJSON(t, resp, &added)
	if resp.StatusCode != http.StatusCreated || added.Name != "Bob" {
		t.Fatalf("expected 201 Bob, got %d %+v", resp.StatusCode, added)
	}

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/chapters/%s/participants/add", ts.URL, chapter.ID), map[string]string{
		"name": "BOB",
	})
	assertErrorResponse(t, resp, http.StatusConflict, "CONFLICT")

	listResp, _ := http.Get(fmt.Sprintf("%s/api/chapters/%s/participants", ts.URL, chapter.ID))
	var participants []store.Participant
	decodeJSON(t, listResp, &participants)
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(participants))
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/participants/"+added.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on removal, got %d", resp.StatusCode)
	}
}

func TestResultsEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	if err := svc.Allocate(context.Background(), seed.alice, seed.chapterID, []AllocationEntry{
		{ContributionID: seed.aboutBob, Points: 30},
	}); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/chapters/%s/results", ts.URL, seed.chapterID))
	if err != nil {
		t.Fatalf("GET results failed: %v", err)
	}
	var results ResultsResponse
	decodeJSON(t, resp, &results)
	if results.Results[0].Name != "Bob" || results.Results[0].TotalPoints != 30 {
		t.Errorf("expected Bob leading with 30, got %+v", results.Results[0])
	}
	if results.Stats.TotalPoints != 30 {
		t.Errorf("expected stats total 30, got %d", results.Stats.TotalPoints)
	}

	missing, _ := http.Get(ts.URL + "/api/chapters/nope/results")
	assertErrorResponse(t, missing, http.StatusNotFound, "NOT_FOUND")
}

func TestExportCSVEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	resp, err := http.Get(fmt.Sprintf("%s/api/chapters/%s/export?format=csv", ts.URL, seed.chapterID))
	if err != nil {
		t.Fatalf("GET export failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Errorf("expected text/csv, got %q", got)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Errorf("expected attachment disposition, got %q", resp.Header.Get("Content-Disposition"))
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read export body: %v", err)
	}
	if !strings.Contains(buf.String(), "## PARTICIPANTS") {
		t.Error("expected participants section in CSV export")
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/summary", map[string]any{
		"personName": "Alice",
		"contributions": []map[string]string{
			{"description": "Alice debugged the login outage and mentored two juniors."},
		},
	})
	var body struct {
		Summary string `json:"summary"`
	}
	decodeJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body.Summary == "" {
		t.Fatalf("expected a summary, got %d %q", resp.StatusCode, body.Summary)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/summary", map[string]any{"personName": "Alice"})
	assertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestSearchEndpointFallsBackWithoutIndex(t *testing.T) {
	ts, svc := newTestServer(t)
	seed := seedAllocationFixture(t, svc)

	resp, err := http.Get(fmt.Sprintf("%s/api/search?chapterId=%s&q=deploy", ts.URL, seed.chapterID))
	if err != nil {
		t.Fatalf("GET search failed: %v", err)
	}
	var body struct {
		Results []store.Contribution `json:"results"`
		Total   int                  `json:"total"`
	}
	decodeJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Total != len(body.Results) {
		t.Errorf("total %d disagrees with %d results", body.Total, len(body.Results))
	}

	missing, _ := http.Get(ts.URL + "/api/search")
	assertErrorResponse(t, missing, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := http.Get(ts.URL + "/api/nope")
	assertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/contributions", nil)
	assertErrorResponse(t, resp, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func assertErrorResponse(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	var body struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, body.Code, body.Error)
	}
}
