package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kudos/api/internal/export"
	"kudos/api/internal/search"
	"kudos/api/internal/skills"
	"kudos/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/chapters" {
		s.handleCreateChapter(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/chapters" {
		s.handleGetChapter(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/chapters/all" {
		chapters, err := s.service.AllChapters(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chapters)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/chapters/auto-transition" {
		updated, err := s.service.AutoTransition(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Auto-transition check completed",
			"updated": updated,
		})
		return
	}

	// /api/chapters/{id}[/...]
	if parts := splitPath(r.URL.Path); len(parts) >= 3 && parts[0] == "api" && parts[1] == "chapters" {
		s.handleChapterSubroutes(w, r, parts[2:])
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 3 && parts[0] == "api" && parts[1] == "participants" && r.Method == http.MethodDelete {
		if err := s.service.RemoveParticipant(r.Context(), parts[2]); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Participant removed successfully"})
		return
	}

	if r.URL.Path == "/api/contributions" {
		switch r.Method {
		case http.MethodGet:
			s.handleListContributions(w, r)
		case http.MethodPost:
			s.handleCreateContribution(w, r)
		default:
			methodNotAllowed(w, "GET, POST")
		}
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 3 && parts[0] == "api" && parts[1] == "contributions" {
		s.handleContributionByID(w, r, parts[2])
		return
	}

	if r.URL.Path == "/api/comments" {
		switch r.Method {
		case http.MethodGet:
			s.handleListComments(w, r)
		case http.MethodPost:
			s.handleCreateComment(w, r)
		default:
			methodNotAllowed(w, "GET, POST")
		}
		return
	}

	if r.URL.Path == "/api/distributions" {
		switch r.Method {
		case http.MethodGet:
			s.handleListDistributions(w, r)
		case http.MethodPost:
			s.handleAllocate(w, r)
		default:
			methodNotAllowed(w, "GET, POST")
		}
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/summary" {
		s.handleSummary(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

func (s *HTTPServer) handleChapterSubroutes(w http.ResponseWriter, r *http.Request, rest []string) {
	chapterID := rest[0]

	if len(rest) == 1 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, "DELETE")
			return
		}
		deleted, err := s.service.DeleteChapter(r.Context(), chapterID)
		if err != nil {
			respondError(w, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Chapter not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Chapter deleted successfully"})
		return
	}

	switch rest[1] {
	case "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, "PUT")
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		chapter, err := s.service.SetChapterStatus(r.Context(), chapterID, body.Status)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chapter)

	case "deadlines":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, "PUT")
			return
		}
		var body struct {
			ContributionDeadline *time.Time `json:"contributionDeadline"`
			DistributionDeadline *time.Time `json:"distributionDeadline"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		chapter, err := s.service.UpdateDeadlines(r.Context(), chapterID, body.ContributionDeadline, body.DistributionDeadline)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chapter)

	case "participants":
		if len(rest) == 2 && r.Method == http.MethodGet {
			participants, err := s.service.Participants(r.Context(), chapterID)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, participants)
			return
		}
		if len(rest) == 3 && rest[2] == "add" && r.Method == http.MethodPost {
			var body struct {
				Name string `json:"name"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			participant, err := s.service.AddParticipant(r.Context(), chapterID, body.Name)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, participant)
			return
		}
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)

	case "results":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		results, err := s.service.Results(r.Context(), chapterID)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)

	case "export":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		s.handleExport(w, r, chapterID)

	case "archive":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		s.handleArchive(w, r, chapterID)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	}
}

func (s *HTTPServer) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var input CreateChapterInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	chapter, err := s.service.CreateChapter(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapter)
}

func (s *HTTPServer) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	var chapter *store.Chapter
	var err error
	if r.URL.Query().Get("latest") == "true" {
		chapter, err = s.service.LatestChapter(r.Context())
	} else {
		chapter, err = s.service.ActiveChapter(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	// A null body means no matching chapter; clients poll for one.
	writeJSON(w, http.StatusOK, chapter)
}

func (s *HTTPServer) handleListContributions(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")
	if chapterID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Missing chapterId parameter", nil)
		return
	}
	contributions, err := s.service.Contributions(r.Context(), chapterID, r.URL.Query().Get("forParticipant"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

func (s *HTTPServer) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParticipantID string `json:"participantId"`
		AuthorID      string `json:"authorId"`
		ChapterID     string `json:"chapterId"`
		Description   string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	contribution, err := s.service.CreateContribution(r.Context(), body.ParticipantID, body.AuthorID, body.ChapterID, body.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

func (s *HTTPServer) handleContributionByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPut:
		var body struct {
			Description string `json:"description"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if _, err := s.service.UpdateContribution(r.Context(), id, body.Description); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Contribution updated successfully"})

	case http.MethodDelete:
		if err := s.service.DeleteContribution(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Contribution deleted successfully"})

	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *HTTPServer) handleListComments(w http.ResponseWriter, r *http.Request) {
	contributionID := r.URL.Query().Get("contributionId")
	if contributionID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Missing contributionId parameter", nil)
		return
	}
	comments, err := s.service.Comments(r.Context(), contributionID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContributionID string `json:"contributionId"`
		ParticipantID  string `json:"participantId"`
		ChapterID      string `json:"chapterId"`
		Text           string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	comment, err := s.service.CreateComment(r.Context(), body.ContributionID, body.ParticipantID, body.ChapterID, body.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *HTTPServer) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")
	if chapterID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Missing chapterId parameter", nil)
		return
	}
	participantID := r.URL.Query().Get("participantId")

	var distributions []store.Distribution
	var err error
	if participantID != "" {
		distributions, err = s.service.ParticipantDistributions(r.Context(), participantID, chapterID)
	} else {
		distributions, err = s.service.Distributions(r.Context(), chapterID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distributions)
}

func (s *HTTPServer) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParticipantID string            `json:"participantId"`
		ChapterID     string            `json:"chapterId"`
		Distributions []AllocationEntry `json:"distributions"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.Allocate(r.Context(), body.ParticipantID, body.ChapterID, body.Distributions); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, chapterID string) {
	data, err := s.service.ExportData(r.Context(), chapterID)
	if err != nil {
		respondError(w, err)
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	result, err := export.Generate(data, format, time.Now())
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			writeError(w, http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available on this server", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	if format == export.FormatCSV || format == export.FormatPDF {
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request, chapterID string) {
	if s.service.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Object storage is not configured", nil)
		return
	}

	data, err := s.service.ExportData(r.Context(), chapterID)
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := export.Generate(data, export.FormatCSV, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), nil)
		return
	}

	key, err := s.service.archive.Upload(r.Context(), chapterID, result.Filename, result.MimeType, result.Data)
	if err != nil {
		writeError(w, http.StatusBadGateway, "ARCHIVE_FAILED", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"key": key})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PersonName    string `json:"personName"`
		Contributions []struct {
			Description string `json:"description"`
		} `json:"contributions"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.PersonName == "" || body.Contributions == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Missing required fields", nil)
		return
	}

	texts := make([]string, 0, len(body.Contributions))
	for _, c := range body.Contributions {
		texts = append(texts, c.Description)
	}
	summary := skills.Summarize(strings.Join(texts, " "))
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")
	if chapterID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Missing chapterId parameter", nil)
		return
	}

	contributions, err := s.service.Contributions(r.Context(), chapterID, "")
	if err != nil {
		respondError(w, err)
		return
	}

	query := search.Query{
		ChapterID: chapterID,
		Text:      r.URL.Query().Get("q"),
	}
	if s.service.search == nil {
		writeJSON(w, http.StatusOK, search.Response{Results: contributions, Total: len(contributions), Query: query.Text})
		return
	}
	writeJSON(w, http.StatusOK, s.service.search.Search(query, contributions))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
}

func randomRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// respondError maps a DomainError to its HTTP status; anything else is an
// internal failure.
func respondError(w http.ResponseWriter, err error) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		writeError(w, domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
