package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gtmscore/gtmscore/internal/scoring"
	"github.com/gtmscore/gtmscore/pkg/models"
)

// CreateAssessmentRequest is the submission payload. Rating fields are raw
// JSON so missing or unparseable values can be coerced to the default
// rating instead of failing the decode.
type CreateAssessmentRequest struct {
	Ratings       *RatingsPayload `json:"ratings"`
	TopChallenge  string          `json:"top_challenge"`
	Company       string          `json:"company"`
	Email         string          `json:"email"`
	Cohort        string          `json:"cohort"`
	Sector        string          `json:"sector"`
	EmployeeCount string          `json:"employee_count"`
}

// RatingsPayload carries the four Likert answers.
type RatingsPayload struct {
	Pipeline   json.RawMessage `json:"pipeline"`
	Conversion json.RawMessage `json:"conversion"`
	Expansion  json.RawMessage `json:"expansion"`
	Economics  json.RawMessage `json:"economics"`
}

// coerceRating parses a raw rating value, substituting the default when the
// field is missing or not an integer. Out-of-range integers pass through;
// the engine rejects them explicitly rather than fabricating a score.
func coerceRating(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return models.DefaultRating
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.DefaultRating
	}
	return v
}

func (r *CreateAssessmentRequest) toAssessmentRequest() models.AssessmentRequest {
	return models.AssessmentRequest{
		PipelineRating:   coerceRating(r.Ratings.Pipeline),
		ConversionRating: coerceRating(r.Ratings.Conversion),
		ExpansionRating:  coerceRating(r.Ratings.Expansion),
		EconomicsRating:  coerceRating(r.Ratings.Economics),
		TopChallenge:     r.TopChallenge,
	}
}

// decodeAssessment parses and validates the shared submission payload.
func decodeAssessment(w http.ResponseWriter, r *http.Request) (*CreateAssessmentRequest, bool) {
	var req CreateAssessmentRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to parse request body", err.Error())
		return nil, false
	}
	if req.Ratings == nil {
		writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", "Ratings payload is required", "")
		return nil, false
	}
	return &req, true
}

// score runs the engine and maps engine errors onto HTTP responses.
func (g *Gateway) score(w http.ResponseWriter, req models.AssessmentRequest) (*models.ScoreResult, bool) {
	result, err := g.scorer.ComputeScores(req)
	if err != nil {
		var confErr *scoring.ConfigurationError
		if errors.As(err, &confErr) {
			writeErrorResponse(w, http.StatusUnprocessableEntity, "CONFIGURATION_ERROR", "Rating has no metric bundle entry", err.Error())
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute scores", err.Error())
		}
		return nil, false
	}
	return result, true
}

// handleCreateAssessment scores a submission, appends it to the log and
// triggers best-effort notification and event publishing. Persistence,
// email and event failures are logged and never fail the response.
func (g *Gateway) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssessment(w, r)
	if !ok {
		return
	}

	result, ok := g.score(w, req.toAssessmentRequest())
	if !ok {
		return
	}

	sub := models.Submission{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		Company:       req.Company,
		Email:         req.Email,
		Cohort:        req.Cohort,
		Sector:        req.Sector,
		EmployeeCount: req.EmployeeCount,
		Request:       req.toAssessmentRequest(),
		Result:        *result,
	}

	if err := g.store.Append(r.Context(), sub); err != nil {
		log.Printf("Failed to append submission %s: %v", sub.ID, err)
	}

	if g.notifier != nil {
		go func(sub models.Submission) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := g.notifier.NotifySubmission(ctx, sub); err != nil {
				log.Printf("Failed to send notification for submission %s: %v", sub.ID, err)
			}
		}(sub)
	}

	if g.publisher != nil {
		go func(sub models.Submission) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := g.publisher.PublishSubmission(ctx, sub); err != nil {
				log.Printf("Failed to publish submission %s: %v", sub.ID, err)
			}
		}(sub)
	}

	writeSuccessResponse(w, sub, nil)
}

// handleScoreOnly computes scores without persisting or notifying.
func (g *Gateway) handleScoreOnly(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssessment(w, r)
	if !ok {
		return
	}

	result, ok := g.score(w, req.toAssessmentRequest())
	if !ok {
		return
	}

	writeSuccessResponse(w, result, nil)
}

func (g *Gateway) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	var filter models.SubmissionFilter

	filter.Cohort = r.URL.Query().Get("cohort")
	filter.Sector = r.URL.Query().Get("sector")

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			filter.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			filter.Offset = o
		}
	}

	subs, err := g.store.List(r.Context(), filter)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list submissions", err.Error())
		return
	}

	meta := &APIMeta{
		Total:  len(subs),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.Limit > 0 && len(subs) == filter.Limit {
		meta.HasMore = true
	}

	writeSuccessResponse(w, subs, meta)
}

func (g *Gateway) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	sub, err := g.store.Get(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Submission not found", err.Error())
		return
	}

	writeSuccessResponse(w, sub, nil)
}

// handleReport renders the PDF report for a stored submission. Render
// failures are surfaced to the caller; the download can be retried
// manually, there is no automatic retry.
func (g *Gateway) handleReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	sub, err := g.store.Get(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Submission not found", err.Error())
		return
	}

	pdf, err := g.renderer.Render(r.Context(), sub)
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "RENDER_ERROR", "Failed to render report", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gtm-assessment-%s.pdf", sub.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("Failed to write report for submission %s: %v", sub.ID, err)
	}
}

func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	g.metrics.mu.Lock()
	snapshot := GatewayMetrics{
		RequestsTotal:    g.metrics.RequestsTotal,
		RequestsFailed:   g.metrics.RequestsFailed,
		AverageLatency:   g.metrics.AverageLatency,
		RequestsByPath:   copyCounts(g.metrics.RequestsByPath),
		RequestsByMethod: copyCounts(g.metrics.RequestsByMethod),
		RequestsByStatus: copyCounts(g.metrics.RequestsByStatus),
		LastRequest:      g.metrics.LastRequest,
	}
	g.metrics.mu.Unlock()

	writeSuccessResponse(w, &snapshot, nil)
}

func copyCounts[K comparable](counts map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
