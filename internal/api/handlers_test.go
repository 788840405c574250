package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtmscore/gtmscore/internal/health"
	"github.com/gtmscore/gtmscore/internal/scoring"
	"github.com/gtmscore/gtmscore/internal/store"
	"github.com/gtmscore/gtmscore/pkg/models"
)

type stubRenderer struct {
	pdf []byte
	err error
}

func (r *stubRenderer) Render(ctx context.Context, sub models.Submission) ([]byte, error) {
	return r.pdf, r.err
}

func newTestGateway(t *testing.T, renderer ReportRenderer) (*Gateway, *store.FileStore) {
	t.Helper()

	bundles := scoring.DefaultBundles()
	require.NoError(t, bundles.Validate())
	engine := scoring.NewEngine(bundles)

	fileStore, err := store.NewFileStore(store.Config{Path: filepath.Join(t.TempDir(), "submissions.log")})
	require.NoError(t, err)

	if renderer == nil {
		renderer = &stubRenderer{pdf: []byte("%PDF-1.4 stub")}
	}

	gateway := NewGateway(DefaultGatewayConfig(), engine, fileStore, renderer, nil, nil, health.NewHealthChecker())
	return gateway, fileStore
}

func doRequest(gateway *Gateway, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	gateway.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestScoreOnly(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	body := []byte(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3}}`)
	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments/score", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.InDelta(t, 0.6379, result.OverallScore, 1e-3)
	assert.Len(t, result.PriorityRecommendations, 5)
	assert.Empty(t, result.DetectedPatterns)
}

func TestScoreOnlyHasNoSideEffects(t *testing.T) {
	gateway, fileStore := newTestGateway(t, nil)

	body := []byte(`{"ratings":{"pipeline":4,"conversion":2,"expansion":3,"economics":3}}`)
	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments/score", body)
	require.Equal(t, http.StatusOK, rec.Code)

	subs, err := fileStore.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestMissingRatingsPayload(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments", []byte(`{"company":"Acme"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestMalformedBody(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments", []byte(`{not json`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestOutOfRangeRatingRejected(t *testing.T) {
	gateway, fileStore := newTestGateway(t, nil)

	body := []byte(`{"ratings":{"pipeline":9,"conversion":3,"expansion":3,"economics":3}}`)
	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFIGURATION_ERROR", resp.Error.Code)

	subs, err := fileStore.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestUnparseableRatingsDefault(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	// String and missing values coerce to the default rating of 3.
	body := []byte(`{"ratings":{"pipeline":"high","conversion":null}}`)
	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments/score", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.InDelta(t, 0.6379, result.OverallScore, 1e-3)
}

func TestCreateAssessmentPersists(t *testing.T) {
	gateway, fileStore := newTestGateway(t, nil)

	body := []byte(`{
		"ratings": {"pipeline": 4, "conversion": 2, "expansion": 3, "economics": 3},
		"top_challenge": "conversion",
		"company": "Acme",
		"email": "ops@acme.test",
		"cohort": "smb",
		"sector": "saas",
		"employee_count": "11-50"
	}`)
	rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var sub models.Submission
	require.NoError(t, json.Unmarshal(data, &sub))

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "Acme", sub.Company)
	assert.Equal(t, 4, sub.Request.PipelineRating)
	require.Len(t, sub.Result.DetectedPatterns, 1)
	assert.Equal(t, "pipeline_conversion_gap", sub.Result.DetectedPatterns[0].PatternID)

	stored, err := fileStore.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sub.ID, stored[0].ID)
}

func TestListSubmissionsFilter(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	for i, cohort := range []string{"smb", "enterprise", "smb"} {
		body := []byte(fmt.Sprintf(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3},"cohort":%q,"company":"co-%d"}`, cohort, i))
		rec := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(gateway, http.MethodGet, "/api/v1/assessments?cohort=smb", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var subs []models.Submission
	require.NoError(t, json.Unmarshal(data, &subs))
	assert.Len(t, subs, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestGetSubmission(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	body := []byte(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3},"company":"Acme"}`)
	created := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)
	require.Equal(t, http.StatusOK, created.Code)

	data, err := json.Marshal(decodeEnvelope(t, created).Data)
	require.NoError(t, err)
	var sub models.Submission
	require.NoError(t, json.Unmarshal(data, &sub))

	rec := doRequest(gateway, http.MethodGet, "/api/v1/assessments/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	missing := doRequest(gateway, http.MethodGet, "/api/v1/assessments/00000000-0000-0000-0000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, missing).Error.Code)
}

func TestReportDownload(t *testing.T) {
	gateway, _ := newTestGateway(t, &stubRenderer{pdf: []byte("%PDF-1.4 report")})

	body := []byte(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3}}`)
	created := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)
	require.Equal(t, http.StatusOK, created.Code)

	data, err := json.Marshal(decodeEnvelope(t, created).Data)
	require.NoError(t, err)
	var sub models.Submission
	require.NoError(t, json.Unmarshal(data, &sub))

	rec := doRequest(gateway, http.MethodGet, "/api/v1/assessments/"+sub.ID+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), sub.ID)
	assert.Equal(t, "%PDF-1.4 report", rec.Body.String())
}

func TestReportRenderFailure(t *testing.T) {
	gateway, _ := newTestGateway(t, &stubRenderer{err: errors.New("browser crashed")})

	body := []byte(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3}}`)
	created := doRequest(gateway, http.MethodPost, "/api/v1/assessments", body)
	require.Equal(t, http.StatusOK, created.Code)

	data, err := json.Marshal(decodeEnvelope(t, created).Data)
	require.NoError(t, err)
	var sub models.Submission
	require.NoError(t, json.Unmarshal(data, &sub))

	rec := doRequest(gateway, http.MethodGet, "/api/v1/assessments/"+sub.ID+"/report", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "RENDER_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestHealthEndpoint(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	rec := doRequest(gateway, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	gateway, _ := newTestGateway(t, nil)

	doRequest(gateway, http.MethodPost, "/api/v1/assessments/score",
		[]byte(`{"ratings":{"pipeline":3,"conversion":3,"expansion":3,"economics":3}}`))

	rec := doRequest(gateway, http.MethodGet, "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	assert.Contains(t, rec.Body.String(), "requests_total")
}
