package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
	"github.com/healthlens/risk-engine/internal/reconcile"
)

type fakeConfigManager struct {
	cfg *domain.Config
}

func (f *fakeConfigManager) GetConfig() *domain.Config                 { return f.cfg }
func (f *fakeConfigManager) GetServerConfig() *domain.ServerConfig     { return &f.cfg.Server }
func (f *fakeConfigManager) GetDatabaseConfig() *domain.DatabaseConfig { return &f.cfg.Database }
func (f *fakeConfigManager) Reload() error                             { return nil }
func (f *fakeConfigManager) Validate() error                           { return nil }

type fakeAssessor struct {
	assessment *domain.Assessment
	err        error
	gotLabs    *domain.LabValues
}

func (f *fakeAssessor) Assess(ctx context.Context, profile *domain.HealthProfile, labs *domain.LabValues) (*domain.Assessment, error) {
	f.gotLabs = labs
	if f.err != nil {
		return nil, f.err
	}
	a := *f.assessment
	a.UserID = profile.UserID
	a.Profile = profile
	return &a, nil
}

type fakeHistory struct {
	result *reconcile.Result
	err    error
}

func (f *fakeHistory) Reconcile(ctx context.Context, userID string) (*reconcile.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type recordingSink struct {
	name      string
	persisted int
	err       error
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Persist(ctx context.Context, assessment *domain.Assessment, labs []domain.LabObservation) error {
	r.persisted++
	return r.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func sampleAssessment() *domain.Assessment {
	now := time.Now()
	return &domain.Assessment{
		ID: "a-1",
		Predictions: map[string]*domain.RiskPrediction{
			"heartdisease": {
				Disease:     domain.DiseaseCardiac,
				Score:       0.625,
				Category:    domain.RiskHigh,
				Confidence:  0.89,
				GeneratedAt: now,
			},
		},
		Vitality:          &domain.VitalityIndex{Score: 45, Category: "Critical"},
		HeuristicsVersion: "v1",
		GeneratedAt:       now,
	}
}

func newTestServer(assessor AssessmentService, history HistoryService, sinks ...AssessmentSink) *Server {
	cfg := &domain.Config{}
	cfg.Logging.Level = "error"
	return NewServer(&fakeConfigManager{cfg: cfg}, assessor, history, sinks, quietLogger())
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}})

	w := doRequest(s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleAssess_Success(t *testing.T) {
	sink := &recordingSink{name: "local-cache"}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}}, sink)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-1",
		"profile": map[string]interface{}{
			"age":       55,
			"sex":       "male",
			"height_cm": 175,
			"weight_kg": 98,
			"smoking":   "current",
			"exercise":  "none",
		},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/assess", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp domain.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.UserID)
	assert.Contains(t, resp.Predictions, "heartdisease")
	assert.Equal(t, 1, sink.persisted)
}

func TestHandleAssess_LabsExtracted(t *testing.T) {
	assessor := &fakeAssessor{assessment: sampleAssessment()}
	s := newTestServer(assessor, &fakeHistory{result: &reconcile.Result{}})

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-1",
		"profile": map[string]interface{}{
			"age": 55, "sex": "male",
		},
		"labs": []map[string]interface{}{
			{"test_name": "Total Cholesterol", "value": 250, "observed_at": "2026-08-27T08:00:00Z"},
		},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/assess", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, assessor.gotLabs)
	assert.Equal(t, 250.0, assessor.gotLabs.TotalCholesterol)
}

func TestHandleAssess_ValidationListsAllFields(t *testing.T) {
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}})

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-1",
		"profile": map[string]interface{}{
			"age":       400,
			"sex":       "robot",
			"height_cm": 5,
		},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/assess", body)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields []domain.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, len(resp.Fields), 3)
}

func TestHandleAssess_MalformedBody(t *testing.T) {
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}})

	w := doRequest(s, http.MethodPost, "/api/v1/assess", []byte("{not json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAssess_SinkFailureDoesNotFailRequest(t *testing.T) {
	sink := &recordingSink{name: "remote", err: assert.AnError}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}}, sink)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-1",
		"profile": map[string]interface{}{"age": 55, "sex": "male"},
	})

	w := doRequest(s, http.MethodPost, "/api/v1/assess", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sink.persisted)
}

func TestHandleHistory_RequiresUserID(t *testing.T) {
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}})

	w := doRequest(s, http.MethodGet, "/api/v1/assessments/history", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHistory_ReturnsSessions(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	history := &fakeHistory{result: &reconcile.Result{
		Sessions: []*domain.AssessmentSession{
			{UserID: "user-1", Timestamp: ts, Source: domain.SourceMerged},
		},
		Stats: reconcile.MergeStats{Superseded: 2},
	}}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, history)

	w := doRequest(s, http.MethodGet, "/api/v1/assessments/history?user_id=user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []json.RawMessage   `json:"sessions"`
		Stats    reconcile.MergeStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 1)
	assert.Equal(t, 2, resp.Stats.Superseded)
}

func TestHandleHistory_AllSourcesDown(t *testing.T) {
	history := &fakeHistory{err: &domain.SourceUnavailableError{
		Sources: map[string]error{"local-cache": assert.AnError, "remote": assert.AnError},
	}}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, history)

	w := doRequest(s, http.MethodGet, "/api/v1/assessments/history?user_id=user-1", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleLatest_NoSessions(t *testing.T) {
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, &fakeHistory{result: &reconcile.Result{}})

	w := doRequest(s, http.MethodGet, "/api/v1/assessments/latest?user_id=user-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleLatest_NewestPredictionPerDisease(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	history := &fakeHistory{result: &reconcile.Result{
		Sessions: []*domain.AssessmentSession{
			{
				UserID: "user-1", Timestamp: day1,
				Predictions: map[string]*domain.RiskPrediction{
					"heartdisease": {Disease: domain.DiseaseCardiac, Score: 0.3, GeneratedAt: day1},
					"diabetes":     {Disease: domain.DiseaseMetabolic, Score: 0.1, GeneratedAt: day1},
				},
			},
			{
				UserID: "user-1", Timestamp: day2,
				Predictions: map[string]*domain.RiskPrediction{
					"heartdisease": {Disease: domain.DiseaseCardiac, Score: 0.5, GeneratedAt: day2},
				},
				Vitality: &domain.VitalityIndex{Score: 60, Category: "Fair"},
			},
		},
	}}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, history)

	w := doRequest(s, http.MethodGet, "/api/v1/assessments/latest?user_id=user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Predictions map[string]*domain.RiskPrediction `json:"predictions"`
		Vitality    *domain.VitalityIndex             `json:"vitality"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The newest heart prediction wins; the older diabetes one is still
	// reported because no newer session rescored it.
	assert.Equal(t, 0.5, resp.Predictions["heartdisease"].Score)
	assert.Equal(t, 0.1, resp.Predictions["diabetes"].Score)
	require.NotNil(t, resp.Vitality)
	assert.Equal(t, 60, resp.Vitality.Score)
}

func TestHandleTrends(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	history := &fakeHistory{result: &reconcile.Result{
		Sessions: []*domain.AssessmentSession{
			{
				UserID: "user-1", Timestamp: ts,
				Predictions: map[string]*domain.RiskPrediction{
					"heartdisease": {Disease: domain.DiseaseCardiac, Score: 0.3, GeneratedAt: ts},
				},
				Vitality: &domain.VitalityIndex{Score: 60},
			},
		},
	}}
	s := newTestServer(&fakeAssessor{assessment: sampleAssessment()}, history)

	w := doRequest(s, http.MethodGet, "/api/v1/trends?user_id=user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var trends domain.TrendSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trends))
	require.Contains(t, trends.Diseases, "heartdisease")
	require.NotNil(t, trends.Vitality)
}
