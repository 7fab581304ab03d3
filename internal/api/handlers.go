package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/domain"
	"github.com/healthlens/risk-engine/internal/reconcile"
)

// AssessRequest is the assessment submission payload. Profile fields
// arrive as a raw map so the normalizer can report every invalid field
// at once.
type AssessRequest struct {
	UserID  string                  `json:"user_id" binding:"required"`
	Profile map[string]interface{}  `json:"profile" binding:"required"`
	Labs    []domain.LabObservation `json:"labs,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// handleAssess parses and scores a submitted profile, persists the
// result best-effort, and returns the full assessment.
func (s *Server) handleAssess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "invalid request body", err.Error(), requestID(c)))
		return
	}

	profile, err := domain.ParseProfile(req.UserID, req.Profile)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  domain.NewAPIError(domain.ErrCodeValidation, "profile validation failed", verr.Error(), requestID(c)),
				"fields": verr.Fields,
			})
			return
		}
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "failed to parse profile", err.Error(), requestID(c)))
		return
	}

	labs, _ := reconcile.DedupLabs(req.Labs)
	assessment, err := s.assessor.Assess(c.Request.Context(), profile, domain.LabValuesFrom(labs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeInternalServer, "assessment failed", err.Error(), requestID(c)))
		return
	}

	s.persist(c, assessment, labs)

	c.JSON(http.StatusOK, assessment)
}

// persist writes the assessment to every configured sink. Failures are
// logged, never surfaced: the computed assessment is already in hand.
func (s *Server) persist(c *gin.Context, assessment *domain.Assessment, labs []domain.LabObservation) {
	for _, sink := range s.sinks {
		if err := sink.Persist(c.Request.Context(), assessment, labs); err != nil {
			s.log.WithFields(logrus.Fields{
				"sink":       sink.Name(),
				"user_id":    assessment.UserID,
				"request_id": requestID(c),
				"error":      err,
			}).Warn("Failed to persist assessment")
		}
	}
}

// handleHistory returns the reconciled session history for a user.
func (s *Server) handleHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "user_id query parameter is required", "", requestID(c)))
		return
	}

	result, err := s.history.Reconcile(c.Request.Context(), userID)
	if err != nil {
		s.respondReconcileError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"sessions": result.Sessions,
		"labs":     result.Labs,
		"stats":    result.Stats,
	})
}

// handleLatest returns, per disease, the most recent prediction across
// the merged history, plus the newest session's vitality index.
func (s *Server) handleLatest(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "user_id query parameter is required", "", requestID(c)))
		return
	}

	result, err := s.history.Reconcile(c.Request.Context(), userID)
	if err != nil {
		s.respondReconcileError(c, userID, err)
		return
	}
	if len(result.Sessions) == 0 {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "no assessments found", "", requestID(c)))
		return
	}

	latest := make(map[string]*domain.RiskPrediction)
	for _, session := range result.Sessions {
		for key, p := range session.Predictions {
			if p == nil {
				continue
			}
			if existing, ok := latest[key]; !ok || p.GeneratedAt.After(existing.GeneratedAt) {
				latest[key] = p
			}
		}
	}

	newest := result.Sessions[len(result.Sessions)-1]
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"timestamp":   newest.Timestamp,
		"predictions": latest,
		"vitality":    newest.Vitality,
		"expectancy":  newest.Expectancy,
	})
}

// handleTrends returns sparse per-metric series over the merged
// history.
func (s *Server) handleTrends(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "user_id query parameter is required", "", requestID(c)))
		return
	}

	result, err := s.history.Reconcile(c.Request.Context(), userID)
	if err != nil {
		s.respondReconcileError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, reconcile.BuildTrends(userID, result.Sessions))
}

func (s *Server) respondReconcileError(c *gin.Context, userID string, err error) {
	var unavailable *domain.SourceUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
			domain.ErrCodeSourceUnavailable, "all session sources unavailable", err.Error(), requestID(c)))
		return
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"error":   err,
	}).Error("Reconciliation failed")
	c.JSON(http.StatusInternalServerError, domain.NewAPIError(
		domain.ErrCodeInternalServer, "failed to load assessment history", err.Error(), requestID(c)))
}
