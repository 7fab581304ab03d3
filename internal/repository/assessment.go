// Package repository persists assessment data in the remote Postgres
// store: user profiles, lab observations and risk predictions.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/domain"
)

// AssessmentRepository handles remote persistence of assessments.
// Prediction rows are append-only: supersession is a new row with a newer
// generated_at, never an update.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// SaveProfile inserts a profile snapshot. Fields the user never reported
// (recorded in Defaulted) are stored as NULL so imputed values are never
// mistaken for reported ones.
func (r *AssessmentRepository) SaveProfile(ctx context.Context, profile *domain.HealthProfile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", err
	}

	query := `
		INSERT INTO user_profiles (
			id, user_id, age, sex, height_cm, weight_kg,
			smoking, alcohol, exercise, diet, sleep_hours, stress_level,
			family_heart_disease, family_diabetes, family_cancer,
			conditions, medications
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)`

	id := uuid.New().String()
	_, err := r.db.Exec(ctx, query,
		id,
		profile.UserID,
		profile.Age,
		string(profile.Sex),
		nullableFloat(profile.HeightCM),
		nullableFloat(profile.WeightKG),
		reportedEnum(profile, "smoking", string(profile.Smoking)),
		reportedEnum(profile, "alcohol", string(profile.Alcohol)),
		reportedEnum(profile, "exercise", string(profile.Exercise)),
		reportedEnum(profile, "diet", string(profile.Diet)),
		nullableFloat(profile.SleepHours),
		nullableInt(profile.StressLevel),
		profile.FamilyHeart,
		profile.FamilyDiabetes,
		profile.FamilyCancer,
		profile.Conditions,
		profile.Medications,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": profile.UserID,
			"error":   err,
		}).Error("Failed to save profile")
		return "", fmt.Errorf("saving profile: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"profile_id": id,
		"user_id":    profile.UserID,
	}).Info("Profile saved")

	return id, nil
}

// SaveLabObservations inserts the given lab observations for a user.
func (r *AssessmentRepository) SaveLabObservations(ctx context.Context, userID string, labs []domain.LabObservation) error {
	query := `
		INSERT INTO lab_observations (id, user_id, test_name, value, unit, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for i := range labs {
		if labs[i].ID == "" {
			labs[i].ID = uuid.New().String()
		}
		_, err := r.db.Exec(ctx, query,
			labs[i].ID,
			userID,
			labs[i].TestName,
			labs[i].Value,
			labs[i].Unit,
			labs[i].ObservedAt,
		)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"user_id":   userID,
				"test_name": labs[i].TestName,
				"error":     err,
			}).Error("Failed to save lab observation")
			return fmt.Errorf("saving lab observation: %w", err)
		}
	}

	return nil
}

// ListLabObservations returns all lab observations for a user, newest first.
func (r *AssessmentRepository) ListLabObservations(ctx context.Context, userID string) ([]domain.LabObservation, error) {
	query := `
		SELECT id, test_name, value, unit, observed_at
		FROM lab_observations
		WHERE user_id = $1
		ORDER BY observed_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing lab observations: %w", err)
	}
	defer rows.Close()

	var labs []domain.LabObservation
	for rows.Next() {
		var lab domain.LabObservation
		if err := rows.Scan(&lab.ID, &lab.TestName, &lab.Value, &lab.Unit, &lab.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning lab observation: %w", err)
		}
		labs = append(labs, lab)
	}

	return labs, rows.Err()
}

// SaveAssessment appends all prediction rows of an assessment along with
// the vitality score and the heuristics version that produced them.
func (r *AssessmentRepository) SaveAssessment(ctx context.Context, a *domain.Assessment) error {
	query := `
		INSERT INTO risk_predictions (
			id, user_id, disease, score, category, confidence, algorithm,
			key_factors, advice, used_labs, vitality_score, heuristics_version, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var vitality *int
	if a.Vitality != nil {
		vitality = &a.Vitality.Score
	}

	for _, p := range a.Predictions {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := r.db.Exec(ctx, query,
			p.ID,
			a.UserID,
			p.Disease,
			p.Score,
			string(p.Category),
			p.Confidence,
			p.Algorithm,
			p.KeyFactors,
			p.Advice,
			p.UsedLabs,
			vitality,
			a.HeuristicsVersion,
			p.GeneratedAt,
		)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"user_id": a.UserID,
				"disease": p.Disease,
				"error":   err,
			}).Error("Failed to save risk prediction")
			return fmt.Errorf("saving risk prediction: %w", err)
		}
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": a.ID,
		"user_id":       a.UserID,
		"predictions":   len(a.Predictions),
	}).Info("Assessment saved")

	return nil
}

// predictionRow is one stored prediction with its session context.
type predictionRow struct {
	prediction  domain.RiskPrediction
	vitality    *int
	generatedAt time.Time
}

// LoadSessions reads all stored predictions for a user and returns them
// as single-prediction sessions. Grouping rows that share an hour bucket
// is the reconciler's job, not the store's.
func (r *AssessmentRepository) LoadSessions(ctx context.Context, userID string) ([]*domain.AssessmentSession, error) {
	query := `
		SELECT disease, score, category, confidence, algorithm,
			   key_factors, advice, used_labs, vitality_score, generated_at
		FROM risk_predictions
		WHERE user_id = $1
		ORDER BY generated_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.AssessmentSession
	for rows.Next() {
		var row predictionRow
		var category string
		if err := rows.Scan(
			&row.prediction.Disease,
			&row.prediction.Score,
			&category,
			&row.prediction.Confidence,
			&row.prediction.Algorithm,
			&row.prediction.KeyFactors,
			&row.prediction.Advice,
			&row.prediction.UsedLabs,
			&row.vitality,
			&row.generatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		row.prediction.Category = domain.RiskCategory(category)
		row.prediction.GeneratedAt = row.generatedAt

		session := &domain.AssessmentSession{
			UserID:    userID,
			Timestamp: row.generatedAt,
			Source:    domain.SourceRemote,
			Predictions: map[string]*domain.RiskPrediction{
				row.prediction.DiseaseKey(): &row.prediction,
			},
		}
		if row.vitality != nil {
			session.Vitality = &domain.VitalityIndex{
				Score:       *row.vitality,
				Category:    domain.VitalityCategory(*row.vitality),
				GeneratedAt: row.generatedAt,
			}
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// LatestPrediction returns the newest stored prediction for one disease.
func (r *AssessmentRepository) LatestPrediction(ctx context.Context, userID, disease string) (*domain.RiskPrediction, error) {
	query := `
		SELECT id, disease, score, category, confidence, algorithm,
			   key_factors, advice, used_labs, generated_at
		FROM risk_predictions
		WHERE user_id = $1 AND disease = $2
		ORDER BY generated_at DESC
		LIMIT 1`

	var p domain.RiskPrediction
	var category string
	err := r.db.QueryRow(ctx, query, userID, disease).Scan(
		&p.ID, &p.Disease, &p.Score, &category, &p.Confidence,
		&p.Algorithm, &p.KeyFactors, &p.Advice, &p.UsedLabs, &p.GeneratedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("prediction not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"disease": disease,
			"error":   err,
		}).Error("Failed to get latest prediction")
		return nil, fmt.Errorf("getting latest prediction: %w", err)
	}
	p.Category = domain.RiskCategory(category)

	return &p, nil
}

func nullableFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// reportedEnum returns NULL for fields the user never reported, so an
// imputed scoring default is distinguishable from a reported value.
func reportedEnum(p *domain.HealthProfile, field, value string) *string {
	if p.WasDefaulted(field) {
		return nil
	}
	return &value
}
