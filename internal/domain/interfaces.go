package domain

import (
	"context"
)

// ConfigManager provides access to application configuration
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
}

// RiskCalculator computes one disease risk from a normalized profile.
// Implementations are pure: same profile and labs, same prediction,
// regardless of what other calculators run or in which order.
type RiskCalculator interface {
	Disease() string
	Calculate(profile *HealthProfile, labs *LabValues) *RiskPrediction
}

// RecommendationGenerator produces free-text lifestyle recommendations
// for a profile. An error (including a timeout) never fails an
// assessment: callers substitute the static fallback text.
type RecommendationGenerator interface {
	Generate(ctx context.Context, profile *HealthProfile, predictions map[string]*RiskPrediction) ([]string, error)
}
