package scoring

import (
	"fmt"

	"igaudit/pkg/config"
	"igaudit/pkg/models"
)

// Thresholds splits [0,100] into three bands. A probability equal to a
// threshold belongs to the upper band.
type Thresholds struct {
	Suspicious float64
	Fake       float64
}

// DefaultThresholds returns the standard 30/60 split
func DefaultThresholds() Thresholds {
	return Thresholds{Suspicious: 30, Fake: 60}
}

// ThresholdsFromConfig reads the thresholds from the scoring section
func ThresholdsFromConfig(cfg config.ScoringConfig) Thresholds {
	return Thresholds{Suspicious: cfg.SuspiciousThreshold, Fake: cfg.FakeThreshold}
}

// Validate requires 0 <= Suspicious <= Fake <= 100
func (t Thresholds) Validate() error {
	if t.Suspicious < 0 || t.Fake < t.Suspicious || t.Fake > 100 {
		return fmt.Errorf("invalid thresholds suspicious=%v fake=%v: need 0 <= suspicious <= fake <= 100", t.Suspicious, t.Fake)
	}
	return nil
}

// Classify maps a probability to its label
func (t Thresholds) Classify(p float64) models.Classification {
	switch {
	case p < t.Suspicious:
		return models.LikelyReal
	case p < t.Fake:
		return models.Suspicious
	default:
		return models.LikelyFake
	}
}
