package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
)

// Weights defines the per-factor weights for the standard scoring formula.
// The weights are recommended to sum to 1.0 so finalScore saturates at 1.0,
// but the scorer does not enforce this; a mis-summing configuration is
// surfaced as a load-time warning, not an error.
type Weights struct {
	Geo         float64 `json:"geo"`         // Weight for geographic proximity (default: 0.30)
	Interest    float64 `json:"interest"`    // Weight for declared interest match (default: 0.25)
	Interaction float64 `json:"interaction"` // Weight for category affinity from history (default: 0.20)
	Popularity  float64 `json:"popularity"`  // Weight for aggregate popularity (default: 0.15)
	Recency     float64 `json:"recency"`     // Weight for time-until-start recency (default: 0.10)
}

// Fixed cold-start weights. Users with no interaction history are scored with
// one of these two sets depending on whether they declared interests; each
// set sums to 1.0.
const (
	ColdStartGeoWeight        = 0.60
	ColdStartPopularityWeight = 0.30
	ColdStartRecencyWeight    = 0.10

	ColdStartInterestGeoWeight        = 0.50
	ColdStartInterestWeight           = 0.20
	ColdStartInterestPopularityWeight = 0.20
	ColdStartInterestRecencyWeight    = 0.10
)

// Reduced-formula weights for the derivative views.
const (
	TrendingPopularityWeight = 0.7
	TrendingRecencyWeight    = 0.3

	SimilarGeoWeight        = 0.6
	SimilarPopularityWeight = 0.4
)

// weightSumTolerance is the allowed deviation from 1.0 before a warning.
const weightSumTolerance = 0.001

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// DefaultWeights returns the default standard-formula weights.
//
// Formula: final = (geo * 0.30) + (interest * 0.25) + (interaction * 0.20) +
// (popularity * 0.15) + (recency * 0.10), clamped to [0, 1].
func DefaultWeights() *Weights {
	return &Weights{
		Geo:         0.30,
		Interest:    0.25,
		Interaction: 0.20,
		Popularity:  0.15,
		Recency:     0.10,
	}
}

// Sum returns the total of all factor weights.
func (w *Weights) Sum() float64 {
	return w.Geo + w.Interest + w.Interaction + w.Popularity + w.Recency
}

// Validate warns when the weights do not sum to 1.0. A non-unit sum is not an
// error: it changes where finalScore saturates, which some deployments use
// deliberately. Returns true when the sum is within tolerance.
func (w *Weights) Validate(logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	sum := w.Sum()
	if math.Abs(sum-1.0) > weightSumTolerance {
		logger.Warn("scoring weights do not sum to 1.0",
			"sum", sum,
			"geo", w.Geo,
			"interest", w.Interest,
			"interaction", w.Interaction,
			"popularity", w.Popularity,
			"recency", w.Recency)
		return false
	}
	return true
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights with
// an error so the caller degrades gracefully. Partial configurations are
// merged with defaults: only non-zero overrides are applied.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)
	merged.Validate(nil)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// values from the override are applied, allowing partial calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Geo != 0 {
		result.Geo = override.Geo
	}
	if override.Interest != 0 {
		result.Interest = override.Interest
	}
	if override.Interaction != 0 {
		result.Interaction = override.Interaction
	}
	if override.Popularity != 0 {
		result.Popularity = override.Popularity
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Geo != defaults.Geo {
		overrides = append(overrides, fmt.Sprintf("geo: %.2f -> %.2f", defaults.Geo, loaded.Geo))
	}
	if loaded.Interest != defaults.Interest {
		overrides = append(overrides, fmt.Sprintf("interest: %.2f -> %.2f", defaults.Interest, loaded.Interest))
	}
	if loaded.Interaction != defaults.Interaction {
		overrides = append(overrides, fmt.Sprintf("interaction: %.2f -> %.2f", defaults.Interaction, loaded.Interaction))
	}
	if loaded.Popularity != defaults.Popularity {
		overrides = append(overrides, fmt.Sprintf("popularity: %.2f -> %.2f", defaults.Popularity, loaded.Popularity))
	}
	if loaded.Recency != defaults.Recency {
		overrides = append(overrides, fmt.Sprintf("recency: %.2f -> %.2f", defaults.Recency, loaded.Recency))
	}

	if len(overrides) > 0 {
		slog.Info("loaded scoring calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded scoring calibration (using all defaults)")
	}
}
