package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	if math.Abs(w.Sum()-1.0) > 0.0001 {
		t.Errorf("default weights sum to %f, expected 1.0", w.Sum())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		weights  Weights
		expected bool
	}{
		{
			name:     "defaults are valid",
			weights:  *DefaultWeights(),
			expected: true,
		},
		{
			name:     "saturating weights warn",
			weights:  Weights{Geo: 1, Interest: 1, Interaction: 1, Popularity: 1, Recency: 1},
			expected: false,
		},
		{
			name:     "within tolerance",
			weights:  Weights{Geo: 0.3, Interest: 0.25, Interaction: 0.2, Popularity: 0.15, Recency: 0.1005},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.weights.Validate(nil); got != tt.expected {
				t.Errorf("Validate() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMergeCalibration(t *testing.T) {
	defaults := DefaultWeights()

	t.Run("nil override returns copy of base", func(t *testing.T) {
		merged := MergeCalibration(defaults, nil)
		if *merged != *defaults {
			t.Errorf("merged = %+v, expected %+v", merged, defaults)
		}
		if merged == defaults {
			t.Error("merged should be a copy, not the same pointer")
		}
	})

	t.Run("nil base falls back to defaults", func(t *testing.T) {
		merged := MergeCalibration(nil, &Weights{Geo: 0.9})
		if *merged != *DefaultWeights() {
			t.Errorf("merged = %+v, expected defaults", merged)
		}
	})

	t.Run("partial override applied", func(t *testing.T) {
		merged := MergeCalibration(defaults, &Weights{Geo: 0.5, Recency: 0.05})
		if merged.Geo != 0.5 {
			t.Errorf("geo = %f, expected 0.5", merged.Geo)
		}
		if merged.Recency != 0.05 {
			t.Errorf("recency = %f, expected 0.05", merged.Recency)
		}
		if merged.Interest != defaults.Interest {
			t.Errorf("interest = %f, expected untouched default %f", merged.Interest, defaults.Interest)
		}
	})

	t.Run("zero values do not override", func(t *testing.T) {
		merged := MergeCalibration(defaults, &Weights{})
		if *merged != *defaults {
			t.Errorf("merged = %+v, expected defaults unchanged", merged)
		}
	})
}

func TestLoadCalibration(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		w, err := LoadCalibration("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *w != *DefaultWeights() {
			t.Errorf("weights = %+v, expected defaults", w)
		}
	})

	t.Run("missing file degrades to defaults with error", func(t *testing.T) {
		w, err := LoadCalibration("/nonexistent/calibration.json")
		if err == nil {
			t.Error("expected error for missing file")
		}
		if *w != *DefaultWeights() {
			t.Errorf("weights = %+v, expected defaults", w)
		}
	})

	t.Run("malformed file degrades to defaults with error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		w, err := LoadCalibration(path)
		if err == nil {
			t.Error("expected error for malformed file")
		}
		if *w != *DefaultWeights() {
			t.Errorf("weights = %+v, expected defaults", w)
		}
	})

	t.Run("valid partial file merges with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		content := `{"version":"1","weights":{"geo":0.4,"interest":0.2}}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		w, err := LoadCalibration(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.Geo != 0.4 {
			t.Errorf("geo = %f, expected 0.4", w.Geo)
		}
		if w.Interest != 0.2 {
			t.Errorf("interest = %f, expected 0.2", w.Interest)
		}
		if w.Interaction != DefaultWeights().Interaction {
			t.Errorf("interaction = %f, expected default", w.Interaction)
		}
	})
}
