// Package engagement estimates a team engagement percentage from aggregated
// well-being metrics and turns it into a label and a list of recommendations.
//
// The estimator is a linear regression over standardized features, fitted
// offline and shipped as a JSON artifact (model.json, embedded). A different
// artifact can be loaded from disk with LoadFile. A loaded Model is
// read-only and safe for concurrent use.
package engagement

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Features is the model input.
type Features struct {
	TeamSize         float64 `json:"team_size"`
	Recognitions     float64 `json:"recognitions_per_month"`
	AvgSentiment     float64 `json:"avg_sentiment"`
	ParticipationPct float64 `json:"participation_pct"`
	ActiveDays       float64 `json:"active_days"`
}

func (f Features) vector() [numFeatures]float64 {
	return [numFeatures]float64{f.TeamSize, f.Recognitions, f.AvgSentiment, f.ParticipationPct, f.ActiveDays}
}

// Scorer is the pluggable engagement collaborator used by reports.
type Scorer interface {
	Predict(f Features) float64
	Classify(pct float64) string
	Recommend(pct, avgSentiment float64, recognitions int) []string
}

const numFeatures = 5

var featureOrder = [numFeatures]string{"team_size", "recognitions_per_month", "avg_sentiment", "participation_pct", "active_days"}

//go:embed model.json
var embeddedModel []byte

// Model is a standardized linear regression:
//
//	pct = intercept + Σ w_i * (x_i - mean_i) / scale_i
//
// clamped to [0, 100].
type Model struct {
	Version   string    `json:"version"`
	Features  []string  `json:"features"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

var _ Scorer = (*Model)(nil)

// Default returns the embedded model.
func Default() (*Model, error) {
	return Parse(embeddedModel)
}

// Load returns the model at path, or the embedded one when path is empty.
func Load(path string) (*Model, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and validates a model artifact from disk.
func LoadFile(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a model artifact.
func Parse(b []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Features) != numFeatures || len(m.Means) != numFeatures ||
		len(m.Scales) != numFeatures || len(m.Weights) != numFeatures {
		return fmt.Errorf("model %q: expected %d features", m.Version, numFeatures)
	}
	for i, name := range featureOrder {
		if m.Features[i] != name {
			return fmt.Errorf("model %q: feature %d is %q, want %q", m.Version, i, m.Features[i], name)
		}
		if m.Scales[i] == 0 || math.IsNaN(m.Scales[i]) {
			return fmt.Errorf("model %q: zero scale for %s", m.Version, name)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return errors.New("model: invalid intercept")
	}
	return nil
}

// Predict returns the estimated engagement percentage in [0, 100].
func (m *Model) Predict(f Features) float64 {
	x := f.vector()
	y := m.Intercept
	for i := range x {
		y += m.Weights[i] * (x[i] - m.Means[i]) / m.Scales[i]
	}
	return clamp(y, 0, 100)
}

// Classify maps a percentage to its label.
func (m *Model) Classify(pct float64) string { return Classify(pct) }

// Recommend derives recommendations from the prediction and inputs.
func (m *Model) Recommend(pct, avgSentiment float64, recognitions int) []string {
	return Recommend(pct, avgSentiment, recognitions)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
