package forensics

// Kind identifies one of the independent forensic signals.
type Kind string

const (
	MetricELA                Kind = "ELA"
	MetricNoiseVariance      Kind = "NOISE_VARIANCE"
	MetricCompressionQuality Kind = "COMPRESSION_QUALITY"
)

// Metric is a single forensic signal. Immutable once computed.
type Metric struct {
	Name     Kind    `json:"name"`
	RawValue float64 `json:"raw_value"`
	// Score is the normalized value in [0,1]; higher means more evidence
	// of manipulation.
	Score float64 `json:"normalized_score"`
	// Defaulted marks a metric whose computation failed and was replaced
	// by a neutral zero. The aggregator gives it zero weight.
	Defaulted bool `json:"defaulted,omitempty"`
}

// Assessment is the traditional (deterministic) verdict over one image.
type Assessment struct {
	Score    float64
	HighRisk bool
	Status   string
	Metrics  []Metric
	// Degraded is set when every sub-metric failed and the score is a
	// neutral zero rather than a measurement.
	Degraded bool
}

// Opinion is a model-based second reading of the extracted signals.
// Absence (a nil pointer) is an expected state, not an error.
type Opinion struct {
	RiskScore  float64
	Confidence float64
	Reasoning  string
	Analysis   string
}

// Verdict is the terminal artifact returned to the caller.
type Verdict struct {
	Score    float64
	HighRisk bool
	Status   string
	Metrics  []Metric
	// Opinion is nil when no secondary opinion was obtained.
	Opinion *Opinion
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
