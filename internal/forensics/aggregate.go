package forensics

import "log"

// Status labels, selected by two threshold bands over the score.
const (
	StatusPass = "Pass - Integrity Intact"
	StatusWarn = "Warning - Possible Manipulation"
	StatusFail = "Fail - Manipulation Detected"
)

// Policy holds the fixed numeric knobs of the scoring engine. It is passed
// in at construction time so tests can inject arbitrary values.
type Policy struct {
	// Weights per metric; must sum to 1 over the three known kinds.
	Weights map[Kind]float64
	// HighRiskThreshold is the single cutoff for the high-risk flag, used
	// for both the traditional and the blended score.
	HighRiskThreshold float64
	// WarnThreshold and FailThreshold bound the status bands:
	// [0,warn) Pass, [warn,fail) Warning, [fail,1] Fail.
	WarnThreshold float64
	FailThreshold float64
	// TraditionalWeight and OpinionWeight blend the two scores; they must
	// sum to 1.
	TraditionalWeight float64
	OpinionWeight     float64
}

// DefaultPolicy returns the documented default weighting.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[Kind]float64{
			MetricELA:                0.4,
			MetricNoiseVariance:      0.3,
			MetricCompressionQuality: 0.3,
		},
		HighRiskThreshold: 0.60,
		WarnThreshold:     0.40,
		FailThreshold:     0.80,
		TraditionalWeight: 0.6,
		OpinionWeight:     0.4,
	}
}

// Aggregator folds independent metrics into a single assessment.
type Aggregator struct {
	policy Policy
}

func NewAggregator(p Policy) *Aggregator {
	return &Aggregator{policy: p}
}

// Aggregate computes the weighted mean of the valid metrics. Defaulted
// metrics contribute zero weight; the remaining weights are renormalized so
// they still sum to 1. When every metric is defaulted the score is a
// neutral zero and the assessment is marked degraded.
func (a *Aggregator) Aggregate(metrics []Metric) *Assessment {
	var validWeight, weightedSum float64
	for _, m := range metrics {
		if m.Defaulted {
			continue
		}
		w := a.policy.Weights[m.Name]
		validWeight += w
		weightedSum += w * m.Score
	}

	out := &Assessment{
		Metrics: append([]Metric(nil), metrics...),
	}

	if validWeight <= 0 {
		log.Printf("forensics: all sub-metrics failed; returning neutral zero score")
		out.Degraded = true
	} else {
		out.Score = clamp01(weightedSum / validWeight)
	}

	out.HighRisk = a.highRisk(out.Score)
	out.Status = a.status(out.Score)
	return out
}

func (a *Aggregator) highRisk(score float64) bool {
	return score >= a.policy.HighRiskThreshold
}

func (a *Aggregator) status(score float64) string {
	switch {
	case score >= a.policy.FailThreshold:
		return StatusFail
	case score >= a.policy.WarnThreshold:
		return StatusWarn
	default:
		return StatusPass
	}
}

// Blend folds an optional secondary opinion into the assessment. Without an
// opinion the verdict mirrors the assessment. With one, the scores are
// combined at the fixed policy weights and the risk flag and status are
// recomputed from the blended score, never inherited. The opinion's
// confidence is carried through untouched and does not alter the weighting.
func (a *Aggregator) Blend(assessment *Assessment, op *Opinion) *Verdict {
	v := &Verdict{
		Score:    assessment.Score,
		HighRisk: assessment.HighRisk,
		Status:   assessment.Status,
		Metrics:  append([]Metric(nil), assessment.Metrics...),
	}
	if op == nil {
		return v
	}

	blended := clamp01(assessment.Score*a.policy.TraditionalWeight + op.RiskScore*a.policy.OpinionWeight)
	v.Score = blended
	v.HighRisk = a.highRisk(blended)
	v.Status = a.status(blended)
	v.Opinion = &Opinion{
		RiskScore:  clamp01(op.RiskScore),
		Confidence: clamp01(op.Confidence),
		Reasoning:  op.Reasoning,
		Analysis:   op.Analysis,
	}
	return v
}
