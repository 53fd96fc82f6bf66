package forensics

import (
	"math"
	"testing"
)

func metricSet(ela, noise, comp float64) []Metric {
	return []Metric{
		{Name: MetricELA, Score: ela},
		{Name: MetricNoiseVariance, Score: noise},
		{Name: MetricCompressionQuality, Score: comp},
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())

	out := agg.Aggregate(metricSet(0.5, 0.2, 0.1))
	want := 0.4*0.5 + 0.3*0.2 + 0.3*0.1
	if math.Abs(out.Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", out.Score, want)
	}
	if out.Degraded {
		t.Fatal("assessment marked degraded with all metrics valid")
	}
}

func TestAggregateRenormalizesOnFailure(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())

	metrics := metricSet(0.5, 0.2, 0.9)
	metrics[2].Defaulted = true
	metrics[2].Score = 0

	out := agg.Aggregate(metrics)
	// ELA and noise renormalized to 0.4/0.7 and 0.3/0.7.
	want := (0.4*0.5 + 0.3*0.2) / 0.7
	if math.Abs(out.Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", out.Score, want)
	}
}

func TestAggregateAllFailed(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())

	metrics := metricSet(0, 0, 0)
	for i := range metrics {
		metrics[i].Defaulted = true
	}

	out := agg.Aggregate(metrics)
	if out.Score != 0 {
		t.Fatalf("score = %v, want 0", out.Score)
	}
	if out.HighRisk {
		t.Fatal("degraded assessment flagged high risk")
	}
	if !out.Degraded {
		t.Fatal("assessment not marked degraded")
	}
	if out.Status != StatusPass {
		t.Fatalf("status = %q, want %q", out.Status, StatusPass)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())
	metrics := metricSet(0.71, 0.33, 0.58)

	first := agg.Aggregate(metrics)
	second := agg.Aggregate(metrics)
	if first.Score != second.Score || first.HighRisk != second.HighRisk || first.Status != second.Status {
		t.Fatalf("aggregation not deterministic: %+v vs %+v", first, second)
	}
}

func TestStatusBands(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, StatusPass},
		{0.39, StatusPass},
		{0.40, StatusWarn},
		{0.79, StatusWarn},
		{0.80, StatusFail},
		{1.0, StatusFail},
	}
	for _, tc := range tests {
		got := agg.status(tc.score)
		if got != tc.want {
			t.Errorf("status(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestHighRiskThresholdInclusive(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())

	if agg.highRisk(0.5999999) {
		t.Fatal("score below threshold flagged high risk")
	}
	if !agg.highRisk(0.60) {
		t.Fatal("score at threshold not flagged high risk")
	}
	if !agg.highRisk(0.95) {
		t.Fatal("score above threshold not flagged high risk")
	}
}

func TestAggregateCopiesMetrics(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())
	metrics := metricSet(0.1, 0.2, 0.3)

	out := agg.Aggregate(metrics)
	metrics[0].Score = 0.99
	if out.Metrics[0].Score == 0.99 {
		t.Fatal("assessment shares backing array with caller's slice")
	}
}
