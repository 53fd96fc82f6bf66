// Package activation records one audit event per analysis and delivers it
// to the configured sinks without blocking the request path.
package activation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// VerificationOutcome summarizes the optional trusted-source check.
// Candidate carries only masked initials, never the full name.
type VerificationOutcome struct {
	Verified      bool   `json:"is_verified"`
	TrustedDomain bool   `json:"trusted_domain"`
	Candidate     string `json:"candidate,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Event is the audit record for a single analysis. Free-text fields must be
// passed through redaction before the event is emitted.
type Event struct {
	Timestamp        time.Time            `json:"timestamp"`
	AnalysisID       string               `json:"analysis_id"`
	Filename         string               `json:"filename"`
	Score            float64              `json:"manipulation_score"`
	HighRisk         bool                 `json:"is_high_risk"`
	Status           string               `json:"status"`
	FinalVerdict     string               `json:"final_verdict"`
	MetricScores     map[string]float64   `json:"metric_scores"`
	DefaultedMetrics []string             `json:"defaulted_metrics,omitempty"`
	OpinionUsed      bool                 `json:"opinion_used"`
	OpinionModel     string               `json:"opinion_model,omitempty"`
	Verification     *VerificationOutcome `json:"verification,omitempty"`
	DurationMs       float64              `json:"duration_ms"`
}

// Sink consumes audit events (stdout, file, webhook).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// StdoutSink writes events as single-line JSON to stdout.
type StdoutSink struct {
	mu sync.Mutex
}

func NewStdout() *StdoutSink { return &StdoutSink{} }

func (s *StdoutSink) Name() string { return "stdout" }

func (s *StdoutSink) Deliver(_ context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func (s *StdoutSink) Close(context.Context) error { return nil }
