package opinion

import (
	"context"
	"time"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

// FakeProvider is a test double. It can return a fixed opinion, a fixed
// error, or stall until the context is cancelled.
type FakeProvider struct {
	Opinion *forensics.Opinion
	Error   error
	Delay   time.Duration
}

func (f *FakeProvider) Evaluate(ctx context.Context, _ *forensics.Assessment) (*forensics.Opinion, error) {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Error != nil {
		return nil, f.Error
	}
	op := *f.Opinion
	return &op, nil
}

// NewFake returns a provider that always succeeds with the given scores.
func NewFake(riskScore, confidence float64, reasoning string) *FakeProvider {
	return &FakeProvider{
		Opinion: &forensics.Opinion{
			RiskScore:  riskScore,
			Confidence: confidence,
			Reasoning:  reasoning,
			Analysis:   "fake analysis",
		},
	}
}
