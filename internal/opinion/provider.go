// Package opinion obtains a model-based second reading of the forensic
// signals from an external reasoning service.
package opinion

import (
	"context"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

// Provider is the interface for all secondary-opinion backends. Evaluate
// reasons over the already-extracted signals, never over pixels. Any
// failure is non-fatal to the pipeline: the caller proceeds without an
// opinion.
type Provider interface {
	Evaluate(ctx context.Context, a *forensics.Assessment) (*forensics.Opinion, error)
}
