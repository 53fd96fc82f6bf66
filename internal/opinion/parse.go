package opinion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type opinionWire struct {
	RiskScore  *float64 `json:"risk_score"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Analysis   string   `json:"analysis"`
}

// parseOpinion extracts the structured opinion from a model reply. Models
// sometimes wrap the JSON in markdown fences or surrounding prose, so after
// a direct parse it falls back to the fenced block and then to the first
// brace-delimited object. Replies missing risk_score or confidence are
// malformed: a malformed reply is a failure, never a zero score.
func parseOpinion(reply string) (*forensics.Opinion, error) {
	var wire opinionWire
	if err := json.Unmarshal([]byte(reply), &wire); err != nil {
		raw, ok := salvageJSON(reply)
		if !ok {
			return nil, fmt.Errorf("opinion reply is not JSON")
		}
		if err := json.Unmarshal([]byte(raw), &wire); err != nil {
			return nil, fmt.Errorf("decode opinion reply: %w", err)
		}
	}

	if wire.RiskScore == nil || wire.Confidence == nil {
		return nil, fmt.Errorf("opinion reply missing risk_score or confidence")
	}

	return &forensics.Opinion{
		RiskScore:  clamp01(*wire.RiskScore),
		Confidence: clamp01(*wire.Confidence),
		Reasoning:  strings.TrimSpace(wire.Reasoning),
		Analysis:   strings.TrimSpace(wire.Analysis),
	}, nil
}

func salvageJSON(reply string) (string, bool) {
	if m := fencedJSONRe.FindStringSubmatch(reply); m != nil {
		return m[1], true
	}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		return reply[start : end+1], true
	}
	return "", false
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
