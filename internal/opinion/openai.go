package opinion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

// Config holds the settings for an OpenAI-compatible reasoning service.
type Config struct {
	BaseURL          string
	APIKey           string
	Model            string
	Timeout          time.Duration
	Temperature      float64
	MaxTokens        int
	MaxResponseBytes int64
}

// openAIProvider implements Provider over the OpenAI Chat Completions API.
// One bounded call per request, no retries.
type openAIProvider struct {
	cfg    Config
	client *http.Client
}

// NewOpenAI creates a provider for an OpenAI-compatible endpoint.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = 1 << 20
	}
	return &openAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const systemPrompt = "You are a document-forensics analyst. You are given " +
	"numeric signals extracted from a scanned document image and must judge " +
	"the likelihood of digital manipulation. Reply with strict JSON only."

func buildPrompt(a *forensics.Assessment) string {
	var b strings.Builder
	b.WriteString("Forensic signals for a submitted document image:\n")
	for _, m := range a.Metrics {
		if m.Defaulted {
			fmt.Fprintf(&b, "- %s: unavailable (computation failed)\n", m.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s: normalized score %.3f (raw %.3f)\n", m.Name, m.Score, m.RawValue)
	}
	fmt.Fprintf(&b, "Aggregate manipulation score: %.3f (%s)\n\n", a.Score, a.Status)
	b.WriteString("Assess the manipulation risk. Respond with exactly this JSON shape, no markdown:\n")
	b.WriteString(`{"risk_score": <0..1>, "confidence": <0..1>, "reasoning": "<one short paragraph>", "analysis": "<per-signal notes>"}`)
	return b.String()
}

func (p *openAIProvider) Evaluate(ctx context.Context, a *forensics.Assessment) (*forensics.Opinion, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(a)},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal opinion request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.cfg.BaseURL, "/")),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create opinion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call opinion service: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, p.cfg.MaxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read opinion response: %w", err)
	}
	if int64(len(respBody)) > p.cfg.MaxResponseBytes {
		return nil, fmt.Errorf("opinion response exceeded limit (%d bytes)", p.cfg.MaxResponseBytes)
	}

	if resp.StatusCode >= 400 {
		var errBody chatErrorResponse
		if err := json.Unmarshal(respBody, &errBody); err != nil {
			return nil, fmt.Errorf("opinion service status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("opinion service error: %s (type=%s)", errBody.Error.Message, errBody.Error.Type)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("decode opinion response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("opinion response had no choices")
	}

	return parseOpinion(chat.Choices[0].Message.Content)
}
