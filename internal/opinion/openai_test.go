package opinion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

func testAssessment() *forensics.Assessment {
	return &forensics.Assessment{
		Score:  0.52,
		Status: forensics.StatusWarn,
		Metrics: []forensics.Metric{
			{Name: forensics.MetricELA, RawValue: 7.1, Score: 0.44},
			{Name: forensics.MetricNoiseVariance, RawValue: 1.3, Score: 0.65},
			{Name: forensics.MetricCompressionQuality, Defaulted: true},
		},
	}
}

func chatReply(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestEvaluateSuccess(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 2 {
			gotBody = req.Messages[1].Content
		}
		w.Write([]byte(chatReply(`{"risk_score": 0.66, "confidence": 0.85, "reasoning": "noise mismatch"}`)))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	op, err := p.Evaluate(context.Background(), testAssessment())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if op.RiskScore != 0.66 || op.Confidence != 0.85 {
		t.Fatalf("opinion = %+v", op)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if !strings.Contains(gotBody, "NOISE_VARIANCE") {
		t.Fatalf("prompt missing metric name: %q", gotBody)
	}
	if !strings.Contains(gotBody, "unavailable") {
		t.Fatalf("prompt does not mention the failed metric: %q", gotBody)
	}
}

func TestEvaluateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	_, err := p.Evaluate(context.Background(), testAssessment())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error does not carry upstream message: %v", err)
	}
}

func TestEvaluateMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("I'd rather not answer in JSON.")))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if _, err := p.Evaluate(context.Background(), testAssessment()); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestEvaluateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if _, err := p.Evaluate(context.Background(), testAssessment()); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestEvaluateResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(strings.Repeat("x", 4096))))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o-mini", MaxResponseBytes: 1024})
	_, err := p.Evaluate(context.Background(), testAssessment())
	if err == nil || !strings.Contains(err.Error(), "exceeded limit") {
		t.Fatalf("err = %v, want size-limit error", err)
	}
}

func TestEvaluateContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if _, err := p.Evaluate(ctx, testAssessment()); err == nil {
		t.Fatal("expected error on context timeout")
	}
}

func TestFakeProviderCancellation(t *testing.T) {
	f := &FakeProvider{Opinion: &forensics.Opinion{RiskScore: 0.5}, Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Evaluate(ctx, testAssessment()); err == nil {
		t.Fatal("expected context error")
	}
}
