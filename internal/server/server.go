// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/veridoc-ai/veridoc/internal/activation"
	"github.com/veridoc-ai/veridoc/internal/config"
	"github.com/veridoc-ai/veridoc/internal/forensics"
	"github.com/veridoc-ai/veridoc/internal/opinion"
	"github.com/veridoc-ai/veridoc/internal/telemetry"
	"github.com/veridoc-ai/veridoc/internal/verify"
)

// shutdownGrace bounds graceful shutdown on context cancellation.
const shutdownGrace = 5 * time.Second

// Deps are the collaborators the server orchestrates. Provider and Verifier
// may be nil when the corresponding stage is disabled.
type Deps struct {
	Provider   opinion.Provider
	Verifier   *verify.Verifier
	Activation *activation.Emitter
	Telemetry  *telemetry.Provider
}

// Server wraps the HTTP components of Veridoc.
type Server struct {
	mux        *http.ServeMux
	cfg        *config.Config
	extractor  *forensics.Extractor
	aggregator *forensics.Aggregator
	tracer     trace.Tracer
	deps       Deps
}

// New creates a server with all routes registered.
func New(cfg *config.Config, deps Deps) *Server {
	policy := forensics.Policy{
		Weights: map[forensics.Kind]float64{
			forensics.MetricELA:                cfg.Forensics.ELAWeight,
			forensics.MetricNoiseVariance:      cfg.Forensics.NoiseWeight,
			forensics.MetricCompressionQuality: cfg.Forensics.CompressionWeight,
		},
		HighRiskThreshold: cfg.Forensics.HighRiskThreshold,
		WarnThreshold:     cfg.Forensics.WarnThreshold,
		FailThreshold:     cfg.Forensics.FailThreshold,
		TraditionalWeight: cfg.Forensics.TraditionalWeight,
		OpinionWeight:     cfg.Forensics.OpinionWeight,
	}

	s := &Server{
		mux:        http.NewServeMux(),
		cfg:        cfg,
		extractor:  forensics.NewExtractor(cfg.Forensics.ELAQuality, cfg.Forensics.MaxPixels),
		aggregator: forensics.NewAggregator(policy),
		tracer:     deps.Telemetry.Tracer(),
		deps:       deps,
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	return s
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "ok")
}

// --- error envelope ---

type apiError struct {
	Error apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(w http.ResponseWriter, status int, message, typ string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error: apiErrorDetail{Message: message, Type: typ},
	})
}
