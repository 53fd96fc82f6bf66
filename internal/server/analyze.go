package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/veridoc-ai/veridoc/internal/activation"
	"github.com/veridoc-ai/veridoc/internal/forensics"
	"github.com/veridoc-ai/veridoc/internal/imaging"
	"github.com/veridoc-ai/veridoc/internal/redact"
	"github.com/veridoc-ai/veridoc/internal/verify"
)

// Overall verdict labels combining forensics and verification.
const (
	VerdictFlagged    = "FLAGGED (High Risk)"
	VerdictVerified   = "VERIFIED"
	VerdictUnverified = "UNVERIFIED"
)

// analyzeResponse is the serialized FinalVerdict. The llm_* fields are
// pointers so an absent secondary opinion omits them entirely instead of
// serializing nulls.
type analyzeResponse struct {
	AnalysisID        string             `json:"analysis_id"`
	Filename          string             `json:"filename"`
	ManipulationScore float64            `json:"manipulation_score"`
	IsHighRisk        bool               `json:"is_high_risk"`
	Status            string             `json:"status"`
	Details           []forensics.Metric `json:"details"`
	LLMAnalysis       *string            `json:"llm_analysis,omitempty"`
	LLMRiskScore      *float64           `json:"llm_risk_score,omitempty"`
	LLMConfidence     *float64           `json:"llm_confidence,omitempty"`
	LLMReasoning      *string            `json:"llm_reasoning,omitempty"`
	Verification      *verify.Result     `json:"verification,omitempty"`
	FinalVerdict      string             `json:"final_verdict"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	start := time.Now()
	ctx, root := s.startSpan(r.Context(), "veridoc.analyze", trace.SpanKindServer, map[string]any{
		"http.method": r.Method,
		"http.route":  "/v1/analyze",
	})
	defer root.End()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "invalid_request_error")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body", "invalid_request_error")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part", "invalid_request_error")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload", "invalid_request_error")
		return
	}

	img, _, err := imaging.Decode(raw)
	if err != nil {
		// The only user-visible failure: no metrics can be computed at all.
		writeError(w, http.StatusBadRequest, "file must be a decodable JPEG or PNG image", "invalid_image_error")
		return
	}

	analysisID := uuid.NewString()
	setSpanAttrs(root, map[string]any{"veridoc.analysis_id": analysisID})

	// Forensic pipeline: extract, aggregate, opine, blend.
	_, fspan := s.startSpan(ctx, "veridoc.forensics", trace.SpanKindInternal, nil)
	metrics := s.extractor.Extract(img, raw)
	assessment := s.aggregator.Aggregate(metrics)
	setSpanAttrs(fspan, map[string]any{
		"veridoc.score":             assessment.Score,
		"veridoc.status":            assessment.Status,
		"veridoc.defaulted_metrics": countDefaulted(metrics),
	})
	fspan.End()

	var op *forensics.Opinion
	if s.deps.Provider != nil {
		opCtx, opSpan := s.startSpan(ctx, "veridoc.opinion", trace.SpanKindClient, map[string]any{
			"veridoc.opinion.model": s.cfg.Opinion.Model,
		})
		opStart := time.Now()
		op, err = s.deps.Provider.Evaluate(opCtx, assessment)
		s.deps.Telemetry.RecordOpinion(float64(time.Since(opStart).Milliseconds()), err != nil)
		setSpanAttrs(opSpan, map[string]any{"veridoc.opinion.obtained": err == nil})
		opSpan.End()
		if err != nil {
			redact.Logf("opinion unavailable for analysis %s: %v; proceeding with traditional score", analysisID, err)
			op = nil
		}
	}

	verdict := s.aggregator.Blend(assessment, op)

	// Optional trusted-source verification from caller-supplied fields.
	var vres *verify.Result
	candidateName := r.FormValue("candidate_name")
	if s.deps.Verifier != nil {
		vreq := verify.Request{
			CandidateName: candidateName,
			CertificateID: r.FormValue("certificate_id"),
			IssuerOrg:     r.FormValue("issuer_org"),
			IssuerURL:     r.FormValue("issuer_url"),
		}
		if !vreq.Empty() {
			vCtx, vSpan := s.startSpan(ctx, "veridoc.verify", trace.SpanKindClient, nil)
			vStart := time.Now()
			res := s.deps.Verifier.Verify(vCtx, vreq)
			s.deps.Telemetry.RecordVerification(float64(time.Since(vStart).Milliseconds()))
			setSpanAttrs(vSpan, map[string]any{
				"veridoc.verify.verified":       res.Verified,
				"veridoc.verify.trusted_domain": res.TrustedDomain,
			})
			vSpan.End()
			vres = &res
		}
	}

	resp := buildAnalyzeResponse(analysisID, header.Filename, verdict, vres)
	setSpanAttrs(root, map[string]any{
		"veridoc.score":     verdict.Score,
		"veridoc.high_risk": verdict.HighRisk,
		"veridoc.verdict":   resp.FinalVerdict,
	})

	durMs := float64(time.Since(start).Milliseconds())
	s.deps.Telemetry.RecordAnalysis(verdict.Status, verdict.HighRisk, verdict.Opinion != nil, durMs, countDefaulted(metrics))
	s.emitActivation(ctx, resp, verdict, vres, candidateName, durMs)

	writeJSON(w, http.StatusOK, resp)
}

func buildAnalyzeResponse(analysisID, filename string, v *forensics.Verdict, vres *verify.Result) *analyzeResponse {
	resp := &analyzeResponse{
		AnalysisID:        analysisID,
		Filename:          filename,
		ManipulationScore: v.Score,
		IsHighRisk:        v.HighRisk,
		Status:            v.Status,
		Details:           v.Metrics,
		Verification:      vres,
		FinalVerdict:      finalVerdict(v, vres),
	}
	if v.Opinion != nil {
		resp.LLMAnalysis = &v.Opinion.Analysis
		resp.LLMRiskScore = &v.Opinion.RiskScore
		resp.LLMConfidence = &v.Opinion.Confidence
		resp.LLMReasoning = &v.Opinion.Reasoning
	}
	return resp
}

// finalVerdict combines the forensic risk flag with the verification
// outcome: forgery evidence always wins, verification can only upgrade an
// otherwise clean document.
func finalVerdict(v *forensics.Verdict, vres *verify.Result) string {
	switch {
	case v.HighRisk:
		return VerdictFlagged
	case vres != nil && vres.Verified:
		return VerdictVerified
	default:
		return VerdictUnverified
	}
}

func countDefaulted(metrics []forensics.Metric) int {
	n := 0
	for _, m := range metrics {
		if m.Defaulted {
			n++
		}
	}
	return n
}

func (s *Server) emitActivation(ctx context.Context, resp *analyzeResponse, v *forensics.Verdict, vres *verify.Result, candidateName string, durMs float64) {
	if s.deps.Activation == nil {
		return
	}

	ev := &activation.Event{
		Timestamp:    time.Now().UTC(),
		AnalysisID:   resp.AnalysisID,
		Filename:     resp.Filename,
		Score:        v.Score,
		HighRisk:     v.HighRisk,
		Status:       v.Status,
		FinalVerdict: resp.FinalVerdict,
		MetricScores: make(map[string]float64, len(v.Metrics)),
		OpinionUsed:  v.Opinion != nil,
		OpinionModel: s.cfg.Opinion.Model,
		DurationMs:   durMs,
	}
	for _, m := range v.Metrics {
		ev.MetricScores[string(m.Name)] = m.Score
		if m.Defaulted {
			ev.DefaultedMetrics = append(ev.DefaultedMetrics, string(m.Name))
		}
	}
	if vres != nil {
		ev.Verification = &activation.VerificationOutcome{
			Verified:      vres.Verified,
			TrustedDomain: vres.TrustedDomain,
			Candidate:     redact.PersonalName(candidateName),
			Message:       redact.String(vres.Message),
		}
	}

	s.deps.Activation.Emit(ctx, ev)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		redact.Logf("failed to write response: %v", err)
	}
}
