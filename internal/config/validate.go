package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}

	if err := validateForensics(cfg.Forensics); err != nil {
		return err
	}
	if err := validateOpinion(cfg.Opinion); err != nil {
		return err
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return err
	}

	if cfg.Verification.Enabled && cfg.Verification.TimeoutSeconds <= 0 {
		return errors.New("verification.timeout_seconds must be positive")
	}

	return nil
}

func validateForensics(f ForensicsConfig) error {
	sum := f.ELAWeight + f.NoiseWeight + f.CompressionWeight
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("forensics: metric weights must sum to 1, got %v", sum)
	}
	if f.ELAWeight < 0 || f.NoiseWeight < 0 || f.CompressionWeight < 0 {
		return errors.New("forensics: metric weights must be non-negative")
	}

	for name, v := range map[string]float64{
		"high_risk_threshold": f.HighRiskThreshold,
		"warn_threshold":      f.WarnThreshold,
		"fail_threshold":      f.FailThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("forensics: %s must be in [0,1], got %v", name, v)
		}
	}
	if f.WarnThreshold > f.FailThreshold {
		return errors.New("forensics: warn_threshold must not exceed fail_threshold")
	}

	if math.Abs(f.TraditionalWeight+f.OpinionWeight-1) > 1e-9 {
		return fmt.Errorf("forensics: blend weights must sum to 1, got %v", f.TraditionalWeight+f.OpinionWeight)
	}
	if f.TraditionalWeight < 0 || f.OpinionWeight < 0 {
		return errors.New("forensics: blend weights must be non-negative")
	}

	if f.ELAQuality < 1 || f.ELAQuality > 100 {
		return fmt.Errorf("forensics: ela_quality must be in [1,100], got %d", f.ELAQuality)
	}
	return nil
}

func validateOpinion(o OpinionConfig) error {
	if !o.Enabled {
		return nil
	}
	if !strings.EqualFold(o.Type, "openai") {
		return fmt.Errorf("opinion: unsupported type %q", o.Type)
	}
	if strings.TrimSpace(o.Model) == "" {
		return errors.New("opinion: model must be set when enabled")
	}
	if o.TimeoutSeconds <= 0 {
		return errors.New("opinion: timeout_seconds must be positive")
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("opinion: temperature must be in [0,2], got %v", o.Temperature)
	}
	return nil
}

func validateTelemetry(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry: endpoint must be set when enabled")
	}
	switch strings.ToLower(t.Protocol) {
	case "grpc", "http":
		return nil
	default:
		return fmt.Errorf("telemetry: unsupported protocol %q", t.Protocol)
	}
}
