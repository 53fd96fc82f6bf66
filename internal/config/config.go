// Package config loads the Veridoc configuration from a YAML file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds Veridoc configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Forensics    ForensicsConfig    `yaml:"forensics"`
	Opinion      OpinionConfig      `yaml:"opinion"`
	Verification VerificationConfig `yaml:"verification"`
	Activation   ActivationConfig   `yaml:"activation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`             // HTTP listen address, e.g. ":8080"
	MaxUploadBytes int64  `yaml:"max_upload_bytes"` // upload size cap
}

// ForensicsConfig holds the numeric knobs of the scoring engine.
type ForensicsConfig struct {
	ELAWeight         float64 `yaml:"ela_weight"`
	NoiseWeight       float64 `yaml:"noise_weight"`
	CompressionWeight float64 `yaml:"compression_weight"`
	HighRiskThreshold float64 `yaml:"high_risk_threshold"`
	WarnThreshold     float64 `yaml:"warn_threshold"`
	FailThreshold     float64 `yaml:"fail_threshold"`
	TraditionalWeight float64 `yaml:"traditional_weight"`
	OpinionWeight     float64 `yaml:"opinion_weight"`
	ELAQuality        int     `yaml:"ela_quality"`
	MaxPixels         int     `yaml:"max_pixels"`
}

// OpinionConfig selects and bounds the secondary-opinion service.
type OpinionConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Type              string  `yaml:"type"`        // e.g. "openai"
	BaseURL           string  `yaml:"base_url"`    // e.g. "https://api.openai.com/v1"
	APIKeyEnv         string  `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	Model             string  `yaml:"model"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	Temperature       float64 `yaml:"temperature"`
	MaxResponseTokens int     `yaml:"max_response_tokens"`
}

// VerificationConfig controls the optional trusted-source check.
type VerificationConfig struct {
	Enabled            bool    `yaml:"enabled"`
	CSVPath            string  `yaml:"csv_path"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	NameMatchThreshold float64 `yaml:"name_match_threshold"`
}

// ActivationConfig controls audit event delivery.
type ActivationConfig struct {
	Stdout         bool              `yaml:"stdout"`
	FilePath       string            `yaml:"file_path"`
	WebhookURL     string            `yaml:"webhook_url"`
	WebhookHeaders map[string]string `yaml:"webhook_headers"`
	QueueSize      int               `yaml:"queue_size"`
	Workers        int               `yaml:"workers"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}

	f := &cfg.Forensics
	if f.ELAWeight == 0 && f.NoiseWeight == 0 && f.CompressionWeight == 0 {
		f.ELAWeight = 0.4
		f.NoiseWeight = 0.3
		f.CompressionWeight = 0.3
	}
	if f.HighRiskThreshold == 0 {
		f.HighRiskThreshold = 0.60
	}
	if f.WarnThreshold == 0 {
		f.WarnThreshold = 0.40
	}
	if f.FailThreshold == 0 {
		f.FailThreshold = 0.80
	}
	if f.TraditionalWeight == 0 && f.OpinionWeight == 0 {
		f.TraditionalWeight = 0.6
		f.OpinionWeight = 0.4
	}
	if f.ELAQuality == 0 {
		f.ELAQuality = 90
	}
	if f.MaxPixels == 0 {
		f.MaxPixels = 4 << 20
	}

	o := &cfg.Opinion
	if o.Type == "" {
		o.Type = "openai"
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = 30
	}
	if o.MaxResponseTokens == 0 {
		o.MaxResponseTokens = 512
	}

	v := &cfg.Verification
	if v.TimeoutSeconds == 0 {
		v.TimeoutSeconds = 15
	}
	if v.NameMatchThreshold == 0 {
		v.NameMatchThreshold = 0.70
	}

	a := &cfg.Activation
	if a.QueueSize == 0 {
		a.QueueSize = 256
	}
	if a.Workers == 0 {
		a.Workers = 1
	}
	if !a.Stdout && a.FilePath == "" && a.WebhookURL == "" {
		a.Stdout = true
	}

	t := &cfg.Telemetry
	if t.Service == "" {
		t.Service = "veridoc"
	}
	if t.Protocol == "" {
		t.Protocol = "grpc"
	}
}
