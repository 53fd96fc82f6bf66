package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridoc-ai/veridoc/internal/activation"
	"github.com/veridoc-ai/veridoc/internal/config"
	"github.com/veridoc-ai/veridoc/internal/opinion"
	"github.com/veridoc-ai/veridoc/internal/server"
	"github.com/veridoc-ai/veridoc/internal/telemetry"
	"github.com/veridoc-ai/veridoc/internal/verify"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "veridoc.yaml", "Path to Veridoc config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  cfg.Telemetry.Version,
	})
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}

	deps := server.Deps{
		Provider:  buildProvider(cfg),
		Verifier:  buildVerifier(cfg),
		Telemetry: tel,
	}

	sinks, err := buildSinks(cfg.Activation)
	if err != nil {
		log.Fatalf("failed to set up activation sinks: %v", err)
	}
	deps.Activation = activation.NewEmitter(activation.EmitterConfig{
		QueueSize: cfg.Activation.QueueSize,
		Workers:   cfg.Activation.Workers,
	}, sinks)

	srv := server.New(cfg, deps)

	log.Printf("Veridoc running on %s", addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx, addr)
	})
	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deps.Activation.Close(shutdownCtx)
	tel.Shutdown(shutdownCtx)

	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildProvider(cfg *config.Config) opinion.Provider {
	if !cfg.Opinion.Enabled {
		log.Printf("secondary opinion disabled via config; running traditional-only")
		return nil
	}

	apiKey := ""
	if cfg.Opinion.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.Opinion.APIKeyEnv)
	}
	if apiKey == "" {
		log.Printf("secondary opinion: environment variable %s is empty; running traditional-only", cfg.Opinion.APIKeyEnv)
		return nil
	}

	return opinion.NewOpenAI(opinion.Config{
		BaseURL:     cfg.Opinion.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.Opinion.Model,
		Timeout:     time.Duration(cfg.Opinion.TimeoutSeconds) * time.Second,
		Temperature: cfg.Opinion.Temperature,
		MaxTokens:   cfg.Opinion.MaxResponseTokens,
	})
}

func buildVerifier(cfg *config.Config) *verify.Verifier {
	if !cfg.Verification.Enabled {
		return nil
	}

	reg := verify.NewRegistry()
	if cfg.Verification.CSVPath != "" {
		loaded, err := verify.LoadRegistry(cfg.Verification.CSVPath)
		if err != nil {
			log.Printf("trusted sources unavailable (%v); falling back to built-in domains", err)
		} else {
			reg = loaded
			log.Printf("loaded %d trusted organizations", reg.Len())
		}
	}

	return verify.NewVerifier(
		reg,
		time.Duration(cfg.Verification.TimeoutSeconds)*time.Second,
		cfg.Verification.NameMatchThreshold,
	)
}

func buildSinks(cfg config.ActivationConfig) ([]activation.Sink, error) {
	var sinks []activation.Sink
	if cfg.Stdout {
		sinks = append(sinks, activation.NewStdout())
	}
	if cfg.FilePath != "" {
		fs, err := activation.NewFileSink(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.WebhookURL != "" {
		ws, err := activation.NewWebhookSink(cfg.WebhookURL, cfg.WebhookHeaders, 0)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ws)
	}
	return sinks, nil
}
