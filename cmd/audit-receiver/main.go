// audit-receiver is a local webhook endpoint for veridoc audit events. Point
// activation.webhook_url at it to watch analyses as they complete.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/veridoc-ai/veridoc/internal/activation"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address for audit receiver")
	verbose := flag.Bool("verbose", false, "dump full event JSON instead of a summary line")
	flag.Parse()

	h := &receiver{verbose: *verbose}
	mux := http.NewServeMux()
	mux.HandleFunc("/audit", h.handle)
	mux.HandleFunc("/", h.handle)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("audit receiver listening on %s (POST JSON to /audit)...", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("receiver error: %v", err)
	}
}

type receiver struct {
	verbose bool
}

func (h *receiver) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()

	var ev activation.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Printf("received non-event payload: len=%d err=%v", len(body), err)
	} else if h.verbose {
		log.Printf("received audit event:\n%s", string(body))
	} else {
		log.Printf("analysis %s: score=%.3f high_risk=%v verdict=%q opinion=%v duration=%.0fms",
			ev.AnalysisID, ev.Score, ev.HighRisk, ev.FinalVerdict, ev.OpinionUsed, ev.DurationMs)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}
