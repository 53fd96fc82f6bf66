package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/veridoc-ai/veridoc/internal/forensics"
)

func main() {
	n := flag.Int("n", 200, "number of iterations")
	width := flag.Int("width", 1024, "benchmark image width")
	height := flag.Int("height", 768, "benchmark image height")
	seed := flag.Int64("seed", 1, "noise seed for the benchmark image")
	flag.Parse()

	img, raw, err := benchImage(*width, *height, *seed)
	if err != nil {
		log.Fatalf("build benchmark image: %v", err)
	}

	extractor := forensics.NewExtractor(0, 0)
	aggregator := forensics.NewAggregator(forensics.DefaultPolicy())

	// Warmup
	for i := 0; i < 5; i++ {
		aggregator.Aggregate(extractor.Extract(img, raw))
	}

	if *n <= 0 {
		*n = 1
	}

	durations := make([]time.Duration, 0, *n)
	var last *forensics.Assessment
	for i := 0; i < *n; i++ {
		start := time.Now()
		last = aggregator.Aggregate(extractor.Extract(img, raw))
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f image=%dx%d score=%.3f status=%q\n",
		len(durations),
		avg,
		p50,
		p95,
		*width,
		*height,
		last.Score,
		last.Status,
	)
}

// benchImage builds a reproducible noisy grayscale image and its PNG bytes.
func benchImage(w, h int, seed int64) (image.Image, []byte, error) {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(118 + rng.Intn(21))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, err
	}
	return img, buf.Bytes(), nil
}
