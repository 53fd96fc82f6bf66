package forensics

import (
	"image"
	"log"

	"github.com/veridoc-ai/veridoc/internal/imaging"
)

// Extractor computes the three forensic metrics for one image. It holds no
// per-request state; a single Extractor is safe for concurrent use.
type Extractor struct {
	elaQuality int
	maxPixels  int
}

// NewExtractor returns an Extractor with the given ELA reference quality
// and pixel budget. Non-positive arguments select the defaults (90, 4 MP).
func NewExtractor(elaQuality, maxPixels int) *Extractor {
	if elaQuality <= 0 || elaQuality > 100 {
		elaQuality = 90
	}
	if maxPixels <= 0 {
		maxPixels = 4 << 20
	}
	return &Extractor{elaQuality: elaQuality, maxPixels: maxPixels}
}

// Extract computes all three metrics in fixed order. A failed sub-metric is
// replaced by a neutral defaulted metric and logged; extraction itself never
// fails once the image has been decoded.
func (e *Extractor) Extract(img image.Image, raw []byte) []Metric {
	scaled := imaging.Fit(img, e.maxPixels)

	metrics := make([]Metric, 0, 3)
	metrics = append(metrics, e.compute(MetricELA, func() (float64, float64, error) {
		return errorLevel(scaled, e.elaQuality)
	}))
	metrics = append(metrics, e.compute(MetricNoiseVariance, func() (float64, float64, error) {
		return noiseVariance(scaled)
	}))
	metrics = append(metrics, e.compute(MetricCompressionQuality, func() (float64, float64, error) {
		return compressionQuality(scaled, raw)
	}))
	return metrics
}

func (e *Extractor) compute(name Kind, fn func() (float64, float64, error)) (m Metric) {
	m = Metric{Name: name}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("forensics: metric %s panicked: %v; substituting neutral default", name, r)
			m = Metric{Name: name, Defaulted: true}
		}
	}()

	rawVal, score, err := fn()
	if err != nil {
		log.Printf("forensics: metric %s failed: %v; substituting neutral default", name, err)
		return Metric{Name: name, Defaulted: true}
	}
	return Metric{Name: name, RawValue: rawVal, Score: clamp01(score)}
}
