package forensics

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/veridoc-ai/veridoc/internal/imaging"
)

// compressionProbeQuality is the quality used to probe non-JPEG containers.
const compressionProbeQuality = 75

// compressionQuality looks for signatures of repeated lossy re-encoding.
//
// For JPEG input, double quantization leaves a periodic comb pattern in the
// luminance histogram. The histogram is high-pass filtered (each bin minus
// the mean of its neighbors) and the strongest normalized autocorrelation
// over lags 2..20 is the raw signal.
//
// For lossless containers the histogram carries no quantization comb, so the
// probe re-encodes at a fixed quality instead: content that shrinks far
// below its container size was already through a lossy generation before
// being wrapped in PNG.
func compressionQuality(img image.Image, data []byte) (raw, score float64, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("compression: empty byte stream")
	}

	if imaging.IsJPEG(data) {
		raw = histogramComb(imaging.Grayscale(img))
		return raw, clamp01(raw), nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: compressionProbeQuality}); err != nil {
		return 0, 0, fmt.Errorf("compression probe encode: %w", err)
	}
	ratio := float64(buf.Len()) / float64(len(data))
	raw = ratio
	if ratio >= 1 {
		return raw, 0, nil
	}
	return raw, clamp01((1 - ratio) * 0.5), nil
}

// histogramComb returns the peak normalized autocorrelation of the
// high-pass filtered luminance histogram over small lags.
func histogramComb(g *image.Gray) float64 {
	var hist [256]float64
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	// High-pass: remove the smooth envelope, keep the comb.
	var comb [256]float64
	for i := 1; i < 255; i++ {
		comb[i] = hist[i] - (hist[i-1]+hist[i+1])/2
	}

	var energy float64
	for _, c := range comb {
		energy += c * c
	}
	if energy < 1e-9 {
		return 0
	}

	var peak float64
	for lag := 2; lag <= 20; lag++ {
		var corr float64
		for i := 0; i+lag < 256; i++ {
			corr += comb[i] * comb[i+lag]
		}
		corr /= energy
		if corr > peak {
			peak = corr
		}
	}
	if peak < 0 {
		return 0
	}
	return peak
}
