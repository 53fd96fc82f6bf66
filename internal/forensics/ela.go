package forensics

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/veridoc-ai/veridoc/internal/imaging"
)

// elaBlockSize is the block edge used when reducing the error-level map.
const elaBlockSize = 16

// elaScale maps the block-mean spread (0..255 luminance units) onto [0,1].
const elaScale = 16.0

// errorLevel re-encodes the image at the reference quality and measures how
// unevenly the recompression error is distributed across blocks. A genuine
// single-generation image recompresses uniformly; a pasted region carries a
// different compression history and stands out as block-level spread.
func errorLevel(img image.Image, quality int) (raw, score float64, err error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return 0, 0, fmt.Errorf("ela re-encode: %w", err)
	}
	recoded, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return 0, 0, fmt.Errorf("ela decode re-encoded copy: %w", err)
	}

	a := imaging.Grayscale(img)
	b := imaging.Grayscale(recoded)

	w := min(a.Bounds().Dx(), b.Bounds().Dx())
	h := min(a.Bounds().Dy(), b.Bounds().Dy())
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("ela: empty image")
	}

	var blockMeans []float64
	for by := 0; by < h; by += elaBlockSize {
		for bx := 0; bx < w; bx += elaBlockSize {
			var sum float64
			var n int
			for y := by; y < min(by+elaBlockSize, h); y++ {
				for x := bx; x < min(bx+elaBlockSize, w); x++ {
					d := int(a.GrayAt(x, y).Y) - int(b.GrayAt(x, y).Y)
					if d < 0 {
						d = -d
					}
					sum += float64(d)
					n++
				}
			}
			blockMeans = append(blockMeans, sum/float64(n))
		}
	}

	raw = stddev(blockMeans)
	return raw, clamp01(raw / elaScale), nil
}

func stddev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}
