package forensics

import (
	"fmt"
	"image"
	"math"

	"github.com/veridoc-ai/veridoc/internal/imaging"
)

// noiseBlockSize is the block edge for local noise-variance estimation.
const noiseBlockSize = 32

// noiseScale maps the coefficient of variation of block variances onto [0,1].
const noiseScale = 2.0

// noiseVariance estimates how uniformly sensor noise is distributed across
// the image. The high-frequency residual (pixel minus 3x3 box mean) is
// computed per pixel, its variance per block, and the spread of those block
// variances is the signal: composited sources show non-uniform noise across
// splice boundaries.
func noiseVariance(img image.Image) (raw, score float64, err error) {
	g := imaging.Grayscale(img)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w < 3 || h < 3 {
		return 0, 0, fmt.Errorf("noise: image too small (%dx%d)", w, h)
	}

	// Residual over the interior; the one-pixel border has no full 3x3
	// neighborhood and is skipped.
	residual := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sum int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sum += int(g.GrayAt(x+dx, y+dy).Y)
				}
			}
			residual[y*w+x] = float64(g.GrayAt(x, y).Y) - float64(sum)/9.0
		}
	}

	var blockVars []float64
	for by := 1; by < h-1; by += noiseBlockSize {
		for bx := 1; bx < w-1; bx += noiseBlockSize {
			var sum, ss float64
			var n int
			for y := by; y < min(by+noiseBlockSize, h-1); y++ {
				for x := bx; x < min(bx+noiseBlockSize, w-1); x++ {
					r := residual[y*w+x]
					sum += r
					ss += r * r
					n++
				}
			}
			if n == 0 {
				continue
			}
			mean := sum / float64(n)
			blockVars = append(blockVars, ss/float64(n)-mean*mean)
		}
	}
	if len(blockVars) == 0 {
		return 0, 0, fmt.Errorf("noise: no analyzable blocks")
	}

	var mean float64
	for _, v := range blockVars {
		mean += v
	}
	mean /= float64(len(blockVars))
	if mean < 1e-9 {
		// Perfectly flat image: no noise at all, and no spread either.
		return 0, 0, nil
	}

	var ss float64
	for _, v := range blockVars {
		d := v - mean
		ss += d * d
	}
	cv := math.Sqrt(ss/float64(len(blockVars))) / mean

	return cv, clamp01(cv / noiseScale), nil
}
