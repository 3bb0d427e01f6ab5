package contenthash

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/draw"

	"github.com/digitorus/mediaseal/errs"
)

const (
	phashSize         = 8
	phashHighFreq     = 4
	phashResize       = phashSize * phashHighFreq
)

// PerceptualHash computes a 64-bit DCT-based perceptual hash (pHash), the
// same family of algorithm as Python's imagehash.phash: grayscale-convert,
// downscale to 32x32, take the top-left 8x8 block of a 2-D DCT-II, and
// threshold each coefficient against the block's median.
func PerceptualHash(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("decoding image %s: %w", path, &errs.CarrierIOError{Err: err})
	}

	gray := image.NewGray(image.Rect(0, 0, phashResize, phashResize))
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Over, nil)

	matrix := make([][]float64, phashResize)
	for y := 0; y < phashResize; y++ {
		matrix[y] = make([]float64, phashResize)
		for x := 0; x < phashResize; x++ {
			matrix[y][x] = float64(gray.GrayAt(x, y).Y)
		}
	}

	dct := dct2D(matrix)

	low := make([]float64, 0, phashSize*phashSize)
	for y := 0; y < phashSize; y++ {
		for x := 0; x < phashSize; x++ {
			low = append(low, dct[y][x])
		}
	}

	median := medianOf(low)

	var bits uint64
	for i, v := range low {
		if v > median {
			bits |= 1 << uint(63-i)
		}
	}

	hash := fmt.Sprintf("%016x", bits)
	return Result{Strategy: StrategyPerceptual, Hash: hash, Variants: []string{hash}}, nil
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// dct2D applies a separable 2-D DCT-II (rows, then columns) to matrix.
func dct2D(matrix [][]float64) [][]float64 {
	n := len(matrix)
	rowed := make([][]float64, n)
	for y := 0; y < n; y++ {
		rowed[y] = dct1D(matrix[y])
	}
	out := make([][]float64, n)
	for y := 0; y < n; y++ {
		out[y] = make([]float64, n)
	}
	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rowed[y][x]
		}
		transformed := dct1D(col)
		for y := 0; y < n; y++ {
			out[y][x] = transformed[y]
		}
	}
	return out
}

// dct1D computes the unnormalized DCT-II of v. Only internal consistency
// between the hash taken at signing and the one taken at verification
// matters here, not agreement with any
// particular external DCT normalization convention.
func dct1D(v []float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += v[i] * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}
