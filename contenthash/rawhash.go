package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/digitorus/mediaseal/errs"
)

// RawHash streams path through SHA-256, the fallback strategy for any
// carrier that has no structural or perceptual notion of content.
func RawHash(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Result{}, fmt.Errorf("hashing %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return Result{Strategy: StrategyRaw, Hash: sum, Variants: []string{sum}}, nil
}
