// Package contenthash computes the content-integrity digest used to bind a
// provenance envelope to a carrier file. The hashing strategy is chosen by
// file extension: perceptual hashing for images, a structural digest for
// PDFs, a newline-agnostic digest for text, and a raw SHA-256 for anything
// else.
package contenthash

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Carrier classifies a file by the hashing (and embedding) strategy it
// takes.
type Carrier int

const (
	CarrierOther Carrier = iota
	CarrierImage
	CarrierPDF
	CarrierText
)

// Strategy names the concrete hashing algorithm used to produce a Result.
type Strategy string

const (
	StrategyPerceptual Strategy = "perceptual"
	StrategyLogical    Strategy = "logical"
	StrategyText       Strategy = "text"
	StrategyRaw        Strategy = "raw"
)

// Result is the outcome of hashing a carrier file. Hash is the canonical
// digest placed in the envelope payload; Variants holds every value that
// should be treated as an equally valid match on verification (only
// populated beyond a single entry for the text strategy's three newline
// normalizations).
type Result struct {
	Strategy Strategy
	Hash     string
	Variants []string
}

// Classify maps a file path to a Carrier by extension.
func Classify(path string) Carrier {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return CarrierImage
	case ".pdf":
		return CarrierPDF
	case ".txt", ".md", ".csv", ".json":
		return CarrierText
	default:
		return CarrierOther
	}
}

// Hash computes the content-integrity digest for path under the given
// carrier classification.
func Hash(path string, carrier Carrier) (Result, error) {
	switch carrier {
	case CarrierImage:
		return PerceptualHash(path)
	case CarrierPDF:
		return LogicalHash(path)
	case CarrierText:
		return TextHash(path)
	default:
		return RawHash(path)
	}
}

// HammingDistance computes the bit-difference count between two hex-encoded
// hashes of equal byte length, used to tolerance-check perceptual hashes.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hash length mismatch: %d vs %d", len(a), len(b))
	}
	var bitsA, bitsB uint64
	if _, err := fmt.Sscanf(a, "%016x", &bitsA); err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", a, err)
	}
	if _, err := fmt.Sscanf(b, "%016x", &bitsB); err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", b, err)
	}
	x := bitsA ^ bitsB
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count, nil
}
