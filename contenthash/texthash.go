package contenthash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"

	"github.com/digitorus/mediaseal/errs"
)

// sentinelSplit matches the blank-line-delimited header that precedes an
// already-embedded signature block, so re-hashing a signed file reproduces
// the hash of its original body.
var sentinelSplit = regexp.MustCompile(`\r?\n\r?\n-----BEGIN OFFICIAL SIGNATURE-----\r?\n`)

// TextHash reads path and computes its newline-agnostic digest.
func TextHash(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	return TextHashBytes(raw), nil
}

// TextHashBytes computes three SHA-256 digests of raw after stripping any
// trailing signature block: the bytes exactly as given, the bytes with all
// line endings forced to LF, and the LF form re-expanded to CRLF. Deriving
// the CRLF variant from the LF-normalized bytes (rather than from raw
// directly) avoids double-converting pre-existing CRLF sequences into CRCRLF.
// The canonical Hash is the raw variant; Variants holds all three so
// verification accepts whichever one matches.
func TextHashBytes(raw []byte) Result {
	body := raw
	if loc := sentinelSplit.FindIndex(raw); loc != nil {
		body = raw[:loc[0]]
	}

	linux := bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
	windows := bytes.ReplaceAll(linux, []byte("\n"), []byte("\r\n"))

	variants := []string{hashHex(body), hashHex(linux), hashHex(windows)}
	return Result{Strategy: StrategyText, Hash: variants[0], Variants: variants}
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
