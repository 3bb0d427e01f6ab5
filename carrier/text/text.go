// Package text embeds and extracts a provenance envelope in plain text
// files by appending a clearly delimited signature block after the
// document body.
package text

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/digitorus/mediaseal/errs"
)

const (
	header = "-----BEGIN OFFICIAL SIGNATURE-----"
	footer = "-----END OFFICIAL SIGNATURE-----"
)

// Embed writes path's content to outPath with envelope appended as a
// signature block. Any existing signature block is discarded first, so
// re-signing a previously signed file replaces rather than stacks blocks.
func Embed(path, outPath, envelope string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, &errs.CarrierIOError{Err: err})
	}

	body := raw
	if idx := bytes.Index(body, []byte(header)); idx >= 0 {
		body = bytes.TrimRight(body[:idx], "\n")
	}

	var buf bytes.Buffer
	buf.Write(body)
	buf.WriteString("\n\n")
	buf.WriteString(header)
	buf.WriteString("\n")
	buf.WriteString(envelope)
	buf.WriteString("\n")
	buf.WriteString(footer)

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, &errs.CarrierIOError{Err: err})
	}
	return nil
}

// Extract returns the envelope string embedded in path, or
// errs.ErrNoSignatureFound if no signature block is present.
func Extract(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, &errs.CarrierIOError{Err: err})
	}

	content := string(raw)
	start := strings.Index(content, header)
	if start < 0 {
		return "", errs.ErrNoSignatureFound
	}
	end := strings.Index(content, footer)
	if end < 0 || end < start {
		return "", errs.ErrMalformedPayload
	}

	between := content[start+len(header) : end]
	return strings.TrimSpace(between), nil
}
