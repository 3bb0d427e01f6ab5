// Package provenance orchestrates the end-to-end signing and verification
// pipelines: classify the carrier, hash its content, build and sign (or
// check) the envelope, and embed (or extract) it, turning every failure
// mode into one of the report verdicts.
package provenance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/digitorus/mediaseal/carrier/image"
	"github.com/digitorus/mediaseal/carrier/pdf"
	"github.com/digitorus/mediaseal/carrier/text"
	"github.com/digitorus/mediaseal/contenthash"
	"github.com/digitorus/mediaseal/envelope"
	"github.com/digitorus/mediaseal/errs"
	"github.com/digitorus/mediaseal/keystore"
	"github.com/digitorus/mediaseal/signer"
)

// Status is the outcome of a verification run.
type Status string

const (
	StatusVerified Status = "verified"
	StatusTampered Status = "tampered"
	StatusFake     Status = "fake"
	StatusUnsigned Status = "unsigned"
	StatusError    Status = "error"
)

// Metadata is the claim embedded in a verified or fake envelope, surfaced
// for the caller's information.
type Metadata struct {
	Authority string `json:"authority"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Checks records which of the two independent verification steps passed.
type Checks struct {
	Signature bool `json:"signature"`
	Integrity bool `json:"integrity"`
}

// Report is the structured result of a Verify call.
type Report struct {
	Status   Status    `json:"status"`
	Message  string    `json:"message"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Checks   Checks    `json:"checks"`
	Details  string    `json:"details,omitempty"`
}

// Sign runs the signing pipeline: classify the carrier, watermark it (PDF
// only), hash its content, build and sign the payload, and embed the
// resulting envelope, writing the signed file under an "output" directory
// next to the source.
func Sign(store *keystore.Store, path, authority, message string) (string, error) {
	priv, err := store.LoadPrivate(authority)
	if err != nil {
		return "", err
	}

	carrier := contenthash.Classify(path)
	hashSource := path

	outDir := filepath.Join(filepath.Dir(path), "output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", &errs.CarrierIOError{Err: err})
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if carrier == contenthash.CarrierPDF {
		scratch := filepath.Join(outDir, ".watermark_"+base)
		if err := pdf.Stamp(path, scratch, pdf.WatermarkOptions{Authority: authority}); err != nil {
			return "", fmt.Errorf("applying watermark: %w", err)
		}
		defer os.Remove(scratch)
		hashSource = scratch
	}

	result, err := contenthash.Hash(hashSource, carrier)
	if err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}

	ts := time.Now().UTC().Format("2006-01-02T15:04:05")
	payload, err := envelope.Build(result.Hash, ts, authority, message)
	if err != nil {
		return "", err
	}

	sigB64, err := signer.Sign(priv, payload)
	if err != nil {
		return "", err
	}
	env := envelope.Join(payload, sigB64)

	var outPath string
	switch carrier {
	case contenthash.CarrierImage:
		outPath = filepath.Join(outDir, "signed_"+stem+".png")
		err = image.Embed(path, outPath, env)
	case contenthash.CarrierPDF:
		outPath = filepath.Join(outDir, "signed_"+base)
		err = pdf.Embed(hashSource, outPath, env)
	case contenthash.CarrierText:
		outPath = filepath.Join(outDir, "signed_"+base)
		err = text.Embed(path, outPath, env)
	default:
		return "", fmt.Errorf("carrier for %s does not support embedding", path)
	}
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// Verify runs the verification pipeline's decision tree: extract the
// embedded envelope, check its signature, then compare its claimed content
// hash to a freshly recomputed one.
func Verify(store *keystore.Store, path string) *Report {
	carrier := contenthash.Classify(path)

	env, err := extractEnvelope(carrier, path)
	if err != nil {
		return &Report{Status: StatusError, Message: "failed to read carrier", Details: err.Error()}
	}
	if env == "" {
		return &Report{Status: StatusUnsigned, Message: "no embedded signature found"}
	}

	parsed, err := envelope.Split(env)
	if err != nil {
		return &Report{Status: StatusError, Message: "malformed payload", Details: err.Error()}
	}

	pub, err := store.LoadPublic(parsed.Payload.Authority)
	if err != nil {
		unknown := &errs.UnknownAuthorityError{Name: parsed.Payload.Authority}
		return &Report{Status: StatusError, Message: unknown.Error(), Details: err.Error()}
	}

	meta := &Metadata{
		Authority: parsed.Payload.Authority,
		Timestamp: parsed.Payload.Timestamp,
		Message:   parsed.Payload.Message,
	}

	if !signer.Verify(pub, parsed.Raw, parsed.Signature) {
		return &Report{
			Status:   StatusFake,
			Message:  "signature verification failed",
			Metadata: meta,
			Checks:   Checks{Signature: false},
		}
	}

	match, details, err := compareIntegrity(carrier, path, parsed.Payload.Hash)
	if err != nil {
		return &Report{Status: StatusError, Message: "failed to recompute content hash", Details: err.Error()}
	}
	if match {
		return &Report{
			Status:   StatusVerified,
			Message:  "signature and content verified",
			Metadata: meta,
			Checks:   Checks{Signature: true, Integrity: true},
			Details:  details,
		}
	}
	return &Report{
		Status:   StatusTampered,
		Message:  "signature valid but content hash mismatch",
		Metadata: meta,
		Checks:   Checks{Signature: true, Integrity: false},
		Details:  details,
	}
}

func extractEnvelope(carrier contenthash.Carrier, path string) (string, error) {
	var env string
	var err error
	switch carrier {
	case contenthash.CarrierImage:
		env, _, err = image.Extract(path)
	case contenthash.CarrierPDF:
		env, err = pdf.Extract(path)
	case contenthash.CarrierText:
		env, err = text.Extract(path)
	default:
		return "", fmt.Errorf("carrier for %s does not support embedded signatures", path)
	}
	if errors.Is(err, errs.ErrNoSignatureFound) {
		return "", nil
	}
	return env, err
}

func compareIntegrity(carrier contenthash.Carrier, path, signedHash string) (bool, string, error) {
	if carrier == contenthash.CarrierImage {
		result, err := contenthash.Hash(path, carrier)
		if err != nil {
			return false, "", err
		}
		dist, err := contenthash.HammingDistance(signedHash, result.Hash)
		if err != nil {
			return false, "", err
		}
		return dist <= 10, fmt.Sprintf("perceptual hamming distance=%d", dist), nil
	}

	result, err := contenthash.Hash(path, carrier)
	if err != nil {
		return false, "", err
	}
	for _, v := range result.Variants {
		if v == signedHash {
			return true, fmt.Sprintf("%s hash matched", result.Strategy), nil
		}
	}
	return false, fmt.Sprintf("%s hash did not match any accepted variant", result.Strategy), nil
}
