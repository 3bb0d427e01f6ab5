// Package signer applies and checks the RSA-PSS signature over an envelope
// payload. It is deliberately the thinnest layer in the module: stdlib
// crypto/rsa already implements the exact PSS salt-length contract the
// envelope format needs (PSSSaltLengthAuto selects the maximum permissible
// salt on signing and auto-detects it on verification), so no third-party
// PSS package is wired here.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/digitorus/mediaseal/errs"
)

var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthAuto,
	Hash:       crypto.SHA256,
}

// Sign produces the base64 (standard) encoding of the RSA-PSS signature over
// payload, using SHA-256 and the maximum permissible salt length.
func Sign(priv *rsa.PrivateKey, payload string) (string, error) {
	digest := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", &errs.CryptoError{Err: err})
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether sigB64 is a valid RSA-PSS signature over payload
// under pub. It never returns an error: a malformed signature or hash
// mismatch is simply a failed verification, not an exceptional condition.
func Verify(pub *rsa.PublicKey, payload, sigB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(payload))
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, pssOptions) == nil
}
