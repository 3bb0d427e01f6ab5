// Package envelope builds and parses the flat payload string that carries a
// provenance claim, and the signed wire form that gets embedded in a
// carrier file.
package envelope

import (
	"regexp"
	"strings"

	"github.com/digitorus/mediaseal/errs"
)

const fieldCount = 4

// sigSeparator joins a payload string to its base64 signature in the
// common case.
const sigSeparator = "||SIG||"

// salvagePattern matches any "||xxx||"-shaped separator, used to recover a
// payload/signature split when the carrier has mangled the literal "SIG"
// marker but preserved the surrounding double-pipe structure.
var salvagePattern = regexp.MustCompile(`\|\|.{3}\|\|`)

// Payload is the parsed form of the pipe-delimited fields that make up a
// provenance claim.
type Payload struct {
	Hash      string
	Timestamp string
	Authority string
	Message   string
}

// Envelope is a fully parsed signed wire value: the payload fields, the raw
// payload string that was actually signed, and the base64 signature.
type Envelope struct {
	Payload   Payload
	Raw       string
	Signature string
}

// Build joins the four payload fields with "|". It rejects any field that
// itself contains "|", since that would make the join ambiguous to split.
func Build(hash, timestamp, authority, message string) (string, error) {
	fields := []string{hash, timestamp, authority, message}
	for _, f := range fields {
		if strings.Contains(f, "|") {
			return "", errs.ErrMalformedPayload
		}
	}
	return strings.Join(fields, "|"), nil
}

// Join concatenates a payload string and a base64 signature into the wire
// form stored in a carrier.
func Join(payload, sigB64 string) string {
	return payload + sigSeparator + sigB64
}

// Split parses the wire form back into its payload and signature. It first
// looks for the literal "||SIG||" separator, then falls back to the
// looser "||???||" pattern so a payload that survived lossy recompression
// with its separator's middle bytes flipped can still be located.
func Split(s string) (Envelope, error) {
	var payloadStr, sigB64 string

	if idx := strings.Index(s, sigSeparator); idx >= 0 {
		payloadStr = s[:idx]
		sigB64 = s[idx+len(sigSeparator):]
	} else if loc := salvagePattern.FindStringIndex(s); loc != nil {
		payloadStr = s[:loc[0]]
		sigB64 = s[loc[1]:]
	} else {
		return Envelope{}, errs.ErrMalformedPayload
	}

	fields := strings.Split(payloadStr, "|")
	if len(fields) != fieldCount {
		return Envelope{}, errs.ErrMalformedPayload
	}

	return Envelope{
		Payload: Payload{
			Hash:      fields[0],
			Timestamp: fields[1],
			Authority: fields[2],
			Message:   fields[3],
		},
		Raw:       payloadStr,
		Signature: sigB64,
	}, nil
}
