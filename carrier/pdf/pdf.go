// Package pdf embeds and extracts a provenance envelope in PDF files, and
// applies the optional visual watermark annotation, by appending a PDF
// incremental update after the original bytes — the same technique the
// teacher uses to attach signature objects without rewriting the document
// from scratch.
package pdf

import (
	"bytes"
	"fmt"
	"os"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/mediaseal/errs"
)

// WatermarkOptions configures the visual watermark applied by Stamp.
type WatermarkOptions struct {
	Authority string
}

const maxAuthorityDisplayLen = 30

// Stamp applies the visual watermark annotation to every page of the PDF at
// inPath and writes the result to outPath. It must run before Embed, since
// the content hash is computed over the stamped bytes.
func Stamp(inPath, outPath string, opts WatermarkOptions) error {
	raw, rdr, err := openPDF(inPath)
	if err != nil {
		return err
	}

	w := newWriter(rdr, raw)

	auth := opts.Authority
	if len(auth) > maxAuthorityDisplayLen {
		auth = auth[:maxAuthorityDisplayLen]
	}
	line1 := "DIGITALLY SECURED DOCUMENT"
	line2 := "Authority: " + auth

	n := rdr.NumPage()
	for i := 1; i <= n; i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		pagePtr := page.V.GetPtr()
		mediaBox := readMediaBox(page.V)

		apID := w.allocID()
		annotID := w.allocID()

		w.addNewObject(apID, buildAppearanceStream(line1, line2))
		w.addNewObject(annotID, buildAnnotation(pagePtr.GetID(), apID, watermarkRect(mediaBox)))
		w.updateObject(pagePtr.GetID(), buildPageUpdate(page.V, annotID))
	}

	out, err := w.finish()
	if err != nil {
		return fmt.Errorf("finishing watermark update: %w", &errs.CarrierIOError{Err: err})
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, &errs.CarrierIOError{Err: err})
	}
	return nil
}

// Embed stores envelope in the reserved /OfficialSignature metadata key via
// a PDF incremental update, reusing the existing /Info object number.
func Embed(inPath, outPath, envelope string) error {
	raw, rdr, err := openPDF(inPath)
	if err != nil {
		return err
	}

	w := newWriter(rdr, raw)

	info := rdr.Trailer().Key("Info")
	infoID := info.GetPtr().GetID()
	if infoID == 0 {
		infoID = w.allocID()
		w.addNewObject(infoID, buildInfo(info, envelope))
	} else {
		w.updateObject(infoID, buildInfo(info, envelope))
	}
	w.infoID = infoID

	out, err := w.finish()
	if err != nil {
		return fmt.Errorf("finishing metadata update: %w", &errs.CarrierIOError{Err: err})
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, &errs.CarrierIOError{Err: err})
	}
	return nil
}

// Extract returns the envelope stored at /Info/OfficialSignature, or
// errs.ErrNoSignatureFound if the key is absent.
func Extract(path string) (string, error) {
	_, rdr, err := openPDF(path)
	if err != nil {
		return "", err
	}

	sig := rdr.Trailer().Key("Info").Key("OfficialSignature")
	if sig.IsNull() {
		return "", errs.ErrNoSignatureFound
	}
	return sig.RawString(), nil
}

func openPDF(path string) ([]byte, *pdflib.Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	rdr, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s as PDF: %w", path, &errs.CarrierIOError{Err: err})
	}
	return raw, rdr, nil
}
