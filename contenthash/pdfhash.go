package contenthash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/mediaseal/errs"
)

// LogicalHash computes a structural digest of a PDF: sorted document
// metadata (excluding the reserved /OfficialSignature key), the page count,
// and every page's content stream and annotation list, in page order. This
// survives re-saves that only touch file-level bytes (xref layout, object
// ordering, compression) without changing what the document says or shows.
//
// If the file cannot be parsed as a PDF, LogicalHash falls back to a raw
// SHA-256 of the whole file so a hash can still be produced.
func LogicalHash(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, &errs.CarrierIOError{Err: err})
	}

	rdr, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return rawFallback(raw), nil
	}

	digest, err := logicalHashBytes(rdr)
	if err != nil {
		return rawFallback(raw), nil
	}

	sum := sha256.Sum256(digest)
	hash := hex.EncodeToString(sum[:])
	return Result{Strategy: StrategyLogical, Hash: hash, Variants: []string{hash}}, nil
}

func rawFallback(raw []byte) Result {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])
	return Result{Strategy: StrategyRaw, Hash: hash, Variants: []string{hash}}
}

func logicalHashBytes(rdr *pdflib.Reader) ([]byte, error) {
	var buf bytes.Buffer

	trailer := rdr.Trailer()
	info := trailer.Key("Info")
	if !info.IsNull() {
		keys := append([]string(nil), info.Keys()...)
		sort.Strings(keys)
		for _, k := range keys {
			if k == "OfficialSignature" {
				continue
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(stringifyValue(info.Key(k), info.GetPtr().GetID()))
			buf.WriteByte('\n')
		}
	}

	n := rdr.NumPage()
	fmt.Fprintf(&buf, "pages=%d\n", n)

	for i := 1; i <= n; i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		if err := writeContentStreams(&buf, page.V.Key("Contents")); err != nil {
			return nil, err
		}
		writeAnnots(&buf, page.V.Key("Annots"))
	}

	return buf.Bytes(), nil
}

func writeContentStreams(buf *bytes.Buffer, contents pdflib.Value) error {
	if contents.IsNull() {
		return nil
	}
	if contents.Kind() == pdflib.Array {
		for i := 0; i < contents.Len(); i++ {
			if err := copyStream(buf, contents.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return copyStream(buf, contents)
}

func copyStream(buf *bytes.Buffer, v pdflib.Value) error {
	r := v.Reader()
	if r == nil {
		return nil
	}
	_, err := io.Copy(buf, r)
	return err
}

// writeAnnots hashes the full stringified object representation of every
// annotation on a page, not just its subtype and rect, so tampering with an
// overlay's appearance, contents, or color while leaving its position alone
// is still caught.
func writeAnnots(buf *bytes.Buffer, annots pdflib.Value) {
	if annots.IsNull() || annots.Kind() != pdflib.Array {
		return
	}
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		buf.WriteString(stringifyValue(annot, annot.GetPtr().GetID()))
		buf.WriteByte('\n')
	}
}

// stringifyValue renders a pdf.Value in a stable textual form for hashing
// purposes, recursing into dicts and arrays. owner is the object number of
// the indirect object being rendered: a value the reader reports as living
// in a different object (one reached via "N G R" rather than embedded
// inline) is rendered as that reference rather than followed, the same
// guard SignContext.serializeCatalogEntry uses to keep a cyclic object graph
// (e.g. an annotation's /P back to its page) from recursing forever.
func stringifyValue(v pdflib.Value, owner uint32) string {
	if v.IsNull() {
		return ""
	}
	if ptr := v.GetPtr(); ptr.GetID() != 0 && ptr.GetID() != owner {
		return fmt.Sprintf("%d %d R", ptr.GetID(), ptr.GetGen())
	}
	switch v.Kind() {
	case pdflib.String:
		return v.RawString()
	case pdflib.Name:
		return "/" + v.Name()
	case pdflib.Integer:
		return fmt.Sprintf("%d", v.Int64())
	case pdflib.Real:
		return fmt.Sprintf("%g", v.Float64())
	case pdflib.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case pdflib.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = stringifyValue(v.Index(i), owner)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case pdflib.Dict:
		keys := append([]string(nil), v.Keys()...)
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("/%s %s", k, stringifyValue(v.Key(k), owner))
		}
		return "<<" + strings.Join(parts, " ") + ">>"
	default:
		return v.String()
	}
}
