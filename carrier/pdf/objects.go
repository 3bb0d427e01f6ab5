package pdf

import (
	"bytes"
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// buildInfo returns a replacement /Info dictionary body that copies every
// key from the original except /OfficialSignature, which is (re)set to
// envelope. Info dictionary values are conventionally PDF strings, so each
// kept value is re-escaped from its decoded form rather than generically
// serialized, the same simplification the teacher's createInfo makes.
func buildInfo(info pdflib.Value, envelope string) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<\n")
	if !info.IsNull() {
		for _, k := range info.Keys() {
			if k == "OfficialSignature" {
				continue
			}
			fmt.Fprintf(&buf, "  /%s %s\n", k, pdfString(info.Key(k).RawString()))
		}
	}
	fmt.Fprintf(&buf, "  /OfficialSignature %s\n", pdfString(envelope))
	buf.WriteString(">>\n")
	return buf.Bytes()
}

// buildPageUpdate returns a replacement body for a Page object that appends
// newAnnotID to its /Annots array (creating one if absent), copying every
// other key across. /Parent and /Contents are re-serialized as indirect
// references since the library's generic String() form isn't guaranteed to
// round-trip reference syntax exactly.
func buildPageUpdate(page pdflib.Value, newAnnotID uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<\n")

	hasAnnots := false
	for _, key := range page.Keys() {
		switch key {
		case "Parent":
			ptr := page.Key(key).GetPtr()
			fmt.Fprintf(&buf, "  /Parent %d 0 R\n", ptr.GetID())
		case "Contents":
			writeContentsRef(&buf, page.Key(key))
		case "Annots":
			hasAnnots = true
			writeAnnotsWithAppend(&buf, page.Key(key), newAnnotID)
		default:
			fmt.Fprintf(&buf, "  /%s %s\n", key, page.Key(key).String())
		}
	}
	if !hasAnnots {
		fmt.Fprintf(&buf, "  /Annots [%d 0 R]\n", newAnnotID)
	}

	buf.WriteString(">>\n")
	return buf.Bytes()
}

func writeContentsRef(buf *bytes.Buffer, contents pdflib.Value) {
	if contents.Kind() == pdflib.Array {
		buf.WriteString("  /Contents [")
		for i := 0; i < contents.Len(); i++ {
			ptr := contents.Index(i).GetPtr()
			fmt.Fprintf(buf, " %d 0 R", ptr.GetID())
		}
		buf.WriteString(" ]\n")
		return
	}
	ptr := contents.GetPtr()
	fmt.Fprintf(buf, "  /Contents %d 0 R\n", ptr.GetID())
}

func writeAnnotsWithAppend(buf *bytes.Buffer, annots pdflib.Value, newAnnotID uint32) {
	buf.WriteString("  /Annots [\n")
	if annots.Kind() == pdflib.Array {
		for i := 0; i < annots.Len(); i++ {
			ptr := annots.Index(i).GetPtr()
			fmt.Fprintf(buf, "    %d 0 R\n", ptr.GetID())
		}
	}
	fmt.Fprintf(buf, "    %d 0 R\n", newAnnotID)
	buf.WriteString("  ]\n")
}

const (
	watermarkWidth  = 180.0
	watermarkHeight = 40.0
	watermarkMargin = 20.0
)

// buildAppearanceStream returns the body of a Form XObject that draws the
// watermark text, in the teacher's drawText content-stream idiom
// (q / BT / Tf / Td / rg / Tj / ET / Q), using the standard Helvetica font
// inline (no FontDescriptor needed for a standard 14 font) and a 25%-alpha
// ExtGState inline as well, since neither needs to be shared across pages.
func buildAppearanceStream(line1, line2 string) []byte {
	var content bytes.Buffer
	content.WriteString("q\n/GS0 gs\nBT\n/F1 8 Tf\n0.4 0.45 0.5 rg\n")
	fmt.Fprintf(&content, "2 %.2f Td\n", watermarkHeight-12)
	fmt.Fprintf(&content, "%s Tj\n", pdfString(line1))
	content.WriteString("0 -12 Td\n")
	fmt.Fprintf(&content, "%s Tj\n", pdfString(line2))
	content.WriteString("ET\nQ\n")

	var buf bytes.Buffer
	buf.WriteString("<<\n  /Type /XObject\n  /Subtype /Form\n")
	fmt.Fprintf(&buf, "  /BBox [0 0 %.2f %.2f]\n", watermarkWidth, watermarkHeight)
	buf.WriteString("  /Matrix [1 0 0 1 0 0]\n")
	buf.WriteString("  /Resources <<\n")
	buf.WriteString("    /Font << /F1 << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> >>\n")
	buf.WriteString("    /ExtGState << /GS0 << /Type /ExtGState /ca 0.25 >> >>\n")
	buf.WriteString("  >>\n")
	fmt.Fprintf(&buf, "  /Length %d\n", content.Len())
	buf.WriteString(">>\nstream\n")
	buf.Write(content.Bytes())
	buf.WriteString("\nendstream\n")
	return buf.Bytes()
}

// buildAnnotation returns the body of a FreeText annotation referencing the
// given appearance stream, dropping the /Widget/FT/V fields the teacher's
// signature-field annotation carries since this is a plain visual note.
func buildAnnotation(pageID, apObjID uint32, rect [4]float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<\n  /Type /Annot\n  /Subtype /FreeText\n")
	fmt.Fprintf(&buf, "  /Rect [%.2f %.2f %.2f %.2f]\n", rect[0], rect[1], rect[2], rect[3])
	fmt.Fprintf(&buf, "  /P %d 0 R\n", pageID)
	buf.WriteString("  /Contents (Digitally secured document)\n")
	buf.WriteString("  /DA (0.4 0.45 0.5 rg /Helv 8 Tf)\n")
	fmt.Fprintf(&buf, "  /AP << /N %d 0 R >>\n", apObjID)
	buf.WriteString("  /F 4\n") // bit 3: Print
	buf.WriteString(">>\n")
	return buf.Bytes()
}

func readMediaBox(page pdflib.Value) [4]float64 {
	box := page.Key("MediaBox")
	if box.IsNull() || box.Kind() != pdflib.Array || box.Len() != 4 {
		return [4]float64{0, 0, 612, 792}
	}
	var r [4]float64
	for i := 0; i < 4; i++ {
		r[i] = box.Index(i).Float64()
	}
	return r
}

func watermarkRect(mediaBox [4]float64) [4]float64 {
	x0 := mediaBox[2] - watermarkWidth - watermarkMargin
	y0 := mediaBox[1] + watermarkMargin
	return [4]float64{x0, y0, x0 + watermarkWidth, y0 + watermarkHeight}
}
