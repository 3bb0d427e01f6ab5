package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	pdflib "github.com/digitorus/pdf"
	"github.com/stretchr/testify/require"
)

// buildMinimalPDF assembles a tiny, syntactically valid classic-xref PDF
// with one page, computing every offset from the buffer's actual length so
// the fixture can't drift out of sync with the object bodies above it.
func buildMinimalPDF(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make(map[int]int64)

	writeObj := func(id int, body string) {
		offsets[id] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Contents 4 0 R /Resources << >> >>")

	content := "q 1 0 0 RG 0 0 100 100 re S Q"
	writeObj(4, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	writeObj(5, "<< /Title (Test Document) >>")

	xrefStart := int64(buf.Len())
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", 6)
	buf.WriteString("0000000000 65535 f \r\n")
	for id := 1; id <= 5; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \r\n", offsets[id])
	}
	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size 6 /Root 1 0 R /Info 5 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	return buf.Bytes()
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(src, buildMinimalPDF(t), 0o644))

	out := filepath.Join(dir, "signed.pdf")
	require.NoError(t, Embed(src, out, "deadbeef|ts|Gov of X|demo||SIG||c2ln"))

	got, err := Extract(out)
	require.NoError(t, err)
	require.Equal(t, "deadbeef|ts|Gov of X|demo||SIG||c2ln", got)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	rdr, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, 1, rdr.NumPage())
	require.Equal(t, "Test Document", rdr.Trailer().Key("Info").Key("Title").RawString())
}

func TestExtractNoSignature(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(src, buildMinimalPDF(t), 0o644))

	_, err := Extract(src)
	require.Error(t, err)
}

func TestStampAddsAnnotationToEveryPage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(src, buildMinimalPDF(t), 0o644))

	out := filepath.Join(dir, "stamped.pdf")
	require.NoError(t, Stamp(src, out, WatermarkOptions{Authority: "Gov of X"}))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	rdr, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	page := rdr.Page(1)
	require.False(t, page.V.IsNull())
	annots := page.V.Key("Annots")
	require.Equal(t, pdflib.Array, annots.Kind())
	require.Equal(t, 1, annots.Len())
	require.Equal(t, "FreeText", annots.Index(0).Key("Subtype").Name())
}
