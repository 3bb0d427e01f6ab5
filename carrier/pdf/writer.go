package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// xrefEntry records where a rewritten or newly appended object landed in
// the output buffer, for the incremental-update xref section written at
// the end.
type xrefEntry struct {
	id     uint32
	offset int64
}

// writer assembles a PDF incremental update: the original bytes unchanged,
// followed by replacement/new objects and a fresh xref section with /Prev
// pointing back at the original one. This mirrors the teacher's
// SignContext/writeIncrXrefTable/writeXrefStream approach, minus everything
// specific to byte-range signature placeholders.
type writer struct {
	reader  *pdflib.Reader
	out     *filebuffer.Buffer
	nextID  uint32
	updated []xrefEntry
	added   []xrefEntry
	infoID  uint32

	xrefStreamOffset int64
}

func newWriter(rdr *pdflib.Reader, raw []byte) *writer {
	w := &writer{
		reader: rdr,
		nextID: uint32(rdr.XrefInformation.ItemCount),
		out:    filebuffer.New([]byte{}),
	}
	w.out.Write(raw)
	w.out.Write([]byte{'\n'})
	return w
}

// allocID reserves a fresh object number for a brand-new object.
func (w *writer) allocID() uint32 {
	id := w.nextID
	w.nextID++
	return id
}

// addNewObject appends body (the object's dict/stream content, without the
// "N 0 obj"/"endobj" wrapper) as a new indirect object under id.
func (w *writer) addNewObject(id uint32, body []byte) {
	offset := int64(w.out.Buff.Len())
	fmt.Fprintf(w.out, "%d 0 obj\n", id)
	w.out.Write(body)
	w.out.Write([]byte("endobj\n"))
	w.added = append(w.added, xrefEntry{id: id, offset: offset})
}

// updateObject appends body as a replacement for the existing object id.
func (w *writer) updateObject(id uint32, body []byte) {
	offset := int64(w.out.Buff.Len())
	fmt.Fprintf(w.out, "%d 0 obj\n", id)
	w.out.Write(body)
	w.out.Write([]byte("endobj\n"))
	w.updated = append(w.updated, xrefEntry{id: id, offset: offset})
}

// finish writes the xref section and trailer and returns the complete file.
func (w *writer) finish() ([]byte, error) {
	xrefStart := int64(w.out.Buff.Len())
	switch w.reader.XrefInformation.Type {
	case "stream":
		if err := w.writeXrefStream(); err != nil {
			return nil, err
		}
		fmt.Fprintf(w.out, "startxref\n%d\n%%%%EOF\n", w.xrefStreamOffset)
	default:
		w.writeXrefTable()
		w.writeTrailerDict()
		fmt.Fprintf(w.out, "startxref\n%d\n%%%%EOF\n", xrefStart)
	}
	return w.out.Buff.Bytes(), nil
}

// writeXrefTable writes a classic cross-reference table: one subsection per
// updated object (each is its own one-entry subsection, since updated
// object numbers are rarely contiguous) followed by a single contiguous
// subsection covering every newly added object.
func (w *writer) writeXrefTable() {
	w.out.Write([]byte("xref\n"))
	for _, e := range w.updated {
		fmt.Fprintf(w.out, "%d %d\n", e.id, 1)
		fmt.Fprintf(w.out, "%010d 00000 n\r\n", e.offset)
	}
	if len(w.added) > 0 {
		fmt.Fprintf(w.out, "%d %d\n", w.added[0].id, len(w.added))
		for _, e := range w.added {
			fmt.Fprintf(w.out, "%010d 00000 n\r\n", e.offset)
		}
	}
}

func (w *writer) writeTrailerDict() {
	root := w.reader.Trailer().Key("Root").GetPtr()
	infoID := w.resolvedInfoID()

	size := w.nextID
	if cur := uint32(w.reader.XrefInformation.ItemCount); cur > size {
		size = cur
	}

	w.out.Write([]byte("trailer\n<<\n"))
	fmt.Fprintf(w.out, "  /Size %d\n", size)
	fmt.Fprintf(w.out, "  /Root %d %d R\n", root.GetID(), root.GetGen())
	if infoID != 0 {
		fmt.Fprintf(w.out, "  /Info %d 0 R\n", infoID)
	}
	fmt.Fprintf(w.out, "  /Prev %d\n", w.reader.XrefInformation.StartPos)
	w.writeIDEntry()
	w.out.Write([]byte(">>\n"))
}

// writeXrefStream writes a cross-reference stream as its own new object,
// with no PNG predictor (plain FlateDecode, /W [1 4 1]), mirroring the
// simpler of the teacher's two xref-stream writers.
func (w *writer) writeXrefStream() error {
	streamObjID := w.allocID()
	offset := int64(w.out.Buff.Len())

	var raw bytes.Buffer
	index := make([]uint32, 0, 2*(len(w.updated)+2))
	for _, e := range w.updated {
		writeXrefStreamLine(&raw, e.offset)
		index = append(index, e.id, 1)
	}

	addedStart := streamObjID
	addedCount := uint32(1)
	if len(w.added) > 0 {
		addedStart = w.added[0].id
		addedCount = uint32(len(w.added)) + 1
		for _, e := range w.added {
			writeXrefStreamLine(&raw, e.offset)
		}
	}
	writeXrefStreamLine(&raw, offset) // the xref stream object itself
	index = append(index, addedStart, addedCount)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compressing xref stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing xref stream: %w", err)
	}

	root := w.reader.Trailer().Key("Root").GetPtr()
	size := w.nextID
	if cur := uint32(w.reader.XrefInformation.ItemCount); cur > size {
		size = cur
	}

	fmt.Fprintf(w.out, "%d 0 obj\n<< /Type /XRef\n", streamObjID)
	fmt.Fprintf(w.out, "  /Length %d\n", compressed.Len())
	w.out.Write([]byte("  /Filter /FlateDecode\n"))
	w.out.Write([]byte("  /W [ 1 4 1 ]\n"))
	fmt.Fprintf(w.out, "  /Prev %d\n", w.reader.XrefInformation.StartPos)
	fmt.Fprintf(w.out, "  /Size %d\n", size)
	w.out.Write([]byte("  /Index ["))
	for _, v := range index {
		fmt.Fprintf(w.out, " %d", v)
	}
	w.out.Write([]byte(" ]\n"))
	fmt.Fprintf(w.out, "  /Root %d 0 R\n", root.GetID())
	if infoID := w.resolvedInfoID(); infoID != 0 {
		fmt.Fprintf(w.out, "  /Info %d 0 R\n", infoID)
	}
	w.writeIDEntry()
	w.out.Write([]byte(">>\nstream\n"))
	w.out.Write(compressed.Bytes())
	w.out.Write([]byte("\nendstream\nendobj\n"))

	w.xrefStreamOffset = offset
	return nil
}

func (w *writer) writeIDEntry() {
	id := w.reader.Trailer().Key("ID")
	if id.IsNull() || id.Kind() != pdflib.Array || id.Len() != 2 {
		return
	}
	id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
	id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
	fmt.Fprintf(w.out, "  /ID [<%s><%s>]\n", id0, id1)
}

func (w *writer) resolvedInfoID() uint32 {
	if w.infoID != 0 {
		return w.infoID
	}
	ptr := w.reader.Trailer().Key("Info").GetPtr()
	return ptr.GetID()
}

func writeXrefStreamLine(b *bytes.Buffer, offset int64) {
	b.WriteByte(1) // type 1: object in use at this offset
	var off [4]byte
	binary.BigEndian.PutUint32(off[:], uint32(offset))
	b.Write(off[:])
	b.WriteByte(0) // generation
}
