package mutate

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
)

// writeXrefStream writes the update's cross-reference section as a stream
// object, for sources that use cross-reference streams themselves. The stream
// object also serves as the trailer.
func (w *updateWriter) writeXrefStream() error {
	// The stream lists itself, so reserve its object number first.
	selfID := w.nextID()
	selfOffset := w.offset()

	var entries bytes.Buffer
	for _, entry := range w.updatedXrefEntries {
		writeXrefStreamLine(&entries, 1, entry.Offset, entry.Gen)
	}
	for _, entry := range w.newXrefEntries {
		writeXrefStreamLine(&entries, 1, entry.Offset, 0)
	}
	writeXrefStreamLine(&entries, 1, selfOffset, 0)

	streamBytes, err := encodeXrefStream(entries.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var index []uint32
	for _, entry := range w.updatedXrefEntries {
		index = append(index, entry.ID, 1)
	}
	index = append(index, w.firstNewID, uint32(len(w.newXrefEntries)+1))

	var obj bytes.Buffer
	obj.WriteString("<<\n")
	obj.WriteString("  /Type /XRef\n")
	// Size must account for the stream object itself.
	w.newXrefEntries = append(w.newXrefEntries, xrefEntry{ID: selfID, Offset: selfOffset})
	w.writeTrailerEntries(&obj)
	obj.WriteString("  /W [ 1 4 2 ]\n")
	obj.WriteString("  /Index [")
	for _, idx := range index {
		fmt.Fprintf(&obj, " %d", idx)
	}
	obj.WriteString(" ]\n")
	obj.WriteString("  /Filter /FlateDecode\n")
	fmt.Fprintf(&obj, "  /Length %d\n", len(streamBytes))
	obj.WriteString(">>\nstream\n")
	obj.Write(streamBytes)
	obj.WriteString("\nendstream")

	if err := w.writeObject(selfID, 0, obj.Bytes()); err != nil {
		return fmt.Errorf("failed to write xref stream: %w", err)
	}

	if _, err := fmt.Fprintf(w.output, "startxref\n%d\n%%%%EOF\n", selfOffset); err != nil {
		return fmt.Errorf("failed to write startxref: %w", err)
	}
	return nil
}

// writeXrefStreamLine writes one entry with field widths 1, 4 and 2.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int64, gen uint16) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	genBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(genBytes, gen)
	b.Write(genBytes)
}

func encodeXrefStream(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
