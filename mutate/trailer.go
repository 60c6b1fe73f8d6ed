package mutate

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// writeTrailerEntries writes the trailer keys shared by table and stream
// cross-reference sections.
func (w *updateWriter) writeTrailerEntries(buf *bytes.Buffer) {
	trailer := w.reader.Trailer()

	fmt.Fprintf(buf, "  /Size %d\n", w.nextID())
	fmt.Fprintf(buf, "  /Prev %d\n", w.reader.XrefInformation.StartPos)

	root := trailer.Key("Root").GetPtr()
	fmt.Fprintf(buf, "  /Root %d %d R\n", root.GetID(), root.GetGen())

	if info := trailer.Key("Info"); !info.IsNull() {
		ptr := info.GetPtr()
		if ptr.GetID() > 0 {
			fmt.Fprintf(buf, "  /Info %d %d R\n", ptr.GetID(), ptr.GetGen())
		}
	}

	if id := trailer.Key("ID"); id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(buf, "  /ID [<%s><%s>]\n", id0, id1)
	}
}

// writeTrailer writes the trailer dictionary for a cross-reference table
// starting at xrefStart, followed by startxref and %%EOF.
func (w *updateWriter) writeTrailer(xrefStart int64) error {
	var buf bytes.Buffer
	buf.WriteString("trailer\n<<\n")
	w.writeTrailerEntries(&buf)
	buf.WriteString(">>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	if _, err := w.output.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	return nil
}
