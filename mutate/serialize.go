package mutate

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot/internal/render"
)

// writeValue serializes v. Values that were reached through an indirect
// reference are written as a reference instead of being inlined; container is
// the object number of the value holding v.
func writeValue(buf *bytes.Buffer, v pdf.Value, container uint32, depth int) {
	ptr := v.GetPtr()
	if id := uint32(ptr.GetID()); depth > 0 && id != 0 && id != container {
		fmt.Fprintf(buf, "%d %d R", id, ptr.GetGen())
		return
	}
	if depth > 32 {
		buf.WriteString("null")
		return
	}

	self := uint32(ptr.GetID())
	switch v.Kind() {
	case pdf.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case pdf.Integer:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdf.Real:
		buf.WriteString(render.FormatNumber(v.Float64()))
	case pdf.String:
		buf.WriteString("<" + hex.EncodeToString([]byte(v.RawString())) + ">")
	case pdf.Name:
		buf.WriteString(pdfName(v.Name()))
	case pdf.Array:
		buf.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteString(" ")
			}
			writeValue(buf, v.Index(i), self, depth+1)
		}
		buf.WriteString("]")
	case pdf.Dict:
		buf.WriteString("<<")
		for _, key := range v.Keys() {
			buf.WriteString(" " + pdfName(key) + " ")
			writeValue(buf, v.Key(key), self, depth+1)
		}
		buf.WriteString(" >>")
	default:
		// Streams are always indirect and handled above.
		buf.WriteString("null")
	}
}

// pdfName writes a name object, escaping delimiters and non-regular characters.
func pdfName(name string) string {
	var b bytes.Buffer
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || c == '#' || bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0 {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// addAnnotsToPage writes a new revision of page with annots appended to its
// /Annots array.
func (w *updateWriter) addAnnotsToPage(page pdf.Value, annots []uint32) error {
	ptr := page.GetPtr()
	pageID := uint32(ptr.GetID())
	if pageID == 0 {
		return fmt.Errorf("page is not an indirect object")
	}

	var buf bytes.Buffer
	buf.WriteString("<<\n")

	for _, key := range page.Keys() {
		// Type is forced below and Annots is rebuilt.
		if key == "Annots" || key == "Type" {
			continue
		}
		buf.WriteString("  " + pdfName(key) + " ")
		writeValue(&buf, page.Key(key), pageID, 1)
		buf.WriteString("\n")
	}
	buf.WriteString("  /Type /Page\n")

	buf.WriteString("  /Annots [")
	existing := page.Key("Annots")
	if existing.Kind() == pdf.Array {
		// The array itself may be indirect; its entries are kept either way.
		arrayID := uint32(existing.GetPtr().GetID())
		for i := 0; i < existing.Len(); i++ {
			buf.WriteString(" ")
			writeValue(&buf, existing.Index(i), arrayID, 1)
		}
	}
	for _, id := range annots {
		fmt.Fprintf(&buf, " %d 0 R", id)
	}
	buf.WriteString(" ]\n")
	buf.WriteString(">>")

	return w.UpdateObject(pageID, uint16(ptr.GetGen()), buf.Bytes())
}
