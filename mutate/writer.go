package mutate

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot/internal/render"
	"github.com/mattetti/filebuffer"
)

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// updateWriter appends one incremental update to a copy of the source.
type updateWriter struct {
	reader *pdf.Reader
	output *filebuffer.Buffer

	// firstNewID is the first object number not used by the source.
	firstNewID uint32

	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry

	appearances *render.Renderer
}

func newUpdateWriter(rdr *pdf.Reader, data []byte) (*updateWriter, error) {
	w := &updateWriter{
		reader: rdr,
		output: filebuffer.New([]byte{}),
	}

	size := rdr.Trailer().Key("Size").Int64()
	if count := rdr.XrefInformation.ItemCount; count > size {
		size = count
	}
	if size < 1 {
		return nil, fmt.Errorf("invalid cross-reference size %d", size)
	}
	w.firstNewID = uint32(size)

	if _, err := w.output.Write(data); err != nil {
		return nil, err
	}
	// The update has to start on a new line after %%EOF.
	if !bytes.HasSuffix(data, []byte("\n")) {
		if _, err := w.output.Write([]byte("\n")); err != nil {
			return nil, err
		}
	}

	w.appearances = render.NewRenderer(w)
	return w, nil
}

func (w *updateWriter) offset() int64 {
	return int64(w.output.Buff.Len())
}

func (w *updateWriter) nextID() uint32 {
	return w.firstNewID + uint32(len(w.newXrefEntries))
}

func (w *updateWriter) writeObject(id uint32, gen uint16, data []byte) error {
	if _, err := fmt.Fprintf(w.output, "%d %d obj\n", id, gen); err != nil {
		return err
	}
	if _, err := w.output.Write(bytes.TrimRight(data, "\n")); err != nil {
		return err
	}
	if _, err := w.output.Write([]byte("\nendobj\n")); err != nil {
		return err
	}
	return nil
}

// AddObject writes a new indirect object and returns its object number.
func (w *updateWriter) AddObject(data []byte) (uint32, error) {
	id := w.nextID()
	entry := xrefEntry{ID: id, Offset: w.offset()}
	if err := w.writeObject(id, 0, data); err != nil {
		return 0, fmt.Errorf("failed to write object %d: %w", id, err)
	}
	w.newXrefEntries = append(w.newXrefEntries, entry)
	return id, nil
}

// UpdateObject writes a new revision of an existing object.
func (w *updateWriter) UpdateObject(id uint32, gen uint16, data []byte) error {
	entry := xrefEntry{ID: id, Gen: gen, Offset: w.offset()}
	if err := w.writeObject(id, gen, data); err != nil {
		return fmt.Errorf("failed to update object %d: %w", id, err)
	}
	w.updatedXrefEntries = append(w.updatedXrefEntries, entry)
	return nil
}

// finish writes the cross-reference section and trailer.
func (w *updateWriter) finish() error {
	w.sortUpdated()
	switch w.reader.XrefInformation.Type {
	case "stream":
		return w.writeXrefStream()
	default:
		xrefStart := w.offset()
		if err := w.writeIncrXrefTable(); err != nil {
			return err
		}
		return w.writeTrailer(xrefStart)
	}
}

// sortUpdated orders the rewritten objects by object number, as subsections
// must be ascending. Pages are rewritten in page order, which need not match.
// If an object was rewritten more than once only the last revision is kept.
func (w *updateWriter) sortUpdated() {
	slices.SortStableFunc(w.updatedXrefEntries, func(a, b xrefEntry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	kept := w.updatedXrefEntries[:0]
	for _, entry := range w.updatedXrefEntries {
		if n := len(kept); n > 0 && kept[n-1].ID == entry.ID {
			kept[n-1] = entry
			continue
		}
		kept = append(kept, entry)
	}
	w.updatedXrefEntries = kept
}

func (w *updateWriter) bytes() []byte {
	return append([]byte(nil), w.output.Buff.Bytes()...)
}
