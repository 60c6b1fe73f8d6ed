package mutate

import (
	"fmt"
)

// writeIncrXrefTable writes the incremental cross-reference table.
func (w *updateWriter) writeIncrXrefTable() error {
	if _, err := w.output.Write([]byte("xref\n")); err != nil {
		return fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	// Updated objects each get a subsection of their own.
	for _, entry := range w.updatedXrefEntries {
		if _, err := fmt.Fprintf(w.output, "%d 1\n", entry.ID); err != nil {
			return fmt.Errorf("failed to write updated xref object: %w", err)
		}
		if _, err := fmt.Fprintf(w.output, "%010d %05d n\r\n", entry.Offset, entry.Gen); err != nil {
			return fmt.Errorf("failed to write updated incremental xref entry: %w", err)
		}
	}

	if len(w.newXrefEntries) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w.output, "%d %d\n", w.firstNewID, len(w.newXrefEntries)); err != nil {
		return fmt.Errorf("failed to write starting xref object: %w", err)
	}
	for _, entry := range w.newXrefEntries {
		if _, err := fmt.Fprintf(w.output, "%010d 00000 n\r\n", entry.Offset); err != nil {
			return fmt.Errorf("failed to write incremental xref entry: %w", err)
		}
	}

	return nil
}
