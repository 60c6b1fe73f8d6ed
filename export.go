package pdfannot

import (
	"context"

	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/export"
	"github.com/digitorus/pdfannot/files"
)

// Export writes every annotation into a copy of the loaded document. Each
// export starts from the original bytes. Failures leave the session
// untouched and match ErrExportFailure unless ctx ended.
func (e *Editor) Export(ctx context.Context) (Output, error) {
	if !e.loaded() {
		return Output{}, ErrNoDocument
	}

	doc := e.mutable.Fork()
	if err := export.Encode(ctx, doc, e.pages); err != nil {
		return Output{}, e.exportFailed(err)
	}
	data, err := doc.Save()
	if err != nil {
		return Output{}, e.exportFailed(common.Wrap(common.ErrExportFailure, "failed to save document", err))
	}

	out := Output{Name: files.EditedName(e.name), MIME: files.MIMEType, Data: data}
	e.logger.Info("document exported", "name", out.Name, "bytes", len(data), "staged", doc.Staged())
	return out, nil
}

func (e *Editor) exportFailed(err error) error {
	e.lastErr = err
	e.logger.Error("export failed", "name", e.name, "error", err)
	return err
}
