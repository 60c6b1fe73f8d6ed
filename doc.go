// Package pdfannot is an in-memory PDF annotation session.
//
// An Editor holds one loaded document, the annotations drawn on its pages and
// the undo history. Front ends feed it pointer and keyboard events and ask it
// to render pages and export an annotated copy:
//
//	ed := pdfannot.New(raster.DefaultLoader(nil), pdfannot.Options{})
//	if err := ed.Load(ctx, pdfannot.File{Name: "report.pdf", Data: data}); err != nil {
//	    log.Fatal(err)
//	}
//
//	ed.SetTool(annotation.Rectangle)
//	ed.PointerDown(coords.Point{X: 40, Y: 40}, extent)
//	ed.PointerUp(coords.Point{X: 200, Y: 120}, extent)
//
//	out, err := ed.Export(ctx)
//
// Annotations are stored in unit coordinates, fractions of the page width and
// height measured from the top-left corner, so they do not depend on zoom.
// Exported annotations are written as PDF annotations with appearance
// streams in an incremental update, leaving the original bytes intact.
package pdfannot
