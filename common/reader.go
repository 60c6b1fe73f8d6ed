package common

import (
	"bytes"
	"fmt"

	"github.com/digitorus/pdf"
)

// ReadPages parses data and returns the reader together with the page
// dictionaries in document order. Malformed, encrypted and empty documents
// fail with an error matching ErrParseFailure.
func ReadPages(data []byte) (rdr *pdf.Reader, pages []pdf.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			rdr, pages, err = nil, nil, Wrap(ErrParseFailure, "malformed document", fmt.Errorf("%v", r))
		}
	}()

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\n\f\r "), []byte("%PDF-")) {
		return nil, nil, Errorf(ErrParseFailure, "missing %%PDF header")
	}

	rdr, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, Wrap(ErrParseFailure, "failed to read document", err)
	}
	if !rdr.Trailer().Key("Encrypt").IsNull() {
		return nil, nil, Errorf(ErrParseFailure, "encrypted documents are not supported")
	}

	count := rdr.NumPage()
	if count < 1 {
		return nil, nil, Errorf(ErrParseFailure, "document has no pages")
	}

	pages = make([]pdf.Value, count)
	for i := range pages {
		page := rdr.Page(i + 1).V
		if page.Kind() != pdf.Dict {
			return nil, nil, Errorf(ErrParseFailure, "page %d is not a dictionary", i+1)
		}
		pages[i] = page
	}
	return rdr, pages, nil
}
