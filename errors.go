package pdfannot

import (
	"errors"

	"github.com/digitorus/pdfannot/common"
)

// Error categories. Errors returned by the Editor match one of these with
// errors.Is where applicable.
var (
	ErrInvalidFileType   = common.ErrInvalidFileType
	ErrFileTooLarge      = common.ErrFileTooLarge
	ErrLoaderUnavailable = common.ErrLoaderUnavailable
	ErrParseFailure      = common.ErrParseFailure
	ErrRenderFailure     = common.ErrRenderFailure
	ErrExportFailure     = common.ErrExportFailure

	// ErrLoadInProgress rejects a Load while another is running.
	ErrLoadInProgress = errors.New("a document is already loading")
	// ErrNoDocument is returned by operations that need a loaded document.
	ErrNoDocument = errors.New("no document loaded")
	// ErrNotReady is returned while the editor waits for text input.
	ErrNotReady = errors.New("editor is not ready")
	// ErrNoPendingText is returned by SubmitText outside text input.
	ErrNoPendingText = errors.New("no text input pending")
	// ErrPageOutOfRange is returned for page numbers outside the document.
	ErrPageOutOfRange = errors.New("page out of range")
)
