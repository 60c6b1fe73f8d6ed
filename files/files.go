// Package files validates uploaded documents and names exported copies.
package files

import (
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/digitorus/pdfannot/common"
)

const (
	// MIMEType is the only accepted content type.
	MIMEType = "application/pdf"
	// Extension is the only accepted file name extension, compared without
	// regard to case.
	Extension = ".pdf"
	// MaxSize is the default upload limit in bytes.
	MaxSize = 50 * 1024 * 1024
	// EditedSuffix is appended to the stem of exported files.
	EditedSuffix = "_edited"
)

// Validate checks an upload before it is parsed. A limit of zero or less
// selects MaxSize. Errors match common.ErrInvalidFileType or
// common.ErrFileTooLarge.
func Validate(name, mimeType string, size, limit int64) error {
	if limit <= 0 {
		limit = MaxSize
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil || mt != MIMEType {
		return common.Errorf(common.ErrInvalidFileType, "please select a PDF file, got %q", mimeType)
	}
	if size > limit {
		return common.Errorf(common.ErrFileTooLarge, "maximum size is %s, got %s", FormatSize(limit), FormatSize(size))
	}
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		return common.Errorf(common.ErrInvalidFileType, "file must have a %s extension", Extension)
	}
	return nil
}

// DetectMIME sniffs the content type of data.
func DetectMIME(data []byte) string {
	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

func stem(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EditedName returns the download name of an exported copy of name.
func EditedName(name string) string {
	s := stem(name)
	if s == "" {
		s = "document"
	}
	return s + EditedSuffix + Extension
}

// UniqueName is EditedName with a UTC timestamp, so repeated exports do not
// collide.
func UniqueName(name string, now time.Time) string {
	s := stem(name)
	if s == "" {
		s = "document"
	}
	return s + EditedSuffix + "_" + now.UTC().Format("2006-01-02T15-04-05") + Extension
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize formats a byte count with binary multiples and at most two
// decimals, for example "1.5 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// TruncateName shortens names longer than limit characters, keeping the
// extension and marking the cut with an ellipsis.
func TruncateName(name string, limit int) string {
	if len([]rune(name)) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	base := []rune(strings.TrimSuffix(name, ext))
	keep := min(max(limit-len([]rune(ext))-3, 1), len(base))
	return string(base[:keep]) + "..." + ext
}
