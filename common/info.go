package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/digitorus/pdf"
)

// DocumentInfo contains the metadata of a loaded document.
type DocumentInfo struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`

	Pages        int       `json:"pages"`
	Keywords     []string  `json:"keywords,omitempty"`
	ModDate      time.Time `json:"mod_date,omitempty"`
	CreationDate time.Time `json:"creation_date,omitempty"`
}

// ParseDocumentInfo reads the Info dictionary referenced from a trailer.
func ParseDocumentInfo(info pdf.Value, pages int) DocumentInfo {
	di := DocumentInfo{Pages: pages}
	if info.Kind() != pdf.Dict {
		return di
	}

	di.Title = info.Key("Title").Text()
	di.Author = info.Key("Author").Text()
	di.Subject = info.Key("Subject").Text()
	di.Creator = info.Key("Creator").Text()
	di.Producer = info.Key("Producer").Text()

	if kw := info.Key("Keywords"); !kw.IsNull() {
		di.Keywords = parseKeywords(kw.Text())
	}
	if d := info.Key("CreationDate"); !d.IsNull() {
		di.CreationDate, _ = ParseDate(d.Text())
	}
	if d := info.Key("ModDate"); !d.IsNull() {
		di.ModDate, _ = ParseDate(d.Text())
	}
	return di
}

// ParseDate parses a PDF date string (D:YYYYMMDDHHmmSSOHH'mm'). Trailing
// fields may be omitted; a missing offset means UTC.
func ParseDate(v string) (time.Time, error) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "D:")

	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	digits, rest := s[:n], s[n:]
	if n < 4 || n > 14 || n%2 != 0 {
		return time.Time{}, fmt.Errorf("invalid PDF date %q", v)
	}

	t, err := time.Parse("20060102150405"[:n], digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid PDF date %q: %w", v, err)
	}

	loc := time.UTC
	if rest != "" {
		switch rest[0] {
		case 'Z':
		case '+', '-':
			parts := strings.FieldsFunc(rest[1:], func(r rune) bool { return r == '\'' })
			var hh, mm int
			if len(parts) > 0 {
				if hh, err = strconv.Atoi(parts[0]); err != nil {
					return time.Time{}, fmt.Errorf("invalid PDF date offset %q", v)
				}
			}
			if len(parts) > 1 {
				if mm, err = strconv.Atoi(parts[1]); err != nil {
					return time.Time{}, fmt.Errorf("invalid PDF date offset %q", v)
				}
			}
			offset := hh*3600 + mm*60
			if rest[0] == '-' {
				offset = -offset
			}
			loc = time.FixedZone("", offset)
		default:
			return time.Time{}, fmt.Errorf("invalid PDF date %q", v)
		}
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

// FormatDate formats t as a PDF date string.
func FormatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 {
		return t.Format("D:20060102150405") + "Z00'00'"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return t.Format("D:20060102150405") + sign +
		twoDigits(offset/3600) + "'" + twoDigits(offset%3600/60) + "'"
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10%10), byte('0' + n%10)})
}

// parseKeywords splits keywords on the first separator found.
func parseKeywords(value string) []string {
	separators := []string{", ", "; ", ",", ";", " "}
	for _, s := range separators {
		if strings.Contains(value, s) {
			return strings.Split(value, s)
		}
	}
	return []string{value}
}
