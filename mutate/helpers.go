package mutate

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", `\r`)

// pdfString writes s as a literal text string. Anything beyond ASCII is
// re-encoded as UTF-16BE with a byte order mark.
func pdfString(s string) string {
	if !isASCII(s) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		if u, _, err := transform.String(enc, s); err == nil {
			s = u
		}
	}
	return "(" + literalEscaper.Replace(s) + ")"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
