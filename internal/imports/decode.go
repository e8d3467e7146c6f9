package imports

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeSource turns raw file bytes into UTF-8 source text without ever failing:
// invalid UTF-8 sequences are dropped, a leading byte order mark is removed and
// line endings are normalized to "\n".
func DecodeSource(raw []byte) []byte {
	text := bytes.ToValidUTF8(raw, nil)

	if stripped, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), text); err == nil {
		text = stripped
	}

	if bytes.IndexByte(text, '\r') >= 0 {
		text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
		text = bytes.ReplaceAll(text, []byte("\r"), []byte("\n"))
	}
	return text
}
