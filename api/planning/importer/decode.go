package importer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cp1252Unassigned are the code points Microsoft leaves unassigned. The x/text
// table passes them through as C1 controls, so they are rejected explicitly.
var cp1252Unassigned = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

type decodeFunc func(raw []byte) (string, error)

// decoders accepts the usual spellings of each supported encoding.
var decoders = map[string]decodeFunc{
	"utf-8":        decodeUTF8,
	"utf8":         decodeUTF8,
	"windows-1252": decodeCharmap(charmap.Windows1252, cp1252Unassigned...),
	"cp1252":       decodeCharmap(charmap.Windows1252, cp1252Unassigned...),
	"iso-8859-1":   decodeCharmap(charmap.ISO8859_1),
	"latin-1":      decodeCharmap(charmap.ISO8859_1),
	"latin1":       decodeCharmap(charmap.ISO8859_1),
}

func decodeUTF8(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("invalid utf-8 sequence")
	}
	return string(raw), nil
}

// decodeCharmap rejects bytes the code page leaves undefined instead of letting
// the decoder substitute them.
func decodeCharmap(cm *charmap.Charmap, unassigned ...byte) decodeFunc {
	return func(raw []byte) (string, error) {
		for i, b := range raw {
			if b < utf8.RuneSelf {
				continue
			}
			if cm.DecodeByte(b) == utf8.RuneError || bytes.IndexByte(unassigned, b) >= 0 {
				return "", fmt.Errorf("undefined byte 0x%02x at offset %d", b, i)
			}
		}
		out, err := cm.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// decodeText tries each encoding in order and returns the first clean decode
// along with the encoding name that produced it.
func decodeText(raw []byte, encodings []string) (string, string, error) {
	for _, name := range encodings {
		dec, ok := decoders[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if text, err := dec(raw); err == nil {
			return text, name, nil
		}
	}
	return "", "", ErrUndecodable
}

// KnownEncoding reports whether name is accepted in the encoding list.
func KnownEncoding(name string) bool {
	_, ok := decoders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
