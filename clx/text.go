package clx

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes little-endian UTF-16. The x/text decoder replaces
// broken surrogates with U+FFFD, so pairs are validated first and an
// invalid sequence is reported instead.
func decodeUTF16(b []byte, offset int64) (string, error) {
	if len(b)%2 != 0 {
		return "", &TextError{Offset: offset, Reason: "odd byte count"}
	}

	for i := 0; i < len(b); i += 2 {
		u := uint16(b[i]) | uint16(b[i+1])<<8
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(b) {
				return "", &TextError{Offset: offset + int64(i), Reason: "truncated surrogate pair"}
			}
			next := uint16(b[i+2]) | uint16(b[i+3])<<8
			if next < 0xDC00 || next >= 0xE000 {
				return "", &TextError{Offset: offset + int64(i), Reason: "unpaired high surrogate"}
			}
			i += 2
		case u >= 0xDC00 && u < 0xE000:
			return "", &TextError{Offset: offset + int64(i), Reason: "unpaired low surrogate"}
		}
	}

	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", &TextError{Offset: offset, Reason: err.Error()}
	}
	return string(out), nil
}

// unitsUntilNull returns the byte length of the code units preceding the
// first null code unit of b, or -1 when b holds no null code unit.
func unitsUntilNull(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return -1
}
