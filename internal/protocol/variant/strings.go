package variant

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// QString payloads are UTF-16BE without a byte order mark.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// The x/text transcoder substitutes U+FFFD for malformed input, so both
// directions validate first and report the fault instead.

func encodeUTF16(s string) ([]byte, error) {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, MalformedStringError{Offset: i, Reason: "invalid UTF-8"}
		}
		i += size
	}
	return utf16BE.NewEncoder().Bytes([]byte(s))
}

func decodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", MalformedStringError{Offset: len(b) - 1, Reason: "odd byte length"}
	}
	for i := 0; i < len(b); i += 2 {
		unit := uint16(b[i])<<8 | uint16(b[i+1])
		switch {
		case unit >= 0xD800 && unit < 0xDC00:
			if i+3 >= len(b) {
				return "", MalformedStringError{Offset: i, Reason: "unpaired high surrogate"}
			}
			next := uint16(b[i+2])<<8 | uint16(b[i+3])
			if next < 0xDC00 || next > 0xDFFF {
				return "", MalformedStringError{Offset: i, Reason: "unpaired high surrogate"}
			}
			i += 2
		case unit >= 0xDC00 && unit <= 0xDFFF:
			return "", MalformedStringError{Offset: i, Reason: "unpaired low surrogate"}
		}
	}
	out, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
