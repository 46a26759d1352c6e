// Package wire implements the low-level HBCI text syntax: reserved characters,
// escaping, binary length-prefixed values and delimiter-aware scanning.
//
// All functions operate on wire strings, where every byte is one character of
// the ISO-8859-1 wire encoding. Use ToWire and FromWire (charset.go) to convert
// caller-facing UTF-8 text.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reserved characters of the HBCI syntax.
const (
	SegmentTerminator byte = '\''
	ElementDelimiter  byte = '+'
	GroupDelimiter    byte = ':'
	Escape            byte = '?'
	BinaryMarker      byte = '@'
)

var (
	ErrBadBinaryHeader = errors.New("wire: malformed binary length header")
	ErrShortBinary     = errors.New("wire: binary value shorter than declared length")
	ErrDanglingEscape  = errors.New("wire: escape character at end of input")
)

// IsReserved reports whether c must be escaped inside an alphanumeric value.
func IsReserved(c byte) bool {
	switch c {
	case SegmentTerminator, ElementDelimiter, GroupDelimiter, Escape, BinaryMarker:
		return true
	}
	return false
}

// IsDelimiter reports whether c ends an alphanumeric value.
func IsDelimiter(c byte) bool {
	return c == SegmentTerminator || c == ElementDelimiter || c == GroupDelimiter
}

// Quote prefixes every reserved character of s with the escape character.
func Quote(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if IsReserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + n)
	for i := 0; i < len(s); i++ {
		if IsReserved(s[i]) {
			b.WriteByte(Escape)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Unquote removes escape characters, keeping the character each one protects.
// A trailing lone escape is kept as-is.
func Unquote(s string) string {
	if strings.IndexByte(s, Escape) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == Escape && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ScanValue returns the end offset of the alphanumeric value starting at pos:
// the index of the next unescaped delimiter, or len(input).
func ScanValue(input string, pos int) (int, error) {
	for i := pos; i < len(input); i++ {
		c := input[i]
		if c == Escape {
			if i+1 >= len(input) {
				return i, ErrDanglingEscape
			}
			i++
			continue
		}
		if IsDelimiter(c) {
			return i, nil
		}
	}
	return len(input), nil
}

// EncodeBinary frames raw bytes as @<length>@<bytes>.
func EncodeBinary(raw string) string {
	return string(BinaryMarker) + strconv.Itoa(len(raw)) + string(BinaryMarker) + raw
}

// DecodeBinary reads a binary value starting at pos, which must point at the
// opening marker. The raw bytes are returned verbatim together with the offset
// following them; delimiter characters inside the bytes are not special.
func DecodeBinary(input string, pos int) (string, int, error) {
	if pos >= len(input) || input[pos] != BinaryMarker {
		return "", pos, ErrBadBinaryHeader
	}
	end := strings.IndexByte(input[pos+1:], BinaryMarker)
	if end <= 0 {
		return "", pos, ErrBadBinaryHeader
	}
	digits := input[pos+1 : pos+1+end]
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return "", pos, fmt.Errorf("%w: '%s'", ErrBadBinaryHeader, digits)
	}
	start := pos + 1 + end + 1
	if start+n > len(input) {
		return "", pos, ErrShortBinary
	}
	return input[start : start+n], start + n, nil
}

// PeekSegmentHead extracts the code and version of the segment starting at
// pos without parsing it: the text up to the first unescaped element
// delimiter is split at group delimiters and fields 0 and 2 are returned.
func PeekSegmentHead(input string, pos int) (code, version string) {
	end := len(input)
	for i := pos; i < len(input); i++ {
		c := input[i]
		if c == Escape {
			i++
			continue
		}
		if c == ElementDelimiter || c == SegmentTerminator {
			end = i
			break
		}
	}
	if pos > end {
		return "", ""
	}
	parts := strings.Split(input[pos:end], string(GroupDelimiter))
	code = parts[0]
	if len(parts) > 2 {
		version = parts[2]
	}
	return code, version
}

// Describe renders the character at pos for error messages.
func Describe(input string, pos int) string {
	if pos >= len(input) {
		return "end of input"
	}
	return string(input[pos])
}
