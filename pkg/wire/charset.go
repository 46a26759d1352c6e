package wire

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// ToWire converts UTF-8 text into the single-byte ISO-8859-1 wire encoding.
// Characters outside ISO-8859-1 are rejected.
func ToWire(s string) (string, error) {
	if isASCII(s) {
		return s, nil
	}
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("wire: text not representable in ISO-8859-1: %w", err)
	}
	return out, nil
}

// FromWire converts ISO-8859-1 wire text back into UTF-8.
func FromWire(s string) string {
	if isASCII(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		// every byte is a valid ISO-8859-1 character
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
