// Package datatype provides the leaf data types of the HBCI syntax.
//
// A schema leaf names its data type ("AN", "Num", "Wrt", "Bin", ...). The name
// is resolved once, when the schema is built, through a registry of
// constructors; the codec never dispatches on type names afterwards.
package datatype

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Type normalises values of one leaf data type.
type Type interface {
	// Name returns the registry name, e.g. "AN".
	Name() string
	// Binary reports whether values are framed as @len@bytes instead of quoted.
	Binary() bool
	// Normalize converts a caller-supplied value into its wire form.
	// minSize is the declared minimum size, used by padded types.
	Normalize(value string, minSize int) (string, error)
	// Check validates a value read from the wire.
	Check(value string) error
}

// Constructor creates a Type.
type Constructor func() Type

var (
	ErrUnknownType = errors.New("datatype: unknown type")
	ErrSyntax      = errors.New("datatype: syntax error")

	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a constructor under name. Registering a name twice replaces
// the previous constructor.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = c
}

// Lookup resolves a type by name.
func Lookup(name string) (Type, error) {
	mu.RLock()
	c, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return c(), nil
}

// Names returns all registered type names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Size returns the size of a wire value as counted by size constraints. Wire
// values are ISO-8859-1, one byte per character, so bytes are counted for
// every type.
func Size(_ Type, value string) int {
	return len(value)
}

func syntaxError(typ, value, reason string) error {
	return fmt.Errorf("%w: %s '%s': %s", ErrSyntax, typ, value, reason)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func init() {
	for _, name := range []string{"AN", "Code", "ID", "Ctr", "TAN"} {
		n := name
		Register(n, func() Type { return alphanumeric{name: n} })
	}
	Register("Cur", func() Type { return currency{} })
	Register("Num", func() Type { return numeric{} })
	Register("Dig", func() Type { return digits{} })
	Register("JN", func() Type { return yesNo{} })
	Register("Date", func() Type { return date{} })
	Register("Time", func() Type { return clock{} })
	Register("Wrt", func() Type { return amount{} })
	Register("Bin", func() Type { return binary{name: "Bin"} })
	Register("DTAUS", func() Type { return binary{name: "DTAUS"} })
}

// alphanumeric is free text. Surrounding whitespace is stripped on input.
type alphanumeric struct{ name string }

func (a alphanumeric) Name() string { return a.name }
func (alphanumeric) Binary() bool { return false }
func (alphanumeric) Check(string) error { return nil }

func (alphanumeric) Normalize(value string, _ int) (string, error) {
	return strings.TrimSpace(value), nil
}

type currency struct{}

func (currency) Name() string { return "Cur" }
func (currency) Binary() bool { return false }

func (c currency) Normalize(value string, _ int) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	return v, c.Check(v)
}

func (currency) Check(value string) error {
	if len(value) != 3 {
		return syntaxError("Cur", value, "expected three letters")
	}
	for i := 0; i < 3; i++ {
		if value[i] < 'A' || value[i] > 'Z' {
			return syntaxError("Cur", value, "expected three letters")
		}
	}
	return nil
}

// numeric is an unsigned integer without leading zeros.
type numeric struct{}

func (numeric) Name() string { return "Num" }
func (numeric) Binary() bool { return false }

func (numeric) Normalize(value string, _ int) (string, error) {
	v := strings.TrimSpace(value)
	if !isDigits(v) {
		return "", syntaxError("Num", value, "expected digits")
	}
	v = strings.TrimLeft(v, "0")
	if v == "" {
		v = "0"
	}
	return v, nil
}

func (numeric) Check(value string) error {
	if !isDigits(value) {
		return syntaxError("Num", value, "expected digits")
	}
	return nil
}

// digits is a digit string zero-padded to the declared minimum size.
type digits struct{}

func (digits) Name() string { return "Dig" }
func (digits) Binary() bool { return false }

func (digits) Normalize(value string, minSize int) (string, error) {
	v := strings.TrimSpace(value)
	if !isDigits(v) {
		return "", syntaxError("Dig", value, "expected digits")
	}
	if pad := minSize - len(v); pad > 0 {
		v = strings.Repeat("0", pad) + v
	}
	return v, nil
}

func (digits) Check(value string) error {
	if !isDigits(value) {
		return syntaxError("Dig", value, "expected digits")
	}
	return nil
}

type yesNo struct{}

func (yesNo) Name() string { return "JN" }
func (yesNo) Binary() bool { return false }

func (y yesNo) Normalize(value string, _ int) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch v {
	case "TRUE", "YES":
		v = "J"
	case "FALSE", "NO":
		v = "N"
	}
	return v, y.Check(v)
}

func (yesNo) Check(value string) error {
	if value != "J" && value != "N" {
		return syntaxError("JN", value, "expected J or N")
	}
	return nil
}
