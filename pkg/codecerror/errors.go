// Package codecerror defines the errors reported by the HBCI message codec.
//
// Every failure of a generate or parse call is an *Error carrying a Kind code,
// the path of the offending element and, where it applies, the expected and
// actual values. Callers match kinds with errors.Is against the sentinel
// values below or extract the kind with KindOf.
package codecerror

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a codec failure.
type Kind string

const (
	// KindNoSuchPath indicates a generation target that cannot be resolved or created.
	KindNoSuchPath Kind = "no-such-path"
	// KindOverwriteNotAllowed indicates a second write to an already assigned leaf.
	KindOverwriteNotAllowed Kind = "overwrite-not-allowed"
	// KindNoValueGiven indicates a required leaf without value at validation time.
	KindNoValueGiven Kind = "no-value-given"
	// KindNoValidValue indicates a value outside the enumerated valid set.
	KindNoValidValue Kind = "no-valid-value"
	// KindSizeConstraintViolated indicates a value shorter or longer than allowed.
	KindSizeConstraintViolated Kind = "size-constraint-violated"
	// KindInvalidBinaryFormat indicates a binary value whose format tag is neither N nor B.
	KindInvalidBinaryFormat Kind = "invalid-binary-format"
	// KindPredelimiterMismatch indicates an unexpected character where a delimiter was required.
	KindPredelimiterMismatch Kind = "predelimiter-mismatch"
	// KindUnexpectedEndOfInput indicates the input ended inside an element.
	KindUnexpectedEndOfInput Kind = "unexpected-end-of-input"
	// KindPredefinedValueMismatch indicates a parsed value that conflicts with a schema-fixed value.
	KindPredefinedValueMismatch Kind = "predefined-value-mismatch"
	// KindInvalidSegmentSequence indicates segment numbers that are not 1, 2, 3, ...
	KindInvalidSegmentSequence Kind = "invalid-segment-sequence"
	// KindInvalidValue indicates a value that does not match the syntax of its data type.
	KindInvalidValue Kind = "invalid-value"
	// KindUnknownType indicates a message or type name the schema does not define.
	KindUnknownType Kind = "unknown-type"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNoSuchPath              = &Error{Kind: KindNoSuchPath}
	ErrOverwriteNotAllowed     = &Error{Kind: KindOverwriteNotAllowed}
	ErrNoValueGiven            = &Error{Kind: KindNoValueGiven}
	ErrNoValidValue            = &Error{Kind: KindNoValidValue}
	ErrSizeConstraintViolated  = &Error{Kind: KindSizeConstraintViolated}
	ErrInvalidBinaryFormat     = &Error{Kind: KindInvalidBinaryFormat}
	ErrPredelimiterMismatch    = &Error{Kind: KindPredelimiterMismatch}
	ErrUnexpectedEndOfInput    = &Error{Kind: KindUnexpectedEndOfInput}
	ErrPredefinedValueMismatch = &Error{Kind: KindPredefinedValueMismatch}
	ErrInvalidSegmentSequence  = &Error{Kind: KindInvalidSegmentSequence}
	ErrInvalidValue            = &Error{Kind: KindInvalidValue}
	ErrUnknownType             = &Error{Kind: KindUnknownType}
)

// Error is a codec failure bound to one element path.
type Error struct {
	Kind     Kind
	Path     string
	Expected string
	Actual   string
	Min      int
	Max      int
	// Offset is the input position of a parse failure, -1 when not parsing.
	Offset int
	Err    error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNoSuchPath:
		msg = fmt.Sprintf("no such path '%s'", e.Path)
	case KindOverwriteNotAllowed:
		msg = fmt.Sprintf("%s: value '%s' already set, refusing to overwrite with '%s'", e.Path, e.Expected, e.Actual)
	case KindNoValueGiven:
		msg = fmt.Sprintf("%s: no value given", e.Path)
	case KindNoValidValue:
		msg = fmt.Sprintf("%s: '%s' is not a valid value (valid: %s)", e.Path, e.Actual, e.Expected)
	case KindSizeConstraintViolated:
		msg = fmt.Sprintf("%s: '%s' violates size constraint [%d..%s]", e.Path, e.Actual, e.Min, formatMax(e.Max))
	case KindInvalidBinaryFormat:
		msg = fmt.Sprintf("%s: invalid binary format tag '%s' (expected N or B)", e.Path, e.Actual)
	case KindPredelimiterMismatch:
		msg = fmt.Sprintf("%s: expected '%s' but found '%s'", e.Path, e.Expected, e.Actual)
	case KindUnexpectedEndOfInput:
		msg = fmt.Sprintf("%s: unexpected end of input", e.Path)
	case KindPredefinedValueMismatch:
		msg = fmt.Sprintf("%s: predefined value '%s' does not match '%s'", e.Path, e.Expected, e.Actual)
	case KindInvalidSegmentSequence:
		msg = fmt.Sprintf("%s: segment sequence number '%s' found, expected '%s'", e.Path, e.Actual, e.Expected)
	case KindInvalidValue:
		msg = fmt.Sprintf("%s: invalid value '%s'", e.Path, e.Actual)
	case KindUnknownType:
		msg = fmt.Sprintf("unknown type '%s'", e.Path)
	default:
		msg = fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	if e.Offset >= 0 && isParseKind(e.Kind) {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// IsStructural reports whether err only says that an element is not present at
// the current input position.
func IsStructural(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindPredelimiterMismatch || k == KindUnexpectedEndOfInput)
}

func isParseKind(k Kind) bool {
	switch k {
	case KindPredelimiterMismatch, KindUnexpectedEndOfInput, KindPredefinedValueMismatch:
		return true
	}
	return false
}

func formatMax(max int) string {
	if max <= 0 {
		return "*"
	}
	return fmt.Sprintf("%d", max)
}

// NoSuchPath reports a path that names no element of the tree.
func NoSuchPath(path string) *Error {
	return &Error{Kind: KindNoSuchPath, Path: path, Offset: -1}
}

// OverwriteNotAllowed reports an attempt to replace an assigned value.
func OverwriteNotAllowed(path, old, new string) *Error {
	return &Error{Kind: KindOverwriteNotAllowed, Path: path, Expected: old, Actual: new, Offset: -1}
}

// NoValueGiven reports a required leaf left without a value.
func NoValueGiven(path string) *Error {
	return &Error{Kind: KindNoValueGiven, Path: path, Offset: -1}
}

// NoValidValue reports a value outside the leaf's valid set.
func NoValidValue(path, value string, valids []string) *Error {
	return &Error{Kind: KindNoValidValue, Path: path, Actual: value, Expected: fmt.Sprintf("%v", valids), Offset: -1}
}

// SizeConstraintViolated reports a value whose wire size is out of bounds.
func SizeConstraintViolated(path, value string, min, max int) *Error {
	return &Error{Kind: KindSizeConstraintViolated, Path: path, Actual: value, Min: min, Max: max, Offset: -1}
}

// InvalidBinaryFormat reports a binary value without a known encoding tag.
func InvalidBinaryFormat(path, tag string) *Error {
	return &Error{Kind: KindInvalidBinaryFormat, Path: path, Actual: tag, Offset: -1}
}

// PredelimiterMismatch reports an unexpected character where a delimiter belongs.
func PredelimiterMismatch(path, expected, found string, offset int) *Error {
	return &Error{Kind: KindPredelimiterMismatch, Path: path, Expected: expected, Actual: found, Offset: offset}
}

// UnexpectedEndOfInput reports input that ended inside an element.
func UnexpectedEndOfInput(path string, offset int) *Error {
	return &Error{Kind: KindUnexpectedEndOfInput, Path: path, Offset: offset}
}

// PredefinedValueMismatch reports a fixed value that differs on the wire.
func PredefinedValueMismatch(path, expected, actual string, offset int) *Error {
	return &Error{Kind: KindPredefinedValueMismatch, Path: path, Expected: expected, Actual: actual, Offset: offset}
}

// InvalidSegmentSequence reports a segment number out of wire order.
func InvalidSegmentSequence(path, expected, found string) *Error {
	return &Error{Kind: KindInvalidSegmentSequence, Path: path, Expected: expected, Actual: found, Offset: -1}
}

// InvalidValue wraps a data type syntax error for the leaf at path.
func InvalidValue(path, value string, err error) *Error {
	return &Error{Kind: KindInvalidValue, Path: path, Actual: value, Err: err, Offset: -1}
}

// UnknownType reports a type id missing from the schema.
func UnknownType(name string) *Error {
	return &Error{Kind: KindUnknownType, Path: name, Offset: -1}
}
