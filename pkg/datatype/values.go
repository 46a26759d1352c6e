package datatype

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	wireDate = "20060102"
	wireTime = "150405"
)

// date is a calendar day on the wire as YYYYMMDD. ISO dates are accepted as input.
type date struct{}

func (date) Name() string { return "Date" }
func (date) Binary() bool { return false }

func (d date) Normalize(value string, _ int) (string, error) {
	v := strings.TrimSpace(value)
	for _, layout := range []string{wireDate, "2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(wireDate), nil
		}
	}
	return "", syntaxError("Date", value, "expected YYYYMMDD")
}

func (date) Check(value string) error {
	if _, err := time.Parse(wireDate, value); err != nil {
		return syntaxError("Date", value, "expected YYYYMMDD")
	}
	return nil
}

// clock is a time of day on the wire as HHMMSS.
type clock struct{}

func (clock) Name() string { return "Time" }
func (clock) Binary() bool { return false }

func (clock) Normalize(value string, _ int) (string, error) {
	v := strings.TrimSpace(value)
	for _, layout := range []string{wireTime, "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(wireTime), nil
		}
	}
	return "", syntaxError("Time", value, "expected HHMMSS")
}

func (clock) Check(value string) error {
	if _, err := time.Parse(wireTime, value); err != nil {
		return syntaxError("Time", value, "expected HHMMSS")
	}
	return nil
}

// amount is a non-negative decimal with a decimal comma ("0,01", "100,").
type amount struct{}

func (amount) Name() string { return "Wrt" }
func (amount) Binary() bool { return false }

func (a amount) Normalize(value string, _ int) (string, error) {
	d, err := ParseAmount(value)
	if err != nil {
		return "", err
	}
	return FormatAmount(d), nil
}

func (amount) Check(value string) error {
	if !strings.Contains(value, ",") {
		return syntaxError("Wrt", value, "missing decimal comma")
	}
	_, err := ParseAmount(value)
	return err
}

// ParseAmount reads an HBCI amount. Both decimal comma and decimal point are
// accepted; thousands separators are not.
func ParseAmount(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if strings.Count(v, ",")+strings.Count(v, ".") > 1 {
		return decimal.Zero, syntaxError("Wrt", value, "more than one decimal separator")
	}
	v = strings.Replace(v, ",", ".", 1)
	v = strings.TrimSuffix(v, ".")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, syntaxError("Wrt", value, err.Error())
	}
	if d.IsNegative() {
		return decimal.Zero, syntaxError("Wrt", value, "negative amount")
	}
	return d, nil
}

// FormatAmount renders d in wire form: integer part, decimal comma, fraction
// without trailing zeros.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")
	return intPart + "," + frac
}

// binary values are given with a format tag: "B" followed by raw bytes, or
// "N" followed by a decimal integer stored as big-endian bytes.
type binary struct{ name string }

func (b binary) Name() string { return b.name }
func (binary) Binary() bool { return true }
func (binary) Check(string) error { return nil }

// Normalize strips the format tag. Tag validation happens in DecodeBinaryTag,
// which reports the tag to the caller.
func (b binary) Normalize(value string, _ int) (string, error) {
	raw, _, err := DecodeBinaryTag(value)
	return raw, err
}

// ErrBinaryTag is returned for binary input whose format tag is neither N nor B.
var ErrBinaryTag = syntaxError("Bin", "", "format tag must be N or B")

// DecodeBinaryTag interprets a tagged binary input value and returns the raw
// bytes and the tag it found.
func DecodeBinaryTag(value string) (raw string, tag string, err error) {
	if value == "" {
		return "", "", ErrBinaryTag
	}
	tag = value[:1]
	rest := value[1:]
	switch tag {
	case "B":
		return rest, tag, nil
	case "N":
		n, ok := new(big.Int).SetString(strings.TrimSpace(rest), 10)
		if !ok || n.Sign() < 0 {
			return "", tag, syntaxError("Bin", value, "N tag requires a non-negative decimal integer")
		}
		return string(n.Bytes()), tag, nil
	default:
		return "", tag, ErrBinaryTag
	}
}

// EncodeBinaryTag is the inverse of DecodeBinaryTag for "B" values.
func EncodeBinaryTag(raw string) string {
	return "B" + raw
}
