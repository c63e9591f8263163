package legacy

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flex is a loosely typed legacy scalar. Depending on export vintage
// the same legacy column arrives as a string, a number, a bool, or
// null. Flex accepts all of them and coerces to a string; decoding is
// total and never fails the surrounding record.
type Flex struct {
	s string
}

// NewFlex wraps a plain string, mainly for tests and fixtures.
func NewFlex(s string) Flex {
	return Flex{s: s}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			f.s = ""
			return nil
		}
		f.s = s
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			f.s = ""
			return nil
		}
		f.s = strconv.FormatBool(b)
	case '{', '[':
		// Structured values have no usable string form.
		f.s = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			f.s = ""
			return nil
		}
		f.s = n.String()
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Flex) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.s)
}

// String returns the coerced string value.
func (f Flex) String() string {
	return f.s
}

// IsEmpty reports whether the value is empty after trimming whitespace.
func (f Flex) IsEmpty() bool {
	return strings.TrimSpace(f.s) == ""
}

// Bool interprets common legacy truthy encodings ("1", "true", "t",
// "yes", "y"). Anything else is false.
func (f Flex) Bool() bool {
	switch strings.ToLower(strings.TrimSpace(f.s)) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

// Int returns the value as an integer, or 0 when it does not parse.
func (f Flex) Int() int {
	v := strings.TrimSpace(f.s)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	// Some exports serialize integers as floats ("3.0").
	if fl, err := strconv.ParseFloat(v, 64); err == nil {
		return int(fl)
	}
	return 0
}

// Float returns the value as a float64, or 0 when it does not parse.
func (f Flex) Float() float64 {
	v := strings.TrimSpace(f.s)
	if v == "" {
		return 0
	}
	if fl, err := strconv.ParseFloat(v, 64); err == nil {
		return fl
	}
	return 0
}
