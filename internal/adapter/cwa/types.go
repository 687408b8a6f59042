package cwa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is a scalar that CWA publishes as a string in some datasets and as a
// number in others. It keeps the textual form either way.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("cwa: expected scalar, got %c", data[0])
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the trimmed text.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Float parses the value. Empty or non-numeric text reports false.
func (t Text) Float() (float64, bool) {
	f, err := strconv.ParseFloat(t.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int parses the value as a base-10 integer.
func (t Text) Int() (int, bool) {
	n, err := strconv.Atoi(t.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsSentinel reports the station "not observed" markers -99 and -998.
func (t Text) IsSentinel() bool {
	f, ok := t.Float()
	return ok && (f == -99 || f == -998)
}

// Reading parses a station value, excluding sentinels.
func (t Text) Reading() (float64, bool) {
	if t.IsSentinel() {
		return 0, false
	}
	return t.Float()
}

// List decodes a field that is either a single object or an array of them.
type List[T any] []T

// UnmarshalJSON accepts an object, an array, or null.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*l = List[T]{item}
	return nil
}

// RawList holds the elements of a JSON array (or a lone object) undecoded,
// so callers can decode each element independently and skip bad ones.
type RawList = List[json.RawMessage]

// First returns the first element, or the zero value.
func (l List[T]) First() T {
	var zero T
	if len(l) == 0 {
		return zero
	}
	return l[0]
}

// Last returns the last element, or the zero value.
func (l List[T]) Last() T {
	var zero T
	if len(l) == 0 {
		return zero
	}
	return l[len(l)-1]
}

// Each decodes every element of raw into T and calls fn for the ones that
// decode. A malformed element is skipped without affecting its siblings.
func Each[T any](raw RawList, fn func(T)) {
	for _, elem := range raw {
		var rec T
		if err := json.Unmarshal(elem, &rec); err != nil {
			continue
		}
		fn(rec)
	}
}

// Find returns the first element of raw that decodes into T and satisfies
// match. Malformed elements are skipped.
func Find[T any](raw RawList, match func(T) bool) (T, bool) {
	for _, elem := range raw {
		var rec T
		if err := json.Unmarshal(elem, &rec); err != nil {
			continue
		}
		if match(rec) {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// DecodeRecords decodes a top-level records object into dst.
func DecodeRecords(records json.RawMessage, dst any) error {
	if err := json.Unmarshal(records, dst); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	return nil
}
