// Package resultset defines the row type produced by the backing store, persisted by the
// result cache, and rendered by the CLI.
//
// A Row is an ordered list of column/value pairs. Values are restricted to JSON-safe scalars
// (nil, string, int64, float64, bool) so a row survives a round trip through a cache entry
// without changing type, order, or precision.
package resultset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrUnsupportedValue is returned when a column value cannot be represented in a Row.
var ErrUnsupportedValue = errors.New("unsupported column value")

// Field is a single column of a Row.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered mapping of column name to scalar value.
type Row []Field

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Text returns the named column formatted for display. Missing columns and NULL values
// render as an empty string.
func (r Row) Text(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Name
	}
	return cols
}

// Normalize converts a database/sql driver value into one of the scalar types a Row holds.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, int64, bool:
		return val, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedValue, val)
		}
		return val, nil
	case float32:
		return Normalize(float64(val))
	case []byte:
		return string(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedValue, val)
		}
		return int64(val), nil
	case json.Number:
		return numberValue(val)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// MarshalJSON encodes the row as a JSON object whose keys keep the column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := appendScalar(&buf, f.Value); err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the row, preserving key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("cannot unmarshal into nil Row")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}

	row := Row{}
	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return keyErr
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", keyTok)
		}

		valTok, valErr := dec.Token()
		if valErr != nil {
			return valErr
		}
		if _, nested := valTok.(json.Delim); nested {
			return fmt.Errorf("%w: nested value in column %q", ErrUnsupportedValue, name)
		}
		value, normErr := Normalize(valTok)
		if normErr != nil {
			return fmt.Errorf("column %q: %w", name, normErr)
		}
		row = append(row, Field{Name: name, Value: value})
	}

	if _, err = dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

// appendScalar writes v as JSON. Floats always carry a decimal point or exponent so they
// decode back as float64 rather than int64.
func appendScalar(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: non-finite float %v", ErrUnsupportedValue, val)
		}
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if !bytes.ContainsAny([]byte(s), ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
		return nil
	case nil, string, int64, bool:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	default:
		normalized, err := Normalize(v)
		if err != nil {
			return err
		}
		return appendScalar(buf, normalized)
	}
}

func numberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: number %s", ErrUnsupportedValue, n)
	}
	return f, nil
}
