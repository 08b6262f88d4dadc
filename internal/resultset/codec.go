package resultset

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrMalformed is returned by Decode when the payload is not a JSON array of rows.
var ErrMalformed = errors.New("malformed row set")

// Encode serializes rows as a JSON array. A nil slice encodes as an empty array.
func Encode(rows []Row) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

// Decode parses the output of Encode. Truncated or trailing data is an error.
func Decode(data []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformed
	}

	var rows []Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}
