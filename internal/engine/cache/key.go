package cache

import (
	"bytes"
	_ "crypto/sha256" // registers the hash behind digest.SHA256
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// ErrInvalidQuery is returned when a query cannot be rendered to a deterministic statement.
var ErrInvalidQuery = errors.New("invalid query")

// KeyLength is the length of a cache key in hex characters.
const KeyLength = 64

// Statement is a backend-native SQL statement with its positional bindings.
type Statement struct {
	SQL      string `json:"sql"`
	Bindings []any  `json:"bindings"`
}

// Query is a logical read query that can render itself to a Statement.
// Rendering must be pure: the same query always yields the same statement.
type Query interface {
	ToNative() (Statement, error)
}

// Fingerprint renders q and returns its cache key.
func Fingerprint(q Query) (string, error) {
	stmt, err := render(q)
	if err != nil {
		return "", err
	}
	return FingerprintStatement(stmt)
}

// FingerprintStatement returns the cache key for an already rendered statement: the
// lowercase hex SHA-256 of {"sql":...,"bindings":[...]}.
func FingerprintStatement(stmt Statement) (string, error) {
	payload, err := canonicalize(stmt)
	if err != nil {
		return "", err
	}
	return digest.SHA256.FromBytes(payload).Encoded(), nil
}

// IsKey reports whether name has the shape of a cache key.
func IsKey(name string) bool {
	return digest.SHA256.Validate(name) == nil
}

func render(q Query) (Statement, error) {
	if q == nil {
		return Statement{}, fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	stmt, err := q.ToNative()
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			return Statement{}, err
		}
		return Statement{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if stmt.SQL == "" {
		return Statement{}, fmt.Errorf("%w: empty statement", ErrInvalidQuery)
	}
	return stmt, nil
}

// canonicalize encodes the statement with a fixed field order. Nil and empty binding
// lists encode identically.
func canonicalize(stmt Statement) ([]byte, error) {
	bindings := stmt.Bindings
	if bindings == nil {
		bindings = []any{}
	}
	for i, b := range bindings {
		switch b.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return nil, fmt.Errorf("%w: binding %d has unsupported type %T", ErrInvalidQuery, i, b)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Statement{SQL: stmt.SQL, Bindings: bindings}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
