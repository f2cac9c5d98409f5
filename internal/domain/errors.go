package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedReply  = errors.New("malformed reply")
	ErrSchemaViolation = errors.New("schema violation")
	ErrFieldDecode     = errors.New("field decode error")
	ErrInvalidSort     = errors.New("invalid sort")
)

const snippetLen = 200

// Snippet truncates s to at most snippetLen bytes for inclusion in error
// messages and logs, never splitting a rune.
func Snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// MalformedReplyError is returned when a model reply cannot be read as a
// JSON array of objects.
type MalformedReplyError struct {
	Raw string
	Err error
}

func (e *MalformedReplyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed reply: %v (raw=%q)", e.Err, Snippet(e.Raw))
	}
	return fmt.Sprintf("malformed reply (raw=%q)", Snippet(e.Raw))
}

func (e *MalformedReplyError) Unwrap() []error { return []error{ErrMalformedReply, e.Err} }

// SchemaViolationError reports a record that is missing a required field
// or carries a field of the wrong type.
type SchemaViolationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: record %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// FieldDecodeError reports a text-encoded column of a single row that
// could not be decoded.
type FieldDecodeError struct {
	Record string
	Field  string
	Raw    string
	Err    error
}

func (e *FieldDecodeError) Error() string {
	return fmt.Sprintf("decode %s of %q: %v (raw=%q)", e.Field, e.Record, e.Err, Snippet(e.Raw))
}

func (e *FieldDecodeError) Unwrap() []error { return []error{ErrFieldDecode, e.Err} }
