package domain

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))

	exact := strings.Repeat("a", snippetLen)
	assert.Equal(t, exact, Snippet(exact))

	long := strings.Repeat("b", snippetLen+10)
	assert.Equal(t, strings.Repeat("b", snippetLen)+"…", Snippet(long))
}

func TestSnippet_DoesNotSplitRunes(t *testing.T) {
	// "é" is two bytes; byte snippetLen falls inside one of them
	s := "a" + strings.Repeat("é", snippetLen)
	got := Snippet(s)
	assert.True(t, utf8.ValidString(got), "snippet must be valid UTF-8: %q", got)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len(strings.TrimSuffix(got, "…")), snippetLen)
}

func TestErrorUnwrapping(t *testing.T) {
	me := &MalformedReplyError{Raw: "x", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(me, ErrMalformedReply))
	assert.True(t, errors.Is(me, io.ErrUnexpectedEOF))

	sv := &SchemaViolationError{Index: 2, Field: "rating", Reason: "missing"}
	assert.True(t, errors.Is(sv, ErrSchemaViolation))
	assert.Equal(t, "schema violation: record 2: rating: missing", sv.Error())

	fe := &FieldDecodeError{Record: "Greens", Field: "address", Raw: "{", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(fe, ErrFieldDecode))
	assert.Contains(t, fe.Error(), `"Greens"`)
}
