package app

import (
	"errors"
	"strings"

	"yelp_advisor/internal/domain"
)

var errNoClosingBracket = errors.New("no closing bracket")

// ExtractArray returns the reply prefix that ends at the last ']'. The
// array is assumed to start at offset 0; anything the model appended after
// it is dropped. A ']' that belongs to a fragment after the real end of the
// array is not detected.
func ExtractArray(reply string) (string, error) {
	i := strings.LastIndexByte(reply, ']')
	if i < 0 {
		return "", &domain.MalformedReplyError{Raw: reply, Err: errNoClosingBracket}
	}
	return reply[:i+1], nil
}
