package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelp_advisor/internal/domain"
)

func TestRequestBuilder_Build(t *testing.T) {
	msgs := RequestBuilder{}.Build(DefaultRequest)
	require.Len(t, msgs, 2)

	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, DefaultRequest, msgs[1].Content)

	sys := msgs[0].Content
	assert.Contains(t, sys, "The location is Moscone Center in San Francisco, CA.")
	assert.Contains(t, sys, "exactly 10 results")
	assert.Contains(t, sys, "one of $, $$, $$$, $$$$.")
	for _, f := range []string{"name:", "rating:", "accuracy:", "price:", "meets_requests:", "explanation:"} {
		assert.Contains(t, sys, f)
	}
}

func TestRequestBuilder_Overrides(t *testing.T) {
	sys := RequestBuilder{Location: " Union Square ", Count: 5}.SystemInstruction()
	assert.Contains(t, sys, "recommends 5 places")
	assert.Contains(t, sys, "The location is Union Square.")
	assert.Contains(t, sys, "exactly 5 results")
	assert.False(t, strings.Contains(sys, "%!"), "template verbs must all be filled")
}

func TestRequestBuilder_Deterministic(t *testing.T) {
	b := RequestBuilder{Location: "Ferry Building"}
	assert.Equal(t, b.Build("x"), b.Build("x"))
}
