package app

import (
	"fmt"
	"strings"

	"yelp_advisor/internal/domain"
)

const (
	DefaultLocation      = "Moscone Center in San Francisco, CA"
	DefaultRequest       = "Find a restaurant within 5 miles with vegan options that is open until at least 11:30"
	DefaultExpectedCount = 10
)

// RequestBuilder assembles the conversation sent to the serving endpoint.
// The zero value uses DefaultLocation and DefaultExpectedCount.
type RequestBuilder struct {
	Location string
	Count    int
}

// Build returns the system instruction followed by the user's request.
func (b RequestBuilder) Build(request string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: b.SystemInstruction()},
		{Role: domain.RoleUser, Content: request},
	}
}

// SystemInstruction describes the output contract to the model.
func (b RequestBuilder) SystemInstruction() string {
	loc := strings.TrimSpace(b.Location)
	if loc == "" {
		loc = DefaultLocation
	}
	n := b.Count
	if n <= 0 {
		n = DefaultExpectedCount
	}
	return fmt.Sprintf(systemTemplate, n, loc, strings.Join(domain.PriceTiers, ", "), n, n)
}

const systemTemplate = `You are an assistant that recommends %d places to visit, based on business information, reviews and general customer sentiment.
The user describes the kind of business they are looking for; answer with the best matches for their request.
The location is %s.
Respond with JSON only: an array of objects with all lowercase keys and exactly these fields:

  name: the business name.
  rating: a cumulative rating from reviews and the experience the user can expect.
  accuracy: the fraction of the user's requests that are met, e.g. 0.8 when 4 of 5 are met.
  price: the average price as one of %s.
  meets_requests: an object with one key per request the user made and a true/false value telling whether it is met.
  explanation: one short sentence explaining the values above.

Example:
[
  {
    "name": "",
    "rating": 0.0,
    "accuracy": 0.0,
    "price": "",
    "meets_requests": {},
    "explanation": ""
  }
]

The response must be valid JSON without comments, must not be truncated and must contain exactly %d results. Return the top %d.`
