package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"yelp_advisor/internal/domain"
)

/********** field names (lowercase contract keys) **********/

const (
	fieldName     = "name"
	fieldRating   = "rating"
	fieldAccuracy = "accuracy"
	fieldPrice    = "price"
	fieldMeets    = "meets_requests"
	fieldExplain  = "explanation"
)

// ParseRecommendations decodes a candidate payload produced by ExtractArray.
//
// A payload that is not a JSON array fails as a whole with MalformedReply.
// Otherwise every element is validated on its own: well-formed records are
// returned in reply order and the failing ones are reported together as
// SchemaViolation errors joined into the returned error.
func ParseRecommendations(payload string) ([]domain.Recommendation, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &domain.MalformedReplyError{Raw: payload, Err: err}
	}

	out := make([]domain.Recommendation, 0, len(raw))
	seen := make(map[string]int, len(raw))
	var errs []error
	for i, r := range raw {
		rec, err := parseRecord(i, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := strings.ToLower(rec.Name)
		if j, dup := seen[key]; dup {
			errs = append(errs, violation(i, fieldName, fmt.Sprintf("duplicate of record %d", j)))
			continue
		}
		seen[key] = i
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}

func parseRecord(i int, raw json.RawMessage) (domain.Recommendation, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return domain.Recommendation{}, violation(i, "record", "not a JSON object")
	}
	fields = lowerKeys(fields)

	var rec domain.Recommendation
	var err error

	if rec.Name, err = requireString(i, fields, fieldName); err != nil {
		return domain.Recommendation{}, err
	}
	if rec.Name = strings.TrimSpace(rec.Name); rec.Name == "" {
		return domain.Recommendation{}, violation(i, fieldName, "empty")
	}
	if rec.Rating, err = requireFloat(i, fields, fieldRating); err != nil {
		return domain.Recommendation{}, err
	}
	if rec.Accuracy, err = requireFloat(i, fields, fieldAccuracy); err != nil {
		return domain.Recommendation{}, err
	}
	if rec.Accuracy < 0 || rec.Accuracy > 1 {
		return domain.Recommendation{}, violation(i, fieldAccuracy, fmt.Sprintf("%v outside [0, 1]", rec.Accuracy))
	}
	if rec.Price, err = optionalString(i, fields, fieldPrice); err != nil {
		return domain.Recommendation{}, err
	}
	rec.Price = strings.TrimSpace(rec.Price)
	if rec.Price != "" && !slices.Contains(domain.PriceTiers, rec.Price) {
		// kept as returned; the tier is informational
		log.Debug().Int("index", i).Str("price", rec.Price).Msg("price outside the known tiers")
	}
	if rec.MeetsRequests, err = optionalBoolMap(i, fields, fieldMeets); err != nil {
		return domain.Recommendation{}, err
	}
	if rec.Explanation, err = optionalString(i, fields, fieldExplain); err != nil {
		return domain.Recommendation{}, err
	}
	return rec, nil
}

/********** tiny helpers **********/

func violation(i int, field, reason string) error {
	return &domain.SchemaViolationError{Index: i, Field: field, Reason: reason}
}

// lowerKeys folds keys to lowercase; an exact lowercase key wins over a
// differently-cased duplicate.
func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == strings.ToLower(k) {
			out[k] = v
		}
	}
	for k, v := range m {
		lk := strings.ToLower(k)
		if _, ok := out[lk]; !ok {
			out[lk] = v
		}
	}
	return out
}

func requireString(i int, m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", violation(i, key, "missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", violation(i, key, fmt.Sprintf("want string, got %s", typeName(v)))
	}
	return s, nil
}

func optionalString(i int, m map[string]any, key string) (string, error) {
	if v, ok := m[key]; !ok || v == nil {
		return "", nil
	}
	return requireString(i, m, key)
}

func requireFloat(i int, m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, violation(i, key, "missing")
	}
	f, ok := coerceFloat(v)
	if !ok {
		return 0, violation(i, key, fmt.Sprintf("want number, got %s", typeName(v)))
	}
	return f, nil
}

func optionalBoolMap(i int, m map[string]any, key string) (map[string]bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return map[string]bool{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, violation(i, key, fmt.Sprintf("want object, got %s", typeName(v)))
	}
	out := make(map[string]bool, len(obj))
	for k, raw := range obj {
		b, ok := coerceBool(raw)
		if !ok {
			return nil, violation(i, key+"."+k, fmt.Sprintf("want boolean, got %s", typeName(raw)))
		}
		out[k] = b
	}
	return out, nil
}

// coerceFloat: number from json.Number or a numeric string like "4,5".
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	}
	return false, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
