package app

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"yelp_advisor/internal/adapters/observability"
	"yelp_advisor/internal/domain"
)

const (
	fieldAddress   = "address"
	fieldAmenities = "amenities"
)

// isNullText reports whether a text-encoded column holds no value.
func isNullText(p *string) bool {
	if p == nil {
		return true
	}
	s := strings.TrimSpace(*p)
	return s == "" || s == "null"
}

func decodeErr(rec domain.BusinessRecord, field, raw string, err error) error {
	observability.ObserveDecode(field)
	return &domain.FieldDecodeError{Record: rec.Name, Field: field, Raw: raw, Err: err}
}

// DecodeAddress decodes the ADDRESS column. A null column yields nil.
func DecodeAddress(rec domain.BusinessRecord) (*domain.Address, error) {
	if isNullText(rec.AddressRaw) {
		return nil, nil
	}
	var a domain.Address
	if err := json.Unmarshal([]byte(*rec.AddressRaw), &a); err != nil {
		return nil, decodeErr(rec, fieldAddress, *rec.AddressRaw, err)
	}
	return &a, nil
}

type amenityEntry struct {
	Name      *string `json:"name"`
	Available *bool   `json:"available"`
}

// DecodeAmenities decodes the amenities column. A null column yields no
// entries; every entry must carry both name and available.
func DecodeAmenities(rec domain.BusinessRecord) ([]domain.Amenity, error) {
	if isNullText(rec.AmenitiesRaw) {
		return nil, nil
	}
	raw := *rec.AmenitiesRaw
	var entries []amenityEntry
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&entries); err != nil {
		return nil, decodeErr(rec, fieldAmenities, raw, err)
	}
	out := make([]domain.Amenity, 0, len(entries))
	for i, e := range entries {
		switch {
		case e.Name == nil:
			return nil, decodeErr(rec, fieldAmenities, raw, fmt.Errorf("entry %d: missing name", i))
		case e.Available == nil:
			return nil, decodeErr(rec, fieldAmenities, raw, fmt.Errorf("entry %d: missing available", i))
		}
		out = append(out, domain.Amenity{Name: *e.Name, Available: *e.Available})
	}
	return out, nil
}

// FlattenAmenities expands every record's amenities into one row per entry,
// drops exact duplicate rows and orders the result by business, amenity and
// availability. A record that fails to decode contributes no rows and one
// error; the remaining records are still processed.
func FlattenAmenities(recs []domain.BusinessRecord) ([]domain.AmenityRow, []error) {
	var (
		rows []domain.AmenityRow
		errs []error
		seen = make(map[domain.AmenityRow]struct{})
	)
	for _, rec := range recs {
		ams, err := DecodeAmenities(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, a := range ams {
			row := domain.AmenityRow{Business: rec.Name, Amenity: a.Name, Available: a.Available}
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			rows = append(rows, row)
		}
	}
	slices.SortStableFunc(rows, func(a, b domain.AmenityRow) int {
		if c := cmp.Compare(a.Business, b.Business); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Amenity, b.Amenity); c != 0 {
			return c
		}
		return cmp.Compare(boolRank(a.Available), boolRank(b.Available))
	})
	return rows, errs
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ViewBusinesses decodes the address of every record. Records whose address
// fails to decode keep their other fields.
func ViewBusinesses(recs []domain.BusinessRecord) ([]domain.BusinessView, []error) {
	out := make([]domain.BusinessView, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		v := domain.BusinessView{
			ID:            rec.ID,
			Name:          rec.Name,
			OverallRating: rec.OverallRating,
			ReviewsCount:  rec.ReviewsCount,
			Categories:    rec.Categories,
		}
		addr, err := DecodeAddress(rec)
		if err != nil {
			errs = append(errs, err)
		} else {
			v.Address = addr
		}
		out = append(out, v)
	}
	return out, errs
}
