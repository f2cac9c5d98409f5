package domain

// BusinessRecord is one row of the overview table. Address and Amenities
// hold the raw text-encoded JSON exactly as stored.
type BusinessRecord struct {
	ID            string
	Name          string
	OverallRating *float64
	ReviewsCount  *string // text column; the dataset uses the literal 'null' for unknown
	Categories    *string
	Phone         *string
	URL           *string
	AddressRaw    *string
	AmenitiesRaw  *string
}

// Address is the decoded ADDRESS sub-structure.
type Address struct {
	City    string `json:"City"`
	Country string `json:"Country"`
	State   string `json:"State"`
	Zip     string `json:"zip_code"`
}

// Amenity is one entry of the decoded amenities array.
type Amenity struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// AmenityRow is one row of the flattened amenities projection.
type AmenityRow struct {
	Business  string `json:"business"`
	Amenity   string `json:"amenity"`
	Available bool   `json:"available"`
}

// BusinessView is a business with its address decoded.
type BusinessView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	OverallRating *float64 `json:"overall_rating,omitempty"`
	ReviewsCount  *string  `json:"reviews_count,omitempty"`
	Categories    *string  `json:"categories,omitempty"`
	Address       *Address `json:"address,omitempty"`
}
