package sqldb

// Statements valid for both MySQL and SQLite. Table names follow the
// shared dataset names.
var schemaSQL = []string{
	`
CREATE TABLE IF NOT EXISTS yelp_businesses_overview (
  business_id    VARCHAR(64)  NOT NULL PRIMARY KEY,
  name           VARCHAR(255) NOT NULL,
  overall_rating DOUBLE       NULL,
  reviews_count  VARCHAR(32)  NULL,
  categories     TEXT         NULL,
  phone_number   VARCHAR(64)  NULL,
  url            TEXT         NULL,
  address        TEXT         NULL,
  amenities      TEXT         NULL
)`,
	`
CREATE TABLE IF NOT EXISTS yelp_businesses_reviews (
  review_id   VARCHAR(64)  NOT NULL PRIMARY KEY,
  business_id VARCHAR(64)  NOT NULL,
  reviewer    VARCHAR(255) NULL,
  rating      DOUBLE       NULL,
  content     TEXT         NULL,
  review_date DATETIME     NULL
)`,
}

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const businessColumns = `
  business_id,
  name,
  overall_rating,
  reviews_count,
  categories,
  phone_number,
  url,
  address,      -- JSON text {City, Country, State, zip_code}
  amenities     -- JSON text [{available, name}]
`

const listBusinessesSQL = `SELECT` + businessColumns + `
FROM yelp_businesses_overview
ORDER BY name, business_id
LIMIT ? OFFSET ?
`

const getBusinessSQL = `SELECT` + businessColumns + `
FROM yelp_businesses_overview
WHERE business_id = ?
`

// The dataset stores unknown counts as the literal string 'null'.
const missingReviewCountSQL = `SELECT` + businessColumns + `
FROM yelp_businesses_overview
WHERE reviews_count = 'null' OR reviews_count IS NULL
ORDER BY name, business_id
LIMIT ?
`

// %s is one of reviewOrders.
const listReviewsSQL = `
SELECT review_id, business_id, reviewer, rating, content, review_date
FROM yelp_businesses_reviews
WHERE business_id = ?
ORDER BY %s
LIMIT ?
`

var reviewOrders = map[string]string{
	"":        "review_date DESC, review_id DESC",
	"-date":   "review_date DESC, review_id DESC",
	"date":    "review_date ASC, review_id ASC",
	"-rating": "rating DESC, review_id ASC",
	"rating":  "rating ASC, review_id ASC",
}
