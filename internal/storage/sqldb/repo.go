package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"yelp_advisor/internal/domain"
)

var _ domain.TableSource = (*Repo)(nil)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// Open connects to the dataset database. driver is "mysql" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "mysql", "sqlite":
	case "sqlite3":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported table driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection keeps in-memory databases shared across queries
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate creates the dataset tables when they do not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func (r *Repo) ListBusinesses(ctx context.Context, q domain.BusinessQuery) ([]domain.BusinessRecord, error) {
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL, clampLimit(q.Limit), offset)
	if err != nil {
		return nil, err
	}
	return scanBusinesses(rows)
}

func (r *Repo) GetBusiness(ctx context.Context, id string) (domain.BusinessRecord, error) {
	rec, err := scanBusiness(r.db.QueryRowContext(ctx, getBusinessSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BusinessRecord{}, domain.ErrNotFound
	}
	return rec, err
}

func (r *Repo) BusinessesMissingReviewCount(ctx context.Context, limit int) ([]domain.BusinessRecord, error) {
	rows, err := r.db.QueryContext(ctx, missingReviewCountSQL, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanBusinesses(rows)
}

func (r *Repo) ListReviews(ctx context.Context, businessID string, pg domain.PageQuery) ([]domain.Review, error) {
	order, ok := reviewOrders[pg.Sort]
	if !ok {
		return nil, fmt.Errorf("review sort %q: %w", pg.Sort, domain.ErrInvalidSort)
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(listReviewsSQL, order), businessID, clampLimit(pg.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv       domain.Review
			reviewer sql.NullString
			rating   sql.NullFloat64
			content  sql.NullString
			date     nullTime
		)
		if err := rows.Scan(&rv.ID, &rv.BusinessID, &reviewer, &rating, &content, &date); err != nil {
			return nil, err
		}
		rv.Reviewer = strPtr(reviewer)
		rv.Content = strPtr(content)
		if rating.Valid {
			f := rating.Float64
			rv.Rating = &f
		}
		if date.Valid {
			t := date.Time
			rv.ReviewedAt = &t
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- scanning ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(s rowScanner) (domain.BusinessRecord, error) {
	var (
		rec                             domain.BusinessRecord
		rating                          sql.NullFloat64
		reviews, cats, phone, url, addr sql.NullString
		amenities                       sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.Name, &rating, &reviews, &cats, &phone, &url, &addr, &amenities); err != nil {
		return domain.BusinessRecord{}, err
	}
	if rating.Valid {
		f := rating.Float64
		rec.OverallRating = &f
	}
	rec.ReviewsCount = strPtr(reviews)
	rec.Categories = strPtr(cats)
	rec.Phone = strPtr(phone)
	rec.URL = strPtr(url)
	rec.AddressRaw = strPtr(addr)
	rec.AmenitiesRaw = strPtr(amenities)
	return rec, nil
}

func scanBusinesses(rows *sql.Rows) ([]domain.BusinessRecord, error) {
	defer rows.Close()
	var out []domain.BusinessRecord
	for rows.Next() {
		rec, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullTime scans DATETIME columns from either driver: MySQL (parseTime=true)
// yields time.Time, SQLite may hand back text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (n *nullTime) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = t, true
		return nil
	case []byte:
		return n.parse(string(t))
	case string:
		return n.parse(t)
	}
	return fmt.Errorf("cannot scan %T into time", v)
}

func (n *nullTime) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		n.Time, n.Valid = time.Time{}, false
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}
