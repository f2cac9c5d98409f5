package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelp_advisor/internal/domain"
	"yelp_advisor/internal/storage/sqldb"
)

func TestRootCommandWiring(t *testing.T) {
	want := []string{"recommend", "addresses", "amenities", "reviews", "missing-reviews"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestPrintRecommendations(t *testing.T) {
	set := domain.RecommendationSet{
		RunID:    "run-1",
		Endpoint: "ep",
		Items: []domain.Recommendation{
			{Name: "Low", Rating: 3.0, Accuracy: 0.5},
			{Name: "High", Rating: 4.5, Accuracy: 1},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, printRecommendations(context.Background(), &buf, set, 10, false))

	out := buf.String()
	assert.Contains(t, out, "Top 10 Recommendations")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("High")), bytes.Index(buf.Bytes(), []byte("Low")))
	assert.Contains(t, out, "run run-1 via ep")
}

func TestAmenitiesCommand_SQLite(t *testing.T) {
	dsn := "file:yelpctl_amenities?mode=memory&cache=shared"
	db, err := sqldb.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqldb.New(db).Migrate(context.Background()))
	seedAmenities(t, db)

	t.Setenv("TABLE_DRIVER", "sqlite")
	t.Setenv("TABLE_DSN", dsn)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"amenities", "--limit", "10"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "Greens")
	assert.Contains(t, out, "wifi")
	assert.Contains(t, out, "false")
}

func seedAmenities(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO yelp_businesses_overview (business_id, name, amenities)
		VALUES ('b1', 'Greens', '[{"available":true,"name":"wifi"},{"available":false,"name":"wifi"}]')`)
	require.NoError(t, err)
}
