package app

import (
	"cmp"
	"context"
	"math"
	"slices"

	"yelp_advisor/internal/domain"
)

// Palette is the fixed bar palette; it is cycled when there are more bars
// than colors.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const (
	ChartTitle  = "Top 10 Recommendations"
	ChartXLabel = "Business Name"
	ChartYLabel = "Rating"
)

// Ranked returns a copy of items ordered by rating, highest first. Equal
// ratings keep their input order.
func Ranked(items []domain.Recommendation) []domain.Recommendation {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.Recommendation) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	return out
}

// BuildChart lays out the ranked recommendations as one bar each.
func BuildChart(items []domain.Recommendation) (domain.ChartSpec, error) {
	for i, it := range items {
		if math.IsNaN(it.Rating) || math.IsInf(it.Rating, 0) {
			return domain.ChartSpec{}, &domain.SchemaViolationError{Index: i, Field: fieldRating, Reason: "not a finite number"}
		}
	}
	ranked := Ranked(items)
	spec := domain.ChartSpec{
		Title:  ChartTitle,
		XLabel: ChartXLabel,
		YLabel: ChartYLabel,
		Bars:   make([]domain.Bar, len(ranked)),
	}
	for i, it := range ranked {
		spec.Bars[i] = domain.Bar{Label: it.Name, Value: it.Rating, Color: Palette[i%len(Palette)]}
	}
	return spec, nil
}

// RenderChart builds the chart for set and hands it to r.
func RenderChart(ctx context.Context, r domain.ChartRenderer, set domain.RecommendationSet) error {
	spec, err := BuildChart(set.Items)
	if err != nil {
		return err
	}
	return r.Render(ctx, spec)
}
