// Package termchart draws charts and tables for a terminal.
package termchart

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"yelp_advisor/internal/domain"
)

const (
	DefaultWidth = 40
	barRune      = "█"
	// ratings are on a 0-5 scale; larger values widen the scale
	minScale = 5.0
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	axisStyle  = lipgloss.NewStyle().Faint(true)
)

// Renderer draws horizontal bar charts. It implements domain.ChartRenderer.
type Renderer struct {
	w     io.Writer
	width int
}

var _ domain.ChartRenderer = (*Renderer)(nil)

func New(w io.Writer, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{w: w, width: width}
}

func (r *Renderer) Render(ctx context.Context, spec domain.ChartSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(r.w, r.Draw(spec))
	return err
}

// Draw returns the chart as a string.
func (r *Renderer) Draw(spec domain.ChartSpec) string {
	labelW := lipgloss.Width(spec.XLabel)
	scale := minScale
	for _, b := range spec.Bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		scale = math.Max(scale, b.Value)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(spec.Title))
	sb.WriteString("\n")
	sb.WriteString(axisStyle.Render(fmt.Sprintf("%-*s │ %s", labelW, spec.XLabel, spec.YLabel)))
	sb.WriteString("\n")
	for _, b := range spec.Bars {
		n := int(math.Round(math.Max(b.Value, 0) / scale * float64(r.width)))
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(strings.Repeat(barRune, n))
		fmt.Fprintf(&sb, "%-*s │ %s %.1f\n", labelW, b.Label, bar, b.Value)
	}
	return sb.String()
}

// RecommendationTable lays out recommendations in the given order.
func RecommendationTable(items []domain.Recommendation) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Rating", "Accuracy", "Price", "Meets requests", "Explanation")
	for _, it := range items {
		t.Row(it.Name, fmt.Sprintf("%.1f", it.Rating), fmt.Sprintf("%.2f", it.Accuracy), it.Price, meetsSummary(it.MeetsRequests), it.Explanation)
	}
	return t.Render()
}

// AmenityTable lays out flattened amenity rows.
func AmenityTable(rows []domain.AmenityRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Business", "Amenity", "Available")
	for _, r := range rows {
		t.Row(r.Business, r.Amenity, fmt.Sprintf("%t", r.Available))
	}
	return t.Render()
}

// BusinessTable lays out businesses with their decoded address. Missing
// values print as "-".
func BusinessTable(views []domain.BusinessView) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Rating", "Reviews", "City", "State", "Country", "Zip")
	for _, v := range views {
		city, state, country, zip := "-", "-", "-", "-"
		if a := v.Address; a != nil {
			city, state, country, zip = orDash(a.City), orDash(a.State), orDash(a.Country), orDash(a.Zip)
		}
		t.Row(v.ID, v.Name, floatOrDash(v.OverallRating, "%.1f"), strOrDash(v.ReviewsCount), city, state, country, zip)
	}
	return t.Render()
}

// ReviewTable lays out reviews; content is cut to keep rows on one line.
func ReviewTable(reviews []domain.Review) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Date", "Reviewer", "Rating", "Content")
	for _, r := range reviews {
		date := "-"
		if r.ReviewedAt != nil {
			date = r.ReviewedAt.Format("2006-01-02")
		}
		content := strOrDash(r.Content)
		if len([]rune(content)) > 60 {
			content = string([]rune(content)[:60]) + "…"
		}
		t.Row(r.ID, date, strOrDash(r.Reviewer), floatOrDash(r.Rating, "%.1f"), content)
	}
	return t.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func strOrDash(p *string) string {
	if p == nil {
		return "-"
	}
	return orDash(*p)
}

func floatOrDash(p *float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p)
}

func meetsSummary(m map[string]bool) string {
	met := 0
	for _, ok := range m {
		if ok {
			met++
		}
	}
	return fmt.Sprintf("%d/%d", met, len(m))
}
