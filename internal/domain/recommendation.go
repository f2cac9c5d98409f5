package domain

import "time"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage is one role-tagged message of a conversation sent to the
// serving endpoint.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Recommendation is one suggested business as returned by the model.
type Recommendation struct {
	Name          string          `json:"name"`
	Rating        float64         `json:"rating"`
	Accuracy      float64         `json:"accuracy"`
	Price         string          `json:"price"`
	MeetsRequests map[string]bool `json:"meets_requests"`
	Explanation   string          `json:"explanation"`
}

// RecommendationSet is the ordered result of one model reply. Items keeps
// the reply order; callers sort copies, never Items itself.
type RecommendationSet struct {
	RunID     string           `json:"run_id"`
	Endpoint  string           `json:"endpoint"`
	Request   string           `json:"request"`
	CreatedAt time.Time        `json:"created_at"`
	Items     []Recommendation `json:"items"`
}

// Len reports the number of recommendations in the set.
func (s RecommendationSet) Len() int { return len(s.Items) }

// PriceTiers lists the dollar-sign tiers the model is asked to use.
var PriceTiers = []string{"$", "$$", "$$$", "$$$$"}

// Bar is one bar of a rendered chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// ChartSpec describes a bar chart independent of how it is drawn.
type ChartSpec struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	Bars   []Bar  `json:"bars"`
}
