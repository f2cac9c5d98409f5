package domain

import "time"

type Review struct {
	ID         string     `json:"id"`
	BusinessID string     `json:"business_id"`
	Reviewer   *string    `json:"reviewer,omitempty"`
	Rating     *float64   `json:"rating,omitempty"`
	Content    *string    `json:"content,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
