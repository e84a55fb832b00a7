package model

import (
	"strings"
	"time"
)

// Shoe is the subset of the catalog entry the curation pipeline reads.
type Shoe struct {
	ID        string   `json:"id"`
	Brand     string   `json:"brand"`
	ModelName string   `json:"modelName"`
	Category  string   `json:"category,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	Region    string   `json:"region,omitempty"`
}

// Language returns the language part of the shoe's locale ("ja-JP" -> "ja").
func (s Shoe) Language() string {
	lang, _, _ := strings.Cut(s.Locale, "-")
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "ja"
	}
	return lang
}

// DisplayName joins brand and model name.
func (s Shoe) DisplayName() string {
	return strings.TrimSpace(s.Brand + " " + s.ModelName)
}

// ReviewType distinguishes user reviews from generated summaries.
type ReviewType string

const (
	ReviewUser      ReviewType = "USER"
	ReviewAISummary ReviewType = "AI_SUMMARY"
)

// Review is a review row. Only AI_SUMMARY reviews are written by this module.
type Review struct {
	ID             string     `json:"id"`
	ShoeID         string     `json:"shoeId"`
	Type           ReviewType `json:"type"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Pros           []string   `json:"pros"`
	Cons           []string   `json:"cons"`
	RecommendedFor string     `json:"recommendedFor,omitempty"`
	SourceCount    int        `json:"sourceCount"`
	IsPublished    bool       `json:"isPublished"`
	IsDraft        bool       `json:"isDraft"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Summary is the structured output of the summarizer.
type Summary struct {
	Title          string   `json:"title"`
	OverallRating  float64  `json:"overallRating"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	RecommendedFor string   `json:"recommendedFor,omitempty"`
	Summary        string   `json:"summary"`
}
