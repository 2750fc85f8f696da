package models

import (
	"errors"
	"strings"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// Category is the closed set of labels an insight can carry.
type Category string

const (
	CategoryProduct   Category = "Product"
	CategoryPricing   Category = "Pricing"
	CategoryMarketing Category = "Marketing"
	CategoryUnknown   Category = "Unknown"
)

// ParseCategory accepts the three assignable labels case-insensitively.
// Unknown is never a valid answer from the classifier.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryProduct, CategoryPricing, CategoryMarketing} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u, true
	}
	return "", false
}

// RawUpdate is one competitor-activity record as loaded from the input file.
// Pointer fields are optional in the input.
type RawUpdate struct {
	ID                 int     `json:"id"`
	Competitor         string  `json:"competitor"`
	CompetitorCategory *string `json:"competitor_category,omitempty"`
	Update             string  `json:"update"`
	Date               string  `json:"date"`
	Source             string  `json:"source"`
	SourceType         *string `json:"source_type,omitempty"`
	ImpactScore        *int    `json:"impact_score,omitempty"`
	// Category is an externally supplied label that wins over classification.
	Category *string `json:"category,omitempty"`
}

func (u RawUpdate) CompetitorCategoryOr(fallback string) string {
	if u.CompetitorCategory == nil || *u.CompetitorCategory == "" {
		return fallback
	}
	return *u.CompetitorCategory
}

func (u RawUpdate) SourceTypeOr(fallback string) string {
	if u.SourceType == nil || *u.SourceType == "" {
		return fallback
	}
	return *u.SourceType
}

func (u RawUpdate) ImpactScoreOr(fallback int) int {
	if u.ImpactScore == nil {
		return fallback
	}
	return *u.ImpactScore
}

// CategoryOverride returns the external label, if any.
func (u RawUpdate) CategoryOverride() (string, bool) {
	if u.Category == nil || strings.TrimSpace(*u.Category) == "" {
		return "", false
	}
	return *u.Category, true
}

type Analysis struct {
	MainPoint string `json:"main_point"`
	Metrics   string `json:"metrics"`
	Target    string `json:"target"`
	Impact    string `json:"impact"`
}

type Insight struct {
	RawUpdate
	Analysis Analysis `json:"analysis"`
}

type CategorizedInsight struct {
	Insight
	// Category shadows RawUpdate.Category in JSON; the override is still
	// reachable through Insight.RawUpdate.
	Category           Category `json:"category"`
	CategoryReasoning  string   `json:"category_reasoning"`
	CategoryConfidence float64  `json:"category_confidence"`
	SuggestedCategory  Category `json:"suggested_category,omitempty"`
}

type RankedInsight struct {
	CategorizedInsight
	PriorityScore        int      `json:"priority_score"`
	ImpactAreas          []string `json:"impact_areas"`
	UrgencyLevel         Urgency  `json:"urgency_level"`
	StrategicImplication string   `json:"strategic_implication"`
}

type DigestMode string

const (
	ModeLive     DigestMode = "live"
	ModeOffline  DigestMode = "offline"
	ModeFallback DigestMode = "fallback"
)

// Digest is the rendered report of one pipeline run.
type Digest struct {
	ID               string          `json:"id"`
	Persona          string          `json:"persona"`
	Mode             DigestMode      `json:"mode"`
	Content          string          `json:"content"`
	Top              []RankedInsight `json:"top"`
	InputCount       int             `json:"input_count"`
	InputFingerprint string          `json:"input_fingerprint"`
	LatencyMS        int             `json:"latency_ms"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// RunRecord is the persisted summary of a digest, without the insights.
type RunRecord struct {
	ID               string     `json:"id"`
	Persona          string     `json:"persona"`
	Mode             DigestMode `json:"mode"`
	InputCount       int        `json:"input_count"`
	TopCompetitors   []string   `json:"top_competitors"`
	InputFingerprint string     `json:"input_fingerprint"`
	Content          string     `json:"content,omitempty"`
	LatencyMS        int        `json:"latency_ms"`
	CreatedAt        time.Time  `json:"created_at"`
}

type CompetitorCategory string

const (
	DirectCompetitor CompetitorCategory = "Direct Competitor"
	MarketLeader     CompetitorCategory = "Market Leader"
	EmergingThreat   CompetitorCategory = "Emerging Threat"
	AdjacentPlayer   CompetitorCategory = "Adjacent Player"
)

func ParseCompetitorCategory(s string) (CompetitorCategory, bool) {
	for _, c := range []CompetitorCategory{DirectCompetitor, MarketLeader, EmergingThreat, AdjacentPlayer} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Competitor is a discovered company from the onboarding flow.
type Competitor struct {
	Name           string             `json:"name"`
	Category       CompetitorCategory `json:"category"`
	Description    string             `json:"description"`
	Differentiator string             `json:"differentiator,omitempty"`
}

type EngagementMetrics struct {
	InsightsViewed   int     `json:"insights_viewed"`
	ClickThroughRate float64 `json:"click_through_rate"`
	AvgReadTime      string  `json:"avg_read_time"`
	ActionTakenRate  float64 `json:"action_taken_rate"`
}
