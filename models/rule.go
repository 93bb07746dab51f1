package models

// MatchType selects how a rule's URL pattern is tested against a page URL.
type MatchType string

const (
	// MatchContains matches when the URL contains the pattern anywhere.
	MatchContains MatchType = "partial"
	// MatchPrefix matches when the URL starts with the pattern.
	MatchPrefix MatchType = "prefix"
)

// Valid reports whether mt is one of the two supported tokens.
func (mt MatchType) Valid() bool {
	return mt == MatchContains || mt == MatchPrefix
}

// Label is the human readable name shown in rule listings.
func (mt MatchType) Label() string {
	if mt == MatchPrefix {
		return "prefix"
	}
	return "contains"
}

// Direction is the way a rule moves in the list.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DefaultBorderColor is used when a new rule is created without a color.
const DefaultBorderColor = "#ff0000"

// Rule is one URL-matching warning. Order is the dense zero-based priority; lower wins.
type Rule struct {
	ID          string    `json:"id" example:"1718000000000-k3j9x0a2b" readOnly:"true"`
	URLPattern  string    `json:"urlPattern" example:"https://prod.example.com" binding:"required"`
	MatchType   MatchType `json:"matchType" example:"partial" enum:"partial,prefix"`
	Message     string    `json:"message" example:"PRODUCTION" binding:"required"`
	BorderColor string    `json:"borderColor" example:"#ff0000"`
	Order       int       `json:"order" example:"0" readOnly:"true"`
}

// RuleFields are the user-editable parts of a Rule.
type RuleFields struct {
	URLPattern  string    `json:"urlPattern" example:"https://staging." binding:"required"`
	MatchType   MatchType `json:"matchType,omitempty" example:"prefix" enum:"partial,prefix"`
	Message     string    `json:"message" example:"STAGING" binding:"required"`
	BorderColor string    `json:"borderColor,omitempty" example:"#ffa500"`
}
