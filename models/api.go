package models

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Message string `json:"message" example:"validation failed: urlPattern and message are required"`
}

// MoveRequest is the body of a move call.
type MoveRequest struct {
	Direction Direction `json:"direction" example:"up" enum:"up,down" binding:"required"`
}

// ExportDocument is the file interchange format for a whole rule list.
type ExportDocument struct {
	Patterns []Rule `json:"patterns"`
}

// ImportResult reports how many rules replaced the stored list.
type ImportResult struct {
	Imported int `json:"imported" example:"3"`
}

// MatchResponse is returned by the match endpoint. Rule is nil when nothing matched.
type MatchResponse struct {
	URL     string `json:"url"`
	Matched bool   `json:"matched"`
	Rule    *Rule  `json:"rule,omitempty"`
}
