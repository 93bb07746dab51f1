package core

import (
	"testing"

	"envnotify/models"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	prodContains := models.Rule{ID: "prod", URLPattern: "https://prod.x", MatchType: models.MatchContains, Order: 0}
	anyHTTPS := models.Rule{ID: "https", URLPattern: "https://", MatchType: models.MatchPrefix, Order: 1}
	stagingPrefix := models.Rule{ID: "stg", URLPattern: "https://staging.", MatchType: models.MatchPrefix, Order: 0}
	adminContains := models.Rule{ID: "admin", URLPattern: "/admin", MatchType: models.MatchContains, Order: 1}

	tests := []struct {
		name   string
		url    string
		rules  []models.Rule
		wantID string
		wantOK bool
	}{
		{
			name:   "first match wins when several rules match",
			url:    "https://prod.x/page",
			rules:  []models.Rule{prodContains, anyHTTPS},
			wantID: "prod",
			wantOK: true,
		},
		{
			name:   "falls through to later rule",
			url:    "https://other.example/page",
			rules:  []models.Rule{prodContains, anyHTTPS},
			wantID: "https",
			wantOK: true,
		},
		{
			name:   "prefix does not match in the middle",
			url:    "http://x/?next=https://staging.example",
			rules:  []models.Rule{stagingPrefix},
			wantOK: false,
		},
		{
			name:   "contains matches in the middle",
			url:    "https://app.example/admin/users",
			rules:  []models.Rule{stagingPrefix, adminContains},
			wantID: "admin",
			wantOK: true,
		},
		{
			name:   "matching is case sensitive",
			url:    "https://app.example/ADMIN",
			rules:  []models.Rule{adminContains},
			wantOK: false,
		},
		{
			name:   "unknown match type behaves as contains",
			url:    "https://app.example/x",
			rules:  []models.Rule{{ID: "odd", URLPattern: "app.example", MatchType: "glob"}},
			wantID: "odd",
			wantOK: true,
		},
		{
			name:   "empty list",
			url:    "https://prod.x/",
			rules:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.url, tt.rules)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			} else {
				assert.Equal(t, models.Rule{}, got)
			}
		})
	}
}

func TestSelectReturnsSmallestMatchingOrder(t *testing.T) {
	rules := []models.Rule{
		{ID: "a", URLPattern: "nomatch", Order: 0},
		{ID: "b", URLPattern: "example", Order: 1},
		{ID: "c", URLPattern: "example.com", Order: 2},
		{ID: "d", URLPattern: "https://", MatchType: models.MatchPrefix, Order: 3},
	}
	got, ok := Select("https://example.com/", rules)
	assert.True(t, ok)
	assert.Equal(t, 1, got.Order)
}
