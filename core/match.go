package core

import (
	"strings"

	"envnotify/models"
)

// Select returns the first rule, in the given order, whose pattern matches url.
// rules must already be sorted by Order (RuleStore.Load guarantees this).
func Select(url string, rules []models.Rule) (models.Rule, bool) {
	for _, rule := range rules {
		if matchesURL(url, rule) {
			return rule, true
		}
	}
	return models.Rule{}, false
}

func matchesURL(url string, rule models.Rule) bool {
	if rule.MatchType == models.MatchPrefix {
		return strings.HasPrefix(url, rule.URLPattern)
	}
	// Anything that is not a prefix rule is treated as a substring rule.
	return strings.Contains(url, rule.URLPattern)
}
