package core

import (
	"encoding/json"
	"fmt"
	"time"

	"envnotify/models"

	"github.com/tidwall/gjson"
)

// ExportFileName is the suggested download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("envnotify-patterns-%d.json", t.UnixMilli())
}

func encodeExport(rules []models.Rule) ([]byte, error) {
	if rules == nil {
		rules = []models.Rule{}
	}
	return json.MarshalIndent(models.ExportDocument{Patterns: rules}, "", "  ")
}

// decodeImport validates the whole payload and builds the rules from the values it
// checked. Incoming ids and orders are never read; callers assign new ones. Repeated
// keys are rejected.
func decodeImport(data []byte) ([]models.Rule, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", models.ErrImport)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: payload is not a JSON object", models.ErrImport)
	}
	if key, dup := duplicateKey(root); dup {
		return nil, fmt.Errorf("%w: key %q appears more than once", models.ErrImport, key)
	}
	patterns := root.Get("patterns")
	if !patterns.IsArray() {
		return nil, fmt.Errorf("%w: \"patterns\" is missing or not an array", models.ErrImport)
	}

	rules := []models.Rule{}
	var problem error
	patterns.ForEach(func(key, item gjson.Result) bool {
		if err := checkImportedRule(item); err != nil {
			problem = fmt.Errorf("%w: pattern %d: %w", models.ErrImport, key.Int(), err)
			return false
		}
		rules = append(rules, models.Rule{
			URLPattern:  item.Get("urlPattern").Str,
			MatchType:   models.MatchType(item.Get("matchType").Str),
			Message:     item.Get("message").Str,
			BorderColor: item.Get("borderColor").Str,
		})
		return true
	})
	if problem != nil {
		return nil, problem
	}
	return rules, nil
}

func duplicateKey(obj gjson.Result) (string, bool) {
	seen := make(map[string]bool)
	var dup string
	found := false
	obj.ForEach(func(key, _ gjson.Result) bool {
		if seen[key.Str] {
			dup, found = key.Str, true
			return false
		}
		seen[key.Str] = true
		return true
	})
	return dup, found
}

func checkImportedRule(item gjson.Result) error {
	if !item.IsObject() {
		return fmt.Errorf("%w: entry is not an object", models.ErrValidation)
	}
	if key, dup := duplicateKey(item); dup {
		return fmt.Errorf("%w: field %q appears more than once", models.ErrValidation, key)
	}
	for _, field := range []string{"urlPattern", "message", "borderColor"} {
		v := item.Get(field)
		if v.Type != gjson.String || v.Str == "" {
			return fmt.Errorf("%w: %s must be a non-empty string", models.ErrValidation, field)
		}
	}
	mt := item.Get("matchType")
	if mt.Type != gjson.String || !models.MatchType(mt.Str).Valid() {
		return fmt.Errorf("%w: matchType %q is not one of %q, %q", models.ErrValidation, mt.String(), models.MatchContains, models.MatchPrefix)
	}
	return nil
}
