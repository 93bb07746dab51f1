package handlers

import (
	"envnotify/core"

	"github.com/go-chi/chi/v5"
)

func RegisterRuleRoutes(r chi.Router, editor *core.Editor) {
	h := &RuleHandlers{editor: editor}
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", h.ListRules)
		r.Post("/", h.CreateRule)
		r.Get("/export", h.ExportRules)
		r.Post("/import", h.ImportRules)
		r.Put("/{ruleID}", h.UpdateRule)
		r.Delete("/{ruleID}", h.DeleteRule)
		r.Post("/{ruleID}/move", h.MoveRule)
	})
	r.Get("/match", h.MatchURL)
}
