package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"envnotify/core"
	"envnotify/logger"
	"envnotify/models"

	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 4 << 20

// RuleHandlers serves the rule list through an Editor.
type RuleHandlers struct {
	editor *core.Editor
}

// ListRules returns every rule in priority order.
// @Summary List rules
// @Tags Rules
// @Produce json
// @Success 200 {array} models.Rule
// @Failure 500 {object} models.ErrorResponse
// @Router /rules [get]
func (h *RuleHandlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.editor.List(r.Context())
	if err != nil {
		writeEditorError(w, "ListRules", err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// CreateRule appends a rule at the lowest priority.
// @Summary Create rule
// @Description Match type defaults to partial and border color to #ff0000 when omitted.
// @Tags Rules
// @Accept json
// @Produce json
// @Param rule body models.RuleFields true "Rule to create"
// @Success 201 {object} models.Rule
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rules [post]
func (h *RuleHandlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var fields models.RuleFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	rule, err := h.editor.Create(r.Context(), nil, fields)
	if err != nil {
		writeEditorError(w, "CreateRule", err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// UpdateRule replaces the editable fields of a rule.
// @Summary Update rule
// @Description An unknown ruleID is ignored and answered with 204.
// @Tags Rules
// @Accept json
// @Produce json
// @Param ruleID path string true "Rule ID"
// @Param rule body models.RuleFields true "New values"
// @Success 200 {object} models.Rule
// @Success 204 "Rule not found, nothing changed"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rules/{ruleID} [put]
func (h *RuleHandlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ruleID")
	var fields models.RuleFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	rule, err := h.editor.Update(r.Context(), id, fields)
	if err != nil {
		writeEditorError(w, "UpdateRule", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// DeleteRule removes a rule and renumbers the rest.
// @Summary Delete rule
// @Tags Rules
// @Param ruleID path string true "Rule ID"
// @Success 204
// @Failure 500 {object} models.ErrorResponse
// @Router /rules/{ruleID} [delete]
func (h *RuleHandlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.Delete(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		writeEditorError(w, "DeleteRule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveRule swaps a rule with its neighbor.
// @Summary Move rule
// @Tags Rules
// @Accept json
// @Param ruleID path string true "Rule ID"
// @Param move body models.MoveRequest true "Direction"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rules/{ruleID}/move [post]
func (h *RuleHandlers) MoveRule(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.editor.Move(r.Context(), chi.URLParam(r, "ruleID"), req.Direction); err != nil {
		writeEditorError(w, "MoveRule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportRules downloads the whole list.
// @Summary Export rules
// @Tags Rules
// @Produce json
// @Success 200 {object} models.ExportDocument
// @Failure 500 {object} models.ErrorResponse
// @Router /rules/export [get]
func (h *RuleHandlers) ExportRules(w http.ResponseWriter, r *http.Request) {
	data, err := h.editor.Export(r.Context())
	if err != nil {
		writeEditorError(w, "ExportRules", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.ExportFileName(time.Now())))
	if _, err := w.Write(data); err != nil {
		logger.Error("ExportRules: writing response: %v", err)
	}
}

// ImportRules replaces the list with an exported document.
// @Summary Import rules
// @Description The whole payload is rejected if any entry is invalid. Ids and order are regenerated.
// @Tags Rules
// @Accept json
// @Produce json
// @Param document body models.ExportDocument true "Exported rules"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rules/import [post]
func (h *RuleHandlers) ImportRules(w http.ResponseWriter, r *http.Request) {
	n, err := h.editor.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeEditorError(w, "ImportRules", err)
		return
	}
	writeJSON(w, http.StatusOK, models.ImportResult{Imported: n})
}

// MatchURL reports which rule, if any, a page URL would trigger.
// @Summary Match URL
// @Tags Rules
// @Produce json
// @Param url query string true "Page URL"
// @Success 200 {object} models.MatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /match [get]
func (h *RuleHandlers) MatchURL(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	rules, err := h.editor.List(r.Context())
	if err != nil {
		writeEditorError(w, "MatchURL", err)
		return
	}
	resp := models.MatchResponse{URL: pageURL}
	if rule, ok := core.Select(pageURL, rules); ok {
		resp.Matched = true
		resp.Rule = &rule
	}
	writeJSON(w, http.StatusOK, resp)
}
