package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"envnotify/logger"
	"envnotify/models"
	"envnotify/store"
)

// Session is the state of one management surface: the match type picked for new
// rules and the rule currently open for editing.
type Session struct {
	MatchType models.MatchType
	EditingID string
}

func NewSession() *Session {
	return &Session{MatchType: models.MatchContains}
}

// SelectMatchType sets the match type used by Create when the fields leave it blank.
func (s *Session) SelectMatchType(mt models.MatchType) error {
	if !mt.Valid() {
		return fmt.Errorf("%w: unknown match type %q", models.ErrValidation, mt)
	}
	s.MatchType = mt
	return nil
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithListView registers a callback that receives the freshly reloaded list after
// every successful mutation.
func WithListView(fn func([]models.Rule)) EditorOption {
	return func(e *Editor) { e.listView = fn }
}

// Editor performs validated read-modify-write operations on the rule list.
// Operations are not serialized against each other; the last write wins.
type Editor struct {
	rules    *store.RuleStore
	listView func([]models.Rule)
}

func NewEditor(rules *store.RuleStore, opts ...EditorOption) *Editor {
	e := &Editor{rules: rules}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List returns the current rules in priority order.
func (e *Editor) List(ctx context.Context) ([]models.Rule, error) {
	return e.rules.Load(ctx)
}

// Create appends a new rule at the lowest priority.
func (e *Editor) Create(ctx context.Context, session *Session, fields models.RuleFields) (models.Rule, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return models.Rule{}, err
	}
	if fields.MatchType == "" {
		fields.MatchType = models.MatchContains
		if session != nil && session.MatchType.Valid() {
			fields.MatchType = session.MatchType
		}
	}
	if fields.BorderColor == "" {
		fields.BorderColor = models.DefaultBorderColor
	}

	rules, err := e.rules.Load(ctx)
	if err != nil {
		return models.Rule{}, err
	}
	rule := models.Rule{
		ID:          e.rules.NewID(),
		URLPattern:  fields.URLPattern,
		MatchType:   fields.MatchType,
		Message:     fields.Message,
		BorderColor: fields.BorderColor,
		Order:       len(rules),
	}
	rules = append(rules, rule)
	if err := e.commit(ctx, rules); err != nil {
		return models.Rule{}, err
	}
	logger.Info("Rule created: ID %s, Pattern '%s', MatchType %s, Order %d", rule.ID, rule.URLPattern, rule.MatchType, rule.Order)
	return rule, nil
}

// Update replaces the content fields of rule id. ID and Order never change.
// An absent id yields models.ErrNotFound and nothing is written.
func (e *Editor) Update(ctx context.Context, id string, fields models.RuleFields) (models.Rule, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return models.Rule{}, err
	}

	rules, err := e.rules.Load(ctx)
	if err != nil {
		return models.Rule{}, err
	}
	idx := indexOf(rules, id)
	if idx == -1 {
		logger.Debug("Update: rule %s not found, nothing to do", id)
		return models.Rule{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	rule := rules[idx]
	rule.URLPattern = fields.URLPattern
	rule.Message = fields.Message
	if fields.MatchType != "" {
		rule.MatchType = fields.MatchType
	}
	if fields.BorderColor != "" {
		rule.BorderColor = fields.BorderColor
	}
	rules[idx] = rule

	if err := e.commit(ctx, rules); err != nil {
		return models.Rule{}, err
	}
	logger.Info("Rule updated: ID %s, Pattern '%s', MatchType %s", rule.ID, rule.URLPattern, rule.MatchType)
	return rule, nil
}

// BeginEdit opens rule id for editing in session and returns its current values.
func (e *Editor) BeginEdit(ctx context.Context, session *Session, id string) (models.Rule, error) {
	rules, err := e.rules.Load(ctx)
	if err != nil {
		return models.Rule{}, err
	}
	idx := indexOf(rules, id)
	if idx == -1 {
		return models.Rule{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	session.EditingID = id
	return rules[idx], nil
}

// SaveEdit applies fields to the rule open in session and closes the edit on success.
// A failed validation keeps the edit open.
func (e *Editor) SaveEdit(ctx context.Context, session *Session, fields models.RuleFields) (models.Rule, error) {
	if session.EditingID == "" {
		return models.Rule{}, fmt.Errorf("%w: no rule is being edited", models.ErrNotFound)
	}
	rule, err := e.Update(ctx, session.EditingID, fields)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			e.CancelEdit(session)
		}
		return models.Rule{}, err
	}
	e.CancelEdit(session)
	return rule, nil
}

// CancelEdit closes any open edit in session.
func (e *Editor) CancelEdit(session *Session) {
	session.EditingID = ""
}

// Delete removes rule id and renumbers the rest. An absent id is a no-op.
func (e *Editor) Delete(ctx context.Context, id string) error {
	rules, err := e.rules.Load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(rules, id)
	if idx == -1 {
		logger.Debug("Delete: rule %s not found, nothing to do", id)
		return nil
	}

	remaining := append(rules[:idx:idx], rules[idx+1:]...)
	renumber(remaining)
	if err := e.commit(ctx, remaining); err != nil {
		return err
	}
	logger.Info("Rule deleted: ID %s, %d rules remain", id, len(remaining))
	return nil
}

// Move swaps rule id with its neighbor in direction. Moving past either end, or an
// absent id, is a no-op.
func (e *Editor) Move(ctx context.Context, id string, direction models.Direction) error {
	var step int
	switch direction {
	case models.DirectionUp:
		step = -1
	case models.DirectionDown:
		step = 1
	default:
		return fmt.Errorf("%w: unknown direction %q", models.ErrValidation, direction)
	}

	rules, err := e.rules.Load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(rules, id)
	if idx == -1 {
		logger.Debug("Move: rule %s not found, nothing to do", id)
		return nil
	}
	target := idx + step
	if target < 0 || target >= len(rules) {
		return nil
	}

	rules[idx], rules[target] = rules[target], rules[idx]
	renumber(rules)
	if err := e.commit(ctx, rules); err != nil {
		return err
	}
	logger.Info("Rule moved %s: ID %s now at order %d", direction, id, target)
	return nil
}

// Export serializes the whole list, ids and orders included.
func (e *Editor) Export(ctx context.Context) ([]byte, error) {
	rules, err := e.rules.Load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := encodeExport(rules)
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// Import replaces the stored list with the rules in r. Every rule gets a new id and
// its position as order. Any invalid entry rejects the whole payload.
func (e *Editor) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("%w: reading payload: %w", models.ErrImport, err)
	}
	rules, err := decodeImport(data)
	if err != nil {
		logger.Error("Import rejected: %v", err)
		return 0, err
	}

	for i := range rules {
		rules[i].ID = e.rules.NewID()
		rules[i].Order = i
	}
	if err := e.commit(ctx, rules); err != nil {
		return 0, err
	}
	logger.Info("Imported %d rules, replacing the stored list", len(rules))
	return len(rules), nil
}

// commit saves rules and refreshes the list view from storage.
func (e *Editor) commit(ctx context.Context, rules []models.Rule) error {
	if err := e.rules.Save(ctx, rules); err != nil {
		logger.Error("Editor: saving rules failed: %v", err)
		return err
	}
	if e.listView == nil {
		return nil
	}
	fresh, err := e.rules.Load(ctx)
	if err != nil {
		logger.Error("Editor: reloading rules after save failed: %v", err)
		return nil
	}
	e.listView(fresh)
	return nil
}

func normalizeFields(f models.RuleFields) (models.RuleFields, error) {
	f.URLPattern = strings.TrimSpace(f.URLPattern)
	f.Message = strings.TrimSpace(f.Message)
	f.BorderColor = strings.TrimSpace(f.BorderColor)
	if f.URLPattern == "" || f.Message == "" {
		return f, fmt.Errorf("%w: urlPattern and message are required", models.ErrValidation)
	}
	if f.MatchType != "" && !f.MatchType.Valid() {
		return f, fmt.Errorf("%w: unknown match type %q", models.ErrValidation, f.MatchType)
	}
	return f, nil
}

func indexOf(rules []models.Rule, id string) int {
	for i, r := range rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func renumber(rules []models.Rule) {
	for i := range rules {
		rules[i].Order = i
	}
}
