package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"envnotify/logger"
	"envnotify/models"

	"github.com/google/uuid"
)

const idSuffixLen = 9

// RuleStore gives typed access to the rule list persisted under a single key.
type RuleStore struct {
	kv  KV
	key string
	now func() time.Time

	idMu       sync.Mutex
	lastMillis int64
}

// NewRuleStore returns a store over kv using models.RulesStorageKey.
func NewRuleStore(kv KV) *RuleStore {
	return &RuleStore{kv: kv, key: models.RulesStorageKey, now: time.Now}
}

// Load returns the persisted rules sorted by Order. A missing key yields an empty list.
func (s *RuleStore) Load(ctx context.Context) ([]models.Rule, error) {
	values, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", models.ErrStorage, s.key, err)
	}

	raw, ok := values[s.key]
	if !ok || len(raw) == 0 {
		return []models.Rule{}, nil
	}

	var rules []models.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		logger.Error("RuleStore.Load: stored value under %q is not a rule list: %v", s.key, err)
		return nil, fmt.Errorf("%w: decoding %q: %w", models.ErrStorage, s.key, err)
	}
	if rules == nil {
		rules = []models.Rule{}
	}

	// Physical order in storage is not trusted.
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Order < rules[j].Order })
	return rules, nil
}

// Save persists the full list in one write. Orders are stored as given.
func (s *RuleStore) Save(ctx context.Context, rules []models.Rule) error {
	if rules == nil {
		rules = []models.Rule{}
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("%w: encoding rules: %w", models.ErrStorage, err)
	}
	if err := s.kv.Set(ctx, map[string][]byte{s.key: raw}); err != nil {
		return fmt.Errorf("%w: writing %q: %w", models.ErrStorage, s.key, err)
	}
	logger.Debug("RuleStore.Save: wrote %d rules under %q", len(rules), s.key)
	return nil
}

// NewID returns "<unix-millis>-<9 base36 chars>". The millisecond part never repeats
// or goes backwards within one store.
func (s *RuleStore) NewID() string {
	s.idMu.Lock()
	ms := s.now().UnixMilli()
	if ms <= s.lastMillis {
		ms = s.lastMillis + 1
	}
	s.lastMillis = ms
	s.idMu.Unlock()

	return fmt.Sprintf("%d-%s", ms, randomSuffix())
}

func randomSuffix() string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < idSuffixLen {
		s = strings.Repeat("0", idSuffixLen-len(s)) + s
	}
	return s[len(s)-idSuffixLen:]
}
