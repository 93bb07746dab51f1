package store_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"envnotify/models"
	"envnotify/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, ...string) (map[string][]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, map[string][]byte) error            { return f.err }

func TestLoadMissingKeyIsEmpty(t *testing.T) {
	s := store.NewRuleStore(store.NewMemoryKV())

	rules, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rules)
	assert.Empty(t, rules)
}

func TestLoadSortsByOrder(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	raw := `[{"id":"c","urlPattern":"c","matchType":"partial","message":"c","borderColor":"#000","order":2},
	         {"id":"a","urlPattern":"a","matchType":"prefix","message":"a","borderColor":"#000","order":0},
	         {"id":"b","urlPattern":"b","matchType":"partial","message":"b","borderColor":"#000","order":1}]`
	require.NoError(t, kv.Set(ctx, map[string][]byte{models.RulesStorageKey: []byte(raw)}))

	rules, err := store.NewRuleStore(kv).Load(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{rules[0].ID, rules[1].ID, rules[2].ID})
	assert.Equal(t, models.MatchPrefix, rules[0].MatchType)
}

func TestSaveIsSingleWriteAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := store.NewRuleStore(kv)

	in := []models.Rule{
		{ID: "x", URLPattern: "https://prod", MatchType: models.MatchPrefix, Message: "PROD", BorderColor: "#f00", Order: 0},
		{ID: "y", URLPattern: "staging", MatchType: models.MatchContains, Message: "STG", BorderColor: "#0f0", Order: 1},
	}
	require.NoError(t, s.Save(ctx, in))
	assert.Equal(t, 1, kv.Writes())

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveDoesNotRenumber(t *testing.T) {
	ctx := context.Background()
	s := store.NewRuleStore(store.NewMemoryKV())

	require.NoError(t, s.Save(ctx, []models.Rule{{ID: "a", Order: 7}}))
	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].Order)
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	s := store.NewRuleStore(failingKV{err: boom})

	_, err := s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.ErrorIs(t, err, boom)

	err = s.Save(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
}

func TestLoadCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, map[string][]byte{models.RulesStorageKey: []byte("{not json")}))

	_, err := store.NewRuleStore(kv).Load(ctx)
	assert.ErrorIs(t, err, models.ErrStorage)
}

func TestNewIDFormatAndUniqueness(t *testing.T) {
	s := store.NewRuleStore(store.NewMemoryKV())
	pattern := regexp.MustCompile(`^\d+-[0-9a-z]{9}$`)

	seen := make(map[string]bool)
	var lastMillis int64
	for i := 0; i < 500; i++ {
		id := s.NewID()
		require.Regexp(t, pattern, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		millis, err := strconv.ParseInt(strings.SplitN(id, "-", 2)[0], 10, 64)
		require.NoError(t, err)
		assert.Greater(t, millis, lastMillis)
		lastMillis = millis
	}
}
