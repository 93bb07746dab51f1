package core

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"envnotify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock fires scheduled callbacks only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []manualTimer
}

type manualTimer struct {
	at time.Duration
	f  func()
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = append(c.timers, manualTimer{at: c.now + d, f: f})
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		idx := -1
		for i, tm := range c.timers {
			if tm.at <= target && (idx == -1 || tm.at < c.timers[idx].at) {
				idx = i
			}
		}
		if idx == -1 {
			c.now = target
			c.mu.Unlock()
			return
		}
		tm := c.timers[idx]
		c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
		c.now = tm.at
		c.mu.Unlock()
		tm.f()
	}
}

type fakeSurface struct {
	border   string
	banners  []*Banner
	classes  map[*Banner][]string
	appended int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{classes: make(map[*Banner][]string)}
}

func (f *fakeSurface) SetPageBorder(widthPx int, color string) {
	f.border = strings.TrimSpace(color)
	if widthPx != BorderWidthPx {
		f.border = "bad width"
	}
}

func (f *fakeSurface) Append(b *Banner) error {
	f.banners = append(f.banners, b)
	f.appended++
	return nil
}

func (f *fakeSurface) AddClass(b *Banner, class string) {
	f.classes[b] = append(f.classes[b], class)
}

func (f *fakeSurface) Remove(b *Banner) {
	for i, have := range f.banners {
		if have == b {
			f.banners = append(f.banners[:i], f.banners[i+1:]...)
			return
		}
	}
}

func (f *fakeSurface) Attached(b *Banner) bool {
	for _, have := range f.banners {
		if have == b {
			return true
		}
	}
	return false
}

var (
	ruleA = models.Rule{ID: "a", Message: "PRODUCTION", BorderColor: "#ff0000"}
	ruleB = models.Rule{ID: "b", Message: "STAGING", BorderColor: "#ffa500"}
)

func TestPresenterLifecycle(t *testing.T) {
	clock := &manualClock{}
	surface := newFakeSurface()
	var seen []State
	p := NewPresenter(surface, WithClock(clock), WithStateListener(func(s State) { seen = append(seen, s) }))

	assert.Equal(t, StateIdle, p.State())
	require.NoError(t, p.Show(ruleA))

	assert.Equal(t, StateShowing, p.State())
	assert.Equal(t, "#ff0000", surface.border)
	require.Len(t, surface.banners, 1)
	b := surface.banners[0]
	assert.Equal(t, BannerID, b.ID)
	assert.Equal(t, "PRODUCTION", b.Message)
	assert.Equal(t, "#ff0000", b.Background)

	clock.Advance(DwellDuration - time.Millisecond)
	assert.Equal(t, StateShowing, p.State())

	clock.Advance(time.Millisecond)
	assert.Equal(t, StateFadingOut, p.State())
	assert.Equal(t, []string{FadeOutClass}, surface.classes[b])
	require.Len(t, surface.banners, 1)

	clock.Advance(FadeOutDuration)
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, surface.banners)
	assert.Nil(t, p.Current())
	// The border outlives the banner.
	assert.Equal(t, "#ff0000", surface.border)

	assert.Equal(t, []State{StateShowing, StateFadingOut, StateIdle}, seen)
}

func TestPresenterNewShowReplacesBanner(t *testing.T) {
	clock := &manualClock{}
	surface := newFakeSurface()
	p := NewPresenter(surface, WithClock(clock))

	require.NoError(t, p.Show(ruleA))
	first := surface.banners[0]
	clock.Advance(2 * time.Second)
	require.NoError(t, p.Show(ruleB))

	require.Len(t, surface.banners, 1)
	assert.Equal(t, "STAGING", surface.banners[0].Message)
	assert.Equal(t, "#ffa500", surface.border)
	assert.Equal(t, StateShowing, p.State())

	// ruleA's dwell expires here; it must not touch ruleB's banner.
	clock.Advance(3 * time.Second)
	assert.Equal(t, StateShowing, p.State())
	assert.Empty(t, surface.classes[first])
	assert.Empty(t, surface.classes[surface.banners[0]])

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateFadingOut, p.State())
	clock.Advance(FadeOutDuration)
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, surface.banners)
}

func TestPresenterShowDuringFadeOut(t *testing.T) {
	clock := &manualClock{}
	surface := newFakeSurface()
	p := NewPresenter(surface, WithClock(clock))

	require.NoError(t, p.Show(ruleA))
	clock.Advance(DwellDuration + 100*time.Millisecond)
	require.Equal(t, StateFadingOut, p.State())

	require.NoError(t, p.Show(ruleB))
	// ruleA's grace timer fires now and must be a no-op.
	clock.Advance(FadeOutDuration)
	require.Len(t, surface.banners, 1)
	assert.Equal(t, "STAGING", surface.banners[0].Message)
	assert.Equal(t, StateShowing, p.State())
}

func TestPresenterDwellIsNoOpWhenBannerDetached(t *testing.T) {
	clock := &manualClock{}
	surface := newFakeSurface()
	p := NewPresenter(surface, WithClock(clock))

	require.NoError(t, p.Show(ruleA))
	b := surface.banners[0]
	surface.Remove(b) // something else on the page removed it

	clock.Advance(DwellDuration + FadeOutDuration)
	assert.Empty(t, surface.classes[b])
	assert.Equal(t, StateShowing, p.State())
}

func TestTerminalSurfaceLifecycle(t *testing.T) {
	var buf bytes.Buffer
	clock := &manualClock{}
	surface := NewTerminalSurface(&buf)
	p := NewPresenter(surface, WithClock(clock))

	require.NoError(t, p.Show(ruleA))
	b := p.Current()
	require.NotNil(t, b)
	assert.True(t, surface.Attached(b))
	assert.Contains(t, buf.String(), "PRODUCTION")

	clock.Advance(DwellDuration + FadeOutDuration)
	assert.False(t, surface.Attached(b))
	assert.Equal(t, StateIdle, p.State())
	// Banner line plus its faded rendering.
	assert.Equal(t, 2, strings.Count(buf.String(), "PRODUCTION"))
}
