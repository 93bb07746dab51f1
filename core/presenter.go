package core

import (
	"fmt"
	"sync"
	"time"

	"envnotify/logger"
	"envnotify/models"
)

// Banner geometry and timing. These are fixed; the injected browser script uses the same values.
const (
	BannerID        = "envnotify-banner"
	BannerClass     = "envnotify-banner"
	FadeOutClass    = "fade-out"
	BorderWidthPx   = 8
	DwellDuration   = 5000 * time.Millisecond
	FadeOutDuration = 300 * time.Millisecond
)

// State is the lifecycle position of the page's banner.
type State int

const (
	StateIdle State = iota
	StateShowing
	StateFadingOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShowing:
		return "showing"
	case StateFadingOut:
		return "fading-out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Banner is one banner instance. Surfaces key their own nodes by the pointer.
type Banner struct {
	ID         string
	Message    string
	Background string
}

// Surface is the page the presenter draws into.
type Surface interface {
	SetPageBorder(widthPx int, color string)
	Append(b *Banner) error
	AddClass(b *Banner, class string)
	Remove(b *Banner)
	Attached(b *Banner) bool
}

// Clock schedules the dwell and fade-out transitions.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

type PresenterOption func(*Presenter)

// WithClock replaces the wall clock.
func WithClock(c Clock) PresenterOption {
	return func(p *Presenter) { p.clock = c }
}

// WithStateListener registers fn to observe every state transition.
func WithStateListener(fn func(State)) PresenterOption {
	return func(p *Presenter) { p.onState = fn }
}

// Presenter keeps at most one banner on a surface and tears it down on a timer:
// Idle -> Showing -> FadingOut -> Idle. The page border is left in place afterwards.
type Presenter struct {
	mu      sync.Mutex
	surface Surface
	clock   Clock
	onState func(State)

	state   State
	current *Banner
}

func NewPresenter(surface Surface, opts ...PresenterOption) *Presenter {
	p := &Presenter{surface: surface, clock: systemClock{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Show replaces any banner on the surface with one for rule and starts the dwell timer.
func (p *Presenter) Show(rule models.Rule) error {
	var transitions []State

	p.mu.Lock()
	if p.current != nil {
		p.surface.Remove(p.current)
		p.current = nil
		p.state = StateIdle
		transitions = append(transitions, StateIdle)
	}

	p.surface.SetPageBorder(BorderWidthPx, rule.BorderColor)
	b := &Banner{ID: BannerID, Message: rule.Message, Background: rule.BorderColor}
	if err := p.surface.Append(b); err != nil {
		p.mu.Unlock()
		p.notify(transitions...)
		return fmt.Errorf("appending banner for rule %s: %w", rule.ID, err)
	}
	p.current = b
	p.state = StateShowing
	transitions = append(transitions, StateShowing)
	p.mu.Unlock()

	p.notify(transitions...)
	logger.Debug("Presenter: showing banner for rule %s (%q)", rule.ID, rule.Message)

	p.clock.AfterFunc(DwellDuration, func() { p.fadeOut(b) })
	return nil
}

// State returns the current lifecycle state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the banner on screen, or nil when idle.
func (p *Presenter) Current() *Banner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Presenter) fadeOut(b *Banner) {
	p.mu.Lock()
	if p.current != b || !p.surface.Attached(b) {
		p.mu.Unlock()
		return
	}
	p.surface.AddClass(b, FadeOutClass)
	p.state = StateFadingOut
	p.mu.Unlock()

	p.notify(StateFadingOut)
	p.clock.AfterFunc(FadeOutDuration, func() { p.dismiss(b) })
}

func (p *Presenter) dismiss(b *Banner) {
	p.mu.Lock()
	if p.current != b {
		p.mu.Unlock()
		return
	}
	p.surface.Remove(b)
	p.current = nil
	p.state = StateIdle
	p.mu.Unlock()

	p.notify(StateIdle)
}

func (p *Presenter) notify(states ...State) {
	if p.onState == nil {
		return
	}
	for _, s := range states {
		p.onState(s)
	}
}
