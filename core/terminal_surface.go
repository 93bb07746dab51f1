package core

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const terminalWidth = 60

// TerminalSurface renders the page border and banner as styled lines on w.
type TerminalSurface struct {
	mu       sync.Mutex
	w        io.Writer
	attached map[*Banner]bool
}

func NewTerminalSurface(w io.Writer) *TerminalSurface {
	return &TerminalSurface{w: w, attached: make(map[*Banner]bool)}
}

func (t *TerminalSurface) SetPageBorder(widthPx int, color string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rule := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Bold(widthPx > 4).
		Render(strings.Repeat("━", terminalWidth))
	fmt.Fprintln(t.w, rule)
}

func (t *TerminalSurface) Append(b *Banner) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	banner := lipgloss.NewStyle().
		Background(lipgloss.Color(b.Background)).
		Foreground(lipgloss.Color("#ffffff")).
		Bold(true).
		Padding(0, 2).
		Width(terminalWidth).
		Align(lipgloss.Center).
		Render(b.Message)
	if _, err := fmt.Fprintln(t.w, banner); err != nil {
		return fmt.Errorf("writing banner: %w", err)
	}
	t.attached[b] = true
	return nil
}

func (t *TerminalSurface) AddClass(b *Banner, class string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.attached[b] || class != FadeOutClass {
		return
	}
	faded := lipgloss.NewStyle().Faint(true).Width(terminalWidth).Align(lipgloss.Center).Render(b.Message)
	fmt.Fprintln(t.w, faded)
}

func (t *TerminalSurface) Remove(b *Banner) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attached, b)
}

func (t *TerminalSurface) Attached(b *Banner) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached[b]
}
