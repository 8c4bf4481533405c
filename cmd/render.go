package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/glamour"
)

// consolePreview streams reply text to the terminal as it arrives and
// replaces it with a markdown-rendered version once the reply is complete.
type consolePreview struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
}

func newConsolePreview(out io.Writer) *consolePreview {
	return &consolePreview{out: out}
}

func (p *consolePreview) Begin() {
	p.mu.Lock()
	p.printed = 0
	p.mu.Unlock()
}

// SetText receives the full accumulated text; only the unseen tail is
// written so the stream appears incrementally.
func (p *consolePreview) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(text) <= p.printed {
		return
	}
	fmt.Fprint(p.out, text[p.printed:])
	p.printed = len(text)
}

func (p *consolePreview) Finalize(markdown string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return
	}
	fmt.Fprint(p.out, rendered)
}
