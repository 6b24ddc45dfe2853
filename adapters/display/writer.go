package display

import (
	"fmt"
	"io"
	"sync"
)

// WriterDisplay prints each reported outcome on its own line.
// It remembers the last text so a shell can redraw it.
type WriterDisplay struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewWriterDisplay creates a display writing to out
func NewWriterDisplay(out io.Writer) *WriterDisplay {
	return &WriterDisplay{out: out}
}

// Show replaces the displayed text
func (d *WriterDisplay) Show(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = text
	fmt.Fprintln(d.out, text)
}

// Last returns the most recently shown text
func (d *WriterDisplay) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
