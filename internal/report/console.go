package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Verbosity controls how much the console prints.
type Verbosity int

const (
	Quiet Verbosity = iota
	Normal
	Detailed
)

// ParseVerbosity accepts quiet, normal and detailed, case-insensitively.
// An empty value means normal.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "quiet":
		return Quiet, nil
	case "detailed":
		return Detailed, nil
	}
	return Normal, fmt.Errorf("unknown verbosity %q (want quiet, normal or detailed)", s)
}

func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "quiet"
	case Detailed:
		return "detailed"
	default:
		return "normal"
	}
}

// Console writes user-facing lines. Info goes to out; warnings and errors
// go to errOut. Lines from concurrent pushes never interleave.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	verbosity Verbosity
}

func NewConsole(out, errOut io.Writer, verbosity Verbosity) *Console {
	return &Console{out: out, errOut: errOut, verbosity: verbosity}
}

// Info prints a status line unless the console is quiet.
func (c *Console) Info(msg string) {
	if c.verbosity == Quiet {
		return
	}
	c.write(c.out, msg)
}

// Detail prints only in detailed mode.
func (c *Console) Detail(msg string) {
	if c.verbosity < Detailed {
		return
	}
	c.write(c.out, msg)
}

// Warn prints a warning line, prefixed WARNING.
func (c *Console) Warn(msg string) {
	c.write(c.errOut, "WARNING: "+msg)
}

// Error prints an error line, prefixed error.
func (c *Console) Error(msg string) {
	c.write(c.errOut, "error: "+msg)
}

func (c *Console) write(w io.Writer, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, msg)
}
