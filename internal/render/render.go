// Package render formats decoded trace events as text lines.
package render

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/muurk/cmtrace/internal/symbols"
	"github.com/muurk/cmtrace/internal/trace"
	"github.com/muurk/cmtrace/internal/ui"
)

// UnknownFunction is printed for addresses with no containing symbol.
const UnknownFunction = "<unknown function>"

// Resolver finds the symbol containing an address.
type Resolver interface {
	FindFunctionAt(addr uint32) (symbols.Entry, bool)
}

// ContextNamer names interrupt/exception contexts.
type ContextNamer interface {
	ContextName(n uint8) string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStart sets the reference time for the first transition delta.
func WithStart(t time.Time) Option {
	return func(r *Renderer) {
		r.last = t
	}
}

// WithColor enables lipgloss styling of trace lines.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		r.color = enabled
	}
}

// WithOffsets appends +0x<offset> to resolved function names.
func WithOffsets(enabled bool) Option {
	return func(r *Renderer) {
		r.offsets = enabled
	}
}

// WithAutoFlush flushes the output after every event, for live sources.
func WithAutoFlush(enabled bool) Option {
	return func(r *Renderer) {
		r.autoFlush = enabled
	}
}

// WithDiagnostics sets where sync warnings and resync notices are written.
// By default they go to the trace output.
func WithDiagnostics(w io.Writer) Option {
	return func(r *Renderer) {
		r.diag = w
	}
}

// Renderer writes one or more lines per event. It is not safe for
// concurrent use.
type Renderer struct {
	out      *bufio.Writer
	diag     io.Writer
	resolver Resolver
	names    ContextNamer

	last      time.Time
	color     bool
	offsets   bool
	autoFlush bool

	counts Counts
}

// Counts tallies rendered events.
type Counts struct {
	Transitions  int
	CustomFrames int
	SyncLosses   int
	Resyncs      int
	SkippedBytes int64
	PayloadBytes int64
}

// New creates a Renderer writing to w. A nil resolver renders every
// address as unknown; a nil namer prints context numbers only.
func New(w io.Writer, resolver Resolver, names ContextNamer, opts ...Option) *Renderer {
	r := &Renderer{
		out:      bufio.NewWriter(w),
		resolver: resolver,
		names:    names,
		last:     time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the lines for ev.
func (r *Renderer) Render(ev trace.Event) error {
	var err error
	switch e := ev.(type) {
	case trace.FunctionTransition:
		err = r.renderTransition(e)
	case trace.CustomData:
		err = r.renderCustomData(e)
	case trace.SyncLost:
		err = r.renderSyncLost(e)
	case trace.Resync:
		err = r.renderResync(e)
	default:
		err = fmt.Errorf("unsupported event type %T", ev)
	}
	if err != nil {
		return err
	}

	if r.autoFlush {
		return r.Flush()
	}
	return nil
}

// Flush writes any buffered output.
func (r *Renderer) Flush() error {
	return r.out.Flush()
}

// Counts returns what has been rendered so far.
func (r *Renderer) Counts() Counts {
	return r.counts
}

// Summary returns a one-line description of the session.
func (r *Renderer) Summary() string {
	c := r.counts
	s := fmt.Sprintf("%s function transitions, %s custom data frames (%s)",
		humanize.Comma(int64(c.Transitions)),
		humanize.Comma(int64(c.CustomFrames)),
		humanize.IBytes(uint64(c.PayloadBytes)))
	if c.Resyncs > 0 || c.SyncLosses > 0 {
		s += fmt.Sprintf(", %s sync losses, %s bytes skipped",
			humanize.Comma(int64(c.SyncLosses)),
			humanize.Comma(c.SkippedBytes))
	}
	return s
}

func (r *Renderer) renderTransition(e trace.FunctionTransition) error {
	delta := e.Timestamp.Sub(r.last)
	if delta < 0 {
		delta = 0
	}
	r.last = e.Timestamp
	r.counts.Transitions++

	_, err := fmt.Fprintf(r.out, "Context: %s, %s: PC: %s (in %s), LR: %s (in %s)\n",
		r.style(styleContext, r.contextLabel(e.Context)),
		r.style(styleTime, FormatElapsed(delta)),
		r.style(styleAddress, fmt.Sprintf("0x%08x", e.PC)),
		r.functionLabel(e.PC),
		r.style(styleAddress, fmt.Sprintf("0x%08x", e.LR)),
		r.functionLabel(e.LR),
	)
	return err
}

func (r *Renderer) renderCustomData(e trace.CustomData) error {
	r.counts.CustomFrames++
	r.counts.PayloadBytes += int64(len(e.Payload))

	if _, err := fmt.Fprintf(r.out, "Custom data @ %s, %d bytes\n",
		r.style(styleAddress, fmt.Sprintf("0x%08x", e.Address)), len(e.Payload)); err != nil {
		return err
	}
	for i, b := range e.Payload {
		if _, err := fmt.Fprintf(r.out, "  [%04d] 0x%02x\n", i, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderSyncLost(e trace.SyncLost) error {
	r.counts.SyncLosses++
	return r.diagnostic(styleWarning, fmt.Sprintf("Warning: missing sync word at offset %d (byte 0x%02x)", e.Offset, e.Byte))
}

func (r *Renderer) renderResync(e trace.Resync) error {
	r.counts.Resyncs++
	r.counts.SkippedBytes += int64(e.Skipped)
	return r.diagnostic(styleInfo, fmt.Sprintf("Resynchronized at offset %d after %s skipped bytes", e.Offset, humanize.Comma(int64(e.Skipped))))
}

// diagnostic writes a notice in order with trace lines: when diagnostics
// go to a separate writer, pending trace output is flushed first.
func (r *Renderer) diagnostic(kind styleKind, msg string) error {
	line := r.style(kind, msg) + "\n"
	if r.diag == nil {
		_, err := io.WriteString(r.out, line)
		return err
	}
	if err := r.out.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(r.diag, line)
	return err
}

func (r *Renderer) contextLabel(n uint8) string {
	if r.names == nil {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s (%d)", r.names.ContextName(n), n)
}

func (r *Renderer) functionLabel(addr uint32) string {
	if r.resolver == nil {
		return r.style(styleUnknown, UnknownFunction)
	}
	e, ok := r.resolver.FindFunctionAt(addr)
	if !ok {
		return r.style(styleUnknown, UnknownFunction)
	}
	name := e.DisplayName()
	if r.offsets {
		name = fmt.Sprintf("%s+0x%x", name, e.Offset(addr))
	}
	return r.style(styleFunction, name)
}

// FormatElapsed renders d as seconds.microseconds.
func FormatElapsed(d time.Duration) string {
	us := d.Microseconds()
	return fmt.Sprintf("%d.%06d", us/1_000_000, us%1_000_000)
}

type styleKind int

const (
	styleContext styleKind = iota
	styleTime
	styleAddress
	styleFunction
	styleUnknown
	styleWarning
	styleInfo
)

func (r *Renderer) style(kind styleKind, s string) string {
	if !r.color {
		return s
	}
	return styles[kind].Render(s)
}

var styles = map[styleKind]lipgloss.Style{
	styleContext:  ui.TraceContextStyle,
	styleTime:     ui.TraceTimeStyle,
	styleAddress:  ui.TraceAddressStyle,
	styleFunction: ui.TraceFunctionStyle,
	styleUnknown:  ui.TraceUnknownStyle,
	styleWarning:  ui.TraceWarningStyle,
	styleInfo:     ui.TraceInfoStyle,
}
