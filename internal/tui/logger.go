// Package tui renders log records and dialog boxes on the terminal.
package tui

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Handler is a compact slog.Handler writing "LEVEL message k=v" lines.
type Handler struct {
	w       io.Writer
	verbose bool
	attrs   []slog.Attr
	group   string

	mu     *sync.Mutex
	styles map[slog.Level]lipgloss.Style
	attr   lipgloss.Style
}

// NewHandler returns a Handler writing to out. Debug records are only shown when verbose is set.
func NewHandler(out io.Writer, verbose bool) *Handler {
	r := lipgloss.NewRenderer(out)

	return &Handler{
		w:       out,
		verbose: verbose,
		mu:      &sync.Mutex{},
		styles: map[slog.Level]lipgloss.Style{
			slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("4")),
			slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("2")),
			slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
			slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
		attr: r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	if level < slog.LevelInfo {
		return h.verbose
	}

	return true
}

// WithAttrs returns a copy of the handler carrying the extra attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)

	return &clone
}

// WithGroup returns a copy of the handler prefixing attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}

	return &clone
}

// Handle handles the Record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	style, ok := h.styles[r.Level]
	if !ok {
		style = h.styles[slog.LevelInfo]
	}

	buf.WriteString(style.Render(r.Level.String()))
	buf.WriteString(" ")
	buf.WriteString(r.Message)

	attrs := make(map[string]string, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}

	recordAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)

		return true
	})

	for _, a := range h.qualify(recordAttrs) {
		attrs[a.Key] = a.Value.String()
	}

	if len(attrs) > 0 {
		// Sort the keys so we have a consistent output.
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+attrs[k])
		}

		buf.WriteString(" " + h.attr.Render(strings.Join(pairs, " ")))
	}

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, buf.String())

	return err
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}

	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.group + "." + a.Key, Value: a.Value})
	}

	return out
}
