// Package logging provides the slog logger used by the CLI: every record is
// kept in a bounded in-memory history, which can be listed and searched, and
// is optionally also written as text or JSON.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is the history size used when none is given.
const DefaultBufferSize = 1000

// Format selects the output written alongside the history.
type Format string

const (
	FormatNone Format = ""
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Entry is a single record kept in the history.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs"`
}

// String formats the entry on one line.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", e.Time.Format(time.TimeOnly), e.Level, e.Message)
	for _, k := range sortedKeys(e.Attrs) {
		fmt.Fprintf(&b, " %s=%s", k, e.Attrs[k])
	}
	return b.String()
}

// Options configures New.
type Options struct {
	// Level is the minimum level recorded. The zero value is Info.
	Level slog.Leveler

	// Format of the records written to the output writer.
	Format Format

	// BufferSize bounds the history. Values < 1 use DefaultBufferSize.
	BufferSize int
}

// Logger is an slog.Logger backed by a BufferHandler.
type Logger struct {
	*slog.Logger
	handler *BufferHandler
}

// New returns a Logger that records into a history and, if opts.Format is
// not FormatNone and w is non-nil, also writes each record to w.
func New(w io.Writer, opts Options) (*Logger, error) {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	var next slog.Handler
	if w != nil {
		handlerOpts := &slog.HandlerOptions{Level: level}
		switch opts.Format {
		case FormatNone:
		case FormatText:
			next = slog.NewTextHandler(w, handlerOpts)
		case FormatJSON:
			next = slog.NewJSONHandler(w, handlerOpts)
		default:
			return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
		}
	}

	h := NewBufferHandler(opts.BufferSize, level, next)
	return &Logger{Logger: slog.New(h), handler: h}, nil
}

// Handler returns the history handler.
func (l *Logger) Handler() *BufferHandler { return l.handler }

// Logs returns every entry in the history, oldest first.
func (l *Logger) Logs() []Entry { return l.handler.Logs() }

// Recent returns the most recent count entries.
func (l *Logger) Recent(count int) []Entry { return l.handler.Recent(count) }

// Search returns the entries whose message, attribute key or attribute
// value contains query, case-insensitively.
func (l *Logger) Search(query string) []Entry { return l.handler.Search(query) }

// Clear empties the history.
func (l *Logger) Clear() { l.handler.Clear() }

// history is the state shared by a BufferHandler and its derivatives.
type history struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

// BufferHandler is an slog.Handler keeping the last N records in memory and
// passing each record on to an optional next handler.
type BufferHandler struct {
	history *history
	level   slog.Leveler
	next    slog.Handler
	attrs   []slog.Attr
	group   string
}

// NewBufferHandler returns a handler keeping up to size records at level or
// above. next may be nil.
func NewBufferHandler(size int, level slog.Leveler, next slog.Handler) *BufferHandler {
	if size < 1 {
		size = DefaultBufferSize
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &BufferHandler{
		history: &history{
			entries: make([]Entry, 0, size),
			maxSize: size,
		},
		level: level,
		next:  next,
	}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		addAttr(attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, h.group, a)
		return true
	})

	entry := Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	}

	h.history.mu.Lock()
	h.history.entries = append(h.history.entries, entry)
	// Maintain max size by removing oldest entries
	if len(h.history.entries) > h.history.maxSize {
		h.history.entries = h.history.entries[1:]
	}
	h.history.mu.Unlock()

	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], qualify(h.group, attrs)...)
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

// Logs returns every entry, oldest first.
func (h *BufferHandler) Logs() []Entry {
	h.history.mu.RLock()
	defer h.history.mu.RUnlock()
	logs := make([]Entry, len(h.history.entries))
	copy(logs, h.history.entries)
	return logs
}

// Recent returns the most recent count entries; count <= 0 returns all.
func (h *BufferHandler) Recent(count int) []Entry {
	h.history.mu.RLock()
	defer h.history.mu.RUnlock()

	if count <= 0 || count > len(h.history.entries) {
		count = len(h.history.entries)
	}
	start := len(h.history.entries) - count
	logs := make([]Entry, count)
	copy(logs, h.history.entries[start:])
	return logs
}

// Search returns matching entries; see Logger.Search.
func (h *BufferHandler) Search(query string) []Entry {
	h.history.mu.RLock()
	defer h.history.mu.RUnlock()

	query = strings.ToLower(query)
	var matches []Entry
	for _, entry := range h.history.entries {
		if strings.Contains(strings.ToLower(entry.Message), query) {
			matches = append(matches, entry)
			continue
		}
		for key, value := range entry.Attrs {
			if strings.Contains(strings.ToLower(key), query) ||
				strings.Contains(strings.ToLower(value), query) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// Clear empties the history, keeping its capacity.
func (h *BufferHandler) Clear() {
	h.history.mu.Lock()
	defer h.history.mu.Unlock()
	h.history.entries = h.history.entries[:0]
}

// Len returns the number of entries held.
func (h *BufferHandler) Len() int {
	h.history.mu.RLock()
	defer h.history.mu.RUnlock()
	return len(h.history.entries)
}

// ParseLevel parses debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// ParseFormat parses text, json or an empty string.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatNone, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("logging: unknown format %q", s)
	}
}

func qualify(group string, attrs []slog.Attr) []slog.Attr {
	if group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: group + "." + a.Key, Value: a.Value}
	}
	return out
}

func addAttr(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if prefix != "" {
		key = prefix
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
