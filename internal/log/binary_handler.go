package log

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"
)

// MaxBytePreview is the number of leading bytes of a byte-slice attribute
// rendered into the log stream. Anything beyond it is elided with a total
// length marker.
const MaxBytePreview = 16

// BinaryHandler wraps an slog.Handler to keep raw byte payloads out of
// the log stream. Byte-slice attribute values are replaced with a bounded
// hex preview and string values have control characters stripped before
// the record is passed to the underlying handler.
type BinaryHandler struct {
	// handler is the underlying slog handler that receives the
	// rewritten records.
	handler slog.Handler
}

// NewBinaryHandler creates a BinaryHandler wrapping the given handler.
// If handler is nil, the returned BinaryHandler uses slog.Default()'s
// handler.
func NewBinaryHandler(handler slog.Handler) *BinaryHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &BinaryHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *BinaryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it to the underlying
// handler.
func (h *BinaryHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rewritten before being added.
func (h *BinaryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &BinaryHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *BinaryHandler) WithGroup(name string) slog.Handler {
	return &BinaryHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *BinaryHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	if a.Value.Kind() == slog.KindAny {
		if b, ok := a.Value.Any().([]byte); ok {
			return slog.String(a.Key, FormatBytes(b))
		}
	}

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if hasControlRunes(s) {
			return slog.String(a.Key, stripControlRunes(s))
		}
	}

	return a
}

// FormatBytes renders a byte slice as a bounded hex preview, e.g.
// "89504e470d0a1a0a (8 bytes)" or "ffd8ffe0... (30124 bytes)".
func FormatBytes(b []byte) string {
	if len(b) <= MaxBytePreview {
		return fmt.Sprintf("%s (%d bytes)", hex.EncodeToString(b), len(b))
	}
	return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(b[:MaxBytePreview]), len(b))
}

// hasControlRunes reports whether s contains control characters other
// than tab.
func hasControlRunes(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsControl(r) && r != '\t'
	})
}

// stripControlRunes replaces control characters (except tab) with '.'.
// Replacement rather than removal keeps offsets within the logged value
// meaningful when inspecting partially binary strings.
func stripControlRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return '.'
		}
		return r
	}, s)
}

// NewLogger creates a *slog.Logger writing text records to w through a
// BinaryHandler at the given level. This is the logger constructor used
// by the CLI layer; engine packages receive the logger by injection.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewBinaryHandler(slog.NewTextHandler(w, opts)))
}
