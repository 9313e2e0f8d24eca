package log

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/nao1215/pagerank/internal/rank"
)

// DefaultPrecision is the number of decimals kept in float attributes.
const DefaultPrecision = 6

// PrecisionHandler wraps an slog.Handler to round floating-point attributes.
// Ranks and deltas carry long binary tails (0.21999999999999997) that make
// debug logs hard to scan; the handler rounds them to a fixed number of
// decimals before passing the record on. rank.Vector attributes are expanded
// into a group with one rounded attribute per page, in page order.
type PrecisionHandler struct {
	// handler is the underlying slog handler that receives rounded records.
	handler slog.Handler

	// scale is 10^precision.
	scale float64
}

// NewPrecisionHandler creates a new PrecisionHandler wrapping the given handler.
// If handler is nil, the returned PrecisionHandler uses slog.Default().Handler().
// A negative precision is treated as DefaultPrecision.
func NewPrecisionHandler(handler slog.Handler, precision int) *PrecisionHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &PrecisionHandler{
		handler: handler,
		scale:   math.Pow10(precision),
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *PrecisionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rounds the record's attributes and passes it to the underlying handler.
func (h *PrecisionHandler) Handle(ctx context.Context, r slog.Record) error {
	rounded := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rounded.AddAttrs(h.roundAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rounded)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rounded before being added.
func (h *PrecisionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rounded := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rounded[i] = h.roundAttr(a)
	}
	return &PrecisionHandler{handler: h.handler.WithAttrs(rounded), scale: h.scale}
}

// WithGroup returns a new handler with the given group name.
func (h *PrecisionHandler) WithGroup(name string) slog.Handler {
	return &PrecisionHandler{handler: h.handler.WithGroup(name), scale: h.scale}
}

// roundAttr rounds a single attribute, recursively handling groups.
func (h *PrecisionHandler) roundAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		rounded := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rounded[i] = h.roundAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rounded...)}
	case slog.KindFloat64:
		return slog.Float64(a.Key, h.round(a.Value.Float64()))
	case slog.KindAny:
		if v, ok := a.Value.Any().(rank.Vector); ok {
			entries := v.Sorted()
			attrs := make([]slog.Attr, len(entries))
			for i, e := range entries {
				attrs[i] = slog.Float64(e.Page, h.round(e.Rank))
			}
			return slog.Attr{Key: a.Key, Value: slog.GroupValue(attrs...)}
		}
	}

	return a
}

// round rounds f to the handler's precision. NaN and infinities pass through.
func (h *PrecisionHandler) round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Round(f*h.scale) / h.scale
}

// NewLogger creates a new slog.Logger writing text with rounded floats.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	textHandler := slog.NewTextHandler(w, handlerOptions(verbose))
	return slog.New(NewPrecisionHandler(textHandler, DefaultPrecision))
}

// NewJSONLogger creates a new slog.Logger writing JSON with rounded floats.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, handlerOptions(verbose))
	return slog.New(NewPrecisionHandler(jsonHandler, DefaultPrecision))
}

// handlerOptions selects Debug when verbose and Warn otherwise.
func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
