package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

// alwaysMasked are attribute keys that carry secrets in this service
// regardless of configuration.
var alwaysMasked = []string{"pass", "one_time_pass", "hotp_secret"}

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string, level slog.Level) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})

	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &maskHandler{Handler: handler, keys: newMaskKeys(slices.Concat(maskFields, alwaysMasked))},
		serviceName: serviceName,
	}))
}

// renameAttr shortens built-in keys and trims source paths to the module-relative part.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	if h.serviceName != "" {
		r.AddAttrs(slog.String("service", h.serviceName))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type maskKeys map[string]struct{}

func newMaskKeys(fields []string) maskKeys {
	keys := make(maskKeys, len(fields))
	for _, field := range fields {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

func (k maskKeys) has(key string) bool {
	_, ok := k[strings.ToLower(key)]
	return ok
}

// maskHandler replaces the value of sensitive attributes, including keys
// nested in groups, maps and JSON encoded payloads.
type maskHandler struct {
	slog.Handler
	keys maskKeys
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.keys.attr(a))
		return true
	})

	return h.Handler.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	for i, a := range attrs {
		attrs[i] = h.keys.attr(a)
	}
	return &maskHandler{Handler: h.Handler.WithAttrs(attrs), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{Handler: h.Handler.WithGroup(name), keys: h.keys}
}

func (k maskKeys) attr(a slog.Attr) slog.Attr {
	if k.has(a.Key) {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = k.attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := k.jsonPayload([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any:
			a.Value = slog.AnyValue(k.data(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for key, val := range v {
				m[key] = val
			}
			a.Value = slog.AnyValue(k.data(m))
		case []any:
			a.Value = slog.AnyValue(k.data(v))
		case []byte:
			if s, ok := k.jsonPayload(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// jsonPayload masks payload when it is a JSON object or array.
func (k maskKeys) jsonPayload(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	out, err := json.Marshal(k.data(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (k maskKeys) data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			if k.has(key) {
				out[key] = masked
				continue
			}
			out[key] = k.data(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = k.data(item)
		}
		return out
	default:
		return v
	}
}
