// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gclog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

// httpRequestAttrKey is the attribute key under which an *HTTPRequest value
// is lifted out of the label set and into the entry's httpRequest field.
const httpRequestAttrKey = "httpRequest"

// Handler returns an [slog.Handler] that converts each record into an
// [Event] with the given target and routes it through the formatter. This
// is how the formatter registers as a process-wide log sink:
//
//	slog.SetDefault(slog.New(f.Handler("myservice.backend")))
//
// The handler reports every level as enabled; filtering belongs to the slog
// front end (slog.HandlerOptions or a LevelVar on a wrapping handler), not
// to the formatting core. String-convertible attributes become entry
// labels, groups join label keys with ".", and an *HTTPRequest attribute
// under the "httpRequest" key populates the entry's httpRequest field.
func (f *Formatter) Handler(target string) slog.Handler {
	return &sinkHandler{f: f, target: target}
}

type sinkHandler struct {
	f      *Formatter
	target string
	labels map[string]string
	req    *HTTPRequest
	prefix string
}

// Enabled reports every level as enabled at this layer.
func (h *sinkHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle converts r into an Event and hands it to the formatter. The error
// return serves handler-chain observability; it never reaches application
// call sites because slog discards handler errors.
func (h *sinkHandler) Handle(ctx context.Context, r slog.Record) error {
	e := Event{
		Level:   levelFromSlog(r.Level),
		Target:  h.target,
		Message: r.Message,
	}

	if len(h.labels) > 0 {
		e.Labels = cloneStringMap(h.labels)
	}
	e.HTTPRequest = h.req

	r.Attrs(func(attr slog.Attr) bool {
		h.collectAttr(&e, h.prefix, attr)
		return true
	})

	if file, line, function, ok := resolveSource(r.PC); ok {
		e.File, e.Line, e.Function = file, line, function
	}

	return h.f.Handle(ctx, e)
}

// WithAttrs returns a handler that includes attrs on every record.
func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	for _, attr := range attrs {
		next.collectBaseAttr(h.prefix, attr)
	}
	return next
}

// WithGroup nests subsequent attribute keys under name.
func (h *sinkHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = h.prefix + name + "."
	return next
}

// clone copies the handler so derived handlers never share label maps.
func (h *sinkHandler) clone() *sinkHandler {
	return &sinkHandler{
		f:      h.f,
		target: h.target,
		labels: cloneStringMap(h.labels),
		req:    h.req,
		prefix: h.prefix,
	}
}

// collectBaseAttr folds a WithAttrs attribute into the handler's base state.
func (h *sinkHandler) collectBaseAttr(prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		childPrefix := prefix
		if attr.Key != "" {
			childPrefix += attr.Key + "."
		}
		for _, child := range attr.Value.Group() {
			h.collectBaseAttr(childPrefix, child)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	if attr.Key == httpRequestAttrKey && prefix == "" {
		if req, ok := attr.Value.Any().(*HTTPRequest); ok {
			h.req = req
			return
		}
	}
	if s, ok := labelValue(attr.Value); ok {
		if h.labels == nil {
			h.labels = make(map[string]string, 4)
		}
		h.labels[prefix+attr.Key] = s
	}
}

// collectAttr folds a record attribute into the outgoing event.
func (h *sinkHandler) collectAttr(e *Event, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		childPrefix := prefix
		if attr.Key != "" {
			childPrefix += attr.Key + "."
		}
		for _, child := range attr.Value.Group() {
			h.collectAttr(e, childPrefix, child)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	if attr.Key == httpRequestAttrKey && prefix == "" {
		if req, ok := attr.Value.Any().(*HTTPRequest); ok {
			e.HTTPRequest = req
			return
		}
	}
	if s, ok := labelValue(attr.Value); ok {
		if e.Labels == nil {
			e.Labels = make(map[string]string, 4)
		}
		e.Labels[prefix+attr.Key] = s
	}
}

// levelFromSlog maps the open-ended slog level range onto the five event
// levels. Levels below DEBUG count as trace.
func levelFromSlog(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	case l >= slog.LevelDebug:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// resolveSource recovers the call site recorded in pc, if any.
func resolveSource(pc uintptr) (file string, line int, function string, ok bool) {
	if pc == 0 {
		return "", 0, "", false
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.Function == "" && frame.File == "" {
		return "", 0, "", false
	}
	return frame.File, frame.Line, frame.Function, true
}

// labelValue converts a resolved slog.Value into its string form suitable
// for label emission. Unrepresentable kinds are skipped rather than
// stringified blindly.
func labelValue(v slog.Value) (string, bool) {
	switch v.Kind() {
	case slog.KindString:
		return v.String(), true
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10), true
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10), true
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64), true
	case slog.KindBool:
		return strconv.FormatBool(v.Bool()), true
	case slog.KindDuration:
		return v.Duration().String(), true
	case slog.KindTime:
		return v.Time().Format(time.RFC3339), true
	case slog.KindAny:
		return labelFromAny(v.Any())
	default:
		return "", false
	}
}

// labelFromAny converts arbitrary attribute values into label strings when
// possible.
func labelFromAny(val any) (string, bool) {
	switch vt := val.(type) {
	case nil:
		return "", false
	case error:
		return vt.Error(), true
	case fmt.Stringer:
		return vt.String(), true
	default:
		return fmt.Sprintf("%v", vt), true
	}
}
