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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Format selects the wire representation a [Formatter] produces.
type Format int

const (
	// FormatText renders one human-readable line per event.
	FormatText Format = iota
	// FormatJSON renders one Cloud Logging [Entry] document per event.
	FormatJSON
)

// String returns the configuration token for f.
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat maps a configuration string onto a Format. The recognized
// values are "text" and "json"; anything else, including the empty string,
// resolves to [FormatText]. A bad value is a fallback, not an error.
func ParseFormat(s string) Format {
	if strings.TrimSpace(strings.ToLower(s)) == "json" {
		return FormatJSON
	}
	return FormatText
}

// FormatFromEnv resolves the output format from the GCLOG_FORMAT environment
// variable, falling back to LOG_FORMAT for compatibility with conventional
// deployments. Unset or unrecognized values select [FormatText].
func FormatFromEnv() Format {
	v := os.Getenv("GCLOG_FORMAT")
	if v == "" {
		v = os.Getenv("LOG_FORMAT")
	}
	return ParseFormat(v)
}

var renderBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Formatter renders log events in a fixed output format and writes each
// rendered event to its sink as a single line. All configuration is fixed at
// construction, so a Formatter is safe for unlimited concurrent use; only
// the sink write itself is serialized.
type Formatter struct {
	format         Format
	sink           *SwitchableWriter
	now            func() time.Time
	backtrace      func() string
	enabled        func(Event) bool
	operation      *Operation
	labels         map[string]string
	traceProjectID string
	insertID       func() string
	internal       *slog.Logger

	dropped atomic.Uint64
}

// New returns a Formatter configured by opts. Without options it renders in
// the format selected by [FormatFromEnv] and writes to stdout.
func New(opts ...Option) *Formatter {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	f := &Formatter{
		format:         cfg.format,
		sink:           NewSwitchableWriter(cfg.writer),
		now:            cfg.now,
		backtrace:      cfg.backtrace,
		enabled:        cfg.enabled,
		operation:      cfg.operation,
		labels:         cloneStringMap(cfg.labels),
		traceProjectID: cfg.traceProjectID,
		insertID:       cfg.insertID,
		internal:       cfg.internal,
	}
	if f.traceProjectID == "" {
		f.traceProjectID = cachedTraceProjectID()
	}
	return f
}

// Enabled reports whether e would be rendered. Every event is enabled
// unless an explicit predicate was installed with [WithEnabledFunc]; level
// filtering belongs to the dispatch layer in front of the formatter, not
// here.
func (f *Formatter) Enabled(e Event) bool {
	if f.enabled == nil {
		return true
	}
	return f.enabled(e)
}

// Handle renders e in the configured format and writes it to the sink.
//
// Rendering is synchronous and fire-and-forget: a failed event is counted,
// reported through the internal diagnostic logger, and dropped. The
// returned error exists for sink-boundary observability; front ends such as
// [Formatter.Handler] do not propagate it into application control flow.
//
// In JSON format, any OpenTelemetry span context carried by ctx is emitted
// through the trace correlation fields. Text format ignores ctx.
func (f *Formatter) Handle(ctx context.Context, e Event) error {
	if !f.Enabled(e) {
		return nil
	}
	if f.format == FormatJSON {
		return f.handleJSON(ctx, e)
	}
	return f.handleText(e)
}

// Dropped returns the number of events lost to encoding or sink failures
// since the formatter was created.
func (f *Formatter) Dropped() uint64 {
	return f.dropped.Load()
}

// SetWriter atomically redirects subsequent output to w. In-flight writes
// finish against the previous writer.
func (f *Formatter) SetWriter(w io.Writer) {
	f.sink.SetWriter(w)
}

// Close closes the sink if the formatter owns a closable one. It never
// closes the process standard streams.
func (f *Formatter) Close() error {
	return f.sink.Close()
}

// handleText renders e as a single text line:
//
//	LEVEL:target - message
//
// with the level padded to five characters and, for error and warn events
// only, the backtrace text appended after the message.
func (f *Formatter) handleText(e Event) error {
	var trailing string
	if e.Level == LevelError || e.Level == LevelWarn {
		trailing = f.backtraceText()
	}

	buf := renderBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		renderBufferPool.Put(buf)
	}()

	fmt.Fprintf(buf, "%-5s:%s - %s%s\n", e.Level, e.Target, e.Message, trailing)
	return f.write(buf)
}

// handleJSON builds the structured Entry for e, serializes it, and writes
// the resulting document as one line.
func (f *Formatter) handleJSON(ctx context.Context, e Event) error {
	entry := f.buildEntry(ctx, e)

	buf := renderBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		renderBufferPool.Put(buf)
	}()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode appends the newline that makes the write line-atomic.
	if err := enc.Encode(&entry); err != nil {
		f.dropped.Add(1)
		f.internal.Error("gclog: failed to encode log entry",
			"error", err, "target", e.Target)
		return fmt.Errorf("gclog: encode entry: %w", err)
	}
	return f.write(buf)
}

// buildEntry assembles the Entry document for e. The backtrace text is
// appended to the message unconditionally here, unlike text format where it
// is restricted to error and warn; the asymmetry is deliberate and matched
// by tests.
func (f *Formatter) buildEntry(ctx context.Context, e Event) Entry {
	entry := Entry{
		Severity: e.Level.Severity(),
		Message:  e.Message + f.backtraceText(),
		Time:     f.now().UTC(),
	}
	if e.Level == LevelError {
		entry.ReportType = ReportedErrorEventType
	}
	if f.operation != nil {
		op := *f.operation
		entry.Operation = &op
	}
	if e.File != "" || e.Function != "" || e.Line > 0 {
		loc := &SourceLocation{File: e.File, Function: e.Function}
		if e.Line > 0 {
			loc.Line = strconv.Itoa(e.Line)
		}
		entry.SourceLocation = loc
	}
	entry.Labels = mergeLabels(f.labels, e.Labels)
	entry.HTTPRequest = e.HTTPRequest

	entry.InsertID = e.InsertID
	if entry.InsertID == "" && f.insertID != nil {
		entry.InsertID = f.insertID()
	}

	fmtTrace, _, rawSpanID, sampled, spanCtx := ExtractTraceSpan(ctx, f.traceProjectID)
	if spanCtx.IsValid() {
		entry.Trace = fmtTrace
		entry.SpanID = rawSpanID
		entry.TraceSampled = Bool(sampled)
	}
	return entry
}

// backtraceText invokes the injected backtrace producer, treating its output
// as opaque text to append. The producer's formatting convention is never
// parsed or rewritten here.
func (f *Formatter) backtraceText() string {
	if f.backtrace == nil {
		return ""
	}
	return f.backtrace()
}

// write flushes one rendered line to the sink. Each event arrives as a
// single Write call; the [SwitchableWriter] serializes those calls, so
// concurrent events never interleave.
func (f *Formatter) write(buf *bytes.Buffer) error {
	_, err := f.sink.Write(buf.Bytes())
	if err != nil {
		f.dropped.Add(1)
		f.internal.Error("gclog: failed to write log entry", "error", err)
		return fmt.Errorf("gclog: write entry: %w", err)
	}
	return nil
}

// mergeLabels overlays event labels on configured labels, returning nil when
// both are empty so the wire field is omitted.
func mergeLabels(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// cloneStringMap copies a string map, preserving nil for empty inputs.
func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dup := make(map[string]string, len(src))
	for k, v := range src {
		dup[k] = v
	}
	return dup
}
