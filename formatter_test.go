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

package gclog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/gclog"
)

// decodeLogBuffer splits JSON log lines and converts them into maps for
// easier assertions.
func decodeLogBuffer(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	content := strings.TrimSpace(buf.String())
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	entries := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("json.Unmarshal(%q) returned %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// fixedNow returns a deterministic clock for entry timestamps.
func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

// TestTextFormatLineShape pins the exact text line layout: the level name
// padded to five characters, a colon, the target, " - ", and the message.
func TestTextFormatLineShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(gclog.WithFormat(gclog.FormatText), gclog.WithWriter(&buf))

	testCases := []struct {
		level gclog.Level
		want  string
	}{
		{gclog.LevelError, "ERROR:myservice.backend - hello\n"},
		{gclog.LevelWarn, "WARN :myservice.backend - hello\n"},
		{gclog.LevelInfo, "INFO :myservice.backend - hello\n"},
		{gclog.LevelDebug, "DEBUG:myservice.backend - hello\n"},
		{gclog.LevelTrace, "TRACE:myservice.backend - hello\n"},
	}

	for _, tc := range testCases {
		buf.Reset()
		err := f.Handle(context.Background(), gclog.Event{
			Level:   tc.level,
			Target:  "myservice.backend",
			Message: "hello",
		})
		if err != nil {
			t.Fatalf("Handle(%v) returned %v, want nil", tc.level, err)
		}
		if got := buf.String(); got != tc.want {
			t.Errorf("text line for %v = %q, want %q", tc.level, got, tc.want)
		}
	}
}

// TestTextFormatBacktraceOnlyForErrorAndWarn checks the conditional
// backtrace append in text format. JSON format intentionally differs; see
// TestJSONFormatBacktraceAppendedAtEveryLevel.
func TestTextFormatBacktraceOnlyForErrorAndWarn(t *testing.T) {
	t.Parallel()

	const trailer = ":\n   at example.com/svc.handle[ line: 42]"

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatText),
		gclog.WithWriter(&buf),
		gclog.WithBacktraceFunc(func() string { return trailer }),
	)

	testCases := []struct {
		level         gclog.Level
		wantBacktrace bool
	}{
		{gclog.LevelError, true},
		{gclog.LevelWarn, true},
		{gclog.LevelInfo, false},
		{gclog.LevelDebug, false},
		{gclog.LevelTrace, false},
	}

	for _, tc := range testCases {
		buf.Reset()
		if err := f.Handle(context.Background(), gclog.Event{Level: tc.level, Target: "t", Message: "m"}); err != nil {
			t.Fatalf("Handle(%v) returned %v, want nil", tc.level, err)
		}
		got := strings.Contains(buf.String(), trailer)
		if got != tc.wantBacktrace {
			t.Errorf("level %v: backtrace present = %t, want %t", tc.level, got, tc.wantBacktrace)
		}
	}
}

// TestJSONFormatSeverityAndReportType checks each input level produces its
// mapped severity token and that only error entries carry the error
// reporting @type tag.
func TestJSONFormatSeverityAndReportType(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(&buf),
		gclog.WithNowFunc(fixedNow),
	)

	testCases := []struct {
		level        gclog.Level
		wantSeverity string
	}{
		{gclog.LevelError, "error"},
		{gclog.LevelWarn, "warning"},
		{gclog.LevelInfo, "info"},
		{gclog.LevelDebug, "debug"},
		{gclog.LevelTrace, "default"},
	}

	for _, tc := range testCases {
		buf.Reset()
		if err := f.Handle(context.Background(), gclog.Event{Level: tc.level, Target: "t", Message: "m"}); err != nil {
			t.Fatalf("Handle(%v) returned %v, want nil", tc.level, err)
		}
		entries := decodeLogBuffer(t, &buf)
		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		entry := entries[0]

		if entry["severity"] != tc.wantSeverity {
			t.Errorf("level %v: severity = %v, want %q", tc.level, entry["severity"], tc.wantSeverity)
		}

		reportType, tagged := entry[gclog.ReportTypeKey]
		if tc.level == gclog.LevelError {
			if reportType != gclog.ReportedErrorEventType {
				t.Errorf("error entry @type = %v, want %q", reportType, gclog.ReportedErrorEventType)
			}
		} else if tagged {
			t.Errorf("level %v: entry carries @type %v, want omitted", tc.level, reportType)
		}

		if entry["time"] != "2026-03-14T09:26:53Z" {
			t.Errorf("time = %v, want fixed clock value", entry["time"])
		}
	}
}

// TestJSONFormatBacktraceAppendedAtEveryLevel checks the unconditional
// backtrace append in JSON format, the counterpart to the error/warn-only
// behavior of text format.
func TestJSONFormatBacktraceAppendedAtEveryLevel(t *testing.T) {
	t.Parallel()

	const trailer = ":\n   at example.com/svc.handle"

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(&buf),
		gclog.WithBacktraceFunc(func() string { return trailer }),
	)

	for _, level := range []gclog.Level{gclog.LevelError, gclog.LevelWarn, gclog.LevelInfo, gclog.LevelDebug, gclog.LevelTrace} {
		buf.Reset()
		if err := f.Handle(context.Background(), gclog.Event{Level: level, Target: "t", Message: "m"}); err != nil {
			t.Fatalf("Handle(%v) returned %v, want nil", level, err)
		}
		entries := decodeLogBuffer(t, &buf)
		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		if got, want := entries[0]["message"], "m"+trailer; got != want {
			t.Errorf("level %v: message = %q, want %q", level, got, want)
		}
	}
}

// TestJSONFormatOperationAndLabels checks the injected operation descriptor
// and label merging, with event labels overlaying configured ones.
func TestJSONFormatOperationAndLabels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(&buf),
		gclog.WithOperation("op-77", "github.com/acme/app"),
		gclog.WithLabels(map[string]string{"tier": "backend", "zone": "us-east1"}),
	)

	err := f.Handle(context.Background(), gclog.Event{
		Level:   gclog.LevelInfo,
		Target:  "t",
		Message: "m",
		Labels:  map[string]string{"zone": "us-west1", "request": "r-1"},
	})
	if err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}

	entries := decodeLogBuffer(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]

	op, ok := entry[gclog.OperationKey].(map[string]any)
	if !ok {
		t.Fatalf("operation = %T, want object", entry[gclog.OperationKey])
	}
	if op["id"] != "op-77" || op["producer"] != "github.com/acme/app" {
		t.Errorf("operation = %v", op)
	}

	labels, ok := entry[gclog.LabelsKey].(map[string]any)
	if !ok {
		t.Fatalf("labels = %T, want object", entry[gclog.LabelsKey])
	}
	want := map[string]string{"tier": "backend", "zone": "us-west1", "request": "r-1"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for k, v := range want {
		if labels[k] != v {
			t.Errorf("labels[%q] = %v, want %q", k, labels[k], v)
		}
	}
}

// TestJSONFormatSourceLocation checks the call site serializes with the
// line number as a decimal string.
func TestJSONFormatSourceLocation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(gclog.WithFormat(gclog.FormatJSON), gclog.WithWriter(&buf))

	err := f.Handle(context.Background(), gclog.Event{
		Level:    gclog.LevelInfo,
		Target:   "t",
		Message:  "m",
		File:     "server.go",
		Line:     42,
		Function: "example.com/svc.handle",
	})
	if err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}

	entries := decodeLogBuffer(t, &buf)
	loc, ok := entries[0][gclog.SourceLocationKey].(map[string]any)
	if !ok {
		t.Fatalf("sourceLocation = %T, want object", entries[0][gclog.SourceLocationKey])
	}
	if loc["file"] != "server.go" || loc["line"] != "42" || loc["function"] != "example.com/svc.handle" {
		t.Errorf("sourceLocation = %v", loc)
	}
}

// TestJSONFormatTraceCorrelation checks entries pick up the span context
// carried by ctx, including an explicit not-sampled decision.
func TestJSONFormatTraceCorrelation(t *testing.T) {
	t.Parallel()

	traceID, err := trace.TraceIDFromHex("06796866738c859f2f19b7cfb3214824")
	if err != nil {
		t.Fatalf("TraceIDFromHex returned %v", err)
	}
	spanID, err := trace.SpanIDFromHex("000000000000004a")
	if err != nil {
		t.Fatalf("SpanIDFromHex returned %v", err)
	}

	for _, sampled := range []bool{true, false} {
		var flags trace.TraceFlags
		if sampled {
			flags = trace.FlagsSampled
		}
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: flags,
			Remote:     true,
		})
		ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

		var buf bytes.Buffer
		f := gclog.New(
			gclog.WithFormat(gclog.FormatJSON),
			gclog.WithWriter(&buf),
			gclog.WithTraceProjectID("my-project"),
		)
		if err := f.Handle(ctx, gclog.Event{Level: gclog.LevelInfo, Target: "t", Message: "m"}); err != nil {
			t.Fatalf("Handle() returned %v, want nil", err)
		}

		entries := decodeLogBuffer(t, &buf)
		entry := entries[0]
		if got, want := entry[gclog.TraceKey], "projects/my-project/traces/06796866738c859f2f19b7cfb3214824"; got != want {
			t.Errorf("trace = %v, want %q", got, want)
		}
		if got := entry[gclog.SpanKey]; got != "000000000000004a" {
			t.Errorf("spanId = %v, want %q", got, "000000000000004a")
		}
		if got := entry[gclog.SampledKey]; got != sampled {
			t.Errorf("trace_sampled = %v, want %t", got, sampled)
		}
	}
}

// TestJSONFormatNoTraceWithoutSpanContext checks that a plain context adds
// no correlation fields at all.
func TestJSONFormatNoTraceWithoutSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(&buf),
		gclog.WithTraceProjectID("my-project"),
	)
	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Target: "t", Message: "m"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}

	entry := decodeLogBuffer(t, &buf)[0]
	for _, key := range []string{gclog.TraceKey, gclog.SpanKey, gclog.SampledKey} {
		if v, present := entry[key]; present {
			t.Errorf("entry[%q] = %v, want omitted", key, v)
		}
	}
}

// TestJSONFormatInsertID checks per-event IDs win over the injected
// producer and that without either the field is omitted.
func TestJSONFormatInsertID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(&buf),
		gclog.WithInsertIDFunc(func() string { return "generated-1" }),
	)

	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Message: "m"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}
	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Message: "m", InsertID: "explicit-2"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}

	entries := decodeLogBuffer(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if got := entries[0][gclog.InsertIDKey]; got != "generated-1" {
		t.Errorf("insertId = %v, want %q", got, "generated-1")
	}
	if got := entries[1][gclog.InsertIDKey]; got != "explicit-2" {
		t.Errorf("insertId = %v, want %q", got, "explicit-2")
	}
}

// TestEnabledPredicateFiltersEvents checks the extension point suppresses
// rendering entirely when it reports false.
func TestEnabledPredicateFiltersEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatText),
		gclog.WithWriter(&buf),
		gclog.WithEnabledFunc(func(e gclog.Event) bool { return e.Level <= gclog.LevelWarn }),
	)

	if f.Enabled(gclog.Event{Level: gclog.LevelDebug}) {
		t.Error("Enabled(debug) = true, want false under predicate")
	}
	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelDebug, Target: "t", Message: "m"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("suppressed event produced output %q", buf.String())
	}

	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelError, Target: "t", Message: "m"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}
	if buf.Len() == 0 {
		t.Error("admitted event produced no output")
	}
}

// failingWriter fails every write with a fixed error.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink unavailable")
}

// TestWriteFailureIsCountedAndReported checks a broken sink surfaces
// through the error return, the drop counter, and the internal diagnostic
// logger, without panicking or retrying.
func TestWriteFailureIsCountedAndReported(t *testing.T) {
	t.Parallel()

	var diag bytes.Buffer
	f := gclog.New(
		gclog.WithFormat(gclog.FormatJSON),
		gclog.WithWriter(failingWriter{}),
		gclog.WithInternalLogger(slog.New(slog.NewTextHandler(&diag, nil))),
	)

	err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Target: "t", Message: "m"})
	if err == nil {
		t.Fatal("Handle() with failing sink returned nil, want error")
	}
	if got := f.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if !strings.Contains(diag.String(), "failed to write log entry") {
		t.Errorf("diagnostic output = %q, want write failure report", diag.String())
	}

	// The formatter keeps accepting events after a failure.
	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Message: "again"}); err == nil {
		t.Fatal("second Handle() returned nil, want error")
	}
	if got := f.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

// TestSetWriterRedirectsOutput checks output can be redirected after
// construction.
func TestSetWriterRedirectsOutput(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	f := gclog.New(gclog.WithFormat(gclog.FormatText), gclog.WithWriter(&first))

	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Target: "t", Message: "one"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}
	f.SetWriter(&second)
	if err := f.Handle(context.Background(), gclog.Event{Level: gclog.LevelInfo, Target: "t", Message: "two"}); err != nil {
		t.Fatalf("Handle() returned %v, want nil", err)
	}

	if !strings.Contains(first.String(), "one") || strings.Contains(first.String(), "two") {
		t.Errorf("first sink = %q, want only the first event", first.String())
	}
	if !strings.Contains(second.String(), "two") || strings.Contains(second.String(), "one") {
		t.Errorf("second sink = %q, want only the second event", second.String())
	}
}

// TestConcurrentHandleKeepsLinesAtomic renders events from many goroutines
// into one sink and checks every emitted line is a complete, parseable
// document. Write serialization lives in the sink wrapper, so interleaved
// or torn lines here would mean the formatter bypassed it.
func TestConcurrentHandleKeepsLinesAtomic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := gclog.New(gclog.WithFormat(gclog.FormatJSON), gclog.WithWriter(&buf))

	const (
		goroutines = 8
		perWorker  = 50
	)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = f.Handle(context.Background(), gclog.Event{
					Level:   gclog.LevelInfo,
					Target:  "t",
					Message: strings.Repeat("x", 64),
				})
			}
		}()
	}
	wg.Wait()

	entries := decodeLogBuffer(t, &buf)
	if len(entries) != goroutines*perWorker {
		t.Fatalf("got %d entries, want %d", len(entries), goroutines*perWorker)
	}
	for i, entry := range entries {
		if entry["message"] != strings.Repeat("x", 64) {
			t.Fatalf("entry %d message = %v, want intact message", i, entry["message"])
		}
	}
}

// TestParseFormat covers the recognized tokens and the text fallback for
// everything else.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want gclog.Format
	}{
		{"json", gclog.FormatJSON},
		{"JSON", gclog.FormatJSON},
		{" json ", gclog.FormatJSON},
		{"text", gclog.FormatText},
		{"xml", gclog.FormatText},
		{"", gclog.FormatText},
	}
	for _, tc := range testCases {
		if got := gclog.ParseFormat(tc.in); got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestFormatFromEnv checks the GCLOG_FORMAT selector and its LOG_FORMAT
// fallback. Not parallel; it mutates the environment.
func TestFormatFromEnv(t *testing.T) {
	t.Setenv("GCLOG_FORMAT", "")
	t.Setenv("LOG_FORMAT", "")
	if got := gclog.FormatFromEnv(); got != gclog.FormatText {
		t.Errorf("FormatFromEnv() with empty env = %v, want FormatText", got)
	}

	t.Setenv("LOG_FORMAT", "json")
	if got := gclog.FormatFromEnv(); got != gclog.FormatJSON {
		t.Errorf("FormatFromEnv() with LOG_FORMAT=json = %v, want FormatJSON", got)
	}

	t.Setenv("GCLOG_FORMAT", "xml")
	if got := gclog.FormatFromEnv(); got != gclog.FormatText {
		t.Errorf("FormatFromEnv() with GCLOG_FORMAT=xml = %v, want FormatText", got)
	}

	t.Setenv("GCLOG_FORMAT", "json")
	t.Setenv("LOG_FORMAT", "text")
	if got := gclog.FormatFromEnv(); got != gclog.FormatJSON {
		t.Errorf("FormatFromEnv() = %v, want GCLOG_FORMAT to win", got)
	}
}

// TestCloseNeverClosesStandardStreams exercises Close against a formatter
// writing to an ordinary buffer, which has no Close method at all.
func TestCloseNeverClosesStandardStreams(t *testing.T) {
	t.Parallel()

	f := gclog.New(gclog.WithFormat(gclog.FormatText), gclog.WithWriter(io.Discard))
	if err := f.Close(); err != nil {
		t.Errorf("Close() returned %v, want nil", err)
	}
}
