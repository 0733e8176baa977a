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
	"io"
	"log/slog"
	"os"
	"time"
)

// Option configures a [Formatter] at construction time. Configuration is
// immutable afterwards; concurrent readers never need locking.
type Option func(*config)

type config struct {
	format         Format
	writer         io.Writer
	now            func() time.Time
	backtrace      func() string
	enabled        func(Event) bool
	operation      *Operation
	labels         map[string]string
	traceProjectID string
	insertID       func() string
	internal       *slog.Logger
}

// defaultConfig resolves the environment-driven defaults applied before any
// programmatic option.
func defaultConfig() config {
	return config{
		format:   FormatFromEnv(),
		writer:   os.Stdout,
		now:      time.Now,
		internal: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// WithFormat fixes the output format, overriding the environment selection.
func WithFormat(format Format) Option {
	return func(cfg *config) {
		cfg.format = format
	}
}

// WithWriter directs rendered output to w instead of stdout. The sink is
// expected to provide at-least line-atomic writes; the formatter hands it
// exactly one newline-terminated line per event.
func WithWriter(w io.Writer) Option {
	return func(cfg *config) {
		if w != nil {
			cfg.writer = w
		}
	}
}

// WithOperation attaches a fixed operation correlation descriptor to every
// JSON entry. The id/producer pair should come from process-level
// configuration; entries sharing the pair are grouped as one operation.
func WithOperation(id, producer string) Option {
	return func(cfg *config) {
		cfg.operation = &Operation{ID: id, Producer: producer}
	}
}

// WithLabels attaches labels to every JSON entry. Per-event labels overlay
// these on key collision.
func WithLabels(labels map[string]string) Option {
	return func(cfg *config) {
		cfg.labels = labels
	}
}

// WithTraceProjectID sets the Google Cloud project used to build the
// fully-qualified trace resource name for trace correlation. When unset,
// the project is resolved from the environment (GCLOG_TRACE_PROJECT_ID,
// GCLOG_PROJECT_ID, GOOGLE_CLOUD_PROJECT, ...); see also
// [DetectRuntimeInfo] for metadata-server resolution.
func WithTraceProjectID(id string) Option {
	return func(cfg *config) {
		if normalized, _, ok := normalizeTraceProjectID(id); ok {
			cfg.traceProjectID = normalized
		}
	}
}

// WithNowFunc injects the wall-clock source stamped onto JSON entries.
// Intended for tests and replay tooling; the default is [time.Now].
func WithNowFunc(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithBacktraceFunc injects the backtrace producer. Its output is treated
// as opaque text appended after the message: conditionally (error and warn
// only) in text format, unconditionally in JSON format. See
// [CaptureBacktrace] for the expected convention. Without a producer no
// backtrace text is ever appended.
func WithBacktraceFunc(backtrace func() string) Option {
	return func(cfg *config) {
		cfg.backtrace = backtrace
	}
}

// WithEnabledFunc installs a predicate consulted before rendering each
// event. The default admits everything; filtering normally belongs to the
// dispatch layer in front of the formatter, so this is an extension point,
// not a levelling mechanism.
func WithEnabledFunc(enabled func(Event) bool) Option {
	return func(cfg *config) {
		cfg.enabled = enabled
	}
}

// WithInsertIDFunc injects a producer for the de-duplication insert ID
// stamped onto JSON entries that do not carry their own.
func WithInsertIDFunc(insertID func() string) Option {
	return func(cfg *config) {
		cfg.insertID = insertID
	}
}

// WithInternalLogger replaces the logger used for the formatter's own
// diagnostics, such as encoding failures. The default writes text lines to
// stderr so a broken JSON path remains observable.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.internal = logger
		}
	}
}
