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

// Package gclog converts leveled log events into the wire formats consumed
// by Google Cloud Logging. Each event is rendered exactly once, either as a
// single human-readable text line or as a structured JSON document following
// the [Cloud Logging structured-logging schema], and handed to an [io.Writer]
// sink. The default destination is stdout, which keeps the library friendly
// for container platforms and local development alike.
//
// Entries logged at error level carry the Cloud Error Reporting `@type` tag
// so the [Error Reporting] service can group them automatically.
//
// The primary entry point is [New], which returns a [Formatter] configured
// with sensible defaults:
//   - Output format selected by the GCLOG_FORMAT environment variable
//     ("text" or "json"; anything else falls back to text).
//   - Structured JSON output using the exact Cloud Logging keys, including
//     `severity`, `@type`, `httpRequest`, and the
//     `logging.googleapis.com/...` correlation fields.
//   - Automatic trace correlation from the OpenTelemetry span context
//     carried by the context passed to [Formatter.Handle].
//   - Optional backtrace text appended to messages via an injected producer
//     such as [CaptureBacktrace].
//
// A [Formatter] can also serve as the process-wide sink for [log/slog]:
// [Formatter.Handler] returns an [slog.Handler] that routes records through
// the same rendering core. The handler performs no level filtering of its
// own; gating belongs to the slog front end that dispatches to it.
//
// # Subpackages
//
//   - [github.com/pjscruggs/gclog/gcloghttp] offers net/http middleware that
//     captures request metadata into the `httpRequest` schema field, derives
//     severity from the response status, and accepts both W3C traceparent
//     and legacy X-Cloud-Trace-Context headers.
//   - [github.com/pjscruggs/gclog/grpc] provides client and server unary
//     interceptors that emit one entry per RPC with code-derived severity
//     and optional payload sizing.
//
// # Quick Start
//
// A basic logger only needs a formatter and slog:
//
//	f := gclog.New(gclog.WithFormat(gclog.FormatJSON))
//	defer f.Close()
//
//	logger := slog.New(f.Handler("myservice.backend"))
//	logger.Info("application started")
//
// # Configuration
//
// Use functional options such as [WithFormat], [WithWriter], [WithOperation],
// [WithTraceProjectID], [WithBacktraceFunc], and [WithInternalLogger] to
// adjust behaviour programmatically. Environment variables (GCLOG_FORMAT,
// GCLOG_PROJECT_ID, GOOGLE_CLOUD_PROJECT) cover the common deployment knobs
// so the same binary can run locally and in production without code changes.
//
// [Cloud Logging structured-logging schema]: https://cloud.google.com/logging/docs/structured-logging
// [Error Reporting]: https://cloud.google.com/error-reporting/
package gclog
