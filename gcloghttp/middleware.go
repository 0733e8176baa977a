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

// Package gcloghttp provides net/http middleware that logs one entry per
// request through a [gclog.Formatter], populating the Cloud Logging
// httpRequest field and correlating entries with the request's trace
// context. Both W3C traceparent and the legacy X-Cloud-Trace-Context
// headers are accepted on ingress.
package gcloghttp

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/gclog"
)

const instrumentationName = "github.com/pjscruggs/gclog/gcloghttp"

// Middleware returns middleware that logs one event per request through f
// after the wrapped handler finishes. The event's level derives from the
// response status, its httpRequest field carries method, URL, sizes, status
// and latency, and the request context is enriched with a per-request
// logger retrievable via [gclog.LoggerFromContext].
//
// Trace context is extracted from the incoming headers before the handler
// runs, so both the request entry and anything the handler logs with the
// request context correlate with the caller's trace.
func Middleware(f *gclog.Formatter, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := extractTraceContext(r)
			ctx = gclog.ContextWithLogger(ctx, slog.New(f.Handler(cfg.target)))

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			req := gclog.HTTPRequestFromRequest(r)
			req.Status = rec.status
			req.ResponseSize = strconv.FormatInt(rec.bytes, 10)
			req.Latency = gclog.FormatLatency(elapsed)
			req.ServerIP = localAddr(r)

			// The entry itself is fire-and-forget; failures surface
			// through the formatter's drop counter and diagnostics.
			_ = f.Handle(ctx, gclog.Event{
				Level:       cfg.levelFor(rec.status),
				Target:      cfg.target,
				Message:     fmt.Sprintf("%s %s %d", r.Method, requestPath(r), rec.status),
				HTTPRequest: req,
			})
		})

		if cfg.otelEnabled {
			handler = otelhttp.NewHandler(handler, instrumentationName, cfg.otelOptions()...)
		}
		return handler
	}
}

// extractTraceContext returns the request context with any propagated span
// context applied. An already-valid span context (e.g. from otelhttp or an
// instrumented mux) is kept as-is; otherwise the global propagators run,
// and as a last resort the legacy X-Cloud-Trace-Context header is parsed
// directly.
func extractTraceContext(r *http.Request) context.Context {
	ctx := r.Context()
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	return contextWithXCloudTrace(ctx, r.Header.Get(XCloudTraceContextHeader))
}

// requestPath returns the path portion of the request URL, defaulting to
// "/" so the message never renders empty.
func requestPath(r *http.Request) string {
	if r.URL == nil || r.URL.Path == "" {
		return "/"
	}
	return r.URL.Path
}

// localAddr recovers the server address the request arrived on, when the
// http server recorded one.
func localAddr(r *http.Request) string {
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		return addr.String()
	}
	return ""
}

// responseRecorder captures the status code and body size while delegating
// to the wrapped ResponseWriter.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

// WriteHeader records the status before delegating.
func (rec *responseRecorder) WriteHeader(status int) {
	if !rec.wroteHeader {
		rec.status = status
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(status)
}

// Write accumulates the body size before delegating.
func (rec *responseRecorder) Write(p []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += int64(n)
	return n, err
}

// Flush passes through to the underlying writer when it supports flushing.
func (rec *responseRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes through to the underlying writer when it supports
// hijacking, so websocket upgrades keep working behind the middleware.
func (rec *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("gcloghttp: underlying ResponseWriter does not support hijacking")
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (rec *responseRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
