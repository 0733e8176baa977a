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

package gcloghttp

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// XCloudTraceContextHeader is the Google Cloud legacy trace propagation
// header, formatted as "TRACE_ID[/SPAN_ID][;o=TRACE_TRUE]" with a decimal
// span ID.
const XCloudTraceContextHeader = "X-Cloud-Trace-Context"

var randRead = rand.Read

// contextWithXCloudTrace augments ctx with a remote span context parsed
// from the legacy header. ctx is returned unchanged when the header is
// empty or unparseable.
func contextWithXCloudTrace(ctx context.Context, header string) context.Context {
	sc, ok := parseXCloudTrace(header)
	if !ok {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}

// parseXCloudTrace decodes an X-Cloud-Trace-Context header value into a
// span context. A missing span ID is replaced with a random one so the
// resulting context is still valid for correlation.
func parseXCloudTrace(header string) (trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return trace.SpanContext{}, false
	}

	idPart, options, _ := strings.Cut(header, ";")
	traceIDStr, spanDecimal, _ := strings.Cut(strings.TrimSpace(idPart), "/")

	traceID, err := trace.TraceIDFromHex(strings.TrimSpace(traceIDStr))
	if err != nil || !traceID.IsValid() {
		return trace.SpanContext{}, false
	}

	spanID, ok := spanIDFromDecimal(strings.TrimSpace(spanDecimal))
	if !ok {
		return trace.SpanContext{}, false
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: traceFlagsFromOptions(options),
		Remote:     true,
	}), true
}

// spanIDFromDecimal converts the header's decimal span ID into the binary
// form expected by trace.SpanID, generating a random span ID when the field
// is absent or zero.
func spanIDFromDecimal(spanDecimal string) (trace.SpanID, bool) {
	var spanID trace.SpanID
	if spanDecimal != "" {
		if spanUint, err := strconv.ParseUint(spanDecimal, 10, 64); err == nil {
			binary.BigEndian.PutUint64(spanID[:], spanUint)
		}
	}
	if spanID.IsValid() {
		return spanID, true
	}
	if _, err := randRead(spanID[:]); err != nil {
		return trace.SpanID{}, false
	}
	return spanID, true
}

// traceFlagsFromOptions extracts the sampling decision from the ";o=1"
// options suffix.
func traceFlagsFromOptions(options string) trace.TraceFlags {
	for _, opt := range strings.Split(options, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if !ok || strings.TrimSpace(key) != "o" {
			continue
		}
		if strings.TrimSpace(value) == "1" {
			return trace.FlagsSampled
		}
	}
	return 0
}
