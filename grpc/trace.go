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

package grpc

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

// xCloudTraceContextKey is the legacy Google Cloud trace propagation key as
// it appears in gRPC metadata (metadata keys are lowercased on the wire).
const xCloudTraceContextKey = "x-cloud-trace-context"

var randRead = rand.Read

// metadataCarrier adapts gRPC metadata to the OTel TextMapCarrier
// interface so the configured propagators can read from it.
type metadataCarrier struct {
	md metadata.MD
}

func (mc metadataCarrier) Get(key string) string {
	values := mc.md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (mc metadataCarrier) Set(key, value string) {
	mc.md.Set(key, value)
}

func (mc metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(mc.md))
	for k := range mc.md {
		keys = append(keys, k)
	}
	return keys
}

// extractTraceContext returns ctx with any propagated span context applied.
// An already-valid span context is kept; otherwise the configured (or
// global) propagators run over md, with the legacy X-Cloud-Trace-Context
// metadata key as a last resort.
func extractTraceContext(ctx context.Context, md metadata.MD, cfg *config) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() || len(md) == 0 {
		return ctx
	}

	propagator := cfg.propagators
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	extracted := propagator.Extract(ctx, metadataCarrier{md: md})
	if trace.SpanContextFromContext(extracted).IsValid() {
		return extracted
	}

	if vals := md.Get(xCloudTraceContextKey); len(vals) > 0 {
		if sc, ok := parseXCloudTrace(vals[0]); ok {
			return trace.ContextWithRemoteSpanContext(extracted, sc)
		}
	}
	return extracted
}

// parseXCloudTrace decodes a "TRACE_ID[/SPAN_ID][;o=1]" header value into a
// remote span context. A missing or zero span ID is replaced with a random
// one so the result is still valid for correlation.
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

	var spanID trace.SpanID
	if s := strings.TrimSpace(spanDecimal); s != "" {
		if spanUint, err := strconv.ParseUint(s, 10, 64); err == nil {
			binary.BigEndian.PutUint64(spanID[:], spanUint)
		}
	}
	if !spanID.IsValid() {
		if _, err := randRead(spanID[:]); err != nil {
			return trace.SpanContext{}, false
		}
	}

	var flags trace.TraceFlags
	for _, opt := range strings.Split(options, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if ok && strings.TrimSpace(key) == "o" && strings.TrimSpace(value) == "1" {
			flags = trace.FlagsSampled
		}
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}), true
}

var _ propagation.TextMapCarrier = metadataCarrier{}
