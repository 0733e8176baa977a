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

	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc/codes"

	"github.com/pjscruggs/gclog"
)

// CodeToLevel maps a final gRPC status code to the level of the entry
// emitted for the call.
type CodeToLevel func(code codes.Code) gclog.Level

// ShouldLog decides whether a call to the given full method is logged at
// all. Health checks and other chatter are typical candidates for
// suppression.
type ShouldLog func(ctx context.Context, fullMethod string) bool

// Option configures the interceptors returned by
// [UnaryServerInterceptor] and [UnaryClientInterceptor].
type Option func(*config)

type config struct {
	target          string
	codeToLevel     CodeToLevel
	shouldLog       ShouldLog
	propagators     propagation.TextMapPropagator
	logPayloads     bool
	maxPayloadBytes int
}

// newConfig applies opts over the interceptor defaults for the given role
// ("grpc.server" or "grpc.client").
func newConfig(defaultTarget string, opts []Option) *config {
	cfg := &config{
		target:          defaultTarget,
		codeToLevel:     DefaultCodeToLevel,
		shouldLog:       func(context.Context, string) bool { return true },
		maxPayloadBytes: defaultMaxPayloadBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithTarget sets the target name stamped on emitted events.
func WithTarget(target string) Option {
	return func(cfg *config) {
		if target != "" {
			cfg.target = target
		}
	}
}

// WithCodeToLevel overrides how a final status code maps to an event
// level. A nil function restores [DefaultCodeToLevel].
func WithCodeToLevel(fn CodeToLevel) Option {
	return func(cfg *config) {
		if fn == nil {
			fn = DefaultCodeToLevel
		}
		cfg.codeToLevel = fn
	}
}

// WithShouldLog installs a per-call filter. Calls for which fn returns
// false produce no entry.
func WithShouldLog(fn ShouldLog) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.shouldLog = fn
		}
	}
}

// WithPropagators overrides the propagators used to extract trace context
// from incoming metadata. The global OTel propagators are used by default.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
	}
}

// WithPayloadLogging enables a second, debug-level entry per call carrying
// a protojson rendering of the request and response messages. Off by
// default; payloads routinely contain data that does not belong in logs.
func WithPayloadLogging(enabled bool) Option {
	return func(cfg *config) {
		cfg.logPayloads = enabled
	}
}

// WithMaxPayloadBytes caps the rendered payload size when payload logging
// is enabled. Values of zero or less restore the default.
func WithMaxPayloadBytes(n int) Option {
	return func(cfg *config) {
		if n <= 0 {
			n = defaultMaxPayloadBytes
		}
		cfg.maxPayloadBytes = n
	}
}

// DefaultCodeToLevel is the default status-to-level mapping. Success and
// cancellation log at info, client errors and retryable server conditions
// at warn, and unambiguous server failures at error. Unrecognized codes
// count as errors.
func DefaultCodeToLevel(code codes.Code) gclog.Level {
	switch code {
	case codes.OK, codes.Canceled:
		return gclog.LevelInfo
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.Unauthenticated, codes.PermissionDenied:
		return gclog.LevelWarn
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.FailedPrecondition,
		codes.Aborted, codes.OutOfRange, codes.Unavailable:
		return gclog.LevelWarn
	case codes.Unknown, codes.Unimplemented, codes.Internal, codes.DataLoss:
		return gclog.LevelError
	default:
		return gclog.LevelError
	}
}
