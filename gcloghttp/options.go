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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/gclog"
)

// Option configures the middleware returned by [Middleware].
type Option func(*config)

type config struct {
	target         string
	otelEnabled    bool
	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
	levelFunc      func(status int) gclog.Level
}

// newConfig applies opts over the middleware defaults.
func newConfig(opts []Option) *config {
	cfg := &config{
		target:    "http.server",
		levelFunc: LevelForStatus,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// levelFor resolves the event level for a response status.
func (cfg *config) levelFor(status int) gclog.Level {
	if cfg.levelFunc == nil {
		return LevelForStatus(status)
	}
	return cfg.levelFunc(status)
}

// otelOptions translates middleware configuration into otelhttp options.
func (cfg *config) otelOptions() []otelhttp.Option {
	var otelOpts []otelhttp.Option
	if cfg.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.tracerProvider))
	}
	if cfg.propagators != nil {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(cfg.propagators))
	}
	return otelOpts
}

// WithTarget sets the target name stamped on emitted events. The default is
// "http.server".
func WithTarget(target string) Option {
	return func(cfg *config) {
		if target != "" {
			cfg.target = target
		}
	}
}

// WithOTel wraps the middleware in an otelhttp handler so each request runs
// inside a server span even when no upstream instrumentation exists. Off by
// default; deployments that already instrument their mux should leave it
// off to avoid double spans.
func WithOTel(enabled bool) Option {
	return func(cfg *config) {
		cfg.otelEnabled = enabled
	}
}

// WithTracerProvider overrides the tracer provider used when [WithOTel] is
// enabled.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithPropagators overrides the propagators used when [WithOTel] is
// enabled.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
	}
}

// WithLevelFunc overrides how a response status maps to an event level.
func WithLevelFunc(fn func(status int) gclog.Level) Option {
	return func(cfg *config) {
		cfg.levelFunc = fn
	}
}

// LevelForStatus is the default status-to-level mapping: server errors log
// at error, client errors at warn, everything else at info.
func LevelForStatus(status int) gclog.Level {
	switch {
	case status >= 500:
		return gclog.LevelError
	case status >= 400:
		return gclog.LevelWarn
	default:
		return gclog.LevelInfo
	}
}
