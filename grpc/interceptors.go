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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pjscruggs/gclog"
)

// Label keys attached to per-call entries.
const (
	serviceLabelKey  = "grpc.service"
	methodLabelKey   = "grpc.method"
	codeLabelKey     = "grpc.code"
	durationLabelKey = "grpc.duration"
	peerLabelKey     = "peer.address"
	errorLabelKey    = "error"
)

// UnaryServerInterceptor returns an interceptor that logs one entry per
// incoming unary RPC through f after the handler returns. The entry's
// level derives from the final status code, and its labels carry the
// service and method split out of the full method name, the status code,
// the call duration, and the peer address.
//
// Trace context is extracted from the incoming metadata before the handler
// runs, so both the call entry and anything the handler logs with the call
// context correlate with the caller's trace. A per-call logger is placed
// on the context, retrievable via [gclog.LoggerFromContext].
func UnaryServerInterceptor(f *gclog.Formatter, opts ...Option) grpc.UnaryServerInterceptor {
	cfg := newConfig("grpc.server", opts)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = contextForCall(ctx, f, cfg)

		if !cfg.shouldLog(ctx, info.FullMethod) {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		logCall(ctx, f, cfg, info.FullMethod, serverPeer(ctx), elapsed, err)
		if cfg.logPayloads {
			logPayload(ctx, f, cfg, "request", req)
			if err == nil {
				logPayload(ctx, f, cfg, "response", resp)
			}
		}
		return resp, err
	}
}

// UnaryClientInterceptor returns an interceptor that logs one entry per
// outgoing unary RPC through f after the call completes. It mirrors
// [UnaryServerInterceptor] with the target address in place of the peer.
func UnaryClientInterceptor(f *gclog.Formatter, opts ...Option) grpc.UnaryClientInterceptor {
	cfg := newConfig("grpc.client", opts)

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		if !cfg.shouldLog(ctx, method) {
			return invoker(ctx, method, req, reply, cc, callOpts...)
		}

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, callOpts...)
		elapsed := time.Since(start)

		logCall(ctx, f, cfg, method, cc.Target(), elapsed, err)
		if cfg.logPayloads {
			logPayload(ctx, f, cfg, "request", req)
			if err == nil {
				logPayload(ctx, f, cfg, "response", reply)
			}
		}
		return err
	}
}

// contextForCall applies trace extraction and installs a per-call logger.
func contextForCall(ctx context.Context, f *gclog.Formatter, cfg *config) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		ctx = extractTraceContext(ctx, md, cfg)
	}
	return gclog.ContextWithLogger(ctx, slog.New(f.Handler(cfg.target)))
}

// logCall emits the per-call entry.
func logCall(ctx context.Context, f *gclog.Formatter, cfg *config, fullMethod, remote string, elapsed time.Duration, err error) {
	code := status.Code(err)
	service, method := splitMethodName(fullMethod)

	labels := map[string]string{
		serviceLabelKey:  service,
		methodLabelKey:   method,
		codeLabelKey:     code.String(),
		durationLabelKey: elapsed.String(),
	}
	if remote != "" {
		labels[peerLabelKey] = remote
	}
	if err != nil {
		labels[errorLabelKey] = err.Error()
	}

	// Failures here surface through the formatter's drop counter and
	// diagnostics rather than disturbing the RPC outcome.
	_ = f.Handle(ctx, gclog.Event{
		Level:   cfg.codeToLevel(code),
		Target:  cfg.target,
		Message: fmt.Sprintf("%s %s", fullMethod, code.String()),
		Labels:  labels,
	})
}

// serverPeer resolves the remote address of the calling client, if the
// transport recorded one.
func serverPeer(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// splitMethodName parses a full method name of the form
// "/package.Service/Method" into its service and method parts. Both parts
// are "unknown" when the name does not match that shape.
func splitMethodName(fullMethod string) (service, method string) {
	name := strings.TrimPrefix(fullMethod, "/")
	if service, method, ok := strings.Cut(name, "/"); ok && service != "" && method != "" {
		return service, method
	}
	return "unknown", "unknown"
}
