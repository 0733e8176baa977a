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
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// ServerStatsHandler returns a server option installing the otelgrpc stats
// handler, so each RPC runs inside a server span that the logging
// interceptor then correlates against:
//
//	srv := googlegrpc.NewServer(
//		grpc.ServerStatsHandler(),
//		googlegrpc.ChainUnaryInterceptor(grpc.UnaryServerInterceptor(f)),
//	)
func ServerStatsHandler(opts ...otelgrpc.Option) grpc.ServerOption {
	return grpc.StatsHandler(otelgrpc.NewServerHandler(opts...))
}

// ClientStatsHandler returns a dial option installing the otelgrpc stats
// handler for outgoing calls, the client-side counterpart to
// [ServerStatsHandler].
func ClientStatsHandler(opts ...otelgrpc.Option) grpc.DialOption {
	return grpc.WithStatsHandler(otelgrpc.NewClientHandler(opts...))
}
