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

// Package grpc provides unary interceptors that log one entry per RPC
// through a [gclog.Formatter].
//
// The server interceptor extracts trace context from incoming metadata
// (W3C traceparent via the global propagators, with a fallback to the
// legacy X-Cloud-Trace-Context metadata key), times the call, and emits an
// entry whose level derives from the final status code. The client
// interceptor does the same for outgoing calls.
//
// Optional payload logging renders request and response messages with
// protojson, truncated to a configurable size. For span creation rather
// than pure logging, combine the interceptors with the otelgrpc stats
// handlers returned by [ServerStatsHandler] and [ClientStatsHandler].
package grpc
