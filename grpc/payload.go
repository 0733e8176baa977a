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
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/pjscruggs/gclog"
)

// defaultMaxPayloadBytes caps rendered payloads when [WithPayloadLogging]
// is enabled and no explicit cap is set.
const defaultMaxPayloadBytes = 2048

// Label keys attached to payload entries.
const (
	payloadDirectionKey = "payload.direction"
	payloadTypeKey      = "payload.type"
	payloadSizeKey      = "payload.size"
	payloadTruncatedKey = "payload.truncated"
)

var payloadMarshal = protojson.MarshalOptions{
	AllowPartial:  true,
	UseProtoNames: true,
}

// logPayload emits a debug-level entry carrying a protojson rendering of
// m, truncated to cfg.maxPayloadBytes. Non-proto messages and marshal
// failures produce an entry describing the payload without its content.
func logPayload(ctx context.Context, f *gclog.Formatter, cfg *config, direction string, m any) {
	labels := map[string]string{
		payloadDirectionKey: direction,
		payloadTypeKey:      fmt.Sprintf("%T", m),
	}

	p, ok := m.(proto.Message)
	if !ok {
		emitPayload(ctx, f, cfg, fmt.Sprintf("gRPC payload %s (non-proto)", direction), labels)
		return
	}
	labels[payloadSizeKey] = strconv.Itoa(proto.Size(p))

	rendered, err := payloadMarshal.Marshal(p)
	if err != nil {
		labels[errorLabelKey] = err.Error()
		emitPayload(ctx, f, cfg, fmt.Sprintf("gRPC payload %s (marshal error)", direction), labels)
		return
	}

	preview := string(rendered)
	if cfg.maxPayloadBytes > 0 && len(preview) > cfg.maxPayloadBytes {
		preview = preview[:cfg.maxPayloadBytes]
		labels[payloadTruncatedKey] = "true"
	}
	emitPayload(ctx, f, cfg, fmt.Sprintf("gRPC payload %s: %s", direction, preview), labels)
}

func emitPayload(ctx context.Context, f *gclog.Formatter, cfg *config, message string, labels map[string]string) {
	_ = f.Handle(ctx, gclog.Event{
		Level:   gclog.LevelDebug,
		Target:  cfg.target,
		Message: message,
		Labels:  labels,
	})
}
