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
	"testing"

	"go.opentelemetry.io/otel/trace"
)

// TestParseXCloudTrace covers the legacy header grammar: trace ID with and
// without span ID, the sampling option, and malformed inputs.
func TestParseXCloudTrace(t *testing.T) {
	t.Parallel()

	const traceHex = "105445aa7843bc8bf206b12000100000"

	testCases := []struct {
		name        string
		header      string
		wantOK      bool
		wantSpanHex string
		wantSampled bool
	}{
		{
			name:        "trace span and sampled",
			header:      traceHex + "/74;o=1",
			wantOK:      true,
			wantSpanHex: "000000000000004a",
			wantSampled: true,
		},
		{
			name:        "trace span not sampled",
			header:      traceHex + "/74;o=0",
			wantOK:      true,
			wantSpanHex: "000000000000004a",
		},
		{
			name:   "trace only gets random span",
			header: traceHex,
			wantOK: true,
		},
		{
			name:   "zero span gets random span",
			header: traceHex + "/0",
			wantOK: true,
		},
		{
			name:        "whitespace tolerated",
			header:      "  " + traceHex + "/74 ; o=1",
			wantOK:      true,
			wantSpanHex: "000000000000004a",
			wantSampled: true,
		},
		{name: "empty", header: ""},
		{name: "garbage", header: "not-a-trace"},
		{name: "short trace id", header: "abc123/74;o=1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sc, ok := parseXCloudTrace(tc.header)
			if ok != tc.wantOK {
				t.Fatalf("parseXCloudTrace(%q) ok = %t, want %t", tc.header, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if !sc.IsValid() {
				t.Fatal("parsed span context invalid, want valid")
			}
			if got := sc.TraceID().String(); got != traceHex {
				t.Errorf("trace ID = %q, want %q", got, traceHex)
			}
			if tc.wantSpanHex != "" {
				if got := sc.SpanID().String(); got != tc.wantSpanHex {
					t.Errorf("span ID = %q, want %q", got, tc.wantSpanHex)
				}
			}
			if got := sc.IsSampled(); got != tc.wantSampled {
				t.Errorf("sampled = %t, want %t", got, tc.wantSampled)
			}
			if !sc.IsRemote() {
				t.Error("span context not marked remote")
			}
		})
	}
}

// TestContextWithXCloudTrace checks the context is only replaced when the
// header parses.
func TestContextWithXCloudTrace(t *testing.T) {
	t.Parallel()

	base := context.Background()
	if got := contextWithXCloudTrace(base, "garbage"); got != base {
		t.Error("unparseable header replaced the context")
	}

	ctx := contextWithXCloudTrace(base, "105445aa7843bc8bf206b12000100000/74;o=1")
	if !trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("parsed header did not install a span context")
	}
}
