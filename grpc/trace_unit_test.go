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

import "testing"

// TestSplitMethodName parses the "/package.Service/Method" shape and its
// degenerate variants.
func TestSplitMethodName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in          string
		wantService string
		wantMethod  string
	}{
		{"/myapp.UserService/GetUser", "myapp.UserService", "GetUser"},
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"no-slashes", "unknown", "unknown"},
		{"/onlyservice", "unknown", "unknown"},
		{"//", "unknown", "unknown"},
		{"", "unknown", "unknown"},
	}

	for _, tc := range testCases {
		service, method := splitMethodName(tc.in)
		if service != tc.wantService || method != tc.wantMethod {
			t.Errorf("splitMethodName(%q) = (%q, %q), want (%q, %q)",
				tc.in, service, method, tc.wantService, tc.wantMethod)
		}
	}
}

// TestParseXCloudTraceMetadataValue covers the legacy header grammar as it
// arrives in gRPC metadata.
func TestParseXCloudTraceMetadataValue(t *testing.T) {
	t.Parallel()

	const traceHex = "105445aa7843bc8bf206b12000100000"

	sc, ok := parseXCloudTrace(traceHex + "/74;o=1")
	if !ok || !sc.IsValid() {
		t.Fatalf("parseXCloudTrace returned ok=%t valid=%t, want parsed context", ok, sc.IsValid())
	}
	if sc.TraceID().String() != traceHex {
		t.Errorf("trace ID = %q, want %q", sc.TraceID().String(), traceHex)
	}
	if sc.SpanID().String() != "000000000000004a" {
		t.Errorf("span ID = %q, want %q", sc.SpanID().String(), "000000000000004a")
	}
	if !sc.IsSampled() {
		t.Error("sampled = false, want true")
	}

	if _, ok := parseXCloudTrace(""); ok {
		t.Error("empty value parsed, want rejection")
	}
	if _, ok := parseXCloudTrace("bogus/74"); ok {
		t.Error("malformed trace ID parsed, want rejection")
	}

	// A missing span ID is backfilled with a random one.
	sc, ok = parseXCloudTrace(traceHex)
	if !ok || !sc.SpanID().IsValid() {
		t.Errorf("span ID backfill failed: ok=%t valid=%t", ok, sc.SpanID().IsValid())
	}
}
