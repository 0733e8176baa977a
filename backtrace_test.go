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

package gclog_test

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/pjscruggs/gclog"
)

// TestCaptureBacktraceConvention checks the rendered text follows the
// grouping convention: a leading colon, then "   at " lines naming the
// calling functions with decimal line numbers.
func TestCaptureBacktraceConvention(t *testing.T) {
	t.Parallel()

	bt := gclog.CaptureBacktrace()
	if bt == "" {
		t.Fatal("CaptureBacktrace() returned empty, want frames")
	}
	if !strings.HasPrefix(bt, ":") {
		t.Errorf("backtrace %q does not start with %q", bt, ":")
	}

	lines := strings.Split(bt, "\n")
	if len(lines) < 2 {
		t.Fatalf("backtrace has %d lines, want at least 2", len(lines))
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "   at ") {
			t.Errorf("frame line %q does not start with %q", line, "   at ")
		}
	}
	if !strings.Contains(bt, "TestCaptureBacktraceConvention") {
		t.Errorf("backtrace %q does not mention the test function", bt)
	}
	if strings.Contains(bt, "runtime.") {
		t.Errorf("backtrace %q leaks runtime frames", bt)
	}
}

// stackedError carries its own origin stack, in the shape produced by
// github.com/pkg/errors style libraries.
type stackedError struct {
	msg string
	pcs []uintptr
}

func (e *stackedError) Error() string         { return e.msg }
func (e *stackedError) StackTrace() []uintptr { return e.pcs }

func newStackedError(msg string) *stackedError {
	pcs := make([]uintptr, 8)
	n := runtime.Callers(1, pcs)
	return &stackedError{msg: msg, pcs: pcs[:n]}
}

// TestBacktraceFromError renders the stack carried by an error, including
// one buried under wrapping.
func TestBacktraceFromError(t *testing.T) {
	t.Parallel()

	err := newStackedError("boom")
	bt := gclog.BacktraceFromError(err)
	if bt == "" {
		t.Fatal("BacktraceFromError() returned empty, want frames")
	}
	if !strings.Contains(bt, "newStackedError") {
		t.Errorf("backtrace %q does not mention the origin function", bt)
	}

	wrapped := errors.Join(errors.New("outer"), err)
	if got := gclog.BacktraceFromError(wrapped); got == "" {
		t.Error("BacktraceFromError(wrapped) returned empty, want frames from the inner error")
	}

	if got := gclog.BacktraceFromError(errors.New("plain")); got != "" {
		t.Errorf("BacktraceFromError(plain error) = %q, want empty", got)
	}
	if got := gclog.BacktraceFromError(&stackedError{msg: "no frames"}); got != "" {
		t.Errorf("BacktraceFromError(frameless) = %q, want empty", got)
	}
}
