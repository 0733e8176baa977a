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

package gclog

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// maxBacktraceFrames bounds the stack depth captured for backtrace text.
const maxBacktraceFrames = 32

var backtracePCPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, maxBacktraceFrames)
		return &buf
	},
}

// stackTracer defines an interface errors can implement to provide their
// own stack trace in the form of program counters. Compatible with
// github.com/pkg/errors.
type stackTracer interface {
	StackTrace() []uintptr
}

// CaptureBacktrace captures the current goroutine's stack and renders it in
// the backtrace text convention the Logs Explorer groups on: a leading ":"
// followed by one line per call site, each beginning with three spaces and
// "at", with an optional decimal line number:
//
//	:
//	   at myservice/ingest.(*Worker).run line: 42
//	   at myservice/ingest.Start
//
// The result is intended to be appended verbatim to a log message, for
// example via [WithBacktraceFunc]. It returns "" when no frames are
// available.
func CaptureBacktrace() string {
	pcsPtr := backtracePCPool.Get().(*[]uintptr)
	defer backtracePCPool.Put(pcsPtr)

	// Skip runtime.Callers and this function so the trace starts at the
	// caller.
	n := runtime.Callers(2, *pcsPtr)
	if n == 0 {
		return ""
	}
	return formatBacktrace((*pcsPtr)[:n])
}

// BacktraceFromError renders the origin stack carried by err (or an error
// it wraps) in the same textual convention as [CaptureBacktrace]. It
// returns "" when no error in the chain implements the stackTracer
// interface or when no frames are available.
func BacktraceFromError(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}
	pcs := st.StackTrace()
	if len(pcs) == 0 {
		return ""
	}
	if len(pcs) > maxBacktraceFrames {
		pcs = pcs[:maxBacktraceFrames]
	}
	return formatBacktrace(pcs)
}

// formatBacktrace renders program counters into backtrace text, eliding
// runtime internals so the trace ends at the program's entry point.
func formatBacktrace(pcs []uintptr) string {
	var b strings.Builder
	b.WriteByte(':')

	frames := runtime.CallersFrames(pcs)
	wrote := false
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			b.WriteString("\n   at ")
			b.WriteString(frame.Function)
			if frame.Line > 0 {
				b.WriteString(" line: ")
				b.WriteString(strconv.Itoa(frame.Line))
			}
			wrote = true
		}
		if !more {
			break
		}
	}
	if !wrote {
		return ""
	}
	return b.String()
}
