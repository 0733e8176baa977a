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
	"fmt"
	"io"
	"os"
	"sync"
)

// SwitchableWriter is an io.Writer whose underlying writer can be changed
// atomically. A [Formatter] wraps its sink in one so output can be
// redirected (for example, when an external rotation tool recreates a log
// file) without rebuilding the formatter.
//
// SwitchableWriter also implements io.Closer. Close attempts to close the
// underlying writer if it implements io.Closer, except for the process
// standard streams, and then directs further writes to io.Discard.
type SwitchableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSwitchableWriter creates a SwitchableWriter over initialWriter. A nil
// initialWriter defaults to io.Discard.
func NewSwitchableWriter(initialWriter io.Writer) *SwitchableWriter {
	if initialWriter == nil {
		initialWriter = io.Discard
	}
	return &SwitchableWriter{w: initialWriter}
}

// Write directs the given bytes to the current underlying writer. It is
// safe for concurrent use. After Close, Write returns os.ErrClosed-style
// failures from the discard path only if the underlying writer does.
func (sw *SwitchableWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	current := sw.w
	if current == nil {
		sw.mu.Unlock()
		return 0, os.ErrClosed
	}
	n, err = current.Write(p)
	sw.mu.Unlock()
	if err != nil {
		return n, fmt.Errorf("write via switchable writer: %w", err)
	}
	return n, nil
}

// SetWriter atomically updates the underlying writer. The previous writer
// is not closed; managing its lifecycle is the caller's responsibility. A
// nil newWriter directs subsequent writes to io.Discard.
func (sw *SwitchableWriter) SetWriter(newWriter io.Writer) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if newWriter == nil {
		sw.w = io.Discard
		return
	}
	sw.w = newWriter
}

// CurrentWriter returns the writer currently receiving output. Callers
// should avoid holding the returned writer across calls to SetWriter.
func (sw *SwitchableWriter) CurrentWriter() io.Writer {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w
}

// Close closes the current underlying writer if it implements io.Closer,
// leaving the process standard streams open, then directs further writes to
// io.Discard. Safe for concurrent use and idempotent.
func (sw *SwitchableWriter) Close() error {
	sw.mu.Lock()
	writerToClose := sw.w
	sw.w = io.Discard
	sw.mu.Unlock()

	if writerToClose == os.Stdout || writerToClose == os.Stderr {
		return nil
	}
	if c, ok := writerToClose.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close current writer: %w", err)
		}
	}
	return nil
}

var _ io.WriteCloser = (*SwitchableWriter)(nil)
