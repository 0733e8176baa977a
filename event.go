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

// Event is one generic log event handed to a [Formatter]. It carries the
// already-formatted message body together with call-site metadata; the
// formatter owns turning it into a wire representation.
//
// Only Level, Target, and Message are commonly populated. The remaining
// fields are optional enrichments that surface directly in the structured
// output when present.
type Event struct {
	// Level is the ordinal severity of the event.
	Level Level

	// Target names the module or component that produced the event, such
	// as "myservice.ingest".
	Target string

	// Message is the formatted message body.
	Message string

	// File, Line, and Function identify the producing call site when
	// known. Line is 1-based; zero means unavailable.
	File     string
	Line     int
	Function string

	// Labels holds per-event labels merged over the formatter's configured
	// labels; on key collision the event wins.
	Labels map[string]string

	// HTTPRequest attaches an HTTP exchange description to the entry.
	// Ignored in text format.
	HTTPRequest *HTTPRequest

	// InsertID overrides the formatter's insert-ID producer for this event.
	InsertID string
}
