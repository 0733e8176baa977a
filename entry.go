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

import "time"

// Constants for the structured payload keys recognized by Cloud Logging.
// These exact spellings are a compatibility contract with the ingestion
// backend; the agent keys on them verbatim.
const (
	// ReportTypeKey tags an entry for Cloud Error Reporting ingestion.
	ReportTypeKey = "@type"
	// InsertIDKey carries the de-duplication identifier.
	InsertIDKey = "logging.googleapis.com/insertId"
	// LabelsKey carries the free-form string labels map.
	LabelsKey = "logging.googleapis.com/labels"
	// OperationKey carries the operation correlation descriptor.
	OperationKey = "logging.googleapis.com/operation"
	// SourceLocationKey carries the producing call site.
	SourceLocationKey = "logging.googleapis.com/sourceLocation"
	// SpanKey is the field name for the hex span ID.
	SpanKey = "logging.googleapis.com/spanId"
	// TraceKey is the field name for the formatted trace name. The value
	// must be "projects/PROJECT_ID/traces/TRACE_ID".
	TraceKey = "logging.googleapis.com/trace"
	// SampledKey is the field name for the boolean sampling decision.
	SampledKey = "logging.googleapis.com/trace_sampled"
)

// ReportedErrorEventType is the value emitted under the "@type" key when an
// entry represents an error intended for automated grouping by Cloud Error
// Reporting. See
// https://cloud.google.com/error-reporting/docs/formatting-error-messages#@type
const ReportedErrorEventType = "type.googleapis.com/google.devtools.clouderrorreporting.v1beta1.ReportedErrorEvent"

// Entry is the structured log document written in JSON format, shaped after
// https://cloud.google.com/logging/docs/structured-logging. Every field is
// independently optional, and any field whose value is absent is elided from
// the serialized form; no nulls and no empty label maps are ever emitted.
//
// An Entry is built fresh for each log event, serialized once, and
// discarded. Nothing mutates it after construction and nothing shares it
// across events.
type Entry struct {
	// Severity is the assigned severity level. Unset severity is omitted
	// from the wire form, which is distinct from an explicit
	// [SeverityDefault].
	Severity Severity `json:"severity,omitempty"`

	// Message is the text that appears on the log entry line in the Logs
	// Explorer. A multi-line backtrace may be appended after the primary
	// message; see [CaptureBacktrace] for the expected textual convention.
	Message string `json:"message,omitempty"`

	// ReportType marks the entry for Cloud Error Reporting when set to
	// [ReportedErrorEventType]. Serialized under the literal key "@type".
	ReportType string `json:"@type,omitempty"`

	// HTTPRequest describes the HTTP exchange the entry pertains to.
	HTTPRequest *HTTPRequest `json:"httpRequest,omitempty"`

	// Time is the wall-clock time the entry was produced.
	Time time.Time `json:"time,omitzero"`

	// InsertID de-duplicates entries: Logging considers entries in the same
	// project with the same timestamp and the same insertId to be
	// duplicates, removed in a single query result.
	InsertID string `json:"logging.googleapis.com/insertId,omitempty"`

	// Labels is a map of key/value pairs providing additional information
	// about the entry. An empty map is omitted entirely.
	Labels map[string]string `json:"logging.googleapis.com/labels,omitempty"`

	// Operation describes an operation associated with the entry, if any.
	Operation *Operation `json:"logging.googleapis.com/operation,omitempty"`

	// SourceLocation identifies the source code location that produced the
	// entry.
	SourceLocation *SourceLocation `json:"logging.googleapis.com/sourceLocation,omitempty"`

	// SpanID is the span within the associated trace, as a 16-character
	// hexadecimal encoding of an 8-byte array, such as "000000000000004a".
	SpanID string `json:"logging.googleapis.com/spanId,omitempty"`

	// Trace is the resource name of the associated trace, such as
	// "projects/my-projectid/traces/06796866738c859f2f19b7cfb3214824".
	Trace string `json:"logging.googleapis.com/trace,omitempty"`

	// TraceSampled records the sampling decision of the associated trace.
	// A non-sampled trace value is still useful as a request correlation
	// identifier. Nil means the decision is unknown and the field is
	// omitted; explicit false survives the round trip.
	TraceSampled *bool `json:"logging.googleapis.com/trace_sampled,omitempty"`
}

// Operation mirrors the LogEntryOperation message. Entries with the same
// id/producer pair are assumed to be part of the same operation.
type Operation struct {
	// ID is an arbitrary operation identifier.
	ID string `json:"id,omitempty"`

	// Producer is an arbitrary producer identifier; the combination of ID
	// and Producer must be globally unique. Examples:
	// "MyDivision.MyBigCompany.com", "github.com/MyProject/MyApplication".
	Producer string `json:"producer,omitempty"`

	// First marks the first entry in the operation.
	First *bool `json:"first,omitempty"`

	// Last marks the last entry in the operation.
	Last *bool `json:"last,omitempty"`
}

// SourceLocation mirrors the LogEntrySourceLocation message.
type SourceLocation struct {
	// File is the source file name; depending on the runtime environment
	// this might be a simple name or a fully-qualified name.
	File string `json:"file,omitempty"`

	// Line is the 1-based line within the source file, in decimal string
	// form as the backend expects; "0" indicates no line number available.
	Line string `json:"line,omitempty"`

	// Function is the human-readable name of the function or method being
	// invoked, with optional context such as the package name, e.g.
	// "dir/package.func".
	Function string `json:"function,omitempty"`
}

// Bool returns a pointer to b, for populating the optional boolean schema
// fields where absence and explicit false are distinct wire states.
func Bool(b bool) *bool { return &b }
