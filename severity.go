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
	"encoding/json"
	"fmt"
)

// Severity is one of the standard Cloud Logging severity levels, ordered by
// ascending criticality. The zero value is "unset": an [Entry] whose
// severity was never assigned omits the field from the wire form entirely,
// which Cloud Logging treats differently from an explicit
// [SeverityDefault].
type Severity int

// The nine severity levels recognized by the Cloud Logging API.
const (
	// SeverityDefault means the entry has no assigned severity level.
	SeverityDefault Severity = iota + 1
	// SeverityDebug marks debug or trace information.
	SeverityDebug
	// SeverityInfo marks routine information, such as ongoing status or
	// performance.
	SeverityInfo
	// SeverityNotice marks normal but significant events, such as start up,
	// shut down, or a configuration change.
	SeverityNotice
	// SeverityWarning marks events that might cause problems.
	SeverityWarning
	// SeverityError marks events likely to cause problems.
	SeverityError
	// SeverityCritical marks events that cause more severe problems or
	// outages.
	SeverityCritical
	// SeverityAlert means a person must take an action immediately.
	SeverityAlert
	// SeverityEmergency means one or more systems are unusable.
	SeverityEmergency
)

// severityTokens holds the wire spellings, indexed by Severity-1. The
// lower-camel token form is what the Logging agent matches on; renaming any
// of these breaks backend ingestion.
var severityTokens = [...]string{
	"default",
	"debug",
	"info",
	"notice",
	"warning",
	"error",
	"critical",
	"alert",
	"emergency",
}

// severityNames holds the upper-case display names used by text output and
// the Logs Explorer, indexed by Severity-1.
var severityNames = [...]string{
	"DEFAULT",
	"DEBUG",
	"INFO",
	"NOTICE",
	"WARNING",
	"ERROR",
	"CRITICAL",
	"ALERT",
	"EMERGENCY",
}

// valid reports whether s is one of the nine declared levels.
func (s Severity) valid() bool {
	return s >= SeverityDefault && s <= SeverityEmergency
}

// String returns the canonical upper-case severity name, such as "WARNING".
// The zero value and out-of-range values render as "UNSET".
func (s Severity) String() string {
	if !s.valid() {
		return "UNSET"
	}
	return severityNames[s-1]
}

// Token returns the lower-camel wire spelling of s, such as "warning", or
// the empty string when s is unset or out of range.
func (s Severity) Token() string {
	if !s.valid() {
		return ""
	}
	return severityTokens[s-1]
}

// MarshalJSON renders s as its quoted wire token. Marshalling an unset or
// out-of-range severity is an encoder failure; the omitempty struct tag on
// [Entry] prevents the unset zero value from ever reaching this path.
func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("gclog: cannot marshal severity %d", int(s))
	}
	return json.Marshal(severityTokens[s-1])
}

// UnmarshalJSON parses a quoted wire token back into its Severity value.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("gclog: severity must be a JSON string: %w", err)
	}
	for i, t := range severityTokens {
		if t == token {
			*s = Severity(i + 1)
			return nil
		}
	}
	return fmt.Errorf("gclog: unknown severity token %q", token)
}
