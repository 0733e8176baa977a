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

import "strings"

// Level is the ordinal severity of an incoming log event, following the
// conventional five-level vocabulary of leveled logging facades. Lower
// values are more critical.
type Level int

// The five event levels, from most to least critical.
const (
	LevelError Level = iota + 1
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

// String returns the upper-case level name used by text output, such as
// "WARN". Out-of-range values render as "INFO".
func (l Level) String() string {
	if l < LevelError || l > LevelTrace {
		return "INFO"
	}
	return levelNames[l-1]
}

// Severity maps l onto its Cloud Logging severity. The mapping is total:
// every declared level has exactly one severity, and anything out of range
// collapses to [SeverityDefault] alongside trace.
//
//	Error → Error
//	Warn  → Warning
//	Info  → Info
//	Debug → Debug
//	Trace → Default
func (l Level) Severity() Severity {
	switch l {
	case LevelError:
		return SeverityError
	case LevelWarn:
		return SeverityWarning
	case LevelInfo:
		return SeverityInfo
	case LevelDebug:
		return SeverityDebug
	default:
		return SeverityDefault
	}
}

// ParseLevel converts a case-insensitive level name ("error", "WARN", ...)
// into its Level. Unrecognized names resolve to [LevelInfo] so that a bad
// configuration value degrades to routine logging rather than failing.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	case "TRACE":
		return LevelTrace
	default:
		return LevelInfo
	}
}
