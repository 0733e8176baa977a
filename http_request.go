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
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Method is the closed set of HTTP request methods representable in the
// httpRequest schema field. The zero value is "unset" and is omitted from
// the wire form.
type Method int

// The recognized request methods.
const (
	MethodGet Method = iota + 1
	MethodHead
	MethodPut
	MethodPost
)

// methodTokens holds the wire spellings, indexed by Method-1.
var methodTokens = [...]string{"get", "head", "put", "post"}

// String returns the conventional upper-case method name, or "" when unset.
func (m Method) String() string {
	if m < MethodGet || m > MethodPost {
		return ""
	}
	return strings.ToUpper(methodTokens[m-1])
}

// MarshalJSON renders m as its quoted lower-camel token.
func (m Method) MarshalJSON() ([]byte, error) {
	if m < MethodGet || m > MethodPost {
		return nil, fmt.Errorf("gclog: cannot marshal request method %d", int(m))
	}
	return json.Marshal(methodTokens[m-1])
}

// UnmarshalJSON parses a quoted token back into its Method value.
func (m *Method) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("gclog: request method must be a JSON string: %w", err)
	}
	for i, t := range methodTokens {
		if t == token {
			*m = Method(i + 1)
			return nil
		}
	}
	return fmt.Errorf("gclog: unknown request method token %q", token)
}

// ParseMethod maps a method name such as "GET" or "post" onto its Method
// value. Methods outside the recognized set return the unset zero value, so
// the field is simply omitted for them.
func ParseMethod(s string) Method {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return MethodGet
	case http.MethodHead:
		return MethodHead
	case http.MethodPut:
		return MethodPut
	case http.MethodPost:
		return MethodPost
	default:
		return 0
	}
}

// HTTPRequest mirrors the Cloud Logging HttpRequest payload stored under the
// httpRequest key, shaped after the google.logging.type.HttpRequest proto
// message (see [Cloud Logging REST]). Every field is optional and omitted
// when absent.
//
// [Cloud Logging REST]: https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry#HttpRequest
type HTTPRequest struct {
	// RequestMethod is the request method.
	RequestMethod Method `json:"requestMethod,omitempty"`

	// RequestURL is the scheme, host name, path and query portion of the
	// requested URL. Example: "http://example.com/some/info?color=red".
	RequestURL string `json:"requestUrl,omitempty"`

	// RequestSize is the size of the request message in bytes, including
	// headers and body, in decimal string form.
	RequestSize string `json:"requestSize,omitempty"`

	// Status is the response code. Examples: 200, 404.
	Status int `json:"status,omitempty"`

	// ResponseSize is the size of the response message sent back to the
	// client in bytes, including headers and body, in decimal string form.
	ResponseSize string `json:"responseSize,omitempty"`

	// UserAgent is the user agent string sent by the client.
	UserAgent string `json:"userAgent,omitempty"`

	// RemoteIP is the IP address (IPv4 or IPv6) of the client that issued
	// the request, optionally including port information.
	RemoteIP string `json:"remoteIp,omitempty"`

	// ServerIP is the IP address of the origin server that the request was
	// sent to, optionally including port information.
	ServerIP string `json:"serverIp,omitempty"`

	// Latency is the request processing latency on the server: a duration
	// in seconds with up to nine fractional digits, terminated by "s".
	// Example: "3.5s". Populate it with [FormatLatency].
	Latency string `json:"latency,omitempty"`

	// Protocol is the protocol used for the request. Examples: "HTTP/1.1",
	// "HTTP/2", "websocket".
	Protocol string `json:"protocol,omitempty"`
}

// HTTPRequestFromRequest derives an HTTPRequest from r, filling in the
// fields knowable before a response exists. Status, response size, and
// latency belong to the response side and stay unset. The request body is
// never read.
func HTTPRequestFromRequest(r *http.Request) *HTTPRequest {
	if r == nil {
		return nil
	}

	req := &HTTPRequest{
		RequestMethod: ParseMethod(r.Method),
		Protocol:      r.Proto,
		UserAgent:     r.UserAgent(),
		RemoteIP:      r.RemoteAddr,
	}
	if r.URL != nil {
		req.RequestURL = r.URL.String()
	}
	if r.ContentLength >= 0 {
		req.RequestSize = strconv.FormatInt(requestWireSize(r), 10)
	}
	return req
}

// requestWireSize approximates the on-the-wire request size from the
// declared body length plus a serialization of the header block.
func requestWireSize(r *http.Request) int64 {
	size := r.ContentLength
	for name, values := range r.Header {
		for _, v := range values {
			// "Name: value\r\n"
			size += int64(len(name) + len(v) + 4)
		}
	}
	return size
}

// FormatLatency renders d as a Cloud Logging compatible latency string with
// nine fractional digits, such as "0.034517000s".
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%.9fs", d.Seconds())
}
