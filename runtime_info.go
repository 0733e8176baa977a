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
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// RuntimeInfo captures metadata about the current cloud environment.
type RuntimeInfo struct {
	// ProjectID is the Google Cloud project the process runs in, when
	// determinable.
	ProjectID string

	// Service is the deployed service name (Cloud Run, Cloud Functions, or
	// App Engine), when determinable.
	Service string

	// Revision is the deployed service revision or version, when
	// determinable.
	Revision string
}

var (
	runtimeInfo     RuntimeInfo
	runtimeInfoOnce sync.Once
)

// metadataTimeout bounds the metadata-server probe so construction on
// non-GCP hosts never stalls.
const metadataTimeout = 2 * time.Second

// DetectRuntimeInfo inspects well-known environment variables, and the GCE
// metadata server where available, to infer the project and service the
// process runs as. Results are cached for the life of the process.
//
// The detected values feed naturally into formatter configuration:
//
//	info := gclog.DetectRuntimeInfo()
//	f := gclog.New(
//	    gclog.WithTraceProjectID(info.ProjectID),
//	    gclog.WithOperation(opID, info.Service),
//	)
func DetectRuntimeInfo() RuntimeInfo {
	runtimeInfoOnce.Do(func() {
		runtimeInfo = detectRuntimeInfo()
	})
	return runtimeInfo
}

// detectRuntimeInfo performs the uncached detection.
func detectRuntimeInfo() RuntimeInfo {
	info := RuntimeInfo{ProjectID: cachedTraceProjectID()}

	// Cloud Run and Cloud Functions (2nd gen) expose Knative-style vars;
	// App Engine standard uses GAE_* equivalents.
	if service := trimmedEnv("K_SERVICE"); service != "" {
		info.Service = service
		info.Revision = trimmedEnv("K_REVISION")
	} else if service := trimmedEnv("GAE_SERVICE"); service != "" {
		info.Service = service
		info.Revision = trimmedEnv("GAE_VERSION")
	}

	if info.ProjectID == "" {
		info.ProjectID = projectIDFromMetadata()
	}
	return info
}

// projectIDFromMetadata asks the GCE metadata server for the project ID,
// returning "" off-GCP or on any failure.
func projectIDFromMetadata() string {
	if !metadata.OnGCE() {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()

	pid, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return ""
	}
	if normalized, _, ok := normalizeTraceProjectID(pid); ok {
		return normalized
	}
	return ""
}

// trimmedEnv returns the named environment variable with surrounding
// whitespace removed.
func trimmedEnv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
