// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package version carries the build-time identity of the binary. The
// values are meant to be overridden at link time via -ldflags
// "-X github.com/solarisdb/blockdelta/pkg/version.Version=...".
package version

var (
	// Version is the semantic version of the build, "dev" for local builds.
	Version = "dev"
	// Commit is the git commit hash the binary was built from.
	Commit = "none"
	// BuildDate is the RFC3339 timestamp the binary was built at.
	BuildDate = "unknown"
)

// BuildVersionString returns a one-line human-readable build identity,
// suitable for a startup log line.
func BuildVersionString() string {
	return Version + " (commit=" + Commit + ", built=" + BuildDate + ")"
}
