// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package version carries build identification, overridable at link time:
//
//	go build -ldflags "-X github.com/tomtom215/situs/internal/version.Version=v1.2.0 \
//	  -X github.com/tomtom215/situs/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/tomtom215/situs/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

var (
	// Version is the semantic release version.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)

// String returns the full build identification line used in logs and /health.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, BuildDate)
}
