// Package buildinfo provides build-time version information and the
// environment block recorded in documents.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/argdump/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/argdump/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/argdump/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	// Set via ldflags: -X github.com/matzehuels/argdump/pkg/buildinfo.Version=...
	Version = "dev"

	// Commit is the git commit SHA.
	// Set via ldflags: -X github.com/matzehuels/argdump/pkg/buildinfo.Commit=...
	Commit = "none"

	// Date is the build timestamp.
	// Set via ldflags: -X github.com/matzehuels/argdump/pkg/buildinfo.Date=...
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Environment describes the toolchain and platform that produced a
// document.
type Environment struct {
	GoVersion      string `json:"go_version" yaml:"go_version"`
	Compiler       string `json:"go_compiler" yaml:"go_compiler"`
	System         string `json:"platform_system" yaml:"platform_system"`
	Machine        string `json:"platform_machine" yaml:"platform_machine"`
	ArgdumpVersion string `json:"argdump_version" yaml:"argdump_version"`
}

// Env captures the current environment. When Version was not set at link
// time, the module version from the embedded build info is used if there
// is one.
func Env() Environment {
	version := Version
	if version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			version = bi.Main.Version
		}
	}
	return Environment{
		GoVersion:      runtime.Version(),
		Compiler:       runtime.Compiler,
		System:         runtime.GOOS,
		Machine:        runtime.GOARCH,
		ArgdumpVersion: version,
	}
}
