package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{"version: ", "commit: ", "built: "} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestEnv(t *testing.T) {
	env := Env()
	if env.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", env.GoVersion, runtime.Version())
	}
	if env.System != runtime.GOOS || env.Machine != runtime.GOARCH {
		t.Errorf("platform = %s/%s, want %s/%s", env.System, env.Machine, runtime.GOOS, runtime.GOARCH)
	}
	if env.ArgdumpVersion == "" {
		t.Error("ArgdumpVersion should not be empty")
	}
}
