package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func setBuild(t *testing.T, appVersion, commit, buildTime string, build *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldBuildTime, oldRead := AppVersion, GitCommit, BuildTime, readBuildInfo
	t.Cleanup(func() {
		AppVersion, GitCommit, BuildTime, readBuildInfo = oldVersion, oldCommit, oldBuildTime, oldRead
	})
	AppVersion, GitCommit, BuildTime = appVersion, commit, buildTime
	readBuildInfo = func() (*debug.BuildInfo, bool) { return build, build != nil }
}

func TestCurrent_Defaults(t *testing.T) {
	setBuild(t, "", "", "", nil)

	info := Current("")

	if info.Service != Unknown {
		t.Fatalf("expected service %q, got %q", Unknown, info.Service)
	}
	if info.Version != DevelopmentVersion {
		t.Fatalf("expected version %q, got %q", DevelopmentVersion, info.Version)
	}
	if info.Commit != Unknown {
		t.Fatalf("expected commit %q, got %q", Unknown, info.Commit)
	}
	if info.BuildTime != Unknown {
		t.Fatalf("expected build_time %q, got %q", Unknown, info.BuildTime)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("expected go version %q, got %q", runtime.Version(), info.GoVersion)
	}
}

func TestCurrent_FallsBackToBuildInfo(t *testing.T) {
	setBuild(t, DevelopmentVersion, Unknown, Unknown, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-03-10T12:00:00Z"},
		},
	})

	info := Current("library-api")

	if info.Version != "v0.3.1" {
		t.Fatalf("expected module version, got %q", info.Version)
	}
	if info.Commit != "abc123" {
		t.Fatalf("expected vcs revision, got %q", info.Commit)
	}
	if _, ok := info.ParseBuildTime(); !ok {
		t.Fatalf("expected vcs time to parse, got %q", info.BuildTime)
	}
}

func TestCurrent_LdflagsWinOverBuildInfo(t *testing.T) {
	setBuild(t, "v1.2.3", "deadbeef", "2024-01-01T00:00:00Z", &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})

	info := Current("library-api")

	if info.Version != "v1.2.3" || info.Commit != "deadbeef" {
		t.Fatalf("expected ldflags values, got %+v", info)
	}
	if !strings.HasPrefix(info.String(), "library-api@v1.2.3 (commit=deadbeef") {
		t.Fatalf("unexpected string form %q", info.String())
	}
}

func TestInfo_ParseBuildTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	info := Info{
		BuildTime: now.Format(time.RFC3339),
	}

	parsed, ok := info.ParseBuildTime()
	if !ok {
		t.Fatalf("expected build time to be parsed")
	}
	if !parsed.Equal(now) {
		t.Fatalf("expected %s, got %s", now, parsed)
	}

	if _, ok := (Info{BuildTime: "yesterday"}).ParseBuildTime(); ok {
		t.Fatalf("expected invalid build time to be rejected")
	}
}
