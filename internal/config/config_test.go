package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBundleIdentifier, "")
	t.Setenv(EnvDisableFirebase, "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Policy.MinXcodeMajor != 16 {
		t.Errorf("MinXcodeMajor = %d, want 16", cfg.Policy.MinXcodeMajor)
	}
	if cfg.Policy.PlatformVersion != "13.0" {
		t.Errorf("PlatformVersion = %q, want 13.0", cfg.Policy.PlatformVersion)
	}
	if cfg.DisableFirebase {
		t.Error("DisableFirebase should default to false")
	}
	if got, want := cfg.PbxprojPath(), filepath.Join(cfg.IOSDir, "Runner.xcodeproj", "project.pbxproj"); got != want {
		t.Errorf("PbxprojPath() = %q, want %q", got, want)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBundleIdentifier, "com.moasq.custom")
	t.Setenv(EnvBuildID, "build-42")
	t.Setenv(EnvXcodeVersion, "16.1")
	t.Setenv(EnvDisableFirebase, "1")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseIdentifier != "com.moasq.custom" {
		t.Errorf("BaseIdentifier = %q", cfg.BaseIdentifier)
	}
	if cfg.BuildID != "build-42" {
		t.Errorf("BuildID = %q", cfg.BuildID)
	}
	if cfg.XcodeVersionOverride != "16.1" {
		t.Errorf("XcodeVersionOverride = %q", cfg.XcodeVersionOverride)
	}
	if !cfg.DisableFirebase {
		t.Error("DisableFirebase not picked up from env")
	}
}

func TestLoadPolicyFileMerge(t *testing.T) {
	dir := t.TempDir()
	policy := "min_xcode_major: 15\ntest_markers:\n  - UITests\n"
	if err := os.WriteFile(filepath.Join(dir, PolicyFileName), []byte(policy), 0o644); err != nil {
		t.Fatalf("failed to write policy: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Policy.MinXcodeMajor != 15 {
		t.Errorf("MinXcodeMajor = %d, want 15", cfg.Policy.MinXcodeMajor)
	}
	if len(cfg.Policy.TestMarkers) != 1 || cfg.Policy.TestMarkers[0] != "UITests" {
		t.Errorf("TestMarkers = %v", cfg.Policy.TestMarkers)
	}
	// Unset fields keep defaults.
	if cfg.Policy.MinSDKMajor != 17 {
		t.Errorf("MinSDKMajor = %d, want default 17", cfg.Policy.MinSDKMajor)
	}
}

func TestLoadMalformedPolicyFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, PolicyFileName), []byte(":\t not yaml ["), 0o644); err != nil {
		t.Fatalf("failed to write policy: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load() should fail on malformed policy")
	}
}

func TestFirstLineVersion(t *testing.T) {
	if got := firstLineVersion("Xcode 16.2\nBuild version 16C5032a"); got != "16.2" {
		t.Errorf("firstLineVersion = %q, want 16.2", got)
	}
	if got := firstLineVersion(""); got != "" {
		t.Errorf("firstLineVersion on empty = %q", got)
	}
}
