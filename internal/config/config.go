// Package config resolves repair policy from environment variables and an
// optional .podmedic.yml next to the project. No repair reads ambient
// state beyond what is captured here: every operation takes explicit paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables honored by the CLI. CM_BUILD_ID and XCODE_VERSION
// are the pipeline's own variables; the PODMEDIC_ ones are overrides.
const (
	EnvBundleIdentifier = "BUNDLE_IDENTIFIER"
	EnvBuildID          = "CM_BUILD_ID"
	EnvXcodeVersion     = "XCODE_VERSION"
	EnvDisableFirebase  = "PODMEDIC_DISABLE_FIREBASE"
)

// PolicyFileName is looked up in the project root.
const PolicyFileName = ".podmedic.yml"

// Policy is the tunable repair policy. Zero fields fall back to defaults,
// so a partial .podmedic.yml only overrides what it names.
type Policy struct {
	// TestMarkers classify a configuration block as a test target when any
	// of them appears in the block text.
	TestMarkers []string `yaml:"test_markers"`

	// PlaceholderPrefixes mark identifiers the pods variant may rewrite.
	PlaceholderPrefixes []string `yaml:"placeholder_prefixes"`

	// RequiredPlistKeys must be present and non-empty in Info.plist.
	RequiredPlistKeys []string `yaml:"required_plist_keys"`

	// MinXcodeMajor and MinSDKMajor are the fatal toolchain floors.
	MinXcodeMajor int `yaml:"min_xcode_major"`
	MinSDKMajor   int `yaml:"min_sdk_major"`

	// RecommendedDeploymentTarget and RecommendedPodsVersion are advisory.
	RecommendedDeploymentTarget int    `yaml:"recommended_deployment_target"`
	RecommendedPodsVersion      string `yaml:"recommended_pods_version"`

	// PlatformVersion is the platform floor written into the Podfile.
	PlatformVersion string `yaml:"platform_version"`

	// BackupSuffixes are tried, in order, by descriptor recovery after the
	// podmedic timestamped backups.
	BackupSuffixes []string `yaml:"backup_suffixes"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		TestMarkers:                 []string{"TEST_HOST", "BUNDLE_LOADER", "Tests"},
		PlaceholderPrefixes:         []string{"com.example", "io.flutter.flutter"},
		RequiredPlistKeys:           nil, // plist package supplies its own set
		MinXcodeMajor:               16,
		MinSDKMajor:                 17,
		RecommendedDeploymentTarget: 13,
		RecommendedPodsVersion:      "1.13.0",
		PlatformVersion:             "13.0",
		BackupSuffixes:              []string{".backup", ".bak", ".orig"},
	}
}

// Config is the fully resolved runtime configuration.
type Config struct {
	// ProjectRoot is the Flutter project root; IOSDir is its ios/ subdir.
	ProjectRoot string
	IOSDir      string

	// BaseIdentifier is the caller-supplied base bundle identifier, from
	// flag or BUNDLE_IDENTIFIER.
	BaseIdentifier string

	// BuildID is the pipeline build identifier, for log correlation only.
	BuildID string

	// XcodeVersionOverride short-circuits the xcodebuild version query.
	XcodeVersionOverride string

	// DisableFirebase skips the Firebase-specific Podfile relaxations.
	DisableFirebase bool

	Policy Policy
}

// Load resolves configuration for the given project root. A missing
// .podmedic.yml is fine; a malformed one is an error.
func Load(projectRoot string) (*Config, error) {
	if projectRoot == "" {
		projectRoot = "."
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	cfg := &Config{
		ProjectRoot:          abs,
		IOSDir:               filepath.Join(abs, "ios"),
		BaseIdentifier:       os.Getenv(EnvBundleIdentifier),
		BuildID:              os.Getenv(EnvBuildID),
		XcodeVersionOverride: os.Getenv(EnvXcodeVersion),
		DisableFirebase:      os.Getenv(EnvDisableFirebase) != "",
		Policy:               DefaultPolicy(),
	}

	path := filepath.Join(abs, PolicyFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var overrides Policy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Policy = mergePolicy(cfg.Policy, overrides)
	return cfg, nil
}

// PbxprojPath returns the descriptor path for the Runner project.
func (c *Config) PbxprojPath() string {
	return filepath.Join(c.IOSDir, "Runner.xcodeproj", "project.pbxproj")
}

// PodsPbxprojPath returns the descriptor path for the generated Pods project.
func (c *Config) PodsPbxprojPath() string {
	return filepath.Join(c.IOSDir, "Pods", "Pods.xcodeproj", "project.pbxproj")
}

// InfoPlistPath returns the Runner Info.plist path.
func (c *Config) InfoPlistPath() string {
	return filepath.Join(c.IOSDir, "Runner", "Info.plist")
}

func mergePolicy(base, o Policy) Policy {
	if len(o.TestMarkers) > 0 {
		base.TestMarkers = o.TestMarkers
	}
	if len(o.PlaceholderPrefixes) > 0 {
		base.PlaceholderPrefixes = o.PlaceholderPrefixes
	}
	if len(o.RequiredPlistKeys) > 0 {
		base.RequiredPlistKeys = o.RequiredPlistKeys
	}
	if o.MinXcodeMajor > 0 {
		base.MinXcodeMajor = o.MinXcodeMajor
	}
	if o.MinSDKMajor > 0 {
		base.MinSDKMajor = o.MinSDKMajor
	}
	if o.RecommendedDeploymentTarget > 0 {
		base.RecommendedDeploymentTarget = o.RecommendedDeploymentTarget
	}
	if o.RecommendedPodsVersion != "" {
		base.RecommendedPodsVersion = o.RecommendedPodsVersion
	}
	if o.PlatformVersion != "" {
		base.PlatformVersion = o.PlatformVersion
	}
	if len(o.BackupSuffixes) > 0 {
		base.BackupSuffixes = o.BackupSuffixes
	}
	return base
}
