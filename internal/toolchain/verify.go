// Package toolchain verifies Xcode and SDK versions against minimum
// floors. Version extraction is isolated in pure parsing functions;
// subprocess access goes through the runner.
package toolchain

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/runner"
)

// Severity of a single check outcome.
type Severity int

const (
	// OK means the check passed.
	OK Severity = iota
	// Advisory means the value is below the recommendation but not fatal.
	Advisory
	// Fatal means the build environment cannot be used.
	Fatal
)

// Check is one verified property.
type Check struct {
	Name     string
	Value    string
	Severity Severity
	Message  string
}

// Report aggregates all checks.
type Report struct {
	Checks []Check
}

// Passed reports whether no fatal check failed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Severity == Fatal {
			return false
		}
	}
	return true
}

// Opts configure the verification floors.
type Opts struct {
	// XcodeVersionOverride skips the xcodebuild query (XCODE_VERSION env).
	XcodeVersionOverride string

	// MinXcodeMajor and MinSDKMajor are fatal floors.
	MinXcodeMajor int
	MinSDKMajor   int

	// RecommendedDeploymentTarget and RecommendedPodsVersion are advisory.
	RecommendedDeploymentTarget int
	RecommendedPodsVersion      string

	// DeploymentTarget is the project's current target, "" to skip the check.
	DeploymentTarget string
}

// Verify runs every check. Only the Xcode and SDK floors are fatal;
// deployment-target and CocoaPods checks are advisory.
func Verify(ctx context.Context, r runner.Runner, opts Opts) (*Report, error) {
	log := logging.Get("toolchain")
	report := &Report{}

	xcodeVersion := opts.XcodeVersionOverride
	if xcodeVersion == "" {
		res, err := r.Run(ctx, "", "xcodebuild", "-version")
		if err != nil {
			return nil, fmt.Errorf("failed to run xcodebuild: %w", err)
		}
		if !res.OK() {
			return nil, fmt.Errorf("xcodebuild -version failed: %s", res.Output())
		}
		xcodeVersion = ParseXcodeVersion(res.Stdout)
	}
	report.Checks = append(report.Checks, checkMajorFloor("xcode", xcodeVersion, opts.MinXcodeMajor, Fatal))

	sdkRes, err := r.Run(ctx, "", "xcrun", "--show-sdk-version", "--sdk", "iphoneos")
	if err != nil {
		return nil, fmt.Errorf("failed to run xcrun: %w", err)
	}
	if sdkRes.OK() {
		sdk := strings.TrimSpace(sdkRes.Stdout)
		report.Checks = append(report.Checks, checkMajorFloor("ios-sdk", sdk, opts.MinSDKMajor, Fatal))
	} else {
		report.Checks = append(report.Checks, Check{
			Name:     "ios-sdk",
			Severity: Fatal,
			Message:  "iphoneos SDK not available: " + sdkRes.Output(),
		})
	}

	if opts.DeploymentTarget != "" && opts.RecommendedDeploymentTarget > 0 {
		report.Checks = append(report.Checks,
			checkMajorFloor("deployment-target", opts.DeploymentTarget, opts.RecommendedDeploymentTarget, Advisory))
	}

	if opts.RecommendedPodsVersion != "" {
		if res, err := r.Run(ctx, "", "pod", "--version"); err == nil && res.OK() {
			report.Checks = append(report.Checks,
				checkVersionFloor("cocoapods", strings.TrimSpace(res.Stdout), opts.RecommendedPodsVersion, Advisory))
		} else {
			report.Checks = append(report.Checks, Check{
				Name:     "cocoapods",
				Severity: Advisory,
				Message:  "pod not available",
			})
		}
	}

	for _, c := range report.Checks {
		ev := log.Info()
		if c.Severity == Fatal {
			ev = log.Error()
		} else if c.Severity == Advisory {
			ev = log.Warn()
		}
		ev.Str("check", c.Name).Str("value", c.Value).Msg(c.Message)
	}

	return report, nil
}

// checkMajorFloor compares the leading major integer of version against min.
func checkMajorFloor(name, version string, min int, failSeverity Severity) Check {
	c := Check{Name: name, Value: version}
	major, ok := MajorVersion(version)
	if !ok {
		c.Severity = failSeverity
		c.Message = fmt.Sprintf("cannot parse version %q", version)
		return c
	}
	if major < min {
		c.Severity = failSeverity
		c.Message = fmt.Sprintf("version %s below minimum %d", version, min)
		return c
	}
	c.Message = fmt.Sprintf("version %s meets minimum %d", version, min)
	return c
}

// checkVersionFloor compares full dotted versions.
func checkVersionFloor(name, version, min string, failSeverity Severity) Check {
	c := Check{Name: name, Value: version}
	if CompareVersions(version, min) < 0 {
		c.Severity = failSeverity
		c.Message = fmt.Sprintf("version %s below recommended %s", version, min)
		return c
	}
	c.Message = fmt.Sprintf("version %s meets recommended %s", version, min)
	return c
}

var xcodeVersionRe = regexp.MustCompile(`Xcode\s+(\d+(?:\.\d+)*)`)

// ParseXcodeVersion extracts "16.2" from xcodebuild -version output.
// Returns "" when no version line is present.
func ParseXcodeVersion(out string) string {
	m := xcodeVersionRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}

// MajorVersion parses the leading major integer of a dotted version.
func MajorVersion(version string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CompareVersions compares two dotted versions numerically per segment.
// Returns >0 if a > b, <0 if a < b, 0 if equal. Missing segments are 0.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimSpace(a), ".")
	bs := strings.Split(strings.TrimSpace(b), ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}
