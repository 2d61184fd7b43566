package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/config"
	"github.com/moasq/podmedic/internal/pbxproj"
	"github.com/moasq/podmedic/internal/plist"
	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/terminal"
	"github.com/moasq/podmedic/internal/toolchain"
	"github.com/moasq/podmedic/internal/update"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the build environment without changing it",
	Long:  "Runs every check read-only: tool availability, project descriptor health, bundle identifier collisions, Info.plist required keys, toolchain version floors, CocoaPods state. Prints the last recorded repair, suggests the command that fixes each finding, and exits non-zero when any finding needs repair.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd)
	},
}

func runDoctor(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return doctor(cmd.Context(), cfg, runner.New())
}

func doctor(ctx context.Context, cfg *config.Config, r runner.Runner) error {
	terminal.Banner(Version)

	tools := config.CheckTools(ctx, r)
	terminal.ToolStatus(terminal.ToolStatusOpts{
		HasPod:        tools.HasPod,
		HasXcodebuild: tools.HasXcodebuild,
		HasPlutil:     tools.HasPlutil,
		HasFlutter:    tools.HasFlutter,
		PodVersion:    tools.PodVersion,
		XcodeVersion:  tools.XcodeVersion,
	})

	findings := 0
	findings += checkDescriptor(cfg)
	findings += checkPlist(ctx, cfg, r, tools.HasPlutil)
	findings += checkToolchain(ctx, cfg, r, tools.HasXcodebuild)
	findings += checkPods(cfg)

	if last, err := historyStore(cfg).Last(); err == nil && last != nil {
		terminal.Divider()
		terminal.Detail("last repair", fmt.Sprintf("%s %s (%s) at %s",
			last.Component, last.Action, last.Result, last.Time.Format("2006-01-02 15:04")))
	}

	if rel := update.Check(Version); rel.NeedsUpdate() {
		terminal.Info(fmt.Sprintf("podmedic v%s is available: %s", rel.Latest, rel.UpdateURL))
	}

	terminal.Divider()
	if findings == 0 {
		terminal.Success("No problems found")
		return nil
	}
	terminal.Warning(fmt.Sprintf("%d finding(s); run the suggested commands to repair", findings))
	return fmt.Errorf("%d finding(s) need repair", findings)
}

// checkDescriptor validates the Runner descriptor and looks for duplicate
// identifiers without modifying anything.
func checkDescriptor(cfg *config.Config) int {
	path := cfg.PbxprojPath()
	data, err := os.ReadFile(path)
	if err != nil {
		terminal.Warning(fmt.Sprintf("Project descriptor missing: %s", path))
		terminal.Info("Run `podmedic recover` to restore or regenerate it")
		return 1
	}

	doc, err := pbxproj.Parse(data)
	if err != nil {
		terminal.Warning(fmt.Sprintf("Project descriptor corrupt: %v", err))
		terminal.Info("Run `podmedic recover` to restore or regenerate it")
		return 1
	}

	seen := make(map[string]map[string]bool)
	classify := pbxproj.MarkerClassifier(cfg.Policy.TestMarkers)
	for _, b := range doc.Blocks {
		if seen[b.Identifier] == nil {
			seen[b.Identifier] = make(map[string]bool)
		}
		seen[b.Identifier][classify(b.Text(doc)).String()] = true
	}
	dupes := 0
	for id, classes := range seen {
		if len(classes) > 1 {
			dupes++
			terminal.Warning(fmt.Sprintf("Identifier %s shared across target classes", id))
		}
	}
	if dupes > 0 {
		terminal.Info("Run `podmedic bundleid --base <identifier>` to repair")
		return dupes
	}

	terminal.Success("Project descriptor healthy")
	return 0
}

func checkPlist(ctx context.Context, cfg *config.Config, r runner.Runner, hasPlutil bool) int {
	if !hasPlutil {
		terminal.Info("plutil not available; skipping Info.plist check")
		return 0
	}

	v := plist.New(r)
	v.Keys = cfg.Policy.RequiredPlistKeys
	val, err := v.Validate(ctx, cfg.InfoPlistPath())
	if err != nil {
		terminal.Warning(fmt.Sprintf("Info.plist check failed: %v", err))
		return 1
	}
	if val.Valid {
		terminal.Success("Info.plist has all required keys")
		return 0
	}
	terminal.Warning(fmt.Sprintf("Info.plist missing: %s", strings.Join(val.Missing, ", ")))
	terminal.Info("Run `podmedic plist --fix` to insert defaults")
	return 1
}

// checkToolchain runs the version floor checks read-only. Advisory
// mismatches are warnings; only fatal floors count as findings.
func checkToolchain(ctx context.Context, cfg *config.Config, r runner.Runner, hasXcodebuild bool) int {
	if cfg.XcodeVersionOverride == "" && !hasXcodebuild {
		terminal.Info("xcodebuild not available; skipping toolchain check")
		return 0
	}

	report, err := toolchain.Verify(ctx, r, toolchain.Opts{
		XcodeVersionOverride:        cfg.XcodeVersionOverride,
		MinXcodeMajor:               cfg.Policy.MinXcodeMajor,
		MinSDKMajor:                 cfg.Policy.MinSDKMajor,
		RecommendedDeploymentTarget: cfg.Policy.RecommendedDeploymentTarget,
		RecommendedPodsVersion:      cfg.Policy.RecommendedPodsVersion,
	})
	if err != nil {
		terminal.Warning(fmt.Sprintf("Toolchain check failed: %v", err))
		return 1
	}

	fatal := 0
	for _, c := range report.Checks {
		switch c.Severity {
		case toolchain.Fatal:
			fatal++
			terminal.Warning(fmt.Sprintf("%s: %s", c.Name, c.Message))
		case toolchain.Advisory:
			terminal.Warning(fmt.Sprintf("%s: %s", c.Name, c.Message))
		default:
			terminal.Success(fmt.Sprintf("%s %s", c.Name, c.Value))
		}
	}
	return fatal
}

// checkPods inspects the CocoaPods state without touching it: a missing
// Podfile or a lockfile that disagrees with Pods/ both mean the next build
// will fail in dependency resolution.
func checkPods(cfg *config.Config) int {
	if _, err := os.Stat(cfg.IOSDir); err != nil {
		terminal.Info("ios/ directory missing; skipping pods check")
		return 0
	}

	if _, err := os.Stat(filepath.Join(cfg.IOSDir, "Podfile")); err != nil {
		terminal.Warning("Podfile missing")
		terminal.Info("Run `podmedic pods` to regenerate it")
		return 1
	}

	_, lockErr := os.Stat(filepath.Join(cfg.IOSDir, "Podfile.lock"))
	_, podsErr := os.Stat(filepath.Join(cfg.IOSDir, "Pods"))
	if (lockErr == nil) != (podsErr == nil) {
		terminal.Warning("Pods state is stale: Podfile.lock and Pods/ disagree")
		terminal.Info("Run `podmedic pods` to reinstall")
		return 1
	}

	terminal.Success("Pods state consistent")
	return 0
}
