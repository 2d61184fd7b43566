package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moasq/podmedic/internal/config"
	"github.com/moasq/podmedic/internal/pbxproj"
	"github.com/moasq/podmedic/internal/plist"
	"github.com/moasq/podmedic/internal/podfile"
	"github.com/moasq/podmedic/internal/recovery"
	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/scriptfix"
	"github.com/moasq/podmedic/internal/toolchain"
)

type textOutput struct {
	Message string `json:"message"`
}

// loadProject resolves configuration for a tool call. Tools always receive
// the project directory explicitly; the server never consults its own CWD.
func loadProject(projectDir string) (*config.Config, error) {
	if projectDir == "" {
		return nil, fmt.Errorf("project_dir is required")
	}
	return config.Load(projectDir)
}

// repairBundleIDsInput is the input for the repair_bundle_identifiers tool.
type repairBundleIDsInput struct {
	ProjectDir     string `json:"project_dir" jsonschema:"description=Flutter project root containing the ios/ directory"`
	BaseIdentifier string `json:"base_identifier" jsonschema:"description=Base bundle identifier e.g. com.example.myapp. Falls back to the BUNDLE_IDENTIFIER environment variable."`
	DryRun         bool   `json:"dry_run" jsonschema:"description=Report the planned assignments without writing the descriptor"`
}

func handleRepairBundleIdentifiers(ctx context.Context, req *mcp.CallToolRequest, input repairBundleIDsInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	base := input.BaseIdentifier
	if base == "" {
		base = cfg.BaseIdentifier
	}

	res, err := pbxproj.RepairFile(cfg.PbxprojPath(), pbxproj.Options{
		BaseIdentifier: base,
		Classify:       pbxproj.MarkerClassifier(cfg.Policy.TestMarkers),
	}, input.DryRun)
	if err != nil {
		return nil, textOutput{}, err
	}

	if !res.Changed {
		return nil, textOutput{Message: "All bundle identifiers already unique; descriptor untouched."}, nil
	}

	var b strings.Builder
	if input.DryRun {
		b.WriteString("Dry run; descriptor untouched. Planned assignments:\n")
	} else {
		fmt.Fprintf(&b, "Repaired %s (backup: %s). Assignments:\n", res.Path, res.BackupPath)
	}
	for _, a := range res.Assignments {
		fmt.Fprintf(&b, "  - %s #%d: %s -> %s\n", a.Class, a.Group, a.Old, a.New)
	}
	return nil, textOutput{Message: b.String()}, nil
}

// repairPodsIDsInput is the input for the repair_pods_identifiers tool.
type repairPodsIDsInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"description=Flutter project root containing the ios/ directory"`
	DryRun     bool   `json:"dry_run" jsonschema:"description=Report the planned assignments without writing the descriptor"`
}

func handleRepairPodsIdentifiers(ctx context.Context, req *mcp.CallToolRequest, input repairPodsIDsInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	res, err := pbxproj.RepairPodsFile(cfg.PodsPbxprojPath(), cfg.Policy.PlaceholderPrefixes, input.DryRun)
	if err != nil {
		return nil, textOutput{}, err
	}

	if !res.Changed {
		return nil, textOutput{Message: "No placeholder pod identifiers found; descriptor untouched."}, nil
	}
	return nil, textOutput{Message: fmt.Sprintf("Rewrote %d pod identifier(s) in %s (backup: %s).", len(res.Assignments), res.Path, res.BackupPath)}, nil
}

// plistInput is shared by the validate_info_plist and fix_info_plist tools.
type plistInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"description=Flutter project root containing the ios/ directory"`
	Path       string `json:"path" jsonschema:"description=Explicit Info.plist path. Empty means ios/Runner/Info.plist under the project."`
}

func handleValidateInfoPlist(ctx context.Context, req *mcp.CallToolRequest, input plistInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}
	path := input.Path
	if path == "" {
		path = cfg.InfoPlistPath()
	}

	v := plist.New(runner.New())
	v.Keys = cfg.Policy.RequiredPlistKeys
	val, err := v.Validate(ctx, path)
	if err != nil {
		return nil, textOutput{}, err
	}

	if val.Valid {
		return nil, textOutput{Message: fmt.Sprintf("%s is valid; all required keys present.", path)}, nil
	}
	return nil, textOutput{Message: fmt.Sprintf("%s is missing required keys: %s. Run fix_info_plist to repair.", path, strings.Join(val.Missing, ", "))}, nil
}

// fixPlistInput is the input for the fix_info_plist tool.
type fixPlistInput struct {
	plistInput
	AppName     string `json:"app_name" jsonschema:"description=Value for CFBundleName and display name when inserted"`
	BundleID    string `json:"bundle_id" jsonschema:"description=Value for CFBundleIdentifier when inserted"`
	Version     string `json:"version" jsonschema:"description=Value for CFBundleShortVersionString when inserted"`
	BuildNumber string `json:"build_number" jsonschema:"description=Value for CFBundleVersion when inserted"`
}

func handleFixInfoPlist(ctx context.Context, req *mcp.CallToolRequest, input fixPlistInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}
	path := input.Path
	if path == "" {
		path = cfg.InfoPlistPath()
	}

	v := plist.New(runner.New())
	v.Keys = cfg.Policy.RequiredPlistKeys
	res, err := v.Fix(ctx, path, plist.Params{
		AppName:     input.AppName,
		BundleID:    input.BundleID,
		Version:     input.Version,
		BuildNumber: input.BuildNumber,
	})
	if err != nil {
		return nil, textOutput{}, err
	}

	if len(res.Inserted) == 0 {
		return nil, textOutput{Message: fmt.Sprintf("%s was already valid; nothing inserted.", path)}, nil
	}
	return nil, textOutput{Message: fmt.Sprintf("Inserted %s into %s (backup: %s). Revalidation passed.", strings.Join(res.Inserted, ", "), path, res.BackupPath)}, nil
}

// resetPodsInput is the input for the reset_pods tool.
type resetPodsInput struct {
	ProjectDir  string `json:"project_dir" jsonschema:"description=Flutter project root containing the ios/ directory"`
	SkipInstall bool   `json:"skip_install" jsonschema:"description=Stop after rewriting the Podfile and leave pod install to the pipeline"`
	CleanCaches bool   `json:"clean_caches" jsonschema:"description=Also wipe the per-user CocoaPods cache before installing"`
}

func handleResetPods(ctx context.Context, req *mcp.CallToolRequest, input resetPodsInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	res, err := podfile.Reset(ctx, runner.New(), podfile.ResetOpts{
		IOSDir: cfg.IOSDir,
		Template: podfile.TemplateOpts{
			PlatformVersion: cfg.Policy.PlatformVersion,
			DisableFirebase: cfg.DisableFirebase,
		},
		SkipInstall: input.SkipInstall,
		CleanCaches: input.CleanCaches,
	})
	if err != nil {
		return nil, textOutput{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pods environment reset. Removed: %s.", strings.Join(res.Removed, ", "))
	if res.PodfileBackup != "" {
		fmt.Fprintf(&b, " Previous Podfile backed up to %s.", res.PodfileBackup)
	}
	if res.InstallSkipped {
		b.WriteString(" Install skipped.")
	} else {
		fmt.Fprintf(&b, " Install succeeded via the %s strategy.", res.Strategy)
	}
	return nil, textOutput{Message: b.String()}, nil
}

// verifyToolchainInput is the input for the verify_toolchain tool.
type verifyToolchainInput struct {
	ProjectDir       string `json:"project_dir" jsonschema:"description=Flutter project root. Its .podmedic.yml policy supplies the version floors."`
	DeploymentTarget string `json:"deployment_target" jsonschema:"description=Project iOS deployment target to check against the recommendation. Empty skips the check."`
}

func handleVerifyToolchain(ctx context.Context, req *mcp.CallToolRequest, input verifyToolchainInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	report, err := toolchain.Verify(ctx, runner.New(), toolchain.Opts{
		XcodeVersionOverride:        cfg.XcodeVersionOverride,
		MinXcodeMajor:               cfg.Policy.MinXcodeMajor,
		MinSDKMajor:                 cfg.Policy.MinSDKMajor,
		RecommendedDeploymentTarget: cfg.Policy.RecommendedDeploymentTarget,
		RecommendedPodsVersion:      cfg.Policy.RecommendedPodsVersion,
		DeploymentTarget:            input.DeploymentTarget,
	})
	if err != nil {
		return nil, textOutput{}, err
	}

	var b strings.Builder
	for _, c := range report.Checks {
		switch c.Severity {
		case toolchain.Fatal:
			fmt.Fprintf(&b, "FATAL %s: %s\n", c.Name, c.Message)
		case toolchain.Advisory:
			fmt.Fprintf(&b, "warn  %s: %s\n", c.Name, c.Message)
		default:
			fmt.Fprintf(&b, "ok    %s: %s\n", c.Name, c.Value)
		}
	}
	if report.Passed() {
		b.WriteString("Toolchain verification passed.")
	} else {
		b.WriteString("Toolchain verification FAILED; fix the fatal findings before building.")
	}
	return nil, textOutput{Message: b.String()}, nil
}

// recoverProjectInput is the input for the recover_project tool.
type recoverProjectInput struct {
	ProjectDir     string `json:"project_dir" jsonschema:"description=Flutter project root containing the ios/ directory"`
	BaseIdentifier string `json:"base_identifier" jsonschema:"description=Base bundle identifier reapplied after regeneration. Falls back to BUNDLE_IDENTIFIER."`
}

func handleRecoverProject(ctx context.Context, req *mcp.CallToolRequest, input recoverProjectInput) (*mcp.CallToolResult, textOutput, error) {
	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	base := input.BaseIdentifier
	if base == "" {
		base = cfg.BaseIdentifier
	}

	res, err := recovery.Run(ctx, runner.New(), recovery.Opts{
		ProjectRoot:    cfg.ProjectRoot,
		IOSDir:         cfg.IOSDir,
		PbxprojPath:    cfg.PbxprojPath(),
		BaseIdentifier: base,
		BackupSuffixes: cfg.Policy.BackupSuffixes,
		Template: podfile.TemplateOpts{
			PlatformVersion: cfg.Policy.PlatformVersion,
			DisableFirebase: cfg.DisableFirebase,
		},
		Classify: pbxproj.MarkerClassifier(cfg.Policy.TestMarkers),
	})
	if err != nil {
		return nil, textOutput{}, err
	}

	var b strings.Builder
	for _, s := range res.Steps {
		fmt.Fprintf(&b, "%-24s %s", s.Name, s.Status)
		if s.Detail != "" {
			fmt.Fprintf(&b, " (%s)", s.Detail)
		}
		b.WriteString("\n")
	}
	if res.Recovered {
		b.WriteString("Project descriptor recovered and validated.")
	} else {
		b.WriteString("Project descriptor was already valid; nothing to recover.")
	}
	return nil, textOutput{Message: b.String()}, nil
}

// fixScriptsInput is the input for the fix_scripts tool.
type fixScriptsInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"description=Directory scanned recursively for *.sh scripts"`
	Path       string `json:"path" jsonschema:"description=Single script to fix instead of scanning the project"`
}

func handleFixScripts(ctx context.Context, req *mcp.CallToolRequest, input fixScriptsInput) (*mcp.CallToolResult, textOutput, error) {
	if input.Path != "" {
		res, err := scriptfix.FixFile(input.Path)
		if err != nil {
			return nil, textOutput{}, err
		}
		if res.Clean() {
			return nil, textOutput{Message: fmt.Sprintf("%s was already clean.", res.Path)}, nil
		}
		return nil, textOutput{Message: fmt.Sprintf("Fixed %s (%s); backup at %s.", res.Path, strings.Join(res.Fixes, ", "), res.BackupPath)}, nil
	}

	cfg, err := loadProject(input.ProjectDir)
	if err != nil {
		return nil, textOutput{}, err
	}

	results, err := scriptfix.FixDir(cfg.ProjectRoot)
	if err != nil {
		return nil, textOutput{}, err
	}

	fixed := 0
	var b strings.Builder
	for _, res := range results {
		if res.Clean() {
			continue
		}
		fixed++
		fmt.Fprintf(&b, "  - %s: %s\n", res.Path, strings.Join(res.Fixes, ", "))
	}
	if fixed == 0 {
		return nil, textOutput{Message: fmt.Sprintf("Scanned %d script(s); all clean.", len(results))}, nil
	}
	return nil, textOutput{Message: fmt.Sprintf("Fixed %d of %d script(s):\n%s", fixed, len(results), b.String())}, nil
}
