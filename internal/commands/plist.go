package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/config"
	"github.com/moasq/podmedic/internal/plist"
	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
)

var (
	plistFixFlag     bool
	plistAllFlag     bool
	plistAppName     string
	plistBundleID    string
	plistVersion     string
	plistBuildNumber string
)

var plistCmd = &cobra.Command{
	Use:   "plist [path]",
	Short: "Validate or repair Info.plist required keys",
	Long:  "Checks the Runner Info.plist (or an explicit path) for structural validity and the required keys, exiting non-zero when keys are missing. With --fix, inserts missing or empty keys with sensible defaults, backing the file up first. With --all, scans the whole project for plists to validate.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		v := plist.New(runner.New())
		v.Keys = cfg.Policy.RequiredPlistKeys

		if plistAllFlag {
			return validateAllPlists(cmd.Context(), cfg, v)
		}

		path := cfg.InfoPlistPath()
		if len(args) == 1 {
			path = args[0]
		}

		if plistFixFlag {
			return fixPlist(cmd.Context(), cfg, v, path)
		}
		return validatePlist(cmd.Context(), v, path)
	},
}

func validatePlist(ctx context.Context, v *plist.Validator, path string) error {
	val, err := v.Validate(ctx, path)
	if err != nil {
		return err
	}
	if val.Valid {
		terminal.Success(fmt.Sprintf("%s is valid", path))
		return nil
	}
	terminal.Warning(fmt.Sprintf("Missing required keys: %s", strings.Join(val.Missing, ", ")))
	terminal.Info("Run with --fix to insert defaults")
	return fmt.Errorf("%s is missing %d required key(s)", path, len(val.Missing))
}

func validateAllPlists(ctx context.Context, cfg *config.Config, v *plist.Validator) error {
	paths, err := plist.FindAll(cfg.ProjectRoot)
	if err != nil {
		return err
	}
	invalid := 0
	for _, p := range paths {
		val, err := v.Validate(ctx, p)
		if err != nil {
			return err
		}
		if val.Valid {
			terminal.Success(p)
		} else {
			invalid++
			terminal.Warning(fmt.Sprintf("%s missing: %s", p, strings.Join(val.Missing, ", ")))
		}
	}
	if invalid > 0 {
		terminal.Info(fmt.Sprintf("%d of %d plist(s) need repair", invalid, len(paths)))
		return fmt.Errorf("%d of %d plist(s) missing required keys", invalid, len(paths))
	}
	return nil
}

func fixPlist(ctx context.Context, cfg *config.Config, v *plist.Validator, path string) error {
	res, err := v.Fix(ctx, path, plist.Params{
		AppName:     plistAppName,
		BundleID:    plistBundleID,
		Version:     plistVersion,
		BuildNumber: plistBuildNumber,
	})
	var backups []string
	if res != nil && res.BackupPath != "" {
		backups = []string{res.BackupPath}
	}
	recordRun(cfg, storage.RunRecord{
		Component: "plist",
		Action:    "fix",
		Result:    resultString(err),
		Backups:   backups,
	})
	if err != nil {
		return err
	}
	if len(res.Inserted) == 0 {
		terminal.Success("Info.plist already valid")
		return nil
	}
	terminal.Success(fmt.Sprintf("Inserted %s", strings.Join(res.Inserted, ", ")))
	terminal.Detail("backup", res.BackupPath)
	return nil
}

func init() {
	plistCmd.Flags().BoolVar(&plistFixFlag, "fix", false, "Insert missing keys instead of only reporting them")
	plistCmd.Flags().BoolVar(&plistAllFlag, "all", false, "Validate every Info.plist under the project root")
	plistCmd.Flags().StringVar(&plistAppName, "app-name", "", "Value for CFBundleName when inserted")
	plistCmd.Flags().StringVar(&plistBundleID, "bundle-id", "", "Value for CFBundleIdentifier when inserted")
	plistCmd.Flags().StringVar(&plistVersion, "app-version", "", "Value for CFBundleShortVersionString when inserted")
	plistCmd.Flags().StringVar(&plistBuildNumber, "build-number", "", "Value for CFBundleVersion when inserted")
}
