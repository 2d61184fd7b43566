package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/pbxproj"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
)

var (
	baseIdentifierFlag string
	podsFlag           bool
	dryRunFlag         bool
)

var bundleidCmd = &cobra.Command{
	Use:   "bundleid",
	Short: "Repair duplicate bundle identifiers in the project descriptor",
	Long:  "Rewrites duplicate PRODUCT_BUNDLE_IDENTIFIER values so every target is unique: test targets get a .tests suffix, additional main targets a .app.N suffix. With --pods, gives placeholder-prefixed pod targets unique .pod.<name> identifiers instead. Running twice changes nothing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if podsFlag {
			res, err := pbxproj.RepairPodsFile(cfg.PodsPbxprojPath(), cfg.Policy.PlaceholderPrefixes, dryRunFlag)
			recordRun(cfg, storage.RunRecord{
				Component: "bundleid",
				Action:    "repair-pods",
				Result:    resultString(err),
				Backups:   backupList(res),
			})
			if err != nil {
				return err
			}
			printRepair(res)
			return nil
		}

		base := baseIdentifierFlag
		if base == "" {
			base = cfg.BaseIdentifier
		}
		if base == "" {
			return fmt.Errorf("base identifier required: pass --base or set BUNDLE_IDENTIFIER")
		}

		res, err := pbxproj.RepairFile(cfg.PbxprojPath(), pbxproj.Options{
			BaseIdentifier: base,
			Classify:       pbxproj.MarkerClassifier(cfg.Policy.TestMarkers),
		}, dryRunFlag)
		recordRun(cfg, storage.RunRecord{
			Component: "bundleid",
			Action:    "repair",
			Result:    resultString(err),
			Backups:   backupList(res),
		})
		if err != nil {
			return err
		}
		printRepair(res)
		return nil
	},
}

func backupList(res *pbxproj.FileResult) []string {
	if res == nil || res.BackupPath == "" {
		return nil
	}
	return []string{res.BackupPath}
}

func printRepair(res *pbxproj.FileResult) {
	if !res.Changed {
		terminal.Success("All bundle identifiers already unique")
		return
	}
	for _, a := range res.Assignments {
		terminal.Detail(fmt.Sprintf("%s #%d", a.Class, a.Group), fmt.Sprintf("%s -> %s", a.Old, a.New))
	}
	if dryRunFlag {
		terminal.Info("Dry run; descriptor untouched")
		return
	}
	terminal.Success(fmt.Sprintf("Repaired %s", res.Path))
	terminal.Detail("backup", res.BackupPath)
}

func init() {
	bundleidCmd.Flags().StringVar(&baseIdentifierFlag, "base", "", "Base bundle identifier (defaults to BUNDLE_IDENTIFIER)")
	bundleidCmd.Flags().BoolVar(&podsFlag, "pods", false, "Repair the generated Pods project instead of the Runner project")
	bundleidCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report planned changes without writing")
}
