package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/podfile"
	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
)

var (
	skipInstallFlag bool
	cleanCachesFlag bool
)

var podsCmd = &cobra.Command{
	Use:   "pods",
	Short: "Reset the CocoaPods environment and reinstall",
	Long:  "Removes Podfile.lock, Pods/ and .symlinks/, regenerates the Podfile from the known-good template, then runs pod install. If the plain install fails, retries after cleaning the pod caches and updating the spec repo. The previous Podfile is backed up first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		spin := terminal.NewSpinner("Resetting CocoaPods environment")
		spin.Start()
		res, err := podfile.Reset(cmd.Context(), runner.New(), podfile.ResetOpts{
			IOSDir: cfg.IOSDir,
			Template: podfile.TemplateOpts{
				PlatformVersion: cfg.Policy.PlatformVersion,
				DisableFirebase: cfg.DisableFirebase,
			},
			SkipInstall: skipInstallFlag,
			CleanCaches: cleanCachesFlag,
		})
		spin.Stop()

		var backups []string
		if res != nil && res.PodfileBackup != "" {
			backups = []string{res.PodfileBackup}
		}
		recordRun(cfg, storage.RunRecord{
			Component: "pods",
			Action:    "reset",
			Result:    resultString(err),
			Backups:   backups,
		})
		if err != nil {
			return err
		}

		terminal.Success("Pods environment reset")
		if len(res.Removed) > 0 {
			terminal.Detail("removed", strings.Join(res.Removed, ", "))
		}
		if res.PodfileBackup != "" {
			terminal.Detail("podfile backup", res.PodfileBackup)
		}
		if res.InstallSkipped {
			terminal.Info("Install skipped; run pod install from your pipeline")
		} else {
			terminal.Detail("install strategy", res.Strategy)
		}
		return nil
	},
}

func init() {
	podsCmd.Flags().BoolVar(&skipInstallFlag, "skip-install", false, "Rewrite the Podfile but leave pod install to the pipeline")
	podsCmd.Flags().BoolVar(&cleanCachesFlag, "clean-caches", false, "Also wipe the per-user CocoaPods cache")
}
