package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
	"github.com/moasq/podmedic/internal/toolchain"
)

var deploymentTargetFlag string

var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Verify Xcode, iOS SDK and CocoaPods versions",
	Long:  "Checks the installed Xcode and iOS SDK against the fatal version floors, and the deployment target and CocoaPods version against the advisory recommendations. XCODE_VERSION skips the xcodebuild query in pinned pipelines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		report, err := toolchain.Verify(cmd.Context(), runner.New(), toolchain.Opts{
			XcodeVersionOverride:        cfg.XcodeVersionOverride,
			MinXcodeMajor:               cfg.Policy.MinXcodeMajor,
			MinSDKMajor:                 cfg.Policy.MinSDKMajor,
			RecommendedDeploymentTarget: cfg.Policy.RecommendedDeploymentTarget,
			RecommendedPodsVersion:      cfg.Policy.RecommendedPodsVersion,
			DeploymentTarget:            deploymentTargetFlag,
		})
		recordRun(cfg, storage.RunRecord{
			Component: "toolchain",
			Action:    "verify",
			Result:    resultString(err),
		})
		if err != nil {
			return err
		}

		for _, c := range report.Checks {
			switch c.Severity {
			case toolchain.Fatal:
				terminal.Error(fmt.Sprintf("%s: %s", c.Name, c.Message))
			case toolchain.Advisory:
				terminal.Warning(fmt.Sprintf("%s: %s", c.Name, c.Message))
			default:
				terminal.Success(fmt.Sprintf("%s %s", c.Name, c.Value))
			}
		}

		if !report.Passed() {
			return fmt.Errorf("toolchain verification failed")
		}
		return nil
	},
}

func init() {
	toolchainCmd.Flags().StringVar(&deploymentTargetFlag, "deployment-target", "", "Project iOS deployment target to check against the recommendation")
}
