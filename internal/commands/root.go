package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/terminal"
)

// Version is set at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "podmedic",
	Short:   "iOS build environment repair for Flutter CI pipelines",
	Long:    "Podmedic diagnoses and repairs the common ways a Flutter iOS build environment breaks in CI: CocoaPods state, duplicate bundle identifiers, Info.plist drift, toolchain mismatches, corrupt project descriptors, and mangled build scripts.",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var (
	projectFlag string
	verboseFlag int
	noColorFlag bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", ".", "Flutter project root containing the ios/ directory")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	cobra.OnInitialize(func() {
		logging.Setup(verboseFlag)
		if noColorFlag {
			terminal.DisableColors()
		}
	})

	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(bundleidCmd)
	rootCmd.AddCommand(plistCmd)
	rootCmd.AddCommand(podsCmd)
	rootCmd.AddCommand(toolchainCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
}
