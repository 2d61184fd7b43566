package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/pbxproj"
	"github.com/moasq/podmedic/internal/podfile"
	"github.com/moasq/podmedic/internal/recovery"
	"github.com/moasq/podmedic/internal/runner"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
)

var recoverBaseFlag string

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Recover a missing or corrupt project descriptor",
	Long:  "Validates the project.pbxproj and, when it is missing or corrupt, restores the newest valid backup. With no usable backup, regenerates the iOS platform directory with flutter create, reapplies safe settings and the base bundle identifier, and reinstalls dependencies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		base := recoverBaseFlag
		if base == "" {
			base = cfg.BaseIdentifier
		}

		res, err := recovery.Run(cmd.Context(), runner.New(), recovery.Opts{
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
		recordRun(cfg, storage.RunRecord{
			Component: "recover",
			Action:    "recover",
			Result:    resultString(err),
		})

		if res != nil {
			rep := terminal.NewStepReporter(len(res.Steps))
			for _, s := range res.Steps {
				rep.Begin(s.Name)
				detail := s.Detail
				if detail == "" {
					detail = s.Status
				}
				switch s.Status {
				case "ok":
					rep.Done(detail)
				case "skipped":
					rep.Skip(detail)
				default:
					rep.Fail(detail)
				}
			}
		}
		if err != nil {
			return err
		}

		if res.Recovered {
			terminal.Success("Project descriptor recovered and validated")
		} else {
			terminal.Success("Project descriptor already valid")
		}
		return nil
	},
}

func init() {
	recoverCmd.Flags().StringVar(&recoverBaseFlag, "base", "", "Base bundle identifier reapplied after regeneration (defaults to BUNDLE_IDENTIFIER)")
}
