package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/scriptfix"
	"github.com/moasq/podmedic/internal/storage"
	"github.com/moasq/podmedic/internal/terminal"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts [path]",
	Short: "Fix BOMs, shebangs and CRLF endings in build scripts",
	Long:  "Strips UTF-8 byte-order marks, normalizes shebang lines and converts CRLF endings in the project's *.sh scripts. Pass a path to fix a single script; otherwise the whole project is scanned. Changed scripts are backed up first.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var results []*scriptfix.FileResult
		var fixErr error
		if len(args) == 1 {
			res, err := scriptfix.FixFile(args[0])
			if res != nil {
				results = append(results, res)
			}
			fixErr = err
		} else {
			results, fixErr = scriptfix.FixDir(cfg.ProjectRoot)
		}

		var backups []string
		for _, res := range results {
			if res.BackupPath != "" {
				backups = append(backups, res.BackupPath)
			}
		}
		recordRun(cfg, storage.RunRecord{
			Component: "scripts",
			Action:    "fix",
			Result:    resultString(fixErr),
			Backups:   backups,
		})
		if fixErr != nil {
			return fixErr
		}

		fixed := 0
		for _, res := range results {
			if res.Clean() {
				continue
			}
			fixed++
			terminal.Detail(res.Path, strings.Join(res.Fixes, ", "))
		}
		if fixed == 0 {
			terminal.Success(fmt.Sprintf("Scanned %d script(s); all clean", len(results)))
		} else {
			terminal.Success(fmt.Sprintf("Fixed %d of %d script(s)", fixed, len(results)))
		}
		return nil
	},
}
