package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/terminal"
)

var historyClearFlag bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded repair runs for this project",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := historyStore(cfg)

		if historyClearFlag {
			if err := store.Clear(); err != nil {
				return err
			}
			terminal.Success("History cleared")
			return nil
		}

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			terminal.Info("No repairs recorded yet")
			return nil
		}
		for _, rec := range records {
			line := fmt.Sprintf("%s %s (%s)", rec.Component, rec.Action, rec.Result)
			if rec.BuildID != "" {
				line += " build " + rec.BuildID
			}
			terminal.Detail(rec.Time.Format("2006-01-02 15:04:05"), line)
			if len(rec.Backups) > 0 {
				terminal.Detail("  backups", strings.Join(rec.Backups, ", "))
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete the recorded history")
}
