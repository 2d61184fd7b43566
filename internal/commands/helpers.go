package commands

import (
	"path/filepath"

	"github.com/moasq/podmedic/internal/config"
	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/storage"
)

// loadConfig resolves configuration for the --project flag.
func loadConfig() (*config.Config, error) {
	return config.Load(projectFlag)
}

func historyStore(cfg *config.Config) *storage.HistoryStore {
	return storage.NewHistoryStore(filepath.Join(cfg.ProjectRoot, ".podmedic"))
}

// recordRun appends a history record. History is best effort; a write
// failure is logged and swallowed so it never masks the repair outcome.
func recordRun(cfg *config.Config, rec storage.RunRecord) {
	rec.BuildID = cfg.BuildID
	if err := historyStore(cfg).Append(rec); err != nil {
		log := logging.Get("history")
		log.Warn().Err(err).Msg("failed to record run")
	}
}

func resultString(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
