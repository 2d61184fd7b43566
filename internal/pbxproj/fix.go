package pbxproj

import (
	"fmt"
	"os"

	"github.com/moasq/podmedic/internal/backup"
	"github.com/moasq/podmedic/internal/logging"
)

// FileResult summarizes a file-level repair.
type FileResult struct {
	Path        string
	Assignments []Assignment
	Changed     bool
	BackupPath  string // empty when nothing was written
}

// RepairFile runs the collision repair against the descriptor at path.
// A timestamped backup is written before mutation; an unchanged file is
// never rewritten or backed up. With dryRun the planned assignments are
// returned without touching the file.
func RepairFile(path string, opts Options, dryRun bool) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project descriptor: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	assignments, err := Repair(doc, opts)
	if err != nil {
		return nil, err
	}

	return writeRepaired(path, doc, assignments, dryRun)
}

// RepairPodsFile runs the placeholder-identifier repair against a Pods
// project descriptor at path.
func RepairPodsFile(path string, placeholderPrefixes []string, dryRun bool) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pods descriptor: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	assignments, err := RepairPods(doc, placeholderPrefixes)
	if err != nil {
		return nil, err
	}

	return writeRepaired(path, doc, assignments, dryRun)
}

func writeRepaired(path string, doc *Document, assignments []Assignment, dryRun bool) (*FileResult, error) {
	log := logging.Get("pbxproj")
	res := &FileResult{
		Path:        path,
		Assignments: assignments,
		Changed:     doc.Changed(),
	}

	for _, a := range assignments {
		log.Debug().
			Str("class", a.Class.String()).
			Str("old", a.Old).
			Str("new", a.New).
			Msg("identifier assignment")
	}

	if dryRun || !res.Changed {
		return res, nil
	}

	bak, err := backup.Create(path)
	if err != nil {
		return nil, err
	}
	res.BackupPath = bak
	log.Info().Str("backup", bak).Msg("backed up descriptor")

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, doc.Serialize(), perm); err != nil {
		return nil, fmt.Errorf("failed to write repaired descriptor: %w", err)
	}

	return res, nil
}
