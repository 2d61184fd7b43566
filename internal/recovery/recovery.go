// Package recovery restores a corrupted Xcode project descriptor: try
// backups in order, fall back to regenerating the native project, then
// re-apply safe settings and reinstall dependencies.
package recovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moasq/podmedic/internal/backup"
	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/pbxproj"
	"github.com/moasq/podmedic/internal/podfile"
	"github.com/moasq/podmedic/internal/runner"
)

// Step names, in pipeline order.
const (
	StepCheck       = "check"
	StepRestore     = "restore-from-backup"
	StepRegenerate  = "regenerate"
	StepSettings    = "apply-safe-settings"
	StepReinstall   = "reinstall-dependencies"
	StepFinalVerify = "final-validate"
)

// StepResult reports one completed pipeline step.
type StepResult struct {
	Name   string
	Status string // "ok", "skipped", "failed"
	Detail string
}

// Result is the full recovery outcome.
type Result struct {
	Steps     []StepResult
	Recovered bool // false when the descriptor was already valid
}

// Opts configure a recovery run.
type Opts struct {
	// ProjectRoot is the Flutter project root; IOSDir its ios/ subdir.
	ProjectRoot string
	IOSDir      string

	// PbxprojPath is the descriptor under repair.
	PbxprojPath string

	// BaseIdentifier is applied during the safe-settings step. Empty skips
	// the identifier repair.
	BaseIdentifier string

	// BackupSuffixes are tried after podmedic's own timestamped backups.
	BackupSuffixes []string

	// Template parameterizes the dependency reinstall.
	Template podfile.TemplateOpts

	// Classify overrides the test-target heuristic.
	Classify pbxproj.Classifier
}

// Run executes the recovery pipeline. Any irrecoverable step failure
// returns an error; the partial step list is still populated.
func Run(ctx context.Context, r runner.Runner, opts Opts) (*Result, error) {
	log := logging.Get("recovery")
	res := &Result{}

	record := func(name, status, detail string) {
		res.Steps = append(res.Steps, StepResult{Name: name, Status: status, Detail: detail})
		ev := log.Info()
		if status == "failed" {
			ev = log.Error()
		}
		ev.Str("step", name).Str("status", status).Msg(detail)
	}

	// CHECK: a structurally valid descriptor needs no recovery.
	if err := validateDescriptor(ctx, r, opts.PbxprojPath); err == nil {
		record(StepCheck, "ok", "descriptor already valid")
		return res, nil
	} else {
		record(StepCheck, "failed", fmt.Sprintf("descriptor invalid: %v", err))
	}

	// RESTORE_FROM_BACKUP: candidates newest-first, each validated before
	// acceptance.
	restored := false
	for _, candidate := range restoreCandidates(opts.PbxprojPath, opts.BackupSuffixes) {
		if err := validateDescriptor(ctx, r, candidate); err != nil {
			log.Debug().Str("candidate", candidate).Err(err).Msg("backup candidate rejected")
			continue
		}
		// Preserve the corrupt descriptor before overwriting it.
		if _, err := os.Stat(opts.PbxprojPath); err == nil {
			if _, err := backup.Create(opts.PbxprojPath); err != nil {
				return res, fmt.Errorf("failed to preserve corrupt descriptor: %w", err)
			}
		}
		if err := backup.Restore(candidate, opts.PbxprojPath); err != nil {
			return res, err
		}
		record(StepRestore, "ok", "restored from "+filepath.Base(candidate))
		restored = true
		break
	}

	if !restored {
		record(StepRestore, "failed", "no valid backup candidate")

		// REGENERATE: scaffold a fresh native project.
		if err := regenerate(ctx, r, opts); err != nil {
			record(StepRegenerate, "failed", err.Error())
			return res, err
		}
		record(StepRegenerate, "ok", "regenerated ios project via flutter create")

		// APPLY_SAFE_SETTINGS: unique identifiers on the fresh descriptor.
		if opts.BaseIdentifier != "" {
			_, err := pbxproj.RepairFile(opts.PbxprojPath, pbxproj.Options{
				BaseIdentifier: opts.BaseIdentifier,
				Classify:       opts.Classify,
			}, false)
			if err != nil {
				record(StepSettings, "failed", err.Error())
				return res, err
			}
			record(StepSettings, "ok", "applied "+opts.BaseIdentifier)
		} else {
			record(StepSettings, "skipped", "no base identifier configured")
		}

		// REINSTALL_DEPENDENCIES.
		if _, err := podfile.Reset(ctx, r, podfile.ResetOpts{
			IOSDir:   opts.IOSDir,
			Template: opts.Template,
		}); err != nil {
			record(StepReinstall, "failed", err.Error())
			return res, err
		}
		record(StepReinstall, "ok", "dependencies reinstalled")
	}

	// FINAL_VALIDATE.
	if err := validateDescriptor(ctx, r, opts.PbxprojPath); err != nil {
		record(StepFinalVerify, "failed", err.Error())
		return res, fmt.Errorf("descriptor still invalid after recovery: %w", err)
	}
	record(StepFinalVerify, "ok", "descriptor valid")
	res.Recovered = true
	return res, nil
}

// validateDescriptor checks structural validity: the file exists, plutil
// accepts the old-style plist syntax, and the block parser can walk it.
func validateDescriptor(ctx context.Context, r runner.Runner, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("descriptor not readable: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("descriptor is empty")
	}

	res, err := r.Run(ctx, "", "plutil", "-lint", path)
	if err != nil {
		return fmt.Errorf("failed to run plutil: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("plutil rejected %s: %s", path, res.Output())
	}

	if _, err := pbxproj.Parse(data); err != nil {
		return fmt.Errorf("descriptor does not parse: %w", err)
	}
	return nil
}

// restoreCandidates lists backup files in preference order: podmedic's
// own timestamped backups newest-first, then the conventional suffixes.
func restoreCandidates(path string, suffixes []string) []string {
	candidates := backup.List(path)
	for _, suffix := range suffixes {
		candidate := path + suffix
		if _, err := os.Stat(candidate); err == nil {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// regenerate deletes the broken project and scaffolds a fresh one.
func regenerate(ctx context.Context, r runner.Runner, opts Opts) error {
	xcodeproj := filepath.Dir(opts.PbxprojPath)
	if filepath.Ext(xcodeproj) == ".xcodeproj" {
		if err := os.RemoveAll(xcodeproj); err != nil {
			return fmt.Errorf("failed to remove %s: %w", xcodeproj, err)
		}
	}

	res, err := r.Run(ctx, opts.ProjectRoot, "flutter", "create", "--platforms=ios", ".")
	if err != nil {
		return fmt.Errorf("failed to run flutter: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("flutter create failed: %s", res.Output())
	}

	if _, err := os.Stat(opts.PbxprojPath); err != nil {
		return fmt.Errorf("descriptor missing after regeneration: %w", err)
	}
	return nil
}
