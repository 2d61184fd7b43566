package podfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moasq/podmedic/internal/backup"
	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/runner"
)

// ResetOpts configure a dependency-environment reset.
type ResetOpts struct {
	// IOSDir is the ios/ directory containing the Podfile.
	IOSDir string

	Template TemplateOpts

	// SkipInstall stops after the Podfile rewrite, leaving installation to
	// the pipeline.
	SkipInstall bool

	// CleanCaches also wipes the per-user CocoaPods cache.
	CleanCaches bool
}

// ResetResult reports what the reset did.
type ResetResult struct {
	Removed        []string
	PodfileBackup  string // empty when no Podfile existed yet
	Strategy       string // name of the install strategy that succeeded
	InstallSkipped bool
}

// installStrategy is one attempt mode for pod install. Strategies run in
// order; the first success short-circuits.
type installStrategy struct {
	name     string
	commands [][]string
}

func installStrategies() []installStrategy {
	return []installStrategy{
		{
			name: "standard",
			commands: [][]string{
				{"pod", "install"},
			},
		},
		{
			name: "clean-cache",
			commands: [][]string{
				{"pod", "cache", "clean", "--all"},
				{"pod", "repo", "update"},
				{"pod", "install", "--repo-update"},
			},
		},
	}
}

// Reset wipes generated dependency state, writes the known-good Podfile,
// and reinstalls pods.
func Reset(ctx context.Context, r runner.Runner, opts ResetOpts) (*ResetResult, error) {
	log := logging.Get("pods")

	if _, err := os.Stat(opts.IOSDir); err != nil {
		return nil, fmt.Errorf("ios directory not found at %s: %w", opts.IOSDir, err)
	}

	res := &ResetResult{}

	// Generated artifacts are recreated by pod install; remove them outright.
	for _, rel := range []string{"Podfile.lock", "Pods", ".symlinks"} {
		path := filepath.Join(opts.IOSDir, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		res.Removed = append(res.Removed, rel)
		log.Info().Str("path", path).Msg("removed generated artifact")
	}

	if opts.CleanCaches {
		if cache, err := podCacheDir(); err == nil {
			if err := os.RemoveAll(cache); err == nil {
				res.Removed = append(res.Removed, cache)
				log.Info().Str("path", cache).Msg("removed CocoaPods cache")
			}
		}
	}

	// The Podfile itself is hand-maintained state: back it up before the
	// template overwrite.
	podfilePath := filepath.Join(opts.IOSDir, "Podfile")
	if _, err := os.Stat(podfilePath); err == nil {
		bak, err := backup.Create(podfilePath)
		if err != nil {
			return nil, err
		}
		res.PodfileBackup = bak
		log.Info().Str("backup", bak).Msg("backed up Podfile")
	}
	if err := os.WriteFile(podfilePath, []byte(Generate(opts.Template)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Podfile: %w", err)
	}
	log.Info().Str("path", podfilePath).Msg("wrote known-good Podfile")

	if opts.SkipInstall {
		res.InstallSkipped = true
		return res, nil
	}

	strategy, err := install(ctx, r, opts.IOSDir)
	if err != nil {
		return res, err
	}
	res.Strategy = strategy
	return res, nil
}

// install tries each strategy in order and returns the first that succeeds.
func install(ctx context.Context, r runner.Runner, dir string) (string, error) {
	log := logging.Get("pods")

	var lastOutput string
	for _, s := range installStrategies() {
		log.Info().Str("strategy", s.name).Msg("attempting pod install")

		ok := true
		for _, cmd := range s.commands {
			res, err := r.Run(ctx, dir, cmd[0], cmd[1:]...)
			if err != nil {
				return "", fmt.Errorf("failed to run %s: %w", cmd[0], err)
			}
			if !res.OK() {
				lastOutput = res.Output()
				log.Warn().
					Str("strategy", s.name).
					Int("exit", res.ExitCode).
					Msg("install step failed")
				ok = false
				break
			}
		}
		if ok {
			log.Info().Str("strategy", s.name).Msg("pod install succeeded")
			return s.name, nil
		}
	}

	return "", fmt.Errorf("pod install failed with every strategy: %s", lastOutput)
}

func podCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Caches", "CocoaPods"), nil
}
