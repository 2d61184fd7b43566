// Package plist validates and repairs Info.plist metadata through the
// plutil CLI. The property list itself is treated as a black box; podmedic
// only asserts the required-key invariant and inserts sensible defaults.
package plist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moasq/podmedic/internal/backup"
	"github.com/moasq/podmedic/internal/logging"
	"github.com/moasq/podmedic/internal/runner"
)

// ErrStillInvalid distinguishes a post-condition failure (fix applied but
// insufficient) from a missing-file precondition failure.
var ErrStillInvalid = errors.New("Info.plist still invalid after fix")

// RequiredKeys must be present with non-empty values before the artifact
// is publishable.
var RequiredKeys = []string{
	"CFBundleDisplayName",
	"CFBundleExecutable",
	"CFBundleIdentifier",
	"CFBundleName",
	"CFBundleShortVersionString",
	"CFBundleVersion",
	"UISupportedInterfaceOrientations",
	"UISupportedInterfaceOrientations~ipad",
}

// cardinalOrientations is the default four-entry orientation array used for
// both the phone and pad variants.
var cardinalOrientations = []string{
	"UIInterfaceOrientationPortrait",
	"UIInterfaceOrientationPortraitUpsideDown",
	"UIInterfaceOrientationLandscapeLeft",
	"UIInterfaceOrientationLandscapeRight",
}

// Params carry caller-supplied values for inserted keys. Empty fields fall
// back to literal defaults.
type Params struct {
	AppName     string
	BundleID    string
	Version     string
	BuildNumber string
}

// Validation is the outcome of a read-only check.
type Validation struct {
	Path    string
	Valid   bool
	Missing []string // required keys absent or empty
}

// FixResult reports what the fixer inserted.
type FixResult struct {
	Path       string
	Inserted   []string
	BackupPath string // empty when the file was already valid
}

// Validator checks and repairs plist files. Keys defaults to RequiredKeys.
type Validator struct {
	Runner runner.Runner
	Keys   []string
}

// New returns a Validator over the given runner.
func New(r runner.Runner) *Validator {
	return &Validator{Runner: r}
}

func (v *Validator) keys() []string {
	if len(v.Keys) > 0 {
		return v.Keys
	}
	return RequiredKeys
}

// Validate checks the file for structural validity and the required-key
// invariant. A missing file is a precondition error, not an invalid result.
func (v *Validator) Validate(ctx context.Context, path string) (*Validation, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("Info.plist not found at %s: %w", path, err)
	}

	lint, err := v.Runner.Run(ctx, "", "plutil", "-lint", path)
	if err != nil {
		return nil, fmt.Errorf("failed to run plutil: %w", err)
	}
	if !lint.OK() {
		return nil, fmt.Errorf("plutil lint failed for %s: %s", path, lint.Output())
	}

	val := &Validation{Path: path, Valid: true}
	for _, key := range v.keys() {
		present, err := v.hasValue(ctx, path, key)
		if err != nil {
			return nil, err
		}
		if !present {
			val.Missing = append(val.Missing, key)
		}
	}
	val.Valid = len(val.Missing) == 0
	return val, nil
}

// Fix inserts every missing required key, then re-validates. Failure to
// reach the valid state is reported as ErrStillInvalid.
func (v *Validator) Fix(ctx context.Context, path string, params Params) (*FixResult, error) {
	log := logging.Get("plist")

	val, err := v.Validate(ctx, path)
	if err != nil {
		return nil, err
	}

	res := &FixResult{Path: path}
	if val.Valid {
		log.Info().Str("path", path).Msg("Info.plist already valid")
		return res, nil
	}

	bak, err := backup.Create(path)
	if err != nil {
		return nil, err
	}
	res.BackupPath = bak
	log.Info().Str("backup", bak).Msg("backed up Info.plist")

	for _, key := range val.Missing {
		if err := v.insertDefault(ctx, path, key, params); err != nil {
			return res, err
		}
		res.Inserted = append(res.Inserted, key)
		log.Info().Str("key", key).Msg("inserted missing key")
	}

	recheck, err := v.Validate(ctx, path)
	if err != nil {
		return res, err
	}
	if !recheck.Valid {
		return res, fmt.Errorf("%w: still missing %s", ErrStillInvalid, strings.Join(recheck.Missing, ", "))
	}
	return res, nil
}

// hasValue reports whether key exists with a non-empty value.
func (v *Validator) hasValue(ctx context.Context, path, key string) (bool, error) {
	res, err := v.Runner.Run(ctx, "", "plutil", "-extract", key, "raw", "-o", "-", path)
	if err != nil {
		return false, fmt.Errorf("failed to run plutil: %w", err)
	}
	if !res.OK() {
		return false, nil
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// insertDefault writes the default value for key. plutil -insert fails on
// an existing key, so empty-valued keys are replaced instead.
func (v *Validator) insertDefault(ctx context.Context, path, key string, params Params) error {
	var args []string
	switch key {
	case "UISupportedInterfaceOrientations", "UISupportedInterfaceOrientations~ipad":
		args = []string{"-replace", key, "-json", orientationJSON()}
	default:
		args = []string{"-replace", key, "-string", defaultValue(key, params)}
	}
	args = append(args, path)

	res, err := v.Runner.Run(ctx, "", "plutil", args...)
	if err != nil {
		return fmt.Errorf("failed to run plutil: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("plutil %s %s failed: %s", args[0], key, res.Output())
	}
	return nil
}

// defaultValue picks the inserted value for a scalar key.
func defaultValue(key string, p Params) string {
	switch key {
	case "CFBundleDisplayName", "CFBundleName":
		if p.AppName != "" {
			return p.AppName
		}
		return "Runner"
	case "CFBundleExecutable":
		if p.AppName != "" {
			return p.AppName
		}
		return "Runner"
	case "CFBundleIdentifier":
		if p.BundleID != "" {
			return p.BundleID
		}
		return "com.example.app"
	case "CFBundleShortVersionString":
		if p.Version != "" {
			return p.Version
		}
		return "1.0.0"
	case "CFBundleVersion":
		if p.BuildNumber != "" {
			return p.BuildNumber
		}
		return "1"
	default:
		return ""
	}
}

func orientationJSON() string {
	return `["` + strings.Join(cardinalOrientations, `","`) + `"]`
}

// FindAll walks root for Info.plist files, skipping generated Pods and
// build output.
func FindAll(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "Pods", "build", "DerivedData", ".symlinks":
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "Info.plist" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return paths, nil
}
