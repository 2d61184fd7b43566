package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/moasq/podmedic/internal/plist"
	"github.com/moasq/podmedic/internal/runner"
)

// plistValidator fakes plutil around a real temp file: lint passes, and
// only the scripted keys extract a value.
func plistValidator(t *testing.T, present map[string]string) (*plist.Validator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Info.plist")
	if err := os.WriteFile(path, []byte("<plist/>"), 0o644); err != nil {
		t.Fatalf("failed to write plist: %v", err)
	}

	fake := runner.NewFake()
	fake.Respond("plutil -lint", runner.Result{Stdout: path + ": OK"})
	fake.Respond("plutil -extract", runner.Result{ExitCode: 1})
	for key, value := range present {
		fake.Respond("plutil -extract "+key, runner.Result{Stdout: value + "\n"})
	}
	return plist.New(fake), path
}

func TestValidatePlistFailsOnMissingKeys(t *testing.T) {
	v, path := plistValidator(t, map[string]string{
		"CFBundleIdentifier": "com.x.app",
	})
	v.Keys = []string{"CFBundleIdentifier", "CFBundleVersion"}

	if err := validatePlist(context.Background(), v, path); err == nil {
		t.Fatal("validatePlist should fail when required keys are missing")
	}
}

func TestValidatePlistPassesWhenComplete(t *testing.T) {
	v, path := plistValidator(t, map[string]string{
		"CFBundleIdentifier": "com.x.app",
		"CFBundleVersion":    "1",
	})
	v.Keys = []string{"CFBundleIdentifier", "CFBundleVersion"}

	if err := validatePlist(context.Background(), v, path); err != nil {
		t.Fatalf("validatePlist on complete plist: %v", err)
	}
}
