package podfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moasq/podmedic/internal/runner"
)

func TestGenerateIncludesFloorAndHook(t *testing.T) {
	got := Generate(TemplateOpts{PlatformVersion: "14.0"})

	checks := []string{
		"platform :ios, '14.0'",
		"config.build_settings['IPHONEOS_DEPLOYMENT_TARGET'] = '14.0'",
		"config.build_settings['CODE_SIGNING_ALLOWED'] = 'NO'",
		"target.name.start_with?('Firebase')",
		"flutter_install_all_ios_pods",
		"post_install do |installer|",
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("Podfile missing %q", want)
		}
	}
}

func TestGenerateDisableFirebase(t *testing.T) {
	got := Generate(TemplateOpts{DisableFirebase: true})
	if strings.Contains(got, "Firebase") {
		t.Error("Firebase relaxations present despite disable flag")
	}
	if !strings.Contains(got, "platform :ios, '13.0'") {
		t.Error("empty platform version should default to 13.0")
	}
}

func iosDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "ios")
	if err := os.MkdirAll(filepath.Join(dir, "Pods"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, f := range []string{"Podfile", "Podfile.lock"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("old"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func TestResetWipesAndRewrites(t *testing.T) {
	dir := iosDir(t)
	fake := runner.NewFake()

	res, err := Reset(context.Background(), fake, ResetOpts{IOSDir: dir})
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "Podfile.lock")); !os.IsNotExist(err) {
		t.Error("Podfile.lock not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "Pods")); !os.IsNotExist(err) {
		t.Error("Pods directory not removed")
	}

	podfile, err := os.ReadFile(filepath.Join(dir, "Podfile"))
	if err != nil {
		t.Fatalf("read Podfile: %v", err)
	}
	if !strings.Contains(string(podfile), "flutter_ios_podfile_setup") {
		t.Error("Podfile not rewritten from template")
	}

	if res.PodfileBackup == "" {
		t.Fatal("existing Podfile not backed up")
	}
	if bak, _ := os.ReadFile(res.PodfileBackup); string(bak) != "old" {
		t.Errorf("backup content = %q, want pre-mutation bytes", bak)
	}

	if res.Strategy != "standard" {
		t.Errorf("Strategy = %q, want standard", res.Strategy)
	}
	lines := fake.CommandLines()
	if len(lines) != 1 || lines[0] != "pod install" {
		t.Errorf("commands = %v, want single pod install", lines)
	}
}

func TestResetFallsBackToCleanCacheStrategy(t *testing.T) {
	dir := iosDir(t)
	fake := runner.NewFake()
	// Plain install fails; the repo-update variant succeeds.
	fake.Respond("pod install", runner.Result{ExitCode: 1, Stderr: "could not find compatible versions"})
	fake.Respond("pod install --repo-update", runner.Result{})

	res, err := Reset(context.Background(), fake, ResetOpts{IOSDir: dir})
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if res.Strategy != "clean-cache" {
		t.Errorf("Strategy = %q, want clean-cache", res.Strategy)
	}

	lines := fake.CommandLines()
	want := []string{
		"pod install",
		"pod cache clean --all",
		"pod repo update",
		"pod install --repo-update",
	}
	if len(lines) != len(want) {
		t.Fatalf("commands = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestResetAllStrategiesFail(t *testing.T) {
	dir := iosDir(t)
	fake := runner.NewFake()
	fake.Respond("pod install", runner.Result{ExitCode: 1, Stderr: "boom"})

	if _, err := Reset(context.Background(), fake, ResetOpts{IOSDir: dir}); err == nil {
		t.Fatal("Reset() should fail when every strategy fails")
	}
}

func TestResetSkipInstall(t *testing.T) {
	dir := iosDir(t)
	fake := runner.NewFake()

	res, err := Reset(context.Background(), fake, ResetOpts{IOSDir: dir, SkipInstall: true})
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !res.InstallSkipped {
		t.Error("InstallSkipped not reported")
	}
	if len(fake.Calls) != 0 {
		t.Errorf("no commands expected, got %v", fake.CommandLines())
	}
}

func TestResetMissingIOSDirPrecondition(t *testing.T) {
	fake := runner.NewFake()
	_, err := Reset(context.Background(), fake, ResetOpts{IOSDir: filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("Reset() should fail on a missing ios directory")
	}
}
