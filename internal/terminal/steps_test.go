package terminal

import (
	"strings"
	"testing"
)

func TestStepReporterNumbersSteps(t *testing.T) {
	DisableColors()
	var buf strings.Builder
	r := NewStepReporter(3)
	r.w = &buf

	r.Begin("check descriptor")
	r.Done("descriptor valid")
	r.Begin("restore backup")
	r.Skip("no backup found")
	r.Begin("regenerate")
	r.Fail("flutter create failed")

	out := buf.String()
	for _, want := range []string{"[1/3] check descriptor", "[2/3] restore backup", "[3/3] regenerate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, want := range []string{"✓ descriptor valid", "– no backup found", "✗ flutter create failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStepReporterReturnsOrdinal(t *testing.T) {
	var buf strings.Builder
	r := NewStepReporter(2)
	r.w = &buf
	if n := r.Begin("first"); n != 1 {
		t.Errorf("Begin() = %d, want 1", n)
	}
	if n := r.Begin("second"); n != 2 {
		t.Errorf("Begin() = %d, want 2", n)
	}
}
