package terminal

import (
	"fmt"
	"io"
	"os"
)

// StepReporter prints numbered pipeline steps, one line per step, so
// operators can see exactly how far a run got before any failure.
type StepReporter struct {
	w     io.Writer
	total int
	n     int
}

// NewStepReporter creates a reporter for a pipeline with total steps.
func NewStepReporter(total int) *StepReporter {
	return &StepReporter{w: os.Stdout, total: total}
}

// Begin announces the next step and returns its number.
func (r *StepReporter) Begin(label string) int {
	r.n++
	fmt.Fprintf(r.w, "  %s[%d/%d]%s %s\n", Cyan, r.n, r.total, Reset, label)
	return r.n
}

// Done marks the current step as completed.
func (r *StepReporter) Done(label string) {
	fmt.Fprintf(r.w, "  %s      ✓%s %s\n", Green, Reset, label)
}

// Skip marks the current step as skipped with a reason.
func (r *StepReporter) Skip(reason string) {
	fmt.Fprintf(r.w, "  %s      –%s %s\n", Dim, Reset, reason)
}

// Fail marks the current step as failed.
func (r *StepReporter) Fail(label string) {
	fmt.Fprintf(r.w, "  %s      ✗%s %s\n", Red, Reset, label)
}
