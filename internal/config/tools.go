package config

import (
	"context"
	"strings"

	"github.com/moasq/podmedic/internal/runner"
)

// ToolStatus reports which external collaborators are on PATH.
type ToolStatus struct {
	HasPod        bool
	HasXcodebuild bool
	HasPlutil     bool
	HasFlutter    bool
	PodVersion    string
	XcodeVersion  string
}

// CheckTools probes each external tool once.
func CheckTools(ctx context.Context, r runner.Runner) ToolStatus {
	var st ToolStatus

	if _, err := r.LookPath("pod"); err == nil {
		st.HasPod = true
		if res, err := r.Run(ctx, "", "pod", "--version"); err == nil && res.OK() {
			st.PodVersion = strings.TrimSpace(res.Stdout)
		}
	}
	if _, err := r.LookPath("xcodebuild"); err == nil {
		st.HasXcodebuild = true
		if res, err := r.Run(ctx, "", "xcodebuild", "-version"); err == nil && res.OK() {
			st.XcodeVersion = firstLineVersion(res.Stdout)
		}
	}
	if _, err := r.LookPath("plutil"); err == nil {
		st.HasPlutil = true
	}
	if _, err := r.LookPath("flutter"); err == nil {
		st.HasFlutter = true
	}
	return st
}

// firstLineVersion extracts "16.2" from "Xcode 16.2\nBuild version 16C5032a".
func firstLineVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
