// Package update performs a best-effort check against the GitHub releases
// API. Failures are swallowed; an update hint must never break a repair run.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moasq/podmedic/internal/toolchain"
)

// Repository coordinates for released builds.
const (
	Owner = "moasq"
	Repo  = "podmedic"
)

// Result holds the outcome of an update check.
type Result struct {
	Latest    string // latest version tag (e.g. "0.2.0")
	Current   string // current running version
	UpdateURL string // URL to the release page
}

// NeedsUpdate reports whether the latest release is newer than current.
func (r *Result) NeedsUpdate() bool {
	return r != nil && toolchain.CompareVersions(r.Latest, r.Current) > 0
}

// ghRelease is the minimal GitHub release JSON we care about.
type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check queries GitHub for the latest podmedic release and compares it with
// the running version. It returns nil on any error (network failure, bad
// JSON, dev builds) so callers can ignore the check unconditionally.
func Check(currentVersion string) *Result {
	if currentVersion == "" || currentVersion == "dev" {
		return nil
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", Owner, Repo)
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil
	}

	return &Result{
		Latest:    strings.TrimPrefix(rel.TagName, "v"),
		Current:   strings.TrimPrefix(currentVersion, "v"),
		UpdateURL: rel.HTMLURL,
	}
}
