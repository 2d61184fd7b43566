// Package backup creates timestamped sibling copies of files before any
// destructive mutation. Backups are never auto-deleted; the recovery
// procedure consults them newest-first.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// suffix pattern: <file>.podmedic-20060102T150405Z.bak
const (
	marker   = ".podmedic-"
	timeForm = "20060102T150405Z"
	ext      = ".bak"
)

// Create copies path to a timestamped sibling and returns the backup path.
// The source file's permissions are preserved.
func Create(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for backup: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dst := path + marker + time.Now().UTC().Format(timeForm) + ext
	// Avoid clobbering a backup taken within the same second.
	for i := 2; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = fmt.Sprintf("%s%s%s.%d%s", path, marker, time.Now().UTC().Format(timeForm), i, ext)
	}

	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", dst, err)
	}
	return dst, nil
}

// List returns existing podmedic backups of path, newest first.
func List(path string) []string {
	dir := filepath.Dir(path)
	base := filepath.Base(path) + marker

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, base) && strings.HasSuffix(name, ext) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}

	// Timestamps sort lexically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups
}

// Restore copies src over dst, keeping dst's permissions when it exists.
func Restore(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", src, err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(dst); err == nil {
		perm = info.Mode().Perm()
	}

	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("failed to restore %s from %s: %w", dst, src, err)
	}
	return nil
}
