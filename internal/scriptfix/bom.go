// Package scriptfix repairs plain-text script files: byte-order marks,
// missing or malformed shebang lines, and CRLF line endings.
package scriptfix

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moasq/podmedic/internal/backup"
	"github.com/moasq/podmedic/internal/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultShebang is inserted when a script has no shebang at all.
const DefaultShebang = "#!/bin/sh"

// FileResult reports the repairs applied to one file.
type FileResult struct {
	Path       string
	Fixes      []string // "bom", "shebang", "crlf"
	BackupPath string   // empty when the file was already clean
}

// Clean reports whether nothing needed fixing.
func (r *FileResult) Clean() bool {
	return len(r.Fixes) == 0
}

// Repair returns the cleaned content and the list of applied fixes.
// It is pure; file IO lives in FixFile.
func Repair(data []byte) ([]byte, []string) {
	var fixes []string

	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
		fixes = append(fixes, "bom")
	}

	if bytes.Contains(data, []byte("\r\n")) {
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
		fixes = append(fixes, "crlf")
	}

	if fixed, changed := repairShebang(data); changed {
		data = fixed
		fixes = append(fixes, "shebang")
	}

	return data, fixes
}

// repairShebang normalizes the first line. A missing shebang gets the
// default; "#! /bin/sh"-style interpreter spacing is collapsed.
func repairShebang(data []byte) ([]byte, bool) {
	line, rest, hasNL := bytes.Cut(data, []byte("\n"))

	if !bytes.HasPrefix(line, []byte("#!")) {
		out := append([]byte(DefaultShebang+"\n"), data...)
		return out, true
	}

	interp := strings.TrimSpace(string(line[2:]))
	if interp == "" || !strings.HasPrefix(interp, "/") {
		// Unrecoverable interpreter path; fall back to the default.
		interp = strings.TrimPrefix(DefaultShebang, "#!")
	}
	fixedLine := "#!" + interp

	if fixedLine == string(line) {
		return data, false
	}

	out := []byte(fixedLine)
	if hasNL {
		out = append(out, '\n')
		out = append(out, rest...)
	}
	return out, true
}

// FixFile repairs a single script in place, backing it up first.
func FixFile(path string) (*FileResult, error) {
	log := logging.Get("scriptfix")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script not found at %s: %w", path, err)
	}

	fixed, fixes := Repair(data)
	res := &FileResult{Path: path, Fixes: fixes}
	if res.Clean() {
		return res, nil
	}

	bak, err := backup.Create(path)
	if err != nil {
		return nil, err
	}
	res.BackupPath = bak

	perm := os.FileMode(0o755)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, fixed, perm); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Info().Str("path", path).Strs("fixes", fixes).Msg("repaired script")
	return res, nil
}

// FixDir repairs every *.sh file under root.
func FixDir(root string) ([]*FileResult, error) {
	var results []*FileResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sh") {
			return nil
		}
		res, err := FixFile(path)
		if err != nil {
			return err
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return results, nil
}
