package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrScriptNotFound indicates the target script does not exist
	ErrScriptNotFound = errors.New("script not found")

	// ErrNotPythonScript indicates the target is not a .py/.pyw file
	ErrNotPythonScript = errors.New("not a python script")
)

// interpreterSkipDirs are never searched for interpreters.
var interpreterSkipDirs = map[string]bool{
	".git":          true,
	"__pycache__":   true,
	"node_modules":  true,
	"site-packages": true,
	".pydeps":       true,
}

// ValidateScript checks that path names an existing Python script.
func ValidateScript(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotPythonScript, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotPythonScript, path)
}

// FindInterpreters returns project-local Python interpreters under root, such as
// a virtualenv's python.exe or bin/python, sorted by path.
func FindInterpreters(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}

		if d.IsDir() {
			if path != root && interpreterSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if isInterpreter(path, d.Name()) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}

func isInterpreter(path, name string) bool {
	if strings.EqualFold(name, "python.exe") {
		return true
	}
	if name != "python" && name != "python3" {
		return false
	}
	parent := filepath.Base(filepath.Dir(path))
	return parent == "bin" || parent == "Scripts"
}
