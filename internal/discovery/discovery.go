// Package discovery finds the Python source files of a project.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// alwaysIgnored directories are never descended into, whatever the config says.
var alwaysIgnored = map[string]bool{
	".pydeps": true,
	".git":    true,
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// rootGlob matches the pattern with a leading "**/" removed, so "**/*.py"
	// also matches "main.py" at the root.
	rootGlob glob.Glob
}

// FileDiscovery handles file discovery with glob patterns and ignore rules.
type FileDiscovery struct {
	rootDir        string
	includePattern []compiledPattern
	ignorePatterns []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
// rootDir may be a directory or a single file.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	fd := &FileDiscovery{rootDir: abs}

	if fd.includePattern, err = compilePatterns(includePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}

	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if rg, err := glob.Compile(simplified, '/'); err == nil {
				cp.rootGlob = rg
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// RootDir returns the absolute root the discovery walks.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the root and returns the absolute paths of matching
// source files in lexical order. A file root is returned as-is.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	info, err := os.Stat(fd.rootDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{fd.rootDir}, nil
	}

	files := []string{}
	err = filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == fd.rootDir {
				return err
			}
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && fd.shouldIgnoreDir(relPath, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}

		if fd.Matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a slash-separated path relative to the root is
// selected by the include patterns and not ignored.
func (fd *FileDiscovery) Matches(relPath string) bool {
	return !fd.shouldIgnore(relPath) && matchesAnyPattern(relPath, fd.includePattern)
}

// IgnoresDir reports whether the directory at a slash-separated path relative
// to the root is skipped during discovery.
func (fd *FileDiscovery) IgnoresDir(relPath string) bool {
	return fd.shouldIgnoreDir(relPath, path.Base(relPath))
}

func (fd *FileDiscovery) shouldIgnoreDir(relPath, name string) bool {
	if alwaysIgnored[name] {
		return true
	}
	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns) ||
		matchesAnyPattern(relPath+"/", fd.ignorePatterns)
}

// shouldIgnore checks if a file path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if alwaysIgnored[part] {
			return true
		}
	}
	return matchesAnyPattern(relPath, fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if cp.rootGlob != nil && cp.rootGlob.Match(path) {
			return true
		}
	}
	return false
}
