package scanner

import (
	"os"
	"path/filepath"
)

// localSuffixes are the file forms a module name may take inside a project.
var localSuffixes = []string{".py", ".pyw", ".pyi", ".pyd", ".so"}

// localResolver decides whether an imported name refers to code inside the
// project rather than an installed package. Lookups are memoized per
// directory/name pair; a resolver is used by one goroutine at a time.
type localResolver struct {
	root string
	seen map[string]bool
}

func newLocalResolver(root string) *localResolver {
	return &localResolver{root: root, seen: make(map[string]bool)}
}

// IsLocal reports whether name resolves next to the importing file or at the
// project root, as a module file or a package directory.
func (r *localResolver) IsLocal(name, fromDir string) bool {
	if r.exists(fromDir, name) {
		return true
	}
	return fromDir != r.root && r.exists(r.root, name)
}

func (r *localResolver) exists(dir, name string) bool {
	key := filepath.Join(dir, name)
	if found, ok := r.seen[key]; ok {
		return found
	}

	found := false
	if info, err := os.Stat(key); err == nil && info.IsDir() {
		found = true
	} else {
		for _, suffix := range localSuffixes {
			if _, err := os.Stat(key + suffix); err == nil {
				found = true
				break
			}
		}
	}

	r.seen[key] = found
	return found
}
