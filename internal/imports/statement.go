package imports

// Statement is one import statement found in a Python source file.
// The set of shapes is closed: PlainImport, FromImport and WildcardImport.
type Statement interface {
	isStatement()
}

// PlainImport is `import a.b, c as d`. Names holds the dotted module names, aliases dropped.
type PlainImport struct {
	Names []string
	Line  int
}

// FromImport is `from x import y, z`.
// Module is empty for `from . import y`; Level counts the leading dots.
type FromImport struct {
	Module string
	Level  int
	Names  []string
	Line   int
}

// WildcardImport is `from x import *`.
type WildcardImport struct {
	Module string
	Level  int
	Line   int
}

func (PlainImport) isStatement()    {}
func (FromImport) isStatement()     {}
func (WildcardImport) isStatement() {}

// TopLevelNames collects the top-level module names contributed by stmts.
//
// For a relative import without a module (`from . import a, b`) each imported
// name is treated as a top-level name. This is a heuristic: in a multi-module
// project `a` is usually a sibling module rather than an installed package.
func TopLevelNames(stmts []Statement) NameSet {
	names := make(NameSet)
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case PlainImport:
			for _, name := range s.Names {
				names.Add(topLevel(name))
			}
		case FromImport:
			if s.Module != "" {
				names.Add(topLevel(s.Module))
				continue
			}
			for _, name := range s.Names {
				names.Add(topLevel(name))
			}
		case WildcardImport:
			// `from . import *` names nothing we could report.
			names.Add(topLevel(s.Module))
		}
	}
	return names
}
