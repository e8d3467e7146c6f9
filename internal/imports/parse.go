package imports

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Node kinds of the tree-sitter Python grammar that carry imports.
const (
	kindImport         = "import_statement"
	kindImportFrom     = "import_from_statement"
	kindFutureImport   = "future_import_statement"
	kindAliasedImport  = "aliased_import"
	kindRelativeImport = "relative_import"
	kindImportPrefix   = "import_prefix"
	kindDottedName     = "dotted_name"
	kindIdentifier     = "identifier"
	kindWildcardImport = "wildcard_import"
)

// Node kinds the grammar accepts but Python 3 rejects.
const (
	kindPrintStatement  = "print_statement"
	kindExecStatement   = "exec_statement"
	kindDeleteStatement = "delete_statement"
	kindInteger         = "integer"
)

// legacyInteger matches Python 2 integer literals: leading-zero octals such as
// 0777 and long literals such as 10L.
var legacyInteger = regexp.MustCompile(`^(?:0[0-9_]*[1-9][0-9_]*|[0-9][0-9a-fA-FxXoObB_]*[lL])$`)

const futureModule = "__future__"

var pythonLanguage = sitter.NewLanguage(python.Language())

// SyntaxError reports the first invalid construct in a source file.
// Line and Column are 1-indexed.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// ParseStatements parses Python source and returns every import statement in it,
// including imports nested in functions, classes and try blocks.
// Source with any syntax error yields a *SyntaxError and no statements.
func ParseStatements(source []byte) ([]Statement, error) {
	if i := bytes.IndexByte(source, 0); i >= 0 {
		line := bytes.Count(source[:i], []byte{'\n'}) + 1
		col := i - bytes.LastIndexByte(source[:i], '\n')
		return nil, &SyntaxError{Line: line, Column: col, Msg: "source contains null bytes"}
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return nil, fmt.Errorf("failed to load python grammar: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.New("parser returned no syntax tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstSyntaxError(root)
	}
	if synErr := firstLegacyConstruct(root, source); synErr != nil {
		return nil, synErr
	}

	var stmts []Statement
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case kindImport:
			stmts = append(stmts, plainImport(n, source))
			return false
		case kindImportFrom:
			stmts = append(stmts, fromImport(n, source))
			return false
		case kindFutureImport:
			stmts = append(stmts, FromImport{
				Module: futureModule,
				Names:  importedNames(n, source),
				Line:   lineOf(n),
			})
			return false
		}
		return true
	})

	return stmts, nil
}

func plainImport(n *sitter.Node, source []byte) PlainImport {
	return PlainImport{
		Names: importedNames(n, source),
		Line:  lineOf(n),
	}
}

func fromImport(n *sitter.Node, source []byte) Statement {
	var module string
	var level int

	if mod := n.ChildByFieldName("module_name"); mod != nil {
		if mod.Kind() == kindRelativeImport {
			module, level = relativeModule(mod, source)
		} else {
			module = dottedName(mod, source)
		}
	}

	if findChildByKind(n, kindWildcardImport) != nil {
		return WildcardImport{Module: module, Level: level, Line: lineOf(n)}
	}

	return FromImport{
		Module: module,
		Level:  level,
		Names:  importedNames(n, source),
		Line:   lineOf(n),
	}
}

// importedNames returns the dotted names bound to the "name" field of an
// import node, unwrapping `x as y` to x.
func importedNames(n *sitter.Node, source []byte) []string {
	cursor := n.Walk()
	defer cursor.Close()

	var names []string
	for _, child := range n.ChildrenByFieldName("name", cursor) {
		target := &child
		if child.Kind() == kindAliasedImport {
			target = child.ChildByFieldName("name")
		}
		if name := dottedName(target, source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// relativeModule splits `..pkg.mod` into its module path and dot count.
func relativeModule(n *sitter.Node, source []byte) (string, int) {
	var module string
	var level int
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case kindImportPrefix:
			level = strings.Count(child.Utf8Text(source), ".")
		case kindDottedName:
			module = dottedName(child, source)
		}
	}
	return module, level
}

// dottedName rebuilds a dotted name from its identifiers so that whitespace
// or line continuations around the dots do not leak into the result.
func dottedName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	if n.Kind() == kindIdentifier {
		return n.Utf8Text(source)
	}

	var parts []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == kindIdentifier {
			parts = append(parts, child.Utf8Text(source))
		}
	}
	return strings.Join(parts, ".")
}

// firstSyntaxError locates the first ERROR or MISSING node, descending only
// into subtrees that contain one.
func firstSyntaxError(root *sitter.Node) *SyntaxError {
	var found *SyntaxError
	walkTree(root, func(n *sitter.Node) bool {
		if found != nil || !n.HasError() && !n.IsMissing() {
			return false
		}
		pos := n.StartPosition()
		switch {
		case n.IsMissing():
			found = &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: fmt.Sprintf("missing %q", n.Kind())}
			return false
		case n.IsError():
			found = &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: "invalid syntax"}
			return false
		}
		return true
	})

	if found == nil {
		found = &SyntaxError{Line: 1, Column: 1, Msg: "invalid syntax"}
	}
	return found
}

// firstLegacyConstruct finds the first Python 2 construct the grammar parses
// without error.
func firstLegacyConstruct(root *sitter.Node, source []byte) *SyntaxError {
	var found *SyntaxError
	reject := func(n *sitter.Node, msg string) {
		pos := n.StartPosition()
		found = &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: msg}
	}

	walkTree(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch n.Kind() {
		case kindPrintStatement, kindExecStatement:
			reject(n, "Python 2 statement")
			return false
		case kindInteger:
			if legacyInteger.MatchString(n.Utf8Text(source)) {
				reject(n, "legacy integer literal")
			}
			return false
		case kindDeleteStatement:
			if bad := invalidDeleteTarget(n); bad != nil {
				reject(bad, "cannot delete "+bad.Kind())
				return false
			}
		}
		return true
	})
	return found
}

// invalidDeleteTarget returns the first operand of a del statement that is
// not a name, attribute, subscript or a sequence of those.
func invalidDeleteTarget(n *sitter.Node) *sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case kindIdentifier, "attribute", "subscript", "comment":
		case "expression_list", "tuple", "list", "parenthesized_expression":
			if bad := invalidDeleteTarget(child); bad != nil {
				return bad
			}
		default:
			return child
		}
	}
	return nil
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// walkTree visits node and its descendants depth-first. Returning false from
// visitor skips the children of that node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}

// findChildByKind finds the first direct child with the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}
