package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for ParseStatements:
// - plain imports with aliases and multiple names
// - absolute, relative and bare-relative from imports with their level
// - wildcard imports become WildcardImport
// - __future__ imports become FromImport on "__future__"
// - parenthesized name lists with trailing commas
// - imports nested in functions, classes and try blocks are found
// - unmatched parenthesis and null bytes produce *SyntaxError
// - Python 2 statements, legacy integers and bad del targets produce *SyntaxError
// - Python 3 literals, del targets and print() calls still parse

func TestParseStatements_PlainImport(t *testing.T) {
	t.Parallel()

	stmts, err := ParseStatements([]byte("import a.b.c as abc, d\n"))
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	assert.Equal(t, PlainImport{Names: []string{"a.b.c", "d"}, Line: 1}, stmts[0])
}

func TestParseStatements_FromImports(t *testing.T) {
	t.Parallel()

	src := `from a.b import c as see, d
from .sibling import thing
from .. import x, y
`
	stmts, err := ParseStatements([]byte(src))
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.Equal(t, FromImport{Module: "a.b", Names: []string{"c", "d"}, Line: 1}, stmts[0])
	assert.Equal(t, FromImport{Module: "sibling", Level: 1, Names: []string{"thing"}, Line: 2}, stmts[1])
	assert.Equal(t, FromImport{Level: 2, Names: []string{"x", "y"}, Line: 3}, stmts[2])
}

func TestParseStatements_Wildcard(t *testing.T) {
	t.Parallel()

	stmts, err := ParseStatements([]byte("from os.path import *\nfrom . import *\n"))
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, WildcardImport{Module: "os.path", Line: 1}, stmts[0])
	assert.Equal(t, WildcardImport{Level: 1, Line: 2}, stmts[1])
	assert.Equal(t, []string{"os"}, TopLevelNames(stmts).Sorted())
}

func TestParseStatements_FutureImport(t *testing.T) {
	t.Parallel()

	stmts, err := ParseStatements([]byte("from __future__ import annotations\nimport os\n"))
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, FromImport{Module: "__future__", Names: []string{"annotations"}, Line: 1}, stmts[0])
	assert.Equal(t, []string{"__future__", "os"}, TopLevelNames(stmts).Sorted())
}

func TestParseStatements_ParenthesizedNames(t *testing.T) {
	t.Parallel()

	src := `from typing import (
    Any,
    Dict as D,
)
`
	stmts, err := ParseStatements([]byte(src))
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	assert.Equal(t, FromImport{Module: "typing", Names: []string{"Any", "Dict"}, Line: 1}, stmts[0])
}

func TestParseStatements_NestedImports(t *testing.T) {
	t.Parallel()

	src := `def load():
    import json
    return json

class Plugin:
    from importlib import metadata

try:
    import ujson
except ImportError:
    pass

if True:
    import toml
`
	stmts, err := ParseStatements([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"importlib", "json", "toml", "ujson"}, TopLevelNames(stmts).Sorted())
}

func TestParseStatements_NoImports(t *testing.T) {
	t.Parallel()

	stmts, err := ParseStatements([]byte("x = 1\nprint(x)\n"))
	require.NoError(t, err)
	assert.Empty(t, stmts)

	stmts, err = ParseStatements(nil)
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestParseStatements_SyntaxErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"import os\nprint((1, 2)\n",
		"def f(:\n    pass\n",
		"from import x\n",
	} {
		stmts, err := ParseStatements([]byte(src))
		assert.Nil(t, stmts, "source %q", src)

		var synErr *SyntaxError
		require.ErrorAs(t, err, &synErr, "source %q", src)
		assert.Positive(t, synErr.Line)
		assert.Positive(t, synErr.Column)
	}
}

func TestParseStatements_Python3LiteralsAndDeletes(t *testing.T) {
	t.Parallel()

	stmts, err := ParseStatements([]byte("import os\nx = [0, 00, 0x1F, 0o17, 7j, 1_000]\ndel x[0], os.sep, (a, b)\nprint(\"ok\")\n"))
	require.NoError(t, err)
	require.Len(t, stmts, 1)
}

func TestParseStatements_Python2Constructs(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"import os\nprint \"hi\"\n":  "Python 2 statement",
		"import os\nexec \"x = 1\"\n": "Python 2 statement",
		"import os\nx = 0777\n":       "legacy integer literal",
		"import os\ndel 1\n":          "cannot delete integer",
	}
	for src, msg := range cases {
		stmts, err := ParseStatements([]byte(src))
		assert.Nil(t, stmts, "source %q", src)

		var synErr *SyntaxError
		require.ErrorAs(t, err, &synErr, "source %q", src)
		assert.Equal(t, 2, synErr.Line, "source %q", src)
		assert.Equal(t, msg, synErr.Msg, "source %q", src)
	}
}

func TestParseStatements_NullByte(t *testing.T) {
	t.Parallel()

	_, err := ParseStatements([]byte("import os\nx = '\x00'\n"))

	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, 2, synErr.Line)
	assert.Equal(t, 6, synErr.Column)
	assert.Contains(t, synErr.Error(), "null bytes")
}
