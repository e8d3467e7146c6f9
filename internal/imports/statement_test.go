package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopLevelNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stmts []Statement
		want  []string
	}{
		{
			name:  "plain import keeps first segment",
			stmts: []Statement{PlainImport{Names: []string{"a.b.c", "d"}}},
			want:  []string{"a", "d"},
		},
		{
			name:  "absolute from import uses module",
			stmts: []Statement{FromImport{Module: "a.b", Names: []string{"c"}}},
			want:  []string{"a"},
		},
		{
			name:  "relative from import with module uses module",
			stmts: []Statement{FromImport{Module: "pkg.sub", Level: 1, Names: []string{"x"}}},
			want:  []string{"pkg"},
		},
		{
			name:  "bare relative import uses names",
			stmts: []Statement{FromImport{Level: 2, Names: []string{"c", "d"}}},
			want:  []string{"c", "d"},
		},
		{
			name:  "bare relative wildcard contributes nothing",
			stmts: []Statement{WildcardImport{Level: 1}},
			want:  []string{},
		},
		{
			name: "union is deduplicated",
			stmts: []Statement{
				PlainImport{Names: []string{"a"}},
				PlainImport{Names: []string{"a.b"}},
				FromImport{Module: "a", Names: []string{"x"}},
				WildcardImport{Module: "a.c"},
			},
			want: []string{"a"},
		},
		{
			name:  "no statements",
			stmts: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TopLevelNames(tt.stmts).Sorted())
		})
	}
}

func TestNameSet(t *testing.T) {
	t.Parallel()

	s := NewNameSet("b", "", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Has(""))

	s.Union(NewNameSet("c", "a"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())
}

func TestTopLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", topLevel("a.b.c"))
	assert.Equal(t, "a", topLevel("a"))
	assert.Equal(t, "", topLevel(""))
}
