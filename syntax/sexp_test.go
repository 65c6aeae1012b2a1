package syntax_test

import (
	"testing"

	"github.com/benbjohnson/schedval/syntax"
	"github.com/stretchr/testify/require"
)

func TestReadAll(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		exprs, err := syntax.ReadAll("(a (b c)) d")
		require.NoError(t, err)
		require.Len(t, exprs, 2)

		l, ok := exprs[0].(*syntax.List)
		require.True(t, ok)
		require.Equal(t, "a", l.Head())
		require.Equal(t, 2, l.Len())
		require.Equal(t, syntax.Pos{Line: 1, Col: 1}, l.Pos())
		require.Equal(t, syntax.Pos{Line: 1, Col: 4}, l.Elements[1].Pos())
		require.Equal(t, "(a (b c))", l.String())

		sym, ok := exprs[1].(*syntax.Symbol)
		require.True(t, ok)
		require.Equal(t, "d", sym.Value)
		require.Equal(t, syntax.Pos{Line: 1, Col: 11}, sym.Pos())
	})

	t.Run("Comments", func(t *testing.T) {
		exprs, err := syntax.ReadAll("; header\n(x ; trailing\n  y)\n; footer")
		require.NoError(t, err)
		require.Len(t, exprs, 1)

		l := exprs[0].(*syntax.List)
		require.Equal(t, syntax.Pos{Line: 2, Col: 1}, l.Pos())
		require.Equal(t, syntax.Pos{Line: 3, Col: 3}, l.Elements[1].Pos())
	})

	t.Run("Empty", func(t *testing.T) {
		exprs, err := syntax.ReadAll("  \n ; nothing")
		require.NoError(t, err)
		require.Empty(t, exprs)
	})

	t.Run("EmptyList", func(t *testing.T) {
		exprs, err := syntax.ReadAll("()")
		require.NoError(t, err)
		require.Equal(t, "", exprs[0].(*syntax.List).Head())
	})
}

func TestReadAll_Error(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		err  string
	}{
		{"UnterminatedList", "\n  (a (b)", "2:3: unexpected end-of-file in list"},
		{"UnexpectedClose", ")", "1:1: unexpected end-of-list"},
		{"TrailingClose", "(a))", "1:4: unexpected end-of-list"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syntax.ReadAll(tt.src)
			require.EqualError(t, err, tt.err)

			e, ok := err.(*syntax.Error)
			require.True(t, ok)
			require.NotZero(t, e.Pos.Line)
		})
	}
}
