package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeScanner_BasicIteration(t *testing.T) {
	sc := New("ab")
	assert.Equal(t, -1, sc.Pos())

	ch, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, byte('a'), ch)
	assert.Equal(t, 0, sc.Pos())

	next, ok := sc.Peek()
	require.True(t, ok)
	assert.Equal(t, byte('b'), next)

	ch, ok = sc.Next()
	require.True(t, ok)
	assert.Equal(t, byte('b'), ch)

	_, ok = sc.Peek()
	assert.False(t, ok)
	_, ok = sc.Next()
	assert.False(t, ok)
}

func TestCodeScanner_QuotesDoNotHideSeparators(t *testing.T) {
	assert.Equal(t, []int{2, 5}, FindAllTopLevel(`"a,b", c`, ','))
	assert.Equal(t, []int{5}, FindAllTopLevel(`don't, 1`, ','))
}

func TestCodeScanner_Depth(t *testing.T) {
	sc := New("[{1}]")
	var depths []int
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
		depths = append(depths, sc.Depth())
	}
	assert.Equal(t, []int{1, 2, 2, 1, 0}, depths)
}

func TestCodeScanner_BracketsInStringsCount(t *testing.T) {
	sc := New(`"[" , {`)
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
	}
	assert.Equal(t, 2, sc.Depth())
	assert.Nil(t, FindAllTopLevel(`"[", 1`, ','))
}

func TestFindAllTopLevel_NegativeDepth(t *testing.T) {
	assert.Nil(t, FindAllTopLevel("a], b", ','))
}

func TestCodeScanner_MismatchedKindsStillClose(t *testing.T) {
	sc := New("[1}")
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
	}
	assert.Equal(t, 0, sc.Depth())
}

func TestFindAllTopLevel(t *testing.T) {
	assert.Equal(t, []int{6}, FindAllTopLevel("[1, 2], {x: 1}", ','))
	assert.Nil(t, FindAllTopLevel("[1, 2]", ','))
	assert.Equal(t, []int{1, 3}, FindAllTopLevel("a,b,c", ','))
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"1", []string{"1"}},
		{"1,2", []string{"1", "2"}},
		{"[1, 2], {x: 1, y: 2}", []string{"[1, 2]", " {x: 1, y: 2}"}},
		{`"a,b", c`, []string{`"a`, `b"`, " c"}},
		{`"{", 1`, []string{`"{", 1`}},
		{"[[1,2],[3]],4", []string{"[[1,2],[3]]", "4"}},
		{"a,", []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTopLevel(tt.in, ','))
		})
	}
}

func TestSplitArgs(t *testing.T) {
	assert.Nil(t, SplitArgs(""))
	assert.Nil(t, SplitArgs("   "))
	assert.Equal(t, []string{"1", "2"}, SplitArgs(" 1 , 2 "))
	assert.Equal(t, []string{"[1, 2]", `{"x":1}`}, SplitArgs(`[1, 2], {"x":1}`))
}
