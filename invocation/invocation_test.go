package invocation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Numbers(t *testing.T) {
	invs := Parse([]string{"foo(1,2)"})
	require.Len(t, invs, 1)
	assert.Equal(t, "foo", invs[0].Name)
	assert.Equal(t, []Value{Number("1"), Number("2")}, invs[0].Args)
}

func TestParse_NestedLiterals(t *testing.T) {
	invs := Parse([]string{`foo([1, 2], {"x":1})`})
	require.Len(t, invs, 1)
	require.Len(t, invs[0].Args, 2)
	assert.Equal(t, Array{Number("1"), Number("2")}, invs[0].Args[0])
	assert.Equal(t, Object{{Key: "x", Value: Number("1")}}, invs[0].Args[1])
}

func TestParse_EmptyArgumentList(t *testing.T) {
	for _, line := range []string{"foo()", "foo(   )"} {
		invs := Parse([]string{line})
		require.Len(t, invs, 1, line)
		assert.Equal(t, "foo", invs[0].Name)
		assert.NotNil(t, invs[0].Args)
		assert.Empty(t, invs[0].Args)
	}
}

func TestParse_DropsMalformedLines(t *testing.T) {
	invs := Parse([]string{"not a call", "bar(1)"})
	require.Len(t, invs, 1)
	assert.Equal(t, "bar", invs[0].Name)
	assert.Equal(t, []Value{Number("1")}, invs[0].Args)
}

func TestParse_RawTextFallback(t *testing.T) {
	addr := "0x0000000000000000000000000000000000000000"
	invs := Parse([]string{"baz(" + addr + ")"})
	require.Len(t, invs, 1)
	assert.Equal(t, []Value{RawText(addr)}, invs[0].Args)
}

func TestParse_PlaygroundDefault(t *testing.T) {
	invs := Parse([]string{`getNextMove([[1, 0, 0, 0], [0, 0, 0, 0]], "")`})
	require.Len(t, invs, 1)
	require.Len(t, invs[0].Args, 2)

	grid, ok := invs[0].Args[0].(Array)
	require.True(t, ok)
	require.Len(t, grid, 2)
	assert.Equal(t, Array{Number("1"), Number("0"), Number("0"), Number("0")}, grid[0])
	assert.Equal(t, String(""), invs[0].Args[1])
}

func TestParse_LineShapes(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		name string
	}{
		{"foo(1)", true, "foo"},
		{"   foo(1)   ", true, "foo"},
		{"\tset_value(1)", true, "set_value"},
		{"Foo2()", true, "Foo2"},
		{"foo(1", false, ""},
		{"foo 1)", false, ""},
		{"foo (1)", false, ""},
		{"(1)", false, ""},
		{"x = foo(1)", false, ""},
		{"foo(1) // trailing", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			inv, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, inv.Name)
		})
	}
}

func TestParse_ArgumentListRunsToLastParen(t *testing.T) {
	inv, ok := ParseLine("foo(1))")
	require.True(t, ok)
	assert.Equal(t, []Value{RawText("1)")}, inv.Args)
}

func TestParse_ScalarKinds(t *testing.T) {
	inv, ok := ParseLine(`foo(true, null, "s", 1.5e3, -7)`)
	require.True(t, ok)
	assert.Equal(t, []Value{Bool(true), Null{}, String("s"), Number("1.5e3"), Number("-7")}, inv.Args)

	kinds := make([]Kind, len(inv.Args))
	for i, a := range inv.Args {
		kinds[i] = a.Kind()
	}
	assert.Equal(t, []Kind{KindBool, KindNull, KindString, KindNumber, KindNumber}, kinds)
}

func TestParse_CommaInsideStringSplits(t *testing.T) {
	inv, ok := ParseLine(`foo("a,b", 2)`)
	require.True(t, ok)
	assert.Equal(t, []Value{RawText(`"a`), RawText(`b"`), Number("2")}, inv.Args)
}

func TestParse_ApostropheInRawText(t *testing.T) {
	inv, ok := ParseLine("greet(don't, 1)")
	require.True(t, ok)
	assert.Equal(t, []Value{RawText("don't"), Number("1")}, inv.Args)
}

func TestParse_BracketInsideStringNests(t *testing.T) {
	inv, ok := ParseLine(`foo("[", 1)`)
	require.True(t, ok)
	assert.Equal(t, []Value{RawText(`"[", 1`)}, inv.Args)

	// Balanced brackets inside a string still decode.
	inv, ok = ParseLine(`foo("[x]", 1)`)
	require.True(t, ok)
	assert.Equal(t, []Value{String("[x]"), Number("1")}, inv.Args)
}

func TestParse_UnquotedObjectKeysStayRaw(t *testing.T) {
	inv, ok := ParseLine("foo([1, 2], {x: 1, y: 2})")
	require.True(t, ok)
	require.Len(t, inv.Args, 2)
	assert.Equal(t, Array{Number("1"), Number("2")}, inv.Args[0])
	assert.Equal(t, RawText("{x: 1, y: 2}"), inv.Args[1])
}

func TestParse_EmptyPieceIsRaw(t *testing.T) {
	inv, ok := ParseLine("foo(1, )")
	require.True(t, ok)
	assert.Equal(t, []Value{Number("1"), RawText("")}, inv.Args)
}

func TestParse_TrailingDataIsRaw(t *testing.T) {
	inv, ok := ParseLine("foo(1 2, [1]])")
	require.True(t, ok)
	assert.Equal(t, []Value{RawText("1 2"), RawText("[1]]")}, inv.Args)
}

func TestParse_WideIntegerKeepsDigits(t *testing.T) {
	maxUint := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	inv, ok := ParseLine("foo(" + maxUint + ")")
	require.True(t, ok)
	require.Len(t, inv.Args, 1)

	n, ok := inv.Args[0].(Number)
	require.True(t, ok)
	b, err := n.Big()
	require.NoError(t, err)
	assert.Equal(t, maxUint, b.String())

	_, err = Number("1.5").Big()
	assert.Error(t, err)
}

func TestParse_DuplicateObjectKeyLastWins(t *testing.T) {
	v := ParseArg(`{"a": 1, "b": 2, "a": 3}`)
	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Object{{Key: "a", Value: Number("3")}, {Key: "b", Value: Number("2")}}, obj)

	got, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, Number("3"), got)
	_, ok = obj.Get("missing")
	assert.False(t, ok)
}

func TestParse_Deterministic(t *testing.T) {
	lines := []string{
		`foo([1, 2], {"x": {"y": [true]}})`,
		"nope",
		"bar(0xdead, \"s\")",
		"baz()",
	}
	assert.Equal(t, Parse(lines), Parse(lines))
}

func TestIndexed(t *testing.T) {
	located := Indexed([]string{"x", "foo()", "", "bar(1)"})
	require.Len(t, located, 2)
	assert.Equal(t, 1, located[0].Line)
	assert.Equal(t, "foo", located[0].Name)
	assert.Equal(t, 3, located[1].Line)
	assert.Equal(t, "bar", located[1].Name)
}

func TestInvocation_MarshalJSON(t *testing.T) {
	inv, ok := ParseLine(`foo([1, {"k": null}], 0xab, "s", false)`)
	require.True(t, ok)
	b, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"foo","args":[[1,{"k":null}],"0xab","s",false]}`, string(b))

	empty, ok := ParseLine("foo()")
	require.True(t, ok)
	b, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"foo","args":[]}`, string(b))
}

func TestObject_MarshalKeepsOrder(t *testing.T) {
	b, err := json.Marshal(ParseArg(`{"z": 1, "a": 2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, string(b))
}

func TestInvocation_String(t *testing.T) {
	inv, ok := ParseLine(`foo( [1, 2] ,"a",  0xab )`)
	require.True(t, ok)
	assert.Equal(t, `foo([1,2], "a", 0xab)`, inv.String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "raw", KindRaw.String())
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestReadLines(t *testing.T) {
	src := "# calls\r\nfoo(1)\n\n   bar()  \n#baz()\n"
	lines, err := ReadLines(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"# calls", "foo(1)", "", "   bar()  ", "#baz()"}, lines)

	located := Indexed(lines)
	require.Len(t, located, 2)
	assert.Equal(t, 1, located[0].Line)
	assert.Equal(t, 3, located[1].Line)
}

func TestIsComment(t *testing.T) {
	assert.True(t, IsComment(""))
	assert.True(t, IsComment("   "))
	assert.True(t, IsComment("  # foo(1)"))
	assert.False(t, IsComment("foo(1)"))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(t.TempDir() + "/nope.calls")
	assert.Error(t, err)
}
