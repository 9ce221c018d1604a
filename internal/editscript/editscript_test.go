package editscript

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ptmine/internal/errors"
)

func TestParseSpan(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  Span
	}{
		{"offset", "ImportDeclaration [20,40]", OffsetSpan(20, 40)},
		{"offset with name", "SimpleName: foo [120,123]", OffsetSpan(120, 123)},
		{"position", "MethodDeclaration [3,5,9,2]", PositionSpan(3, 5, 9, 2)},
		{"position with extras", "Block [1,2,99,3,4]", PositionSpan(1, 2, 3, 4)},
		{"last group wins", "StringLiteral: \"[1,2]\" [30,37]", OffsetSpan(30, 37)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpan(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpanMalformed(t *testing.T) {
	for _, label := range []string{"TextElement: hello", "Block [7]", ""} {
		_, err := ParseSpan(label)
		assert.True(t, stderrors.Is(err, errors.ErrMalformedSpan), label)
	}
}

func TestSpanToOffset(t *testing.T) {
	content := "package a;\nimport b.C;\nclass D {}\n"

	start, end := SpanToOffset(content, PositionSpan(2, 1, 2, 12))
	assert.Equal(t, "import b.C;", content[start:end])

	// Line past the end clamps to the last line, column to its length.
	start, end = SpanToOffset(content, PositionSpan(1, 1, 50, 50))
	assert.Equal(t, 0, start)
	assert.Equal(t, len(content), end)

	start, end = SpanToOffset(content, OffsetSpan(-5, 1000))
	assert.Equal(t, 0, start)
	assert.Equal(t, len(content), end)

	start, end = SpanToOffset(content, OffsetSpan(12, 3))
	assert.Equal(t, 12, start)
	assert.Equal(t, 12, end)
}

func TestDocumentCountsCharactersNotBytes(t *testing.T) {
	doc := NewDocument("// é\nint x;")
	assert.Equal(t, "int x;", doc.Slice(OffsetSpan(5, 11)))
	assert.Equal(t, "int", doc.Slice(PositionSpan(2, 1, 2, 4)))
}

func TestParseScript(t *testing.T) {
	data := []byte(`{"actions":[
		{"action":"insert-node","tree":"SimpleName: foo [120,123]","parent":"MethodDeclaration [100,200]","at":2},
		{"action":"delete-tree","tree":"ImportDeclaration [20,40]"},
		{"action":"update-node","tree":"TextElement: hi"}
	]}`)

	script, err := ParseScript(data)
	require.NoError(t, err)
	require.Len(t, script, 3)

	assert.Equal(t, KindInsert, script[0].Kind)
	assert.Equal(t, "node", script[0].Detail)
	assert.Equal(t, "SimpleName", script[0].Node.Type())
	require.NotNil(t, script[0].Parent)
	span, ok := script[0].TargetSpan()
	assert.True(t, ok)
	assert.Equal(t, OffsetSpan(100, 200), span)

	assert.Equal(t, KindDelete, script[1].Kind)
	assert.Nil(t, script[1].Parent)
	span, ok = script[1].TargetSpan()
	assert.True(t, ok)
	assert.Equal(t, OffsetSpan(20, 40), span)

	assert.False(t, script[2].Node.HasSpan)
	assert.Equal(t, "TextElement", script[2].Node.Type())
	assert.False(t, script[2].IsAdditive())
}

func TestParseScriptInvalidJSON(t *testing.T) {
	_, err := ParseScript([]byte("not json"))
	assert.True(t, stderrors.Is(err, errors.ErrOracleInvocation))
}

func TestScriptEncodeRoundTripKeepsLabels(t *testing.T) {
	script, err := ParseScript([]byte(`{"actions":[{"action":"move-tree","tree":"Block [1,9]","parent":"IfStatement [0,10]"}]}`))
	require.NoError(t, err)

	data, err := script.Encode()
	require.NoError(t, err)

	again, err := ParseScript(data)
	require.NoError(t, err)
	assert.Equal(t, script, again)
}

func TestScriptEvery(t *testing.T) {
	assert.False(t, Script{}.Every(Action.IsAdditive))
	assert.True(t, Script{{Kind: KindInsert}, {Kind: KindDelete}}.Every(Action.IsAdditive))
	assert.False(t, Script{{Kind: KindInsert}, {Kind: KindMove}}.Every(Action.IsAdditive))
}

func TestParseRefactorings(t *testing.T) {
	data := []byte(`{"commits":[{"repository":"r","sha1":"abc","refactorings":[
		{"type":"Rename Method","description":"Rename Method a() to b()","leftSideLocations":[
			{"filePath":"src/test/java/ATest.java","startLine":3,"endLine":5,"startColumn":2,"endColumn":3,"codeElementType":"METHOD_DECLARATION"}
		]}
	]}]}`)

	refs, err := ParseRefactorings(data)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Rename Method", refs[0].Type)
	assert.Equal(t, []Span{PositionSpan(3, 2, 5, 3)}, LeftSideSpans(refs))

	refs, err = ParseRefactorings([]byte(`{"commits":[]}`))
	require.NoError(t, err)
	assert.Empty(t, refs)
}
