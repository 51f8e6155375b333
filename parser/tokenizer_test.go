package parser

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenizerAttributeAccuracyTestcase struct {
	inXML string            // snippet of XML to tokenize (should start with one open tag)
	attrs map[string]string // expected attributes collected from the first node that is produced
}

var tokenizerAttributeAccuracyTests = []tokenizerAttributeAccuracyTestcase{
	{"<head></head>", map[string]string{}},
	{"<script src='123' onload='test'></script>", map[string]string{
		"src":    "123",
		"onload": "test",
	}},
	{`<a href="https://google.com" onclick="alert(1)">Click this</a>`, map[string]string{
		"href":    "https://google.com",
		"onclick": "alert(1)",
	}},
	{"<script src='123' src='456'></script>", map[string]string{
		"src": "456",
	}},
	{"<script src=123 onload=test></script>", map[string]string{
		"src":    "123",
		"onload": "test",
	}},
	{"<script src='123' onload='test' ></script>", map[string]string{
		"src":    "123",
		"onload": "test",
	}},
	{"<a b = 'c'></a>", map[string]string{
		"b": "c",
	}},
	{"<a b  =  c></a>", map[string]string{
		"b": "c",
	}},
	{`<a b='x"y'></a>`, map[string]string{
		"b": `x"y`,
	}},
	{`<a b="x'y"></a>`, map[string]string{
		"b": "x'y",
	}},
	{"<a\tb='c'\nd='e'></a>", map[string]string{
		"b": "c",
		"d": "e",
	}},
	{`<a b='line\nbreak\\x\rcr'></a>`, map[string]string{
		"b": "line\nbreak\\x\rcr",
	}},
}

// TestTokenizerAttributeAccuracy just makes sure that we collect the
// correct attribute names and values in permissive mode.
func TestTokenizerAttributeAccuracy(t *testing.T) {
	for _, tt := range tokenizerAttributeAccuracyTests {
		runTestTokenizerAttributeAccuracy(tt, t)
	}
}

// helper function to parallelize the above test case.
func runTestTokenizerAttributeAccuracy(tt tokenizerAttributeAccuracyTestcase, t *testing.T) {
	t.Run(tt.inXML, func(t *testing.T) {
		t.Parallel()
		nodes, err := Parse(tt.inXML, false)
		require.NoError(t, err)
		require.NotEmpty(t, nodes)
		require.Equal(t, OpenTagNode, nodes[0].Type)
		assert.Equal(t, tt.attrs, nodes[0].Attributes)
	})
}

type stateMachineTestCase struct {
	inRune            rune           // the rune to pass to the startingState
	startingState     tokenizerState // the state to start from
	nextExpectedState tokenizerState // the next state
}

// TestStateParsers tests that each component of the state machine
// returns the next expected state. All cases can't be covered because
// some flows require accumulated state, but the basic flows are here.
func TestStateParsers(t *testing.T) {
	stateParserTests := []stateMachineTestCase{
		{'<', textState, tagNameState},
		{'a', textState, textState},
		{'>', textState, textState},

		{'/', tagNameState, closingTagNameState},
		{'?', tagNameState, processingInstructionNameState},
		{'!', tagNameState, commentStartState},
		{'a', tagNameState, tagNameState},
		{'_', tagNameState, tagNameState},
		{':', tagNameState, tagNameState},

		{' ', tagState, tagState},
		{'/', tagState, tagEmptyState},
		{'a', tagState, tagAttributeNameState},

		{'a', tagEmptyState, tagEmptyState},
		{'/', tagEmptyState, tagEmptyState},

		{'b', tagAttributeNameState, tagAttributeNameState},
		{' ', tagAttributeNameState, tagAttributeState},
		{'=', tagAttributeNameState, tagAttributeValueState},

		{' ', tagAttributeState, tagAttributeState},
		{'=', tagAttributeState, tagAttributeValueState},
		{'x', tagAttributeState, tagAttributeState},

		{' ', tagAttributeValueState, tagAttributeValueState},
		{'\'', tagAttributeValueState, tagAttributeValueState},
		{'u', tagAttributeValueState, tagAttributeValueState},

		{'a', closingTagNameState, closingTagNameState},

		{'x', processingInstructionNameState, processingInstructionNameState},

		{'?', processingInstructionState, processingInstructionState},
		{'a', processingInstructionState, processingInstructionState},

		{' ', xmlDeclState, xmlDeclState},
		{'?', xmlDeclState, xmlDeclEndState},
		{'v', xmlDeclState, xmlDeclAttributeNameState},

		{'e', xmlDeclAttributeNameState, xmlDeclAttributeNameState},
		{' ', xmlDeclAttributeNameState, xmlDeclAttributeState},
		{'=', xmlDeclAttributeNameState, xmlDeclAttributeValueState},

		{'=', xmlDeclAttributeState, xmlDeclAttributeValueState},
		{' ', xmlDeclAttributeState, xmlDeclAttributeState},

		{'a', xmlDeclEndState, xmlDeclEndState},

		{'[', commentStartState, cdataStartState},
		{'-', commentStartState, commentStartState},

		{'-', commentState, commentState},
		{'a', commentState, commentState},

		{'C', cdataStartState, cdataStartState},

		{']', cdataState, cdataState},
		{'a', cdataState, cdataState},
	}

	for _, tt := range stateParserTests {
		tt := tt
		t.Run(fmt.Sprintf("%q in %s", tt.inRune, tt.startingState), func(t *testing.T) {
			t.Parallel()
			p := NewXMLTokenizer(false)
			next, err := p.stateToParser(tt.startingState)(tt.inRune)
			require.NoError(t, err)
			assert.Equal(t, tt.nextExpectedState, next)
		})
	}
}

type parseScenarioTestcase struct {
	inXML string  // complete input document
	nodes []*Node // expected node sequence
}

var parseScenarioTests = []parseScenarioTestcase{
	{"<root><child>hello</child></root>", []*Node{
		{Type: OpenTagNode, Name: "root", Attributes: map[string]string{}},
		{Type: OpenTagNode, Name: "child", Attributes: map[string]string{}},
		{Type: TextNode, Contents: "hello"},
		{Type: CloseTagNode, Name: "child"},
		{Type: CloseTagNode, Name: "root"},
	}},
	{`<?xml version="1.0" encoding="UTF-8"?><a/>`, []*Node{
		{Type: XMLDeclNode, Attributes: map[string]string{
			"version":  "1.0",
			"encoding": "UTF-8",
		}},
		{Type: OpenTagNode, Name: "a", Attributes: map[string]string{}, SelfClosing: true},
	}},
	{"<root>hello<![CDATA[ world ]]></root>", []*Node{
		{Type: OpenTagNode, Name: "root", Attributes: map[string]string{}},
		{Type: TextNode, Contents: "hello"},
		{Type: CDataNode, Contents: " world "},
		{Type: CloseTagNode, Name: "root"},
	}},
	{"<!--hello-->", []*Node{
		{Type: CommentNode, Contents: "hello"},
	}},
	{"<!---->", []*Node{
		{Type: CommentNode, Contents: ""},
	}},
	{"<!--a--b-->", []*Node{
		{Type: CommentNode, Contents: "a--b"},
	}},
	{"<!--a--->", []*Node{
		{Type: CommentNode, Contents: "a-"},
	}},
	{"a]]>b", []*Node{
		{Type: TextNode, Contents: "a]]>b"},
	}},
	{"<![CDATA[x]y]]z]]]>", []*Node{
		{Type: CDataNode, Contents: "x]y]]z]"},
	}},
	{`<?php echo "x" ?>`, []*Node{
		{Type: ProcessingInstructionNode, Name: "php", Contents: `echo "x" `},
	}},
	{"<?pi a ? b?>", []*Node{
		{Type: ProcessingInstructionNode, Name: "pi", Contents: "a ? b"},
	}},
	{"<?XML version='1'?>", []*Node{
		{Type: XMLDeclNode, Attributes: map[string]string{
			"version": "1",
		}},
	}},
	{"<a b=unquoted>", []*Node{
		{Type: OpenTagNode, Name: "a", Attributes: map[string]string{
			"b": "unquoted",
		}},
	}},
	{"<br/>", []*Node{
		{Type: OpenTagNode, Name: "br", Attributes: map[string]string{}, SelfClosing: true},
	}},
	{"</a>", []*Node{
		{Type: CloseTagNode, Name: "a"},
	}},
	{"</a  >", []*Node{
		{Type: CloseTagNode, Name: "a"},
	}},
	{"no markup at all", []*Node{
		{Type: TextNode, Contents: "no markup at all"},
	}},
}

func TestParseScenarios(t *testing.T) {
	for _, tt := range parseScenarioTests {
		tt := tt
		t.Run(tt.inXML, func(t *testing.T) {
			t.Parallel()
			nodes, err := Parse(tt.inXML, false)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.nodes, nodes); diff != "" {
				t.Errorf("node sequence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type parseErrorTestcase struct {
	inXML   string // input that must be rejected
	strict  bool   // tokenize in strict mode
	wantErr error  // sentinel the failure must match
}

var parseErrorTests = []parseErrorTestcase{
	{"<1a>", false, ErrInvalidStartChar},
	{"<a ~b='1'>", false, ErrInvalidStartChar},
	{"<a b~='1'>", false, ErrInvalidNameChar},
	{"<a@>", false, ErrInvalidNameChar},
	{"</1a>", false, ErrInvalidStartChar},
	{"<!x-->", false, ErrInvalidStartChar},
	{"<![CDXTA[a]]>", false, ErrMalformedCDataPrologue},
	{`<a b='\t'>`, false, ErrInvalidEscapeChar},
	{"<a b=unquoted>", true, ErrInvalidAttributeValueStart},
	{`<a b="double">`, true, ErrInvalidAttributeValueStart},
	{"<!--a--b-->", true, ErrMalformedCommentDelimiter},
	{"<!--a--->", true, ErrMalformedCommentDelimiter},
	{"<!--- x-->", true, ErrMalformedCommentDelimiter},
	{"<?pi \x00?>", true, ErrInvalidCharacter},
	{"<!--\x00-->", true, ErrInvalidCharacter},
	{"<![CDATA[\x00]]>", true, ErrInvalidCharacter},
	{"<roo", false, ErrUnexpectedEOF},
	{"<a b='unterminated", false, ErrUnexpectedEOF},
	{"<!--no end", false, ErrUnexpectedEOF},
	{"<![CDATA[no end", false, ErrUnexpectedEOF},
	{"<?pi no end", false, ErrUnexpectedEOF},
}

func TestParseErrors(t *testing.T) {
	for _, tt := range parseErrorTests {
		tt := tt
		t.Run(fmt.Sprintf("%q strict=%v", tt.inXML, tt.strict), func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.inXML, tt.strict)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestStrictAcceptsValidInput makes sure strict mode still accepts
// input that follows its narrower rules.
func TestStrictAcceptsValidInput(t *testing.T) {
	t.Parallel()
	nodes, err := Parse(`<?xml version='1.0'?><root a='1'><child>hi<!--a-b--></child></root>`, true)
	require.NoError(t, err)
	require.Len(t, nodes, 7)
	assert.Equal(t, XMLDeclNode, nodes[0].Type)
	assert.Equal(t, map[string]string{"a": "1"}, nodes[1].Attributes)
	assert.Equal(t, "a-b", nodes[4].Contents)
}

// TestSplitWrites delivers the same document split at every possible
// boundary over two writes and requires the identical node sequence as
// a single write.
func TestSplitWrites(t *testing.T) {
	t.Parallel()
	const input = `<?xml version='1.0'?><root a='1'><child>hi<!--c--><![CDATA[d]]></child><br/></root>tail`

	want, err := Parse(input, false)
	require.NoError(t, err)

	for i := 0; i <= len(input); i++ {
		p := NewXMLTokenizer(false)
		require.NoError(t, p.Write(input[:i]))
		require.NoError(t, p.Write(input[i:]))
		require.NoError(t, p.Close())

		var got []*Node
		for {
			node, err := p.Next()
			require.NoError(t, err)
			if node == nil {
				break
			}
			got = append(got, node)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("split at %d (-want +got):\n%s", i, diff)
		}
	}
}

// TestInterleavedWriteAndNext pulls between writes: a construct split
// across writes must be held, not emitted early.
func TestInterleavedWriteAndNext(t *testing.T) {
	t.Parallel()
	p := NewXMLTokenizer(false)

	require.NoError(t, p.Write("<roo"))
	node, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, node, "partial tag must not produce a node")

	require.NoError(t, p.Write("t>hello"))
	node, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, OpenTagNode, node.Type)
	assert.Equal(t, "root", node.Name)

	// "hello" is unterminated text until the stream closes
	node, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, node)

	require.NoError(t, p.Close())
	node, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, TextNode, node.Type)
	assert.Equal(t, "hello", node.Contents)

	node, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, node, "drained tokenizer keeps returning no node")
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()
	p := NewXMLTokenizer(false)
	require.NoError(t, p.Write("<a>"))
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Write("<b>"), ErrWriteAfterClose)
	// a second close is a no-op
	assert.NoError(t, p.Close())
}

func TestCloseWithFinalChunk(t *testing.T) {
	t.Parallel()
	p := NewXMLTokenizer(false)
	require.NoError(t, p.Write("<a"))
	require.NoError(t, p.Close(">done"))

	node, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, OpenTagNode, node.Type)

	node, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "done", node.Contents)
}

// TestRepeatedRunsAreIdentical guards against hidden shared state
// between instances.
func TestRepeatedRunsAreIdentical(t *testing.T) {
	t.Parallel()
	const input = `<root a='1'><!--c-->text<![CDATA[d]]></root>`
	first, err := Parse(input, false)
	require.NoError(t, err)
	second, err := Parse(input, false)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

// TestBalancedProjection checks that correctly nested input round-trips
// to a balanced open/close sequence. The tokenizer itself never
// enforces nesting, so this only has to hold for well-formed input.
func TestBalancedProjection(t *testing.T) {
	t.Parallel()
	nodes, err := Parse("<a><b><c/></b><b2>x</b2></a>", false)
	require.NoError(t, err)

	var stack []string
	for _, node := range nodes {
		switch node.Type {
		case OpenTagNode:
			if !node.SelfClosing {
				stack = append(stack, node.Name)
			}
		case CloseTagNode:
			require.NotEmpty(t, stack)
			assert.Equal(t, stack[len(stack)-1], node.Name)
			stack = stack[:len(stack)-1]
		}
	}
	assert.Empty(t, stack)
}
