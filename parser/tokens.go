package parser

import (
	"fmt"
	"strings"
)

//go:generate stringer -type=NodeType
type NodeType uint

const (
	TextNode NodeType = iota
	XMLDeclNode
	OpenTagNode
	CloseTagNode
	CommentNode
	ProcessingInstructionNode
	CDataNode
)

// Node is a completed lexical construct that is ready to be handed to
// the caller. Which fields are meaningful depends on Type: tags carry a
// Name (and open tags carry Attributes and SelfClosing), processing
// instructions carry a Name (target) and Contents (body), and text,
// comment and CDATA nodes carry only Contents.
type Node struct {
	Type        NodeType
	Name        string
	Attributes  map[string]string
	SelfClosing bool
	Contents    string
}

// NodeBuilder accumulates the partial construct the tokenizer is
// currently inside of. The tokenizer owns exactly one builder and
// resets it every time a node is emitted.
type NodeBuilder struct {
	attributes     map[string]string
	attributeKey   strings.Builder
	attributeValue strings.Builder
	name           strings.Builder
	data           strings.Builder
	text           strings.Builder
	prologue       strings.Builder
	selfClosing    bool
	quotationMark  rune
	escaped        bool
	valueStarted   bool
	ending         bool
	delimCount     int
}

func newNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		attributes: make(map[string]string),
	}
}

// NewNode clears every accumulator used while lexing a single
// construct. The text buffer is deliberately left alone: text
// accumulates across tag boundaries and is flushed separately.
func (b *NodeBuilder) NewNode() {
	b.attributes = make(map[string]string)
	b.attributeKey.Reset()
	b.attributeValue.Reset()
	b.name.Reset()
	b.data.Reset()
	b.prologue.Reset()
	b.selfClosing = false
	b.quotationMark = 0
	b.escaped = false
	b.valueStarted = false
	b.ending = false
	b.delimCount = 0
}

// EnableSelfClosing changes the self-closing flag to "set".
func (b *NodeBuilder) EnableSelfClosing() {
	b.selfClosing = true
}

// WriteName appends a rune to the current tag or target name.
func (b *NodeBuilder) WriteName(r rune) {
	_, err := b.name.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// WriteAttributeName appends a rune to the current attribute's name.
func (b *NodeBuilder) WriteAttributeName(r rune) {
	_, err := b.attributeKey.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// WriteAttributeValue appends a rune to the current attribute's value.
func (b *NodeBuilder) WriteAttributeValue(r rune) {
	_, err := b.attributeValue.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// WriteData appends a rune to the current comment, CDATA or processing
// instruction body.
func (b *NodeBuilder) WriteData(r rune) {
	_, err := b.data.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// WriteText appends a rune to the running text accumulator.
func (b *NodeBuilder) WriteText(r rune) {
	_, err := b.text.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// WritePrologue appends a rune to the CDATA prologue accumulator.
func (b *NodeBuilder) WritePrologue(r rune) {
	_, err := b.prologue.WriteRune(r)
	if err != nil {
		fmt.Print(err)
	}
}

// CommitAttribute ends the creation of a key/value pair by copying the
// key and value fields into the attribute mapping and clearing the
// per-attribute accumulators. A duplicate key overwrites the earlier
// value, plain mapping-assignment semantics.
func (b *NodeBuilder) CommitAttribute() {
	b.attributes[b.attributeKey.String()] = b.attributeValue.String()
	b.attributeKey.Reset()
	b.attributeValue.Reset()
	b.quotationMark = 0
	b.escaped = false
	b.valueStarted = false
}

// FlushText returns the accumulated text and resets the accumulator.
func (b *NodeBuilder) FlushText() string {
	text := b.text.String()
	b.text.Reset()
	return text
}

// TextNode creates a text node from the given contents.
func (b *NodeBuilder) TextNode(contents string) *Node {
	return &Node{
		Type:     TextNode,
		Contents: contents,
	}
}

// OpenTagNode creates an open tag node from the builder contents.
func (b *NodeBuilder) OpenTagNode() *Node {
	return &Node{
		Type:        OpenTagNode,
		Name:        b.name.String(),
		Attributes:  b.attributes,
		SelfClosing: b.selfClosing,
	}
}

// CloseTagNode creates a close tag node from the builder contents.
func (b *NodeBuilder) CloseTagNode() *Node {
	return &Node{
		Type: CloseTagNode,
		Name: b.name.String(),
	}
}

// XMLDeclNode creates an XML declaration node from the builder contents.
func (b *NodeBuilder) XMLDeclNode() *Node {
	return &Node{
		Type:       XMLDeclNode,
		Attributes: b.attributes,
	}
}

// CommentNode creates a comment node from the builder contents.
func (b *NodeBuilder) CommentNode() *Node {
	return &Node{
		Type:     CommentNode,
		Contents: b.data.String(),
	}
}

// ProcessingInstructionNode creates a processing instruction node from
// the builder contents.
func (b *NodeBuilder) ProcessingInstructionNode() *Node {
	return &Node{
		Type:     ProcessingInstructionNode,
		Name:     b.name.String(),
		Contents: b.data.String(),
	}
}

// CDataNode creates a CDATA node from the builder contents.
func (b *NodeBuilder) CDataNode() *Node {
	return &Node{
		Type:     CDataNode,
		Contents: b.data.String(),
	}
}
