package parser

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// XMLTokenizer is an incremental, pull-based XML lexer. Input arrives
// through Write (and optionally Close), and completed nodes are pulled
// out one at a time with Next. It never builds a tree and never checks
// that open and close tags nest properly.
type XMLTokenizer struct {
	strict       bool
	closed       bool
	currentState tokenizerState
	queue        []rune
	nodeBuilder  *NodeBuilder
	pendingNode  *Node
}

// NewXMLTokenizer creates a tokenizer in the initial text state. The
// strict flag is fixed for the lifetime of the instance; when false,
// acceptance is widened for malformed-but-common input (unquoted and
// double-quoted attribute values, loose comment dashes, no character
// class checking inside bodies).
func NewXMLTokenizer(strict bool) *XMLTokenizer {
	return &XMLTokenizer{
		strict:       strict,
		currentState: textState,
		nodeBuilder:  newNodeBuilder(),
	}
}

type parserStateHandler func(r rune) (tokenizerState, error)

func (p *XMLTokenizer) stateToParser(state tokenizerState) parserStateHandler {
	switch state {
	case textState:
		return p.textStateParser
	case tagNameState:
		return p.tagNameStateParser
	case tagState:
		return p.tagStateParser
	case tagEmptyState:
		return p.tagEmptyStateParser
	case tagAttributeNameState:
		return p.tagAttributeNameStateParser
	case tagAttributeState:
		return p.tagAttributeStateParser
	case tagAttributeValueState:
		return p.tagAttributeValueStateParser
	case closingTagNameState:
		return p.closingTagNameStateParser
	case processingInstructionNameState:
		return p.processingInstructionNameStateParser
	case processingInstructionState:
		return p.processingInstructionStateParser
	case xmlDeclState:
		return p.xmlDeclStateParser
	case xmlDeclAttributeNameState:
		return p.xmlDeclAttributeNameStateParser
	case xmlDeclAttributeState:
		return p.xmlDeclAttributeStateParser
	case xmlDeclAttributeValueState:
		return p.xmlDeclAttributeValueStateParser
	case xmlDeclEndState:
		return p.xmlDeclEndStateParser
	case commentStartState:
		return p.commentStartStateParser
	case commentState:
		return p.commentStateParser
	case cdataStartState:
		return p.cdataStartStateParser
	case cdataState:
		return p.cdataStateParser
	}

	return nil
}

// isNameStartChar reports whether r can begin an XML name, per the
// NameStartChar production of XML 1.0.
func isNameStartChar(r rune) bool {
	switch {
	case r == ':' || r == '_':
		return true
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r >= 0xC0 && r <= 0xD6, r >= 0xD8 && r <= 0xF6:
		return true
	case r >= 0xF8 && r <= 0x2FF, r >= 0x370 && r <= 0x37D:
		return true
	case r >= 0x37F && r <= 0x1FFF, r >= 0x200C && r <= 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F, r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF, r >= 0xF900 && r <= 0xFDCF:
		return true
	case r >= 0xFDF0 && r <= 0xFFFD, r >= 0x10000 && r <= 0xEFFFF:
		return true
	default:
		return false
	}
}

// isNameChar reports whether r can appear in an XML name after the
// first character, per the NameChar production of XML 1.0.
func isNameChar(r rune) bool {
	switch {
	case isNameStartChar(r):
		return true
	case r == '-' || r == '.' || r == 0xB7:
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 0x300 && r <= 0x36F, r >= 0x203F && r <= 0x2040:
		return true
	default:
		return false
	}
}

// isChar reports whether r is inside the XML character ranges, per the
// Char production of XML 1.0.
func isChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

func isWhiteSpace(r rune) bool {
	switch r {
	case 0x20, 0x9, 0xD, 0xA:
		return true
	default:
		return false
	}
}

func isQuotationMark(r rune) bool {
	return r == '"' || r == '\''
}

// escapeChar resolves the backslash escapes supported inside attribute
// values. This is not XML (XML uses entity references), it is a
// deliberate extension of this lexer, and anything outside the
// supported set is an error.
func escapeChar(r rune) (rune, error) {
	switch r {
	case '\\':
		return '\\', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	default:
		return 0, errors.Wrapf(ErrInvalidEscapeChar, "%q", r)
	}
}

const cdataPrologue = "CDATA["

func (p *XMLTokenizer) emit(node *Node) {
	p.pendingNode = node
}

// emitTag finishes the open tag being built and resets for the next
// construct.
func (p *XMLTokenizer) emitTag() tokenizerState {
	p.emit(p.nodeBuilder.OpenTagNode())
	p.nodeBuilder.NewNode()
	return textState
}

func (p *XMLTokenizer) textStateParser(r rune) (tokenizerState, error) {
	if r == '<' {
		if text := p.nodeBuilder.FlushText(); text != "" {
			p.emit(p.nodeBuilder.TextNode(text))
		}
		p.nodeBuilder.NewNode()
		return tagNameState, nil
	}
	p.nodeBuilder.WriteText(r)
	return textState, nil
}

func (p *XMLTokenizer) tagNameStateParser(r rune) (tokenizerState, error) {
	if p.nodeBuilder.name.Len() == 0 {
		switch {
		case r == '/':
			return closingTagNameState, nil
		case r == '?':
			return processingInstructionNameState, nil
		case r == '!':
			return commentStartState, nil
		case isNameStartChar(r):
			p.nodeBuilder.WriteName(r)
			return tagNameState, nil
		default:
			return tagNameState, errors.Wrapf(ErrInvalidStartChar, "invalid tag name starting character %q", r)
		}
	}

	switch {
	case isNameChar(r):
		p.nodeBuilder.WriteName(r)
		return tagNameState, nil
	case isWhiteSpace(r):
		return tagState, nil
	case r == '>':
		return p.emitTag(), nil
	case r == '/':
		return tagEmptyState, nil
	default:
		return tagNameState, errors.Wrapf(ErrInvalidNameChar, "invalid tag name character %q", r)
	}
}

func (p *XMLTokenizer) tagStateParser(r rune) (tokenizerState, error) {
	switch {
	case r == '>':
		return p.emitTag(), nil
	case isWhiteSpace(r):
		return tagState, nil
	case r == '/':
		return tagEmptyState, nil
	case isNameStartChar(r):
		p.nodeBuilder.WriteAttributeName(r)
		return tagAttributeNameState, nil
	default:
		return tagState, errors.Wrapf(ErrInvalidStartChar, "invalid attribute name starting character %q", r)
	}
}

func (p *XMLTokenizer) tagEmptyStateParser(r rune) (tokenizerState, error) {
	if r == '>' {
		p.nodeBuilder.EnableSelfClosing()
		return p.emitTag(), nil
	}
	// anything other than '>' is silently dropped here
	return tagEmptyState, nil
}

func (p *XMLTokenizer) tagAttributeNameStateParser(r rune) (tokenizerState, error) {
	switch {
	case isNameChar(r):
		p.nodeBuilder.WriteAttributeName(r)
		return tagAttributeNameState, nil
	case isWhiteSpace(r):
		return tagAttributeState, nil
	case r == '=':
		return tagAttributeValueState, nil
	default:
		return tagAttributeNameState, errors.Wrapf(ErrInvalidNameChar, "invalid attribute name character %q", r)
	}
}

func (p *XMLTokenizer) tagAttributeStateParser(r rune) (tokenizerState, error) {
	if r == '=' {
		return tagAttributeValueState, nil
	}
	// whitespace and anything unexpected are both dropped while waiting
	// for the '='
	return tagAttributeState, nil
}

func (p *XMLTokenizer) tagAttributeValueStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	if !b.valueStarted {
		switch {
		case isWhiteSpace(r):
			return tagAttributeValueState, nil
		case p.strict && r != '\'':
			return tagAttributeValueState, errors.Wrapf(ErrInvalidAttributeValueStart, "attribute value opened with %q", r)
		case isQuotationMark(r):
			b.quotationMark = r
			b.valueStarted = true
			return tagAttributeValueState, nil
		default:
			// unquoted value, the character is the first value character
			b.valueStarted = true
			b.WriteAttributeValue(r)
			return tagAttributeValueState, nil
		}
	}

	if b.escaped {
		c, err := escapeChar(r)
		if err != nil {
			return tagAttributeValueState, err
		}
		b.WriteAttributeValue(c)
		b.escaped = false
		return tagAttributeValueState, nil
	}

	switch {
	case b.quotationMark != 0 && r == '\\':
		b.escaped = true
		return tagAttributeValueState, nil
	case b.quotationMark != 0 && r == b.quotationMark:
		b.CommitAttribute()
		return tagState, nil
	case b.quotationMark == 0 && isWhiteSpace(r):
		b.CommitAttribute()
		return tagState, nil
	case b.quotationMark == 0 && r == '>':
		b.CommitAttribute()
		return p.emitTag(), nil
	default:
		b.WriteAttributeValue(r)
		return tagAttributeValueState, nil
	}
}

func (p *XMLTokenizer) closingTagNameStateParser(r rune) (tokenizerState, error) {
	if p.nodeBuilder.name.Len() == 0 {
		if isNameStartChar(r) {
			p.nodeBuilder.WriteName(r)
			return closingTagNameState, nil
		}
		return closingTagNameState, errors.Wrapf(ErrInvalidStartChar, "invalid closing tag name starting character %q", r)
	}

	switch {
	case isNameChar(r):
		p.nodeBuilder.WriteName(r)
		return closingTagNameState, nil
	case isWhiteSpace(r):
		return closingTagNameState, nil
	case r == '>':
		p.emit(p.nodeBuilder.CloseTagNode())
		p.nodeBuilder.NewNode()
		return textState, nil
	default:
		return closingTagNameState, errors.Wrapf(ErrInvalidNameChar, "invalid closing tag name character %q", r)
	}
}

func (p *XMLTokenizer) processingInstructionNameStateParser(r rune) (tokenizerState, error) {
	if !isWhiteSpace(r) {
		p.nodeBuilder.WriteName(r)
		return processingInstructionNameState, nil
	}
	if strings.EqualFold(p.nodeBuilder.name.String(), "xml") {
		p.nodeBuilder.name.Reset()
		return xmlDeclState, nil
	}
	return processingInstructionState, nil
}

func (p *XMLTokenizer) processingInstructionStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	if b.ending {
		if r == '>' {
			p.emit(b.ProcessingInstructionNode())
			b.NewNode()
			return textState, nil
		}
		// the '?' was not closing the instruction, keep it as body text
		b.ending = false
		b.WriteData('?')
	}

	if r == '?' {
		b.ending = true
		return processingInstructionState, nil
	}
	if p.strict && !isChar(r) {
		return processingInstructionState, errors.Wrapf(ErrInvalidCharacter, "%q in processing instruction", r)
	}
	b.WriteData(r)
	return processingInstructionState, nil
}

func (p *XMLTokenizer) xmlDeclStateParser(r rune) (tokenizerState, error) {
	switch {
	case isWhiteSpace(r):
		return xmlDeclState, nil
	case r == '?':
		return xmlDeclEndState, nil
	case isNameStartChar(r):
		p.nodeBuilder.WriteAttributeName(r)
		return xmlDeclAttributeNameState, nil
	default:
		return xmlDeclState, errors.Wrapf(ErrInvalidStartChar, "invalid xml declaration character %q", r)
	}
}

func (p *XMLTokenizer) xmlDeclAttributeNameStateParser(r rune) (tokenizerState, error) {
	switch {
	case isNameChar(r):
		p.nodeBuilder.WriteAttributeName(r)
		return xmlDeclAttributeNameState, nil
	case isWhiteSpace(r):
		return xmlDeclAttributeState, nil
	case r == '=':
		return xmlDeclAttributeValueState, nil
	default:
		return xmlDeclAttributeNameState, errors.Wrapf(ErrInvalidNameChar, "invalid xml declaration attribute name character %q", r)
	}
}

func (p *XMLTokenizer) xmlDeclAttributeStateParser(r rune) (tokenizerState, error) {
	if r == '=' {
		return xmlDeclAttributeValueState, nil
	}
	return xmlDeclAttributeState, nil
}

func (p *XMLTokenizer) xmlDeclAttributeValueStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	if !b.valueStarted {
		switch {
		case isWhiteSpace(r):
			return xmlDeclAttributeValueState, nil
		case p.strict && r != '\'':
			return xmlDeclAttributeValueState, errors.Wrapf(ErrInvalidAttributeValueStart, "attribute value opened with %q", r)
		case isQuotationMark(r):
			b.quotationMark = r
			b.valueStarted = true
			return xmlDeclAttributeValueState, nil
		default:
			b.valueStarted = true
			b.WriteAttributeValue(r)
			return xmlDeclAttributeValueState, nil
		}
	}

	if b.escaped {
		c, err := escapeChar(r)
		if err != nil {
			return xmlDeclAttributeValueState, err
		}
		b.WriteAttributeValue(c)
		b.escaped = false
		return xmlDeclAttributeValueState, nil
	}

	switch {
	case b.quotationMark != 0 && r == '\\':
		b.escaped = true
		return xmlDeclAttributeValueState, nil
	case b.quotationMark != 0 && r == b.quotationMark:
		b.CommitAttribute()
		return xmlDeclState, nil
	case b.quotationMark == 0 && isWhiteSpace(r):
		b.CommitAttribute()
		return xmlDeclState, nil
	case b.quotationMark == 0 && r == '?':
		b.CommitAttribute()
		return xmlDeclEndState, nil
	default:
		b.WriteAttributeValue(r)
		return xmlDeclAttributeValueState, nil
	}
}

func (p *XMLTokenizer) xmlDeclEndStateParser(r rune) (tokenizerState, error) {
	if r == '>' {
		p.emit(p.nodeBuilder.XMLDeclNode())
		p.nodeBuilder.NewNode()
		return textState, nil
	}
	// anything other than '>' is silently dropped here
	return xmlDeclEndState, nil
}

func (p *XMLTokenizer) commentStartStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	switch {
	case r == '[' && b.delimCount == 0:
		return cdataStartState, nil
	case r == '-':
		b.delimCount++
		if b.delimCount == 2 {
			b.delimCount = 0
			return commentState, nil
		}
		return commentStartState, nil
	default:
		return commentStartState, errors.Wrapf(ErrInvalidStartChar, "invalid comment starting character %q", r)
	}
}

func (p *XMLTokenizer) commentStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	if r == '-' {
		// deferred: these dashes are either part of the closing
		// delimiter or comment text, we don't know yet
		b.delimCount++
		return commentState, nil
	}

	if r == '>' && b.delimCount >= 2 {
		if p.strict && b.delimCount > 2 {
			return commentState, errors.Wrapf(ErrMalformedCommentDelimiter, "comment closed with %d dashes", b.delimCount)
		}
		for i := 0; i < b.delimCount-2; i++ {
			b.WriteData('-')
		}
		p.emit(b.CommentNode())
		b.NewNode()
		return textState, nil
	}

	if b.delimCount > 0 {
		if p.strict && (b.delimCount >= 2 || b.data.Len() == 0) {
			return commentState, errors.Wrapf(ErrMalformedCommentDelimiter, "bare %q inside comment", strings.Repeat("-", b.delimCount))
		}
		for i := 0; i < b.delimCount; i++ {
			b.WriteData('-')
		}
		b.delimCount = 0
	}
	if p.strict && !isChar(r) {
		return commentState, errors.Wrapf(ErrInvalidCharacter, "%q in comment", r)
	}
	b.WriteData(r)
	return commentState, nil
}

func (p *XMLTokenizer) cdataStartStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	b.WritePrologue(r)
	seen := b.prologue.String()
	if !strings.HasPrefix(cdataPrologue, seen) {
		return cdataStartState, errors.Wrapf(ErrMalformedCDataPrologue, "%q", "<!["+seen)
	}
	if seen == cdataPrologue {
		return cdataState, nil
	}
	return cdataStartState, nil
}

func (p *XMLTokenizer) cdataStateParser(r rune) (tokenizerState, error) {
	b := p.nodeBuilder
	if r == ']' {
		b.delimCount++
		return cdataState, nil
	}

	if r == '>' && b.delimCount >= 2 {
		for i := 0; i < b.delimCount-2; i++ {
			b.WriteData(']')
		}
		p.emit(b.CDataNode())
		b.NewNode()
		return textState, nil
	}

	if b.delimCount > 0 {
		for i := 0; i < b.delimCount; i++ {
			b.WriteData(']')
		}
		b.delimCount = 0
	}
	if p.strict && !isChar(r) {
		return cdataState, errors.Wrapf(ErrInvalidCharacter, "%q in cdata section", r)
	}
	b.WriteData(r)
	return cdataState, nil
}

//go:generate stringer -type=tokenizerState
type tokenizerState uint

const (
	textState tokenizerState = iota
	tagNameState
	tagState
	tagEmptyState
	tagAttributeNameState
	tagAttributeState
	tagAttributeValueState
	closingTagNameState
	processingInstructionNameState
	processingInstructionState
	xmlDeclState
	xmlDeclAttributeNameState
	xmlDeclAttributeState
	xmlDeclAttributeValueState
	xmlDeclEndState
	commentStartState
	commentState
	cdataStartState
	cdataState
)

// Write queues more input for the tokenizer. It never blocks; the
// queued text is only consumed by Next.
func (p *XMLTokenizer) Write(text string) error {
	if p.closed {
		return errors.Wrap(ErrWriteAfterClose, "write")
	}
	p.queue = append(p.queue, []rune(text)...)
	return nil
}

// Close marks that no further input will arrive, optionally queueing
// one final chunk first. Closing an already closed tokenizer is a
// no-op.
func (p *XMLTokenizer) Close(final ...string) error {
	if p.closed {
		return nil
	}
	for _, text := range final {
		if err := p.Write(text); err != nil {
			return err
		}
	}
	p.closed = true
	return nil
}

// Next consumes queued input until one node is completed and returns
// it, leaving the remaining input queued for the next call. A nil node
// with a nil error means no node can be completed yet: either more
// input is needed, or a closed tokenizer has been fully drained. Once
// the tokenizer is closed, ending inside a construct is an error.
func (p *XMLTokenizer) Next() (*Node, error) {
	for len(p.queue) > 0 {
		r := p.queue[0]
		p.queue = p.queue[1:]
		if err := p.processRune(r); err != nil {
			return nil, err
		}
		if p.pendingNode != nil {
			node := p.pendingNode
			p.pendingNode = nil
			return node, nil
		}
	}

	if !p.closed {
		return nil, nil
	}
	if p.currentState != textState {
		return nil, errors.Wrapf(ErrUnexpectedEOF, "in state %s", p.currentState)
	}
	if text := p.nodeBuilder.FlushText(); text != "" {
		return p.nodeBuilder.TextNode(text), nil
	}
	return nil, nil
}

func (p *XMLTokenizer) processRune(r rune) error {
	next, err := p.stateToParser(p.currentState)(r)
	if err != nil {
		return err
	}
	logrus.Tracef("[TOKEN] rune: %q, state: %s -> %s", r, p.currentState, next)
	p.currentState = next
	return nil
}
