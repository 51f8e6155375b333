package parser

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// runes decoded per chunk before handing off to the tokenizer
const chunkSize = 4096

// Parser drives an XMLTokenizer over a byte stream. It decodes the
// stream as UTF-8 one chunk at a time, writes each chunk to the
// tokenizer and fully drains the available nodes before reading
// further, so node order always matches input arrival order.
type Parser struct {
	Tokenizer   *XMLTokenizer
	inputStream *bufio.Reader
}

func NewParser(xmlIn io.Reader, strict bool) *Parser {
	return &Parser{
		Tokenizer:   NewXMLTokenizer(strict),
		inputStream: bufio.NewReader(xmlIn),
	}
}

// Each reads the stream to completion, calling fn for every node in
// emission order. A non-nil error from fn stops the parse and is
// returned as-is.
func (p *Parser) Each(fn func(*Node) error) error {
	buf := make([]rune, 0, chunkSize)
	for {
		r, _, err := p.inputStream.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "read input stream")
		}

		buf = append(buf, r)
		if len(buf) < chunkSize {
			continue
		}
		if err := p.feed(string(buf), fn); err != nil {
			return err
		}
		buf = buf[:0]
	}

	if err := p.Tokenizer.Close(string(buf)); err != nil {
		return err
	}
	return p.drain(fn)
}

// ParseAll reads the stream to completion and returns every node in
// emission order.
func (p *Parser) ParseAll() ([]*Node, error) {
	var nodes []*Node
	err := p.Each(func(node *Node) error {
		nodes = append(nodes, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *Parser) feed(chunk string, fn func(*Node) error) error {
	logrus.Debugf("[PARSE] feeding %d runes", len(chunk))
	if err := p.Tokenizer.Write(chunk); err != nil {
		return err
	}
	return p.drain(fn)
}

// drain pulls every node the tokenizer can currently complete.
func (p *Parser) drain(fn func(*Node) error) error {
	for {
		node, err := p.Tokenizer.Next()
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		if err := fn(node); err != nil {
			return err
		}
	}
}

// Parse tokenizes one complete string. It is equivalent to writing the
// whole input, closing and draining.
func Parse(input string, strict bool) ([]*Node, error) {
	p := NewXMLTokenizer(strict)
	if err := p.Close(input); err != nil {
		return nil, err
	}

	var nodes []*Node
	for {
		node, err := p.Next()
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nodes, nil
		}
		nodes = append(nodes, node)
	}
}
