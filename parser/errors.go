package parser

import "github.com/pkg/errors"

// The tokenizer fails fast: none of these are recoverable for the
// construct being lexed, and an instance that returned one of them
// should be discarded. Callers can still test which rule was broken
// with errors.Is.
var (
	// ErrInvalidStartChar is returned for an illegal first character of
	// a tag name, closing tag name, attribute name, comment opener or
	// XML declaration body.
	ErrInvalidStartChar = errors.New("invalid starting character")

	// ErrInvalidNameChar is returned for an illegal character while
	// accumulating a tag or attribute name.
	ErrInvalidNameChar = errors.New("invalid name character")

	// ErrInvalidAttributeValueStart is returned in strict mode when an
	// attribute value opens with anything other than a single quote.
	ErrInvalidAttributeValueStart = errors.New("invalid attribute value starting character")

	// ErrInvalidEscapeChar is returned when a backslash escape in an
	// attribute value is followed by an unsupported character.
	ErrInvalidEscapeChar = errors.New("unexpected escape character")

	// ErrInvalidCharacter is returned in strict mode for characters
	// outside the XML character ranges inside processing instruction,
	// comment and CDATA bodies.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrMalformedCommentDelimiter is returned in strict mode for a
	// bare dash run inside a comment body or a closing delimiter with
	// more than two dashes.
	ErrMalformedCommentDelimiter = errors.New("malformed comment delimiter")

	// ErrMalformedCDataPrologue is returned when the sequence after
	// "<![" stops being a prefix of "CDATA[".
	ErrMalformedCDataPrologue = errors.New("invalid cdata starting sequence")

	// ErrWriteAfterClose is returned by Write once Close has been called.
	ErrWriteAfterClose = errors.New("parse is closed")

	// ErrUnexpectedEOF is returned when the input is closed while the
	// tokenizer is still inside a construct.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")
)
