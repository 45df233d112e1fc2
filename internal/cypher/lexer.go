package cypher

import (
	"fmt"
	"strings"
	"unicode"
)

// SpanKind classifies a highlight span.
type SpanKind int

const (
	SpanKeyword     SpanKind = iota // MATCH, WHERE, ...
	SpanFunction                    // identifier followed by '('
	SpanIdent                       // variable or property
	SpanLabel                       // label or relationship type after ':'
	SpanString                      // "..." or '...'
	SpanNumber                      // integer or decimal
	SpanOperator                    // = <> < > =~ + - * / % ^ and arrows
	SpanPunctuation                 // ( ) [ ] { } , : .
)

var spanNames = [...]string{
	SpanKeyword:     "keyword",
	SpanFunction:    "function",
	SpanIdent:       "identifier",
	SpanLabel:       "label",
	SpanString:      "string",
	SpanNumber:      "number",
	SpanOperator:    "operator",
	SpanPunctuation: "punctuation",
}

func (k SpanKind) String() string {
	if int(k) < len(spanNames) {
		return spanNames[k]
	}
	return fmt.Sprintf("SpanKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output.
func (k SpanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Span is a highlighted byte range of the rendered text.
type Span struct {
	Kind  SpanKind `json:"kind"`
	Text  string   `json:"text"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// keywords lists the uppercase keywords emitted by the builder's blocks.
var keywords = map[string]bool{
	"MATCH": true, "OPTIONAL": true, "MERGE": true, "WHERE": true,
	"RETURN": true, "WITH": true, "ORDER": true, "BY": true,
	"LIMIT": true, "SKIP": true, "AND": true, "OR": true, "XOR": true,
	"NOT": true, "AS": true, "DISTINCT": true, "CONTAINS": true,
	"STARTS": true, "ENDS": true, "ASC": true, "DESC": true,
	"UNION": true, "UNWIND": true, "EXISTS": true, "IS": true,
	"NULL": true, "CYPHER": true, "PROFILE": true, "EXPLAIN": true,
	"TRUE": true, "FALSE": true,
}

var punctuation = map[byte]bool{
	'(': true, ')': true, '[': true, ']': true,
	'{': true, '}': true, ',': true, ':': true, '.': true,
}

// lexer splits rendered query text into spans. It never fails: unknown
// characters become operator spans and an unterminated string runs to the
// end of the input.
type lexer struct {
	input string
	pos   int
	spans []Span
}

// Tokenize splits text into highlight spans. Whitespace is not reported.
func Tokenize(text string) []Span {
	l := &lexer{input: text}
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsSpace(rune(ch)) {
			l.pos++
			continue
		}
		l.next(ch)
	}
	return l.spans
}

func (l *lexer) next(ch byte) {
	switch {
	case ch == '"' || ch == '\'':
		l.lexString(ch)
	case ch == '`':
		l.lexQuotedIdent()
	case isDigit(ch):
		l.lexNumber()
	case isIdentStart(ch):
		l.lexIdent()
	case ch == '<' && l.peek(1) == '-':
		l.emit(SpanOperator, 2)
	case ch == '-' && l.peek(1) == '>':
		l.emit(SpanOperator, 2)
	case ch == '<' && l.peek(1) == '>':
		l.emit(SpanOperator, 2)
	case (ch == '<' || ch == '>') && l.peek(1) == '=':
		l.emit(SpanOperator, 2)
	case ch == '=' && l.peek(1) == '~':
		l.emit(SpanOperator, 2)
	case punctuation[ch]:
		l.emit(SpanPunctuation, 1)
	default:
		l.emit(SpanOperator, 1)
	}
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *lexer) emit(kind SpanKind, n int) {
	l.spans = append(l.spans, Span{Kind: kind, Text: l.input[l.pos : l.pos+n], Start: l.pos, End: l.pos + n})
	l.pos += n
}

func (l *lexer) emitRange(kind SpanKind, start int) {
	l.spans = append(l.spans, Span{Kind: kind, Text: l.input[start:l.pos], Start: start, End: l.pos})
}

func (l *lexer) lexString(quote byte) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.pos += 2
			continue
		}
		l.pos++
		if ch == quote {
			break
		}
	}
	l.emitRange(SpanString, start)
}

func (l *lexer) lexQuotedIdent() {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && l.input[l.pos] != '`' {
		l.pos++
	}
	if l.pos < len(l.input) {
		l.pos++
	}
	l.emitRange(l.identKind(), start)
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	l.emitRange(SpanNumber, start)
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]
	switch {
	case l.prevText() == ":":
		l.emitRange(SpanLabel, start)
	case l.peek(0) == '(':
		l.emitRange(SpanFunction, start)
	case keywords[strings.ToUpper(word)] && l.prevText() != ".":
		l.emitRange(SpanKeyword, start)
	default:
		l.emitRange(SpanIdent, start)
	}
}

func (l *lexer) identKind() SpanKind {
	if l.prevText() == ":" {
		return SpanLabel
	}
	return SpanIdent
}

// prevText returns the text of the last emitted span.
func (l *lexer) prevText() string {
	if len(l.spans) == 0 {
		return ""
	}
	return l.spans[len(l.spans)-1].Text
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
