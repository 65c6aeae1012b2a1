// Package syntax reads functions written in the textual block format.
package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// Pos represents a line and column in the source, both starting at one.
type Pos struct {
	Line int
	Col  int
}

// String returns the position as "line:col".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error represents a syntax error at a position in the source.
type Error struct {
	Pos Pos
	Msg string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// SExp represents an S-expression: either a list or a symbol.
type SExp interface {
	Pos() Pos
	String() string
}

// List represents a list of zero or more S-expressions.
type List struct {
	Elements []SExp
	pos      Pos
}

// Pos returns the position of the opening parenthesis.
func (l *List) Pos() Pos { return l.pos }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.Elements) }

// Head returns the first element as a symbol value, or a blank string.
func (l *List) Head() string {
	if len(l.Elements) == 0 {
		return ""
	}
	if sym, ok := l.Elements[0].(*Symbol); ok {
		return sym.Value
	}
	return ""
}

// String returns the string representation of the list.
func (l *List) String() string {
	a := make([]string, len(l.Elements))
	for i := range l.Elements {
		a[i] = l.Elements[i].String()
	}
	return "(" + strings.Join(a, " ") + ")"
}

// Symbol represents a terminal symbol.
type Symbol struct {
	Value string
	pos   Pos
}

// Pos returns the position of the first character of the symbol.
func (s *Symbol) Pos() Pos { return s.pos }

// String returns the symbol value.
func (s *Symbol) String() string { return s.Value }

// Reader reads S-expressions from source text. Comments run from ';' to the
// end of the line.
type Reader struct {
	text  []rune
	index int
	line  int
	col   int
}

// NewReader returns a reader over src.
func NewReader(src string) *Reader {
	return &Reader{text: []rune(src), line: 1, col: 1}
}

// ReadAll returns every S-expression in src.
func ReadAll(src string) ([]SExp, error) {
	r := NewReader(src)

	var a []SExp
	for {
		e, err := r.Read()
		if err != nil {
			return nil, err
		} else if e == nil {
			return a, nil
		}
		a = append(a, e)
	}
}

// Read returns the next S-expression. Returns nil at end of input.
func (r *Reader) Read() (SExp, error) {
	r.skipWhiteSpace()
	if r.index == len(r.text) {
		return nil, nil
	}

	pos := r.pos()
	switch r.text[r.index] {
	case ')':
		return nil, r.error("unexpected end-of-list")
	case '(':
		r.advance()
		l, err := r.readList(pos)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return &Symbol{Value: r.readSymbol(), pos: pos}, nil
	}
}

func (r *Reader) readList(pos Pos) (*List, error) {
	l := &List{pos: pos}
	for {
		r.skipWhiteSpace()
		if r.index == len(r.text) {
			return nil, &Error{Pos: pos, Msg: "unexpected end-of-file in list"}
		} else if r.text[r.index] == ')' {
			r.advance()
			return l, nil
		}

		e, err := r.Read()
		if err != nil {
			return nil, err
		}
		l.Elements = append(l.Elements, e)
	}
}

func (r *Reader) readSymbol() string {
	start := r.index
	for r.index < len(r.text) {
		c := r.text[r.index]
		if c == '(' || c == ')' || c == ';' || unicode.IsSpace(c) {
			break
		}
		r.advance()
	}
	return string(r.text[start:r.index])
}

func (r *Reader) skipWhiteSpace() {
	for r.index < len(r.text) {
		if c := r.text[r.index]; c == ';' {
			for r.index < len(r.text) && r.text[r.index] != '\n' {
				r.advance()
			}
		} else if unicode.IsSpace(c) {
			r.advance()
		} else {
			return
		}
	}
}

func (r *Reader) advance() {
	if r.text[r.index] == '\n' {
		r.line, r.col = r.line+1, 1
	} else {
		r.col++
	}
	r.index++
}

func (r *Reader) pos() Pos { return Pos{Line: r.line, Col: r.col} }

func (r *Reader) error(msg string) *Error {
	return &Error{Pos: r.pos(), Msg: msg}
}
