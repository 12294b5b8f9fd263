// SPDX-License-Identifier: GPL-2.0-or-later

package vcd

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemString // quoted string, quotes stripped
	itemWord   // anything unquoted and not a brace
	itemOpen   // '{'
	itemClose  // '}'
)

const eof = -1

type item struct {
	typ  itemType
	val  string
	line int
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type stateFn func(*lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	width int
	line  int
	items chan item
	state stateFn
}

func lex(input string) *lexer {
	return &lexer{
		input: input,
		line:  1,
		items: make(chan item, 2),
		state: lexAction,
	}
}

func (l *lexer) nextItem() item {
	for {
		select {
		case item := <-l.items:
			return item
		default:
			if l.state == nil {
				return item{itemEOF, "", l.line}
			}
			l.state = l.state(l)
		}
	}
}

func (l *lexer) emitValue(t itemType, v string) {
	l.items <- item{t, v, l.line}
	l.ignore()
}

func (l *lexer) emit(t itemType) {
	l.emitValue(t, l.input[l.start:l.pos])
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += l.width
	return r
}

func (l *lexer) ignore() {
	l.line += strings.Count(l.input[l.start:l.pos], "\n")
	l.start = l.pos
}

func (l *lexer) backup() {
	l.pos -= l.width
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{
		itemError,
		fmt.Sprintf("line %d: ", l.line) + fmt.Sprintf(format, args...),
		l.line,
	}
	return nil
}

func lexAction(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		l.emit(itemEOF)
		return nil
	case isSpace(r):
		return lexSpace
	case r == '"':
		return lexQuote
	case r == '{':
		l.emit(itemOpen)
		return lexAction
	case r == '}':
		l.emit(itemClose)
		return lexAction
	case r == '/':
		// special look-ahead so we don't break l.backup().
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '/':
				return lexLineComment
			case '*':
				return lexBlockComment
			}
		}
		fallthrough
	default:
		l.backup()
		return lexWord
	}
}

func lexSpace(l *lexer) stateFn {
	for isSpace(l.peek()) {
		l.next()
	}
	l.ignore()
	return lexAction
}

func lexLineComment(l *lexer) stateFn {
	for {
		r := l.next()
		if r == eof || r == '\n' {
			break
		}
	}
	l.ignore()
	return lexAction
}

func lexBlockComment(l *lexer) stateFn {
	i := strings.Index(l.input[l.pos:], "*/")
	if i < 0 {
		return l.errorf("unterminated comment")
	}
	l.pos += i + 2
	l.ignore()
	return lexAction
}

func lexQuote(l *lexer) stateFn {
Loop:
	for {
		switch l.next() {
		case '"':
			break Loop
		case eof, '\n':
			return l.errorf("unterminated string")
		}
	}
	l.emitValue(itemString, l.input[l.start+1:l.pos-1])
	return lexAction
}

func lexWord(l *lexer) stateFn {
	for {
		r := l.next()
		if r == eof || isSpace(r) || r == '"' || r == '{' || r == '}' {
			l.backup()
			break
		}
	}
	l.emit(itemWord)
	return lexAction
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
