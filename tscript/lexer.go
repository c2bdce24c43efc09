package tscript

import (
	"strings"
	"unicode"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/internal/lex"
)

const (
	tEOF lex.Type = lex.EOF
	tIdent lex.Type = iota
	tInt
	tComma
	tSemicolon
	tPercent
	tDot
	tLt
	tGt
	tLBracket
	tRBracket
	tMinus
	tError
)

func lexInit(l *lex.Lexer) lex.StateFn {
	for {
		r := l.Next()
		switch {
		case r == -1:
			l.Emit(tEOF, nil)
			return lexEOF
		case unicode.IsSpace(r):
			l.Ignore()
			continue
		case r == '/' && l.Peek() == '/':
			l.Next()
			l.AcceptWhile(func(r rune) bool { return r != '\n' })
			l.Ignore()
			continue
		case unicode.IsLetter(r) || r == '_':
			return lexIdent
		case '0' <= r && r <= '9':
			return lexNumber
		case r == ',':
			l.Emit(tComma, ",")
			continue
		case r == ';':
			l.Emit(tSemicolon, ";")
			continue
		case r == '%':
			l.Emit(tPercent, "%")
			continue
		case r == '.':
			l.Emit(tDot, ".")
			continue
		case r == '<':
			l.Emit(tLt, "<")
			continue
		case r == '>':
			l.Emit(tGt, ">")
			continue
		case r == '[':
			l.Emit(tLBracket, "[")
			continue
		case r == ']':
			l.Emit(tRBracket, "]")
			continue
		case r == '-':
			l.Emit(tMinus, "-")
			continue
		default:
			l.Emit(tError, "unexpected character '"+string(r)+"'")
			return lexEOF
		}
	}
}

func lexIdent(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.WriteRune(l.Current())
	for {
		r := l.Next()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '/' || r == '-' {
			buf.WriteRune(r)
			continue
		}
		l.Backup()
		break
	}
	l.Emit(tIdent, buf.String())
	return lexInit
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.WriteRune(l.Current())
	isHex := false
	if l.Current() == '0' {
		if n := l.Peek(); n == 'x' || n == 'X' {
			buf.WriteRune(l.Next())
			isHex = true
		}
	}
	for {
		r := l.Next()
		if unicode.IsDigit(r) || (isHex && isHexDigit(r)) {
			buf.WriteRune(r)
			continue
		}
		l.Backup()
		break
	}
	l.Emit(tInt, buf.String())
	return lexInit
}

func isHexDigit(r rune) bool {
	return '0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}

func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(tEOF, nil)
	return lexEOF
}

type lexer struct {
	file string
	l    *lex.Lexer
}

func newLexer(file, src string) *lexer {
	return &lexer{file: file, l: lex.NewString(file, src, lexInit)}
}

func (lx *lexer) next() lex.Item { return lx.l.Lex() }

func (lx *lexer) pos(p lex.Pos) herr.Pos {
	return herr.Pos{File: lx.file, Line: p.Line, Col: p.Col}
}
