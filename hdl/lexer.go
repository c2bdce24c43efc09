package hdl

import (
	"strings"
	"unicode"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/internal/lex"
)

// Token types.
const (
	tEOF lex.Type = lex.EOF
	tIdent lex.Type = iota
	tInt
	tKeyword
	tLBrace
	tRBrace
	tLParen
	tRParen
	tLBracket
	tRBracket
	tComma
	tSemicolon
	tColon
	tEqual
	tRange
	tMinus
	tPlus
	tLt
	tGt
	tTrue
	tFalse
	tError
)

var keywords = map[string]lex.Type{
	"CHIP":     tKeyword,
	"IN":       tKeyword,
	"OUT":      tKeyword,
	"PARTS":    tKeyword,
	"FOR":      tKeyword,
	"TO":       tKeyword,
	"GENERATE": tKeyword,
	"true":     tTrue,
	"false":    tFalse,
}

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
		case r == '/':
			n := l.Peek()
			if n == '/' {
				l.Next()
				l.AcceptWhile(func(r rune) bool { return r != '\n' })
				l.Ignore()
				continue
			}
			if n == '*' {
				l.Next()
				return lexBlockComment
			}
			l.Emit(tError, "unexpected '/'")
			return lexEOF
		case unicode.IsLetter(r) || r == '_':
			return lexIdent
		case '0' <= r && r <= '9':
			return lexNumber
		case r == '{':
			l.Emit(tLBrace, "{")
			continue
		case r == '}':
			l.Emit(tRBrace, "}")
			continue
		case r == '(':
			l.Emit(tLParen, "(")
			continue
		case r == ')':
			l.Emit(tRParen, ")")
			continue
		case r == '[':
			l.Emit(tLBracket, "[")
			continue
		case r == ']':
			l.Emit(tRBracket, "]")
			continue
		case r == ',':
			l.Emit(tComma, ",")
			continue
		case r == ';':
			l.Emit(tSemicolon, ";")
			continue
		case r == ':':
			l.Emit(tColon, ":")
			continue
		case r == '=':
			l.Emit(tEqual, "=")
			continue
		case r == '-':
			l.Emit(tMinus, "-")
			continue
		case r == '+':
			l.Emit(tPlus, "+")
			continue
		case r == '<':
			l.Emit(tLt, "<")
			continue
		case r == '>':
			l.Emit(tGt, ">")
			continue
		case r == '.':
			n := l.Next()
			if n == '.' {
				l.Emit(tRange, "..")
				continue
			}
			l.Backup()
			l.Emit(tError, "unexpected '.'")
			return lexEOF
		default:
			l.Emit(tError, "unexpected character '"+string(r)+"'")
			return lexEOF
		}
	}
}

// lexBlockComment scans a flat (non-nesting) /* ... */ comment: the first
// */ closes it regardless of any nested /* seen along the way.
func lexBlockComment(l *lex.Lexer) lex.StateFn {
	for {
		r := l.Next()
		if r == -1 {
			l.Emit(tError, "unterminated block comment")
			return lexEOF
		}
		if r == '*' && l.Peek() == '/' {
			l.Next()
			l.Ignore()
			return lexInit
		}
	}
}

func lexIdent(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.WriteRune(l.Current())
	for {
		r := l.Next()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			buf.WriteRune(r)
			continue
		}
		l.Backup()
		break
	}
	s := buf.String()
	if t, ok := keywords[s]; ok {
		l.Emit(t, s)
	} else {
		l.Emit(tIdent, s)
	}
	return lexInit
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	i := int(l.Current() - '0')
	for {
		r := l.Next()
		if '0' <= r && r <= '9' {
			i = i*10 + int(r-'0')
			continue
		}
		l.Backup()
		break
	}
	l.Emit(tInt, i)
	return lexInit
}

func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(tEOF, nil)
	return lexEOF
}

// lexer wraps *lex.Lexer with positions translated into herr.Pos carrying
// the source file name.
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
