package tscript

import (
	"strconv"
	"strings"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/internal/lex"
)

// Parse parses a complete test script.
func Parse(file, src string) (*Script, error) {
	p := &parser{lx: newLexer(file, src)}
	p.advance()
	s := &Script{}
	for p.tok.Type != tEOF {
		if p.tok.Type == tComma || p.tok.Type == tSemicolon {
			p.advance()
			continue
		}
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		s.Commands = append(s.Commands, cmd)
	}
	return s, nil
}

type parser struct {
	lx  *lexer
	tok lex.Item
}

func (p *parser) advance() { p.tok = p.lx.next() }
func (p *parser) pos() herr.Pos { return p.lx.pos(p.tok.Pos) }

func (p *parser) errorf(format string, args ...interface{}) error {
	return herr.Newf(herr.ParseError, p.pos(), format, args...)
}

func (p *parser) ident() (string, bool) {
	s, ok := p.tok.Value.(string)
	return s, ok && p.tok.Type == tIdent
}

func (p *parser) parseCommand() (Command, error) {
	at := p.pos()
	name, ok := p.ident()
	if !ok {
		return nil, p.errorf("expected command")
	}
	switch {
	case name == "load" || strings.HasPrefix(name, "load"):
		return p.parseLoad(at, name)
	case name == "output-file":
		p.advance()
		f, err := p.expectPath("output file name")
		if err != nil {
			return nil, err
		}
		return &OutputFile{base{at}, f}, nil
	case name == "compare-to":
		p.advance()
		f, err := p.expectPath("compare-to file name")
		if err != nil {
			return nil, err
		}
		return &CompareTo{base{at}, f}, nil
	case name == "output-list":
		p.advance()
		return p.parseOutputList(at)
	case name == "set":
		p.advance()
		return p.parseSet(at)
	case name == "eval":
		p.advance()
		return &Eval{base{at}}, nil
	case name == "tick":
		p.advance()
		return &Tick{base{at}}, nil
	case name == "tock":
		p.advance()
		return &Tock{base{at}}, nil
	case name == "output":
		p.advance()
		return &Output{base{at}}, nil
	}
	return nil, p.errorf("unknown test-script command %q", name)
}

func (p *parser) expectIdent(what string) (string, error) {
	s, ok := p.ident()
	if !ok {
		return "", p.errorf("expected %s", what)
	}
	p.advance()
	return s, nil
}

// expectPath parses a bare identifier together with any immediately
// following `.` + identifier segments, so that file names such as
// "And.hdl" lex back into a single string even though '.' is its own
// token.
func (p *parser) expectPath(what string) (string, error) {
	s, err := p.expectIdent(what)
	if err != nil {
		return "", err
	}
	for p.tok.Type == tDot {
		s += "."
		p.advance()
		seg, err := p.expectIdent(what)
		if err != nil {
			return "", err
		}
		s += seg
	}
	return s, nil
}

// parseLoad parses `load<g1,g2,...>? FILE`. The lexer never includes '<'
// in an identifier, so "load<8,4>" arrives as the identifier "load"
// followed by a separate `<` ... `>` token sequence holding the generic
// list.
func (p *parser) parseLoad(at herr.Pos, name string) (*Load, error) {
	p.advance()
	var gens []int
	if p.tok.Type == tLt {
		p.advance()
		for {
			n, err := p.expectInt("generic value")
			if err != nil {
				return nil, err
			}
			gens = append(gens, int(n))
			if p.tok.Type == tComma {
				p.advance()
				continue
			}
			break
		}
		if p.tok.Type != tGt {
			return nil, p.errorf("expected '>'")
		}
		p.advance()
	}
	file, err := p.expectPath("file name")
	if err != nil {
		return nil, err
	}
	return &Load{base{at}, gens, file}, nil
}

func (p *parser) expectInt(what string) (int64, error) {
	if p.tok.Type != tInt {
		return 0, p.errorf("expected %s", what)
	}
	s := p.tok.Value.(string)
	p.advance()
	return parseIntLiteral(s)
}

func parseIntLiteral(s string) (int64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseOutputList parses a comma-separated list of
// `name%fmt<space-before>.<columns>.<space-after>` (or bare `name`,
// defaulting to decimal with all three numbers zero) specs.
func (p *parser) parseOutputList(at herr.Pos) (*OutputList, error) {
	ol := &OutputList{base: base{at}}
	for {
		name, err := p.expectIdent("output name")
		if err != nil {
			return nil, err
		}
		spec := OutputSpec{Name: name, Fmt: 'D'}
		if p.tok.Type == tPercent {
			p.advance()
			// The format letter and the leading space-count lex as a
			// single identifier, e.g. "%B3" is the identifier "B3":
			// format B, 3 spaces before the value.
			f, ok := p.ident()
			if !ok || len(f) == 0 {
				return nil, p.errorf("expected output format letter")
			}
			switch f[0] {
			case 'B', 'D', 'X':
				spec.Fmt = f[0]
			default:
				return nil, p.errorf("unknown output format %q", f)
			}
			if len(f) > 1 {
				n, err := parseIntLiteral(f[1:])
				if err != nil {
					return nil, p.errorf("bad space-before count %q", f[1:])
				}
				spec.SpaceBefore = int(n)
			}
			p.advance()
			if p.tok.Type == tDot {
				p.advance()
				n, err := p.expectInt("output column width")
				if err != nil {
					return nil, err
				}
				spec.Columns = int(n)
				if p.tok.Type == tDot {
					p.advance()
					n, err := p.expectInt("space-after count")
					if err != nil {
						return nil, err
					}
					spec.SpaceAfter = int(n)
				}
			}
		}
		ol.Specs = append(ol.Specs, spec)
		if p.tok.Type == tComma {
			p.advance()
			continue
		}
		break
	}
	return ol, nil
}

func (p *parser) parseSet(at herr.Pos) (*Set, error) {
	name, err := p.expectIdent("signal name")
	if err != nil {
		return nil, err
	}
	s := &Set{base: base{at}, Ident: name}
	if p.tok.Type == tLBracket {
		p.advance()
		n, err := p.expectInt("bus index")
		if err != nil {
			return nil, err
		}
		idx := int(n)
		s.Index = &idx
		if p.tok.Type != tRBracket {
			return nil, p.errorf("expected ']'")
		}
		p.advance()
	}
	neg := false
	if p.tok.Type == tMinus {
		neg = true
		p.advance()
	}
	if p.tok.Type == tInt {
		v, err := p.expectInt("value")
		if err != nil {
			return nil, err
		}
		if neg {
			v = -v
		}
		s.Value = v
		return s, nil
	}
	if id, ok := p.ident(); ok {
		switch id {
		case "true":
			s.Value = 1
		case "false":
			s.Value = 0
		default:
			return nil, p.errorf("expected a value")
		}
		p.advance()
		return s, nil
	}
	return nil, p.errorf("expected a value")
}
