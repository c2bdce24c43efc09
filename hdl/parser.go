package hdl

import (
	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/internal/lex"
)

// Parse parses a single chip-definition source file.
func Parse(file, src string) (*ChipDef, error) {
	p := &parser{lx: newLexer(file, src), file: file}
	p.advance()
	c, err := p.parseChip()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != tEOF {
		return nil, herr.Newf(herr.ParseError, p.pos(), "unexpected trailing input after chip definition")
	}
	return c, nil
}

type parser struct {
	lx   *lexer
	file string
	tok  lex.Item
}

func (p *parser) advance() { p.tok = p.lx.next() }

func (p *parser) pos() herr.Pos { return p.lx.pos(p.tok.Pos) }

func (p *parser) errorf(format string, args ...interface{}) error {
	return herr.Newf(herr.ParseError, p.pos(), format, args...)
}

func (p *parser) text() string {
	if s, ok := p.tok.Value.(string); ok {
		return s
	}
	return ""
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok.Type != tKeyword || p.text() != kw {
		return p.errorf("expected %q", kw)
	}
	p.advance()
	return nil
}

func (p *parser) expect(t lex.Type, what string) (lex.Item, error) {
	if p.tok.Type != t {
		return lex.Item{}, p.errorf("expected %s", what)
	}
	tok := p.tok
	p.advance()
	return tok, nil
}

// parseChip parses: CHIP ident generics? '{' 'IN' ports ';' 'OUT' ports ';' 'PARTS' ':' body '}'
func (p *parser) parseChip() (*ChipDef, error) {
	at := p.pos()
	if err := p.expectKeyword("CHIP"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tIdent, "chip name")
	if err != nil {
		return nil, err
	}
	c := &ChipDef{Name: nameTok.Value.(string), At: at, File: p.file}

	if p.tok.Type == tLt {
		gens, err := p.parseGenerics()
		if err != nil {
			return nil, err
		}
		c.Generics = gens
	}

	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	ins, err := p.parsePorts()
	if err != nil {
		return nil, err
	}
	c.Inputs = ins
	if _, err := p.expect(tSemicolon, "';'"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("OUT"); err != nil {
		return nil, err
	}
	outs, err := p.parsePorts()
	if err != nil {
		return nil, err
	}
	c.Outputs = outs
	if _, err := p.expect(tSemicolon, "';'"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("PARTS"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tColon, "':'"); err != nil {
		return nil, err
	}
	body, err := p.parseBody(tRBrace)
	if err != nil {
		return nil, err
	}
	c.Body = body
	if _, err := p.expect(tRBrace, "'}'"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) parseGenerics() ([]string, error) {
	if _, err := p.expect(tLt, "'<'"); err != nil {
		return nil, err
	}
	var gens []string
	for {
		id, err := p.expect(tIdent, "generic name")
		if err != nil {
			return nil, err
		}
		gens = append(gens, id.Value.(string))
		if p.tok.Type == tComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tGt, "'>'"); err != nil {
		return nil, err
	}
	return gens, nil
}

func (p *parser) parsePorts() ([]Port, error) {
	var ports []Port
	for {
		at := p.pos()
		id, err := p.expect(tIdent, "port name")
		if err != nil {
			return nil, err
		}
		port := Port{Name: id.Value.(string), At: at}
		if p.tok.Type == tLBracket {
			p.advance()
			w, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			port.Width = w
			if _, err := p.expect(tRBracket, "']'"); err != nil {
				return nil, err
			}
		}
		ports = append(ports, port)
		if p.tok.Type == tComma {
			p.advance()
			continue
		}
		break
	}
	return ports, nil
}

// parseExpr parses an additive expression over int literals and generic
// identifiers: term (('+'|'-') term)*
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == tPlus || p.tok.Type == tMinus {
		op := byte('+')
		if p.tok.Type == tMinus {
			op = '-'
		}
		at := p.pos()
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinExpr{Op: op, L: left, R: right, At: at}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	at := p.pos()
	switch p.tok.Type {
	case tInt:
		v := p.tok.Value.(int)
		p.advance()
		return &ConstExpr{Value: v, At: at}, nil
	case tIdent:
		v := p.tok.Value.(string)
		p.advance()
		return &IdentExpr{Name: v, At: at}, nil
	}
	return nil, p.errorf("expected integer or identifier")
}

// parseBody parses a sequence of part instantiations and generate blocks
// until the `end` token type is reached (without consuming it).
func (p *parser) parseBody(end lex.Type) ([]BodyItem, error) {
	var items []BodyItem
	for p.tok.Type != end {
		if p.tok.Type == tKeyword && p.text() == "FOR" {
			g, err := p.parseGenerate()
			if err != nil {
				return nil, err
			}
			items = append(items, g)
		} else {
			part, err := p.parsePart()
			if err != nil {
				return nil, err
			}
			items = append(items, part)
		}
		if p.tok.Type == tSemicolon {
			p.advance()
		}
	}
	return items, nil
}

func (p *parser) parseGenerate() (*Generate, error) {
	at := p.pos()
	if err := p.expectKeyword("FOR"); err != nil {
		return nil, err
	}
	v, err := p.expect(tIdent, "loop variable")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TO"); err != nil {
		return nil, err
	}
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("GENERATE"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.parseBody(tRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tRBrace, "'}'"); err != nil {
		return nil, err
	}
	return &Generate{Var: v.Value.(string), From: from, To: to, Body: body, At: at}, nil
}

// parsePart parses: ident generics_args? '(' mapping (',' mapping)* ')'
func (p *parser) parsePart() (*Part, error) {
	at := p.pos()
	id, err := p.expect(tIdent, "part name")
	if err != nil {
		return nil, err
	}
	part := &Part{Name: id.Value.(string), At: at}
	if p.tok.Type == tLt {
		p.advance()
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			part.GenericArgs = append(part.GenericArgs, e)
			if p.tok.Type == tComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tGt, "'>'"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	if p.tok.Type != tRParen {
		for {
			m, err := p.parseMapping()
			if err != nil {
				return nil, err
			}
			part.Mappings = append(part.Mappings, m)
			if p.tok.Type == tComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	return part, nil
}

func (p *parser) parseMapping() (Mapping, error) {
	at := p.pos()
	id, err := p.expect(tIdent, "port name")
	if err != nil {
		return Mapping{}, err
	}
	m := Mapping{Port: id.Value.(string), At: at}
	if p.tok.Type == tLBracket {
		s, err := p.parseSlice()
		if err != nil {
			return Mapping{}, err
		}
		m.PortSlice = s
	}
	if _, err := p.expect(tEqual, "'='"); err != nil {
		return Mapping{}, err
	}
	sig, err := p.parseSigExpr()
	if err != nil {
		return Mapping{}, err
	}
	m.Sig = sig
	return m, nil
}

func (p *parser) parseSlice() (*Slice, error) {
	at := p.pos()
	if _, err := p.expect(tLBracket, "'['"); err != nil {
		return nil, err
	}
	lo, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	hi := lo
	if p.tok.Type == tRange {
		p.advance()
		hi, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tRBracket, "']'"); err != nil {
		return nil, err
	}
	return &Slice{Lo: lo, Hi: hi, At: at}, nil
}

func (p *parser) parseSigExpr() (SigExpr, error) {
	at := p.pos()
	switch p.tok.Type {
	case tTrue:
		p.advance()
		return SigExpr{IsConst: true, ConstValue: true, At: at}, nil
	case tFalse:
		p.advance()
		return SigExpr{IsConst: true, ConstValue: false, At: at}, nil
	case tInt:
		v := p.tok.Value.(int)
		p.advance()
		return SigExpr{IsLiteral: true, LiteralVal: v, At: at}, nil
	case tIdent:
		id := p.tok.Value.(string)
		p.advance()
		sig := SigExpr{Ident: id, At: at}
		if p.tok.Type == tLBracket {
			s, err := p.parseSlice()
			if err != nil {
				return SigExpr{}, err
			}
			sig.Slice = s
		}
		return sig, nil
	}
	return SigExpr{}, p.errorf("expected signal expression")
}
