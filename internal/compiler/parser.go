package compiler

import (
	"fmt"

	"github.com/phonon-lang/phonon/internal/tempo"
)

type parser struct {
	toks []token
	pos  int
}

// Parse lexes and parses src into a Program, the phonon-DSL analogue of
// mini.Parse. It does not resolve bus/pattern names or build a graph —
// that is Compile's job, mirroring the two-pass split §4.8 calls for.
func Parse(src string) (*Program, error) {
	lx := newLexer(src)
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) skipBlankLines() {
	for p.cur().kind == tNewline {
		p.next()
	}
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	p.skipBlankLines()
	for p.cur().kind != tEOF {
		if err := p.parseStatement(prog); err != nil {
			return nil, err
		}
		if p.cur().kind != tNewline && p.cur().kind != tEOF {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected end of line, got " + describeToken(p.cur())}
		}
		p.skipBlankLines()
	}
	return prog, nil
}

func (p *parser) parseStatement(prog *Program) error {
	tok := p.cur()
	switch tok.kind {
	case tIdent:
		switch tok.text {
		case "tempo":
			p.next()
			if err := p.expectColon(); err != nil {
				return err
			}
			v, err := p.parseNumberLine()
			if err != nil {
				return err
			}
			prog.Cps = tempo.CpsFromBPM(v)
			prog.HasCps = true
			return nil
		case "cps":
			p.next()
			if err := p.expectColon(); err != nil {
				return err
			}
			v, err := p.parseNumberLine()
			if err != nil {
				return err
			}
			prog.Cps = v
			prog.HasCps = true
			return nil
		case "outmix":
			p.next()
			if err := p.expectColon(); err != nil {
				return err
			}
			if p.cur().kind != tIdent {
				return &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected outmix mode name"}
			}
			prog.OutMix = p.next().text
			return nil
		default:
			if tok.text == "out" || isOutputName(tok.text) {
				p.next()
				if err := p.expectColon(); err != nil {
					return err
				}
				e, err := p.parseExpr()
				if err != nil {
					return err
				}
				prog.Outputs = append(prog.Outputs, OutDecl{Name: tok.text, Expr: e, Line: tok.line})
				return nil
			}
			return &ParseError{Line: tok.line, Col: tok.col, Message: "unexpected statement " + tok.text}
		}
	case tTilde:
		p.next()
		name := p.cur().text
		if p.cur().kind != tIdent {
			return &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected bus name after ~"}
		}
		p.next()
		if err := p.expectColon(); err != nil {
			return err
		}
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		prog.Buses = append(prog.Buses, BusDecl{Name: name, Expr: e, Line: tok.line})
		return nil
	case tPercent:
		p.next()
		if p.cur().kind != tIdent {
			return &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected pattern name after %"}
		}
		name := p.next().text
		if err := p.expectColon(); err != nil {
			return err
		}
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		prog.Pats = append(prog.Pats, PatDecl{Name: name, Expr: e, Line: tok.line})
		return nil
	default:
		return &ParseError{Line: tok.line, Col: tok.col, Message: "unexpected token " + describeToken(tok)}
	}
}

// isOutputName matches "o1", "o2", … the additional output-term names §4.5
// sums into the stereo master alongside the bare `out`.
func isOutputName(s string) bool {
	if len(s) < 2 || s[0] != 'o' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p *parser) expectColon() error {
	if p.cur().kind != tColon {
		return &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected ':', got " + describeToken(p.cur())}
	}
	p.next()
	return nil
}

func (p *parser) parseNumberLine() (float64, error) {
	if p.cur().kind != tNumber {
		return 0, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected a number"}
	}
	return p.next().num, nil
}

// parseExpr is the lowest-precedence entry point: `$` (pattern transform
// suffix), then `#` (effect pipe), then `+ -`, then `* /`, then
// application-by-juxtaposition at the top.
func (p *parser) parseExpr() (Expr, error) {
	return p.parseDollar()
}

func (p *parser) parseDollar() (Expr, error) {
	left, err := p.parseHash()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tDollar {
		line := p.cur().line
		p.next()
		if p.cur().kind != tIdent {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected transform name after $"}
		}
		fn := p.next().text
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		left = &TransformExpr{Left: left, Fn: fn, Args: args, Line: line}
	}
	return left, nil
}

func (p *parser) parseHash() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tHash {
		line := p.cur().line
		p.next()
		if p.cur().kind != tIdent {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected an effect name after #"}
		}
		fn := p.next().text
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "#", Left: left, Right: &CallExpr{Fn: fn, Args: args, Line: line}, Line: line}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tPlus || p.cur().kind == tMinus {
		op := "+"
		if p.cur().kind == tMinus {
			op = "-"
		}
		line := p.cur().line
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tStar || p.cur().kind == tSlash {
		op := "*"
		if p.cur().kind == tSlash {
			op = "/"
		}
		line := p.cur().line
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left, nil
}

// parseCallArgs greedily consumes argument atoms for a `$`/`#` operator's
// right-hand function name, the same juxtaposition rule parsePrimary uses
// for a bare `fn a b c` call.
func (p *parser) parseCallArgs() ([]Expr, error) {
	var args []Expr
	for p.startsArgAtom() {
		a, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func (p *parser) startsArgAtom() bool {
	switch p.cur().kind {
	case tNumber, tString, tTilde, tPercent, tLParen, tIdent:
		return true
	default:
		return false
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.kind {
	case tNumber:
		p.next()
		return &NumberExpr{Value: tok.num, Line: tok.line}, nil
	case tString:
		p.next()
		return &StringExpr{Raw: tok.text, Line: tok.line}, nil
	case tTilde:
		p.next()
		if p.cur().kind != tIdent {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected bus name after ~"}
		}
		name := p.next().text
		return &BusRefExpr{Name: name, Line: tok.line}, nil
	case tPercent:
		p.next()
		if p.cur().kind != tIdent {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected pattern name after %"}
		}
		name := p.next().text
		return &PatternRefExpr{Name: name, Line: tok.line}, nil
	case tLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tRParen {
			return nil, &ParseError{Line: p.cur().line, Col: p.cur().col, Message: "expected ')', got " + describeToken(p.cur())}
		}
		p.next()
		return e, nil
	case tIdent:
		p.next()
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &CallExpr{Fn: tok.text, Args: args, Line: tok.line}, nil
	default:
		return nil, &ParseError{Line: tok.line, Col: tok.col, Message: "unexpected token " + describeToken(tok)}
	}
}

func describeToken(t token) string {
	switch t.kind {
	case tEOF:
		return "end of input"
	case tNewline:
		return "end of line"
	case tNumber:
		return fmt.Sprintf("number %g", t.num)
	case tString:
		return fmt.Sprintf("string %q", t.text)
	case tIdent:
		return "identifier " + t.text
	default:
		return "token"
	}
}
