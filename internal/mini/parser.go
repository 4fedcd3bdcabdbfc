package mini

import (
	"strconv"
	"strings"

	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
)

// Parse compiles mini-notation source text into a pattern.Pattern.
// Grammar (unary suffixes are `*`, `/`, `:`, `(k,n[,r])`, `!` and `@`;
// they apply left to right in the order written, with no precedence
// among them):
//
//	sequence   := stackLayer ("," stackLayer)*
//	stackLayer := term*
//	term       := suffixed
//	suffixed   := primary suffix*
//	primary    := REST | NUMBER | RATIO | IDENT | "[" sequence "]" | "<" stackLayer* ">"
func Parse(src string) (pattern.Pattern, error) {
	p := &parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return pattern.Silence, err
	}
	result, err := p.parseStack()
	if err != nil {
		return pattern.Silence, err
	}
	if p.tok.Kind != TokEOF {
		return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "unexpected trailing input " + describeToken(p.tok)}
	}
	return result, nil
}

type parser struct {
	lex *Lexer
	tok Token
}

func (p *parser) advance() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func describeToken(t Token) string {
	if t.Kind == TokEOF {
		return "end of input"
	}
	return strconv.Quote(t.Text)
}

// parseStack parses a top-level (or bracketed) comma-separated stack of
// fastcat layers.
func (p *parser) parseStack() (pattern.Pattern, error) {
	first, err := p.parseSequence()
	if err != nil {
		return pattern.Silence, err
	}
	layers := []pattern.Pattern{first}
	for p.tok.Kind == TokComma {
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		next, err := p.parseSequence()
		if err != nil {
			return pattern.Silence, err
		}
		layers = append(layers, next)
	}
	if len(layers) == 1 {
		return layers[0], nil
	}
	return pattern.Stack(layers...), nil
}

// parseSequence parses a whitespace-separated run of suffixed terms as
// a single fastcat.
func (p *parser) parseSequence() (pattern.Pattern, error) {
	var terms []pattern.Pattern
	for {
		switch p.tok.Kind {
		case TokEOF, TokComma, TokRBracket, TokRAngle, TokRParen:
			return p.finishSequence(terms), nil
		}
		term, err := p.parseSuffixed()
		if err != nil {
			return pattern.Silence, err
		}
		terms = append(terms, term)
	}
}

func (p *parser) finishSequence(terms []pattern.Pattern) pattern.Pattern {
	if len(terms) == 0 {
		return pattern.Silence
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return pattern.FastCat(terms...)
}

// parseSuffixed parses one primary followed by any number of postfix
// operators, applied left to right: *, /, :, (...), !, @ all attach to
// the immediately preceding result, chaining left to right (e.g.
// "bd*2!" degrades the doubled pattern).
func (p *parser) parseSuffixed() (pattern.Pattern, error) {
	result, err := p.parsePrimary()
	if err != nil {
		return pattern.Silence, err
	}
	for {
		switch p.tok.Kind {
		case TokStar:
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			k, err := p.parseRateArg()
			if err != nil {
				return pattern.Silence, err
			}
			result = pattern.Fast(k, result)
		case TokSlash:
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			k, err := p.parseRateArg()
			if err != nil {
				return pattern.Silence, err
			}
			result = pattern.Slow(k, result)
		case TokColon:
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			if p.tok.Kind != TokNumber {
				return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "expected sample index after ':', got " + describeToken(p.tok)}
			}
			idx, _ := strconv.ParseFloat(p.tok.Text, 64)
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			result = tagBankIndex(result, idx)
		case TokLParen:
			result, err = p.parseEuclidSuffix(result)
			if err != nil {
				return pattern.Silence, err
			}
		case TokBang:
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			if p.tok.Kind == TokNumber {
				n, _ := strconv.Atoi(p.tok.Text)
				if err := p.advance(); err != nil {
					return pattern.Silence, err
				}
				result = repeatPattern(result, n)
			} else {
				result = pattern.Degrade(result)
			}
		case TokAt:
			if err := p.advance(); err != nil {
				return pattern.Silence, err
			}
			result = pattern.Rev(result)
		default:
			return result, nil
		}
	}
}

// parseRateArg parses the numeric (or ratio) argument to `*`/`/`.
func (p *parser) parseRateArg() (rtime.Time, error) {
	switch p.tok.Kind {
	case TokNumber:
		v, _ := strconv.ParseFloat(p.tok.Text, 64)
		if err := p.advance(); err != nil {
			return rtime.Zero, err
		}
		return rtime.FromFloat(v), nil
	case TokRatio:
		t, err := parseRatioText(p.tok.Text, p.tok.Offset)
		if err != nil {
			return rtime.Zero, err
		}
		if err := p.advance(); err != nil {
			return rtime.Zero, err
		}
		return t, nil
	default:
		return rtime.Zero, &ParseError{Offset: p.tok.Offset, Message: "expected a rate after '*' or '/', got " + describeToken(p.tok)}
	}
}

// parseEuclidSuffix parses "(k,n)" or "(k,n,r)" and applies euclid to
// base.
func (p *parser) parseEuclidSuffix(base pattern.Pattern) (pattern.Pattern, error) {
	if err := p.advance(); err != nil {
		return pattern.Silence, err
	}
	k, err := p.parseIntArg()
	if err != nil {
		return pattern.Silence, err
	}
	if p.tok.Kind != TokComma {
		return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "malformed euclid arguments: expected ',' after k"}
	}
	if err := p.advance(); err != nil {
		return pattern.Silence, err
	}
	n, err := p.parseIntArg()
	if err != nil {
		return pattern.Silence, err
	}
	rot := 0
	if p.tok.Kind == TokComma {
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		rot, err = p.parseIntArg()
		if err != nil {
			return pattern.Silence, err
		}
	}
	if p.tok.Kind != TokRParen {
		return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "malformed euclid arguments: expected ')'"}
	}
	if err := p.advance(); err != nil {
		return pattern.Silence, err
	}
	return pattern.EuclidWith(k, n, rot, base), nil
}

func (p *parser) parseIntArg() (int, error) {
	if p.tok.Kind != TokNumber {
		return 0, &ParseError{Offset: p.tok.Offset, Message: "malformed euclid arguments: expected an integer, got " + describeToken(p.tok)}
	}
	n, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return 0, &ParseError{Offset: p.tok.Offset, Message: "malformed euclid arguments: " + err.Error()}
	}
	return n, p.advance()
}

// parsePrimary parses a single atom: rest, number, ratio, identifier,
// bracketed sequence, or angle-bracket alternation.
func (p *parser) parsePrimary() (pattern.Pattern, error) {
	switch p.tok.Kind {
	case TokRest:
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		return pattern.Silence, nil
	case TokNumber:
		v, _ := strconv.ParseFloat(p.tok.Text, 64)
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		return pattern.Pure(pattern.Num(v)), nil
	case TokRatio:
		t, err := parseRatioText(p.tok.Text, p.tok.Offset)
		if err != nil {
			return pattern.Silence, err
		}
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		return pattern.Pure(pattern.Num(t.Float64())), nil
	case TokIdent:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		if pitch, ok := lookupNote(name); ok {
			return pattern.Pure(pattern.Num(pitch)), nil
		}
		return pattern.Pure(pattern.NameValue(name)), nil
	case TokLBracket:
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		inner, err := p.parseStack()
		if err != nil {
			return pattern.Silence, err
		}
		if p.tok.Kind != TokRBracket {
			return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "unbalanced brackets: expected ']', got " + describeToken(p.tok)}
		}
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		return inner, nil
	case TokLAngle:
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		var alts []pattern.Pattern
		for p.tok.Kind != TokRAngle {
			if p.tok.Kind == TokEOF {
				return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "unbalanced brackets: expected '>', got end of input"}
			}
			alt, err := p.parseSuffixed()
			if err != nil {
				return pattern.Silence, err
			}
			alts = append(alts, alt)
		}
		if err := p.advance(); err != nil {
			return pattern.Silence, err
		}
		return pattern.SlowCat(alts...), nil
	default:
		return pattern.Silence, &ParseError{Offset: p.tok.Offset, Message: "unexpected token " + describeToken(p.tok)}
	}
}

// tagBankIndex attaches a sample-bank index to every value p ever
// produces, used by `a:i`.
func tagBankIndex(p pattern.Pattern, idx float64) pattern.Pattern {
	return pattern.Tag(p, pattern.CtxBankIndex, idx)
}

func repeatPattern(p pattern.Pattern, n int) pattern.Pattern {
	if n <= 0 {
		return pattern.Silence
	}
	ps := make([]pattern.Pattern, n)
	for i := range ps {
		ps[i] = p
	}
	return pattern.FastCat(ps...)
}

func parseRatioText(text string, offset int) (rtime.Time, error) {
	parts := strings.SplitN(text, "/", 2)
	num, err1 := strconv.ParseInt(parts[0], 10, 64)
	den, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil || den == 0 {
		return rtime.Zero, &ParseError{Offset: offset, Message: "invalid ratio literal " + strconv.Quote(text)}
	}
	return rtime.New(num, den), nil
}
