package compiler

import (
	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
)

// applyTransform resolves the `$` operator's named pattern transforms.
// Higher-order transforms (every, sometimes, jux, off) take a nested
// transform as their last argument, written either as a bare name
// (`$ every 2 rev`) or a parenthesized call (`$ every 2 (fast 2)`).
func (r *resolver) applyTransform(fn string, args []Expr, p pattern.Pattern, line int) (pattern.Pattern, error) {
	arity := func(want int) error {
		if len(args) != want {
			return &ArityError{Line: line, Fn: fn, Want: want, Got: len(args)}
		}
		return nil
	}

	switch fn {
	case "fast", "density":
		if err := arity(1); err != nil {
			return p, err
		}
		k, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Fast(k, p), nil
	case "slow", "sparsity":
		if err := arity(1); err != nil {
			return p, err
		}
		k, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Slow(k, p), nil
	case "early":
		if err := arity(1); err != nil {
			return p, err
		}
		t, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Early(t, p), nil
	case "late":
		if err := arity(1); err != nil {
			return p, err
		}
		t, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Late(t, p), nil
	case "compress":
		if err := arity(2); err != nil {
			return p, err
		}
		b, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		e, err := r.timeArg(args[1])
		if err != nil {
			return p, err
		}
		return pattern.Compress(b, e, p), nil
	case "zoom":
		if err := arity(2); err != nil {
			return p, err
		}
		b, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		e, err := r.timeArg(args[1])
		if err != nil {
			return p, err
		}
		return pattern.Zoom(b, e, p), nil

	case "rev":
		if err := arity(0); err != nil {
			return p, err
		}
		return pattern.Rev(p), nil
	case "palindrome":
		if err := arity(0); err != nil {
			return p, err
		}
		return pattern.Palindrome(p), nil
	case "iter":
		if err := arity(1); err != nil {
			return p, err
		}
		step, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Iter(step, p), nil

	case "ply":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Ply(n, p), nil
	case "segment":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Segment(n, p), nil
	case "chop":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Chop(n, p), nil
	case "retrig":
		if err := arity(3); err != nil {
			return p, err
		}
		times, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		start, err := r.numArg(args[1])
		if err != nil {
			return p, err
		}
		end, err := r.numArg(args[2])
		if err != nil {
			return p, err
		}
		return pattern.Retrig(times, start, end, p), nil

	case "every":
		if err := arity(2); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.Every(int64(n), tf, p), nil
	case "firstOf":
		if err := arity(2); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.FirstOf(int64(n), tf, p), nil
	case "lastOf":
		if err := arity(2); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.LastOf(int64(n), tf, p), nil

	case "degrade":
		if err := arity(0); err != nil {
			return p, err
		}
		return pattern.Degrade(p), nil
	case "degradeBy":
		if err := arity(1); err != nil {
			return p, err
		}
		prob, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.DegradeBy(prob, p), nil
	case "sometimes", "often", "rarely", "almostNever", "almostAlways":
		if err := arity(1); err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[0], line)
		if err != nil {
			return p, err
		}
		switch fn {
		case "often":
			return pattern.Often(tf, p), nil
		case "rarely":
			return pattern.Rarely(tf, p), nil
		case "almostNever":
			return pattern.AlmostNever(tf, p), nil
		case "almostAlways":
			return pattern.AlmostAlways(tf, p), nil
		default:
			return pattern.Sometimes(tf, p), nil
		}
	case "sometimesBy":
		if err := arity(2); err != nil {
			return p, err
		}
		prob, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.SometimesBy(prob, tf, p), nil
	case "shuffle":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Shuffle(n, p), nil
	case "scramble":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Scramble(n, p), nil

	case "euclid":
		if len(args) != 2 && len(args) != 3 {
			return p, &ArityError{Line: line, Fn: fn, Want: 3, Got: len(args)}
		}
		k, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		n, err := r.intArg(args[1])
		if err != nil {
			return p, err
		}
		rot := 0
		if len(args) == 3 {
			if rot, err = r.intArg(args[2]); err != nil {
				return p, err
			}
		}
		return pattern.EuclidWith(k, n, rot, p), nil
	case "euclidLegato":
		if len(args) != 2 && len(args) != 3 {
			return p, &ArityError{Line: line, Fn: fn, Want: 3, Got: len(args)}
		}
		k, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		n, err := r.intArg(args[1])
		if err != nil {
			return p, err
		}
		rot := 0
		if len(args) == 3 {
			if rot, err = r.intArg(args[2]); err != nil {
				return p, err
			}
		}
		return pattern.Struct(pattern.EuclidLegato(k, n, rot), p), nil

	case "jux":
		if err := arity(1); err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[0], line)
		if err != nil {
			return p, err
		}
		return pattern.Jux(tf, p), nil
	case "juxBy":
		if err := arity(2); err != nil {
			return p, err
		}
		amount, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.JuxBy(amount, tf, p), nil
	case "off":
		if err := arity(2); err != nil {
			return p, err
		}
		t, err := r.timeArg(args[0])
		if err != nil {
			return p, err
		}
		tf, err := r.transformArg(args[1], line)
		if err != nil {
			return p, err
		}
		return pattern.Off(t, tf, p), nil
	case "echo":
		if err := arity(3); err != nil {
			return p, err
		}
		n, err := r.intArg(args[0])
		if err != nil {
			return p, err
		}
		t, err := r.timeArg(args[1])
		if err != nil {
			return p, err
		}
		decay, err := r.numArg(args[2])
		if err != nil {
			return p, err
		}
		return pattern.Echo(n, t, decay, p), nil

	case "mask":
		if err := arity(1); err != nil {
			return p, err
		}
		m, err := r.compileToPattern(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Mask(m, p), nil
	case "struct":
		if err := arity(1); err != nil {
			return p, err
		}
		m, err := r.compileToPattern(args[0])
		if err != nil {
			return p, err
		}
		return pattern.Struct(m, p), nil

	case "range":
		if err := arity(2); err != nil {
			return p, err
		}
		lo, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		hi, err := r.numArg(args[1])
		if err != nil {
			return p, err
		}
		return pattern.Range(lo, hi, p), nil
	case "rangex":
		if err := arity(2); err != nil {
			return p, err
		}
		lo, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		hi, err := r.numArg(args[1])
		if err != nil {
			return p, err
		}
		return pattern.RangeX(lo, hi, p), nil
	case "add", "sub", "mul", "div", "mod":
		if err := arity(1); err != nil {
			return p, err
		}
		n, err := r.numArg(args[0])
		if err != nil {
			return p, err
		}
		switch fn {
		case "add":
			return pattern.Add(n, p), nil
		case "sub":
			return pattern.Sub(n, p), nil
		case "mul":
			return pattern.Mul(n, p), nil
		case "div":
			return pattern.Div(n, p), nil
		default:
			return pattern.Mod(n, p), nil
		}

	case "scale":
		if err := arity(2); err != nil {
			return p, err
		}
		name, err := r.nameArg(args[0], line)
		if err != nil {
			return p, err
		}
		root, err := r.numArg(args[1])
		if err != nil {
			return p, err
		}
		return pattern.Scale(name, root, p), nil
	case "arpeggiate", "arp":
		if err := arity(2); err != nil {
			return p, err
		}
		dirName, err := r.nameArg(args[0], line)
		if err != nil {
			return p, err
		}
		count, err := r.intArg(args[1])
		if err != nil {
			return p, err
		}
		dir, ok := arpDirections[dirName]
		if !ok {
			return p, &NameError{Line: line, Name: dirName, Kind: "arpeggio direction"}
		}
		return pattern.Arpeggiate(dir, count, p), nil
	}

	return p, &NameError{Line: line, Name: fn, Kind: "transform"}
}

var arpDirections = map[string]pattern.ArpDirection{
	"up":     pattern.ArpUp,
	"down":   pattern.ArpDown,
	"updown": pattern.ArpUpDown,
	"downup": pattern.ArpDownUp,
}

func (r *resolver) numArg(e Expr) (float64, error) {
	v, err := r.compileExpr(e)
	if err != nil {
		return 0, err
	}
	if v.kind != vNum {
		return 0, &ParseError{Line: exprLine(e), Message: "expected a number argument"}
	}
	return v.num, nil
}

func (r *resolver) intArg(e Expr) (int, error) {
	n, err := r.numArg(e)
	return int(n), err
}

func (r *resolver) timeArg(e Expr) (rtime.Time, error) {
	n, err := r.numArg(e)
	return rtime.FromFloat(n), err
}

// nameArg reads a bare identifier argument (a scale or direction name):
// the parser sees it as a zero-argument call.
func (r *resolver) nameArg(e Expr, line int) (string, error) {
	call, ok := e.(*CallExpr)
	if !ok || len(call.Args) != 0 {
		return "", &ParseError{Line: line, Message: "expected a name argument"}
	}
	return call.Fn, nil
}

// transformArg resolves a nested transform argument to a closure. The
// nested form is validated once against silence so a bad name or arity
// fails at compile time rather than inside a query.
func (r *resolver) transformArg(e Expr, line int) (pattern.Transform, error) {
	call, ok := e.(*CallExpr)
	if !ok {
		return nil, &ParseError{Line: line, Message: "expected a transform name"}
	}
	if _, err := r.applyTransform(call.Fn, call.Args, pattern.Silence, line); err != nil {
		return nil, err
	}
	fn, args := call.Fn, call.Args
	return func(p pattern.Pattern) pattern.Pattern {
		out, _ := r.applyTransform(fn, args, p, line)
		return out
	}, nil
}
