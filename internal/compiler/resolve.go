package compiler

import (
	"strings"

	"github.com/phonon-lang/phonon/internal/binding"
	"github.com/phonon-lang/phonon/internal/dsp"
	"github.com/phonon-lang/phonon/internal/mini"
	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
	"github.com/phonon-lang/phonon/internal/sgraph"
)

// DefaultCps is the transport rate used when the source declares neither
// tempo: nor cps:.
const DefaultCps = 0.5

// Options carries the collaborators the resolver wires into the graph it
// builds: the sample store behind `s(...)` and a sink for SampleMissing
// reports. Both may be nil (every sample lookup then misses, which keeps
// compilation usable in tests and in the pattern-only CLI paths).
type Options struct {
	Samples         binding.SampleResolver
	OnMissingSample binding.MissingSampleFunc
}

// BlockControl is anything the runtime must re-position at the top of
// each audio callback before the graph pulls control data from it. Every
// binding the resolver creates implements it.
type BlockControl interface {
	SetBlock(begin rtime.Time, cps, sampleRate float64)
}

// TriggerStream is a trigger/sample binding plus its per-block
// positioning, the source half of a TriggerRoute.
type TriggerStream interface {
	BlockControl
	RenderTriggers(n int) []sgraph.ScheduledTrigger
}

// TriggerRoute pairs a trigger-producing binding with the node its
// onsets are delivered to.
type TriggerRoute struct {
	Node   sgraph.NodeId
	Source TriggerStream
}

// Compiled is the result of a successful rebuild: everything the runtime
// needs to drive one graph generation.
type Compiled struct {
	Graph    *sgraph.Graph
	Cps      float64
	Mix      sgraph.MixPolicy
	Patterns map[string]pattern.Pattern
	Controls []BlockControl
	Triggers []TriggerRoute
	Externs  map[string]*sgraph.Extern
}

// Compile parses src and resolves it into a graph, pattern table, and
// mix policy, per §4.8: pass 1 registers every bus name (so forward and
// cyclic references type-check), pass 2 builds the graph and inserts
// pattern→signal bindings; sgraph's Build rejects zero-delay cycles.
func Compile(src string, opts Options) (*Compiled, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if opts.Samples == nil {
		opts.Samples = emptyStore{}
	}
	r := &resolver{
		b:        sgraph.NewBuilder(),
		opts:     opts,
		patterns: make(map[string]pattern.Pattern),
		busID:    make(map[string]sgraph.NodeId),
		externs:  make(map[string]*sgraph.Extern),
	}
	return r.run(prog)
}

type emptyStore struct{}

func (emptyStore) Get(name string, index int) (*dsp.Buffer, bool) { return nil, false }

// curveShapes maps the DSL's shape names onto the easing set the
// envelope library supports.
var curveShapes = map[string]dsp.CurveShape{
	"linear":    dsp.CurveLinear,
	"inQuad":    dsp.CurveInQuad,
	"outQuad":   dsp.CurveOutQuad,
	"inOutQuad": dsp.CurveInOutQuad,
	"inCubic":   dsp.CurveInCubic,
	"inExpo":    dsp.CurveInExpo,
}

type resolver struct {
	b        *sgraph.Builder
	opts     Options
	patterns map[string]pattern.Pattern
	busID    map[string]sgraph.NodeId
	controls []BlockControl
	triggers []TriggerRoute
	externs  map[string]*sgraph.Extern
}

func (r *resolver) run(prog *Program) (*Compiled, error) {
	mix, ok := sgraph.ParseMixPolicy(prog.OutMix)
	if !ok {
		return nil, &NameError{Name: prog.OutMix, Kind: "outmix mode"}
	}
	cps := prog.Cps
	if !prog.HasCps {
		cps = DefaultCps
	}

	// Pass 1: every declared bus gets an alias node up front, so any
	// expression can reference any bus regardless of declaration order.
	for _, bd := range prog.Buses {
		id := r.b.Add("bus", sgraph.NewPassThrough(), nil, bd.Name)
		r.busID[bd.Name] = id
	}
	for _, pd := range prog.Pats {
		p, err := r.compileToPattern(pd.Expr)
		if err != nil {
			return nil, err
		}
		r.patterns[pd.Name] = p
	}

	// Pass 2: build each bus body and patch it into its alias.
	for _, bd := range prog.Buses {
		v, err := r.compileExpr(bd.Expr)
		if err != nil {
			return nil, err
		}
		root := r.coerceSig(v)
		r.b.SetInputs(r.busID[bd.Name], []sgraph.Input{sgraph.RefInput(root)})
	}

	var outputs []sgraph.NodeId
	for _, od := range prog.Outputs {
		v, err := r.compileExpr(od.Expr)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, r.coerceSig(v))
	}

	g, err := r.b.Build(outputs, mix)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		Graph:    g,
		Cps:      cps,
		Mix:      mix,
		Patterns: r.patterns,
		Controls: r.controls,
		Triggers: r.triggers,
		Externs:  r.externs,
	}, nil
}

// val is the tagged result of compiling one expression: a plain number,
// a pattern value, or a node already placed in the graph.
type val struct {
	kind valKind
	num  float64
	pat  pattern.Pattern
	sig  sgraph.NodeId
}

type valKind int

const (
	vNum valKind = iota
	vPat
	vSig
)

func numVal(n float64) val         { return val{kind: vNum, num: n} }
func patVal(p pattern.Pattern) val { return val{kind: vPat, pat: p} }
func sigVal(id sgraph.NodeId) val  { return val{kind: vSig, sig: id} }

func exprLine(e Expr) int {
	switch x := e.(type) {
	case *NumberExpr:
		return x.Line
	case *StringExpr:
		return x.Line
	case *BusRefExpr:
		return x.Line
	case *PatternRefExpr:
		return x.Line
	case *CallExpr:
		return x.Line
	case *BinaryExpr:
		return x.Line
	case *TransformExpr:
		return x.Line
	}
	return 0
}

func (r *resolver) compileExpr(e Expr) (val, error) {
	switch x := e.(type) {
	case *NumberExpr:
		return numVal(x.Value), nil

	case *StringExpr:
		p, err := mini.Parse(x.Raw)
		if err != nil {
			return val{}, &ParseError{Line: x.Line, Message: err.Error()}
		}
		return patVal(p), nil

	case *BusRefExpr:
		if id, ok := r.busID[x.Name]; ok {
			return sigVal(id), nil
		}
		if isExternName(x.Name) {
			ex := &sgraph.Extern{}
			id := r.b.Add("extern", ex, nil, x.Name)
			r.busID[x.Name] = id
			r.externs[x.Name] = ex
			return sigVal(id), nil
		}
		return val{}, &NameError{Line: x.Line, Name: x.Name, Kind: "bus"}

	case *PatternRefExpr:
		if p, ok := r.patterns[x.Name]; ok {
			return patVal(p), nil
		}
		return val{}, &NameError{Line: x.Line, Name: x.Name, Kind: "pattern"}

	case *CallExpr:
		return r.resolveCall(x, nil)

	case *BinaryExpr:
		return r.resolveBinary(x)

	case *TransformExpr:
		return r.resolveTransform(x)
	}
	return val{}, &ParseError{Line: exprLine(e), Message: "unsupported expression"}
}

// compileToPattern reduces e to a pattern; numbers lift via pure.
func (r *resolver) compileToPattern(e Expr) (pattern.Pattern, error) {
	v, err := r.compileExpr(e)
	if err != nil {
		return pattern.Silence, err
	}
	switch v.kind {
	case vPat:
		return v.pat, nil
	case vNum:
		return pattern.Pure(pattern.Num(v.num)), nil
	default:
		return pattern.Silence, &ParseError{Line: exprLine(e), Message: "expected a pattern, got a signal"}
	}
}

// resolveBinary handles `+ - * /` over any mix of numbers, patterns, and
// signals, and the `#` pipe (left becomes the call's first argument).
func (r *resolver) resolveBinary(x *BinaryExpr) (val, error) {
	if x.Op == "#" {
		call, ok := x.Right.(*CallExpr)
		if !ok {
			return val{}, &ParseError{Line: x.Line, Message: "right side of # must be an effect call"}
		}
		return r.resolveCall(call, x.Left)
	}

	lv, err := r.compileExpr(x.Left)
	if err != nil {
		return val{}, err
	}
	rv, err := r.compileExpr(x.Right)
	if err != nil {
		return val{}, err
	}

	if lv.kind == vNum && rv.kind == vNum {
		switch x.Op {
		case "+":
			return numVal(lv.num + rv.num), nil
		case "-":
			return numVal(lv.num - rv.num), nil
		case "*":
			return numVal(lv.num * rv.num), nil
		case "/":
			if rv.num == 0 {
				return val{}, &ParseError{Line: x.Line, Message: "division by zero"}
			}
			return numVal(lv.num / rv.num), nil
		}
	}

	// Pattern-and-constant arithmetic stays in the pattern algebra.
	if lv.kind == vPat && rv.kind == vNum {
		switch x.Op {
		case "+":
			return patVal(pattern.Add(rv.num, lv.pat)), nil
		case "-":
			return patVal(pattern.Sub(rv.num, lv.pat)), nil
		case "*":
			return patVal(pattern.Mul(rv.num, lv.pat)), nil
		case "/":
			return patVal(pattern.Div(rv.num, lv.pat)), nil
		}
	}
	if lv.kind == vNum && rv.kind == vPat && x.Op == "+" {
		return patVal(pattern.Add(lv.num, rv.pat)), nil
	}
	if lv.kind == vNum && rv.kind == vPat && x.Op == "*" {
		return patVal(pattern.Mul(lv.num, rv.pat)), nil
	}

	// Anything involving a signal becomes an arithmetic node.
	var node sgraph.Node
	var kind string
	switch x.Op {
	case "+":
		node, kind = sgraph.NewAdd(), "add"
	case "-":
		node, kind = sgraph.NewSub(), "sub"
	case "*":
		node, kind = sgraph.NewMul(), "mul"
	case "/":
		node, kind = sgraph.NewDiv(), "div"
	default:
		return val{}, &ParseError{Line: x.Line, Message: "unknown operator " + x.Op}
	}
	inputs := []sgraph.Input{r.coerceInput(lv, false), r.coerceInput(rv, false)}
	id := r.b.Add(kind, node, inputs, "")
	return sigVal(id), nil
}

// coerceInput turns a compiled value into one sgraph input, lifting
// patterns through a value binding. smooth requests the §4.7 one-pole
// de-zipper used for pattern-controlled filter cutoffs.
func (r *resolver) coerceInput(v val, smooth bool) sgraph.Input {
	switch v.kind {
	case vNum:
		return sgraph.ConstInput(v.num)
	case vSig:
		return sgraph.RefInput(v.sig)
	default:
		vb := binding.NewValueBinding(v.pat)
		if smooth {
			vb.SmoothMs = 5
		}
		r.controls = append(r.controls, vb)
		return sgraph.BoundInput(vb)
	}
}

// coerceSig turns a compiled value into a node id, wrapping constants
// and lifted patterns in their own nodes.
func (r *resolver) coerceSig(v val) sgraph.NodeId {
	switch v.kind {
	case vSig:
		return v.sig
	case vNum:
		return r.b.Add("const", sgraph.NewConst(v.num), nil, "")
	default:
		in := r.coerceInput(v, false)
		return r.b.Add("patsig", sgraph.NewPassThrough(), []sgraph.Input{in}, "")
	}
}

// resolveCall compiles `fn a b c` (and the piped form where piped fills
// the first argument slot). Node constructors come from the builtin
// registry; `s`, `env_trig`, and the constant-parameterized constructors
// are special-cased.
func (r *resolver) resolveCall(x *CallExpr, piped Expr) (val, error) {
	args := x.Args
	if piped != nil {
		args = append([]Expr{piped}, args...)
	}

	switch x.Fn {
	case "s":
		return r.resolveSampleCall(x, args)
	case "env_trig":
		return r.resolveEnvTrig(x, args)
	case "super_saw":
		return r.resolveCtorConst(x, args, 3, 2, func(n float64) (string, sgraph.Node, []string, []ArgKind) {
			return "super_saw", sgraph.NewSuperSaw(int(n)), []string{"freq", "detune"}, []ArgKind{ArgScalar, ArgScalar}
		})
	case "distortion":
		return r.resolveCtorConst(x, args, 2, 1, func(n float64) (string, sgraph.Node, []string, []ArgKind) {
			return "distortion", sgraph.NewDistortion(n), []string{"in"}, []ArgKind{ArgScalar}
		})
	case "vocoder":
		return r.resolveCtorConst(x, args, 3, 2, func(n float64) (string, sgraph.Node, []string, []ArgKind) {
			return "vocoder", sgraph.NewVocoder(int(n)), []string{"mod", "car"}, []ArgKind{ArgScalar, ArgScalar}
		})
	case "curve":
		return r.resolveCurve(x, args)
	case "select":
		return r.resolveSelect(x, args)
	}

	spec, ok := builtins[x.Fn]
	if !ok {
		return val{}, &NameError{Line: x.Line, Name: x.Fn, Kind: "function"}
	}
	if len(args) > len(spec.ports) {
		return val{}, &ArityError{Line: x.Line, Fn: x.Fn, Want: len(spec.ports), Got: len(args)}
	}
	inputs := make([]sgraph.Input, len(spec.ports))
	for i, a := range args {
		in, err := r.compileArg(a, spec.argKinds[i], spec.ports[i])
		if err != nil {
			return val{}, err
		}
		inputs[i] = in
	}
	id := r.b.Add(spec.kind, spec.ctor(), inputs, "")
	return sigVal(id), nil
}

// compileArg binds one call argument according to its declared kind:
// gates render each event's Whole extent as a sustained high, triggers
// render onsets as one-sample impulses, scalars sample-and-hold.
func (r *resolver) compileArg(a Expr, ak ArgKind, port string) (sgraph.Input, error) {
	v, err := r.compileExpr(a)
	if err != nil {
		return sgraph.Input{}, err
	}
	if v.kind != vPat {
		return r.coerceInput(v, false), nil
	}
	switch ak {
	case ArgGate:
		gb := binding.NewGateBinding(v.pat)
		r.controls = append(r.controls, gb)
		return sgraph.BoundInput(gb), nil
	case ArgTrigger:
		ib := binding.NewImpulseBinding(v.pat)
		r.controls = append(r.controls, ib)
		return sgraph.BoundInput(ib), nil
	default:
		return r.coerceInput(v, port == "cutoff"), nil
	}
}

// resolveSampleCall builds the `s("...")` node: a polyphonic sample
// player fed by a sample binding that resolves each onset's name through
// the store. An optional second argument patterns the playback speed.
func (r *resolver) resolveSampleCall(x *CallExpr, args []Expr) (val, error) {
	if len(args) < 1 || len(args) > 2 {
		return val{}, &ArityError{Line: x.Line, Fn: "s", Want: 1, Got: len(args)}
	}
	p, err := r.compileToPattern(args[0])
	if err != nil {
		return val{}, err
	}
	sb := binding.NewSampleBinding(p, r.opts.Samples)
	sb.OnMissing = r.opts.OnMissingSample

	inputs := []sgraph.Input{sgraph.ConstInput(1)}
	if len(args) == 2 {
		in, err := r.compileArg(args[1], ArgScalar, "speed")
		if err != nil {
			return val{}, err
		}
		inputs[0] = in
	}
	id := r.b.Add("s", sgraph.NewSamplePlayer(samplePlayerPolyphony), inputs, "")
	r.triggers = append(r.triggers, TriggerRoute{Node: id, Source: sb})
	return sigVal(id), nil
}

// resolveEnvTrig builds env_trig(pattern, a, d, s, r): a fresh ADSR
// cycle fires per discrete event onset.
func (r *resolver) resolveEnvTrig(x *CallExpr, args []Expr) (val, error) {
	if len(args) < 1 || len(args) > 5 {
		return val{}, &ArityError{Line: x.Line, Fn: "env_trig", Want: 5, Got: len(args)}
	}
	p, err := r.compileToPattern(args[0])
	if err != nil {
		return val{}, err
	}
	tb := binding.NewTriggerBinding(p)

	ports := []string{"a", "d", "s", "r"}
	inputs := make([]sgraph.Input, len(ports))
	for i, a := range args[1:] {
		in, err := r.compileArg(a, ArgScalar, ports[i])
		if err != nil {
			return val{}, err
		}
		inputs[i] = in
	}
	id := r.b.Add("env_trig", sgraph.NewEnvTrig(), inputs, "")
	r.triggers = append(r.triggers, TriggerRoute{Node: id, Source: tb})
	return sigVal(id), nil
}

// resolveCtorConst handles constructors that bake one trailing constant
// argument into the node (voice count, drive, band count): the constant
// must be a literal, the remaining arguments wire as ports.
func (r *resolver) resolveCtorConst(x *CallExpr, args []Expr, want, portCount int, mk func(n float64) (string, sgraph.Node, []string, []ArgKind)) (val, error) {
	if len(args) != want {
		return val{}, &ArityError{Line: x.Line, Fn: x.Fn, Want: want, Got: len(args)}
	}
	lit, ok := args[want-1].(*NumberExpr)
	if !ok {
		return val{}, &ParseError{Line: x.Line, Message: x.Fn + "'s last argument must be a number literal"}
	}
	kind, node, ports, kinds := mk(lit.Value)
	inputs := make([]sgraph.Input, len(ports))
	for i := 0; i < portCount; i++ {
		in, err := r.compileArg(args[i], kinds[i], ports[i])
		if err != nil {
			return val{}, err
		}
		inputs[i] = in
	}
	id := r.b.Add(kind, node, inputs, "")
	return sigVal(id), nil
}

// resolveCurve handles curve(trig, a, b, dur, shape) where shape is one
// of the easing names.
func (r *resolver) resolveCurve(x *CallExpr, args []Expr) (val, error) {
	if len(args) != 5 {
		return val{}, &ArityError{Line: x.Line, Fn: "curve", Want: 5, Got: len(args)}
	}
	shapeCall, ok := args[4].(*CallExpr)
	if !ok || len(shapeCall.Args) != 0 {
		return val{}, &ParseError{Line: x.Line, Message: "curve's shape must be a name (linear, inQuad, outQuad, inOutQuad, inCubic, inExpo)"}
	}
	shape, ok := curveShapes[shapeCall.Fn]
	if !ok {
		return val{}, &NameError{Line: x.Line, Name: shapeCall.Fn, Kind: "curve shape"}
	}
	ports := []string{"trig", "a", "b", "dur"}
	kinds := []ArgKind{ArgTrigger, ArgScalar, ArgScalar, ArgScalar}
	inputs := make([]sgraph.Input, len(ports))
	for i := 0; i < 4; i++ {
		in, err := r.compileArg(args[i], kinds[i], ports[i])
		if err != nil {
			return val{}, err
		}
		inputs[i] = in
	}
	id := r.b.Add("curve", sgraph.NewCurve(shape), inputs, "")
	return sigVal(id), nil
}

// resolveSelect handles select(idx, xs...) whose width is the call's own
// argument count.
func (r *resolver) resolveSelect(x *CallExpr, args []Expr) (val, error) {
	if len(args) < 2 {
		return val{}, &ArityError{Line: x.Line, Fn: "select", Want: 2, Got: len(args)}
	}
	n := len(args) - 1
	inputs := make([]sgraph.Input, n+1)
	for i, a := range args {
		in, err := r.compileArg(a, ArgScalar, "x")
		if err != nil {
			return val{}, err
		}
		inputs[i] = in
	}
	id := r.b.Add("select", sgraph.NewSelect(n), inputs, "")
	return sigVal(id), nil
}

// resolveTransform applies `left $ fn args`. When left is an `s`/
// `env_trig` call the transform rewrites the call's pattern argument
// (transforms act on the trigger stream, not the audio), otherwise left
// must itself reduce to a pattern.
func (r *resolver) resolveTransform(x *TransformExpr) (val, error) {
	if call, ok := x.Left.(*CallExpr); ok && (call.Fn == "s" || call.Fn == "env_trig") && len(call.Args) > 0 {
		inner := &TransformExpr{Left: call.Args[0], Fn: x.Fn, Args: x.Args, Line: x.Line}
		rewritten := &CallExpr{Fn: call.Fn, Args: append([]Expr{Expr(inner)}, call.Args[1:]...), Line: call.Line}
		return r.resolveCall(rewritten, nil)
	}
	p, err := r.compileToPattern(x.Left)
	if err != nil {
		return val{}, err
	}
	out, err := r.applyTransform(x.Fn, x.Args, p, x.Line)
	if err != nil {
		return val{}, err
	}
	return patVal(out), nil
}

// isExternName recognizes the bus names the runtime routes external
// events onto: `midi`/`midiN` gates, their `_pitch`/`_gate`/`_vel`
// variants, `ccN` control values, and `bend`.
func isExternName(name string) bool {
	if name == "bend" {
		return true
	}
	if strings.HasPrefix(name, "cc") {
		return allDigits(name[2:]) && len(name) > 2
	}
	if !strings.HasPrefix(name, "midi") {
		return false
	}
	rest := name[4:]
	for _, suffix := range []string{"_gate", "_pitch", "_vel"} {
		rest = strings.TrimSuffix(rest, suffix)
	}
	return rest == "" || allDigits(rest)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
