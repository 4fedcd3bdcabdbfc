// Package compiler turns a phonon source file (§4.8) into a signal graph,
// a pattern table, and a master-mix policy. It is a lexer/parser/AST/
// resolver pipeline in the spirit of the teacher's line-oriented
// `midiplayer.Parse` (see DESIGN.md), extended to a full expression
// grammar since the DSL is considerably richer than a MIDI-route list.
package compiler

// Program is the parsed, not-yet-resolved form of a source file.
type Program struct {
	Cps     float64 // already normalized from tempo:/cps: (cps = bpm/60/4)
	HasCps  bool
	OutMix  string // raw outmix: keyword, "" for the default
	Buses   []BusDecl
	Outputs []OutDecl
	Pats    []PatDecl
}

// BusDecl is one `~name: expr` statement.
type BusDecl struct {
	Name string
	Expr Expr
	Line int
}

// OutDecl is one `out: expr` / `o1: expr` / … statement.
type OutDecl struct {
	Name string
	Expr Expr
	Line int
}

// PatDecl is one `%name: expr` statement.
type PatDecl struct {
	Name string
	Expr Expr
	Line int
}

// Expr is any parsed expression node. Kept as a closed sum type (a small
// set of concrete structs) rather than an interface with behavior, since
// the resolver — not the AST — owns all compilation logic.
type Expr interface{ exprNode() }

// NumberExpr is a numeric literal, including `n/d` rationals (§6).
type NumberExpr struct {
	Value float64
	Line  int
}

// StringExpr is a double-quoted mini-notation pattern literal.
type StringExpr struct {
	Raw  string
	Line int
}

// BusRefExpr is a `~name` reference to a signal bus.
type BusRefExpr struct {
	Name string
	Line int
}

// PatternRefExpr is a `%name` reference to a named pattern.
type PatternRefExpr struct {
	Name string
	Line int
}

// CallExpr is `fn arg1 arg2 …` function-application-by-juxtaposition, the
// shape node constructors and the supplemented pattern functions both use.
type CallExpr struct {
	Fn   string
	Args []Expr
	Line int
}

// BinaryExpr is `left op right` for `+ - * /` and the `#` pipe operator.
// For `#`, Right must be a *CallExpr whose first argument slot is filled
// implicitly by Left (`saw 110 # lpf 800 0.8` = `lpf(saw(110), 800, 0.8)`).
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Line  int
}

// TransformExpr is `left $ fn arg1 arg2 …`, applying a named pattern
// transform to the pattern Left reduces to.
type TransformExpr struct {
	Left Expr
	Fn   string
	Args []Expr
	Line int
}

func (*NumberExpr) exprNode()     {}
func (*StringExpr) exprNode()     {}
func (*BusRefExpr) exprNode()     {}
func (*PatternRefExpr) exprNode() {}
func (*CallExpr) exprNode()       {}
func (*BinaryExpr) exprNode()     {}
func (*TransformExpr) exprNode()  {}
