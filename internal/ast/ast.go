// Package ast defines the typed syntax tree produced by the parser.
package ast

import "github.com/hebi-lang/hebi/internal/diag"

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// Module is the root of a parsed source file: a list of imports followed by
// top-level statements.
type Module struct {
	Imports []*Import
	Stmts   []Stmt
	Sp      diag.Span
}

func (m *Module) Span() diag.Span { return m.Sp }

// Import is either `import a.b` (Names empty) or
// `from a import b, c` (Names populated).
type Import struct {
	Path  []string // dotted path segments
	Names []string // empty for plain `import`, populated for `from ... import`
	Sp    diag.Span
}

func (i *Import) Span() diag.Span { return i.Sp }

// ---- Statements ----

type Stmt interface {
	Node
	stmtNode()
}

type Base struct{ Sp diag.Span }

func (b Base) Span() diag.Span { return b.Sp }

type VarStmt struct {
	Base
	Name  string
	Value Expr
}

func (*VarStmt) stmtNode() {}

// AssignOp distinguishes plain `=` from compound assignment operators.
type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignRem
	AssignPow
	AssignCoalesce
)

type AssignStmt struct {
	Base
	Target Expr // Ident, FieldExpr, or IndexExpr
	Op     AssignOp
	Value  Expr
}

func (*AssignStmt) stmtNode() {}

type IfStmt struct {
	Base
	Cond Expr
	Then []Stmt
	// Elif holds any number of "elif cond: body" clauses in order.
	Elif []ElifClause
	Else []Stmt // nil if no else clause
}

type ElifClause struct {
	Cond Expr
	Body []Stmt
}

func (*IfStmt) stmtNode() {}

type WhileStmt struct {
	Base
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}

// LoopStmt is an unconditional loop (`loop: ...`), broken out of via break.
type LoopStmt struct {
	Base
	Body []Stmt
}

func (*LoopStmt) stmtNode() {}

// ForStmt covers both `for x in <range-expr>` and `for x in <iterable>`; the
// VM's IterInit opcode picks the fast range-counter path or the general
// next()-based protocol depending on the runtime value of Iter.
type ForStmt struct {
	Base
	Name string
	Iter Expr
	Body []Stmt
}

func (*ForStmt) stmtNode() {}

type BreakStmt struct{ Base }

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{ Base }

func (*ContinueStmt) stmtNode() {}

type ReturnStmt struct {
	Base
	Value Expr // nil for bare `return`
}

func (*ReturnStmt) stmtNode() {}

type YieldStmt struct {
	Base
	Value Expr
}

func (*YieldStmt) stmtNode() {}

type PrintStmt struct {
	Base
	Values []Expr
}

func (*PrintStmt) stmtNode() {}

type PassStmt struct{ Base }

func (*PassStmt) stmtNode() {}

type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) stmtNode() {}

type FnStmt struct {
	Base
	Fn *FnExpr
}

func (*FnStmt) stmtNode() {}

type ClassStmt struct {
	Base
	Name    string
	Parent  string // "" if no parent
	Fields  []FieldDecl
	Methods []*FnExpr // Methods[i].Name == "init" is the constructor if present
}

func (*ClassStmt) stmtNode() {}

type FieldDecl struct {
	Name    string
	Default Expr // nil if no default
}

// ---- Expressions ----

type Expr interface {
	Node
	exprNode()
}

type IntLit struct {
	Base
	Value int64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	Base
	Value float64
}

func (*FloatLit) exprNode() {}

type StringLit struct {
	Base
	Value string
}

func (*StringLit) exprNode() {}

type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) exprNode() {}

type NoneLit struct{ Base }

func (*NoneLit) exprNode() {}

type Ident struct {
	Base
	Name string
}

func (*Ident) exprNode() {}

type SelfExpr struct{ Base }

func (*SelfExpr) exprNode() {}

type SuperExpr struct{ Base }

func (*SuperExpr) exprNode() {}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpCoalesce // ??
	OpRange    // ..
	OpRangeEq  // ..=
)

type BinaryExpr struct {
	Base
	Op    BinOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpTry // prefix `?e`
)

type UnaryExpr struct {
	Base
	Op Unop
	X  Expr
}

// Unop is an alias kept for readability in call sites; equal to UnaryOp.
type Unop = UnaryOp

func (*UnaryExpr) exprNode() {}

type CallArg struct {
	Name  string // "" for positional
	Value Expr
}

type CallExpr struct {
	Base
	Callee Expr
	Args   []CallArg
}

func (*CallExpr) exprNode() {}

type IndexExpr struct {
	Base
	X        Expr
	Index    Expr
	Optional bool // `?[` form
}

func (*IndexExpr) exprNode() {}

type FieldExpr struct {
	Base
	X        Expr
	Name     string
	Optional bool // `?.` form
}

func (*FieldExpr) exprNode() {}

type ListExpr struct {
	Base
	Elems []Expr
}

func (*ListExpr) exprNode() {}

type TupleExpr struct {
	Base
	Elems []Expr
}

func (*TupleExpr) exprNode() {}

type DictEntry struct {
	Key   Expr
	Value Expr
}

type DictExpr struct {
	Base
	Entries []DictEntry
}

func (*DictExpr) exprNode() {}

type RangeExpr struct {
	Base
	Lo        Expr
	Hi        Expr
	Inclusive bool
}

func (*RangeExpr) exprNode() {}

// IfExpr is `if cond: a else: b` used as an expression.
type IfExpr struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

func (*IfExpr) exprNode() {}

// Param describes one function parameter, per the specification's parameter
// kinds.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamPositionalDefault
	ParamVariadicPositional
	ParamKeyword
	ParamKeywordDefault
	ParamVariadicKeyword
)

type Param struct {
	Name    string
	Kind    ParamKind
	Default Expr // for *Default kinds
}

type FnExpr struct {
	Base
	Name    string // "" for anonymous function literals
	HasSelf bool
	Params  []Param
	Body    []Stmt
	// IsGenerator is set by the parser when the body contains a `yield`
	// statement at this function's nesting level.
	IsGenerator bool
}

func (*FnExpr) exprNode() {}
