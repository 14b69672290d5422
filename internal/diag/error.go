package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Kind classifies a Hebi error into the taxonomy described in the
// specification's error handling design.
type Kind int

const (
	KindSyntax Kind = iota
	KindEmit
	KindType
	KindLookup
	KindUser
	KindCancellation
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindEmit:
		return "emit error"
	case KindType:
		return "type error"
	case KindLookup:
		return "lookup error"
	case KindUser:
		return "error"
	case KindCancellation:
		return "cancelled"
	default:
		return "error"
	}
}

// Error is a single span-tagged diagnostic.
type Error struct {
	Kind    Kind
	Span    Span
	Context string // e.g. "while parsing field key"
	Message string
	Payload any // opaque host payload for KindUser

	// Unresolved marks the specific KindLookup cases that are "unknown
	// field" / "unknown index" — the only ones optional chaining (?./?[ ])
	// is permitted to convert to none. Other KindLookup errors (missing
	// argument, unknown keyword, unresolved import) propagate unsuppressed
	// even through an optional chain.
	Unresolved bool

	// Trace accumulates (function, module) frames as a runtime error
	// unwinds the call stack. Empty for syntax/emit errors.
	Trace []Frame
}

// Frame names one call-stack level in an accumulated runtime error trace.
type Frame struct {
	Function string
	Module   string
	Span     Span
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Context != "" {
		b.WriteString(" (")
		b.WriteString(e.Context)
		b.WriteString(")")
	}
	for _, f := range e.Trace {
		fmt.Fprintf(&b, "\n  at %s (%s:%s)", f.Function, f.Module, f.Span)
	}
	return b.String()
}

// Report renders the error against its originating source text, producing a
// human-readable snippet with a caret under the offending span. This is the
// only place source text is needed; callers that don't have it can just use
// Error().
func (e *Error) Report(src string) string {
	line, col := e.Span.LineCol(src)
	lineText := sourceLine(src, line)
	caretLen := e.Span.End - e.Span.Start
	if caretLen < 1 {
		caretLen = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s at line %d, column %d\n", e.Error(), line, col)
	b.WriteString(lineText)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", col-1))
	b.WriteString(strings.Repeat("^", caretLen))
	return b.String()
}

func sourceLine(src string, line int) string {
	n := 1
	start := 0
	for i, ch := range src {
		if n == line {
			start = i
			break
		}
		if ch == '\n' {
			n++
		}
	}
	end := strings.IndexByte(src[start:], '\n')
	if end < 0 {
		return src[start:]
	}
	return src[start : start+end]
}

// NewSyntax builds a syntax-kind error.
func NewSyntax(sp Span, context, message string) *Error {
	return &Error{Kind: KindSyntax, Span: sp, Context: context, Message: message}
}

// NewEmit builds an emit-kind error.
func NewEmit(sp Span, message string) *Error {
	return &Error{Kind: KindEmit, Span: sp, Message: message}
}

// NewType builds a runtime-type error.
func NewType(sp Span, message string) *Error {
	return &Error{Kind: KindType, Span: sp, Message: message}
}

// NewLookup builds a runtime-lookup error, optionally suggesting a near
// match for the unresolved name against a set of known candidates.
func NewLookup(sp Span, message, name string, candidates []string) *Error {
	msg := message
	if best := suggest(name, candidates); best != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", message, best)
	}
	return &Error{Kind: KindLookup, Span: sp, Message: msg}
}

// NewUnresolved builds the specific "unknown field/index" lookup error that
// optional chaining is allowed to suppress into none (see Error.Unresolved).
func NewUnresolved(sp Span, message string) *Error {
	return &Error{Kind: KindLookup, Span: sp, Message: message, Unresolved: true}
}

// NewUser wraps a host-raised error with an opaque payload.
func NewUser(sp Span, message string, payload any) *Error {
	return &Error{Kind: KindUser, Span: sp, Message: message, Payload: payload}
}

// NewCancellation builds a cancellation error.
func NewCancellation() *Error {
	return &Error{Kind: KindCancellation, Message: "execution cancelled"}
}

// suggest picks the closest candidate to name using fuzzy ranking, returning
// "" if nothing is close enough to be useful.
func suggest(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	best := ranks[0]
	if best.Distance > len(name)/2+1 {
		return ""
	}
	return best.Target
}

// IsUnknownField reports whether err is the specific "unknown field/index"
// lookup error that optional chaining (?./?[ ]) is permitted to suppress
// into none. All other error classes propagate unsuppressed.
func IsUnknownField(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindLookup && e.Unresolved
}

// ErrorList accumulates multiple diagnostics, used by the lexer and parser
// which keep scanning/parsing after an error to surface as many problems as
// possible in one pass.
type ErrorList struct {
	Errors []*Error
}

func (l *ErrorList) Add(e *Error) {
	l.Errors = append(l.Errors, e)
}

func (l *ErrorList) Empty() bool {
	return len(l.Errors) == 0
}

func (l *ErrorList) Error() string {
	parts := make([]string, len(l.Errors))
	for i, e := range l.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
