// Package lexer turns Hebi source text into a stream of tokens, handling
// significant indentation, bracket-depth newline suppression, and string
// escape decoding.
package lexer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/token"
)

// ASCII classification tables, following the teacher's fast-lookup style.
var (
	isWhitespace [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isDigit      [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r'
		isDigit[i] = ch >= '0' && ch <= '9'
		isIdentStart[i] = (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}
}

// Options configures the lexer's treatment of source-level details that the
// host may want to tune.
type Options struct {
	// TabWidth is how many columns a tab counts as when measuring
	// indentation. Default 1, per the specification.
	TabWidth int
	Logger   *slog.Logger
}

// Lexer scans Hebi source text into tokens on demand via Next.
type Lexer struct {
	src      string
	pos      int // current byte offset
	logger   *slog.Logger
	tabWidth int

	bracketDepth int
	atLineStart  bool
	indents      []int // indent-width stack, bottom is always 0

	pending []token.Token // INDENT/DEDENT/NEWLINE queued ahead of the scan position
	done    bool

	errs diag.ErrorList // unterminated strings, unknown escapes
}

// Errors returns the diagnostics accumulated while scanning (unterminated
// strings, unknown escape sequences). The parser merges these into its own
// ErrorList so a lex-time problem still fails Parse.
func (l *Lexer) Errors() *diag.ErrorList {
	return &l.errs
}

// New creates a Lexer over src.
func New(src string, opts Options) *Lexer {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 1
	}
	src = skipShebang(src)
	return &Lexer{
		src:         src,
		logger:      opts.Logger,
		tabWidth:    opts.TabWidth,
		atLineStart: true,
		indents:     []int{0},
	}
}

// trace emits a debug trace line if the lexer was configured with a logger.
func (l *Lexer) trace(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func skipShebang(src string) string {
	if strings.HasPrefix(src, "#!") {
		if i := strings.IndexByte(src, '\n'); i >= 0 {
			return src[i+1:]
		}
		return ""
	}
	return src
}

// Next returns the next token in the stream. After EOF it keeps returning
// EOF tokens.
func (l *Lexer) Next() token.Token {
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t
	}
	if l.done {
		return l.eofToken()
	}
	return l.scan()
}

func (l *Lexer) eofToken() token.Token {
	return token.Token{Kind: token.EOF, Span: diag.Span{Start: len(l.src), End: len(l.src)}}
}

func (l *Lexer) scan() token.Token {
	l.trace("scan", "pos", l.pos, "bracketDepth", l.bracketDepth)
	if l.atLineStart && l.bracketDepth == 0 {
		if t, ok := l.scanIndentation(); ok {
			return t
		}
	}
	l.skipIntraLineWhitespace()

	if l.pos >= len(l.src) {
		l.done = true
		// Emit a trailing NEWLINE and DEDENTs down to zero, mirroring
		// balanced INDENT/DEDENT around the whole module.
		l.queueEOFUnwind()
		if len(l.pending) > 0 {
			t := l.pending[0]
			l.pending = l.pending[1:]
			return t
		}
		return l.eofToken()
	}

	start := l.pos
	ch := l.src[l.pos]

	if ch == '\n' {
		l.pos++
		l.atLineStart = true
		if l.bracketDepth > 0 {
			return l.scan()
		}
		return token.Token{Kind: token.NEWLINE, Span: diag.Span{Start: start, End: l.pos}}
	}
	if ch == '#' {
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		return l.scan()
	}

	switch {
	case ch < 128 && isIdentStart[ch]:
		return l.scanIdent()
	case ch < 128 && isDigit[ch]:
		return l.scanNumber()
	case ch == '"':
		return l.scanString()
	}

	return l.scanOperator()
}

func (l *Lexer) skipIntraLineWhitespace() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch < 128 && isWhitespace[ch] {
			l.pos++
			continue
		}
		break
	}
}

// scanIndentation measures the current line's leading whitespace and queues
// INDENT/DEDENT tokens so the parser sees a balanced stack around blocks. It
// returns ok=false (and no token) for blank or comment-only lines, which do
// not affect indentation.
func (l *Lexer) scanIndentation() (token.Token, bool) {
	l.atLineStart = false
	start := l.pos
	width := 0
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == ' ' {
			width++
			l.pos++
		} else if ch == '\t' {
			width += l.tabWidth
			l.pos++
		} else {
			break
		}
	}
	if l.pos >= len(l.src) || l.src[l.pos] == '\n' || l.src[l.pos] == '#' {
		// Blank or comment-only line: no indentation change.
		return token.Token{}, false
	}

	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		return token.Token{Kind: token.INDENT, Span: diag.Span{Start: start, End: l.pos}}, true
	case width < top:
		var toks []token.Token
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			toks = append(toks, token.Token{Kind: token.DEDENT, Span: diag.Span{Start: start, End: l.pos}})
		}
		if len(toks) == 0 {
			return token.Token{}, false
		}
		l.pending = append(l.pending, toks[1:]...)
		return toks[0], true
	default:
		return token.Token{}, false
	}
}

func (l *Lexer) queueEOFUnwind() {
	end := len(l.src)
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, token.Token{Kind: token.DEDENT, Span: diag.Span{Start: end, End: end}})
	}
}

func (l *Lexer) scanIdent() token.Token {
	start := l.pos
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch < 128 && isIdentPart[ch] {
			l.pos++
			continue
		}
		break
	}
	text := l.src[start:l.pos]
	sp := diag.Span{Start: start, End: l.pos}
	if kw, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.IDENT, Span: sp, Text: text}
}

func (l *Lexer) scanNumber() token.Token {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch < 128 && isDigit[ch] {
			l.pos++
			continue
		}
		if ch == '_' {
			l.pos++
			continue
		}
		if ch == '.' && !isFloat && l.pos+1 < len(l.src) && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
			isFloat = true
			l.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	sp := diag.Span{Start: start, End: l.pos}
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.FLOAT, Span: sp, Text: text, Flt: f}
	}
	i, _ := strconv.ParseInt(text, 10, 64)
	return token.Token{Kind: token.INT, Span: sp, Text: text, Int: i}
}

func (l *Lexer) scanString() token.Token {
	start := l.pos
	l.pos++ // consume opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			l.errs.Add(diag.NewSyntax(diag.Span{Start: start, End: l.pos}, "scanning string literal", "unterminated string literal"))
			return token.Token{Kind: token.STRING, Span: diag.Span{Start: start, End: l.pos}, Str: b.String()}
		}
		ch := l.src[l.pos]
		if ch == '"' {
			l.pos++
			break
		}
		if ch == '\n' {
			l.errs.Add(diag.NewSyntax(diag.Span{Start: start, End: l.pos}, "scanning string literal", "unterminated string literal"))
			break
		}
		if ch == '\\' {
			l.pos++
			l.scanEscape(&b)
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		b.WriteRune(r)
		l.pos += size
	}
	return token.Token{Kind: token.STRING, Span: diag.Span{Start: start, End: l.pos}, Str: b.String()}
}

func (l *Lexer) scanEscape(b *strings.Builder) {
	if l.pos >= len(l.src) {
		return
	}
	ch := l.src[l.pos]
	l.pos++
	switch ch {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\':
		b.WriteByte('\\')
	case '"':
		b.WriteByte('"')
	case 'x':
		if l.pos+2 <= len(l.src) {
			v, err := strconv.ParseUint(l.src[l.pos:l.pos+2], 16, 8)
			if err == nil {
				b.WriteByte(byte(v))
				l.pos += 2
			}
		}
	case 'u':
		if l.pos < len(l.src) && l.src[l.pos] == '{' {
			end := strings.IndexByte(l.src[l.pos:], '}')
			if end > 0 && end <= 7 {
				hex := l.src[l.pos+1 : l.pos+end]
				v, err := strconv.ParseUint(hex, 16, 32)
				if err == nil {
					b.WriteRune(rune(v))
				}
				l.pos += end + 1
			}
		}
	default:
		l.errs.Add(diag.NewSyntax(diag.Span{Start: l.pos - 2, End: l.pos}, "scanning string escape", fmt.Sprintf("unknown escape sequence '\\%c'", ch)))
		b.WriteByte(ch)
	}
}

var twoCharOps = map[string]token.Kind{
	"**": token.StarStar, "==": token.EqEq, "!=": token.NotEq,
	"<=": token.LtEq, ">=": token.GtEq, "&&": token.AmpAmp, "||": token.PipePipe,
	"??": token.QQ, "..": token.DotDot, ":=": token.ColonEq, "+=": token.PlusEq,
	"-=": token.MinusEq, "*=": token.StarEq, "/=": token.SlashEq, "%=": token.PercentEq,
	"?.": token.QuestionDot, "?[": token.QuestionLBracket,
}

var threeCharOps = map[string]token.Kind{
	"**=": token.StarStarEq, "??=": token.QQEq, "..=": token.DotDotEq,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash,
	'%': token.Percent, '<': token.Lt, '>': token.Gt, '!': token.Bang,
	'?': token.Question, '.': token.Dot, ':': token.Colon, '=': token.Eq,
	',': token.Comma, '(': token.LParen, ')': token.RParen,
	'[': token.LBracket, ']': token.RBracket, '{': token.LBrace, '}': token.RBrace,
}

func (l *Lexer) scanOperator() token.Token {
	start := l.pos
	rest := l.src[l.pos:]
	if len(rest) >= 3 {
		if k, ok := threeCharOps[rest[:3]]; ok {
			l.pos += 3
			return token.Token{Kind: k, Span: diag.Span{Start: start, End: l.pos}}
		}
	}
	if len(rest) >= 2 {
		if k, ok := twoCharOps[rest[:2]]; ok {
			l.pos += 2
			l.trackBracket(rest[:2])
			return token.Token{Kind: k, Span: diag.Span{Start: start, End: l.pos}}
		}
	}
	ch := l.src[l.pos]
	if k, ok := oneCharOps[ch]; ok {
		l.pos++
		l.trackBracket(string(ch))
		return token.Token{Kind: k, Span: diag.Span{Start: start, End: l.pos}}
	}
	// Unknown byte: advance one rune and return ILLEGAL, which the parser
	// treats like any other token it doesn't recognize in statement/
	// expression position (a syntax error, not end of input).
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return token.Token{Kind: token.ILLEGAL, Span: diag.Span{Start: start, End: l.pos}, Text: l.src[start:l.pos]}
}

func (l *Lexer) trackBracket(op string) {
	switch op {
	case "(", "[", "{", "?[":
		l.bracketDepth++
	case ")", "]", "}":
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
	}
}

