package header

import "strings"

// Extraction is a linear scan with an explicit depth counter and a small
// state tag; the grammar fragment amc emits is regular enough that no
// backtracking is needed, which keeps worst-case behavior linear in input
// length.
type scanState int

const (
	stateScanning scanState = iota
	stateInDeclaration
	stateInParameterList
)

// Extract walks normalized text left to right and returns the ordered,
// non-overlapping top-level declaration spans. Namespace and extern "C"
// blocks are transparent: declarations inside them count as top level.
// Ambiguous constructs (templates, macros, preprocessor lines) are skipped
// as opaque text. A declaration still open at end of input is discarded.
func Extract(n Normalized) ([]Span, []Note) {
	x := &extractor{text: n.Text}
	x.run()
	return x.spans, x.notes
}

type extractor struct {
	text  string
	pos   int
	state scanState
	spans []Span
	notes []Note
}

func (x *extractor) run() {
	for x.pos < len(x.text) {
		x.skipSpace()
		if x.pos >= len(x.text) {
			return
		}
		switch x.text[x.pos] {
		case '#':
			x.skipLine()
			continue
		case ';':
			x.pos++
			continue
		case '}':
			// Close of a transparent namespace / extern block.
			x.pos++
			continue
		case '{':
			if !x.skipBlock() {
				return
			}
			continue
		}

		start := x.pos
		switch word := x.peekWord(); word {
		case "namespace":
			x.enterNamespace()
		case "extern":
			x.enterExtern()
		case "struct", "class", "union":
			x.scanRecord(start, KindStruct)
		case "enum":
			x.scanRecord(start, KindEnum)
		case "typedef", "using":
			x.skipStatement()
		case "template":
			x.skipTemplate(start)
		case "":
			// Punctuation that starts no known construct.
			x.pos++
		default:
			x.scanStatement(start)
		}
	}
}

// enterNamespace descends into "namespace name {" without opening a span,
// so the block's contents are treated as top level.
func (x *extractor) enterNamespace() {
	x.readWord()
	x.skipSpace()
	x.readQualifiedIdent()
	x.skipSpace()
	if x.pos < len(x.text) && x.text[x.pos] == '{' {
		x.pos++
		return
	}
	// Namespace alias or something odd; consume the statement.
	x.skipStatement()
}

// enterExtern descends into `extern "C" {`; any other extern statement is
// consumed as opaque text.
func (x *extractor) enterExtern() {
	start := x.pos
	x.readWord()
	x.skipSpace()
	if strings.HasPrefix(x.text[x.pos:], `"C"`) || strings.HasPrefix(x.text[x.pos:], `"C++"`) {
		end, _ := scanLiteral(x.text, x.pos)
		x.pos = end
		x.skipSpace()
		if x.pos < len(x.text) && x.text[x.pos] == '{' {
			x.pos++
			return
		}
	}
	x.pos = start
	x.scanStatement(start)
}

// scanRecord handles struct/class/union and enum declarations. A candidate
// begins at the keyword; the span ends at the semicolon after the matching
// close brace. Forward declarations and anonymous bodies produce no span.
func (x *extractor) scanRecord(start int, kind Kind) {
	x.readWord()
	x.skipSpace()
	if kind == KindEnum {
		// enum class / enum struct
		if w := x.peekWord(); w == "class" || w == "struct" {
			x.readWord()
			x.skipSpace()
		}
	}
	name := x.readIdent()
	x.skipSpace()

	// Consume a base clause (": public X") up to the body or terminator.
	for x.pos < len(x.text) && x.text[x.pos] != '{' && x.text[x.pos] != ';' {
		x.advanceChar()
	}
	if x.pos >= len(x.text) {
		x.note(NoteTruncatedDeclaration, start, "declaration reached end of input before a body")
		return
	}
	if x.text[x.pos] == ';' {
		// Forward declaration; nothing to extract.
		x.pos++
		return
	}

	bodyStart := x.pos
	x.state = stateInDeclaration
	if !x.skipBlock() {
		// Open brace never closed: discard rather than emit a partial span.
		x.note(NoteTruncatedDeclaration, start, "unterminated "+kind.String()+" body discarded")
		x.state = stateScanning
		return
	}
	x.state = stateScanning
	bodyEnd := x.pos - 1

	// Trailing declarator and semicolon ("} x;" or just "};").
	x.skipSpace()
	for x.pos < len(x.text) && x.text[x.pos] != ';' && x.text[x.pos] != '}' &&
		(isIdentByte(x.text[x.pos]) || x.text[x.pos] == '*' || x.text[x.pos] == ' ') {
		x.pos++
	}
	if x.pos < len(x.text) && x.text[x.pos] == ';' {
		x.pos++
	}

	if name == "" {
		// Anonymous struct/enum (e.g. "enum { ns_N = 4 };"): opaque by design.
		return
	}
	x.emit(Span{
		Kind:      kind,
		Start:     start,
		End:       x.pos,
		Text:      x.text[start:x.pos],
		BodyStart: bodyStart,
		BodyEnd:   bodyEnd,
	})
}

// scanStatement consumes one top-level statement and emits a Function span
// when it has the shape of a signature: type tokens, an identifier, a
// parenthesized parameter list, then ';' or a body. Anything else is skipped
// as opaque text.
func (x *extractor) scanStatement(start int) {
	parenDepth := 0
	sawParen := false
	assignBeforeParen := false
	bodyStart := -1
	bodyEnd := -1

	for x.pos < len(x.text) {
		c := x.text[x.pos]
		switch c {
		case '(':
			parenDepth++
			sawParen = true
			x.state = stateInParameterList
			x.pos++
			continue
		case ')':
			if parenDepth > 0 {
				parenDepth--
			}
			if parenDepth == 0 {
				x.state = stateScanning
			}
			x.pos++
			continue
		case '=':
			if parenDepth == 0 && !sawParen {
				assignBeforeParen = true
			}
			x.pos++
			continue
		case ';':
			if parenDepth == 0 {
				x.pos++
				x.finishStatement(start, x.pos, bodyStart, bodyEnd, sawParen, assignBeforeParen)
				return
			}
			x.pos++
			continue
		case '{':
			if parenDepth == 0 {
				bodyStart = x.pos
				if !x.skipBlock() {
					x.note(NoteTruncatedDeclaration, start, "unterminated function body discarded")
					return
				}
				bodyEnd = x.pos - 1
				// A definition needs no trailing semicolon, but eat one.
				x.skipSpace()
				if x.pos < len(x.text) && x.text[x.pos] == ';' {
					x.pos++
				}
				x.finishStatement(start, x.pos, bodyStart, bodyEnd, sawParen, assignBeforeParen)
				return
			}
			x.pos++
			continue
		}
		x.advanceChar()
	}

	// End of input with the statement still open.
	x.note(NoteTruncatedDeclaration, start, "declaration still open at end of input discarded")
	x.state = stateScanning
}

func (x *extractor) finishStatement(start, end, bodyStart, bodyEnd int, sawParen, assign bool) {
	x.state = stateScanning
	text := x.text[start:end]
	if !sawParen || (assign && !strings.Contains(text, "operator")) {
		// Variable declaration or other non-signature statement.
		return
	}
	f, ok := DecomposeSignature(text)
	if !ok {
		x.note(NoteUnrecognizedConstruct, start, "statement with parentheses skipped as opaque text")
		return
	}
	if f.ReturnType == "" {
		// Bare "Name(args);" at top level is a macro invocation, not a
		// declaration.
		x.note(NoteUnrecognizedConstruct, start, "call-shaped statement skipped as opaque text")
		return
	}
	x.emit(Span{
		Kind:      KindFunction,
		Start:     start,
		End:       end,
		Text:      text,
		BodyStart: bodyStart,
		BodyEnd:   bodyEnd,
	})
}

// skipTemplate consumes a template declaration, including a following class
// or function body, as one opaque unit.
func (x *extractor) skipTemplate(start int) {
	braceDepth, parenDepth, angleDepth := 0, 0, 0
	for x.pos < len(x.text) {
		c := x.text[x.pos]
		switch c {
		case '<':
			angleDepth++
		case '>':
			if angleDepth > 0 {
				angleDepth--
			}
		case '(':
			parenDepth++
		case ')':
			if parenDepth > 0 {
				parenDepth--
			}
		case '{':
			braceDepth++
		case '}':
			braceDepth--
			if braceDepth == 0 && parenDepth == 0 {
				// Body closed; optional trailing semicolon below.
				x.pos++
				x.skipSpace()
				if x.pos < len(x.text) && x.text[x.pos] == ';' {
					x.pos++
				}
				x.note(NoteUnrecognizedConstruct, start, "template declaration skipped as opaque text")
				return
			}
		case ';':
			if braceDepth == 0 && parenDepth == 0 {
				x.pos++
				x.note(NoteUnrecognizedConstruct, start, "template declaration skipped as opaque text")
				return
			}
		}
		x.advanceChar()
	}
	x.note(NoteTruncatedDeclaration, start, "unterminated template declaration discarded")
}

// --- low-level scanning helpers -------------------------------------------

func (x *extractor) emit(s Span) { x.spans = append(x.spans, s) }

func (x *extractor) note(kind NoteKind, offset int, detail string) {
	x.notes = append(x.notes, Note{Kind: kind, Offset: offset, Detail: detail})
}

func (x *extractor) skipSpace() {
	for x.pos < len(x.text) && isSpaceByte(x.text[x.pos]) {
		x.pos++
	}
}

func (x *extractor) skipLine() {
	for x.pos < len(x.text) && x.text[x.pos] != '\n' {
		x.pos++
	}
}

// advanceChar moves past one character, jumping over a whole literal so
// braces and semicolons inside quotes are never treated as structure.
func (x *extractor) advanceChar() {
	c := x.text[x.pos]
	if c == '"' || c == '\'' {
		end, _ := scanLiteral(x.text, x.pos)
		x.pos = end
		return
	}
	x.pos++
}

// skipBlock consumes a balanced brace block starting at the current '{'.
// Reports false when the block never closes.
func (x *extractor) skipBlock() bool {
	depth := 0
	for x.pos < len(x.text) {
		switch x.text[x.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				x.pos++
				return true
			}
		}
		x.advanceChar()
	}
	return false
}

// skipStatement consumes up to and including the next semicolon at brace and
// paren depth zero.
func (x *extractor) skipStatement() {
	braceDepth, parenDepth := 0, 0
	for x.pos < len(x.text) {
		switch x.text[x.pos] {
		case '{':
			braceDepth++
		case '}':
			braceDepth--
		case '(':
			parenDepth++
		case ')':
			parenDepth--
		case ';':
			if braceDepth <= 0 && parenDepth <= 0 {
				x.pos++
				return
			}
		}
		x.advanceChar()
	}
}

// peekWord returns the identifier starting at the current position without
// consuming it, or "" when the position does not start an identifier.
func (x *extractor) peekWord() string {
	end := x.pos
	for end < len(x.text) && isIdentByte(x.text[end]) {
		end++
	}
	return x.text[x.pos:end]
}

func (x *extractor) readWord() string {
	w := x.peekWord()
	x.pos += len(w)
	return w
}

func (x *extractor) readIdent() string {
	return x.readWord()
}

// readQualifiedIdent reads "a::b::c" style names (used for namespace names).
func (x *extractor) readQualifiedIdent() string {
	start := x.pos
	for x.pos < len(x.text) {
		if isIdentByte(x.text[x.pos]) {
			x.pos++
			continue
		}
		if strings.HasPrefix(x.text[x.pos:], "::") {
			x.pos += 2
			continue
		}
		break
	}
	return x.text[start:x.pos]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
