package header

import (
	"sort"
	"strings"
)

// listStructBody walks the statements between a struct's braces and returns
// its fields in declaration order plus any member function signatures.
// Nested types, labels, and statements that fit neither shape are skipped.
func listStructBody(n Normalized, bodyStart, bodyEnd int) ([]Field, []FunctionInfo) {
	var fields []Field
	var members []FunctionInfo

	pos := bodyStart + 1
	for pos < bodyEnd {
		for pos < bodyEnd && (isSpaceByte(n.Text[pos]) || n.Text[pos] == ';') {
			pos++
		}
		if pos >= bodyEnd {
			break
		}
		stmtStart := pos
		stmtEnd := scanBodyStatement(n.Text, pos, bodyEnd)
		pos = stmtEnd

		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n.Text[stmtStart:stmtEnd]), ";"))
		text = stripAccessLabel(text)
		if text == "" {
			continue
		}

		switch firstWord(text) {
		case "struct", "class", "union", "enum", "typedef", "using", "friend", "template":
			// Nested declarations stay inside the enclosing span.
			continue
		}

		if indexAtDepth(text, '(') > 0 {
			f, ok := DecomposeSignature(text)
			if !ok {
				continue
			}
			annotateFunction(n, stmtStart, &f)
			members = append(members, f)
			continue
		}

		field, ok := parseFieldDecl(text)
		if !ok {
			continue
		}
		if c, ok := trailingComment(n, stmtEnd); ok {
			field.Comment = c.Text
		}
		fields = append(fields, field)
	}
	return fields, members
}

// scanBodyStatement returns the offset one past the end of the statement
// starting at pos: the semicolon at depth zero, or the close of an inline
// body plus an optional semicolon.
func scanBodyStatement(text string, pos, limit int) int {
	parenDepth := 0
	for pos < limit {
		switch text[pos] {
		case '(':
			parenDepth++
		case ')':
			if parenDepth > 0 {
				parenDepth--
			}
		case ';':
			if parenDepth == 0 {
				return pos + 1
			}
		case '{':
			if parenDepth == 0 {
				depth := 0
				for pos < limit {
					if text[pos] == '{' {
						depth++
					} else if text[pos] == '}' {
						depth--
						if depth == 0 {
							pos++
							break
						}
					}
					pos++
				}
				for pos < limit && isSpaceByte(text[pos]) {
					pos++
				}
				if pos < limit && text[pos] == ';' {
					pos++
				}
				return pos
			}
		case '"', '\'':
			end, _ := scanLiteral(text, pos)
			pos = end
			continue
		}
		pos++
	}
	return limit
}

// parseFieldDecl splits one member declaration into (name, type). Default
// values and bitfield widths are stripped; an array suffix stays with the
// type. Reports false when no field name can be found.
func parseFieldDecl(text string) (Field, bool) {
	text = strings.TrimSpace(stripDefault(text))
	text = strings.TrimSpace(stripBitfieldWidth(text))
	if text == "" {
		return Field{}, false
	}

	tokens := tokenizeParam(text)
	// Peel array suffixes off the end; they belong to the type.
	var suffix string
	for len(tokens) > 0 && strings.HasPrefix(tokens[len(tokens)-1], "[") {
		suffix = tokens[len(tokens)-1] + suffix
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) < 2 {
		return Field{}, false
	}
	name := tokens[len(tokens)-1]
	if !isPlainIdent(name) || typeKeywords[name] {
		return Field{}, false
	}
	return Field{
		Name: name,
		Type: normalizeType(strings.Join(tokens[:len(tokens)-1], " ")) + suffix,
	}, true
}

// stripBitfieldWidth removes a ": width" suffix, taking care not to touch
// scope operators.
func stripBitfieldWidth(text string) string {
	for i := len(text) - 1; i > 0; i-- {
		if text[i] != ':' {
			continue
		}
		if text[i-1] == ':' || i+1 < len(text) && text[i+1] == ':' {
			return text // part of ::
		}
		rest := strings.TrimSpace(text[i+1:])
		if rest != "" && !strings.ContainsAny(rest, "(){}<>") {
			return text[:i]
		}
		return text
	}
	return text
}

func stripAccessLabel(text string) string {
	for _, label := range []string{"public:", "private:", "protected:"} {
		if strings.HasPrefix(text, label) {
			return strings.TrimSpace(text[len(label):])
		}
	}
	return text
}

func firstWord(text string) string {
	end := 0
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	return text[:end]
}

// listEnumBody splits the text between an enum's braces into constants,
// each with its optional explicit value. Commas only split at depth zero so
// parenthesized value expressions survive.
func listEnumBody(n Normalized, bodyStart, bodyEnd int) []EnumConstant {
	content := n.Text[bodyStart+1 : bodyEnd]

	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, content[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, content[last:])

	var constants []EnumConstant
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, value := p, ""
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			name = strings.TrimSpace(p[:eq])
			value = strings.Join(strings.Fields(p[eq+1:]), " ")
		}
		if !isPlainIdent(name) {
			continue
		}
		constants = append(constants, EnumConstant{Name: name, Value: value})
	}
	return constants
}

// --- comment annotation helpers -------------------------------------------

// trailingComment returns the comment on the same line as offset, separated
// from it only by spaces, if any.
func trailingComment(n Normalized, offset int) (Comment, bool) {
	i := sort.Search(len(n.Comments), func(i int) bool {
		return n.Comments[i].Pos >= offset
	})
	if i >= len(n.Comments) {
		return Comment{}, false
	}
	c := n.Comments[i]
	gap := n.Text[offset:c.Pos]
	if strings.ContainsAny(gap, "\n") || strings.TrimSpace(gap) != "" {
		return Comment{}, false
	}
	return c, true
}

// precedingComments returns the comments immediately above offset in source
// order; each must be separated from the next (and from offset) by
// whitespace only.
func precedingComments(n Normalized, offset int) []Comment {
	i := sort.Search(len(n.Comments), func(i int) bool {
		return n.Comments[i].Pos >= offset
	})
	var out []Comment
	cur := offset
	for i > 0 {
		c := n.Comments[i-1]
		if strings.TrimSpace(n.Text[c.Pos+1:cur]) != "" {
			break
		}
		// A trailing comment on a code line belongs to that line, not to
		// the declaration below it.
		if !atLineStart(n.Text, c.Pos) {
			break
		}
		out = append(out, c)
		cur = c.Pos
		i--
	}
	// Reverse into source order.
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// atLineStart reports whether only blanks separate pos from the start of
// its line.
func atLineStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// annotateFunction attaches the generator's "func:" tag and the doc comment
// lines above it to a function extracted at the given offset.
func annotateFunction(n Normalized, offset int, f *FunctionInfo) {
	above := precedingComments(n, offset)
	for i := len(above) - 1; i >= 0; i-- {
		tag, ok := strings.CutPrefix(above[i].Text, "func:")
		if !ok {
			continue
		}
		f.FuncTag = strings.TrimSpace(tag)
		var doc []string
		for _, c := range above[:i] {
			if c.Text != "" && !strings.HasPrefix(c.Text, "func:") {
				doc = append(doc, c.Text)
			}
		}
		f.Comment = strings.Join(doc, " ")
		return
	}
}
