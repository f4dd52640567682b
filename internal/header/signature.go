package header

import "strings"

// typeKeywords are tokens that can never be a parameter name. A parameter
// whose rightmost token is one of these is type-only.
var typeKeywords = map[string]bool{
	"const": true, "volatile": true, "unsigned": true, "signed": true,
	"long": true, "short": true, "int": true, "char": true, "float": true,
	"double": true, "bool": true, "void": true, "struct": true, "class": true,
	"enum": true, "union": true, "register": true, "restrict": true,
}

// leadingQualifiers are specifier tokens stripped from the front of a
// declaration before the return type is read.
var leadingQualifiers = map[string]bool{
	"inline": true, "static": true, "explicit": true, "virtual": true,
	"constexpr": true, "extern": true, "friend": true,
}

// DecomposeSignature splits a function declaration's raw text into return
// type, name, and ordered parameters. The name is the last identifier token
// before the parameter list's opening paren; parameters are split by comma
// at paren/angle depth zero so nested template argument lists and
// function-pointer types are not mis-split. Reports false when the text
// does not have the shape of a signature.
func DecomposeSignature(text string) (FunctionInfo, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, ";")

	// Cut an inline body: the signature ends at the first brace outside the
	// parameter list.
	if cut := indexAtDepth(s, '{'); cut >= 0 {
		s = strings.TrimSpace(s[:cut])
	}

	open := indexAtDepth(s, '(')
	if open <= 0 {
		return FunctionInfo{}, false
	}
	closeIdx := matchParen(s, open)
	if closeIdx < 0 {
		return FunctionInfo{}, false
	}

	name, ret, ok := splitNameAndReturn(s[:open])
	if !ok {
		return FunctionInfo{}, false
	}

	params := SplitParams(s[open+1 : closeIdx])
	if params == nil {
		params = []Param{}
	}
	return FunctionInfo{
		Name:       name,
		ReturnType: ret,
		Params:     params,
	}, true
}

// splitNameAndReturn separates the text before the parameter list into the
// function name (rightmost identifier, or an operator spelling) and the
// remaining qualifier/return-type tokens.
func splitNameAndReturn(pre string) (name, ret string, ok bool) {
	pre = strings.TrimSpace(pre)
	if pre == "" {
		return "", "", false
	}

	if i := operatorIndex(pre); i >= 0 {
		spelled := strings.Join(strings.Fields(pre[i:]), "")
		return spelled, normalizeType(stripQualifiers(pre[:i])), true
	}

	// Walk back over the trailing identifier, including :: qualification
	// and a destructor tilde.
	end := len(pre)
	start := end
	for start > 0 {
		c := pre[start-1]
		if isIdentByte(c) || c == '~' {
			start--
			continue
		}
		if start >= 2 && pre[start-2] == ':' && pre[start-1] == ':' {
			start -= 2
			continue
		}
		break
	}
	name = pre[start:end]
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return "", "", false
	}
	ret = normalizeType(stripQualifiers(pre[:start]))
	return name, ret, true
}

// operatorIndex returns the index of a trailing "operator" keyword in pre,
// or -1. Word boundaries are checked so identifiers like "my_operator_x"
// do not match.
func operatorIndex(pre string) int {
	i := strings.LastIndex(pre, "operator")
	if i < 0 {
		return -1
	}
	if i > 0 && isIdentByte(pre[i-1]) {
		return -1
	}
	rest := pre[i+len("operator"):]
	if rest != "" && isIdentByte(rest[0]) {
		return -1
	}
	// "operator" must be followed by an operator spelling, not nothing.
	if strings.TrimSpace(rest) == "" {
		return -1
	}
	return i
}

// stripQualifiers drops leading specifier tokens (inline, static, ...) that
// are not part of the return type.
func stripQualifiers(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 0 && leadingQualifiers[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// SplitParams splits parenthesized parameter text into individual
// parameters. Commas only split at depth zero, so "mapping<int, string>"
// stays one parameter. A list containing only "void" yields an empty list,
// not a single void-typed parameter.
func SplitParams(raw string) []Param {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parts []string
	depthParen, depthAngle, depthBracket, depthBrace := 0, 0, 0, 0
	last := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depthParen++
		case ')':
			depthParen--
		case '<':
			depthAngle++
		case '>':
			if depthAngle > 0 {
				depthAngle--
			}
		case '[':
			depthBracket++
		case ']':
			depthBracket--
		case '{':
			depthBrace++
		case '}':
			depthBrace--
		case '"', '\'':
			end, _ := scanLiteral(raw, i)
			i = end - 1
		case ',':
			if depthParen == 0 && depthAngle == 0 && depthBracket == 0 && depthBrace == 0 {
				parts = append(parts, raw[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, raw[last:])

	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "void" {
		return nil
	}

	params := make([]Param, 0, len(parts))
	for _, p := range parts {
		params = append(params, splitParam(p))
	}
	return params
}

// splitParam separates one parameter's trailing identifier (the name) from
// its preceding type tokens with a rightmost-identifier heuristic. A
// default-value expression is stripped first; a parameter with no trailing
// identifier keeps an empty name.
func splitParam(raw string) Param {
	raw = strings.TrimSpace(stripDefault(raw))
	if raw == "" {
		return Param{}
	}

	tokens := tokenizeParam(raw)
	if len(tokens) == 0 {
		return Param{Type: raw}
	}

	last := tokens[len(tokens)-1]
	if len(tokens) > 1 && isPlainIdent(last) && !typeKeywords[last] {
		return Param{
			Type: normalizeType(strings.Join(tokens[:len(tokens)-1], " ")),
			Name: last,
		}
	}
	return Param{Type: normalizeType(strings.Join(tokens, " "))}
}

// stripDefault removes "= expr" at depth zero. Defaults buried inside a
// template argument list are left in place as opaque type text.
func stripDefault(raw string) string {
	depthParen, depthAngle := 0, 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depthParen++
		case ')':
			depthParen--
		case '<':
			depthAngle++
		case '>':
			if depthAngle > 0 {
				depthAngle--
			}
		case '"', '\'':
			end, _ := scanLiteral(raw, i)
			i = end - 1
		case '=':
			if depthParen == 0 && depthAngle == 0 {
				return raw[:i]
			}
		}
	}
	return raw
}

// tokenizeParam splits parameter text into identifier-ish tokens (with any
// attached template argument list), pointer/reference markers, and array
// suffixes.
func tokenizeParam(raw string) []string {
	var tokens []string
	i := 0
	for i < len(raw) {
		c := raw[i]
		switch {
		case isSpaceByte(c):
			i++
		case isIdentByte(c) || c == ':' || c == '~':
			start := i
			for i < len(raw) && (isIdentByte(raw[i]) || raw[i] == ':' || raw[i] == '~') {
				i++
			}
			// Attach a template argument list to its identifier.
			if i < len(raw) && raw[i] == '<' {
				depth := 0
				for i < len(raw) {
					if raw[i] == '<' {
						depth++
					} else if raw[i] == '>' {
						depth--
						if depth == 0 {
							i++
							break
						}
					}
					i++
				}
			}
			tokens = append(tokens, raw[start:i])
		case c == '*' || c == '&':
			tokens = append(tokens, string(c))
			i++
		case c == '[':
			start := i
			for i < len(raw) && raw[i] != ']' {
				i++
			}
			if i < len(raw) {
				i++
			}
			tokens = append(tokens, raw[start:i])
		case c == '.':
			// Varargs.
			start := i
			for i < len(raw) && raw[i] == '.' {
				i++
			}
			tokens = append(tokens, raw[start:i])
		default:
			tokens = append(tokens, string(c))
			i++
		}
	}
	return tokens
}

// isPlainIdent reports whether s is an unqualified identifier with no
// template arguments or scope operators.
func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// normalizeType collapses whitespace in type text and reattaches pointer,
// reference, and template punctuation.
func normalizeType(s string) string {
	out := strings.Join(strings.Fields(s), " ")
	for _, r := range []struct{ old, new string }{
		{"< ", "<"}, {" >", ">"}, {" ,", ","},
		{" *", "*"}, {" &", "&"}, {" [", "["}, {" ::", "::"}, {":: ", "::"},
	} {
		out = strings.ReplaceAll(out, r.old, r.new)
	}
	return out
}

// indexAtDepth returns the index of the first occurrence of target in s at
// paren/angle/brace depth zero, skipping literal contents, or -1. Angle
// brackets spelling an operator name (operator<<, operator<) do not open a
// template argument list and are excluded from depth tracking.
func indexAtDepth(s string, target byte) int {
	depthParen, depthAngle := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == target && depthParen == 0 && depthAngle == 0 {
			return i
		}
		switch c {
		case '(':
			depthParen++
		case ')':
			if depthParen > 0 {
				depthParen--
			}
		case '<':
			if !operatorSpelling(s, i) {
				depthAngle++
			}
		case '>':
			if depthAngle > 0 && !operatorSpelling(s, i) {
				depthAngle--
			}
		case '"', '\'':
			end, _ := scanLiteral(s, i)
			i = end - 1
		}
	}
	return -1
}

// operatorSpelling reports whether the punctuation byte at s[i] is part of
// an operator name following the "operator" keyword, as in operator<<,
// operator<= or operator->.
func operatorSpelling(s string, i int) bool {
	j := i
	for j > 0 {
		c := s[j-1]
		if c != '<' && c != '>' && c != '=' && c != '-' {
			break
		}
		j--
	}
	for j > 0 && isSpaceByte(s[j-1]) {
		j--
	}
	const kw = "operator"
	if j < len(kw) || s[j-len(kw):j] != kw {
		return false
	}
	k := j - len(kw)
	return k == 0 || !isIdentByte(s[k-1])
}

// matchParen returns the index of the close paren matching the open paren
// at s[open], or -1 when it never closes.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '"', '\'':
			end, _ := scanLiteral(s, i)
			i = end - 1
		}
	}
	return -1
}
