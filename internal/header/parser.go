package header

import (
	"os"
	"path/filepath"
	"strings"
)

// Parse extracts all struct, enum, and function declarations from one
// generated header's text. It is a pure function: no I/O, no shared state,
// and it never fails — malformed input yields a partial (possibly empty)
// result with diagnostic notes, since a partial result is strictly more
// useful to an agent than an aborted call.
//
// path is optional and used only for the namespace hint (algo_gen.h ->
// "algo"); pass "" when parsing bare text.
func Parse(text, path string) *ParseResult {
	r := &ParseResult{
		Path:      path,
		Namespace: namespaceFromPath(path),
		Structs:   []StructInfo{},
		Enums:     []EnumInfo{},
		Functions: []FunctionInfo{},
	}

	n := Normalize(text)
	r.Notes = append(r.Notes, n.Notes...)

	spans, notes := Extract(n)
	r.Notes = append(r.Notes, notes...)

	for _, span := range spans {
		switch span.Kind {
		case KindStruct:
			r.addStruct(assembleStruct(n, span))
		case KindEnum:
			r.addEnum(assembleEnum(n, span))
		case KindFunction:
			f, ok := DecomposeSignature(span.Text)
			if !ok {
				continue
			}
			annotateFunction(n, span.Start, &f)
			r.addFunction(f)
		}
	}
	return r
}

// ParseFile reads and parses a generated header from disk.
func ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path), nil
}

func assembleStruct(n Normalized, span Span) StructInfo {
	s := StructInfo{
		Name:   declaredName(n.Text[span.Start:span.BodyStart], false),
		Fields: []Field{},
	}
	if c, ok := trailingComment(n, span.BodyStart+1); ok {
		s.Ctype, s.Comment = splitCtypeTag(c.Text)
	}
	fields, members := listStructBody(n, span.BodyStart, span.BodyEnd)
	if fields != nil {
		s.Fields = fields
	}
	s.MemberFunctions = members
	return s
}

func assembleEnum(n Normalized, span Span) EnumInfo {
	e := EnumInfo{
		Name:      declaredName(n.Text[span.Start:span.BodyStart], true),
		Constants: []EnumConstant{},
	}
	if c, ok := trailingComment(n, span.BodyStart+1); ok {
		e.Ctype, _ = splitCtypeTag(c.Text)
	}
	if constants := listEnumBody(n, span.BodyStart, span.BodyEnd); constants != nil {
		e.Constants = constants
	}
	return e
}

// declaredName pulls the type name out of a declaration header such as
// "struct Err" or "enum class Color : u8".
func declaredName(head string, isEnum bool) string {
	fields := strings.FieldsFunc(head, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	// fields[0] is the struct/class/enum keyword.
	for _, f := range fields[1:] {
		if isEnum && (f == "class" || f == "struct") {
			continue
		}
		return f
	}
	return ""
}

// splitCtypeTag interprets the generator's annotation comment after an
// opening brace: "acr.Err: Error record" gives ("acr.Err", "Error record"),
// and a bare tag like "algo.Bool.value" gives ("algo.Bool.value", "").
func splitCtypeTag(text string) (ctype, comment string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if i := strings.IndexByte(text, ':'); i >= 0 {
		tag := strings.TrimSpace(text[:i])
		if tag != "" && !strings.ContainsAny(tag, " \t") {
			return tag, strings.TrimSpace(text[i+1:])
		}
		return "", text
	}
	if strings.ContainsAny(text, " \t") {
		return "", text
	}
	return text, ""
}

// namespaceFromPath derives the namespace from a generated header's file
// name: "algo_gen.h" -> "algo", "acr_gen.inl.h" -> "acr".
func namespaceFromPath(path string) string {
	if path == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(path), ".h")
	if ns, ok := strings.CutSuffix(base, "_gen.inl"); ok {
		return ns
	}
	if ns, ok := strings.CutSuffix(base, "_gen"); ok {
		return ns
	}
	return ""
}
