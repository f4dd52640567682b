// Package header extracts structural facts from amc-generated C++ headers:
// struct definitions, enum definitions, and function signatures. It is not a
// compiler front end — the generator's output is highly regular, so a linear
// scan with brace-depth tracking is enough. Malformed or hand-edited input is
// handled best-effort: the parser always returns a result, possibly partial,
// and never fails.
package header

// Kind classifies a declaration span.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
	KindFunction
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Span identifies one top-level declaration within normalized text.
// Spans are non-overlapping and ordered by Start. Braces nested inside a
// declaration (inline member functions, nested types) belong to the enclosing
// span and are never emitted separately.
type Span struct {
	Kind  Kind
	Start int // offset into normalized text
	End   int // offset one past the last byte of the declaration
	Text  string

	// BodyStart is the offset of the opening brace in normalized text,
	// or -1 for a function prototype with no body.
	BodyStart int
	// BodyEnd is the offset of the matching closing brace, or -1.
	BodyEnd int
}

// Field is one struct member in declaration order.
type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// StructInfo describes one struct or class declaration. Field order is
// preserved from source: callers cross-reference generated accessors, so
// declaration order is meaningful.
type StructInfo struct {
	Name    string `json:"name"`
	Ctype   string `json:"ctype,omitempty"`   // generator tag, e.g. "acr.Err"
	Comment string `json:"comment,omitempty"` // text after the ctype tag
	Fields  []Field `json:"fields"`
	// Member functions declared inside the struct body. These are never
	// reported as free functions.
	MemberFunctions []FunctionInfo `json:"member_functions,omitempty"`
}

// EnumConstant is one enumerator; Value is empty when no explicit value
// was given in source.
type EnumConstant struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// EnumInfo describes one enum declaration.
type EnumInfo struct {
	Name      string         `json:"name"`
	Ctype     string         `json:"ctype,omitempty"` // generator tag, e.g. "algo.Bool.value"
	Constants []EnumConstant `json:"values"`
}

// Param is one function parameter. Name is empty for abstract declarations
// (a parameter given as a bare type).
type Param struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// FunctionInfo describes one free or member function signature.
type FunctionInfo struct {
	Name       string  `json:"name"`
	ReturnType string  `json:"return_type"`
	Params     []Param `json:"params"`
	FuncTag    string  `json:"func_tag,omitempty"` // generator tag, e.g. "algo.cstring.ch.Alloc"
	Comment    string  `json:"comment,omitempty"`  // doc comment lines above the func tag
}

// ParseResult aggregates everything extracted from one header document.
// Slices preserve source order; lookup by name is via the accessors, where
// the last occurrence of a repeated name wins (the generator should never
// emit collisions, but they must not crash the parser).
type ParseResult struct {
	Path      string `json:"path,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	Structs   []StructInfo   `json:"structs"`
	Enums     []EnumInfo     `json:"enums"`
	Functions []FunctionInfo `json:"functions"`

	// Notes records locally recovered irregularities (unterminated comment,
	// truncated declaration, skipped construct). They are diagnostics, not
	// errors, and are excluded from the wire shape.
	Notes []Note `json:"-"`

	structByName map[string]int
	enumByName   map[string]int
	funcByName   map[string]int
}

// Struct returns the last struct declared with the given name.
func (r *ParseResult) Struct(name string) (StructInfo, bool) {
	i, ok := r.structByName[name]
	if !ok {
		return StructInfo{}, false
	}
	return r.Structs[i], true
}

// Enum returns the last enum declared with the given name.
func (r *ParseResult) Enum(name string) (EnumInfo, bool) {
	i, ok := r.enumByName[name]
	if !ok {
		return EnumInfo{}, false
	}
	return r.Enums[i], true
}

// Function returns the last free function declared with the given name.
func (r *ParseResult) Function(name string) (FunctionInfo, bool) {
	i, ok := r.funcByName[name]
	if !ok {
		return FunctionInfo{}, false
	}
	return r.Functions[i], true
}

func (r *ParseResult) addStruct(s StructInfo) {
	if r.structByName == nil {
		r.structByName = make(map[string]int)
	}
	r.Structs = append(r.Structs, s)
	r.structByName[s.Name] = len(r.Structs) - 1
}

func (r *ParseResult) addEnum(e EnumInfo) {
	if r.enumByName == nil {
		r.enumByName = make(map[string]int)
	}
	r.Enums = append(r.Enums, e)
	r.enumByName[e.Name] = len(r.Enums) - 1
}

func (r *ParseResult) addFunction(f FunctionInfo) {
	if r.funcByName == nil {
		r.funcByName = make(map[string]int)
	}
	r.Functions = append(r.Functions, f)
	r.funcByName[f.Name] = len(r.Functions) - 1
}
