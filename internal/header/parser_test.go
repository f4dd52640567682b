package header

import (
	"reflect"
	"testing"
)

const boolEnumHeader = `
// Enum -- cast to an underlying type
enum algo_BoolEnum {        // algo.Bool.value
     algo_Bool_N         = 0x0,
     algo_Bool_Y         = 0x1
};
`

const errStructHeader = `
struct Err { // acr.Err: Error record
    algo::cstring     msg;   // Error text
    i32               code;
    // func:acr.Err..Ctor
    Err(algo::cstring msg, i32 code);
};
`

const emptyQHeader = `
// Whether the queue is empty
// func:algo.cstring.ch.EmptyQ
bool ch_EmptyQ(algo::cstring& parent) __attribute__((nothrow));
`

func TestParse(t *testing.T) {
	t.Run("comment stripping preserves declarations", func(t *testing.T) {
		r := Parse("// comment\nstruct Foo { int x; };", "")
		s, ok := r.Struct("Foo")
		if !ok {
			t.Fatal("struct Foo not found")
		}
		if len(s.Fields) != 1 || s.Fields[0].Name != "x" || s.Fields[0].Type != "int" {
			t.Errorf("fields = %#v", s.Fields)
		}
	})

	t.Run("enum with generator tag and hex values", func(t *testing.T) {
		r := Parse(boolEnumHeader, "")
		e, ok := r.Enum("algo_BoolEnum")
		if !ok {
			t.Fatal("enum algo_BoolEnum not found")
		}
		if e.Ctype != "algo.Bool.value" {
			t.Errorf("ctype = %q", e.Ctype)
		}
		want := []EnumConstant{
			{Name: "algo_Bool_N", Value: "0x0"},
			{Name: "algo_Bool_Y", Value: "0x1"},
		}
		if !reflect.DeepEqual(e.Constants, want) {
			t.Errorf("constants = %#v", e.Constants)
		}
	})

	t.Run("enum without explicit values", func(t *testing.T) {
		r := Parse("enum Color { Red, Green, Blue };", "")
		e, ok := r.Enum("Color")
		if !ok {
			t.Fatal("enum Color not found")
		}
		if len(e.Constants) != 3 {
			t.Fatalf("constants = %#v", e.Constants)
		}
		for _, c := range e.Constants {
			if c.Value != "" {
				t.Errorf("constant %s has unexpected value %q", c.Name, c.Value)
			}
		}
	})

	t.Run("struct with ctype tag, field comments, and constructor", func(t *testing.T) {
		r := Parse(errStructHeader, "")
		s, ok := r.Struct("Err")
		if !ok {
			t.Fatal("struct Err not found")
		}
		if s.Ctype != "acr.Err" || s.Comment != "Error record" {
			t.Errorf("ctype = %q comment = %q", s.Ctype, s.Comment)
		}
		want := []Field{
			{Name: "msg", Type: "algo::cstring", Comment: "Error text"},
			{Name: "code", Type: "i32"},
		}
		if !reflect.DeepEqual(s.Fields, want) {
			t.Errorf("fields = %#v", s.Fields)
		}
		if len(s.MemberFunctions) != 1 {
			t.Fatalf("members = %#v", s.MemberFunctions)
		}
		ctor := s.MemberFunctions[0]
		if ctor.Name != "Err" || ctor.FuncTag != "acr.Err..Ctor" {
			t.Errorf("ctor = %#v", ctor)
		}
		if len(r.Functions) != 0 {
			t.Errorf("member function reported as free function: %#v", r.Functions)
		}
	})

	t.Run("function with func tag and doc comment", func(t *testing.T) {
		r := Parse(emptyQHeader, "")
		f, ok := r.Function("ch_EmptyQ")
		if !ok {
			t.Fatal("function ch_EmptyQ not found")
		}
		if f.FuncTag != "algo.cstring.ch.EmptyQ" {
			t.Errorf("func tag = %q", f.FuncTag)
		}
		if f.Comment != "Whether the queue is empty" {
			t.Errorf("comment = %q", f.Comment)
		}
		if f.ReturnType != "bool" || len(f.Params) != 1 || f.Params[0].Type != "algo::cstring&" {
			t.Errorf("signature = %#v", f)
		}
	})

	t.Run("print operator declaration is a free function", func(t *testing.T) {
		r := Parse("algo::cstring& operator<<(algo::cstring& lhs, const algo::Bool& rhs);", "")
		f, ok := r.Function("operator<<")
		if !ok {
			t.Fatalf("operator<< not found; notes = %#v", r.Notes)
		}
		if f.ReturnType != "algo::cstring&" || len(f.Params) != 2 {
			t.Errorf("signature = %#v", f)
		}
		if len(r.Notes) != 0 {
			t.Errorf("unexpected notes: %#v", r.Notes)
		}
	})

	t.Run("trailing field comment does not become the next function's doc", func(t *testing.T) {
		src := `struct Foo {
    int x; // x coordinate
    // func:a.Foo.Init
    void Init();
};`
		r := Parse(src, "")
		s, ok := r.Struct("Foo")
		if !ok {
			t.Fatal("struct Foo not found")
		}
		if s.Fields[0].Comment != "x coordinate" {
			t.Errorf("field comment = %q", s.Fields[0].Comment)
		}
		init := s.MemberFunctions[0]
		if init.FuncTag != "a.Foo.Init" || init.Comment != "" {
			t.Errorf("init = %#v", init)
		}
	})

	t.Run("no-parameter function has empty params", func(t *testing.T) {
		r := Parse("void Init();", "")
		f, ok := r.Function("Init")
		if !ok {
			t.Fatal("function Init not found")
		}
		if f.Params == nil || len(f.Params) != 0 {
			t.Errorf("params = %#v", f.Params)
		}
	})

	t.Run("field order is declaration order", func(t *testing.T) {
		r := Parse("struct P { double a; double b; char buf[16]; };", "")
		s, _ := r.Struct("P")
		want := []Field{
			{Name: "a", Type: "double"},
			{Name: "b", Type: "double"},
			{Name: "buf", Type: "char[16]"},
		}
		if !reflect.DeepEqual(s.Fields, want) {
			t.Errorf("fields = %#v", s.Fields)
		}
	})

	t.Run("nested member functions are not free functions", func(t *testing.T) {
		r := Parse("struct Foo { int x; int Get() { return x; } };", "")
		if len(r.Structs) != 1 || len(r.Functions) != 0 {
			t.Fatalf("structs=%d functions=%d", len(r.Structs), len(r.Functions))
		}
		s := r.Structs[0]
		if len(s.MemberFunctions) != 1 || s.MemberFunctions[0].Name != "Get" {
			t.Errorf("members = %#v", s.MemberFunctions)
		}
	})

	t.Run("truncated input never fails", func(t *testing.T) {
		r := Parse("struct Foo { int x;", "")
		if len(r.Structs) != 0 {
			t.Errorf("truncated struct emitted: %#v", r.Structs)
		}
		if len(r.Notes) == 0 {
			t.Error("expected a diagnostic note")
		}
	})

	t.Run("duplicate names keep both with last winning lookup", func(t *testing.T) {
		r := Parse("struct Foo { int a; };\nstruct Foo { int b; };", "")
		if len(r.Structs) != 2 {
			t.Fatalf("structs = %#v", r.Structs)
		}
		s, _ := r.Struct("Foo")
		if len(s.Fields) != 1 || s.Fields[0].Name != "b" {
			t.Errorf("lookup returned %#v", s)
		}
	})

	t.Run("parsing is deterministic", func(t *testing.T) {
		src := boolEnumHeader + errStructHeader + emptyQHeader
		a := Parse(src, "x_gen.h")
		b := Parse(src, "x_gen.h")
		if !reflect.DeepEqual(a.Structs, b.Structs) ||
			!reflect.DeepEqual(a.Enums, b.Enums) ||
			!reflect.DeepEqual(a.Functions, b.Functions) {
			t.Error("repeated parse of identical input differs")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		r := Parse("", "")
		if r.Structs == nil || r.Enums == nil || r.Functions == nil {
			t.Error("result slices must be non-nil")
		}
		if len(r.Structs)+len(r.Enums)+len(r.Functions) != 0 {
			t.Errorf("unexpected declarations: %+v", r)
		}
	})
}

func TestNamespaceFromPath(t *testing.T) {
	cases := []struct {
		path, want string
	}{
		{"include/gen/algo_gen.h", "algo"},
		{"cpp/gen/acr_gen.inl.h", "acr"},
		{"amc_gen.h", "amc"},
		{"include/algo.h", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := namespaceFromPath(c.path); got != c.want {
			t.Errorf("namespaceFromPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
