package header

import "testing"

func extractText(t *testing.T, src string) ([]Span, []Note) {
	t.Helper()
	n := Normalize(src)
	return Extract(n)
}

func TestExtract(t *testing.T) {
	t.Run("struct span covers header and body", func(t *testing.T) {
		spans, _ := extractText(t, "struct Foo { int x; };")
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		s := spans[0]
		if s.Kind != KindStruct {
			t.Errorf("kind = %v", s.Kind)
		}
		if s.BodyStart < 0 || s.BodyEnd <= s.BodyStart {
			t.Errorf("body offsets %d..%d", s.BodyStart, s.BodyEnd)
		}
	})

	t.Run("namespace blocks are transparent", func(t *testing.T) {
		spans, _ := extractText(t, "namespace algo {\nstruct Foo { int x; };\nvoid Init();\n}")
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].Kind != KindStruct || spans[1].Kind != KindFunction {
			t.Errorf("kinds = %v, %v", spans[0].Kind, spans[1].Kind)
		}
	})

	t.Run("extern C blocks are transparent", func(t *testing.T) {
		spans, _ := extractText(t, "extern \"C\" {\nvoid Init();\n}")
		if len(spans) != 1 || spans[0].Kind != KindFunction {
			t.Fatalf("spans = %+v", spans)
		}
	})

	t.Run("forward declaration produces no span", func(t *testing.T) {
		spans, _ := extractText(t, "struct Foo;\nclass Bar;")
		if len(spans) != 0 {
			t.Errorf("spans = %+v", spans)
		}
	})

	t.Run("nested braces stay inside the enclosing span", func(t *testing.T) {
		spans, _ := extractText(t, "struct Foo { int x; int Get() { return x; } };")
		if len(spans) != 1 {
			t.Fatalf("inline member body leaked out as its own span: %+v", spans)
		}
	})

	t.Run("truncated struct is discarded", func(t *testing.T) {
		spans, notes := extractText(t, "struct Foo { int x;")
		if len(spans) != 0 {
			t.Errorf("truncated declaration emitted: %+v", spans)
		}
		if len(notes) != 1 || notes[0].Kind != NoteTruncatedDeclaration {
			t.Errorf("notes = %+v", notes)
		}
	})

	t.Run("truncated function body is discarded", func(t *testing.T) {
		spans, notes := extractText(t, "void Init() {")
		if len(spans) != 0 {
			t.Errorf("spans = %+v", spans)
		}
		if len(notes) == 0 || notes[0].Kind != NoteTruncatedDeclaration {
			t.Errorf("notes = %+v", notes)
		}
	})

	t.Run("preprocessor lines are skipped", func(t *testing.T) {
		spans, _ := extractText(t, "#pragma once\n#define ALGO_N 4\nvoid Init();")
		if len(spans) != 1 || spans[0].Kind != KindFunction {
			t.Fatalf("spans = %+v", spans)
		}
	})

	t.Run("macro invocation is not a function", func(t *testing.T) {
		spans, notes := extractText(t, "DECLARE_REGISTRY(algo);")
		if len(spans) != 0 {
			t.Errorf("call-shaped statement emitted as declaration: %+v", spans)
		}
		if len(notes) != 1 || notes[0].Kind != NoteUnrecognizedConstruct {
			t.Errorf("notes = %+v", notes)
		}
	})

	t.Run("variable declarations are skipped", func(t *testing.T) {
		spans, _ := extractText(t, "int algo_trace_level = 0;\nvoid Init();")
		if len(spans) != 1 || spans[0].Kind != KindFunction {
			t.Fatalf("spans = %+v", spans)
		}
	})

	t.Run("templates are opaque", func(t *testing.T) {
		spans, notes := extractText(t, "template<class T> struct Vec { T* elems; };\nvoid Init();")
		if len(spans) != 1 || spans[0].Kind != KindFunction {
			t.Fatalf("spans = %+v", spans)
		}
		found := false
		for _, n := range notes {
			if n.Kind == NoteUnrecognizedConstruct {
				found = true
			}
		}
		if !found {
			t.Errorf("expected an unrecognized-construct note, got %+v", notes)
		}
	})

	t.Run("typedef and using are skipped", func(t *testing.T) {
		spans, _ := extractText(t, "typedef unsigned int u32;\nusing i64 = long long;\nvoid Init();")
		if len(spans) != 1 || spans[0].Kind != KindFunction {
			t.Fatalf("spans = %+v", spans)
		}
	})

	t.Run("enum class with base type", func(t *testing.T) {
		spans, _ := extractText(t, "enum class State : u8 { On, Off };")
		if len(spans) != 1 || spans[0].Kind != KindEnum {
			t.Fatalf("spans = %+v", spans)
		}
	})

	t.Run("spans are ordered and non-overlapping", func(t *testing.T) {
		src := "struct A { int x; };\nenum E { One };\nvoid F();\nstruct B { int y; };"
		spans, _ := extractText(t, src)
		if len(spans) != 4 {
			t.Fatalf("expected 4 spans, got %d", len(spans))
		}
		for i := 1; i < len(spans); i++ {
			if spans[i].Start < spans[i-1].End {
				t.Errorf("span %d overlaps previous: %d < %d", i, spans[i].Start, spans[i-1].End)
			}
		}
	})
}
