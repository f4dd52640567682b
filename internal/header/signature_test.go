package header

import "testing"

func TestDecomposeSignature(t *testing.T) {
	t.Run("no parameters", func(t *testing.T) {
		f, ok := DecomposeSignature("void Init();")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "Init" || f.ReturnType != "void" {
			t.Errorf("got name=%q return=%q", f.Name, f.ReturnType)
		}
		if f.Params == nil || len(f.Params) != 0 {
			t.Errorf("expected empty non-nil params, got %#v", f.Params)
		}
	})

	t.Run("void parameter list means no parameters", func(t *testing.T) {
		f, ok := DecomposeSignature("int Count(void);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if len(f.Params) != 0 {
			t.Errorf("(void) should yield zero params, got %#v", f.Params)
		}
	})

	t.Run("qualified reference types", func(t *testing.T) {
		f, ok := DecomposeSignature("algo::cstring& ch_Alloc(algo::cstring& parent);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "ch_Alloc" {
			t.Errorf("name = %q", f.Name)
		}
		if f.ReturnType != "algo::cstring&" {
			t.Errorf("return = %q", f.ReturnType)
		}
		if len(f.Params) != 1 || f.Params[0].Type != "algo::cstring&" || f.Params[0].Name != "parent" {
			t.Errorf("params = %#v", f.Params)
		}
	})

	t.Run("template commas do not split parameters", func(t *testing.T) {
		f, ok := DecomposeSignature("void Load(mapping<int, string> m);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if len(f.Params) != 1 {
			t.Fatalf("template argument comma split the parameter: %#v", f.Params)
		}
		if f.Params[0].Name != "m" {
			t.Errorf("param name = %q", f.Params[0].Name)
		}
	})

	t.Run("default values stripped", func(t *testing.T) {
		f, ok := DecomposeSignature(`void Emit(int x = 5, const char* sep = "a,b");`)
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if len(f.Params) != 2 {
			t.Fatalf("expected 2 params, got %#v", f.Params)
		}
		if f.Params[0].Type != "int" || f.Params[0].Name != "x" {
			t.Errorf("first param = %#v", f.Params[0])
		}
		if f.Params[1].Type != "const char*" || f.Params[1].Name != "sep" {
			t.Errorf("second param = %#v", f.Params[1])
		}
	})

	t.Run("unnamed parameter keeps type only", func(t *testing.T) {
		f, ok := DecomposeSignature("void Step(int, double dt);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Params[0].Type != "int" || f.Params[0].Name != "" {
			t.Errorf("abstract param = %#v", f.Params[0])
		}
		if f.Params[1].Name != "dt" {
			t.Errorf("named param = %#v", f.Params[1])
		}
	})

	t.Run("leading specifiers are not the return type", func(t *testing.T) {
		f, ok := DecomposeSignature("inline static bool ch_EmptyQ(algo::cstring& parent);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.ReturnType != "bool" {
			t.Errorf("return = %q", f.ReturnType)
		}
	})

	t.Run("operator functions", func(t *testing.T) {
		f, ok := DecomposeSignature("bool operator==(const Err& lhs, const Err& rhs);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "operator==" || f.ReturnType != "bool" {
			t.Errorf("got name=%q return=%q", f.Name, f.ReturnType)
		}
		if len(f.Params) != 2 {
			t.Errorf("params = %#v", f.Params)
		}
	})

	t.Run("stream insertion operator", func(t *testing.T) {
		f, ok := DecomposeSignature("algo::cstring& operator<<(algo::cstring& lhs, const algo::Bool& rhs);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "operator<<" || f.ReturnType != "algo::cstring&" {
			t.Errorf("got name=%q return=%q", f.Name, f.ReturnType)
		}
		if len(f.Params) != 2 || f.Params[0].Name != "lhs" || f.Params[1].Name != "rhs" {
			t.Errorf("params = %#v", f.Params)
		}
	})

	t.Run("less-than operator with template parameter", func(t *testing.T) {
		f, ok := DecomposeSignature("bool operator<(const mapping<int, string>& a, const mapping<int, string>& b);")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "operator<" || f.ReturnType != "bool" {
			t.Errorf("got name=%q return=%q", f.Name, f.ReturnType)
		}
		if len(f.Params) != 2 {
			t.Errorf("params = %#v", f.Params)
		}
	})

	t.Run("constructor has empty return type", func(t *testing.T) {
		f, ok := DecomposeSignature("Err(algo::cstring msg, i32 code)")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "Err" || f.ReturnType != "" {
			t.Errorf("got name=%q return=%q", f.Name, f.ReturnType)
		}
	})

	t.Run("inline body is cut before the signature is read", func(t *testing.T) {
		f, ok := DecomposeSignature("int Get() { return x; }")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "Get" || f.ReturnType != "int" || len(f.Params) != 0 {
			t.Errorf("got %#v", f)
		}
	})

	t.Run("trailing attribute after parameter list is ignored", func(t *testing.T) {
		f, ok := DecomposeSignature("bool ch_EmptyQ(algo::cstring& parent) __attribute__((nothrow));")
		if !ok {
			t.Fatal("expected a valid signature")
		}
		if f.Name != "ch_EmptyQ" || len(f.Params) != 1 {
			t.Errorf("got %#v", f)
		}
	})

	t.Run("rejects non-signatures", func(t *testing.T) {
		for _, text := range []string{"", "int x", "= (a + b)", "123(x)"} {
			if _, ok := DecomposeSignature(text); ok {
				t.Errorf("%q should not decompose", text)
			}
		}
	})
}

func TestSplitParams(t *testing.T) {
	t.Run("function pointer stays one parameter", func(t *testing.T) {
		params := SplitParams("void (*cb)(int, int), int n")
		if len(params) != 2 {
			t.Fatalf("expected 2 params, got %#v", params)
		}
	})

	t.Run("varargs", func(t *testing.T) {
		params := SplitParams("const char* fmt, ...")
		if len(params) != 2 {
			t.Fatalf("expected 2 params, got %#v", params)
		}
		if params[1].Type != "..." {
			t.Errorf("varargs param = %#v", params[1])
		}
	})
}
