package header

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("strips line comments", func(t *testing.T) {
		n := Normalize("int x; // trailing\nint y;")
		if strings.Contains(n.Text, "trailing") {
			t.Errorf("comment text leaked into normalized output: %q", n.Text)
		}
		if !strings.Contains(n.Text, "int x; ") {
			t.Errorf("code before comment mangled: %q", n.Text)
		}
		if len(n.Comments) != 1 || n.Comments[0].Text != "trailing" {
			t.Errorf("expected one retained comment %q, got %+v", "trailing", n.Comments)
		}
	})

	t.Run("strips block comments with a space", func(t *testing.T) {
		n := Normalize("int/*gap*/x;")
		if n.Text != "int x;" {
			t.Errorf("expected token separation preserved, got %q", n.Text)
		}
	})

	t.Run("leaves literal contents untouched", func(t *testing.T) {
		n := Normalize(`const char* s = "// not a comment";`)
		if !strings.Contains(n.Text, `"// not a comment"`) {
			t.Errorf("comment-like literal was stripped: %q", n.Text)
		}
		if len(n.Comments) != 0 {
			t.Errorf("literal content reported as comment: %+v", n.Comments)
		}
	})

	t.Run("joins line continuations", func(t *testing.T) {
		n := Normalize("int very_\\\nlong_name;")
		if !strings.Contains(n.Text, "very_long_name") {
			t.Errorf("continuation not joined: %q", n.Text)
		}
	})

	t.Run("folds CRLF", func(t *testing.T) {
		n := Normalize("int x;\r\nint y;\r\n")
		if strings.Contains(n.Text, "\r") {
			t.Errorf("carriage return survived: %q", n.Text)
		}
	})

	t.Run("unterminated block comment keeps remainder as text", func(t *testing.T) {
		n := Normalize("int x; /* never closed\nint y;")
		if !strings.Contains(n.Text, "int x;") {
			t.Errorf("text before comment lost: %q", n.Text)
		}
		if len(n.Notes) != 1 || n.Notes[0].Kind != NoteMalformedInput {
			t.Errorf("expected one malformed-input note, got %+v", n.Notes)
		}
	})

	t.Run("comment positions index into normalized text", func(t *testing.T) {
		n := Normalize("struct Foo { // tag\n};")
		if len(n.Comments) != 1 {
			t.Fatalf("expected one comment, got %d", len(n.Comments))
		}
		pos := n.Comments[0].Pos
		if pos <= 0 || pos >= len(n.Text) || n.Text[pos] != ' ' {
			t.Errorf("comment position %d does not point at the replacement space in %q", pos, n.Text)
		}
	})
}
