package header

import "fmt"

// NoteKind classifies a recovered irregularity. Every kind is locally
// recovered; none propagate as failures to the caller.
type NoteKind int

const (
	// NoteMalformedInput marks an unterminated block comment or literal.
	// The remainder of the file was treated as plain text.
	NoteMalformedInput NoteKind = iota
	// NoteTruncatedDeclaration marks a declaration whose brace or paren was
	// never closed. The open span was discarded rather than emitted.
	NoteTruncatedDeclaration
	// NoteUnrecognizedConstruct marks text skipped as opaque (templates,
	// macros, statements that do not look like a declaration).
	NoteUnrecognizedConstruct
)

// String returns the note kind name.
func (k NoteKind) String() string {
	switch k {
	case NoteMalformedInput:
		return "malformed-input"
	case NoteTruncatedDeclaration:
		return "truncated-declaration"
	case NoteUnrecognizedConstruct:
		return "unrecognized-construct"
	}
	return "unknown"
}

// Note is one diagnostic attached to a parse result.
type Note struct {
	Kind   NoteKind
	Offset int // offset into normalized text
	Detail string
}

// String formats the note for logs.
func (n Note) String() string {
	return fmt.Sprintf("%s at %d: %s", n.Kind, n.Offset, n.Detail)
}
