package header

import "strings"

// Comment is one stripped comment, positioned by the offset of the single
// space that replaced it in the normalized text. The generator encodes
// metadata in comments (ctype tags, func tags), so the scanner keeps them
// instead of discarding.
type Comment struct {
	Pos   int    // offset in normalized text of the replacement space
	Text  string // comment body without delimiters, trimmed
	Block bool   // true for /* */ comments
}

// Normalized is comment-free, line-continuation-joined text derived from one
// header document, plus the comments that were stripped out of it.
type Normalized struct {
	Text     string
	Comments []Comment
	Notes    []Note
}

// Normalize strips line and block comments (each replaced with a single
// space to preserve token separation), joins backslash line continuations,
// and folds CRLF line endings. String and character literal contents are
// left untouched so comment-like sequences inside literals survive.
//
// Normalize never fails: an unterminated block comment or literal leaves the
// remainder of the input as plain text, recorded as a MalformedInput note.
func Normalize(src string) Normalized {
	var out strings.Builder
	out.Grow(len(src))
	var n Normalized

	i := 0
	for i < len(src) {
		c := src[i]

		// Fold CRLF so downstream scanning only sees \n.
		if c == '\r' {
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
				continue
			}
			out.WriteByte('\n')
			i++
			continue
		}

		// Join backslash line continuations.
		if c == '\\' && i+1 < len(src) {
			if src[i+1] == '\n' {
				i += 2
				continue
			}
			if src[i+1] == '\r' {
				i += 2
				if i < len(src) && src[i] == '\n' {
					i++
				}
				continue
			}
		}

		if c == '"' || c == '\'' {
			end, closed := scanLiteral(src, i)
			out.WriteString(src[i:end])
			if !closed {
				n.Notes = append(n.Notes, Note{
					Kind:   NoteMalformedInput,
					Offset: out.Len(),
					Detail: "unterminated literal; remainder kept as plain text",
				})
			}
			i = end
			continue
		}

		if c == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				j := i + 2
				for j < len(src) && src[j] != '\n' {
					j++
				}
				n.Comments = append(n.Comments, Comment{
					Pos:  out.Len(),
					Text: strings.TrimSpace(src[i+2 : j]),
				})
				out.WriteByte(' ')
				i = j
				continue
			case '*':
				close := strings.Index(src[i+2:], "*/")
				if close < 0 {
					// Unterminated block comment: keep the rest verbatim.
					n.Notes = append(n.Notes, Note{
						Kind:   NoteMalformedInput,
						Offset: out.Len(),
						Detail: "unterminated block comment; remainder kept as plain text",
					})
					out.WriteString(src[i:])
					i = len(src)
					continue
				}
				n.Comments = append(n.Comments, Comment{
					Pos:   out.Len(),
					Text:  strings.TrimSpace(src[i+2 : i+2+close]),
					Block: true,
				})
				out.WriteByte(' ')
				i = i + 2 + close + 2
				continue
			}
		}

		out.WriteByte(c)
		i++
	}

	n.Text = out.String()
	return n
}

// scanLiteral returns the index one past the closing quote of the string or
// character literal starting at src[start], and whether a closing quote was
// found. A raw newline also ends the scan: literals cannot span lines, and
// stopping there keeps a stray quote from swallowing the rest of the file.
func scanLiteral(src string, start int) (end int, closed bool) {
	quote := src[start]
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1, true
		case '\n':
			return i, false
		}
		i++
	}
	return len(src), false
}
