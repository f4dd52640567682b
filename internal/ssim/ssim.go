// Package ssim parses and formats ssim tuple lines, the line-oriented record
// format acr reads and writes:
//
//	dmmeta.ctype  ctype:algo.Bool  comment:"Boolean value"
//
// Fields are separated by runs of two or more spaces; the first field is the
// type tag (ns.table), the rest are key:value attributes with optional
// double-quoted values.
package ssim

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Record is one parsed ssim tuple. Keys preserves attribute order from the
// source line so JSON output is stable across calls.
type Record struct {
	Type  string
	Attrs map[string]string
	Keys  []string
}

// Get returns the value for key, or "" when absent.
func (r Record) Get(key string) string {
	return r.Attrs[key]
}

// Key returns the value of the first attribute, which by ssim convention is
// the record's primary key.
func (r Record) Key() string {
	if len(r.Keys) == 0 {
		return ""
	}
	return r.Attrs[r.Keys[0]]
}

// MarshalJSON emits a flat object with a "_type" key followed by the
// attributes in source order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"_type":`)
	tag, err := json.Marshal(r.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(tag)
	for _, k := range r.Keys {
		buf.WriteByte(',')
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.Attrs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseLine parses one tuple line. Reports false for blank lines, comments,
// and lines that do not carry a ns.table type tag.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Record{}, false
	}

	parts := splitFields(line)
	if len(parts) == 0 || !strings.Contains(parts[0], ".") {
		return Record{}, false
	}

	rec := Record{
		Type:  parts[0],
		Attrs: make(map[string]string, len(parts)-1),
	}
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		if _, dup := rec.Attrs[key]; !dup {
			rec.Keys = append(rec.Keys, key)
		}
		rec.Attrs[key] = val
	}
	return rec, true
}

// ParseOutput parses acr's stdout into records, dropping report.* summary
// rows.
func ParseOutput(text string) []Record {
	var out []Record
	for _, line := range strings.Split(text, "\n") {
		rec, ok := ParseLine(line)
		if !ok {
			continue
		}
		if strings.HasPrefix(rec.Type, "report.") {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// splitFields splits a line on runs of two or more spaces. A single space is
// part of a value ("comment:Boolean value" style output from some tools).
func splitFields(line string) []string {
	var fields []string
	start := 0
	i := 0
	for i < len(line) {
		if line[i] == ' ' && i+1 < len(line) && line[i+1] == ' ' {
			fields = append(fields, line[start:i])
			for i < len(line) && line[i] == ' ' {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(line) {
		fields = append(fields, line[start:])
	}
	return fields
}

// Attr is one key:value attribute for building a tuple line.
type Attr struct {
	Key   string
	Value string
}

// Line formats a tuple line the way acr -insert expects: the type tag and
// attributes joined by two spaces, values quoted when they contain spaces or
// are empty.
func Line(typeTag string, attrs ...Attr) string {
	var b strings.Builder
	b.WriteString(typeTag)
	for _, a := range attrs {
		b.WriteString("  ")
		b.WriteString(a.Key)
		b.WriteByte(':')
		b.WriteString(quote(a.Value))
	}
	return b.String()
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"") {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}
