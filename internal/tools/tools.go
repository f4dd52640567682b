// Package tools defines the openacr-mcp operation registry. Every operation
// is one Tool: an mcp-go definition for the wire, a flat schema for CLI help,
// and a handler that turns arguments into a JSON payload. Handlers report
// domain failures inside the payload ({"error": ...}) so agents always get
// parseable output; a Go error escapes only for malformed requests.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaslyan/openacr-mcp/internal/acr"
	"github.com/aaslyan/openacr-mcp/internal/cache"
	"github.com/aaslyan/openacr-mcp/internal/config"
	"github.com/aaslyan/openacr-mcp/internal/ssim"
)

// Deps holds the shared collaborators handlers work against.
type Deps struct {
	Client *acr.Client
	Cache  *cache.Cache
	Config *config.Config
}

// Handler executes one operation.
type Handler func(ctx context.Context, d *Deps, args Args) (string, error)

// Tool bundles everything the server and the CLI need to expose one
// operation.
type Tool struct {
	Def    mcp.Tool
	Schema ToolSchema
	Handle Handler
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Registry holds all tools in registration order.
type Registry struct {
	names  []string
	byName map[string]Tool
}

// NewRegistry builds the full tool catalog.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	registerProjectTools(r)
	registerQueryTools(r)
	registerAuthoringTools(r)
	registerGenerateTools(r)
	registerGuideTools(r)
	return r
}

func (r *Registry) add(t Tool) {
	if _, dup := r.byName[t.Schema.Name]; dup {
		panic("duplicate tool: " + t.Schema.Name)
	}
	r.names = append(r.names, t.Schema.Name)
	r.byName[t.Schema.Name] = t
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Schemas returns all tool schemas in registration order.
func (r *Registry) Schemas() []ToolSchema {
	out := make([]ToolSchema, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name].Schema)
	}
	return out
}

// Args is the raw argument map of one call. JSON numbers arrive as float64.
type Args map[string]any

// String returns a string argument, or "" when absent.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Int returns a numeric argument, or dflt when absent.
func (a Args) Int(key string, dflt int) int {
	if v, ok := a[key].(float64); ok {
		return int(v)
	}
	return dflt
}

// Bool returns a boolean argument, or false when absent.
func (a Args) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// StringSlice returns a string-list argument.
func (a Args) StringSlice(key string) []string {
	raw, ok := a[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// marshal renders any payload as indented JSON.
func marshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal payload: %s"}`, err)
	}
	return string(b)
}

// errorJSON renders an error payload. Extra key/value pairs are appended.
func errorJSON(msg string, extra ...any) string {
	payload := map[string]any{"error": msg}
	for i := 0; i+1 < len(extra); i += 2 {
		key, ok := extra[i].(string)
		if !ok {
			continue
		}
		payload[key] = extra[i+1]
	}
	return marshal(payload)
}

// resultJSON renders an acr command outcome the way agents consume it:
// records and a count on success, the failure text otherwise.
func resultJSON(r acr.Result) string {
	if r.OK {
		records := r.Records
		if records == nil {
			records = []ssim.Record{}
		}
		return marshal(map[string]any{
			"ok":      true,
			"records": records,
			"count":   len(records),
		})
	}
	return marshal(map[string]any{
		"ok":     false,
		"error":  r.Err(),
		"stderr": r.Stderr,
	})
}

// requireClient rejects calls made before the client is configured.
func requireClient(d *Deps) (string, bool) {
	if d == nil || d.Client == nil {
		return errorJSON("OpenACR client not initialized"), false
	}
	return "", true
}
