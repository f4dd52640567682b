package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaslyan/openacr-mcp/internal/cache"
	"github.com/aaslyan/openacr-mcp/internal/header"
)

const maxGeneratedCodeBytes = 50000

func registerGenerateTools(r *Registry) {
	r.add(Tool{
		Def: mcp.NewTool("run_amc",
			mcp.WithDescription("Run amc to generate C++ code from the ssim schema."),
			mcp.WithString("namespace", mcp.Description("Optional namespace to regenerate (empty regenerates everything)")),
		),
		Schema: ToolSchema{
			Name:        "run_amc",
			Description: "Regenerate C++ code from the schema.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace to regenerate (empty for all)"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			res := d.Client.Amc(ctx, args.String("namespace"))
			return marshal(map[string]any{
				"ok":     res.OK,
				"stdout": truncate(res.Stdout, 2000),
				"stderr": truncate(res.Stderr, 2000),
			}), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("run_abt",
			mcp.WithDescription("Build/compile a target using abt."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Build target name (e.g. acr, amc)")),
		),
		Schema: ToolSchema{
			Name:        "run_abt",
			Description: "Build a target.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Build target name", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			res := d.Client.Abt(ctx, args.String("target"))
			return marshal(map[string]any{
				"ok":     res.OK,
				"stdout": truncate(res.Stdout, 5000),
				"stderr": truncate(res.Stderr, 5000),
			}), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("list_generated_headers",
			mcp.WithDescription("List generated header files for a namespace."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("The namespace (e.g. algo, acr)")),
		),
		Schema: ToolSchema{
			Name:        "list_generated_headers",
			Description: "List generated headers for a namespace.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			ns := args.String("namespace")
			headers := d.Client.ListGeneratedHeaders(ns)
			if headers == nil {
				headers = []string{}
			}
			return marshal(map[string]any{
				"namespace": ns,
				"headers":   headers,
				"count":     len(headers),
			}), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_generated_code",
			mcp.WithDescription("Return the contents of a generated header file, truncated to 50KB."),
			mcp.WithString("header_path", mcp.Required(), mcp.Description("Path relative to the openacr dir (e.g. include/gen/algo_gen.h)")),
		),
		Schema: ToolSchema{
			Name:        "get_generated_code",
			Description: "Read a generated header file.",
			Parameters: []ParameterSchema{
				{Name: "header_path", Type: "string", Description: "Header path relative to the openacr dir", Required: true},
			},
		},
		Handle: handleGetGeneratedCode,
	})

	r.add(Tool{
		Def: mcp.NewTool("get_functions",
			mcp.WithDescription("Parse generated headers for a namespace and extract structs, enums, and function signatures. The generated API surface in one call."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("The namespace (e.g. algo, acr, dmmeta)")),
		),
		Schema: ToolSchema{
			Name:        "get_functions",
			Description: "Extract the generated API surface for a namespace.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace", Required: true},
			},
		},
		Handle: handleGetFunctions,
	})
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func handleGetGeneratedCode(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	path := args.String("header_path")
	code, err := d.Client.ReadGeneratedFile(path)
	if err != nil {
		return errorJSON(err.Error()), nil
	}
	if len(code) > maxGeneratedCodeBytes {
		return marshal(map[string]any{
			"path":        path,
			"truncated":   true,
			"total_bytes": len(code),
			"content":     code[:maxGeneratedCodeBytes],
		}), nil
	}
	return marshal(map[string]any{"path": path, "content": code}), nil
}

func handleGetFunctions(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	ns := args.String("namespace")
	headers := d.Client.ListGeneratedHeaders(ns)
	if len(headers) == 0 {
		return errorJSON(fmt.Sprintf("no generated headers found for namespace %q", ns)), nil
	}

	combined := map[string]any{
		"namespace":      ns,
		"headers_parsed": []string{},
	}
	parsed := []string{}
	totalEnums, totalStructs, totalFunctions := 0, 0, 0
	enums := []map[string]any{}
	structs := []map[string]any{}
	functions := []map[string]any{}

	for _, rel := range headers {
		content, err := d.Client.ReadGeneratedFile(rel)
		if err != nil {
			return errorJSON(fmt.Sprintf("read %s: %s", rel, err)), nil
		}
		result := parseCached(d, rel, content)

		parsed = append(parsed, rel)
		totalEnums += len(result.Enums)
		totalStructs += len(result.Structs)
		totalFunctions += len(result.Functions)

		for _, e := range result.Enums {
			enums = append(enums, map[string]any{
				"name":        e.Name,
				"ctype":       e.Ctype,
				"value_count": len(e.Constants),
				"header":      rel,
			})
		}
		for _, s := range result.Structs {
			structs = append(structs, map[string]any{
				"name":                  s.Name,
				"ctype":                 s.Ctype,
				"comment":               s.Comment,
				"field_count":           len(s.Fields),
				"member_function_count": len(s.MemberFunctions),
				"header":                rel,
			})
		}
		for _, f := range result.Functions {
			functions = append(functions, map[string]any{
				"func_tag":    f.FuncTag,
				"return_type": f.ReturnType,
				"name":        f.Name,
				"params":      f.Params,
				"comment":     f.Comment,
				"header":      rel,
			})
		}
	}

	combined["headers_parsed"] = parsed
	combined["total_enums"] = totalEnums
	combined["total_structs"] = totalStructs
	combined["total_functions"] = totalFunctions
	combined["enums"] = enums
	combined["structs"] = structs
	combined["functions"] = functions
	return marshal(combined), nil
}

// parseCached parses one header, consulting the parse cache when one is
// configured. A cache entry whose content hash no longer matches is a miss.
func parseCached(d *Deps, path, content string) *header.ParseResult {
	if d.Cache == nil {
		return header.Parse(content, path)
	}
	sum := cache.Sum([]byte(content))
	if raw, ok := d.Cache.Get(path, sum); ok {
		var cached header.ParseResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached
		}
	}
	result := header.Parse(content, path)
	if raw, err := json.Marshal(result); err == nil {
		d.Cache.Put(path, sum, string(raw))
	}
	return result
}
