package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaslyan/openacr-mcp/internal/ssim"
)

func registerQueryTools(r *Registry) {
	r.add(Tool{
		Def: mcp.NewTool("list_namespaces",
			mcp.WithDescription("List all OpenACR namespaces with ns, nstype, license, and comment."),
		),
		Schema: ToolSchema{
			Name:        "list_namespaces",
			Description: "List all OpenACR namespaces.",
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.ListNamespaces(ctx)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_namespace_tree",
			mcp.WithDescription("Get a complete tree view of a namespace: all ctypes, fields, fconsts, ssimfiles, cfmt records, and reverse references in one call. The single best way to understand a namespace."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("The namespace to inspect (e.g. moviedb)")),
		),
		Schema: ToolSchema{
			Name:        "get_namespace_tree",
			Description: "Full cross-reference tree for a namespace (acr -t).",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace to inspect", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			ns := args.String("namespace")
			res := d.Client.Query(ctx, "dmmeta.ns:"+ns, true)
			if res.OK {
				return marshal(map[string]any{"ok": true, "namespace": ns, "tree": res.Stdout}), nil
			}
			return resultJSON(res), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("list_ctypes",
			mcp.WithDescription("List all ctypes (structs) in a namespace."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace to query (e.g. algo, acr, dmmeta)")),
		),
		Schema: ToolSchema{
			Name:        "list_ctypes",
			Description: "List all ctypes in a namespace.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace to query", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.ListCtypes(ctx, args.String("namespace"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_ctype",
			mcp.WithDescription("Get full detail for a ctype including cross-references (tree view)."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Ctype name (e.g. algo.Bool, dmmeta.Ctype)")),
		),
		Schema: ToolSchema{
			Name:        "get_ctype",
			Description: "Cross-reference tree for one ctype.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Ctype name", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			res := d.Client.Query(ctx, "dmmeta.ctype:"+args.String("ctype"), true)
			if res.OK {
				return marshal(map[string]any{"ok": true, "tree": res.Stdout}), nil
			}
			return resultJSON(res), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("list_fields",
			mcp.WithDescription("List all fields for a ctype with field, arg, reftype, dflt, comment."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Ctype name (e.g. algo.Bool)")),
		),
		Schema: ToolSchema{
			Name:        "list_fields",
			Description: "List all fields of a ctype.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Ctype name", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.ListFields(ctx, args.String("ctype"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("query",
			mcp.WithDescription("Run a raw acr query against the ssimfile database."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern (e.g. dmmeta.ctype:algo.%)")),
		),
		Schema: ToolSchema{
			Name:        "query",
			Description: "Raw acr query.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Query(ctx, args.String("pattern"), false)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("search",
			mcp.WithDescription("Search ctypes, fields, and comments for a text string; queries multiple acr patterns and deduplicates."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Search text")),
		),
		Schema: ToolSchema{
			Name:        "search",
			Description: "Search ctype names, field names, and comments.",
			Parameters: []ParameterSchema{
				{Name: "text", Type: "string", Description: "Search text", Required: true},
			},
		},
		Handle: handleSearch,
	})

	r.add(Tool{
		Def: mcp.NewTool("list_fconsts",
			mcp.WithDescription("List enum constants (fconsts) in a namespace or for a specific ctype."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace to search")),
			mcp.WithString("ctype", mcp.Description("Optional ctype filter (e.g. dev.Mdmark)")),
		),
		Schema: ToolSchema{
			Name:        "list_fconsts",
			Description: "List enum constants in a namespace or ctype.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace to search", Required: true},
				{Name: "ctype", Type: "string", Description: "Optional ctype filter"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			pattern := "dmmeta.fconst:" + args.String("namespace") + ".%"
			if ctype := args.String("ctype"); ctype != "" {
				pattern = "dmmeta.fconst:" + ctype + ".%"
			}
			return resultJSON(d.Client.Query(ctx, pattern, false)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("list_ssimfiles",
			mcp.WithDescription("List all ssimfiles (data tables) in a namespace. Each ssimfile is a flat file in data/<ns>/<table>.ssim storing records for one ctype."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace to query")),
		),
		Schema: ToolSchema{
			Name:        "list_ssimfiles",
			Description: "List data tables in a namespace.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace to query", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Query(ctx, "dmmeta.ssimfile:"+args.String("namespace")+".%", false)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("list_finputs",
			mcp.WithDescription("List the runtime table inputs (finputs) of an exe target: which ssimfiles it loads into memory at startup."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target namespace (e.g. acr, amc)")),
		),
		Schema: ToolSchema{
			Name:        "list_finputs",
			Description: "List runtime table inputs of a target.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target namespace", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Query(ctx, "dmmeta.finput:"+args.String("target")+".%", false)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_downstream",
			mcp.WithDescription("Get downstream dependencies via acr -ndown: records that depend on the matched records (a ctype's fields, for example)."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern")),
			mcp.WithNumber("levels", mcp.Description("Levels to traverse down (1-100, default 1)")),
		),
		Schema: ToolSchema{
			Name:        "get_downstream",
			Description: "Traverse foreign key references downward.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
				{Name: "levels", Type: "number", Description: "Levels to traverse (default 1)"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.NDown(ctx, args.String("pattern"), clampLevels(args.Int("levels", 1)))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_upstream",
			mcp.WithDescription("Get upstream references via acr -nup: records that the matched records depend on (a field's parent ctype and arg type, for example)."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern")),
			mcp.WithNumber("levels", mcp.Description("Levels to traverse up (1-100, default 1)")),
		),
		Schema: ToolSchema{
			Name:        "get_upstream",
			Description: "Traverse foreign key references upward.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
				{Name: "levels", Type: "number", Description: "Levels to traverse (default 1)"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.NUp(ctx, args.String("pattern"), clampLevels(args.Int("levels", 1)))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("find_unused",
			mcp.WithDescription("Find records matching the pattern that no other record references. Useful for cleanup."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern (e.g. dmmeta.ctype:myns.%)")),
		),
		Schema: ToolSchema{
			Name:        "find_unused",
			Description: "Find unreferenced records.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Unused(ctx, args.String("pattern"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_record_meta",
			mcp.WithDescription("Get schema metadata (ctype and field definitions) for records matching the pattern."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern (e.g. dmmeta.ctype:algo.Bool)")),
		),
		Schema: ToolSchema{
			Name:        "get_record_meta",
			Description: "Schema metadata for matched records.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Meta(ctx, args.String("pattern"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("select_fields",
			mcp.WithDescription("Query records with field projection: only return the named columns."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("acr query pattern")),
			mcp.WithArray("fields", mcp.Required(), mcp.Description("Field names to project (e.g. [\"field\", \"arg\", \"reftype\"])")),
		),
		Schema: ToolSchema{
			Name:        "select_fields",
			Description: "Query with column projection.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "acr query pattern", Required: true},
				{Name: "fields", Type: "array", Description: "Field names to project", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			fields := args.StringSlice("fields")
			if len(fields) == 0 {
				return errorJSON("must specify at least one field to project"), nil
			}
			pattern := args.String("pattern")
			res := d.Client.SelectFields(ctx, pattern, fields)
			if res.OK {
				return marshal(map[string]any{
					"ok": true, "output": res.Stdout, "pattern": pattern, "fields": fields,
				}), nil
			}
			return resultJSON(res), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_input_tables",
			mcp.WithDescription("List all ssimfiles a target reads as input at runtime via acr_in, including transitive dependencies."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target name (e.g. acr, amc)")),
		),
		Schema: ToolSchema{
			Name:        "get_input_tables",
			Description: "Full input data dependency graph of a target (acr_in).",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target name", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.In(ctx, args.String("target"), false)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("visualize_ctype",
			mcp.WithDescription("Generate an ASCII art diagram of a ctype's field structure and relationships via amc_vis."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Ctype to visualize (e.g. dmmeta.Ctype)")),
		),
		Schema: ToolSchema{
			Name:        "visualize_ctype",
			Description: "ASCII diagram of a ctype (amc_vis).",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Ctype to visualize", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			ctype := args.String("ctype")
			res := d.Client.AmcVis(ctx, ctype)
			if res.OK {
				return marshal(map[string]any{"ok": true, "ctype": ctype, "diagram": res.Stdout}), nil
			}
			return resultJSON(res), nil
		},
	})
}

func clampLevels(n int) int {
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

func handleSearch(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	text := args.String("text")

	ctypes := []ssim.Record{}
	fields := []ssim.Record{}

	if res := d.Client.Query(ctx, "dmmeta.ctype:%"+text+"%", false); res.OK {
		ctypes = append(ctypes, res.Records...)
	}
	if res := d.Client.Query(ctx, "dmmeta.field:%."+text+"%", false); res.OK {
		fields = append(fields, res.Records...)
	}

	// Also match comments and arg types, which the key patterns above miss.
	if res := d.Client.Query(ctx, "dmmeta.field:%", false); res.OK {
		lower := strings.ToLower(text)
		for _, rec := range res.Records {
			if !strings.Contains(strings.ToLower(rec.Get("comment")), lower) &&
				!strings.Contains(strings.ToLower(rec.Get("arg")), lower) {
				continue
			}
			if !containsRecord(fields, rec) {
				fields = append(fields, rec)
			}
		}
	}

	return marshal(map[string]any{
		"query":       text,
		"ctypes":      ctypes,
		"fields":      fields,
		"ctype_count": len(ctypes),
		"field_count": len(fields),
	}), nil
}

func containsRecord(records []ssim.Record, rec ssim.Record) bool {
	key := rec.Type + "|" + rec.Key()
	for _, r := range records {
		if r.Type+"|"+r.Key() == key {
			return true
		}
	}
	return false
}
