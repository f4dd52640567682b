package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaslyan/openacr-mcp/internal/ssim"
)

var validNstypes = []string{"ssimdb", "exe", "lib", "protocol"}

func registerAuthoringTools(r *Registry) {
	r.add(Tool{
		Def: mcp.NewTool("create_target",
			mcp.WithDescription("Create a new namespace/target. The entry point for any new project."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Namespace name (e.g. mydb, myapp)")),
			mcp.WithString("nstype", mcp.Required(), mcp.Description("Namespace type: ssimdb, exe, lib, or protocol")),
			mcp.WithString("comment", mcp.Description("Description of the namespace")),
		),
		Schema: ToolSchema{
			Name:        "create_target",
			Description: "Create a new namespace/target.",
			Parameters: []ParameterSchema{
				{Name: "name", Type: "string", Description: "Namespace name", Required: true},
				{Name: "nstype", Type: "string", Description: "ssimdb, exe, lib, or protocol", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: handleCreateTarget,
	})

	r.add(Tool{
		Def: mcp.NewTool("create_ctype",
			mcp.WithDescription("Create a new ctype (struct) in a namespace. For ssimdb namespaces the required ssimfile and cfmt records are inserted automatically so the type can be read and printed in Tuple format."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("Target namespace")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Type name in CamelCase (e.g. MyStruct)")),
			mcp.WithString("comment", mcp.Description("Description of the type")),
			mcp.WithString("subset", mcp.Description("Primary key subset type (e.g. algo.Smallstr50); sets the pkey field's arg type")),
			mcp.WithString("separator", mcp.Description("Key separator for composite keys; use / for junction tables")),
		),
		Schema: ToolSchema{
			Name:        "create_ctype",
			Description: "Create a ctype; ssimdb namespaces get ssimfile and cfmt records automatically.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Target namespace", Required: true},
				{Name: "name", Type: "string", Description: "CamelCase type name", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
				{Name: "subset", Type: "string", Description: "Pkey subset type"},
				{Name: "separator", Type: "string", Description: "Composite key separator"},
			},
		},
		Handle: handleCreateCtype,
	})

	r.add(Tool{
		Def: mcp.NewTool("create_field",
			mcp.WithDescription("Add a field to an existing ctype."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Parent ctype (e.g. myns.MyStruct)")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Field name")),
			mcp.WithString("arg", mcp.Required(), mcp.Description("Field type (e.g. u32, algo.cstring, myns.MyType)")),
			mcp.WithString("reftype", mcp.Description("Reference type: Val, Pkey, Thash, Lary, Bheap, Atree, Llist, Ptrary, ... (default Val)")),
			mcp.WithString("dflt", mcp.Description("Default value")),
			mcp.WithString("comment", mcp.Description("Field description")),
			mcp.WithBoolean("xref", mcp.Description("Auto-create a cross-reference record (for index reftypes)")),
			mcp.WithString("via", mcp.Description("Cross-reference path (e.g. myns.Order/order); required with xref for indexes")),
			mcp.WithString("hashfld", mcp.Description("Hash field for Thash reftypes")),
			mcp.WithString("sortfld", mcp.Description("Sort field for Bheap/Atree reftypes")),
			mcp.WithString("inscond", mcp.Description("Insert condition for xref")),
			mcp.WithString("before", mcp.Description("Place the field before this field in the struct")),
			mcp.WithBoolean("cascdel", mcp.Description("Cascade deletes to referenced records")),
		),
		Schema: ToolSchema{
			Name:        "create_field",
			Description: "Add a field to a ctype.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Parent ctype", Required: true},
				{Name: "name", Type: "string", Description: "Field name", Required: true},
				{Name: "arg", Type: "string", Description: "Field type", Required: true},
				{Name: "reftype", Type: "string", Description: "Reference type (default Val)"},
				{Name: "dflt", Type: "string", Description: "Default value"},
				{Name: "comment", Type: "string", Description: "Description"},
				{Name: "xref", Type: "boolean", Description: "Create a cross-reference record"},
				{Name: "via", Type: "string", Description: "Cross-reference path"},
				{Name: "hashfld", Type: "string", Description: "Hash field for Thash"},
				{Name: "sortfld", Type: "string", Description: "Sort field for Bheap/Atree"},
				{Name: "inscond", Type: "string", Description: "Insert condition"},
				{Name: "before", Type: "string", Description: "Insert before this field"},
				{Name: "cascdel", Type: "boolean", Description: "Cascade delete"},
			},
		},
		Handle: handleCreateField,
	})

	r.add(Tool{
		Def: mcp.NewTool("create_fconst",
			mcp.WithDescription("Add an enum constant to a field. The field may be a full path (myns.MyEnum.my_enum) or a ctype shorthand (myns.MyEnum) from which the pkey field name is derived."),
			mcp.WithString("field", mcp.Required(), mcp.Description("Parent field or ctype")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Constant name (e.g. Active)")),
			mcp.WithString("comment", mcp.Description("Description of the constant")),
		),
		Schema: ToolSchema{
			Name:        "create_fconst",
			Description: "Add an enum constant to a field.",
			Parameters: []ParameterSchema{
				{Name: "field", Type: "string", Description: "Parent field or ctype shorthand", Required: true},
				{Name: "value", Type: "string", Description: "Constant name", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: handleCreateFconst,
	})

	r.add(Tool{
		Def: mcp.NewTool("create_enum",
			mcp.WithDescription("Create an enum type with all its constants in one call: a ctype with a string pkey subset plus one fconst per value."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("Target namespace")),
			mcp.WithString("name", mcp.Required(), mcp.Description("CamelCase enum type name")),
			mcp.WithArray("values", mcp.Required(), mcp.Description("Enum constant names")),
			mcp.WithString("comment", mcp.Description("Description of the enum type")),
			mcp.WithString("subset", mcp.Description("Underlying string type for the pkey (default algo.Smallstr50)")),
		),
		Schema: ToolSchema{
			Name:        "create_enum",
			Description: "Create an enum ctype and all its fconsts.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Target namespace", Required: true},
				{Name: "name", Type: "string", Description: "CamelCase enum name", Required: true},
				{Name: "values", Type: "array", Description: "Constant names", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
				{Name: "subset", Type: "string", Description: "Pkey string type (default algo.Smallstr50)"},
			},
		},
		Handle: handleCreateEnum,
	})

	r.add(Tool{
		Def: mcp.NewTool("delete_record",
			mcp.WithDescription("Delete ssim records matching a pattern."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("Record pattern to delete (e.g. dmmeta.ctype:myns.MyStruct)")),
		),
		Schema: ToolSchema{
			Name:        "delete_record",
			Description: "Delete records matching a pattern.",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "Record pattern", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Delete(ctx, args.String("pattern"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("rename_record",
			mcp.WithDescription("Rename a record, propagating all references to it."),
			mcp.WithString("old", mcp.Required(), mcp.Description("Current record key")),
			mcp.WithString("new", mcp.Required(), mcp.Description("New record key")),
		),
		Schema: ToolSchema{
			Name:        "rename_record",
			Description: "Rename a record and rewrite references.",
			Parameters: []ParameterSchema{
				{Name: "old", Type: "string", Description: "Current key", Required: true},
				{Name: "new", Type: "string", Description: "New key", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdRename(ctx, args.String("old"), args.String("new"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_finput",
			mcp.WithDescription("Add an in-memory table to an exe target, loaded from an ssimfile at startup. With indexed set, a hash index over the primary key is added too."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Exe target namespace")),
			mcp.WithString("ssimfile", mcp.Required(), mcp.Description("Ssimfile to load (e.g. mydb.my_table)")),
			mcp.WithBoolean("indexed", mcp.Description("Also create a Thash index for the primary key")),
		),
		Schema: ToolSchema{
			Name:        "create_finput",
			Description: "Wire an ssimfile as an input table of a target.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Exe target", Required: true},
				{Name: "ssimfile", Type: "string", Description: "Ssimfile to load", Required: true},
				{Name: "indexed", Type: "boolean", Description: "Add a pkey hash index"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdCreateFinput(ctx, args.String("target"), args.String("ssimfile"), args.Bool("indexed"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_gstatic",
			mcp.WithDescription("Add a compile-time static table to a target. Like finput but the data is baked into the binary: read-only, no startup I/O. Ideal for reference data."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target namespace")),
			mcp.WithString("ssimfile", mcp.Required(), mcp.Description("Ssimfile whose data is compiled in")),
		),
		Schema: ToolSchema{
			Name:        "create_gstatic",
			Description: "Add a compile-time static table to a target.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target namespace", Required: true},
				{Name: "ssimfile", Type: "string", Description: "Ssimfile to compile in", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdCreate(ctx, "-gstatic", "-target", args.String("target"), "-ssimfile", args.String("ssimfile"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_substr_field",
			mcp.WithDescription("Create a substring field extracting a component of a composite primary key. Common expr values: .LL (left of separator), .LR (right), .RL (second-to-last), .RR (last)."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Parent ctype (e.g. myns.Review)")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Field name")),
			mcp.WithString("expr", mcp.Required(), mcp.Description("Pathcomp expression (e.g. .LL)")),
			mcp.WithString("srcfield", mcp.Required(), mcp.Description("Source field to extract from (e.g. myns.Review.review)")),
			mcp.WithString("comment", mcp.Description("Field description")),
		),
		Schema: ToolSchema{
			Name:        "create_substr_field",
			Description: "Create a substring field over a composite key.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Parent ctype", Required: true},
				{Name: "name", Type: "string", Description: "Field name", Required: true},
				{Name: "expr", Type: "string", Description: "Pathcomp expression", Required: true},
				{Name: "srcfield", Type: "string", Description: "Source field", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			edArgs := []string{
				"-field", args.String("ctype") + "." + args.String("name"),
				"-substr", args.String("expr"),
				"-srcfield", args.String("srcfield"),
			}
			if comment := args.String("comment"); comment != "" {
				edArgs = append(edArgs, "-comment", comment)
			}
			return resultJSON(d.Client.EdCreate(ctx, edArgs...)), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_bitfield",
			mcp.WithDescription("Create a bitfield packed into an integer field. The bit offset is computed automatically from the bitfields already packed into the source field."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Parent ctype (e.g. myns.Header)")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Bitfield name")),
			mcp.WithString("arg", mcp.Required(), mcp.Description("Bitfield type (e.g. u8, u16, u32)")),
			mcp.WithString("srcfield", mcp.Required(), mcp.Description("Integer field holding the bits (e.g. myns.Header.flags)")),
			mcp.WithNumber("width", mcp.Description("Bit width (default 1)")),
			mcp.WithString("comment", mcp.Description("Field description")),
		),
		Schema: ToolSchema{
			Name:        "create_bitfield",
			Description: "Create a bitfield with auto-computed offset.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Parent ctype", Required: true},
				{Name: "name", Type: "string", Description: "Bitfield name", Required: true},
				{Name: "arg", Type: "string", Description: "Bitfield type", Required: true},
				{Name: "srcfield", Type: "string", Description: "Source integer field", Required: true},
				{Name: "width", Type: "number", Description: "Bit width (default 1)"},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: handleCreateBitfield,
	})

	r.add(Tool{
		Def: mcp.NewTool("validate_schema",
			mcp.WithDescription("Run cross-reference and referential integrity checks on the schema."),
			mcp.WithString("pattern", mcp.Description("Pattern to scope the check (default % for everything)")),
		),
		Schema: ToolSchema{
			Name:        "validate_schema",
			Description: "Referential integrity check (acr -check).",
			Parameters: []ParameterSchema{
				{Name: "pattern", Type: "string", Description: "Scope pattern (default %)"},
			},
		},
		Handle: handleValidateSchema,
	})

	r.add(Tool{
		Def: mcp.NewTool("delete_ctype",
			mcp.WithDescription("Delete a ctype and all its associated records (fields, ssimfile, cfmt). Cascades properly via acr_ed."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Ctype to delete")),
		),
		Schema: ToolSchema{
			Name:        "delete_ctype",
			Description: "Delete a ctype with cascade.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Ctype to delete", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdDeleteCtype(ctx, args.String("ctype"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("delete_field",
			mcp.WithDescription("Delete a field and its associated records (fconsts, xrefs). Cascades properly via acr_ed."),
			mcp.WithString("field", mcp.Required(), mcp.Description("Field to delete (e.g. myns.MyStruct.my_field)")),
		),
		Schema: ToolSchema{
			Name:        "delete_field",
			Description: "Delete a field with cascade.",
			Parameters: []ParameterSchema{
				{Name: "field", Type: "string", Description: "Field to delete", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdDeleteField(ctx, args.String("field"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("delete_target",
			mcp.WithDescription("Delete a target (namespace) and everything under it: ctypes, fields, ssimfiles, finputs, source files, build configuration. Destructive."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target namespace to delete")),
		),
		Schema: ToolSchema{
			Name:        "delete_target",
			Description: "Delete a target and everything under it.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target to delete", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdDeleteTarget(ctx, args.String("target"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_srcfile",
			mcp.WithDescription("Create a new source file and register it with a build target so abt compiles it."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Build target that owns the file")),
			mcp.WithString("path", mcp.Required(), mcp.Description("Source file path (e.g. cpp/myapp/main.cpp)")),
			mcp.WithString("comment", mcp.Description("Description of the file")),
		),
		Schema: ToolSchema{
			Name:        "create_srcfile",
			Description: "Create a source file and register it with a target.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Build target", Required: true},
				{Name: "path", Type: "string", Description: "Source file path", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdCreateSrcfile(ctx, args.String("path"), args.String("target"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_unittest",
			mcp.WithDescription("Create a unit test function scaffold in the target's test source file."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target namespace")),
			mcp.WithString("funcname", mcp.Required(), mcp.Description("Test function name (e.g. TestSomething)")),
			mcp.WithString("comment", mcp.Description("Description of the test")),
		),
		Schema: ToolSchema{
			Name:        "create_unittest",
			Description: "Scaffold a unit test function.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target namespace", Required: true},
				{Name: "funcname", Type: "string", Description: "Test function name", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			name := args.String("target") + "." + args.String("funcname")
			return resultJSON(d.Client.EdCreateUnittest(ctx, name, args.String("comment"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("update_record",
			mcp.WithDescription("Update or insert a record (upsert) via acr -merge -write. The line must be a valid ssim tuple."),
			mcp.WithString("line", mcp.Required(), mcp.Description("Full ssim record line")),
		),
		Schema: ToolSchema{
			Name:        "update_record",
			Description: "Upsert one ssim record line.",
			Parameters: []ParameterSchema{
				{Name: "line", Type: "string", Description: "Full ssim tuple line", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.Merge(ctx, args.String("line"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_foutput",
			mcp.WithDescription("Declare that an exe target writes to an ssimfile. The inverse of finput."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Exe target namespace")),
			mcp.WithString("ssimfile", mcp.Required(), mcp.Description("Ssimfile the target writes to")),
		),
		Schema: ToolSchema{
			Name:        "create_foutput",
			Description: "Declare an ssimfile as a target's output table.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Exe target", Required: true},
				{Name: "ssimfile", Type: "string", Description: "Output ssimfile", Required: true},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdCreateFoutput(ctx, args.String("target"), args.String("ssimfile"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_citest",
			mcp.WithDescription("Create a CI (integration) test scaffold."),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target the test is for")),
			mcp.WithString("testname", mcp.Required(), mcp.Description("Test name (e.g. myapp.Smoke)")),
			mcp.WithString("comment", mcp.Description("Description of the test")),
		),
		Schema: ToolSchema{
			Name:        "create_citest",
			Description: "Scaffold a CI test.",
			Parameters: []ParameterSchema{
				{Name: "target", Type: "string", Description: "Target", Required: true},
				{Name: "testname", Type: "string", Description: "Test name", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			return resultJSON(d.Client.EdCreateCitest(ctx, args.String("testname"), args.String("comment"))), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("create_cppfunc",
			mcp.WithDescription("Create a computed field whose value is a C++ expression evaluated at access time."),
			mcp.WithString("ctype", mcp.Required(), mcp.Description("Parent ctype")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Field name")),
			mcp.WithString("arg", mcp.Required(), mcp.Description("Return type of the expression")),
			mcp.WithString("expr", mcp.Required(), mcp.Description("C++ expression (e.g. quantity * unit_price)")),
			mcp.WithString("comment", mcp.Description("Field description")),
		),
		Schema: ToolSchema{
			Name:        "create_cppfunc",
			Description: "Create a computed (cppfunc) field.",
			Parameters: []ParameterSchema{
				{Name: "ctype", Type: "string", Description: "Parent ctype", Required: true},
				{Name: "name", Type: "string", Description: "Field name", Required: true},
				{Name: "arg", Type: "string", Description: "Expression return type", Required: true},
				{Name: "expr", Type: "string", Description: "C++ expression", Required: true},
				{Name: "comment", Type: "string", Description: "Description"},
			},
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			if msg, ok := requireClient(d); !ok {
				return msg, nil
			}
			edArgs := []string{
				"-field", args.String("ctype") + "." + args.String("name"),
				"-arg", args.String("arg"),
				"-cppfunc", args.String("expr"),
			}
			if comment := args.String("comment"); comment != "" {
				edArgs = append(edArgs, "-comment", comment)
			}
			return resultJSON(d.Client.EdCreate(ctx, edArgs...)), nil
		},
	})
}

func handleCreateTarget(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	nstype := args.String("nstype")
	valid := false
	for _, t := range validNstypes {
		if nstype == t {
			valid = true
			break
		}
	}
	if !valid {
		return errorJSON(fmt.Sprintf("invalid nstype %q, must be one of: %s", nstype, strings.Join(validNstypes, ", "))), nil
	}
	return resultJSON(d.Client.EdCreateTarget(ctx, args.String("name"), nstype, args.String("comment"))), nil
}

func handleCreateCtype(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	ns := args.String("namespace")
	name := args.String("name")
	ctype := ns + "." + name

	edArgs := []string{"-ctype", ctype}
	if subset := args.String("subset"); subset != "" {
		edArgs = append(edArgs, "-subset", subset)
	}
	if sep := args.String("separator"); sep != "" {
		edArgs = append(edArgs, "-separator", sep)
	}
	if comment := args.String("comment"); comment != "" {
		edArgs = append(edArgs, "-comment", comment)
	}
	res := d.Client.EdCreate(ctx, edArgs...)
	if !res.OK {
		return resultJSON(res), nil
	}

	// ssimdb ctypes need an ssimfile record (the data table) and a Tuple cfmt
	// (ReadStrptrMaybe/Print, required by finput) before amc output is usable.
	nstype, _ := d.Client.GetNsType(ctx, ns)
	if nstype != "ssimdb" {
		return resultJSON(res), nil
	}

	ssimLine := ssim.Line("dmmeta.ssimfile",
		ssim.Attr{Key: "ssimfile", Value: ns + "." + CamelToSnake(name)},
		ssim.Attr{Key: "ctype", Value: ctype},
	)
	if r := d.Client.Insert(ctx, ssimLine); !r.OK {
		return errorJSON("ctype created but ssimfile insert failed: "+r.Err(), "ctype", ctype), nil
	}
	cfmtLine := ssim.Line("dmmeta.cfmt",
		ssim.Attr{Key: "cfmt", Value: ctype + ".String"},
		ssim.Attr{Key: "printfmt", Value: "Tuple"},
		ssim.Attr{Key: "read", Value: "Y"},
		ssim.Attr{Key: "print", Value: "Y"},
		ssim.Attr{Key: "sep", Value: ""},
		ssim.Attr{Key: "genop", Value: "Y"},
		ssim.Attr{Key: "comment", Value: ""},
	)
	if r := d.Client.Insert(ctx, cfmtLine); !r.OK {
		return errorJSON("ctype created but cfmt insert failed: "+r.Err(), "ctype", ctype), nil
	}
	d.Client.Amc(ctx, "")

	return marshal(map[string]any{
		"ok":                    true,
		"ctype":                 ctype,
		"ssimfile_auto_created": true,
		"cfmt_auto_created":     true,
	}), nil
}

func handleCreateField(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	reftype := args.String("reftype")
	if reftype == "" {
		reftype = "Val"
	}
	edArgs := []string{
		"-field", args.String("ctype") + "." + args.String("name"),
		"-arg", args.String("arg"),
		"-reftype", reftype,
	}
	for _, opt := range []struct{ flag, key string }{
		{"-dflt", "dflt"},
		{"-comment", "comment"},
	} {
		if v := args.String(opt.key); v != "" {
			edArgs = append(edArgs, opt.flag, v)
		}
	}
	if args.Bool("xref") {
		edArgs = append(edArgs, "-xref")
	}
	for _, opt := range []struct{ flag, key string }{
		{"-via", "via"},
		{"-hashfld", "hashfld"},
		{"-sortfld", "sortfld"},
		{"-inscond", "inscond"},
		{"-before", "before"},
	} {
		if v := args.String(opt.key); v != "" {
			edArgs = append(edArgs, opt.flag, v)
		}
	}
	if args.Bool("cascdel") {
		edArgs = append(edArgs, "-cascdel")
	}
	return resultJSON(d.Client.EdCreate(ctx, edArgs...)), nil
}

func handleCreateFconst(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	field := args.String("field")
	value := args.String("value")
	// ns.Type shorthand: the pkey field name is the snake_case type name.
	if parts := strings.Split(field, "."); len(parts) == 2 {
		field = field + "." + CamelToSnake(parts[1])
	}
	key := field + "/" + value
	line := fconstLine(key, value, args.String("comment"))
	res := d.Client.Insert(ctx, line)
	if !res.OK {
		return marshal(map[string]any{"ok": false, "error": res.Err()}), nil
	}
	return marshal(map[string]any{"ok": true, "fconst": key}), nil
}

func handleCreateEnum(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	ns := args.String("namespace")
	name := args.String("name")
	subset := args.String("subset")
	if subset == "" {
		subset = "algo.Smallstr50"
	}
	ctype := ns + "." + name
	pkeyField := ctype + "." + CamelToSnake(name)

	edArgs := []string{"-ctype", ctype, "-subset", subset}
	if comment := args.String("comment"); comment != "" {
		edArgs = append(edArgs, "-comment", comment)
	}
	if res := d.Client.EdCreate(ctx, edArgs...); !res.OK {
		return marshal(map[string]any{"ok": false, "error": res.Err(), "step": "create_ctype"}), nil
	}

	created := []string{}
	errs := []map[string]string{}
	for _, val := range args.StringSlice("values") {
		key := pkeyField + "/" + val
		if res := d.Client.Insert(ctx, fconstLine(key, val, "")); res.OK {
			created = append(created, key)
		} else {
			errs = append(errs, map[string]string{"value": val, "error": res.Err()})
		}
	}

	return marshal(map[string]any{
		"ok":              len(errs) == 0,
		"ctype":           ctype,
		"pkey_field":      pkeyField,
		"fconsts_created": created,
		"errors":          errs,
	}), nil
}

func handleCreateBitfield(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	ctype := args.String("ctype")
	srcfield := args.String("srcfield")
	width := args.Int("width", 1)
	field := ctype + "." + args.String("name")
	comment := args.String("comment")

	// Place the new bitfield right after the last bit occupied in srcfield.
	offset := 0
	if existing := d.Client.Query(ctx, "dmmeta.bitfld:"+ctype+".%", false); existing.OK {
		for _, rec := range existing.Records {
			if rec.Get("srcfield") != srcfield {
				continue
			}
			recOffset, err1 := strconv.Atoi(rec.Get("offset"))
			recWidth, err2 := strconv.Atoi(rec.Get("width"))
			if err1 != nil || err2 != nil {
				continue
			}
			if end := recOffset + recWidth; end > offset {
				offset = end
			}
		}
	}

	edArgs := []string{
		"-field", field,
		"-arg", args.String("arg"),
		"-reftype", "Bitfld",
		"-srcfield", srcfield,
	}
	if comment != "" {
		edArgs = append(edArgs, "-comment", comment)
	}
	if res := d.Client.EdCreate(ctx, edArgs...); !res.OK {
		return resultJSON(res), nil
	}

	line := fmt.Sprintf("dmmeta.bitfld  field:%s  offset:%d  width:%d  srcfield:%s  comment:%q",
		field, offset, width, srcfield, comment)
	d.Client.Merge(ctx, line)

	return marshal(map[string]any{"ok": true, "field": field, "offset": offset, "width": width}), nil
}

func handleValidateSchema(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	pattern := args.String("pattern")
	if pattern == "" {
		pattern = "%"
	}
	res := d.Client.Check(ctx, pattern)
	if res.OK {
		return marshal(map[string]any{"ok": true, "message": "Schema validation passed", "pattern": pattern}), nil
	}

	errs := []string{}
	for _, line := range strings.Split(res.Stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "report.") {
			continue
		}
		errs = append(errs, line)
	}
	count := len(errs)
	if count > 50 {
		errs = errs[:50]
	}
	return marshal(map[string]any{
		"ok":          false,
		"pattern":     pattern,
		"error_count": count,
		"errors":      errs,
	}), nil
}

// fconstLine formats an fconst insert line. Value and comment are always
// quoted, matching what acr itself prints for these columns.
func fconstLine(key, value, comment string) string {
	return fmt.Sprintf("dmmeta.fconst  fconst:%s  value:%q  comment:%q", key, value, comment)
}
