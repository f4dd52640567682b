package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaslyan/openacr-mcp/internal/ssim"
)

func registerGuideTools(r *Registry) {
	r.add(Tool{
		Def: mcp.NewTool("get_workflow_guide",
			mcp.WithDescription("Get detailed step-by-step examples for common OpenACR workflows: creating ssimdb namespaces, enum types, structs with FK relationships, and building executables."),
		),
		Schema: ToolSchema{
			Name:        "get_workflow_guide",
			Description: "Step-by-step guides for common workflows.",
		},
		Handle: func(ctx context.Context, d *Deps, args Args) (string, error) {
			return marshal(workflowGuide()), nil
		},
	})

	r.add(Tool{
		Def: mcp.NewTool("get_usage_examples",
			mcp.WithDescription("Generate C++ usage examples for a namespace's generated types: initialization, field access, enum operations, serialization. Built from the actual schema."),
			mcp.WithString("namespace", mcp.Required(), mcp.Description("The namespace (e.g. reservedb, bookdb)")),
		),
		Schema: ToolSchema{
			Name:        "get_usage_examples",
			Description: "Synthesize C++ usage examples for a namespace.",
			Parameters: []ParameterSchema{
				{Name: "namespace", Type: "string", Description: "Namespace", Required: true},
			},
		},
		Handle: handleUsageExamples,
	})
}

type workflow struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
	Notes string   `json:"notes,omitempty"`
}

func workflowGuide() map[string]any {
	return map[string]any{
		"workflows": []workflow{
			{
				Title: "Create a new ssimdb with types",
				Steps: []string{
					"1. create_target(name='mydb', nstype='ssimdb', comment='My database')",
					"2. create_ctype(namespace='mydb', name='MyRecord', comment='A record type')",
					"   - This creates the ctype. The pkey field and ssimfile record are auto-created.",
					"3. create_field(ctype='mydb.MyRecord', name='name', arg='algo.cstring', reftype='Val', comment='Record name')",
					"4. create_field(ctype='mydb.MyRecord', name='count', arg='u32', reftype='Val', dflt='0', comment='Counter')",
					"5. run_amc() - generates C++ code",
					"6. get_functions(namespace='mydb') - discover the generated API",
				},
			},
			{
				Title: "Add an enum type",
				Steps: []string{
					"1. create_ctype(namespace='mydb', name='Status', comment='Record status')",
					"   - Creates mydb.Status ctype with auto-generated pkey field and ssimfile",
					"2. create_fconst(field='mydb.Status.status', value='pending', comment='Not started')",
					"3. create_fconst(field='mydb.Status.status', value='active', comment='In progress')",
					"4. create_fconst(field='mydb.Status.status', value='done', comment='Completed')",
					"5. run_amc() - generates C++ enum class Status { pending, active, done }",
				},
				Notes: "The pkey field name is auto-derived as lowercase of the type name. " +
					"For mydb.Status, the pkey field is 'mydb.Status.status'.",
			},
			{
				Title: "Create a struct with foreign key references",
				Steps: []string{
					"1. First create the referenced types (see 'Add an enum type')",
					"2. create_ctype(namespace='mydb', name='Task', comment='A task')",
					"3. create_field(ctype='mydb.Task', name='title', arg='algo.cstring', reftype='Val')",
					"4. create_field(ctype='mydb.Task', name='status', arg='mydb.Status', reftype='Pkey', comment='Task status')",
					"   - reftype='Pkey' creates a foreign key to mydb.Status",
					"5. run_amc()",
				},
			},
			{
				Title: "Create an exe that uses a ssimdb",
				Steps: []string{
					"1. create_target(name='myapp', nstype='exe', comment='My application')",
					"2. The exe needs an FDb (global database) - it's auto-created",
					"3. Add finput for each ssimfile the exe needs to load at runtime:",
					"   create_finput(target='myapp', ssimfile='mydb.my_table', indexed=True)",
					"   - indexed=True adds a Thash hash index for O(1) key lookup",
					"4. run_amc() then run_abt(target='myapp') to build",
				},
			},
			{
				Title: "Load reference data at compile time (gstatic)",
				Steps: []string{
					"1. Create your reference data ssimdb: create_target('refdb', 'ssimdb')",
					"2. Add types and populate data files in data/refdb/*.ssim",
					"3. In your exe, use gstatic instead of finput:",
					"   create_gstatic(target='myapp', ssimfile='refdb.country')",
					"   - Data is compiled INTO the binary. No disk I/O at startup.",
					"   - The table is read-only and immutable at runtime.",
					"4. Use finput for mutable data that changes between runs,",
					"   gstatic for immutable reference data (currencies, countries, etc.)",
				},
			},
			{
				Title: "Create a composite key (junction table)",
				Steps: []string{
					"1. Create the junction ctype with a composite pkey:",
					"   create_ctype('mydb', 'MovieCast', 'Movie-actor association')",
					"   - pkey field 'movie_cast' stores 'movie/actor' composite",
					"2. Add substr fields to extract each component:",
					"   create_substr_field('mydb.MovieCast', 'movie', '.LL', 'mydb.MovieCast.movie_cast')",
					"   create_substr_field('mydb.MovieCast', 'actor', '.LR', 'mydb.MovieCast.movie_cast')",
					"   - .LL = left of '/', .LR = right of '/'",
					"3. Add data fields: create_field('mydb.MovieCast', 'role_name', 'algo.cstring', 'Val')",
					"4. Separator defaults to '/' for composite keys",
				},
			},
			{
				Title: "Create a bitfield-packed struct",
				Steps: []string{
					"1. Create the ctype: create_ctype('myproto', 'Header', 'Protocol header')",
					"2. Add the integer field that holds the bits:",
					"   create_field('myproto.Header', 'flags', 'u32', 'Val')",
					"3. Add bitfields packed into it:",
					"   create_bitfield('myproto.Header', 'version', 'u8', 'myproto.Header.flags', width=4)",
					"   create_bitfield('myproto.Header', 'type', 'u8', 'myproto.Header.flags', width=4)",
					"4. run_amc() - generates accessors: version_Get(hdr), version_Set(hdr, val)",
				},
			},
			{
				Title: "Add indexed access paths to an exe (Thash/Bheap)",
				Steps: []string{
					"1. After create_finput, add indexed fields with xref:",
					"   create_field('myapp.FDb', 'ind_order', 'myapp.Order', 'Thash',",
					"     xref=True, hashfld='myapp.Order.order', via='myapp.Order/order')",
					"   - Creates a hash table indexed by order pkey",
					"2. For sorted access (priority queue):",
					"   create_field('myapp.FDb', 'bh_order', 'myapp.Order', 'Bheap',",
					"     xref=True, sortfld='myapp.Order.price')",
					"3. run_amc() - generates: ind_order_Find(key), bh_order_First()",
				},
			},
			{
				Title: "Validate schema integrity",
				Steps: []string{
					"1. After making schema changes, always validate:",
					"   validate_schema() - checks ALL referential integrity",
					"   validate_schema('dmmeta.ctype:myns.%') - check one namespace",
					"2. Common errors: broken FK refs, missing ssimfiles, dangling records",
					"3. Fix any errors before running amc",
				},
			},
			{
				Title: "Explore an existing namespace",
				Steps: []string{
					"1. list_ssimfiles('dev') - see all data tables",
					"2. list_fconsts('dev') - see all enum constants",
					"3. list_finputs('acr') - see what tables acr loads at runtime",
					"4. get_downstream('dmmeta.ctype:dev.Builddir', levels=2) - see fields and fconsts",
					"5. get_upstream('dmmeta.field:dev.Builddir.builddir', levels=1) - see parent ctype",
				},
			},
			{
				Title: "Delete and rebuild a ctype",
				Steps: []string{
					"1. delete_ctype('myns.OldType') - cascades to fields, ssimfile, cfmt",
					"2. Or delete just a field: delete_field('myns.MyType.old_field')",
					"3. Or remove an entire namespace: delete_target('myns')",
					"4. run_amc() - regenerate code after deletion",
					"Note: Use delete_ctype/field/target instead of raw delete_record",
					"      - they handle cascade properly via acr_ed.",
				},
			},
			{
				Title: "Scaffold source files and tests",
				Steps: []string{
					"1. create_srcfile(target='myapp', path='cpp/myapp/utils.cpp')",
					"   - Creates the file and registers it with abt",
					"2. create_unittest(target='atf_ut', funcname='myapp.TestAdd')",
					"   - Scaffolds a test function in the target's test source",
					"3. run_abt(target='myapp') - build to verify",
				},
			},
		},
		"arg_types_reference": map[string]any{
			"strings": map[string]string{
				"algo.cstring":     "Variable-length string (heap-allocated)",
				"algo.Smallstr10":  "Fixed-capacity 10-char string (stack-allocated)",
				"algo.Smallstr20":  "Fixed-capacity 20-char string",
				"algo.Smallstr50":  "Fixed-capacity 50-char string",
				"algo.Smallstr100": "Fixed-capacity 100-char string",
				"algo.Smallstr150": "Fixed-capacity 150-char string",
				"algo.Smallstr200": "Fixed-capacity 200-char string",
				"algo.Comment":     "Comment/description string",
			},
			"integers": map[string]string{
				"u8":  "Unsigned 8-bit integer",
				"u16": "Unsigned 16-bit integer",
				"u32": "Unsigned 32-bit integer",
				"u64": "Unsigned 64-bit integer",
				"i8":  "Signed 8-bit integer",
				"i16": "Signed 16-bit integer",
				"i32": "Signed 32-bit integer",
				"i64": "Signed 64-bit integer",
			},
			"other": map[string]string{
				"bool":        "Boolean",
				"float":       "32-bit float",
				"double":      "64-bit float",
				"algo.UnTime": "Timestamp (Unix time in microseconds)",
				"algo.UnDiff": "Time difference (microseconds)",
			},
		},
		"reftype_reference": map[string]string{
			"Val":  "Inline value - the field stores the data directly in the struct",
			"Pkey": "Foreign key - references another ctype's primary key. Generated code includes lookup functions and referential integrity",
			"Base": "Inheritance - this ctype extends the arg ctype. Fields from the base type are included in the derived type",
			"Thash": "Hash table - stores a collection of records indexed by pkey. " +
				"Used in FDb (global database) types for in-memory tables",
			"Lary":  "Level array - growable array with O(1) random access. Used for collections that grow but never shrink",
			"Tary":  "Tight array - standard growable array (like std::vector)",
			"Llist": "Linked list - intrusive doubly-linked list",
			"Count": "Count of linked records (no storage, just bookkeeping)",
			"Upptr": "Up-pointer - cached pointer to parent record for fast traversal",
		},
	}
}

type codeExample struct {
	Description string `json:"description"`
	Cpp         string `json:"cpp"`
}

func handleUsageExamples(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	ns := args.String("namespace")
	ctypes := d.Client.ListCtypes(ctx, ns)
	if !ctypes.OK || len(ctypes.Records) == 0 {
		return errorJSON(fmt.Sprintf("no ctypes found for namespace %q", ns)), nil
	}

	types := []map[string]any{}
	for _, rec := range ctypes.Records {
		ctype := rec.Get("ctype")
		dot := strings.Index(ctype, ".")
		if dot < 0 {
			continue
		}
		typeName := ctype[dot+1:]
		// Generated helper types have no standalone usage.
		if typeName == "FieldId" || strings.HasSuffix(typeName, "Case") {
			continue
		}

		var fields []ssim.Record
		if fr := d.Client.ListFields(ctx, ctype); fr.OK {
			fields = fr.Records
		}
		var fconsts []ssim.Record
		if len(fields) > 0 {
			if cr := d.Client.Query(ctx, "dmmeta.fconst:"+fields[0].Get("field")+"/%", false); cr.OK {
				fconsts = cr.Records
			}
		}

		entry := map[string]any{
			"ctype":     ctype,
			"type_name": typeName,
			"comment":   rec.Get("comment"),
			"is_enum":   len(fconsts) > 0,
		}
		if len(fconsts) > 0 {
			addEnumExamples(entry, ns, typeName, fconsts)
		} else {
			addStructExamples(entry, ns, typeName, fields)
		}
		types = append(types, entry)
	}

	return marshal(map[string]any{
		"namespace": ns,
		"include":   fmt.Sprintf("#include \"include/gen/%s_gen.h\"", ns),
		"types":     types,
	}), nil
}

func addEnumExamples(entry map[string]any, ns, typeName string, fconsts []ssim.Record) {
	snake := CamelToSnake(typeName)
	first := fconsts[0].Get("value")

	values := []map[string]string{}
	for _, fc := range fconsts {
		values = append(values, map[string]string{
			"value":    fc.Get("value"),
			"constant": fmt.Sprintf("%s_%sCase_%s", ns, typeName, fc.Get("value")),
			"comment":  fc.Get("comment"),
		})
	}
	entry["enum_values"] = values

	var sw strings.Builder
	fmt.Fprintf(&sw, "%s::%sCase val(%s_%sCase_%s);\n", ns, typeName, ns, typeName, first)
	fmt.Fprintf(&sw, "switch (%s_GetEnum(val)) {\n", snake)
	for _, fc := range fconsts {
		fmt.Fprintf(&sw, "    case %s_%sCase_%s:  // %s\n        break;\n", ns, typeName, fc.Get("value"), fc.Get("comment"))
	}
	sw.WriteString("    default: break;\n}")

	entry["code"] = []codeExample{
		{
			Description: fmt.Sprintf("Use %s enum via the Case helper struct", typeName),
			Cpp: fmt.Sprintf("// Construct from enum constant\n"+
				"%[1]s::%[2]sCase val(%[1]s_%[2]sCase_%[4]s);\n\n"+
				"// Get enum value\n"+
				"%[1]s_%[2]sCaseEnum e = %[3]s_GetEnum(val);\n\n"+
				"// Set enum value\n"+
				"%[3]s_SetEnum(val, %[1]s_%[2]sCase_%[4]s);\n\n"+
				"// Convert to string\n"+
				"const char* str = %[3]s_ToCstr(val);  // returns %[4]q\n\n"+
				"// Parse from string\n"+
				"%[1]s::%[2]sCase parsed;\n"+
				"%[3]s_SetStrptrMaybe(parsed, %[4]q);  // returns true on success",
				ns, typeName, snake, first),
		},
		{
			Description: fmt.Sprintf("Use %s as a string pkey (for FK fields)", typeName),
			Cpp: fmt.Sprintf("%s::%s rec;\nrec.%s = %q;  // set pkey directly as string",
				ns, typeName, snake, first),
		},
		{
			Description: fmt.Sprintf("Compare / switch on %s enum", typeName),
			Cpp:         sw.String(),
		},
	}
}

func addStructExamples(entry map[string]any, ns, typeName string, fields []ssim.Record) {
	snake := CamelToSnake(typeName)

	fieldList := []map[string]string{}
	for _, f := range fields {
		fieldList = append(fieldList, map[string]string{
			"name":    lastPart(f.Get("field")),
			"arg":     f.Get("arg"),
			"reftype": f.Get("reftype"),
			"comment": f.Get("comment"),
		})
	}
	entry["fields"] = fieldList

	var dataFields []ssim.Record
	if len(fields) > 1 {
		dataFields = fields[1:]
	}

	var assigns []string
	for _, f := range dataFields {
		assigns = append(assigns, fieldAssignment(f))
	}

	populate := fmt.Sprintf("%s::%s rec;\n%s_Init(rec);  // set defaults\nrec.%s = \"my_%s_id\";  // set primary key\n",
		ns, typeName, typeName, snake, snake)
	if len(assigns) > 0 {
		populate += strings.Join(assigns, "\n") + "\n"
	}

	entry["code"] = []codeExample{
		{
			Description: fmt.Sprintf("Create and populate a %s", typeName),
			Cpp:         populate,
		},
		{
			Description: fmt.Sprintf("Print %s to string (ssim format)", typeName),
			Cpp: fmt.Sprintf("algo::cstring out;\nout << rec;  // uses generated operator<<\n// or: %s_Print(rec, out);",
				typeName),
		},
	}
}

// fieldAssignment builds one example assignment line, picking a plausible
// value from the field's arg type.
func fieldAssignment(f ssim.Record) string {
	name := lastPart(f.Get("field"))
	arg := f.Get("arg")
	comment := f.Get("comment")
	if comment == "" {
		comment = arg
	}

	switch {
	case f.Get("reftype") == "Pkey":
		refType := lastPart(arg)
		return fmt.Sprintf("rec.%s = \"some_%s\";  // FK to %s", name, CamelToSnake(refType), arg)
	case strings.Contains(arg, "cstring") || strings.Contains(arg, "Smallstr") || strings.Contains(arg, "Comment"):
		return fmt.Sprintf("rec.%s = \"example\";  // %s", name, comment)
	case isIntArg(arg):
		val := f.Get("dflt")
		if val == "" {
			val = "0"
		}
		return fmt.Sprintf("rec.%s = %s;  // %s", name, val, comment)
	case arg == "bool":
		return fmt.Sprintf("rec.%s = true;  // %s", name, comment)
	case arg == "float" || arg == "double":
		return fmt.Sprintf("rec.%s = 0.0;  // %s", name, comment)
	default:
		return fmt.Sprintf("// rec.%s = ...;  // %s %s", name, arg, f.Get("comment"))
	}
}

func isIntArg(arg string) bool {
	switch arg {
	case "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64":
		return true
	}
	return false
}

func lastPart(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
