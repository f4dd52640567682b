package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aaslyan/openacr-mcp/internal/acr"
)

// scriptRunner feeds back queued responses and records every spawned command.
type scriptRunner struct {
	calls     [][]string
	stdins    []string
	responses []scriptResponse
}

type scriptResponse struct {
	stdout string
	stderr string
	exit   int
}

func (s *scriptRunner) run(ctx context.Context, dir, stdin string, args ...string) (string, string, int, error) {
	s.calls = append(s.calls, args)
	s.stdins = append(s.stdins, stdin)
	if len(s.responses) == 0 {
		return "", "", 0, nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp.stdout, resp.stderr, resp.exit, nil
}

func newTestDeps(runner *scriptRunner) *Deps {
	client := acr.NewWithRunner("/openacr", acr.DefaultTimeouts(), runner.run)
	return &Deps{Client: client}
}

func decode(t *testing.T, payload string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		t.Fatalf("invalid JSON payload %q: %v", payload, err)
	}
	return out
}

func callTool(t *testing.T, r *Registry, d *Deps, name string, args Args) map[string]any {
	t.Helper()
	tool, ok := r.Get(name)
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	payload, err := tool.Handle(context.Background(), d, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return decode(t, payload)
}

func TestRegistryCatalog(t *testing.T) {
	r := NewRegistry()
	expected := []string{
		"init_project", "set_project",
		"list_namespaces", "get_namespace_tree", "list_ctypes", "get_ctype",
		"list_fields", "query", "search", "list_fconsts", "list_ssimfiles",
		"list_finputs", "get_downstream", "get_upstream", "find_unused",
		"get_record_meta", "select_fields", "get_input_tables", "visualize_ctype",
		"create_target", "create_ctype", "create_field", "create_fconst",
		"create_enum", "delete_record", "rename_record", "create_finput",
		"create_gstatic", "create_substr_field", "create_bitfield",
		"validate_schema", "delete_ctype", "delete_field", "delete_target",
		"create_srcfile", "create_unittest", "update_record", "create_foutput",
		"create_citest", "create_cppfunc",
		"run_amc", "run_abt", "list_generated_headers", "get_generated_code",
		"get_functions",
		"get_workflow_guide", "get_usage_examples",
	}
	for _, name := range expected {
		tool, ok := r.Get(name)
		if !ok {
			t.Errorf("missing tool %q", name)
			continue
		}
		if tool.Schema.Name != name {
			t.Errorf("tool %q schema name = %q", name, tool.Schema.Name)
		}
		if tool.Schema.Description == "" {
			t.Errorf("tool %q has no description", name)
		}
		if tool.Handle == nil {
			t.Errorf("tool %q has no handler", name)
		}
	}
	if got := len(r.Names()); got != len(expected) {
		t.Errorf("registry has %d tools, expected %d", got, len(expected))
	}
	if len(r.Schemas()) != len(r.Names()) {
		t.Errorf("Schemas() and Names() disagree on length")
	}
}

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"Status":        "status",
		"ReadingStatus": "reading_status",
		"MovieCast":     "movie_cast",
		"HTTPServer":    "http_server",
		"MyEnum2":       "my_enum2",
		"already_snake": "already_snake",
	}
	for in, want := range cases {
		if got := CamelToSnake(in); got != want {
			t.Errorf("CamelToSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateFconstShorthand(t *testing.T) {
	runner := &scriptRunner{}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "create_fconst", Args{
		"field":   "mydb.ReadingStatus",
		"value":   "active",
		"comment": "In progress",
	})
	if out["ok"] != true {
		t.Fatalf("create_fconst failed: %v", out)
	}
	if out["fconst"] != "mydb.ReadingStatus.reading_status/active" {
		t.Errorf("fconst key = %v", out["fconst"])
	}
	wantLine := "dmmeta.fconst  fconst:mydb.ReadingStatus.reading_status/active  value:\"active\"  comment:\"In progress\"\n"
	if runner.stdins[0] != wantLine {
		t.Errorf("insert stdin = %q, want %q", runner.stdins[0], wantLine)
	}
	if got := strings.Join(runner.calls[0], " "); got != "acr -insert -write" {
		t.Errorf("command = %q", got)
	}
}

func TestCreateFconstFullPath(t *testing.T) {
	runner := &scriptRunner{}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "create_fconst", Args{
		"field": "mydb.Status.status",
		"value": "done",
	})
	if out["fconst"] != "mydb.Status.status/done" {
		t.Errorf("fconst key = %v", out["fconst"])
	}
}

func TestCreateBitfieldOffset(t *testing.T) {
	runner := &scriptRunner{
		responses: []scriptResponse{
			// existing bitfields on the same srcfield occupy bits 0..5
			{stdout: "dmmeta.bitfld  field:myproto.Header.version  offset:0  width:4  srcfield:myproto.Header.flags\n" +
				"dmmeta.bitfld  field:myproto.Header.kind  offset:4  width:2  srcfield:myproto.Header.flags\n" +
				"dmmeta.bitfld  field:myproto.Header.other  offset:0  width:8  srcfield:myproto.Header.other_flags\n"},
			{}, // acr_ed -create
			{}, // acr -merge
		},
	}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "create_bitfield", Args{
		"ctype":    "myproto.Header",
		"name":     "priority",
		"arg":      "u8",
		"srcfield": "myproto.Header.flags",
		"width":    float64(3),
	})
	if out["ok"] != true {
		t.Fatalf("create_bitfield failed: %v", out)
	}
	if out["offset"] != float64(6) {
		t.Errorf("offset = %v, want 6 (bitfields on another srcfield must not count)", out["offset"])
	}
	if out["width"] != float64(3) {
		t.Errorf("width = %v", out["width"])
	}

	if len(runner.calls) != 3 {
		t.Fatalf("expected query + create + merge, got %d calls", len(runner.calls))
	}
	create := strings.Join(runner.calls[1], " ")
	if create != "acr_ed -create -field myproto.Header.priority -arg u8 -reftype Bitfld -srcfield myproto.Header.flags -write" {
		t.Errorf("create command = %q", create)
	}
	wantMerge := "dmmeta.bitfld  field:myproto.Header.priority  offset:6  width:3  srcfield:myproto.Header.flags  comment:\"\"\n"
	if runner.stdins[2] != wantMerge {
		t.Errorf("merge stdin = %q, want %q", runner.stdins[2], wantMerge)
	}
}

func TestValidateSchemaErrorCapping(t *testing.T) {
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, "bad reference in record")
	}
	lines = append(lines, "report.acr  n_select:0  n_error:60")
	runner := &scriptRunner{
		responses: []scriptResponse{{stderr: strings.Join(lines, "\n"), exit: 1}},
	}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "validate_schema", Args{})
	if out["ok"] != false {
		t.Fatalf("expected failure payload, got %v", out)
	}
	if out["error_count"] != float64(60) {
		t.Errorf("error_count = %v, want 60", out["error_count"])
	}
	errs := out["errors"].([]any)
	if len(errs) != 50 {
		t.Errorf("errors list length = %d, want cap of 50", len(errs))
	}
	if out["pattern"] != "%" {
		t.Errorf("default pattern = %v", out["pattern"])
	}
}

func TestValidateSchemaPass(t *testing.T) {
	runner := &scriptRunner{}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "validate_schema", Args{"pattern": "dmmeta.ctype:mydb.%"})
	if out["ok"] != true {
		t.Fatalf("expected pass, got %v", out)
	}
	if out["message"] != "Schema validation passed" {
		t.Errorf("message = %v", out["message"])
	}
}

func TestCreateTargetRejectsBadNstype(t *testing.T) {
	runner := &scriptRunner{}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "create_target", Args{"name": "mydb", "nstype": "database"})
	errMsg, _ := out["error"].(string)
	if !strings.Contains(errMsg, "invalid nstype") {
		t.Errorf("expected nstype rejection, got %v", out)
	}
	if len(runner.calls) != 0 {
		t.Errorf("no command should run for an invalid nstype")
	}
}

func TestQueryResultShape(t *testing.T) {
	runner := &scriptRunner{
		responses: []scriptResponse{
			{stdout: "dmmeta.ns  ns:algo  nstype:lib\nreport.acr  n_select:1\n"},
		},
	}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "list_namespaces", Args{})
	if out["ok"] != true {
		t.Fatalf("list_namespaces failed: %v", out)
	}
	if out["count"] != float64(1) {
		t.Errorf("count = %v (report rows must be filtered)", out["count"])
	}
	recs := out["records"].([]any)
	rec := recs[0].(map[string]any)
	if rec["_type"] != "dmmeta.ns" || rec["ns"] != "algo" {
		t.Errorf("record = %v", rec)
	}
}

func TestQueryResultFailureShape(t *testing.T) {
	runner := &scriptRunner{
		responses: []scriptResponse{{stderr: "no such table", exit: 1}},
	}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "query", Args{"pattern": "nosuch.%"})
	if out["ok"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if out["error"] != "no such table" {
		t.Errorf("error = %v", out["error"])
	}
}

func TestRequireClient(t *testing.T) {
	r := NewRegistry()
	tool, _ := r.Get("list_namespaces")
	payload, err := tool.Handle(context.Background(), &Deps{}, Args{})
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, payload)
	if out["error"] != "OpenACR client not initialized" {
		t.Errorf("payload = %v", out)
	}
}

func TestClampLevels(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 50: 50, 100: 100, 500: 100} {
		if got := clampLevels(in); got != want {
			t.Errorf("clampLevels(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSearchDedup(t *testing.T) {
	fieldRow := "dmmeta.field  field:mydb.Book.title  arg:algo.cstring  reftype:Val  comment:Book title\n"
	runner := &scriptRunner{
		responses: []scriptResponse{
			{stdout: ""},       // ctype name query
			{stdout: fieldRow}, // field name query
			{stdout: fieldRow}, // full field scan finds the same record
		},
	}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "search", Args{"text": "title"})
	if out["field_count"] != float64(1) {
		t.Errorf("field_count = %v, want 1 after dedup", out["field_count"])
	}
	if out["ctype_count"] != float64(0) {
		t.Errorf("ctype_count = %v", out["ctype_count"])
	}
}

func TestCreateEnumFlow(t *testing.T) {
	runner := &scriptRunner{}
	d := newTestDeps(runner)
	r := NewRegistry()

	out := callTool(t, r, d, "create_enum", Args{
		"namespace": "mydb",
		"name":      "Status",
		"values":    []any{"pending", "active", "done"},
	})
	if out["ok"] != true {
		t.Fatalf("create_enum failed: %v", out)
	}
	if out["pkey_field"] != "mydb.Status.status" {
		t.Errorf("pkey_field = %v", out["pkey_field"])
	}
	created := out["fconsts_created"].([]any)
	if len(created) != 3 {
		t.Fatalf("fconsts_created = %v", created)
	}
	if created[0] != "mydb.Status.status/pending" {
		t.Errorf("first fconst = %v", created[0])
	}

	create := strings.Join(runner.calls[0], " ")
	if create != "acr_ed -create -ctype mydb.Status -subset algo.Smallstr50 -write" {
		t.Errorf("ctype create command = %q", create)
	}
	// one ctype create plus three inserts
	if len(runner.calls) != 4 {
		t.Errorf("expected 4 commands, got %d", len(runner.calls))
	}
}
