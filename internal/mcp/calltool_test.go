package mcp

import (
	"strings"
	"testing"

	"github.com/aaslyan/openacr-mcp/internal/tools"
)

func TestToolSchemaParameters(t *testing.T) {
	// Verify required parameters are marked correctly
	registry := tools.NewRegistry()
	tests := []struct {
		tool          string
		requiredParam string
	}{
		{"get_namespace_tree", "namespace"},
		{"list_fields", "ctype"},
		{"query", "pattern"},
		{"create_target", "nstype"},
		{"create_field", "arg"},
		{"run_abt", "target"},
		{"get_functions", "namespace"},
	}

	for _, tt := range tests {
		tool, ok := registry.Get(tt.tool)
		if !ok {
			t.Fatalf("missing tool: %s", tt.tool)
		}

		found := false
		for _, p := range tool.Schema.Parameters {
			if p.Name == tt.requiredParam {
				found = true
				if !p.Required {
					t.Errorf("tool %s param %s should be required", tt.tool, tt.requiredParam)
				}
			}
		}
		if !found {
			t.Errorf("tool %s missing parameter %s", tt.tool, tt.requiredParam)
		}
	}
}

func TestToolSchemaNoRequiredParams(t *testing.T) {
	// These tools have no required params
	registry := tools.NewRegistry()
	noRequired := []string{"list_namespaces", "validate_schema", "run_amc", "get_workflow_guide", "set_project"}

	for _, name := range noRequired {
		tool, ok := registry.Get(name)
		if !ok {
			t.Fatalf("missing tool: %s", name)
		}
		for _, p := range tool.Schema.Parameters {
			if p.Required {
				t.Errorf("tool %s param %s is marked required but should not be", name, p.Name)
			}
		}
	}
}

func TestInstructionsMentionCoreTools(t *testing.T) {
	for _, name := range []string{"create_target", "run_amc", "get_functions", "validate_schema"} {
		if !strings.Contains(serverInstructions, name) {
			t.Errorf("server instructions do not mention %s", name)
		}
	}
}
