// Package mcp exposes the openacr tool catalog over the Model Context
// Protocol so AI agents can query and author schemas without shelling out
// to the CLI themselves.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aaslyan/openacr-mcp/internal/acr"
	"github.com/aaslyan/openacr-mcp/internal/cache"
	"github.com/aaslyan/openacr-mcp/internal/config"
	"github.com/aaslyan/openacr-mcp/internal/tools"
)

// Server wraps the MCP server with the openacr tool registry.
type Server struct {
	mcpServer    *server.MCPServer
	registry     *tools.Registry
	deps         *tools.Deps
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// New builds the server from configuration: an acr client against the
// configured checkout, the parse cache when enabled, and every tool in the
// catalog. Cache open failures are not fatal; parsing just runs uncached.
func New(cfg *config.Config) (*Server, error) {
	client, err := acr.New(cfg.Acr.Dir, acr.Timeouts{
		Query: cfg.Acr.QueryTimeout(),
		Edit:  cfg.Acr.EditTimeout(),
		Amc:   cfg.Acr.AmcTimeout(),
		Abt:   cfg.Acr.AbtTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("openacr client: %w", err)
	}

	var parseCache *cache.Cache
	if cfg.Cache.Enabled {
		parseCache, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "openacr-mcp: parse cache unavailable: %v\n", err)
			parseCache = nil
		}
	}

	mcpServer := server.NewMCPServer(
		"openacr",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithInstructions(serverInstructions),
	)

	s := &Server{
		mcpServer: mcpServer,
		registry:  tools.NewRegistry(),
		deps: &tools.Deps{
			Client: client,
			Cache:  parseCache,
			Config: cfg,
		},
		lastActivity: time.Now(),
		timeout:      cfg.Serve.InactivityTimeout(),
	}

	for _, name := range s.registry.Names() {
		tool, _ := s.registry.Get(name)
		s.mcpServer.AddTool(tool.Def, s.adapt(tool))
	}

	fmt.Fprintf(os.Stderr, "openacr-mcp: initialized against %s (bin on PATH)\n", client.Dir)
	return s, nil
}

// adapt bridges one registry handler into the mcp-go callback shape.
func (s *Server) adapt(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()
		payload, err := t.Handle(ctx, s.deps, tools.Args(req.GetArguments()))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(payload), nil
	}
}

// BootstrapProject prepares and activates a standalone project directory at
// startup. The project is initialized first when its data/ tree is missing.
func (s *Server) BootstrapProject(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		if _, err := s.deps.Client.InitProject(ctx, dir); err != nil {
			return fmt.Errorf("init project: %w", err)
		}
	}
	if err := s.deps.Client.SetWorkDir(dir); err != nil {
		return fmt.Errorf("set project: %w", err)
	}
	fmt.Fprintf(os.Stderr, "openacr-mcp: project active at %s\n", s.deps.Client.WorkDir())
	return nil
}

// ServeStdio runs the server over stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker exits the process after the configured inactivity window.
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "openacr-mcp serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close releases the parse cache.
func (s *Server) Close() error {
	if s.deps.Cache != nil {
		return s.deps.Cache.Close()
	}
	return nil
}

// ListTools returns the registered tool names in catalog order.
func (s *Server) ListTools() []string {
	return s.registry.Names()
}

// GetToolSchemas returns flat schemas for every tool, for CLI help output.
func (s *Server) GetToolSchemas() []tools.ToolSchema {
	return s.registry.Schemas()
}

// CallTool executes one tool directly, bypassing the MCP transport. Used by
// the call subcommand.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := s.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s (run 'openacr-mcp call --list' to see available tools)", name)
	}
	s.updateActivity()
	return tool.Handle(ctx, s.deps, tools.Args(args))
}

const serverInstructions = `OpenACR MCP Server - relational schema to C++ code generator.

## What is OpenACR?

OpenACR defines data schemas as relational ssimfiles (simple structured input
method). The code generator amc reads these schemas and produces C++ structs,
enums, accessors, hash tables, linked lists, and other data structures from
the relational model.

## Typical Workflow

1. Query existing schemas: list_namespaces, list_ctypes, list_fields,
   list_fconsts, list_ssimfiles, list_finputs, query, search
2. Author new schemas: create_target -> create_ctype -> create_field -> create_fconst
3. Check referential integrity: validate_schema
4. Generate C++ code: run_amc
5. Build: run_abt
6. Discover the generated API: get_functions, list_generated_headers, get_generated_code

## Creating a New Project

Start with create_target to create a namespace:
- nstype ssimdb - a data-only namespace (tables/types, no executable)
- nstype exe - an executable program
- nstype lib - a shared library
- nstype protocol - a protocol definition namespace

## Schema Authoring Conventions

Type names: CamelCase (MyStruct, OrderStatus).
Field names: lowercase with underscores (order_id, created_at).
Primary key: the first field of a ctype is usually its pkey, named the same
as the ctype in lowercase.

Common arg types (create_field arg parameter):
- algo.cstring - variable-length string
- algo.Smallstr50 - fixed-capacity string (also Smallstr10/20/100/150/200)
- u32, u64, i32, i64 - unsigned/signed integers
- bool - boolean
- algo.Comment - a comment/description string

Reftype meanings (create_field reftype parameter):
- Val - inline value
- Pkey - foreign key reference to another ctype's primary key
- Base - inheritance
- Thash - hash table of records
- Lary - level array (growable array)

## Enum Pattern

1. create_ctype with a -subset pkey whose arg is algo.Smallstr20 (or similar)
2. create_fconst for each enum value on the pkey field

## Building Executables

- create_finput - load ssimdb data at runtime (mutable tables)
- create_gstatic - compile reference data into the binary (immutable)
- indexed=true with finput adds a Thash index for O(1) key lookup

## Composite Keys & Bitfields

- Composite keys: create_substr_field with .LL / .LR pathcomp expressions
- Bitfields: create_bitfield packs small values into integers
- Indexed access: create_field with xref=true, hashfld, sortfld, via

## Schema Exploration

- get_namespace_tree - everything about a namespace in one call
- get_upstream / get_downstream - traverse the FK dependency graph
- find_unused - unreferenced records for cleanup
- get_record_meta - schema metadata for matched records
- select_fields - query with column projection
- get_input_tables - all ssimfiles a target reads (via acr_in)
- visualize_ctype - ASCII diagram of type structure (via amc_vis)

## Structured Deletion

delete_ctype, delete_field, and delete_target cascade properly via acr_ed.
Prefer them over raw delete_record.

## Record Updates

update_record upserts one ssim tuple via acr -merge.

## Scaffolding

create_srcfile, create_unittest, and create_citest register files and test
functions with the build system.

Call get_workflow_guide for step-by-step recipes and get_usage_examples for
generated C++ usage of any namespace.`
