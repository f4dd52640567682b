package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func registerProjectTools(r *Registry) {
	r.add(Tool{
		Def: mcp.NewTool("init_project",
			mcp.WithDescription("Bootstrap a standalone project directory: copies the openacr data/ tree, symlinks bin/, creates scaffold dirs, and initializes git. Call set_project afterwards to switch context."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Absolute or relative path to the new project directory"),
			),
		),
		Schema: ToolSchema{
			Name:        "init_project",
			Description: "Bootstrap a standalone project directory (copies data/, symlinks bin/, initializes git).",
			Parameters: []ParameterSchema{
				{Name: "path", Type: "string", Description: "Path to the new project directory", Required: true},
			},
		},
		Handle: handleInitProject,
	})

	r.add(Tool{
		Def: mcp.NewTool("set_project",
			mcp.WithDescription("Switch the working context to a standalone project directory. An empty path resets to the upstream openacr directory."),
			mcp.WithString("path",
				mcp.Description("Project directory path; empty resets to upstream openacr"),
			),
		),
		Schema: ToolSchema{
			Name:        "set_project",
			Description: "Switch the working context to a project directory (empty path resets to upstream).",
			Parameters: []ParameterSchema{
				{Name: "path", Type: "string", Description: "Project directory path; empty resets to upstream"},
			},
		},
		Handle: handleSetProject,
	})
}

func handleInitProject(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	path := args.String("path")
	if path == "" {
		return errorJSON("path is required"), nil
	}
	project, err := d.Client.InitProject(ctx, path)
	if err != nil {
		return errorJSON(err.Error()), nil
	}
	return marshal(map[string]any{"ok": true, "project_dir": project}), nil
}

func handleSetProject(ctx context.Context, d *Deps, args Args) (string, error) {
	if msg, ok := requireClient(d); !ok {
		return msg, nil
	}
	if err := d.Client.SetWorkDir(args.String("path")); err != nil {
		return errorJSON(err.Error()), nil
	}
	return marshal(map[string]any{"ok": true, "work_dir": d.Client.WorkDir()}), nil
}
