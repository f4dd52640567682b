package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaslyan/openacr-mcp/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP (Model Context Protocol) server on stdio.

AI agents like Claude Code connect here to query and author OpenACR schemas
through structured tools instead of spawning CLI commands. Protocol traffic
flows over stdout; all logging goes to stderr.

Claude Code config (.mcp.json):
  {
    "mcpServers": {
      "openacr": {
        "command": "openacr-mcp",
        "args": ["serve"]
      }
    }
  }

Examples:
  openacr-mcp serve                          # Start with the configured checkout
  openacr-mcp serve --project ~/work/mydb    # Bootstrap and activate a project
  openacr-mcp serve --timeout 30m            # Auto-stop after 30m of inactivity
  openacr-mcp serve --status                 # Check if a server is running
  openacr-mcp serve --stop                   # Stop a running server
  openacr-mcp serve --list-tools             # Show the tool catalog`,
	RunE: runServe,
}

var (
	serveProject   string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveProject, "project", "", "Bootstrap and activate a standalone project directory on startup")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Inactivity timeout (e.g. 30m; overrides config, 0 for none)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if a server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop a running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List the tool catalog")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveStatus {
		return checkServerStatus()
	}
	if serveStop {
		return stopServer()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveTimeout != "" {
		timeout, err := parseDuration(serveTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		cfg.Serve.InactivityTimeoutSec = int(timeout / time.Second)
	}

	server, err := mcp.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if serveListTools {
		fmt.Println("Available MCP tools:")
		fmt.Println()
		for _, schema := range server.GetToolSchemas() {
			fmt.Printf("  %-24s %s\n", schema.Name, schema.Description)
		}
		return nil
	}

	if serveProject != "" {
		if err := server.BootstrapProject(cmd.Context(), serveProject); err != nil {
			return err
		}
	}

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write PID file: %v\n", err)
	}
	defer removePIDFile()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nopenacr-mcp serve: shutting down\n")
		server.Close()
		removePIDFile()
		os.Exit(0)
	}()

	// Log startup info to stderr (stdout is the MCP transport)
	fmt.Fprintf(os.Stderr, "openacr-mcp serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "openacr-mcp serve: %d tools registered\n", len(server.ListTools()))
	if t := cfg.Serve.InactivityTimeout(); t > 0 {
		fmt.Fprintf(os.Stderr, "openacr-mcp serve: timeout: %v\n", t)
	}

	return server.ServeStdio()
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".openacr-mcp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

func checkServerStatus() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		fmt.Println("Status: not running")
		return nil
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("Status: not running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Println("Status: not running (invalid PID file)")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Println("Status: not running")
		removePIDFile()
		return nil
	}

	// On Unix, FindProcess always succeeds, so send signal 0 to check
	err = process.Signal(syscall.Signal(0))
	if err != nil {
		fmt.Println("Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Printf("Status: running (PID %d)\n", pid)
	return nil
}

func stopServer() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("No server running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return fmt.Errorf("invalid PID file")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		fmt.Println("No server running")
		return nil
	}

	// Send SIGTERM for graceful shutdown
	err = process.Signal(syscall.SIGTERM)
	if err != nil {
		removePIDFile()
		fmt.Println("Server already stopped")
		return nil
	}

	fmt.Printf("Stopped server (PID %d)\n", pid)
	return nil
}
