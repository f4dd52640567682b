// Package acr shells out to the OpenACR command-line tools (acr, acr_ed, amc,
// abt and friends) and parses their ssim output. All commands run with the
// working directory set to the OpenACR checkout; the checkout's bin directory
// is prepended to PATH because acr_ed spawns sub-commands (acr_in, amc_vis,
// acr) that must resolve by name.
package acr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aaslyan/openacr-mcp/internal/ssim"
)

// Result is the outcome of one command. A failed spawn or a timeout is
// reported through OK and Stderr, not as a Go error: callers forward the
// failure text to the agent either way.
type Result struct {
	OK       bool
	Stdout   string
	Stderr   string
	ExitCode int

	// Records is the parsed ssim output, populated only on success.
	Records []ssim.Record
}

// Err returns a one-line failure description for a non-OK result.
func (r Result) Err() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("command failed with exit code %d", r.ExitCode)
}

// Timeouts holds the per-command-class deadlines. Editing commands cascade
// through acr_ed and need more headroom than plain queries; amc and abt do
// real codegen and compilation.
type Timeouts struct {
	Query time.Duration
	Edit  time.Duration
	Amc   time.Duration
	Abt   time.Duration
}

// DefaultTimeouts returns the standard deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Query: 30 * time.Second,
		Edit:  60 * time.Second,
		Amc:   2 * time.Minute,
		Abt:   5 * time.Minute,
	}
}

// Runner executes one command. The default spawns the process; tests swap in
// a fake.
type Runner func(ctx context.Context, dir, stdin string, args ...string) (stdout, stderr string, exitCode int, err error)

// Client runs OpenACR commands against one checkout, or against a standalone
// project directory when one is active.
type Client struct {
	Dir    string // OpenACR checkout root, absolute
	BinDir string // Dir/bin

	workDir  string // active project dir; "" means the checkout itself
	timeouts Timeouts
	run      Runner
}

// New verifies the checkout's bin directory and prepends it to the process
// PATH so every subprocess (and their children) can find OpenACR commands by
// name.
func New(dir string, timeouts Timeouts) (*Client, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve openacr dir: %w", err)
	}
	binDir := filepath.Join(abs, "bin")
	if info, err := os.Stat(binDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("openacr bin directory not found: %s", binDir)
	}

	path := os.Getenv("PATH")
	if !strings.Contains(path, binDir) {
		os.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}

	return &Client{
		Dir:      abs,
		BinDir:   binDir,
		timeouts: timeouts,
		run:      execRunner,
	}, nil
}

// NewWithRunner builds a client around a custom Runner and skips the bin
// directory check. Used by tests.
func NewWithRunner(dir string, timeouts Timeouts, run Runner) *Client {
	return &Client{
		Dir:      dir,
		BinDir:   filepath.Join(dir, "bin"),
		timeouts: timeouts,
		run:      run,
	}
}

func execRunner(ctx context.Context, dir, stdin string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			err = nil
		}
	}
	return outBuf.String(), errBuf.String(), code, err
}

// WorkDir returns the directory commands run in: the active project, or the
// checkout root when no project is set.
func (c *Client) WorkDir() string {
	if c.workDir != "" {
		return c.workDir
	}
	return c.Dir
}

// SetWorkDir switches command execution to a standalone project directory.
// The directory must look like a project: data/dmmeta for the schema and a
// bin/ for the tools.
func (c *Client) SetWorkDir(dir string) error {
	if dir == "" {
		c.workDir = ""
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	if info, err := os.Stat(filepath.Join(abs, "data", "dmmeta")); err != nil || !info.IsDir() {
		return fmt.Errorf("invalid project directory, missing data/dmmeta at %s", abs)
	}
	if _, err := os.Stat(filepath.Join(abs, "bin")); err != nil {
		return fmt.Errorf("invalid project directory, missing bin/ at %s", abs)
	}
	c.workDir = abs
	return nil
}

// InitProject bootstraps a standalone project directory: the checkout's
// data/ tree is copied in (schema metadata only), bin/ is symlinked so all
// commands resolve locally, and a git repository is initialized because
// acr_ed refuses to edit outside one.
func (c *Client) InitProject(ctx context.Context, dir string) (string, error) {
	project, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	dataDst := filepath.Join(project, "data")
	if _, err := os.Stat(dataDst); err == nil {
		return "", fmt.Errorf("data/ already exists at %s, refusing to overwrite", project)
	}
	if err := os.MkdirAll(project, 0o755); err != nil {
		return "", err
	}
	if err := copyTree(filepath.Join(c.Dir, "data"), dataDst); err != nil {
		return "", fmt.Errorf("copy data tree: %w", err)
	}
	if err := os.Symlink(c.BinDir, filepath.Join(project, "bin")); err != nil {
		return "", fmt.Errorf("link bin: %w", err)
	}
	for _, sub := range []string{"lock", "include/gen", "cpp/gen"} {
		if err := os.MkdirAll(filepath.Join(project, sub), 0o755); err != nil {
			return "", err
		}
	}

	for _, git := range [][]string{
		{"git", "init"},
		{"git", "add", "."},
		{"git", "commit", "-m", "init project", "--allow-empty"},
	} {
		gctx, cancel := context.WithTimeout(ctx, c.timeouts.Edit)
		_, _, _, err := c.run(gctx, project, "", git...)
		cancel()
		if err != nil {
			return "", fmt.Errorf("%s: %w", strings.Join(git, " "), err)
		}
	}
	return project, nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// exec runs one command with the given deadline and parses ssim output on
// success.
func (c *Client) exec(ctx context.Context, timeout time.Duration, stdin string, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, code, err := c.run(ctx, c.WorkDir(), stdin, args...)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return Result{Stderr: "command not found: " + args[0], ExitCode: -1}
		case ctx.Err() != nil:
			return Result{Stderr: fmt.Sprintf("command timed out after %s", timeout), ExitCode: -1}
		default:
			return Result{Stderr: err.Error(), ExitCode: -1}
		}
	}

	r := Result{
		OK:       code == 0,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: code,
	}
	if r.OK {
		r.Records = ssim.ParseOutput(stdout)
	}
	return r
}

// --- acr queries ----------------------------------------------------------

// Query runs `acr '<pattern>'`. With tree set, -t adds the full xref tree to
// stdout; Records still holds the parseable tuple lines.
func (c *Client) Query(ctx context.Context, pattern string, tree bool) Result {
	args := []string{"acr", pattern}
	if tree {
		args = append(args, "-t")
	}
	return c.exec(ctx, c.timeouts.Query, "", args...)
}

// Meta runs `acr '<pattern>' -meta`, selecting the meta-records describing
// the matched rows' types.
func (c *Client) Meta(ctx context.Context, pattern string) Result {
	return c.exec(ctx, c.timeouts.Query, "", "acr", pattern, "-meta")
}

// SelectFields runs a query with a field projection.
func (c *Client) SelectFields(ctx context.Context, pattern string, fields []string) Result {
	return c.exec(ctx, c.timeouts.Query, "", "acr", pattern, "-field", strings.Join(fields, ","))
}

// NDown follows downstream dependencies N levels.
func (c *Client) NDown(ctx context.Context, pattern string, n int) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr", pattern, "-ndown", strconv.Itoa(n))
}

// NUp follows upstream references N levels.
func (c *Client) NUp(ctx context.Context, pattern string, n int) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr", pattern, "-nup", strconv.Itoa(n))
}

// Unused finds records nothing references.
func (c *Client) Unused(ctx context.Context, pattern string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr", pattern, "-unused")
}

// Check runs referential integrity validation over the matched records.
func (c *Client) Check(ctx context.Context, pattern string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr", pattern, "-check")
}

// --- acr writes -----------------------------------------------------------

// Insert feeds tuple lines to `acr -insert -write`. Fails if any record
// already exists.
func (c *Client) Insert(ctx context.Context, lines string) Result {
	return c.exec(ctx, c.timeouts.Query, ensureNewline(lines), "acr", "-insert", "-write")
}

// Merge feeds tuple lines to `acr -merge -write`, updating records in place.
func (c *Client) Merge(ctx context.Context, lines string) Result {
	return c.exec(ctx, c.timeouts.Query, ensureNewline(lines), "acr", "-merge", "-write")
}

// Delete removes the matched records with `acr -del -write`.
func (c *Client) Delete(ctx context.Context, pattern string) Result {
	return c.exec(ctx, c.timeouts.Query, "", "acr", "-del", "-write", pattern)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// --- acr_ed ---------------------------------------------------------------

// EdCreate runs `acr_ed -create <args> -write`.
func (c *Client) EdCreate(ctx context.Context, args ...string) Result {
	cmd := append([]string{"acr_ed", "-create"}, args...)
	cmd = append(cmd, "-write")
	return c.exec(ctx, c.timeouts.Edit, "", cmd...)
}

// EdCreateTarget creates a namespace plus target of the given nstype
// (exe, lib, ssimdb, protocol).
func (c *Client) EdCreateTarget(ctx context.Context, name, nstype, comment string) Result {
	args := []string{"-target", name, "-nstype", nstype}
	if comment != "" {
		args = append(args, "-comment", comment)
	}
	return c.EdCreate(ctx, args...)
}

// EdRename renames a record and rewrites all references to it.
func (c *Client) EdRename(ctx context.Context, old, new string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr_ed", "-rename", old, new, "-write")
}

// EdDeleteCtype deletes a ctype and cascades to its fields, ssimfile, and
// cfmt records.
func (c *Client) EdDeleteCtype(ctx context.Context, ctype string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr_ed", "-del", "-ctype", ctype, "-write")
}

// EdDeleteField deletes one field.
func (c *Client) EdDeleteField(ctx context.Context, field string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr_ed", "-del", "-field", field, "-write")
}

// EdDeleteTarget deletes a target and everything under it.
func (c *Client) EdDeleteTarget(ctx context.Context, target string) Result {
	return c.exec(ctx, c.timeouts.Edit, "", "acr_ed", "-del", "-target", target, "-write")
}

// EdCreateSrcfile registers a new source file with a target.
func (c *Client) EdCreateSrcfile(ctx context.Context, path, target string) Result {
	return c.EdCreate(ctx, "-srcfile", path, "-target", target)
}

// EdCreateUnittest scaffolds a unit test function (ns.testname).
func (c *Client) EdCreateUnittest(ctx context.Context, name, comment string) Result {
	args := []string{"-unittest", name}
	if comment != "" {
		args = append(args, "-comment", comment)
	}
	return c.EdCreate(ctx, args...)
}

// EdCreateCitest scaffolds a component-integration test.
func (c *Client) EdCreateCitest(ctx context.Context, name, comment string) Result {
	args := []string{"-citest", name}
	if comment != "" {
		args = append(args, "-comment", comment)
	}
	return c.EdCreate(ctx, args...)
}

// EdCreateFinput wires an ssimfile as an input table of a target. With
// indexed set, a Thash index over the primary key is added too.
func (c *Client) EdCreateFinput(ctx context.Context, target, ssimfile string, indexed bool) Result {
	args := []string{"-finput", "-target", target, "-ssimfile", ssimfile}
	if indexed {
		args = append(args, "-indexed")
	}
	return c.EdCreate(ctx, args...)
}

// EdCreateFoutput declares an ssimfile as an output table of a target.
func (c *Client) EdCreateFoutput(ctx context.Context, target, ssimfile string) Result {
	return c.EdCreate(ctx, "-foutput", "-target", target, "-ssimfile", ssimfile)
}

// --- generators and helpers ----------------------------------------------

// In runs `acr_in <ns>`, listing a namespace's input tables in dependency
// order.
func (c *Client) In(ctx context.Context, ns string, data bool) Result {
	args := []string{"acr_in", ns}
	if data {
		args = append(args, "-data")
	}
	return c.exec(ctx, c.timeouts.Query, "", args...)
}

// AmcVis renders an ascii relationship diagram for the matched ctypes.
func (c *Client) AmcVis(ctx context.Context, pattern string) Result {
	return c.exec(ctx, c.timeouts.Query, "", "amc_vis", pattern)
}

// Amc regenerates C++ code, optionally restricted to one namespace.
func (c *Client) Amc(ctx context.Context, ns string) Result {
	args := []string{"amc"}
	if ns != "" {
		args = append(args, ns)
	}
	return c.exec(ctx, c.timeouts.Amc, "", args...)
}

// Abt builds a target.
func (c *Client) Abt(ctx context.Context, target string) Result {
	return c.exec(ctx, c.timeouts.Abt, "", "abt", target)
}

// ListNamespaces queries all namespaces.
func (c *Client) ListNamespaces(ctx context.Context) Result {
	return c.Query(ctx, "dmmeta.ns:%", false)
}

// ListCtypes queries all ctypes in a namespace.
func (c *Client) ListCtypes(ctx context.Context, ns string) Result {
	return c.Query(ctx, "dmmeta.ctype:"+ns+".%", false)
}

// ListFields queries all fields of a ctype.
func (c *Client) ListFields(ctx context.Context, ctype string) Result {
	return c.Query(ctx, "dmmeta.field:"+ctype+".%", false)
}

// GetNsType returns the nstype of a namespace (ssimdb, exe, lib, ...).
func (c *Client) GetNsType(ctx context.Context, ns string) (string, bool) {
	r := c.Query(ctx, "dmmeta.ns:"+ns, false)
	if !r.OK || len(r.Records) == 0 {
		return "", false
	}
	return r.Records[0].Get("nstype"), true
}

// ListGeneratedHeaders returns the generated header paths for a namespace,
// relative to the active work dir.
func (c *Client) ListGeneratedHeaders(ns string) []string {
	var out []string
	for _, name := range []string{ns + "_gen.h", ns + "_gen.inl.h"} {
		rel := filepath.Join("include", "gen", name)
		if _, err := os.Stat(filepath.Join(c.WorkDir(), rel)); err == nil {
			out = append(out, rel)
		}
	}
	return out
}

// ReadGeneratedFile reads a file by path relative to the active work dir.
// The path must stay inside it.
func (c *Client) ReadGeneratedFile(rel string) (string, error) {
	base := c.WorkDir()
	full := filepath.Join(base, rel)
	clean, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if clean != base && !strings.HasPrefix(clean, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes openacr dir: %s", rel)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
