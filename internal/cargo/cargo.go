package cargo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const DefaultOutputDir = "target"

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Paths holds every location the tool reads from or writes to. It is
// resolved once at startup and passed around explicitly.
type Paths struct {
	WorkspaceManifest string
	MemberManifest    string
	WorkspaceRoot     string
	MemberRoot        string
	WorkspaceOutput   string
	MemberOutput      string
}

type Options struct {
	// Binary is the cargo executable. Empty means $CARGO, then "cargo".
	Binary string
	// OutputDir is joined to each root. Empty means DefaultOutputDir.
	OutputDir string
	Runner    Runner
	Logger    logrus.FieldLogger
}

// Locate asks cargo where the workspace and current member manifests are
// and prepares an output directory next to each.
func Locate(ctx context.Context, opts Options) (Paths, error) {
	bin := Binary(opts.Binary)
	run := opts.Runner
	if run == nil {
		run = ExecRunner
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	workspace, err := locateProject(ctx, run, bin, true)
	if err != nil {
		return Paths{}, err
	}
	member, err := locateProject(ctx, run, bin, false)
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		WorkspaceManifest: workspace,
		MemberManifest:    member,
		WorkspaceRoot:     filepath.Dir(workspace),
		MemberRoot:        filepath.Dir(member),
	}
	p.WorkspaceOutput = outputPath(p.WorkspaceRoot, outputDir)
	p.MemberOutput = outputPath(p.MemberRoot, outputDir)

	for _, dir := range []string{p.WorkspaceOutput, p.MemberOutput} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"workspace": p.WorkspaceManifest,
			"member":    p.MemberManifest,
		}).Debug("located cargo manifests")
	}
	return p, nil
}

// Binary resolves the cargo executable to run.
func Binary(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("CARGO"); env != "" {
		return env
	}
	return "cargo"
}

func locateProject(ctx context.Context, run Runner, bin string, workspace bool) (string, error) {
	args := []string{"locate-project"}
	if workspace {
		args = append(args, "--workspace")
	}
	args = append(args, "--message-format", "plain")

	out, err := run(ctx, bin, args...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}

	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", fmt.Errorf("%s %s: empty manifest path", bin, strings.Join(args, " "))
	}
	return filepath.Clean(path), nil
}

func outputPath(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// ExecRunner runs the command with os/exec, folding stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
