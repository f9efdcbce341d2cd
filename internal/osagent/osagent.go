// Package osagent is the capability provider for filesystem, process,
// and display/audio control. Paths arriving here are already validated
// and normalized; this package only performs the side effects and
// reports user-safe messages.
package osagent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/stewardbot/steward/internal/platform"
)

// Agent performs OS interactions. Construct with New.
type Agent struct {
	host   platform.Info
	shell  *ShellExec
	logger *slog.Logger
}

// New creates an Agent. shell may be a disabled executor; see
// [NewShellExec].
func New(host platform.Info, shell *ShellExec, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{host: host, shell: shell, logger: logger}
}

// CreateFile writes content to path, creating parent directories.
func (a *Agent) CreateFile(ctx context.Context, path, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		a.logger.Warn("create file: mkdir failed", "path", path, "error", err)
		return "", fmt.Errorf("I couldn't create the folder for %s", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		a.logger.Warn("create file failed", "path", path, "error", err)
		return "", fmt.Errorf("I couldn't create %s", path)
	}
	return fmt.Sprintf("Created %s.", path), nil
}

// CreateDirectory creates path and any missing parents.
func (a *Agent) CreateDirectory(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		a.logger.Warn("create directory failed", "path", path, "error", err)
		return "", fmt.Errorf("I couldn't create the directory %s", path)
	}
	return fmt.Sprintf("Created directory %s.", path), nil
}

// DeletePath removes a file or directory tree.
func (a *Agent) DeletePath(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s doesn't exist", path)
		}
		a.logger.Warn("delete path: stat failed", "path", path, "error", err)
		return "", fmt.Errorf("I couldn't access %s", path)
	}

	if err := os.RemoveAll(path); err != nil {
		a.logger.Warn("delete path failed", "path", path, "error", err)
		return "", fmt.Errorf("I couldn't delete %s", path)
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	return fmt.Sprintf("Deleted the %s %s.", kind, path), nil
}

// MovePath renames source to destination. When destination is an
// existing directory the source keeps its base name inside it.
func (a *Agent) MovePath(ctx context.Context, source, destination string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s doesn't exist", source)
		}
		return "", fmt.Errorf("I couldn't access %s", source)
	}

	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		destination = filepath.Join(destination, filepath.Base(source))
	}

	if err := os.Rename(source, destination); err != nil {
		a.logger.Warn("move path failed", "source", source, "destination", destination, "error", err)
		return "", fmt.Errorf("I couldn't move %s to %s", source, destination)
	}
	return fmt.Sprintf("Moved %s to %s.", source, destination), nil
}

// ListDirectory returns the entry names of a directory, directories
// first, each group sorted.
func (a *Agent) ListDirectory(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s doesn't exist", path)
		}
		a.logger.Warn("list directory failed", "path", path, "error", err)
		return nil, fmt.Errorf("I couldn't read %s", path)
	}

	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name()+string(filepath.Separator))
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return append(dirs, files...), nil
}

// ExecuteCommand runs an arbitrary command through the shell executor.
// Output (stdout and stderr) is whitelisted diagnostic detail and is
// returned to the user.
func (a *Agent) ExecuteCommand(ctx context.Context, command, shell string) (string, error) {
	if a.shell == nil || !a.shell.Enabled() {
		return "", fmt.Errorf("shell execution is disabled in my configuration")
	}

	a.logger.Warn("executing user command", "command", command, "shell", shell)

	result, err := a.shell.Exec(ctx, command, shell, 0)
	if err != nil {
		return "", err
	}
	if result.TimedOut {
		return "", fmt.Errorf("the command timed out")
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("the command failed (exit %d):\n%s%s", result.ExitCode, result.Stdout, result.Stderr)
	}

	out := result.Stdout
	if out == "" {
		out = result.Stderr
	}
	if out == "" {
		out = "(no output)"
	}
	return out, nil
}
