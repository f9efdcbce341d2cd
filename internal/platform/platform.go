// Package platform resolves host-specific facts (home directory, native
// shell, OS family) once at startup into an immutable [Info] value.
// Components that previously would have branched on runtime.GOOS inline
// take an Info instead, which keeps OS behavior in one place and makes
// the validator and capability providers testable on any host.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Family is a coarse OS classification. Entity defaults only ever need
// the Windows/POSIX distinction; Darwin is separated because media and
// brightness control shell out to different tools there.
type Family int

const (
	POSIX Family = iota
	Darwin
	Windows
)

// String returns the family name for logs.
func (f Family) String() string {
	switch f {
	case Windows:
		return "windows"
	case Darwin:
		return "darwin"
	default:
		return "posix"
	}
}

// Info holds resolved host facts. Construct with [Detect] for the real
// host, or build a literal in tests.
type Info struct {
	Family  Family
	HomeDir string
	// Shell is the native command shell used when an execute_command
	// request does not name one: "cmd" on Windows, "sh" elsewhere.
	Shell string
}

// Detect resolves the current host. The home directory falls back to
// the process working directory if the OS refuses to name one.
func Detect() Info {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home, _ = os.Getwd()
	}

	switch runtime.GOOS {
	case "windows":
		return Info{Family: Windows, HomeDir: home, Shell: "cmd"}
	case "darwin":
		return Info{Family: Darwin, HomeDir: home, Shell: "sh"}
	default:
		return Info{Family: POSIX, HomeDir: home, Shell: "sh"}
	}
}

// ExpandHome replaces a leading ~ with the home directory.
func (i Info) ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	if path == "~" {
		return i.HomeDir
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(i.HomeDir, path[2:])
	}
	return path
}

// ResolvePath makes a path absolute. Relative paths are anchored at the
// home directory, matching how users phrase spoken commands ("create
// notes.txt" means a file in their home, not the daemon's cwd).
func (i Info) ResolvePath(path string) string {
	path = i.ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(i.HomeDir, path)
}

// IsRootChild reports whether an absolute path names an entry directly
// inside a filesystem root (e.g. /notes.txt or C:\notes.txt). Writes
// there are almost always a misparsed command rather than user intent.
func IsRootChild(path string) bool {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return false
	}

	vol := filepath.VolumeName(clean)
	rest := strings.TrimPrefix(clean[len(vol):], string(filepath.Separator))
	// Also tolerate forward slashes on Windows-style inputs.
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return false // the root itself, not a child
	}
	return !strings.ContainsAny(rest, `/\`)
}
