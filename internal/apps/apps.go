// Package apps is the capability provider for launching and closing
// desktop applications. Spoken app names are rarely exact ("chrome"
// for "Google Chrome"), so lookups go through a fuzzy alias table.
package apps

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/stewardbot/steward/internal/platform"
)

// launchTimeout bounds the launcher/killer commands themselves, not
// the launched application.
const launchTimeout = 10 * time.Second

// Manager opens and closes applications by spoken name.
type Manager struct {
	host    platform.Info
	aliases map[string]appEntry
	logger  *slog.Logger
}

// appEntry maps a canonical app to its launch target and the process
// name used for termination.
type appEntry struct {
	launchName  string // argument to open/start
	processName string // argument to pkill/taskkill
}

// New creates a Manager with the built-in alias table for the host.
func New(host platform.Info, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{host: host, aliases: defaultAliases(host.Family), logger: logger}
}

// defaultAliases returns the spoken-name table for common apps. Keys
// are lowercase spoken forms; multiple keys may map to one entry.
func defaultAliases(f platform.Family) map[string]appEntry {
	switch f {
	case platform.Darwin:
		return map[string]appEntry{
			"safari":        {"Safari", "Safari"},
			"chrome":        {"Google Chrome", "Google Chrome"},
			"google chrome": {"Google Chrome", "Google Chrome"},
			"firefox":       {"Firefox", "firefox"},
			"terminal":      {"Terminal", "Terminal"},
			"finder":        {"Finder", "Finder"},
			"notes":         {"Notes", "Notes"},
			"music":         {"Music", "Music"},
			"spotify":       {"Spotify", "Spotify"},
			"mail":          {"Mail", "Mail"},
			"calendar":      {"Calendar", "Calendar"},
		}
	case platform.Windows:
		return map[string]appEntry{
			"notepad":       {"notepad", "notepad.exe"},
			"chrome":        {"chrome", "chrome.exe"},
			"google chrome": {"chrome", "chrome.exe"},
			"firefox":       {"firefox", "firefox.exe"},
			"edge":          {"msedge", "msedge.exe"},
			"explorer":      {"explorer", "explorer.exe"},
			"calculator":    {"calc", "CalculatorApp.exe"},
			"word":          {"winword", "WINWORD.EXE"},
			"excel":         {"excel", "EXCEL.EXE"},
			"spotify":       {"spotify", "Spotify.exe"},
		}
	default:
		return map[string]appEntry{
			"firefox":       {"firefox", "firefox"},
			"chrome":        {"google-chrome", "chrome"},
			"google chrome": {"google-chrome", "chrome"},
			"chromium":      {"chromium", "chromium"},
			"files":         {"nautilus", "nautilus"},
			"terminal":      {"x-terminal-emulator", "x-terminal-emulator"},
			"text editor":   {"gedit", "gedit"},
			"spotify":       {"spotify", "spotify"},
			"vlc":           {"vlc", "vlc"},
		}
	}
}

// maxDistance is the largest edit distance still considered a match.
// Short spoken names tolerate less fuzz than long ones.
func maxDistance(name string) int {
	if len(name) <= 4 {
		return 1
	}
	return 2
}

// resolve finds the alias entry closest to the spoken name. Unmatched
// names fall through unchanged so unknown apps can still be launched
// verbatim.
func (m *Manager) resolve(spoken string) appEntry {
	name := strings.ToLower(strings.TrimSpace(spoken))
	if entry, ok := m.aliases[name]; ok {
		return entry
	}

	best, bestDist := appEntry{}, -1
	for alias, entry := range m.aliases {
		d := levenshtein.ComputeDistance(name, alias)
		if bestDist < 0 || d < bestDist {
			best, bestDist = entry, d
		}
	}
	if bestDist >= 0 && bestDist <= maxDistance(name) {
		return best
	}

	return appEntry{launchName: spoken, processName: spoken}
}

// Open launches an application.
func (m *Manager) Open(ctx context.Context, name string) (string, error) {
	entry := m.resolve(name)

	var argv []string
	switch m.host.Family {
	case platform.Darwin:
		argv = []string{"open", "-a", entry.launchName}
	case platform.Windows:
		argv = []string{"cmd", "/C", "start", "", entry.launchName}
	default:
		argv = []string{entry.launchName}
	}

	if err := m.run(ctx, argv, true); err != nil {
		return "", fmt.Errorf("I couldn't open %q. Make sure it's installed", name)
	}
	return fmt.Sprintf("Opening %s.", entry.launchName), nil
}

// Close terminates an application by process name.
func (m *Manager) Close(ctx context.Context, name string) (string, error) {
	entry := m.resolve(name)

	var argv []string
	switch m.host.Family {
	case platform.Windows:
		argv = []string{"taskkill", "/IM", entry.processName, "/F"}
	default:
		argv = []string{"pkill", "-f", entry.processName}
	}

	if err := m.run(ctx, argv, false); err != nil {
		return "", fmt.Errorf("I couldn't close %q, or it wasn't running", name)
	}
	return fmt.Sprintf("Closing %s.", entry.launchName), nil
}

// run executes a launcher command. detach starts without waiting so a
// GUI app doesn't block the pipeline.
func (m *Manager) run(ctx context.Context, argv []string, detach bool) error {
	ctx, cancel := context.WithTimeout(ctx, launchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if detach && m.host.Family == platform.POSIX {
		// Plain binaries keep running after we return; Start without
		// Wait leaves them to the OS.
		if err := cmd.Start(); err != nil {
			m.logger.Warn("app launch failed", "argv", argv, "error", err)
			return err
		}
		go cmd.Wait() // reap
		return nil
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		m.logger.Warn("app command failed", "argv", argv, "output", string(out), "error", err)
		return err
	}
	return nil
}
