// Package media is the capability provider for playback control. It
// drives whatever the host's media layer exposes: AppleScript on
// macOS, playerctl (MPRIS) on Linux, and virtual media keys via nircmd
// on Windows.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/stewardbot/steward/internal/platform"
)

// controlTimeout bounds each playback command. These are local, near
// instant operations.
const controlTimeout = 5 * time.Second

// Controller issues playback commands to the host media layer.
type Controller struct {
	host   platform.Info
	logger *slog.Logger
}

// New creates a Controller for the host.
func New(host platform.Info, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{host: host, logger: logger}
}

// darwinApps maps spoken player names to scriptable macOS app names.
var darwinApps = map[string]string{
	"music":   "Music",
	"itunes":  "Music",
	"spotify": "Spotify",
	"tv":      "TV",
}

func (c *Controller) darwinApp(player string) string {
	if app, ok := darwinApps[strings.ToLower(strings.TrimSpace(player))]; ok {
		return app
	}
	return "Music"
}

// Play starts or resumes playback. A named track or playlist is only
// selectable through AppleScript; other platforms resume whatever is
// current.
func (c *Controller) Play(ctx context.Context, player, trackOrPlaylist string) (string, error) {
	if err := c.run(ctx, c.playArgs(player, trackOrPlaylist)); err != nil {
		return "", mediaError()
	}
	if trackOrPlaylist != "" && c.host.Family == platform.Darwin {
		return fmt.Sprintf("Playing %s.", trackOrPlaylist), nil
	}
	return "Resuming playback.", nil
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context, player string) (string, error) {
	if err := c.control(ctx, player, "pause", "0xB3"); err != nil {
		return "", mediaError()
	}
	return "Paused.", nil
}

// Skip advances to the next track.
func (c *Controller) Skip(ctx context.Context, player string) (string, error) {
	if err := c.control(ctx, player, "next", "0xB0"); err != nil {
		return "", mediaError()
	}
	return "Skipping to the next track.", nil
}

// Previous returns to the previous track.
func (c *Controller) Previous(ctx context.Context, player string) (string, error) {
	if err := c.control(ctx, player, "previous", "0xB1"); err != nil {
		return "", mediaError()
	}
	return "Going back to the previous track.", nil
}

// darwinVerbs maps playerctl verbs to their AppleScript equivalents.
var darwinVerbs = map[string]string{
	"pause":    "pause",
	"next":     "next track",
	"previous": "previous track",
}

// control runs a simple transport command: verb is the playerctl
// action, winKey the Windows virtual key code.
func (c *Controller) control(ctx context.Context, player, verb, winKey string) error {
	return c.run(ctx, c.controlArgs(player, verb, winKey))
}

// playArgs builds the argv for starting playback on the host.
func (c *Controller) playArgs(player, trackOrPlaylist string) []string {
	switch c.host.Family {
	case platform.Darwin:
		app := c.darwinApp(player)
		script := fmt.Sprintf("tell application %q to play", app)
		if trackOrPlaylist != "" {
			script = fmt.Sprintf("tell application %q to play track %q", app, trackOrPlaylist)
		}
		return []string{"osascript", "-e", script}
	case platform.Windows:
		return []string{"nircmd", "sendkeypress", "0xB3"}
	default:
		return playerctlArgs(player, "play")
	}
}

// controlArgs builds the argv for a transport command on the host.
func (c *Controller) controlArgs(player, verb, winKey string) []string {
	switch c.host.Family {
	case platform.Darwin:
		return []string{"osascript", "-e",
			fmt.Sprintf("tell application %q to %s", c.darwinApp(player), darwinVerbs[verb])}
	case platform.Windows:
		return []string{"nircmd", "sendkeypress", winKey}
	default:
		return playerctlArgs(player, verb)
	}
}

// playerctlArgs builds a playerctl command line. An empty player name,
// or the classifier's "default" placeholder, means no -p flag so
// playerctl picks the active player itself.
func playerctlArgs(player, verb string) []string {
	p := strings.ToLower(strings.TrimSpace(player))
	if p != "" && p != "default" {
		return []string{"playerctl", "-p", p, verb}
	}
	return []string{"playerctl", verb}
}

func (c *Controller) run(ctx context.Context, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Warn("media command failed", "argv", argv, "output", string(out), "error", err)
		return err
	}
	return nil
}

func mediaError() error {
	return fmt.Errorf("I couldn't control the media player. Is one running?")
}
