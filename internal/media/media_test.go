package media

import (
	"strings"
	"testing"

	"github.com/stewardbot/steward/internal/platform"
)

func controller(family platform.Family) *Controller {
	return New(platform.Info{Family: family, HomeDir: "/home/alex", Shell: "sh"}, nil)
}

func TestPlayerctlArgs(t *testing.T) {
	tests := []struct {
		name   string
		player string
		verb   string
		want   string
	}{
		{"empty player omits -p", "", "play", "playerctl play"},
		{"default placeholder omits -p", "default", "play", "playerctl play"},
		{"default is case-insensitive", "Default", "next", "playerctl next"},
		{"named player targeted", "spotify", "pause", "playerctl -p spotify pause"},
		{"player name lowercased and trimmed", " Spotify ", "play", "playerctl -p spotify play"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(playerctlArgs(tt.player, tt.verb), " ")
			if got != tt.want {
				t.Errorf("playerctlArgs(%q, %q) = %q, want %q", tt.player, tt.verb, got, tt.want)
			}
		})
	}
}

func TestPlayArgs(t *testing.T) {
	t.Run("posix default player", func(t *testing.T) {
		got := strings.Join(controller(platform.POSIX).playArgs("default", ""), " ")
		if got != "playerctl play" {
			t.Errorf("argv = %q, want %q", got, "playerctl play")
		}
	})

	t.Run("darwin track selection", func(t *testing.T) {
		argv := controller(platform.Darwin).playArgs("spotify", "Lofi Beats")
		if argv[0] != "osascript" {
			t.Fatalf("argv = %v", argv)
		}
		script := argv[len(argv)-1]
		if !strings.Contains(script, `"Spotify"`) || !strings.Contains(script, `play track "Lofi Beats"`) {
			t.Errorf("script = %q", script)
		}
	})

	t.Run("darwin without track resumes", func(t *testing.T) {
		argv := controller(platform.Darwin).playArgs("", "")
		script := argv[len(argv)-1]
		if script != `tell application "Music" to play` {
			t.Errorf("script = %q", script)
		}
	})

	t.Run("windows sends play key", func(t *testing.T) {
		got := strings.Join(controller(platform.Windows).playArgs("", ""), " ")
		if got != "nircmd sendkeypress 0xB3" {
			t.Errorf("argv = %q", got)
		}
	})
}

func TestControlArgs(t *testing.T) {
	t.Run("posix default player", func(t *testing.T) {
		got := strings.Join(controller(platform.POSIX).controlArgs("default", "next", "0xB0"), " ")
		if got != "playerctl next" {
			t.Errorf("argv = %q, want %q", got, "playerctl next")
		}
	})

	t.Run("posix named player", func(t *testing.T) {
		got := strings.Join(controller(platform.POSIX).controlArgs("vlc", "previous", "0xB1"), " ")
		if got != "playerctl -p vlc previous" {
			t.Errorf("argv = %q", got)
		}
	})

	t.Run("darwin verb translation", func(t *testing.T) {
		argv := controller(platform.Darwin).controlArgs("music", "next", "0xB0")
		script := argv[len(argv)-1]
		if script != `tell application "Music" to next track` {
			t.Errorf("script = %q", script)
		}
	})

	t.Run("windows forwards key code", func(t *testing.T) {
		got := strings.Join(controller(platform.Windows).controlArgs("", "pause", "0xB3"), " ")
		if got != "nircmd sendkeypress 0xB3" {
			t.Errorf("argv = %q", got)
		}
	})
}

func TestDarwinApp(t *testing.T) {
	c := controller(platform.Darwin)
	tests := map[string]string{
		"music":   "Music",
		"iTunes":  "Music",
		"SPOTIFY": "Spotify",
		"tv":      "TV",
		"":        "Music",
		"winamp":  "Music",
	}
	for player, want := range tests {
		if got := c.darwinApp(player); got != want {
			t.Errorf("darwinApp(%q) = %q, want %q", player, got, want)
		}
	}
}

func TestDarwinVerbs_CoverTransportCommands(t *testing.T) {
	for _, verb := range []string{"pause", "next", "previous"} {
		if darwinVerbs[verb] == "" {
			t.Errorf("verb %q has no AppleScript equivalent", verb)
		}
	}
}
