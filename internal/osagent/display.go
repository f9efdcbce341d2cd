package osagent

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/stewardbot/steward/internal/platform"
)

// controlTimeout bounds brightness/volume tool invocations. These are
// quick local commands; anything slower is stuck.
const controlTimeout = 5 * time.Second

// SetBrightness sets display brightness. The level is already
// validated to [0,100].
func (a *Agent) SetBrightness(ctx context.Context, level int) (string, error) {
	var argv []string
	switch a.host.Family {
	case platform.Darwin:
		// Requires the common `brightness` homebrew tool.
		argv = []string{"brightness", fmt.Sprintf("%.2f", float64(level)/100)}
	case platform.Windows:
		argv = []string{"powershell", "-NoProfile", "-Command",
			fmt.Sprintf("(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)", level)}
	default:
		argv = []string{"brightnessctl", "set", strconv.Itoa(level) + "%"}
	}

	if err := a.runControl(ctx, argv); err != nil {
		return "", fmt.Errorf("I couldn't change the brightness")
	}
	return fmt.Sprintf("Brightness set to %d%%.", level), nil
}

// SetVolume sets the system output volume. The level is already
// validated to [0.0,1.0].
func (a *Agent) SetVolume(ctx context.Context, level float64) (string, error) {
	var argv []string
	switch a.host.Family {
	case platform.Darwin:
		argv = []string{"osascript", "-e",
			fmt.Sprintf("set volume output volume %d", int(level*100))}
	case platform.Windows:
		// No stock CLI volume control; rely on nircmd when present.
		argv = []string{"nircmd", "setsysvolume", strconv.Itoa(int(level * 65535))}
	default:
		argv = []string{"amixer", "-q", "set", "Master", fmt.Sprintf("%d%%", int(level*100))}
	}

	if err := a.runControl(ctx, argv); err != nil {
		return "", fmt.Errorf("I couldn't change the volume")
	}
	return fmt.Sprintf("Volume set to %d%%.", int(level*100)), nil
}

// runControl runs a short control command, logging failures with full
// detail while keeping user-facing messages generic.
func (a *Agent) runControl(ctx context.Context, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		a.logger.Warn("control command failed", "argv", argv, "output", string(out), "error", err)
		return err
	}
	return nil
}
