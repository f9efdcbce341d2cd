package osagent

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func enabledExec(t *testing.T) *ShellExec {
	t.Helper()
	cfg := DefaultShellExecConfig()
	cfg.Enabled = true
	return NewShellExec(cfg)
}

func TestShellExec_DisabledByDefault(t *testing.T) {
	s := NewShellExec(DefaultShellExecConfig())
	if s.Enabled() {
		t.Error("shell execution must be disabled by default")
	}
	if _, err := s.Exec(context.Background(), "echo hi", "", 0); err == nil {
		t.Error("disabled executor must refuse commands")
	}
}

func TestShellExec_DeniedPatterns(t *testing.T) {
	s := enabledExec(t)
	for _, cmd := range []string{"rm -rf /", "sudo rm -rf /*", "mkfs.ext4 /dev/sda1"} {
		if _, err := s.Exec(context.Background(), cmd, "", 0); err == nil {
			t.Errorf("command %q should be blocked", cmd)
		}
	}
}

func TestShellExec_AllowedPrefixes(t *testing.T) {
	cfg := DefaultShellExecConfig()
	cfg.Enabled = true
	cfg.AllowedCmds = []string{"echo"}
	s := NewShellExec(cfg)

	if _, err := s.Exec(context.Background(), "ls /tmp", "", 0); err == nil {
		t.Error("command outside the allow list should be refused")
	}
	if _, err := s.Exec(context.Background(), "echo ok", "", 0); err != nil {
		t.Errorf("allowed command failed: %v", err)
	}
}

func TestShellExec_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh not available")
	}
	s := enabledExec(t)

	res, err := s.Exec(context.Background(), "echo hello", "sh", 0)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("stdout = %q, want hello", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestShellExec_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh not available")
	}
	s := enabledExec(t)

	res, err := s.Exec(context.Background(), "exit 3", "sh", 0)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestShellExec_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh not available")
	}
	cfg := DefaultShellExecConfig()
	cfg.Enabled = true
	cfg.DefaultTimeout = 100 * time.Millisecond
	s := NewShellExec(cfg)

	res, err := s.Exec(context.Background(), "sleep 5", "sh", 0)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
}

func TestShellArgs(t *testing.T) {
	cases := []struct {
		shell string
		want  string
	}{
		{"bash", "bash"},
		{"zsh", "zsh"},
		{"cmd", "cmd"},
		{"powershell", "powershell"},
		{"", "sh"},
		{"fish", "sh"}, // unknown shells fall back
	}
	for _, tc := range cases {
		if got := shellArgs(tc.shell); got[0] != tc.want {
			t.Errorf("shellArgs(%q)[0] = %q, want %q", tc.shell, got[0], tc.want)
		}
	}
}

func TestTruncateOutput(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncateOutput(long, 10)
	if !strings.HasPrefix(got, "xxxxxxxxxx") || !strings.Contains(got, "truncated") {
		t.Errorf("truncateOutput = %q", got)
	}
	if truncateOutput("short", 10) != "short" {
		t.Error("short output must pass through unchanged")
	}
}
