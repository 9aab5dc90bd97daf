package alarm

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// DesktopNotifier posts an OS-level notification when an alarm fires.
type DesktopNotifier interface {
	Available() bool
	Send(title, body string) error
}

type NoopNotifier struct{}

func (NoopNotifier) Available() bool              { return true }
func (NoopNotifier) Send(title, body string) error { return nil }

// ExecNotifier shells out to the platform notification command.
type ExecNotifier struct{}

func (ExecNotifier) Available() bool {
	switch runtime.GOOS {
	case "linux":
		_, err := exec.LookPath("notify-send")
		return err == nil
	case "darwin":
		_, err := exec.LookPath("osascript")
		return err == nil
	default:
		return false
	}
}

func (ExecNotifier) Send(title, body string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", title, body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Player plays the alarm sound until stopped.
type Player interface {
	Play(path string) error
	Stop()
}

type NoopPlayer struct{}

func (NoopPlayer) Play(path string) error { return nil }
func (NoopPlayer) Stop()                  {}

// ExecPlayer shells out to the platform audio player and kills the
// process on Stop.
type ExecPlayer struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

func (p *ExecPlayer) Play(path string) error {
	if path == "" {
		return nil
	}
	p.Stop()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("afplay", path)
	default:
		if _, err := exec.LookPath("paplay"); err == nil {
			cmd = exec.Command("paplay", path)
		} else {
			cmd = exec.Command("aplay", path)
		}
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	go func() { _ = cmd.Wait() }()
	return nil
}

func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}
