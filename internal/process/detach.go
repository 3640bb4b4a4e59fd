package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// detachedEnv marks the re-executed child so it does not detach again.
const detachedEnv = "BAYLED_DETACHED"

// IsDetached reports whether this process is the background copy started
// by Detach.
func IsDetached() bool {
	return os.Getenv(detachedEnv) == "1"
}

// Detach starts the current executable again with the same arguments, in a
// new session and with stdio on /dev/null, and returns its pid. The caller
// should exit afterwards.
func Detach() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := detachCommand(exe, os.Args[1:], os.Environ())
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start background process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}

func detachCommand(exe string, args, env []string) *exec.Cmd {
	cmd := exec.Command(exe, args...)
	cmd.Env = append(env, detachedEnv+"=1")
	cmd.Dir = "/"
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}
