// Package process handles the daemon's own process lifecycle.
//
// Detach implements --daemon by starting a copy of the running binary in a
// new session with stdio on /dev/null, so the caller can exit and leave the
// copy running without a controlling terminal.
//
// DropPrivileges switches to an unprivileged user once every root-only
// resource is open:
//
//	port, _ := led.OpenPort("/dev/port", 0x1064)
//	if err := process.DropPrivileges("nobody"); err != nil {
//		return err
//	}
//
// Open file descriptors stay usable after the switch.
package process
