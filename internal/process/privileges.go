package process

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// taskDir lists one status file per thread of this process.
const taskDir = "/proc/self/task"

// Credentials are the numeric ids of a user.
type Credentials struct {
	Name string
	UID  int
	GID  int
}

// LookupCredentials resolves username to numeric ids.
func LookupCredentials(username string) (Credentials, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to look up user %q: %w", username, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Credentials{}, fmt.Errorf("user %q has non-numeric uid %q", username, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Credentials{}, fmt.Errorf("user %q has non-numeric gid %q", username, u.Gid)
	}
	return Credentials{Name: username, UID: uid, GID: gid}, nil
}

// DropPrivileges permanently switches the process to username. Supplementary
// groups are cleared first, then the group, then the user. It fails if root
// can be regained afterwards.
func DropPrivileges(username string) error {
	creds, err := LookupCredentials(username)
	if err != nil {
		return err
	}
	if creds.UID == 0 {
		return errors.New("refusing to run as root: privileges.user resolves to uid 0")
	}

	// unix.Setgroups only changes the calling thread; syscall.Setgroups
	// applies to every thread of the process.
	if err := syscall.Setgroups([]int{creds.GID}); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setgid(creds.GID); err != nil {
		return fmt.Errorf("setgid %d: %w", creds.GID, err)
	}
	if err := unix.Setuid(creds.UID); err != nil {
		return fmt.Errorf("setuid %d: %w", creds.UID, err)
	}

	if unix.Setuid(0) == nil {
		return errors.New("privileges were not dropped: setuid(0) still succeeds")
	}
	if unix.Getuid() != creds.UID || unix.Geteuid() != creds.UID {
		return fmt.Errorf("uid is %d/%d after dropping to %d", unix.Getuid(), unix.Geteuid(), creds.UID)
	}
	return verifyThreads(taskDir, creds)
}

// verifyThreads checks that every thread listed under dir runs with only
// the ids in creds.
func verifyThreads(dir string, creds Credentials) error {
	tasks, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list threads: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no threads found in %s", dir)
	}

	for _, task := range tasks {
		ids, err := readThreadIDs(filepath.Join(dir, task.Name(), "status"))
		if errors.Is(err, fs.ErrNotExist) {
			// thread exited after the listing
			continue
		}
		if err != nil {
			return err
		}
		for _, uid := range ids.uids {
			if uid != creds.UID {
				return fmt.Errorf("thread %s still has uid %d", task.Name(), uid)
			}
		}
		for _, gid := range ids.gids {
			if gid != creds.GID {
				return fmt.Errorf("thread %s still has gid %d", task.Name(), gid)
			}
		}
		for _, g := range ids.groups {
			if g != creds.GID {
				return fmt.Errorf("thread %s still has supplementary group %d", task.Name(), g)
			}
		}
	}
	return nil
}

type threadIDs struct {
	uids   []int
	gids   []int
	groups []int
}

// readThreadIDs parses the Uid, Gid and Groups lines of a status file.
func readThreadIDs(path string) (threadIDs, error) {
	f, err := os.Open(path)
	if err != nil {
		return threadIDs{}, fmt.Errorf("failed to read thread status: %w", err)
	}
	defer f.Close()

	var ids threadIDs
	seen := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		var dst *[]int
		switch key {
		case "Uid":
			dst = &ids.uids
		case "Gid":
			dst = &ids.gids
		case "Groups":
			dst = &ids.groups
		default:
			continue
		}
		for _, field := range strings.Fields(value) {
			n, err := strconv.Atoi(field)
			if err != nil {
				return threadIDs{}, fmt.Errorf("%s: bad %s value %q", path, key, field)
			}
			*dst = append(*dst, n)
		}
		seen++
	}
	if err := scanner.Err(); err != nil {
		return threadIDs{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if seen < 3 {
		return threadIDs{}, fmt.Errorf("%s: missing Uid, Gid or Groups", path)
	}
	return ids, nil
}

// IsRoot reports whether the effective uid is 0.
func IsRoot() bool {
	return unix.Geteuid() == 0
}
