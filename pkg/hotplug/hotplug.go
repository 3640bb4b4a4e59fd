//go:build linux

// Package hotplug watches kernel device events over netlink.
//
// The monitor reads NETLINK_KOBJECT_UEVENT broadcasts directly, without cgo
// or libudev, and hands matching events to a callback.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
)

// Device actions reported by the kernel.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// SubsystemBlock is the kernel subsystem of disks and partitions.
const SubsystemBlock = "block"

// Block device types.
const (
	DevTypeDisk      = "disk"
	DevTypePartition = "partition"
)

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// Event is one kernel device event.
type Event struct {
	Action    string
	KObj      string // /devices/pci0000:00/...
	Subsystem string
	DevType   string
	DevName   string // sda
	Env       map[string]string
}

// Topology reports whether the event adds or removes a device.
func (e Event) Topology() bool {
	return e.Action == ActionAdd || e.Action == ActionRemove
}

// Filter selects events by subsystem and, optionally, device type.
type Filter struct {
	Subsystem string
	DevType   string
}

func (f Filter) matches(e *Event) bool {
	if f.Subsystem != e.Subsystem {
		return false
	}
	return f.DevType == "" || f.DevType == e.DevType
}

// Monitor listens for kernel device events.
type Monitor struct {
	fd        int
	filters   []Filter
	filtersMu sync.RWMutex
}

// NewMonitor opens a netlink socket bound to the kernel broadcast group.
func NewMonitor() (*Monitor, error) {
	fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_DGRAM|syscall.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	addr := &syscall.SockaddrNetlink{
		Family: syscall.AF_NETLINK,
		Groups: 1,
	}
	if err := syscall.Bind(fd, addr); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	return &Monitor{fd: fd}, nil
}

// AddFilter restricts delivered events. With no filters every event passes.
func (m *Monitor) AddFilter(f Filter) {
	m.filtersMu.Lock()
	m.filters = append(m.filters, f)
	m.filtersMu.Unlock()
}

func (m *Monitor) accept(e *Event) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	for _, f := range m.filters {
		if f.matches(e) {
			return true
		}
	}
	return false
}

// Close releases the socket.
func (m *Monitor) Close() error {
	return syscall.Close(m.fd)
}

// Run reads events until ctx is cancelled or the socket fails, calling
// handle for each accepted event on the calling goroutine.
func (m *Monitor) Run(ctx context.Context, handle func(Event)) error {
	buf := make([]byte, 8192)

	// A receive timeout lets the loop notice cancellation.
	tv := syscall.Timeval{Sec: 1}
	if err := syscall.SetsockoptTimeval(m.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, _, err := syscall.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR) {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.accept(event) {
			continue
		}
		handle(*event)
	}
}

// ParseUEvent parses a kernel uevent message of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". Messages rebroadcast by udevd carry a
// "libudev" binary header, which is skipped.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] != 0 {
				continue
			}
			rest := data[i+1:]
			chunk := rest
			if end := bytes.IndexByte(rest, 0); end >= 0 {
				chunk = rest[:end]
			}
			if idx := bytes.IndexByte(chunk, '@'); idx > 0 && idx < 20 {
				data = rest
				break
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	atIdx := strings.Index(header, "@")
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		}
	}

	return event
}
