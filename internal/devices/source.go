package devices

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/prometheus/procfs/blockdevice"
)

// ErrDeviceGone is returned when a disk of the current device list no longer
// exists.
var ErrDeviceGone = errors.New("device no longer present")

// Source is the block device statistics and enumeration layer. Each call to
// Devices starts a new device list; indices from older lists are invalid.
type Source struct {
	cfg    Config
	fs     blockdevice.FS
	logger *slog.Logger

	generation  atomic.Uint64
	watching    atomic.Bool
	seen        uint64
	devices     []Device
	unsubscribe func()
}

// NewSource opens the block device filesystems named in cfg.
func NewSource(cfg Config, logger *slog.Logger) (*Source, error) {
	bfs, err := blockdevice.NewFS(cfg.ProcRoot, cfg.SysRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open block device stats: %w", err)
	}
	return &Source{cfg: cfg, fs: bfs, logger: logger}, nil
}

// Count returns how many disks currently match the class filter.
func (s *Source) Count() (int, error) {
	names, err := s.matched()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Devices lists the matching disks sorted by kernel name and makes that
// list the current one.
func (s *Source) Devices() ([]Device, error) {
	gen := s.generation.Load()

	names, err := s.matched()
	if err != nil {
		return nil, err
	}

	list := make([]Device, 0, len(names))
	for i, name := range names {
		addr, addrErr := s.address(name)
		if addrErr != nil {
			return nil, addrErr
		}
		list = append(list, Device{
			Index:   i,
			Name:    name,
			Path:    "/dev/" + name,
			Address: addr,
		})
	}

	s.devices = list
	s.seen = gen
	return slices.Clone(list), nil
}

// Counters returns cumulative read and write bytes for the device at index
// in the current list.
func (s *Source) Counters(index int) (Counters, error) {
	if index < 0 || index >= len(s.devices) {
		return Counters{}, fmt.Errorf("device index %d out of range (%d devices)", index, len(s.devices))
	}
	name := s.devices[index].Name

	stats, _, err := s.fs.SysBlockDeviceStat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Counters{}, fmt.Errorf("%s: %w", name, ErrDeviceGone)
		}
		return Counters{}, fmt.Errorf("failed to read stats for %s: %w", name, err)
	}

	return Counters{
		ReadBytes:  stats.ReadSectors * SectorSize,
		WriteBytes: stats.WriteSectors * SectorSize,
	}, nil
}

// Changed reports whether the set of disks changed since the last call to
// Devices. With hotplug watching active this only checks the event
// generation; otherwise it rescans sysfs.
func (s *Source) Changed() (bool, error) {
	if s.watching.Load() {
		return s.generation.Load() != s.seen, nil
	}

	names, err := s.matched()
	if err != nil {
		return false, err
	}
	if len(names) != len(s.devices) {
		return true, nil
	}
	for i, d := range s.devices {
		if names[i] != d.Name {
			return true, nil
		}
	}
	return false, nil
}

// matched returns the sorted kernel names passing the class filter.
func (s *Source) matched() ([]string, error) {
	all, err := s.fs.SysBlockDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list block devices: %w", err)
	}

	var names []string
	for _, name := range all {
		if !s.hasPrefix(name) {
			continue
		}
		if s.cfg.Transport != "" {
			target, linkErr := s.deviceLink(name)
			if linkErr != nil {
				s.logger.Debug("Skipping disk without device link", "device", name, "error", linkErr)
				continue
			}
			if !hasElementPrefix(target, s.cfg.Transport) {
				continue
			}
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}

// relevant reports whether a hotplug event for the disk name can change the
// matched set. A removed disk has no device link left, so only its name is
// checked.
func (s *Source) relevant(added bool, name string) bool {
	name = filepath.Base(name)
	if name == "" || name == "." || !s.hasPrefix(name) {
		return false
	}
	if !added || s.cfg.Transport == "" {
		return true
	}
	target, err := s.deviceLink(name)
	if err != nil {
		return false
	}
	return hasElementPrefix(target, s.cfg.Transport)
}

func (s *Source) hasPrefix(name string) bool {
	if len(s.cfg.Prefixes) == 0 {
		return true
	}
	for _, p := range s.cfg.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// deviceLink resolves /sys/block/<name>/device to the SCSI device directory.
func (s *Source) deviceLink(name string) (string, error) {
	return filepath.EvalSymlinks(filepath.Join(s.cfg.SysRoot, "block", name, "device"))
}

func (s *Source) address(name string) (Address, error) {
	target, err := s.deviceLink(name)
	if err != nil {
		return Address{}, fmt.Errorf("failed to resolve device link for %s: %w", name, err)
	}
	addr, err := ParseAddress(filepath.Base(target))
	if err != nil {
		return Address{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

// ParseAddress parses a "host:channel:target:lun" string.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Address{}, fmt.Errorf("invalid SCSI address %q", s)
	}
	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Address{}, fmt.Errorf("invalid SCSI address %q", s)
		}
		nums[i] = n
	}
	return Address{Host: nums[0], Channel: nums[1], Target: nums[2], LUN: nums[3]}, nil
}

// hasElementPrefix reports whether any element of path starts with prefix.
func hasElementPrefix(path, prefix string) bool {
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(elem, prefix) {
			return true
		}
	}
	return false
}

// Close stops delivering topology events to the source. The hotplug
// monitor itself stops with the context passed to Watch.
func (s *Source) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.watching.Store(false)
	return nil
}
