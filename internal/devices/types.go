package devices

import (
	"fmt"
	"time"
)

// SectorSize is the unit of the kernel's block I/O sector counters.
const SectorSize = 512

// Address is a SCSI address (host:channel:target:lun).
type Address struct {
	Host    int
	Channel int
	Target  int
	LUN     int
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", a.Host, a.Channel, a.Target, a.LUN)
}

// Device is a disk matched by the class filter. Index is only meaningful
// within the device list it came from.
type Device struct {
	Index   int
	Name    string // sda
	Path    string // /dev/sda
	Address Address
}

// Counters are cumulative bytes transferred since the disk appeared.
type Counters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// Config selects which disks count as chassis bays and where the kernel
// filesystems are mounted.
type Config struct {
	ProcRoot string
	SysRoot  string

	// Prefixes lists accepted kernel names, e.g. "sd".
	Prefixes []string
	// Transport must appear as a path element of the resolved device link,
	// e.g. "ata" matches .../ata1/host0/.... Empty accepts any transport.
	Transport string

	// Settle delays publishing an add event so sysfs can finish populating.
	Settle time.Duration
}

// DefaultConfig returns the filter for the chassis' ATA-attached disks.
func DefaultConfig() Config {
	return Config{
		ProcRoot:  "/proc",
		SysRoot:   "/sys",
		Prefixes:  []string{"sd"},
		Transport: "ata",
		Settle:    time.Second,
	}
}
