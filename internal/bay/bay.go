// Package bay maps chassis bays to disks and turns their I/O counters into
// LED colors.
package bay

import (
	"github.com/smazurov/bayled/internal/devices"
	"github.com/smazurov/bayled/internal/led"
)

// Identity is a disk's position on the storage bus.
type Identity struct {
	BusPath int
	Target  int
}

// identities lists the only bus positions the chassis wires to bays.
var identities = map[Identity]led.Bay{
	{BusPath: 0, Target: 0}: led.Bay1,
	{BusPath: 0, Target: 1}: led.Bay2,
	{BusPath: 1, Target: 0}: led.Bay3,
	{BusPath: 1, Target: 1}: led.Bay4,
}

// IdentityOf derives a bus identity from a SCSI address. hostBase is the
// SCSI host number of the first chassis channel.
func IdentityOf(addr devices.Address, hostBase int) Identity {
	return Identity{BusPath: addr.Host - hostBase, Target: addr.Target}
}

// Bay returns the chassis bay wired to id.
func (id Identity) Bay() (led.Bay, bool) {
	b, ok := identities[id]
	return b, ok
}

// Bay is the live record for one occupied bay. DeviceIndex is only valid
// for the device list the record was built from.
type Bay struct {
	Number      led.Bay
	Identity    Identity
	DeviceIndex int
	DevicePath  string

	BaselineRead  uint64
	BaselineWrite uint64

	LastColor led.Color
}

// DeviceSource is the statistics layer the directory is built from.
type DeviceSource interface {
	Count() (int, error)
	Devices() ([]devices.Device, error)
	CounterSource
}

// CounterSource reads cumulative byte counters by device index.
type CounterSource interface {
	Counters(index int) (devices.Counters, error)
}
