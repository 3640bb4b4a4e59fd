package bay

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/smazurov/bayled/internal/led"
)

// Directory builds the bay table from the current disk list.
type Directory struct {
	source   DeviceSource
	hostBase int
	logger   *slog.Logger
}

// NewDirectory creates a directory over source.
func NewDirectory(source DeviceSource, hostBase int, logger *slog.Logger) *Directory {
	return &Directory{source: source, hostBase: hostBase, logger: logger}
}

// Initialize discovers the occupied bays and records each disk's current
// counters as its baseline. The result is sorted by bay number. On error
// no bays are returned.
func (d *Directory) Initialize() (int, []*Bay, error) {
	count, err := d.source.Count()
	if err != nil {
		return 0, nil, newError(ErrCodeStats, "failed to count disks", err)
	}

	list, err := d.source.Devices()
	if err != nil {
		return 0, nil, newError(ErrCodeStats, "failed to list disks", err)
	}

	if len(list) != count {
		return 0, nil, newError(ErrCodeDeviceCount,
			fmt.Sprintf("disk count changed during initialization (%d then %d)", count, len(list)), nil)
	}
	if len(list) > led.BayCount {
		return 0, nil, newError(ErrCodeTooManyDevices,
			fmt.Sprintf("%d disks match, chassis has %d bays", len(list), led.BayCount), nil)
	}

	bays := make([]*Bay, 0, len(list))
	taken := make(map[led.Bay]string, len(list))

	for _, dev := range list {
		id := IdentityOf(dev.Address, d.hostBase)
		number, ok := id.Bay()
		if !ok {
			return 0, nil, newError(ErrCodeTopology,
				fmt.Sprintf("%s at %s (bus %d, target %d) is not a chassis bay",
					dev.Path, dev.Address, id.BusPath, id.Target), nil)
		}
		if other, dup := taken[number]; dup {
			return 0, nil, newError(ErrCodeTopology,
				fmt.Sprintf("%s and %s both map to %s", other, dev.Path, number), nil)
		}
		taken[number] = dev.Path

		counters, err := d.source.Counters(dev.Index)
		if err != nil {
			return 0, nil, newError(ErrCodeStats, "failed to read baseline for "+dev.Path, err)
		}

		bays = append(bays, &Bay{
			Number:        number,
			Identity:      id,
			DeviceIndex:   dev.Index,
			DevicePath:    dev.Path,
			BaselineRead:  counters.ReadBytes,
			BaselineWrite: counters.WriteBytes,
			LastColor:     led.ColorNone,
		})

		d.logger.Info("Now monitoring disk for activity", "device", dev.Path, "bay", int(number))
		d.logger.Debug("Disk baseline",
			"device", dev.Path,
			"address", dev.Address.String(),
			"read", humanize.Bytes(counters.ReadBytes),
			"written", humanize.Bytes(counters.WriteBytes))
	}

	slices.SortFunc(bays, func(a, b *Bay) int { return int(a.Number) - int(b.Number) })
	return len(bays), bays, nil
}
