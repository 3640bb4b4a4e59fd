package bay

import (
	"errors"
	"io"
	"log/slog"

	"github.com/smazurov/bayled/internal/devices"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is an in-memory statistics layer.
type fakeSource struct {
	devices  []devices.Device
	counters map[int]devices.Counters
	count    int // -1 reports len(devices)
	err      error
}

func newFakeSource(addrs ...devices.Address) *fakeSource {
	f := &fakeSource{counters: make(map[int]devices.Counters), count: -1}
	for i, addr := range addrs {
		name := "sd" + string(rune('a'+i))
		f.devices = append(f.devices, devices.Device{
			Index:   i,
			Name:    name,
			Path:    "/dev/" + name,
			Address: addr,
		})
		f.counters[i] = devices.Counters{}
	}
	return f
}

func (f *fakeSource) Count() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.count >= 0 {
		return f.count, nil
	}
	return len(f.devices), nil
}

func (f *fakeSource) Devices() ([]devices.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]devices.Device(nil), f.devices...), nil
}

func (f *fakeSource) Counters(index int) (devices.Counters, error) {
	if f.err != nil {
		return devices.Counters{}, f.err
	}
	c, ok := f.counters[index]
	if !ok {
		return devices.Counters{}, errors.New("no such device")
	}
	return c, nil
}

func (f *fakeSource) add(index int, read, write uint64) {
	c := f.counters[index]
	c.ReadBytes += read
	c.WriteBytes += write
	f.counters[index] = c
}

// chassis returns the four valid bus addresses in bay order.
func chassis() []devices.Address {
	return []devices.Address{
		{Host: 0, Target: 0},
		{Host: 0, Target: 1},
		{Host: 1, Target: 0},
		{Host: 1, Target: 1},
	}
}
