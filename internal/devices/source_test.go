package devices

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture lays out a fake /proc and /sys tree.
type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"proc", "sys/block", "sys/devices"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return &fixture{t: t, root: root}
}

func (f *fixture) config() Config {
	cfg := DefaultConfig()
	cfg.ProcRoot = filepath.Join(f.root, "proc")
	cfg.SysRoot = filepath.Join(f.root, "sys")
	cfg.Settle = 0
	return cfg
}

// addDisk creates /sys/block/<name> with a device link below transport.
func (f *fixture) addDisk(name, transport string, addr Address) {
	f.t.Helper()
	scsi := filepath.Join(f.root, "sys/devices/pci0000:00/0000:00:1f.2",
		fmt.Sprintf("%s%d", transport, addr.Host+1),
		fmt.Sprintf("host%d", addr.Host),
		fmt.Sprintf("target%d:%d:%d", addr.Host, addr.Channel, addr.Target),
		addr.String())
	if err := os.MkdirAll(scsi, 0o755); err != nil {
		f.t.Fatalf("mkdir scsi dir: %v", err)
	}
	block := filepath.Join(f.root, "sys/block", name)
	if err := os.MkdirAll(block, 0o755); err != nil {
		f.t.Fatalf("mkdir block dir: %v", err)
	}
	if err := os.Symlink(scsi, filepath.Join(block, "device")); err != nil {
		f.t.Fatalf("symlink device: %v", err)
	}
	f.setStat(name, 0, 0)
}

// addVirtual creates a disk without a device link, like loop or ram disks.
func (f *fixture) addVirtual(name string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Join(f.root, "sys/block", name), 0o755); err != nil {
		f.t.Fatalf("mkdir: %v", err)
	}
	f.setStat(name, 0, 0)
}

func (f *fixture) setStat(name string, readSectors, writeSectors uint64) {
	f.t.Helper()
	fields := []string{
		"10", "0", fmt.Sprint(readSectors), "5",
		"20", "0", fmt.Sprint(writeSectors), "7",
		"0", "12", "12",
		"0", "0", "0", "0",
		"0", "0",
	}
	path := filepath.Join(f.root, "sys/block", name, "stat")
	if err := os.WriteFile(path, []byte(strings.Join(fields, " ")+"\n"), 0o644); err != nil {
		f.t.Fatalf("write stat: %v", err)
	}
}

func (f *fixture) remove(name string) {
	f.t.Helper()
	if err := os.RemoveAll(filepath.Join(f.root, "sys/block", name)); err != nil {
		f.t.Fatalf("remove: %v", err)
	}
}

func (f *fixture) source() *Source {
	f.t.Helper()
	src, err := NewSource(f.config(), testLogger())
	if err != nil {
		f.t.Fatalf("NewSource() error: %v", err)
	}
	return src
}

func TestDevicesMatchesATADisks(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sdb", "ata", Address{Host: 0, Target: 1})
	f.addDisk("sda", "ata", Address{Host: 0, Target: 0})
	f.addDisk("sdc", "usb", Address{Host: 6, Target: 0})
	f.addVirtual("loop0")
	f.addVirtual("sdz")

	src := f.source()

	n, err := src.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	devs, err := src.Devices()
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("Devices() returned %d devices, want 2", len(devs))
	}

	want := []Device{
		{Index: 0, Name: "sda", Path: "/dev/sda", Address: Address{Host: 0, Target: 0}},
		{Index: 1, Name: "sdb", Path: "/dev/sdb", Address: Address{Host: 0, Target: 1}},
	}
	for i := range want {
		if devs[i] != want[i] {
			t.Errorf("Devices()[%d] = %+v, want %+v", i, devs[i], want[i])
		}
	}
}

func TestDevicesAnyTransport(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{Host: 0})
	f.addDisk("sdb", "usb", Address{Host: 6})

	cfg := f.config()
	cfg.Transport = ""
	src, err := NewSource(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}

	devs, err := src.Devices()
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	if len(devs) != 2 {
		t.Errorf("Devices() returned %d devices, want 2", len(devs))
	}
}

func TestCounters(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{})
	f.setStat("sda", 8, 16)

	src := f.source()
	if _, err := src.Devices(); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	c, err := src.Counters(0)
	if err != nil {
		t.Fatalf("Counters() error: %v", err)
	}
	if c.ReadBytes != 8*SectorSize || c.WriteBytes != 16*SectorSize {
		t.Errorf("Counters() = %+v, want read=%d write=%d", c, 8*SectorSize, 16*SectorSize)
	}

	if _, err := src.Counters(1); err == nil {
		t.Error("Counters(1) should fail with one device")
	}
}

func TestCountersDeviceGone(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{})

	src := f.source()
	if _, err := src.Devices(); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	f.remove("sda")

	_, err := src.Counters(0)
	if !errors.Is(err, ErrDeviceGone) {
		t.Errorf("Counters() error = %v, want ErrDeviceGone", err)
	}
}

func TestChangedByRescan(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{Host: 0, Target: 0})
	f.addDisk("sdb", "ata", Address{Host: 0, Target: 1})

	src := f.source()
	if _, err := src.Devices(); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	changed, err := src.Changed()
	if err != nil {
		t.Fatalf("Changed() error: %v", err)
	}
	if changed {
		t.Error("Changed() = true right after Devices()")
	}

	f.remove("sdb")
	if changed, _ = src.Changed(); !changed {
		t.Error("Changed() = false after removing a disk")
	}

	if _, err := src.Devices(); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	if changed, _ = src.Changed(); changed {
		t.Error("Changed() = true after rebuilding the device list")
	}
}

func TestChangedByGeneration(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{})

	src := f.source()
	src.watching.Store(true)
	if _, err := src.Devices(); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	if changed, _ := src.Changed(); changed {
		t.Error("Changed() = true without events")
	}

	src.generation.Add(1)
	if changed, _ := src.Changed(); !changed {
		t.Error("Changed() = false after an event")
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{in: "0:0:0:0", want: Address{}},
		{in: "1:0:1:0", want: Address{Host: 1, Target: 1}},
		{in: "12:3:4:5", want: Address{Host: 12, Channel: 3, Target: 4, LUN: 5}},
		{in: "0:0:0", wantErr: true},
		{in: "a:0:0:0", wantErr: true},
		{in: "0:-1:0:0", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewSourceMissingRoots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProcRoot = filepath.Join(t.TempDir(), "nope")
	cfg.SysRoot = cfg.ProcRoot
	if _, err := NewSource(cfg, testLogger()); err == nil {
		t.Error("NewSource() should fail for missing mount points")
	}
}

func TestRelevantHotplugEvents(t *testing.T) {
	f := newFixture(t)
	f.addDisk("sda", "ata", Address{Host: 0})
	f.addDisk("sdb", "usb", Address{Host: 4})
	f.addVirtual("loop0")
	src := f.source()

	tests := []struct {
		name  string
		added bool
		dev   string
		want  bool
	}{
		{name: "ata disk added", added: true, dev: "sda", want: true},
		{name: "devname with dev prefix", added: true, dev: "/dev/sda", want: true},
		{name: "usb disk added", added: true, dev: "sdb", want: false},
		{name: "loop device added", added: true, dev: "loop0", want: false},
		{name: "disk without device link added", added: true, dev: "sdz", want: false},
		{name: "disk removed", added: false, dev: "sdc", want: true},
		{name: "zram removed", added: false, dev: "zram0", want: false},
		{name: "no name", added: true, dev: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.relevant(tt.added, tt.dev); got != tt.want {
				t.Errorf("relevant(%v, %q) = %v, want %v", tt.added, tt.dev, got, tt.want)
			}
		})
	}
}
