package led

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	// DefaultPortDevice exposes x86 I/O port space as a file.
	DefaultPortDevice = "/dev/port"
	// DefaultAddress is the I/O port of the chassis LED control word.
	DefaultAddress = 0x1064
)

// Register is a 16-bit hardware control word.
type Register interface {
	Read16() (uint16, error)
	Write16(value uint16) error
	Close() error
}

// PortRegister implements Register over the /dev/port character device.
// The device is opened once; the descriptor stays usable after the process
// gives up root.
type PortRegister struct {
	file    *os.File
	address int64
}

// OpenPort opens device for read/write access to the word at address.
func OpenPort(device string, address int64) (*PortRegister, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}
	return &PortRegister{file: f, address: address}, nil
}

// Read16 reads the control word.
func (p *PortRegister) Read16() (uint16, error) {
	var buf [2]byte
	if _, err := p.file.ReadAt(buf[:], p.address); err != nil {
		return 0, fmt.Errorf("failed to read port 0x%x: %w", p.address, err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// Write16 writes the control word.
func (p *PortRegister) Write16(value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	if _, err := p.file.WriteAt(buf[:], p.address); err != nil {
		return fmt.Errorf("failed to write port 0x%x: %w", p.address, err)
	}
	return nil
}

// Close releases the port device.
func (p *PortRegister) Close() error {
	return p.file.Close()
}
