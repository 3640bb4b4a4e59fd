package led

import "sync"

// MemoryRegister implements Register in memory. It backs tests and dry runs
// on machines without the chassis.
type MemoryRegister struct {
	mu     sync.Mutex
	value  uint16
	writes int
	closed bool
}

// NewMemoryRegister creates a register holding value.
func NewMemoryRegister(value uint16) *MemoryRegister {
	return &MemoryRegister{value: value}
}

// Read16 returns the stored value.
func (m *MemoryRegister) Read16() (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

// Write16 stores value and counts the write.
func (m *MemoryRegister) Write16(value uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.writes++
	return nil
}

// Close marks the register closed.
func (m *MemoryRegister) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Set changes the stored value without counting a write, standing in for
// another writer touching the hardware.
func (m *MemoryRegister) Set(value uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
}

// Writes returns how many times Write16 was called.
func (m *MemoryRegister) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Closed reports whether Close was called.
func (m *MemoryRegister) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
