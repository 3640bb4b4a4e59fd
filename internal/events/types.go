package events

// Event type constants for kelindar/event.
const (
	TypeTopologyChanged uint32 = iota + 1
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TopologyChangedEvent reports a disk appearing or disappearing.
type TopologyChangedEvent struct {
	Action    string `json:"action"`   // add or remove
	DevName   string `json:"dev_name"` // sda
	KObj      string `json:"kobj"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for TopologyChangedEvent.
func (e TopologyChangedEvent) Type() uint32 { return TypeTopologyChanged }
