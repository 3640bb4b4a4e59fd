package monitor

import (
	"github.com/smazurov/bayled/internal/bay"
)

// State is everything the loop knows about the chassis for one device
// epoch. A topology change throws it away and builds a new one.
type State struct {
	Epoch uint64
	Count int
	Bays  []*bay.Bay
}

// Numbers lists the occupied bay numbers in order.
func (s State) Numbers() []int {
	out := make([]int, 0, len(s.Bays))
	for _, b := range s.Bays {
		out = append(out, int(b.Number))
	}
	return out
}
