package led

import "fmt"

// Bay identifies one of the four physical drive bays on the chassis.
type Bay int

// Chassis bays, numbered as printed on the front panel.
const (
	Bay1 Bay = iota + 1
	Bay2
	Bay3
	Bay4
)

// BayCount is the fixed number of bays on the chassis.
const BayCount = 4

// Valid reports whether b names a real bay.
func (b Bay) Valid() bool {
	return b >= Bay1 && b <= Bay4
}

func (b Bay) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bay(%d)", int(b))
	}
	return fmt.Sprintf("bay%d", int(b))
}

// Color is the state of a bay's LED pair.
type Color int

// LED colors. Purple is blue and red lit together.
const (
	ColorNone Color = iota
	ColorBlue
	ColorRed
	ColorPurple
)

func (c Color) String() string {
	switch c {
	case ColorNone:
		return "off"
	case ColorBlue:
		return "blue"
	case ColorRed:
		return "red"
	case ColorPurple:
		return "purple"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}
