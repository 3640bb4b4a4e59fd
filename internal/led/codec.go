package led

// Register layout of the chassis LED control word. The word is active-low:
// a set bit keeps its LED dark, so all-off is every bit set. Bits not listed
// in bayBits are reserved and must always be written as 1.
const (
	// AllOff is the encoding with every LED dark.
	AllOff uint16 = 0xffff

	// FlashBit hides the onboard flash disk when set. Never cleared.
	FlashBit uint16 = 0x0080
)

// bitPair holds the two color bits a bay owns.
type bitPair struct {
	blue uint16
	red  uint16
}

// bayBits is indexed by Bay-1.
var bayBits = [BayCount]bitPair{
	{blue: 0x0001, red: 0x1000},
	{blue: 0x0002, red: 0x0100},
	{blue: 0x0008, red: 0x0200},
	{blue: 0x0020, red: 0x0400},
}

// Mask returns the bits that color owns on bay. ColorNone and invalid bays
// own nothing.
func Mask(bay Bay, color Color) uint16 {
	if !bay.Valid() {
		return 0
	}
	bits := bayBits[bay-1]
	switch color {
	case ColorBlue:
		return bits.blue
	case ColorRed:
		return bits.red
	case ColorPurple:
		return bits.blue | bits.red
	default:
		return 0
	}
}

// Encode returns reg with bay showing exactly color. The bay's other color
// bit goes dark; other bays keep their bits.
func Encode(reg uint16, bay Bay, color Color) uint16 {
	reg |= Mask(bay, ColorPurple)
	return reg &^ Mask(bay, color)
}

// Clear returns reg with the bits of color on bay turned dark.
func Clear(reg uint16, bay Bay, color Color) uint16 {
	return reg | Mask(bay, color)
}

// Decode returns the color lit on bay in reg.
func Decode(reg uint16, bay Bay) Color {
	if !bay.Valid() {
		return ColorNone
	}
	bits := bayBits[bay-1]
	blue := reg&bits.blue == 0
	red := reg&bits.red == 0
	switch {
	case blue && red:
		return ColorPurple
	case blue:
		return ColorBlue
	case red:
		return ColorRed
	default:
		return ColorNone
	}
}
