package led

import (
	"fmt"
	"log/slog"
)

// Controller applies bay colors to the shared control register. Every
// mutation reads the register first, so bits changed behind our back are
// preserved.
type Controller struct {
	reg    Register
	logger *slog.Logger
}

// NewController creates a controller for reg.
func NewController(reg Register, logger *slog.Logger) *Controller {
	return &Controller{reg: reg, logger: logger}
}

// Reset writes the all-off encoding.
func (c *Controller) Reset() error {
	if err := c.reg.Write16(AllOff); err != nil {
		return err
	}
	c.logger.Debug("LED register reset", "value", fmt.Sprintf("0x%04x", AllOff))
	return nil
}

// Drive lights bay with color, replacing whatever color the bay showed.
func (c *Controller) Drive(bay Bay, color Color) error {
	if !bay.Valid() {
		return fmt.Errorf("invalid bay %d", int(bay))
	}
	return c.modify(bay, color, Encode)
}

// Clear turns off exactly the bits of color on bay.
func (c *Controller) Clear(bay Bay, color Color) error {
	if !bay.Valid() {
		return fmt.Errorf("invalid bay %d", int(bay))
	}
	return c.modify(bay, color, Clear)
}

// Color reads the register and returns the color lit on bay.
func (c *Controller) Color(bay Bay) (Color, error) {
	reg, err := c.reg.Read16()
	if err != nil {
		return ColorNone, err
	}
	return Decode(reg, bay), nil
}

func (c *Controller) modify(bay Bay, color Color, op func(uint16, Bay, Color) uint16) error {
	current, err := c.reg.Read16()
	if err != nil {
		return err
	}
	next := op(current, bay, color)
	if err := c.reg.Write16(next); err != nil {
		return err
	}
	c.logger.Debug("LED register updated",
		"bay", bay.String(),
		"color", color.String(),
		"from", fmt.Sprintf("0x%04x", current),
		"to", fmt.Sprintf("0x%04x", next))
	return nil
}

// Close releases the underlying register.
func (c *Controller) Close() error {
	return c.reg.Close()
}
