package bay

import (
	"log/slog"

	"github.com/smazurov/bayled/internal/led"
)

// ActionKind is what the state machine does to a bay's LEDs.
type ActionKind int

// Actions.
const (
	ActionNone ActionKind = iota
	ActionDrive
	ActionClear
)

// Action is a decided LED change.
type Action struct {
	Kind  ActionKind
	Color led.Color
}

// Decide maps one sample to an LED action. Any read shows purple, whether
// or not writes happened too; writes alone show blue. An idle bay clears
// exactly the color it last showed, or does nothing if it is already off.
func Decide(act Activity, last led.Color) Action {
	switch {
	case act.Read:
		return Action{Kind: ActionDrive, Color: led.ColorPurple}
	case act.Write:
		return Action{Kind: ActionDrive, Color: led.ColorBlue}
	case last != led.ColorNone:
		return Action{Kind: ActionClear, Color: last}
	default:
		return Action{Kind: ActionNone}
	}
}

// Actuator changes bay colors on the hardware.
type Actuator interface {
	Drive(bay led.Bay, color led.Color) error
	Clear(bay led.Bay, color led.Color) error
}

// StateMachine applies decisions to the LEDs and keeps each bay's
// LastColor in step with what was written.
type StateMachine struct {
	leds   Actuator
	logger *slog.Logger
}

// NewStateMachine creates a state machine driving leds.
func NewStateMachine(leds Actuator, logger *slog.Logger) *StateMachine {
	return &StateMachine{leds: leds, logger: logger}
}

// Step decides and applies the LED change for b. It reports whether the
// register was written.
func (m *StateMachine) Step(b *Bay, act Activity) (bool, error) {
	action := Decide(act, b.LastColor)

	switch action.Kind {
	case ActionDrive:
		if err := m.leds.Drive(b.Number, action.Color); err != nil {
			return false, newError(ErrCodeRegister, "failed to light "+b.Number.String(), err)
		}
		if b.LastColor != action.Color {
			m.logger.Debug("Bay lit", "bay", int(b.Number), "color", action.Color.String())
		}
		b.LastColor = action.Color
		return true, nil

	case ActionClear:
		if err := m.leds.Clear(b.Number, action.Color); err != nil {
			return false, newError(ErrCodeRegister, "failed to clear "+b.Number.String(), err)
		}
		m.logger.Debug("Bay cleared", "bay", int(b.Number), "color", action.Color.String())
		b.LastColor = led.ColorNone
		return true, nil

	default:
		return false, nil
	}
}
