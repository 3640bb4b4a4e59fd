// Package monitor runs the sample and light cycle over the chassis bays.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/bayled/internal/bay"
	"github.com/smazurov/bayled/internal/devices"
	"github.com/smazurov/bayled/internal/led"
	"github.com/smazurov/bayled/internal/logging"
)

// DefaultIdleDelay is the pause after a cycle in which no LED changed.
const DefaultIdleDelay = 85 * time.Millisecond

// Source enumerates disks, reads their counters and reports topology
// changes. *devices.Source implements it.
type Source interface {
	bay.DeviceSource
	Changed() (bool, error)
}

// Config holds loop tuning.
type Config struct {
	IdleDelay time.Duration
	HostBase  int
}

// Hooks are called from the loop goroutine.
type Hooks struct {
	// Ready runs once, after the first successful initialization. An error
	// stops the loop.
	Ready func(State) error
	// Epoch runs after every successful initialization, the first included.
	Epoch func(State)
}

// Loop ties the device source to the LED register.
type Loop struct {
	source    Source
	leds      *led.Controller
	directory *bay.Directory
	sampler   *bay.Sampler
	machine   *bay.StateMachine
	cfg       Config
	hooks     Hooks
	logger    *slog.Logger

	state State
	ready bool
}

// New creates a loop. A zero IdleDelay means DefaultIdleDelay.
func New(source Source, leds *led.Controller, cfg Config, hooks Hooks) *Loop {
	if cfg.IdleDelay == 0 {
		cfg.IdleDelay = DefaultIdleDelay
	}
	return &Loop{
		source:    source,
		leds:      leds,
		directory: bay.NewDirectory(source, cfg.HostBase, logging.GetLogger("bay")),
		sampler:   bay.NewSampler(source, logging.GetLogger("bay")),
		machine:   bay.NewStateMachine(leds, logging.GetLogger("bay")),
		cfg:       cfg,
		hooks:     hooks,
		logger:    logging.GetLogger("monitor"),
	}
}

// State returns the current epoch's state. Only call it from the loop
// goroutine or after Run returned.
func (l *Loop) State() State {
	return l.state
}

// Run monitors until ctx is cancelled, which returns nil, or until a
// failure, which is returned. The register is left as the last cycle wrote
// it; turning the LEDs off on exit is up to the caller.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.initialize(); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		changed, err := l.source.Changed()
		if err != nil {
			return fmt.Errorf("failed to check disk topology: %w", err)
		}
		if changed {
			l.logger.Log(ctx, logging.LevelNotice, "Disk topology changed, reinitializing",
				"epoch", l.state.Epoch)
			if err := l.initialize(); err != nil {
				return err
			}
			continue
		}

		transitions, err := l.cycle()
		if errors.Is(err, devices.ErrDeviceGone) {
			l.logger.Log(ctx, logging.LevelNotice, "Disk disappeared, reinitializing",
				"epoch", l.state.Epoch, "error", err)
			if err := l.initialize(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if transitions == 0 {
			sleep(ctx, l.cfg.IdleDelay)
		}
	}
}

// initialize starts a new epoch from an all-off register.
func (l *Loop) initialize() error {
	epoch := l.state.Epoch + 1
	l.state = State{Epoch: epoch}

	if err := l.leds.Reset(); err != nil {
		return &bay.Error{Code: bay.ErrCodeRegister, Message: "failed to reset LEDs", Cause: err}
	}

	count, bays, err := l.directory.Initialize()
	if err != nil {
		return err
	}
	l.state = State{Epoch: epoch, Count: count, Bays: bays}

	l.logger.Info("Bays initialized", "epoch", epoch, "count", count, "bays", l.state.Numbers())

	if !l.ready {
		l.ready = true
		if l.hooks.Ready != nil {
			if err := l.hooks.Ready(l.state); err != nil {
				return err
			}
		}
	}
	if l.hooks.Epoch != nil {
		l.hooks.Epoch(l.state)
	}
	return nil
}

// cycle samples and updates every bay in order, writing the register as it
// goes. It returns how many bays had an LED transition.
func (l *Loop) cycle() (int, error) {
	transitions := 0
	for _, b := range l.state.Bays {
		act, err := l.sampler.Sample(b)
		if err != nil {
			return transitions, err
		}
		changed, err := l.machine.Step(b, act)
		if err != nil {
			return transitions, err
		}
		if changed {
			transitions++
		}
	}
	return transitions, nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
