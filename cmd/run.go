package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/bayled/internal/bay"
	"github.com/smazurov/bayled/internal/config"
	"github.com/smazurov/bayled/internal/devices"
	"github.com/smazurov/bayled/internal/events"
	"github.com/smazurov/bayled/internal/led"
	"github.com/smazurov/bayled/internal/logging"
	"github.com/smazurov/bayled/internal/monitor"
	"github.com/smazurov/bayled/internal/process"
	"github.com/smazurov/bayled/internal/systemd"
)

// ErrNotRoot is returned when the daemon starts without root privileges.
var ErrNotRoot = errors.New("must be run as root")

// Run starts the daemon and blocks until a signal or a fatal error. A
// signal returns nil.
func Run(ctx context.Context, opts config.Options) error {
	logging.Initialize(loggingConfig(opts))
	logger := logging.GetLogger("main")

	if !process.IsRoot() {
		return ErrNotRoot
	}

	if opts.Daemon && !process.IsDetached() {
		pid, err := process.Detach()
		if err != nil {
			return err
		}
		logger.Info("Detached", "pid", pid)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	reg, err := led.OpenPort(opts.RegisterDevice, opts.RegisterAddress)
	if err != nil {
		logger.Log(ctx, logging.LevelCritical, "Cannot access LED register", "error", err)
		return err
	}
	leds := led.NewController(reg, logging.GetLogger("led"))

	source, err := devices.NewSource(deviceConfig(opts), logging.GetLogger("devices"))
	if err != nil {
		logger.Log(ctx, logging.LevelCritical, "Cannot read disk statistics", "error", err)
		_ = leds.Close()
		return err
	}

	if opts.HotplugEnabled {
		if err := source.Watch(ctx, events.New()); err != nil {
			logger.Warn("Hotplug events unavailable, rescanning sysfs each cycle", "error", err)
		}
	}

	d := &daemon{
		opts:     opts,
		logger:   logger,
		leds:     leds,
		source:   source,
		notifier: systemd.NewNotifier(),
		stop:     stop,
	}
	d.watchConfig()

	loop := monitor.New(source, leds, monitor.Config{
		IdleDelay: opts.PollIdleDelay,
		HostBase:  opts.DevicesHostBase,
	}, monitor.Hooks{
		Ready: d.ready,
		Epoch: d.epoch,
	})

	logger.Log(ctx, logging.LevelNotice, "Starting", "register", opts.RegisterDevice,
		"address", fmt.Sprintf("0x%04x", opts.RegisterAddress))

	return d.shutdown(loop.Run(ctx))
}

// daemon holds what the shutdown path has to release.
type daemon struct {
	opts     config.Options
	logger   *slog.Logger
	leds     *led.Controller
	source   *devices.Source
	notifier *systemd.Notifier
	watcher  *config.Watcher[config.Options]
	stop     context.CancelFunc
}

func (d *daemon) ready(st monitor.State) error {
	d.logger.Log(context.Background(), logging.LevelNotice, "Initialized, dropping privileges",
		"user", d.opts.PrivilegesUser, "bays", st.Numbers())

	if err := process.DropPrivileges(d.opts.PrivilegesUser); err != nil {
		return fmt.Errorf("failed to drop privileges: %w", err)
	}
	if err := d.notifier.Ready(); err != nil {
		d.logger.Warn("Failed to notify systemd", "error", err)
	}
	return nil
}

func (d *daemon) epoch(st monitor.State) {
	if err := d.notifier.Status("Monitoring %d bays %v", st.Count, st.Numbers()); err != nil {
		d.logger.Debug("Failed to update systemd status", "error", err)
	}
}

// watchConfig applies logging.level changes from the config file. Other
// settings need a restart.
func (d *daemon) watchConfig() {
	if d.opts.Config == "" || d.opts.Debug {
		return
	}
	if _, err := os.Stat(d.opts.Config); err != nil {
		return
	}

	w := config.NewConfigWatcher(d.opts.Config, config.Load, logging.GetLogger("config"))
	w.OnReload(func(o config.Options) {
		if logging.SetLevel(o.LoggingLevel) {
			d.logger.Info("Log level changed", "level", o.LoggingLevel)
		}
	})
	if err := w.Start(); err != nil {
		d.logger.Warn("Config reload disabled", "path", d.opts.Config, "error", err)
		return
	}
	d.watcher = w
}

// shutdown turns every LED off and releases resources. It is the only exit
// path once the register is open.
func (d *daemon) shutdown(runErr error) error {
	ctx := context.Background()

	if err := d.notifier.Stopping(); err != nil {
		d.logger.Debug("Failed to notify systemd", "error", err)
	}

	if err := d.leds.Reset(); err != nil {
		d.logger.Warn("Failed to turn LEDs off", "error", err)
	}

	d.stop()
	if d.watcher != nil {
		_ = d.watcher.Stop()
	}
	_ = d.source.Close()
	if err := d.leds.Close(); err != nil {
		d.logger.Warn("Failed to close LED register", "error", err)
	}

	if runErr != nil {
		msg := "Monitoring failed"
		if bay.IsUnsupportedChassis(runErr) {
			msg = "Disk layout does not match the chassis"
		}
		d.logger.Log(ctx, logging.LevelCritical, msg, "code", bay.Code(runErr), "error", runErr)
	}
	d.logger.Log(ctx, logging.LevelNotice, "Closing down")
	return runErr
}

func loggingConfig(opts config.Options) logging.Config {
	cfg := config.LoadLoggingConfig(opts.Config)
	cfg.Level = opts.LoggingLevel
	cfg.Format = opts.LoggingFormat
	return cfg
}

func deviceConfig(opts config.Options) devices.Config {
	return devices.Config{
		ProcRoot:  opts.DevicesProcRoot,
		SysRoot:   opts.DevicesSysRoot,
		Prefixes:  opts.DevicesPrefixes,
		Transport: opts.DevicesTransport,
		Settle:    opts.HotplugSettle,
	}
}
