package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPath is read when no --config is given. A missing file is fine.
const DefaultPath = "/etc/bayled.toml"

// Options is the daemon configuration. Fields tagged toml/env are filled by
// LoadConfig.
type Options struct {
	Config string `help:"Config file path"`
	Debug  bool
	Daemon bool

	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`

	PollIdleDelay time.Duration `toml:"poll.idle_delay" env:"POLL_IDLE_DELAY"`

	RegisterDevice  string `toml:"register.device" env:"REGISTER_DEVICE"`
	RegisterAddress int64  `toml:"register.address" env:"REGISTER_ADDRESS"`

	DevicesPrefixes  []string `toml:"devices.prefixes" env:"DEVICES_PREFIXES"`
	DevicesTransport string   `toml:"devices.transport" env:"DEVICES_TRANSPORT"`
	DevicesHostBase  int      `toml:"devices.host_base" env:"DEVICES_HOST_BASE"`
	DevicesProcRoot  string   `toml:"devices.proc_root" env:"DEVICES_PROC_ROOT"`
	DevicesSysRoot   string   `toml:"devices.sys_root" env:"DEVICES_SYS_ROOT"`

	PrivilegesUser string `toml:"privileges.user" env:"PRIVILEGES_USER"`

	HotplugEnabled bool          `toml:"hotplug.enabled" env:"HOTPLUG_ENABLED"`
	HotplugSettle  time.Duration `toml:"hotplug.settle" env:"HOTPLUG_SETTLE"`
}

// Default returns the options used when nothing overrides them.
func Default() Options {
	return Options{
		Config:           DefaultPath,
		LoggingLevel:     "info",
		LoggingFormat:    "text",
		PollIdleDelay:    85 * time.Millisecond,
		RegisterDevice:   "/dev/port",
		RegisterAddress:  0x1064,
		DevicesPrefixes:  []string{"sd"},
		DevicesTransport: "ata",
		DevicesProcRoot:  "/proc",
		DevicesSysRoot:   "/sys",
		PrivilegesUser:   "nobody",
		HotplugEnabled:   true,
		HotplugSettle:    time.Second,
	}
}

// Load reads path over the defaults and applies env overrides. It is the
// reload function for a Watcher.
func Load(path string) (Options, error) {
	opts := Default()
	opts.Config = path
	if err := LoadConfig(&opts, nil); err != nil {
		return Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate rejects values the daemon cannot run with.
func (o *Options) Validate() error {
	var errs []error
	if o.PollIdleDelay <= 0 {
		errs = append(errs, fmt.Errorf("poll.idle_delay must be positive, got %v", o.PollIdleDelay))
	}
	if o.RegisterDevice == "" {
		errs = append(errs, errors.New("register.device is required"))
	}
	if o.RegisterAddress < 0 {
		errs = append(errs, fmt.Errorf("register.address must not be negative, got %d", o.RegisterAddress))
	}
	if o.DevicesHostBase < 0 {
		errs = append(errs, fmt.Errorf("devices.host_base must not be negative, got %d", o.DevicesHostBase))
	}
	if o.HotplugSettle < 0 {
		errs = append(errs, fmt.Errorf("hotplug.settle must not be negative, got %v", o.HotplugSettle))
	}
	switch o.LoggingFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", o.LoggingFormat))
	}
	return errors.Join(errs...)
}
