//go:build linux

package devices

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/bayled/internal/events"
	"github.com/smazurov/bayled/pkg/hotplug"
)

// Watch starts listening for disk add and remove events. Events are
// published on bus; the source counts every published event as a topology
// change. If the netlink socket cannot be opened the source keeps rescanning
// sysfs in Changed instead.
func (s *Source) Watch(ctx context.Context, bus *events.Bus) error {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		return err
	}
	mon.AddFilter(hotplug.Filter{Subsystem: hotplug.SubsystemBlock, DevType: hotplug.DevTypeDisk})

	s.unsubscribe = bus.Subscribe(func(e events.TopologyChangedEvent) {
		s.generation.Add(1)
		s.logger.Debug("Disk topology changed", "action", e.Action, "device", e.DevName)
	})
	s.watching.Store(true)

	go func() {
		defer mon.Close()

		runErr := mon.Run(ctx, func(ev hotplug.Event) {
			if !ev.Topology() {
				return
			}
			if ev.Action == hotplug.ActionAdd && s.cfg.Settle > 0 {
				select {
				case <-time.After(s.cfg.Settle):
				case <-ctx.Done():
					return
				}
			}
			if !s.relevant(ev.Action == hotplug.ActionAdd, ev.DevName) {
				s.logger.Debug("Ignoring disk outside the device filter", "action", ev.Action, "device", ev.DevName)
				return
			}
			bus.Publish(events.TopologyChangedEvent{
				Action:    ev.Action,
				DevName:   ev.DevName,
				KObj:      ev.KObj,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		})

		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			s.logger.Warn("Hotplug monitor failed, falling back to sysfs rescans", "error", runErr)
			s.watching.Store(false)
		}
	}()

	return nil
}
