//go:build !linux

package devices

import (
	"context"
	"errors"

	"github.com/smazurov/bayled/internal/events"
)

// Watch is unavailable off Linux; Changed rescans instead.
func (s *Source) Watch(_ context.Context, _ *events.Bus) error {
	return errors.New("hotplug monitoring requires linux")
}
