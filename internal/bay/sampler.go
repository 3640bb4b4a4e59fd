package bay

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Activity says which I/O directions moved since the previous sample.
type Activity struct {
	Read  bool
	Write bool
}

// Idle reports whether neither direction moved.
func (a Activity) Idle() bool {
	return !a.Read && !a.Write
}

// Sampler compares a bay's counters against its baselines.
type Sampler struct {
	source CounterSource
	logger *slog.Logger
}

// NewSampler creates a sampler reading from source.
func NewSampler(source CounterSource, logger *slog.Logger) *Sampler {
	return &Sampler{source: source, logger: logger}
}

// Sample reads b's counters and reports which directions differ from the
// baselines. Any difference counts; the baseline of a changed direction is
// advanced to the new value so only fresh I/O is seen next time.
func (s *Sampler) Sample(b *Bay) (Activity, error) {
	c, err := s.source.Counters(b.DeviceIndex)
	if err != nil {
		return Activity{}, newError(ErrCodeStats, "failed to sample "+b.DevicePath, err)
	}

	var act Activity
	if c.ReadBytes != b.BaselineRead {
		act.Read = true
		b.BaselineRead = c.ReadBytes
	}
	if c.WriteBytes != b.BaselineWrite {
		act.Write = true
		b.BaselineWrite = c.WriteBytes
	}

	if !act.Idle() {
		s.logger.Debug("Disk activity",
			"device", b.DevicePath,
			"bay", int(b.Number),
			"read_total", humanize.Bytes(c.ReadBytes),
			"written_total", humanize.Bytes(c.WriteBytes))
	}
	return act, nil
}
