package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/smazurov/bayled/internal/bay"
	"github.com/smazurov/bayled/internal/config"
	"github.com/smazurov/bayled/internal/devices"
	"github.com/smazurov/bayled/internal/logging"
)

// diskLister is the part of devices.Source the bays table reads.
type diskLister interface {
	Devices() ([]devices.Device, error)
	Counters(index int) (devices.Counters, error)
}

func createBaysCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "bays",
		Short: "Show which disk sits in which bay",
		Long: `Lists the disks that pass the device filter with their SCSI address, the bay ` +
			`they map to and their I/O totals. Does not touch the LED register.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, c); err != nil {
				return err
			}
			logging.Initialize(loggingConfig(*opts))

			source, err := devices.NewSource(deviceConfig(*opts), logging.GetLogger("devices"))
			if err != nil {
				return err
			}
			defer source.Close()

			return renderBays(c.OutOrStdout(), source, opts.DevicesHostBase)
		},
	}
}

func renderBays(w io.Writer, source diskLister, hostBase int) error {
	list, err := source.Devices()
	if err != nil {
		return fmt.Errorf("failed to list disks: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Bay", "Device", "Address", "Bus", "Target", "Read", "Written"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for _, dev := range list {
		id := bay.IdentityOf(dev.Address, hostBase)
		number := "-"
		if n, ok := id.Bay(); ok {
			number = strconv.Itoa(int(n))
		}

		counters, err := source.Counters(dev.Index)
		if err != nil {
			return fmt.Errorf("failed to read counters for %s: %w", dev.Path, err)
		}

		t.AppendRow(table.Row{
			number,
			dev.Path,
			dev.Address.String(),
			id.BusPath,
			id.Target,
			humanize.IBytes(counters.ReadBytes),
			humanize.IBytes(counters.WriteBytes),
		})
	}

	if len(list) == 0 {
		t.AppendFooter(table.Row{"", "no disks matched"})
	}
	t.Render()
	return nil
}
