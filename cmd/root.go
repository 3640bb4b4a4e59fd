package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smazurov/bayled/internal/config"
	"github.com/smazurov/bayled/internal/version"
)

// CreateRootCmd creates the bayled command.
func CreateRootCmd() *cobra.Command {
	opts := config.Default()

	cmd := &cobra.Command{
		Use:   "bayled",
		Short: "Drive HP EX47x drive bay LEDs from disk activity",
		Long: `bayled watches the I/O counters of the disks in the four chassis bays and ` +
			`lights each bay's LED while its disk is busy: blue for writes, purple for reads. ` +
			`It must start as root to open the LED register, then drops to an unprivileged user.`,
		Version:       version.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := config.LoadConfig(&opts, c); err != nil {
				return err
			}
			if opts.Debug {
				opts.LoggingLevel = "debug"
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return Run(c.Context(), opts)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(c.UsageString())
		return err
	})

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", opts.Config, "config file path")

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "log debug output to stdout")
	flags.BoolVarP(&opts.Daemon, "daemon", "D", false, "detach and run in the background")

	cmd.AddCommand(createBaysCmd(&opts))

	return cmd
}
