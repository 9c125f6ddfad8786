// Package cli implements checkinctl, the operator command line: schema
// migration, credential issuance, stats, no-show marking and a stdin-driven
// scanning station.
package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/event-checkin/internal/app"
	"github.com/iliyamo/event-checkin/internal/config"
	"github.com/iliyamo/event-checkin/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for checkinctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "checkinctl",
		Short: "Event check-in administration",
		Long: `Administer participant check-in for an event: issue credentials,
inspect live stats, mark no-shows and run a scanning station from stdin.

Configuration is read from the environment (and .env), like the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewIssueCommand(opts))
	cmd.AddCommand(NewCredentialCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewNoShowCommand(opts))
	cmd.AddCommand(NewStationCommand(opts))
	cmd.AddCommand(NewOperatorCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openApp loads the configuration and opens the engine.  Logs go to the
// command's stderr so stdout stays machine readable.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	return app.Open(cfg, newLogger(cfg.Env, level, cmd.ErrOrStderr()), nil)
}

func newLogger(env, level string, w io.Writer) logrus.FieldLogger {
	return logging.NewWithOutput(env, level, w)
}
