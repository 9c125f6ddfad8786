package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-checkin/internal/checkin"
	"github.com/iliyamo/event-checkin/internal/config"
	"github.com/iliyamo/event-checkin/internal/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Bring the database schema up to date",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := formatterFor(rootOpts, cmd.OutOrStdout())
			if a.Cfg.DBDriver == config.DriverSQLite {
				return out.Emit(map[string]any{"driver": a.Cfg.DBDriver, "path": a.Cfg.DBPath}, "sqlite schema applied to "+a.Cfg.DBPath)
			}
			v, dirty, err := database.MigrationVersion(a.DB)
			if err != nil {
				return err
			}
			return out.Emit(map[string]any{"driver": a.Cfg.DBDriver, "version": v, "dirty": dirty},
				fmt.Sprintf("mysql schema at version %d (dirty=%t)", v, dirty))
		},
	}
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	var eventRef string
	cmd := &cobra.Command{
		Use:          "issue",
		Short:        "Issue credentials for every participant of an event that has none",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Issuer.IssueForEvent(cmd.Context(), eventRef)
			if err != nil {
				return err
			}
			return formatterFor(rootOpts, cmd.OutOrStdout()).Emit(
				map[string]any{"event": eventRef, "issued": n},
				fmt.Sprintf("issued %d credential(s) for event %s", n, eventRef))
		},
	}
	cmd.Flags().StringVar(&eventRef, "event", "", "event reference")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// NewCredentialCommand creates the credential command.
func NewCredentialCommand(rootOpts *RootOptions) *cobra.Command {
	var participantRef string
	cmd := &cobra.Command{
		Use:          "credential",
		Short:        "Print the credential text of an issued participant",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.Issuer.CredentialFor(cmd.Context(), participantRef)
			if err != nil {
				return err
			}
			return formatterFor(rootOpts, cmd.OutOrStdout()).Emit(
				map[string]any{"participant": participantRef, "credential": text}, text)
		},
	}
	cmd.Flags().StringVar(&participantRef, "participant", "", "participant reference")
	_ = cmd.MarkFlagRequired("participant")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var eventRef string
	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Show check-in figures for an event",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.Stats.StatsFor(cmd.Context(), eventRef)
			if err != nil {
				return err
			}
			return formatterFor(rootOpts, cmd.OutOrStdout()).Emit(st, renderStats(st))
		},
	}
	cmd.Flags().StringVar(&eventRef, "event", "", "event reference")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func renderStats(st checkin.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "event %s: %d expected\n", st.EventRef, st.Total)
	fmt.Fprintf(&b, "  checked in   %d\n  checked out  %d\n  no-show      %d\n  cancelled    %d\n  pending      %d\n",
		st.CheckedIn, st.CheckedOut, st.NoShow, st.Cancelled, st.Pending)
	fmt.Fprintf(&b, "  check-in rate %d%%, no-show rate %d%%", st.CheckinRate, st.NoShowRate)

	cats := make([]string, 0, len(st.ByCategory))
	for c := range st.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		n := st.ByCategory[c]
		fmt.Fprintf(&b, "\n  %-12s in=%d out=%d no-show=%d pending=%d", c, n.CheckedIn, n.CheckedOut, n.NoShow, n.Pending)
	}
	return b.String()
}

// NewNoShowCommand creates the noshow command.
func NewNoShowCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		eventRef string
		override bool
	)
	cmd := &cobra.Command{
		Use:          "noshow",
		Short:        "Mark every participant who never arrived as no-show",
		Long:         "Mark every participant still not checked in as no-show.  Refused before the event has ended unless --override is given.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Service.MarkNoShowsForEvent(checkin.WithStation(cmd.Context(), "checkinctl"), eventRef, override)
			if err != nil {
				return err
			}
			return formatterFor(rootOpts, cmd.OutOrStdout()).Emit(
				map[string]any{"event": eventRef, "marked": n},
				fmt.Sprintf("marked %d participant(s) as no-show", n))
		},
	}
	cmd.Flags().StringVar(&eventRef, "event", "", "event reference")
	cmd.Flags().BoolVar(&override, "override", false, "allow marking before the event has ended")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

