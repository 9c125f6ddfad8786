package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-checkin/internal/checkin"
)

// scanLine is the JSON rendering of one station outcome.
type scanLine struct {
	Outcome     checkin.OutcomeKind `json:"outcome"`
	Message     string              `json:"message"`
	Participant string              `json:"participant,omitempty"`
	Name        string              `json:"name,omitempty"`
}

// NewStationCommand creates the station command.  It reads decoded scan
// text from stdin, one code per line, as a USB scanner in keyboard mode
// types it.
func NewStationCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		eventRef string
		id       string
		window   time.Duration
	)
	cmd := &cobra.Command{
		Use:          "station",
		Short:        "Run a scanning station reading codes from stdin",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if window <= 0 {
				window = a.Cfg.DebounceWindow
			}
			st := checkin.NewStation(a.Service, id, eventRef, window)
			out := formatterFor(rootOpts, cmd.OutOrStdout())

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				raw := strings.TrimSpace(sc.Text())
				if raw == "" {
					continue
				}
				res := st.Scan(cmd.Context(), raw)
				line := scanLine{Outcome: res.Kind, Message: res.Message()}
				text := fmt.Sprintf("%-20s %s", res.Kind, res.Message())
				if p := res.Participant; p != nil {
					line.Participant, line.Name = p.Ref, p.DisplayName
					text += fmt.Sprintf(" | %s (%s)", p.DisplayName, p.Ref)
				}
				if err := out.Emit(line, text); err != nil {
					return err
				}
			}
			return sc.Err()
		},
	}
	cmd.Flags().StringVar(&eventRef, "event", "", "event this station admits")
	cmd.Flags().StringVar(&id, "id", "", "station identifier used in logs and events")
	cmd.Flags().DurationVar(&window, "window", 0, "debounce window (default CHECKIN_DEBOUNCE_WINDOW)")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
