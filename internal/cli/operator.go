package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-checkin/internal/model"
)

// NewOperatorCommand creates the operator command group.
func NewOperatorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage station operators",
	}
	cmd.AddCommand(newOperatorAddCommand(rootOpts))
	return cmd
}

func newOperatorAddCommand(rootOpts *RootOptions) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:          "add",
		Short:        "Create an operator; the password is read from the first line of stdin",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(strings.TrimSpace(role))
			if role != model.RoleAdmin && role != model.RoleStaff {
				return fmt.Errorf("invalid role %q: must be %s or %s", role, model.RoleAdmin, model.RoleStaff)
			}
			sc := bufio.NewScanner(cmd.InOrStdin())
			if !sc.Scan() {
				return errors.New("password expected on stdin")
			}
			password := strings.TrimRight(sc.Text(), "\r")
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Operators.Create(cmd.Context(), email, password, role, a.Cfg.BcryptCost)
			if err != nil {
				return err
			}
			return formatterFor(rootOpts, cmd.OutOrStdout()).Emit(
				map[string]any{"id": id, "email": email, "role": role},
				fmt.Sprintf("created operator %d (%s, %s)", id, email, role))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&role, "role", model.RoleStaff, "ADMIN or STAFF")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
