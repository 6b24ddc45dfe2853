package cli

import (
	"github.com/spf13/cobra"
)

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username> [password]",
		Short: "Create an account",
		Long:  `Create an account. The password is prompted for when it is not given.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			password := ""
			if len(args) == 2 {
				password = args[1]
			} else {
				p, err := readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = p
			}

			// The outcome is already on the display
			if err := cliCtx.Controller.Register(cmd.Context(), args[0], password); err != nil {
				return ErrReported
			}
			return nil
		},
	}
}
