package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layer-3/authflow/internal/config"
	"github.com/layer-3/authflow/service"
)

const shellHelp = `Commands:
  register <username> [password]  create an account
  login <username> [password]     log in and store both tokens
  refresh                         exchange the refresh token for a new access token
  secure                          fetch the protected resource
  logout                          revoke the refresh token on the server
  tokens                          show the stored tokens
  api                             show the API base URL
  help                            show this help
  quit                            leave the shell`

// Shell is a line-oriented session holding one set of credentials
type Shell struct {
	controller *service.SessionController
	lines      *bufio.Scanner
	out        io.Writer
	password   func() (string, error)
}

// NewShell reads commands from in and writes prompts to out.
// Missing passwords are hidden-prompted when in is a terminal and
// otherwise taken from the next input line.
func NewShell(controller *service.SessionController, in io.Reader, out io.Writer) *Shell {
	s := &Shell{
		controller: controller,
		lines:      bufio.NewScanner(in),
		out:        out,
	}
	s.password = func() (string, error) {
		if f, ok := terminal(in); ok {
			return readHiddenPassword(f, out)
		}
		// the scanner owns any buffered input, so the password is its next line
		fmt.Fprint(out, "Password: ")
		if !s.lines.Scan() {
			return "", io.ErrUnexpectedEOF
		}
		return s.lines.Text(), nil
	}
	return s
}

// Run executes commands until quit, end of input or ctx is done
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, "> ")
		if !s.lines.Scan() {
			fmt.Fprintln(s.out)
			return s.lines.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.Execute(ctx, s.lines.Text()); quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
// Operation outcomes go to the controller's display.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "register", "login":
		if len(fields) < 2 {
			fmt.Fprintf(s.out, "usage: %s <username> [password]\n", fields[0])
			return false
		}
		username, password := fields[1], ""
		if len(fields) > 2 {
			password = fields[2]
		} else {
			p, err := s.password()
			if err != nil {
				fmt.Fprintln(s.out, err)
				return false
			}
			password = p
		}
		if fields[0] == "register" {
			_ = s.controller.Register(ctx, username, password)
		} else {
			_ = s.controller.Login(ctx, username, password)
		}
	case "refresh":
		_ = s.controller.Refresh(ctx)
	case "secure":
		_ = s.controller.SecureData(ctx)
	case "logout":
		_ = s.controller.Logout(ctx)
	case "tokens":
		creds := s.controller.Session()
		fmt.Fprintf(s.out, "state:         %s\n", s.controller.State())
		fmt.Fprintf(s.out, "access token:  %s\n", creds.AccessToken)
		fmt.Fprintf(s.out, "refresh token: %s\n", creds.RefreshToken)
	case "api":
		fmt.Fprintln(s.out, s.controller.BaseURL())
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "unknown command %q (try help)\n", fields[0])
	}
	return false
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Tokens live only as long as the shell.
The config file is watched and a changed API URL applies to the next command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if apiURL == "" {
				watchConfig(ctx, cliCtx)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "authflow shell (%s). Type help for commands.\n",
				cliCtx.Controller.BaseURL())
			return NewShell(cliCtx.Controller, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
		},
	}
}

// watchConfig re-resolves the base URL whenever the config file changes
func watchConfig(ctx context.Context, cliCtx *CliContext) {
	reload := func() {
		url, err := ResolveBaseURL("", cliCtx.ConfigPath)
		if err != nil {
			cliCtx.Logger.Warn("failed to reload config", "path", cliCtx.ConfigPath, "error", err)
			return
		}
		if url != cliCtx.Controller.BaseURL() {
			cliCtx.Controller.SetBaseURL(url)
			cliCtx.Logger.Info("api url changed", "api", url)
		}
	}

	if err := config.WatchFile(ctx, cliCtx.ConfigPath, reload, slog.Default()); err != nil {
		cliCtx.Logger.Debug("config watch disabled", "path", cliCtx.ConfigPath, "error", err)
	}
}
