package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"seteuk/internal/app"
	"seteuk/internal/domain"
	"seteuk/internal/render"
)

type passwordFlags struct {
	password      string
	passwordStdin bool
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.password, "password", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&p.passwordStdin, "password-stdin", false, "read the password from stdin")
}

// read returns up to n lines: the password from the flag, or n lines from r.
func (p *passwordFlags) read(r io.Reader, n int) ([]string, error) {
	if !p.passwordStdin {
		if p.password == "" {
			return nil, errors.New("password is required (--password or --password-stdin)")
		}
		return []string{p.password}, nil
	}
	var lines []string
	sc := bufio.NewScanner(r)
	for len(lines) < n && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("no password on stdin")
	}
	return lines, nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		email, name, confirm string
		pw                   passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account on the backend. The password must be at least 6
characters. With --password-stdin a second line, if present, is the
confirmation; otherwise --confirm-password or the password itself is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := pw.read(cmd.InOrStdin(), 2)
			if err != nil {
				return err
			}
			reg := domain.Registration{Email: email, Name: name, Password: lines[0], ConfirmPassword: lines[0]}
			switch {
			case len(lines) > 1:
				reg.ConfirmPassword = lines[1]
			case confirm != "":
				reg.ConfirmPassword = confirm
			}
			return withEnv(cmd, rootOpts, func(env *Env) error {
				u, err := env.Auth.Register(cmd.Context(), reg)
				if err != nil {
					return err
				}
				if env.Printer.Format() == render.FormatJSON {
					return env.Printer.User(u)
				}
				return env.Printer.Message("registered %s; run `seteuk login --email %s` to sign in", u.Email, u.Email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation")
	pw.register(cmd)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		email string
		pw    passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := pw.read(cmd.InOrStdin(), 1)
			if err != nil {
				return err
			}
			return withEnv(cmd, rootOpts, func(env *Env) error {
				u, err := env.Auth.Login(cmd.Context(), domain.Credentials{Email: email, Password: lines[0]})
				if err != nil {
					return err
				}
				return env.Printer.User(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	pw.register(cmd)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				if env.Auth.Logout(cmd.Context()) {
					return env.Printer.Message("logged out")
				}
				return env.Printer.Message("not logged in")
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored user without contacting the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				u, err := env.Auth.Whoami()
				if err != nil {
					return notLoggedIn(err)
				}
				return env.Printer.User(u)
			})
		},
	}
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the profile from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				u, err := env.Auth.RefreshProfile(cmd.Context())
				if err != nil {
					return notLoggedIn(err)
				}
				return env.Printer.User(u)
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored and where",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				sess := env.Store.Session()
				st := render.Status{
					Authenticated: sess.IsAuthenticated,
					User:          sess.User,
					Store:         env.Config.Store,
					Namespace:     env.Config.Namespace,
				}
				if exp, ok := app.TokenExpiry(sess.Token); ok {
					st.TokenExpiresAt = &exp
				}
				return env.Printer.Status(st)
			})
		},
	}
}

func notLoggedIn(err error) error {
	if errors.Is(err, app.ErrNotAuthenticated) {
		return fmt.Errorf("%w; run `seteuk login` first", err)
	}
	return err
}
