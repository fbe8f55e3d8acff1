// Package cli implements the seteuk command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"seteuk/internal/render"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Store      string
	Format     string // "json" | "text"
	Verbose    bool
}

// NewRootCommand creates the root command for the seteuk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "seteuk",
		Short: "세특 assistant client",
		Long: `Command line client for the 세부능력특기사항 (세특) drafting assistant.

Log in once; the session is kept in the configured store and reused by
every later command until you log out or the backend rejects the token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := render.ParseFormat(opts.Format); err != nil {
				return fmt.Errorf("invalid --format: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "session store (file|sqlite|postgres|redis|memory), overrides config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSubjectsCommand(opts))
	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// withEnv builds the environment for one command run and always closes it.
func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(env *Env) error) (err error) {
	env, err := buildEnv(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			env.Log.Warn("shutdown", slog.String("error", cerr.Error()))
		}
	}()
	return fn(env)
}
