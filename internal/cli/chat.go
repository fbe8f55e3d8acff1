package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"seteuk/internal/domain"
)

// NewSubjectsCommand creates the subjects command.
func NewSubjectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects questions can be asked about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				subjects, fallback := env.Chat.Subjects(cmd.Context())
				return env.Printer.Subjects(subjects, fallback)
			})
		},
	}
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask for a 세특 draft",
		Long: `Ask the assistant for a 세특 draft about one subject. All arguments are
joined into the question.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.ChatRequest{Subject: subject, Question: strings.Join(args, " ")}
			return withEnv(cmd, rootOpts, func(env *Env) error {
				e, err := env.Chat.Ask(cmd.Context(), req)
				if err != nil {
					return err
				}
				return env.Printer.Entry(e)
			})
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", domain.DefaultSubject(), "subject name")
	return cmd
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var q domain.HistoryQuery
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env) error {
				page, err := env.Chat.History(cmd.Context(), q)
				if err != nil {
					return err
				}
				return env.Printer.History(page, q.Normalize())
			})
		},
	}
	cmd.Flags().StringVarP(&q.Subject, "subject", "s", "", "only this subject")
	cmd.Flags().IntVar(&q.Skip, "skip", 0, "entries to skip")
	cmd.Flags().IntVar(&q.Limit, "limit", domain.DefaultHistoryLimit, "entries to show (max 100)")
	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one past question with its answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return withEnv(cmd, rootOpts, func(env *Env) error {
				e, err := env.Chat.HistoryDetail(cmd.Context(), id)
				if err != nil {
					return err
				}
				return env.Printer.Entry(e)
			})
		},
	}
}
