// Package cli is the tributectl command tree. A profile directory plays
// the part of a browser profile: it holds the author id and, without a
// remote backend, the board itself.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"tributes/internal/board"
	"tributes/internal/config"
	"tributes/internal/identity"
	"tributes/internal/kv"
	"tributes/internal/repository"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

type session struct {
	slots *kv.Pebble
	repo  *repository.Repository
	board *board.Board
}

func (s *session) close() {
	if s.slots != nil {
		_ = s.slots.Close()
	}
}

func newRootCmd(cfg config.Config, s *session) *cobra.Command {
	var profile string

	root := &cobra.Command{
		Use:           "tributectl",
		Short:         "Post and browse tribute board messages",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slots, err := kv.Open(profile)
			if err != nil {
				return fmt.Errorf("open profile %s: %w", profile, err)
			}
			s.slots = slots

			backend, err := repository.Open(cfg, slots, &identity.Slot{Slots: slots}, nil)
			if err != nil {
				return err
			}
			s.repo = backend.Repo
			s.board = board.New(backend.Repo, cfg.TenureDays)
			return s.board.Load(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&profile, "profile", "p", cfg.ProfileDir, "profile directory")

	root.AddCommand(
		whoamiCmd(s),
		listCmd(s),
		postCmd(s),
		editCmd(s),
		deleteCmd(s),
		statsCmd(s),
	)
	return root
}

// Run executes one command line and releases the profile afterwards.
func Run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	s := &session{}
	defer s.close()

	root := newRootCmd(cfg, s)
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

// Execute runs tributectl with the environment's config.
func Execute() {
	if err := Run(context.Background(), config.Load(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
