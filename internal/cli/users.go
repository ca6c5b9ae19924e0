package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sakif/meydan/internal/confirm"
)

func (a *app) usersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List everyone except you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.Users(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Users(users)
		},
	}
}

func (a *app) profileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show a profile (yours by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				s, err := a.client.Session(ctx)
				if err != nil {
					return err
				}
				if s.Viewer == nil {
					return errLoggedOut
				}
				id = s.Viewer.ID
			}

			p, err := a.client.Profile(ctx, id)
			if err != nil {
				return err
			}
			return a.printer.Profile(p)
		},
	}
}

// proposeCommand builds a "<verb> <user-id>" command backed by a confirmation.
func (a *app) proposeCommand(use, short string, propose func(context.Context, string) (confirm.Pending, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := propose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.resolve(cmd.Context(), pending)
		},
	}
}

func (a *app) followCommand() *cobra.Command {
	return a.proposeCommand("follow", "Follow a user", func(ctx context.Context, id string) (confirm.Pending, error) {
		return a.client.Follow(ctx, id)
	})
}

func (a *app) unfollowCommand() *cobra.Command {
	return a.proposeCommand("unfollow", "Stop following a user", func(ctx context.Context, id string) (confirm.Pending, error) {
		return a.client.Unfollow(ctx, id)
	})
}

func (a *app) blockCommand() *cobra.Command {
	return a.proposeCommand("block", "Block a user", func(ctx context.Context, id string) (confirm.Pending, error) {
		return a.client.Block(ctx, id)
	})
}

func (a *app) unblockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <user-id>",
		Short: "Unblock a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Unblock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer.User(u, "unblocked")
		},
	}
}

func (a *app) followingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "following",
		Short: "List who you follow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.Following(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Users(users)
		},
	}
}

func (a *app) blockedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "blocked",
		Short: "List blocked users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.Blocked(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Users(users)
		},
	}
}
