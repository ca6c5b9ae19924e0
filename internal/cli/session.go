package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/meydan/internal/realtime"
)

var errLoggedOut = errors.New("logged out: no active viewer")

func (a *app) chatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List conversations and people to message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Conversations(list)
		},
	}
}

func (a *app) chatCommand() *cobra.Command {
	var send string

	cmd := &cobra.Command{
		Use:   "chat <user-id>",
		Short: "Show a conversation, optionally sending a message first",
		Example: `  meydanctl chat user_2
  meydanctl chat user_2 --send "مرحبا"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.client.Session(ctx)
			if err != nil {
				return err
			}
			if s.Viewer == nil {
				return errLoggedOut
			}

			if strings.TrimSpace(send) != "" {
				m, err := a.client.Send(ctx, args[0], send)
				if err != nil {
					return err
				}
				if a.printer.format == FormatJSON {
					return a.printer.Message(s.Viewer.ID, m)
				}
			}

			msgs, err := a.client.Thread(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printer.Thread(s.Viewer.ID, msgs)
		},
	}
	cmd.Flags().StringVar(&send, "send", "", "Message to send")
	return cmd
}

func (a *app) notificationsCommand() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			get := a.client.Notifications
			if open {
				get = a.client.OpenNotifications
			}
			res, err := get(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Notifications(res)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Mark all notifications read")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and reset the demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := a.client.Logout(cmd.Context())
			if err != nil {
				return err
			}
			return a.resolve(cmd.Context(), pending)
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metaColor.Fprintln(a.errOut, "Watching for events. Press Ctrl+C to stop.")
			var printErr error
			err := a.client.Watch(ctx, func(ev realtime.Event) {
				if printErr == nil {
					printErr = a.printer.Event(ev)
				}
			})
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return printErr
		},
	}
}
