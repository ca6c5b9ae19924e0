package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/meydan/internal/client"
)

func (a *app) feedCommand() *cobra.Command {
	var q client.FeedQuery

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the home feed, a profile, or search results",
		Example: `  meydanctl feed
  meydanctl feed --view user_profile --user user_2
  meydanctl feed --search "سارة" --by author`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.client.Feed(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.printer.Posts(posts)
		},
	}
	cmd.Flags().StringVar(&q.View, "view", "", "View: home, profile, user_profile")
	cmd.Flags().StringVar(&q.User, "user", "", "Profile owner for --view user_profile")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "Search term")
	cmd.Flags().StringVar(&q.By, "by", "", "Search field: content, author, date")
	return cmd
}

func (a *app) postCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create and act on posts",
	}

	var image string
	create := &cobra.Command{
		Use:   "create <text>",
		Short: "Publish a new post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.client.CreatePost(cmd.Context(), strings.Join(args, " "), image)
			if err != nil {
				return err
			}
			return a.printer.Post(post)
		},
	}
	create.Flags().StringVar(&image, "image", "", "Image URL to attach")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.Post(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer.Post(post)
			},
		},
		&cobra.Command{
			Use:   "edit <id> <content>",
			Short: "Replace the content of one of your posts",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.EditPost(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return a.printer.Post(post)
			},
		},
		&cobra.Command{
			Use:   "like <id>",
			Short: "Like a post, or remove your like",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.Like(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer.Post(post)
			},
		},
		&cobra.Command{
			Use:   "comment <id> <text>",
			Short: "Comment on a post",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.Comment(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return a.printer.Post(post)
			},
		},
		&cobra.Command{
			Use:   "repost <id>",
			Short: "Repost a post to your followers",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				post, err := a.client.Repost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer.Post(post)
			},
		},
		&cobra.Command{
			Use:   "share <id>",
			Short: "Get a share link for a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				share, err := a.client.Share(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer.Share(share)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one of your posts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pending, err := a.client.DeletePost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.resolve(cmd.Context(), pending)
			},
		},
		&cobra.Command{
			Use:   "report <id>",
			Short: "Report a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pending, err := a.client.ReportPost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.resolve(cmd.Context(), pending)
			},
		},
	)
	return cmd
}

func (a *app) enhanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enhance <text>",
		Short: "Rewrite draft text with the AI enhancer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Enhance(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printer.Enhanced(res)
		},
	}
}
