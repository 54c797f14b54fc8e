package admintools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"github.com/spf13/cobra"
)

func addForumCommands(adminCommand *cobra.Command) {
	forumCommand := &cobra.Command{
		Use:   "forum",
		Short: "Admin commands for managing forums and topics",
	}
	adminCommand.AddCommand(forumCommand)

	postCommand := &cobra.Command{
		Use:   "post",
		Short: "Admin commands for moderating posts",
	}
	adminCommand.AddCommand(postCommand)

	addCreateForumCommand(forumCommand)
	addCreateTopicCommand(forumCommand)
	addPostCloseCommand(postCommand)
	addPostApproveCommand(postCommand)
	addRefreshStatusCommand(postCommand)
}

func addCreateForumCommand(forumCommand *cobra.Command) {
	createForumCommand := &cobra.Command{
		Use:   "create",
		Short: "Create a new forum",
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			forum, err := forumdata.CreateForum(ctx, conn, title)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Created new forum with id: %d\n", forum.ID)
		},
	}
	createForumCommand.Flags().String("title", "", "")
	createForumCommand.MarkFlagRequired("title")
	forumCommand.AddCommand(createForumCommand)
}

func addCreateTopicCommand(forumCommand *cobra.Command) {
	createTopicCommand := &cobra.Command{
		Use:   "topic",
		Short: "Create a new topic in a forum",
		Run: func(cmd *cobra.Command, args []string) {
			forumID, _ := cmd.Flags().GetInt("forumid")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			icon, _ := cmd.Flags().GetString("icon")

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			topic, err := forumdata.CreateTopic(ctx, conn, forumdata.TopicInput{
				ForumID:     forumID,
				Title:       title,
				Description: description,
				Icon:        icon,
			})
			if err != nil {
				if errors.Is(err, forumdata.ErrSlugTaken) || errors.Is(err, forumdata.ErrEmptySlug) {
					fmt.Printf("Can't make a topic called '%s': %v\n", title, err)
					os.Exit(1)
				}
				panic(err)
			}

			fmt.Printf("Created topic '%s' with id %d\n", topic.Slug, topic.ID)
		},
	}
	createTopicCommand.Flags().Int("forumid", 0, "")
	createTopicCommand.Flags().String("title", "", "")
	createTopicCommand.Flags().String("description", "", "")
	createTopicCommand.Flags().String("icon", "", "Font Awesome classes, like 'fa fa-coffee'")
	createTopicCommand.MarkFlagRequired("forumid")
	createTopicCommand.MarkFlagRequired("title")
	forumCommand.AddCommand(createTopicCommand)
}

func addPostCloseCommand(postCommand *cobra.Command) {
	closeCommand := &cobra.Command{
		Use:   "close [post slug] [true/false]",
		Short: "Close a post to new comments, or reopen it",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			slug := args[0]
			closed := args[1] == "true"

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			post, err := forumdata.SetPostClosed(ctx, conn, slug, closed)
			if err != nil {
				if errors.Is(err, db.NotFound) {
					fmt.Printf("Post '%s' not found.\n\n", slug)
					os.Exit(1)
				}
				panic(err)
			}

			fmt.Printf("Post '%s' is now %s\n", post.Slug, post.State)
		},
	}
	postCommand.AddCommand(closeCommand)
}

func addPostApproveCommand(postCommand *cobra.Command) {
	approveCommand := &cobra.Command{
		Use:   "approve [post slug] [true/false]",
		Short: "Show or hide a post in topic listings",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			slug := args[0]
			approved := args[1] == "true"

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			post, err := forumdata.SetPostApproved(ctx, conn, slug, approved)
			if err != nil {
				if errors.Is(err, db.NotFound) {
					fmt.Printf("Post '%s' not found.\n\n", slug)
					os.Exit(1)
				}
				panic(err)
			}

			fmt.Printf("Successfully set %s's approved to %v\n", post.Slug, post.Approved)
		},
	}
	postCommand.AddCommand(approveCommand)
}

func addRefreshStatusCommand(postCommand *cobra.Command) {
	refreshCommand := &cobra.Command{
		Use:   "refreshstatus",
		Short: "Recompute the state and icon of every post",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			n, err := forumdata.RefreshAllPostStatuses(ctx, conn)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Updated %d posts\n", n)
		},
	}
	postCommand.AddCommand(refreshCommand)
}
