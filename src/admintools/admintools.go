package admintools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.hoosierptk.dev/forums/forums/src/auth"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	setPasswordCommand := &cobra.Command{
		Use:   "setpassword [username] [new password]",
		Short: "Replace a user's password",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a username and a password.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			username := args[0]
			password := args[1]

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			user, err := auth.FetchUserByUsername(ctx, conn, username)
			if err != nil {
				if errors.Is(err, auth.ErrUserDoesNotExist) {
					fmt.Printf("User '%s' not found\n", username)
					os.Exit(1)
				} else {
					panic(err)
				}
			}

			err = auth.SetPassword(ctx, conn, user.Username, password)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Successfully updated password for '%s'\n", user.Username)
		},
	}
	adminCommand.AddCommand(setPasswordCommand)

	createUserCommand := &cobra.Command{
		Use:   "createuser [username] [password]",
		Short: "Creates a new user with a profile. The password defaults to 'password'",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a username.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			username := args[0]
			password := "password"
			if len(args) > 1 {
				password = args[1]
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			user, err := forumdata.RegisterUser(ctx, conn, username, password)
			if err != nil {
				if errors.Is(err, auth.ErrUsernameTaken) {
					fmt.Printf("%s already exists. Please pick a different username.\n\n", username)
					os.Exit(1)
				}
				panic(err)
			}

			profile, err := forumdata.EnsureProfile(ctx, conn, user)
			if err != nil {
				panic(err)
			}

			fmt.Printf("New user added!\nID: %d\nUsername: %s\nPassword: %s\nProfile: %s\n", user.ID, user.Username, password, profile.Slug)
		},
	}
	adminCommand.AddCommand(createUserCommand)

	addForumCommands(adminCommand)
}
