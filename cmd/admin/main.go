// Command admin manages the users and groups of a yatube database.
//
// The web server never creates users or groups; this tool does, against the
// same store the server uses (DB_PATH or DATABASE_URL, .env is honoured).
//
//	go run ./cmd/admin user create --username nemo --password 'long secret'
//	go run ./cmd/admin group create --title Cats --slug cats --description "All about cats"
//	go run ./cmd/admin group list
//	go run ./cmd/admin group delete cats
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/config"
	"github.com/sakif/yatube/internal/service"
	"github.com/sakif/yatube/internal/store"
)

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr}
	err := a.rootCmd().Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds what the subcommands share. The store is opened lazily by the
// root command's PersistentPreRunE so that --help works without a database.
type app struct {
	out    io.Writer
	errOut io.Writer

	store  *store.Store
	users  *service.UserService
	groups *service.GroupService
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) rootCmd() *cobra.Command {
	// main prints the error; usage is noise after a failed insert.
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage yatube users and groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.AddCommand(a.userCmd(), a.groupCmd())
	return root
}

func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))

	st, err := store.Open(ctx, store.Config{DBPath: cfg.DBPath, DatabaseURL: cfg.DatabaseURL}, logger)
	if err != nil {
		return err
	}

	a.store = st
	a.users = service.NewUserService(st.Users, auth.NewPasswordService(), logger)
	a.groups = service.NewGroupService(st.Groups, logger)
	return nil
}

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user who can log in with a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.users.Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name (letters, digits and @.+-_)")
	create.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	create.MarkFlagRequired("username")
	create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func (a *app) groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	var title, slug, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := a.groups.Create(cmd.Context(), title, slug, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created group %s (id %d)\n", group.Slug, group.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "display title, at most 200 characters")
	create.Flags().StringVar(&slug, "slug", "", "URL name, letters, digits, - and _")
	create.Flags().StringVar(&description, "description", "", "longer description shown on the group page")
	create.MarkFlagRequired("title")
	create.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.groups.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts stay, without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.groups.DeleteBySlug(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted group %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}
