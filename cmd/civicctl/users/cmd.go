// Package userscmd implements the `civicctl users` command group (admin only).
package userscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl users`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the users command group. Without a subcommand it lists users.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
		Args:  cobra.NoArgs,
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		newCreate(ctx),
		newDelete(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	users, err := api.Users(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n Users (%d)\n\n", len(users))
	for _, user := range users {
		role := style.Dim.Render("citizen")
		if user.IsAdmin {
			role = style.Warning.Render("admin")
		}
		fmt.Fprintf(out, " %-16s %-28s %s\n", user.Username, user.Name, role)
	}
	return nil
}

func newCreate(ctx *shared.Context) *cobra.Command {
	var password, name string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a citizen account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			user, err := api.CreateUser(cmd.Context(), args[0], password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s (%s)\n", style.SuccessPrefix, user.Username, user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Initial password (min 6 characters)")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	return cmd
}

func newDelete(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account and end its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			if err := api.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", style.SuccessPrefix, args[0])
			return nil
		},
	}
}
