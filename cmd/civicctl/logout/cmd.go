// Package logoutcmd implements the `civicctl logout` command.
package logoutcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/client"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl logout`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the logout command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored tokens",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	api, profile, err := c.ctx.Client()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !profile.LoggedIn() {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	// An expired server session still gets cleared locally.
	if err := api.Logout(cmd.Context()); err != nil && !client.IsUnauthorized(err) {
		return err
	}
	profile.ClearTokens()
	if err := c.ctx.SaveProfile(profile); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Logged out\n", style.SuccessPrefix)
	return nil
}
