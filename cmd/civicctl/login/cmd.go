// Package logincmd implements the `civicctl login` command.
package logincmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	password string
	register bool
	fullName string
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session in the profile",
		Long: "Sign in to the server and store the token pair in the profile.\n" +
			"The password is read from --password or, when omitted, from the first line of stdin.",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.password, "password", "", "Password (default: read from stdin)")
	f.BoolVar(&c.register, "register", false, "Create a citizen account first")
	f.StringVar(&c.fullName, "name", "", "Full name for --register")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	password := c.password
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("password required (use --password or pipe it on stdin)")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	api, profile, err := c.ctx.Client()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if c.register {
		_, err = api.Register(ctx, args[0], password, c.fullName)
	} else {
		_, err = api.Login(ctx, args[0], password)
	}
	if err != nil {
		return err
	}
	sess, err := api.Session(ctx)
	if err != nil {
		return err
	}

	tokens := api.Tokens()
	profile.AccessToken = tokens.Access
	profile.RefreshToken = tokens.Refresh
	if sess.User != nil {
		profile.Username = sess.User.Username
	}
	if err := c.ctx.SaveProfile(profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	name := args[0]
	if sess.User != nil {
		name = sess.User.Name
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Signed in as %s %s\n", style.SuccessPrefix, style.Bold.Render(name), style.Dim.Render("("+sess.Role+")"))
	return nil
}
