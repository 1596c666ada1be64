// Package leaderboardcmd implements the `civicctl leaderboard` command.
package leaderboardcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl leaderboard`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	limit int
}

// New creates the leaderboard command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank reporters by issues reported",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().IntVar(&c.limit, "limit", 10, "Maximum number of rows (0 for all)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	entries, err := api.Leaderboard(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No reporters yet.")
		return nil
	}
	if c.limit > 0 && len(entries) > c.limit {
		entries = entries[:c.limit]
	}
	fmt.Fprintf(out, "\n %-4s %-24s %7s %7s %9s\n", "#", "Reporter", "Issues", "Votes", "Resolved")
	for i, entry := range entries {
		name := entry.Name
		if i == 0 {
			name = style.Success.Render(fmt.Sprintf("%-24s", name))
		} else {
			name = fmt.Sprintf("%-24s", name)
		}
		fmt.Fprintf(out, " %-4d %s %7d %7d %9d\n", i+1, name, entry.IssuesReported, entry.TotalVotes, entry.ResolvedCount)
	}
	return nil
}
