// Package analyticscmd implements the `civicctl analytics` command.
package analyticscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

const barWidth = 30

// Command implements `civicctl analytics`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the analytics command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "analytics",
		Short: "Show the analytics dashboard",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	a, err := api.Analytics(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n %s\n\n", style.Bold.Render("CivicVoice Analytics"))
	fmt.Fprintf(out, " Total issues     %d\n", a.Total)
	fmt.Fprintf(out, " Resolution rate  %d%% (%d resolved)\n", a.ResolutionRate, a.ResolvedCount)
	fmt.Fprintf(out, " Votes            %d total, %d average\n", a.TotalVotes, a.AverageVotes)
	fmt.Fprintf(out, " Reach            %d reporters, %d locations, %d cities\n",
		a.DistinctReporters, a.DistinctLocations, a.DistinctCities)

	fmt.Fprintf(out, "\n %s\n", style.Bold.Render("By status"))
	for _, s := range a.ByStatus {
		fmt.Fprintf(out, "   %-22s %3d  %3d%%\n", style.Status(string(s.Status)), s.Count, s.Percent)
	}

	fmt.Fprintf(out, "\n %s\n", style.Bold.Render("By category"))
	for _, cat := range a.ByCategory {
		width := 0
		if a.MaxCategoryCount > 0 {
			width = cat.Count * barWidth / a.MaxCategoryCount
		}
		fmt.Fprintf(out, "   %-10s %s %d\n", cat.Category, style.Bar(width, barWidth), cat.Count)
	}

	if len(a.TopVoted) > 0 {
		fmt.Fprintf(out, "\n %s\n", style.Bold.Render("Top voted"))
		for _, issue := range a.TopVoted {
			fmt.Fprintf(out, "   #%-4d %-40s %d votes\n", issue.ID, issue.Title, issue.Votes)
		}
	}
	if len(a.MostRecent) > 0 {
		fmt.Fprintf(out, "\n %s\n", style.Bold.Render("Most recent"))
		for _, issue := range a.MostRecent {
			fmt.Fprintf(out, "   #%-4d %-40s %s\n", issue.ID, issue.Title, style.Dim.Render(issue.Date))
		}
	}
	return nil
}
