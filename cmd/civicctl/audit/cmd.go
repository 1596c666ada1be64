// Package auditcmd implements the `civicctl audit` command.
package auditcmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl audit`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	limit int
}

// New creates the audit command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit events (admin)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().IntVar(&c.limit, "limit", 20, "Maximum number of events")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	events, err := api.Audit(cmd.Context(), c.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No audit events recorded.")
		return nil
	}
	for _, event := range events {
		subject := ""
		if event.IssueID != 0 {
			subject = fmt.Sprintf(" #%d", event.IssueID)
		}
		fmt.Fprintf(out, " %s %-16s %s%s %s\n",
			style.Dim.Render(event.OccurredAt), event.Type, event.ActorName, subject, formatDetail(event.Detail))
	}
	return nil
}

func formatDetail(detail map[string]string) string {
	if len(detail) == 0 {
		return ""
	}
	keys := make([]string, 0, len(detail))
	for key := range detail {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+detail[key])
	}
	return style.Dim.Render(strings.Join(parts, " "))
}
