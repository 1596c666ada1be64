// Package reportcmd implements the `civicctl report` command.
package reportcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl report`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	format string
	output string
}

// New creates the report command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "report",
		Short: "Download the analytics report as HTML or PDF",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	f := c.cmd.Flags()
	f.StringVar(&c.format, "format", "html", "Report format: html or pdf")
	f.StringVarP(&c.output, "output", "o", "", "Output file or directory (default: server-suggested name in the current directory)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	data, filename, err := api.Report(cmd.Context(), c.format)
	if err != nil {
		return err
	}

	target := filepath.Base(filename)
	if c.output != "" {
		target = c.output
		if info, err := os.Stat(c.output); err == nil && info.IsDir() {
			target = filepath.Join(c.output, filepath.Base(filename))
		}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s %s\n", style.SuccessPrefix, target, style.Dim.Render(fmt.Sprintf("(%d bytes)", len(data))))
	return nil
}
