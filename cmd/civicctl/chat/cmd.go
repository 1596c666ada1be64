// Package chatcmd implements the `civicctl chat` command.
package chatcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/client"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl chat`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	wait time.Duration
	poll time.Duration
}

// New creates the chat command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx, poll: 200 * time.Millisecond}
	c.cmd = &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the help-desk assistant",
		Long: "With a message argument, asks one question and prints the reply.\n" +
			"Without one, reads questions line by line from stdin until EOF or /quit.",
		RunE: c.run,
	}
	c.cmd.Flags().DurationVar(&c.wait, "wait", 10*time.Second, "How long to wait for each reply")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	api, _, err := c.ctx.Client()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	chat, err := api.OpenChat(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = api.CloseChat(context.WithoutCancel(ctx), chat.ID) }()

	out := cmd.OutOrStdout()
	seen := printNew(out, chat.Messages, 0)

	if len(args) > 0 {
		_, err := c.ask(ctx, api, out, chat.ID, strings.Join(args, " "), seen)
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, style.ArrowPrefix+" ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		seen, err = c.ask(ctx, api, out, chat.ID, line, seen)
		if err != nil {
			return err
		}
	}
}

// ask sends text and waits until the transcript has no scheduled replies.
func (c *Command) ask(ctx context.Context, api *client.Client, out io.Writer, chatID, text string, seen int) (int, error) {
	if _, err := api.SendChat(ctx, chatID, text); err != nil {
		return seen, err
	}
	// The user's own line is already on screen.
	seen++

	deadline := time.Now().Add(c.wait)
	for {
		transcript, err := api.ChatTranscript(ctx, chatID)
		if err != nil {
			return seen, err
		}
		if transcript.Pending == 0 {
			return printNew(out, transcript.Messages, seen), nil
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(out, "%s No reply yet\n", style.WarningPrefix)
			return printNew(out, transcript.Messages, seen), nil
		}
		select {
		case <-ctx.Done():
			return seen, ctx.Err()
		case <-time.After(c.poll):
		}
	}
}

// printNew prints bot messages after the first seen entries and returns the
// new count.
func printNew(out io.Writer, messages []client.ChatMessage, seen int) int {
	for _, msg := range messages[min(seen, len(messages)):] {
		if msg.Role == "bot" {
			fmt.Fprintf(out, "%s %s\n", style.Info.Render("assistant:"), msg.Text)
		}
	}
	return len(messages)
}
