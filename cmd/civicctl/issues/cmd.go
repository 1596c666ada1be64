// Package issuescmd implements the `civicctl issues` command group.
package issuescmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"civicvoice/api/cmd/civicctl/shared"
	"civicvoice/api/internal/client"
	"civicvoice/api/internal/style"
)

// Command implements `civicctl issues`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	category string
	status   string
	sort     string
}

// New creates the issues command group. Without a subcommand it lists issues.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "List, inspect and act on reported issues",
		Args:    cobra.NoArgs,
		RunE:    c.runList,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.category, "category", "", "Filter by category (Roads, Lighting, Waste, Parks, Other)")
	f.StringVar(&c.status, "status", "", "Filter by status (Open, In Progress, Resolved)")
	f.StringVar(&c.sort, "sort", "", "Sort by votes or date (default: newest first)")

	c.cmd.AddCommand(
		newShow(ctx),
		newSubmit(ctx),
		newVote(ctx),
		newVerify(ctx),
		newStatus(ctx),
		newComment(ctx),
		newSearch(ctx),
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
	issues, err := api.Issues(cmd.Context(), client.ListFilter{Category: c.category, Status: c.status, Sort: c.sort})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(issues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}
	fmt.Fprintf(out, "\n Issues (%d)\n\n", len(issues))
	for _, issue := range issues {
		printIssueLine(out, issue)
	}
	return nil
}

func printIssueLine(out io.Writer, issue client.Issue) {
	verified := ""
	if issue.CommunityVerified {
		verified = " " + style.SuccessPrefix
	}
	fmt.Fprintf(out, " #%-4d %s%s\n", issue.ID, style.Bold.Render(issue.Title), verified)
	fmt.Fprintf(out, "       %s | %s | %d votes | %s | %s\n",
		style.Status(issue.Status), issue.Category, issue.Votes, issue.Location, style.Dim.Render(issue.Date))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", raw)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// issues show
// ---------------------------------------------------------------------------

func newShow(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			detail, err := api.Issue(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			issue := detail.Issue
			fmt.Fprintln(out)
			printIssueLine(out, issue)
			fmt.Fprintf(out, "\n %s\n", issue.Description)
			fmt.Fprintf(out, "\n Reported by %s | %d verifications", issue.ReporterName, issue.Verifications)
			if detail.VerifiedByMe {
				fmt.Fprint(out, " (including you)")
			}
			fmt.Fprintln(out)
			if gov := issue.GovResponse; gov != nil {
				fmt.Fprintf(out, "\n %s %s, %s\n", style.ArrowPrefix, style.Bold.Render(gov.Department), gov.Official)
				fmt.Fprintf(out, "   %s\n", gov.Response)
				if gov.EstimatedResolution != "" {
					fmt.Fprintf(out, "   %s\n", style.Dim.Render("Estimated resolution: "+gov.EstimatedResolution))
				}
			}
			if len(detail.Comments) > 0 {
				fmt.Fprintf(out, "\n Comments (%d)\n", len(detail.Comments))
				for _, comment := range detail.Comments {
					fmt.Fprintf(out, "   %s %s\n", style.Bold.Render(comment.Author+":"), comment.Text)
				}
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// issues submit
// ---------------------------------------------------------------------------

func newSubmit(ctx *shared.Context) *cobra.Command {
	var (
		input    client.NewIssue
		lat, lng float64
		hasCoord bool
	)
	cmd := &cobra.Command{
		Use:   "submit <title>",
		Short: "Report a new issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Title = args[0]
			hasCoord = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			if hasCoord {
				if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
					return errors.New("--lat and --lng must be given together")
				}
				input.Coordinates = &client.Coordinates{Lat: lat, Lng: lng}
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			issue, err := api.SubmitIssue(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Reported issue #%d: %s\n", style.SuccessPrefix, issue.ID, issue.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&input.Category, "category", "Other", "Category (Roads, Lighting, Waste, Parks, Other)")
	f.StringVar(&input.Description, "description", "", "Description")
	f.StringVar(&input.Location, "location", "", "Location")
	f.StringSliceVar(&input.Images, "image", nil, "Image data URL (repeatable)")
	f.Float64Var(&lat, "lat", 0, "Latitude")
	f.Float64Var(&lng, "lng", 0, "Longitude")
	return cmd
}

// ---------------------------------------------------------------------------
// issues vote / verify / status / comment
// ---------------------------------------------------------------------------

func newVote(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id>",
		Short: "Upvote an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			issue, err := api.Vote(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Issue #%d now has %d votes\n", style.SuccessPrefix, issue.ID, issue.Votes)
			return nil
		},
	}
}

func newVerify(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Confirm an issue exists (once per user)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			result, err := api.Verify(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.Changed {
				fmt.Fprintf(out, "%s You already verified issue #%d\n", style.WarningPrefix, id)
				return nil
			}
			fmt.Fprintf(out, "%s Verified issue #%d (%d verifications)\n", style.SuccessPrefix, id, result.Issue.Verifications)
			return nil
		},
	}
}

func newStatus(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set an issue's status (Open, In Progress, Resolved)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			// Accept an unquoted "In Progress".
			issue, err := api.SetStatus(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Issue #%d is now %s\n", style.SuccessPrefix, issue.ID, style.Status(issue.Status))
			return nil
		},
	}
}

func newComment(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			comment, err := api.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if comment == nil {
				fmt.Fprintln(out, "Nothing to post.")
				return nil
			}
			fmt.Fprintf(out, "%s Comment added to issue #%d\n", style.SuccessPrefix, id)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// issues search
// ---------------------------------------------------------------------------

func newSearch(ctx *shared.Context) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over issues",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.Client()
			if err != nil {
				return err
			}
			resp, err := api.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No results found.")
				return nil
			}
			fmt.Fprintf(out, "\n Results (%d found) %s\n", resp.Total, style.Dim.Render("via "+resp.Backend))
			for i, r := range resp.Results {
				fmt.Fprintf(out, "\n [%d] #%d %s\n", i+1, r.ID, style.Bold.Render(r.Title))
				fmt.Fprintf(out, "     %s | %s | %s\n", style.Status(r.Status), r.Category, r.Location)
				if r.Snippet != "" {
					fmt.Fprintf(out, "     %s\n", r.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}
