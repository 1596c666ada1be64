// Package rootcmd wires the root cobra.Command for the civicctl binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	analyticscmd "civicvoice/api/cmd/civicctl/analytics"
	auditcmd "civicvoice/api/cmd/civicctl/audit"
	chatcmd "civicvoice/api/cmd/civicctl/chat"
	issuescmd "civicvoice/api/cmd/civicctl/issues"
	leaderboardcmd "civicvoice/api/cmd/civicctl/leaderboard"
	logincmd "civicvoice/api/cmd/civicctl/login"
	logoutcmd "civicvoice/api/cmd/civicctl/logout"
	reportcmd "civicvoice/api/cmd/civicctl/report"
	"civicvoice/api/cmd/civicctl/shared"
	userscmd "civicvoice/api/cmd/civicctl/users"
)

// New creates and returns the root cobra.Command for civicctl.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "civicctl",
		Short:         "Operate a CivicVoice server from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.ProfilePath, "profile", "",
		"Profile file (default: $CIVICCTL_PROFILE env → ~/.civicctl.yaml)",
	)
	root.PersistentFlags().StringVar(
		&ctx.Server, "server", "",
		"Server URL, overriding the profile (default "+shared.DefaultServer+")",
	)

	root.AddCommand(
		logincmd.New(ctx).Cmd(),
		logoutcmd.New(ctx).Cmd(),
		issuescmd.New(ctx).Cmd(),
		analyticscmd.New(ctx).Cmd(),
		leaderboardcmd.New(ctx).Cmd(),
		reportcmd.New(ctx).Cmd(),
		chatcmd.New(ctx).Cmd(),
		userscmd.New(ctx).Cmd(),
		auditcmd.New(ctx).Cmd(),
	)

	return root
}
