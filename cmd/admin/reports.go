package main

import (
	"bazaar/backend/internal/app"
	"bazaar/backend/internal/moderation"

	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Work the report queue",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports by status, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reviewer, _ := cmd.Flags().GetString("reviewer")
		status, _ := cmd.Flags().GetString("status")
		return withApp(cmd.Context(), func(a *app.App) error {
			reports, err := a.Engine.ListReports(cmd.Context(), reviewer, status)
			if err != nil {
				return err
			}
			return printJSON(reports)
		})
	},
}

var reportsResolveCmd = &cobra.Command{
	Use:   "resolve <reportId>",
	Short: "Resolve a pending report with an enforcement action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		reviewer, _ := flags.GetString("reviewer")
		req := moderation.ResolveRequest{}
		req.Action, _ = flags.GetString("action")
		req.AdminNotes, _ = flags.GetString("notes")
		req.CustomMessage, _ = flags.GetString("message")

		return withApp(cmd.Context(), func(a *app.App) error {
			outcome, err := a.Engine.ResolveReport(cmd.Context(), args[0], reviewer, req)
			if err != nil {
				return err
			}
			return printJSON(outcome)
		})
	},
}

func init() {
	reportsCmd.PersistentFlags().String("reviewer", "", "id of the admin user acting as reviewer")
	_ = reportsCmd.MarkPersistentFlagRequired("reviewer")

	reportsListCmd.Flags().String("status", "pending", "pending, reviewed, resolved or dismissed")

	reportsResolveCmd.Flags().String("action", "", "warning, remove_listing, suspend_user, no_action or dismiss")
	reportsResolveCmd.Flags().String("notes", "", "internal reviewer notes")
	reportsResolveCmd.Flags().String("message", "", "note appended to the user notification")
	_ = reportsResolveCmd.MarkFlagRequired("action")

	reportsCmd.AddCommand(reportsListCmd, reportsResolveCmd)
}
