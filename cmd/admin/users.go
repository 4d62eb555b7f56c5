package main

import (
	"fmt"
	"io"
	"time"

	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/internal/app"
	"bazaar/backend/internal/config"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/moderation"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect and provision users",
}

var userStandingCmd = &cobra.Command{
	Use:   "standing <userId>",
	Short: "Show warnings and whether a suspension is in force",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := time.Now().UTC()
		if raw, _ := cmd.Flags().GetString("at"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errors.Wrap(err, "--at")
			}
			at = parsed
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			u, err := a.Store.GetUserByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeStanding(cmd.OutOrStdout(), u, moderation.ExpiryPolicy{}, at)
			return nil
		})
	},
}

var userUpsertCmd = &cobra.Command{
	Use:   "upsert <userId>",
	Short: "Create or replace a user record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		u := &models.User{ID: args[0]}
		u.Name, _ = flags.GetString("name")
		role, _ := flags.GetString("role")
		u.Role = models.Role(role)
		u.LanguageCode, _ = flags.GetString("lang")
		u.TelegramChatID, _ = flags.GetInt64("telegram-chat")
		if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
			return fmt.Errorf("unknown role %q", role)
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := a.Store.UpsertUser(cmd.Context(), u); err != nil {
				return err
			}
			return printJSON(u)
		})
	},
}

var userClearBanCmd = &cobra.Command{
	Use:   "clear-ban <userId>",
	Short: "Drop the cached suspension of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if a.Bans == nil {
				return errors.New("REDIS_ADDR is not set; there is no ban cache")
			}
			return a.Bans.Clear(cmd.Context(), args[0])
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <userId>",
	Short: "Mint a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		token, err := middleware.IssueToken(cfg.JWTSecret, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func writeStanding(w io.Writer, u *models.User, checker moderation.SuspensionChecker, at time.Time) {
	s := u.Standing
	fmt.Fprintf(w, "user:      %s (%s)\n", u.ID, u.Role)
	fmt.Fprintf(w, "warnings:  %d/%d\n", s.WarningCount, config.MaxWarnings)
	if !s.IsSuspended {
		fmt.Fprintln(w, "suspended: no")
		return
	}
	until := "indefinitely"
	if s.SuspensionEndDate != nil {
		until = "until " + s.SuspensionEndDate.UTC().Format(time.RFC3339)
	}
	state := "lapsed"
	if checker.IsCurrentlySuspended(u, at) {
		state = "in force"
	}
	fmt.Fprintf(w, "suspended: %s, %s (%s)\n", until, state, s.SuspensionReason)
}

func init() {
	userStandingCmd.Flags().String("at", "", "judge expiry at this RFC3339 time instead of now")

	userUpsertCmd.Flags().String("name", "", "display name")
	userUpsertCmd.Flags().String("role", string(models.RoleUser), "user or admin")
	userUpsertCmd.Flags().String("lang", "", "language code for notifications")
	userUpsertCmd.Flags().Int64("telegram-chat", 0, "linked Telegram chat id")

	tokenCmd.Flags().Duration("ttl", 72*time.Hour, "token lifetime")

	userCmd.AddCommand(userStandingCmd, userUpsertCmd, userClearBanCmd)
}
