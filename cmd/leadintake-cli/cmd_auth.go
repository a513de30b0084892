package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/leadintake/client"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	var noSave bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Run: func(cmd *cobra.Command, args []string) {
			if password == "" {
				password = os.Getenv("LEADINTAKE_PASSWORD")
			}
			if password == "" {
				fatal("login", fmt.Errorf("--password or LEADINTAKE_PASSWORD is required"))
			}
			session, err := apiClient.Auth.Login(context.Background(), email, password)
			if wait, locked := lockedOut(err); locked {
				fatal("login", fmt.Errorf("too many failed attempts for %s, try again in %s", email, wait))
			}
			if err != nil {
				fatal("login", err)
			}
			if !noSave {
				path, err := saveSession(flagURL, session.Token)
				if err != nil {
					fatal("save session", err)
				}
				fmt.Fprintf(os.Stderr, "Signed in as %s, token saved to %s\n", session.User.Email, path)
			}
			output(session, session.Token)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (env: LEADINTAKE_PASSWORD)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the token without saving it")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// lockedOut reports whether err is a sign-in lockout and how long it lasts.
func lockedOut(err error) (time.Duration, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !client.IsRateLimited(err) {
		return 0, false
	}

	return apiErr.RetryAfter, true
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Run: func(cmd *cobra.Command, args []string) {
			me, err := apiClient.Auth.Me(context.Background())
			if err != nil {
				fatal("whoami", err)
			}
			output(me, me.Email)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			if flagFmt == "table" {
				formatTable(
					[]string{"STATUS", "VERSION", "DATABASE", "UPTIME"},
					[][]string{{resp.Status, resp.Version, resp.Database, fmt.Sprintf("%.0fs", resp.UptimeSeconds)}},
				)
				return
			}
			output(resp, resp.Status)
		},
	}
}
