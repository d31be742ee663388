package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
	"cinema-booking-cli/store"
)

var errNotSignedIn = errors.New("not signed in, run `cinema login` first")

func newLoginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			var err error
			if username == "" {
				if username, err = promptUsername(); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			tokens, err := a.client.Login(ctx, strings.TrimSpace(username), password)
			if err != nil {
				if service.IsUnauthorized(err) {
					return errors.New("wrong username or password")
				}
				return err
			}
			if err := store.SaveSession(tokens); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			a.sess = session.New(tokens)

			user, err := a.client.Me(ctx, a.sess)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", user.Username)

			if p, ok, _ := store.PeekPending(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "You have %d seat(s) waiting for screening %s. Run `cinema resume` to book them.\n", len(p.SeatIDs), p.ScreeningID)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func promptUsername() (string, error) {
	prompt := promptui.Prompt{
		Label: "Username",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("username is required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := store.ClearSession(); err != nil {
				return err
			}
			a.sess.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.sess.Authenticated() {
				return errNotSignedIn
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			user, err := a.client.Me(ctx, a.sess)
			if err != nil {
				if service.IsUnauthorized(err) {
					return errors.New("session expired, run `cinema login` again")
				}
				return err
			}
			role := "customer"
			if user.IsAdmin() {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, role)
			return nil
		}),
	}
}
