package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ehr/hospital-console/internal/console"
	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/session"
)

var errNotLoggedIn = errors.New("not logged in: run hospital-console login")

func loginCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in against the backend and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			r := bufio.NewReader(c.in)
			var err error
			if email == "" {
				if email, err = prompt(r, cmd.ErrOrStderr(), "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = readPassword(c.in, r, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				s, err := app.Session.Login(ctx, session.Credentials{Email: email, Password: password})
				if err != nil {
					return err
				}
				if err := app.Session.SetSessionData(ctx, s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", s.User.DisplayName, app.Session.Role())
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when empty)")
	return cmd
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword turns echo off when in is a terminal and falls back to a plain
// line read otherwise.
func readPassword(in io.Reader, r *bufio.Reader, w io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(r, w, "Password: ")
	}
	fmt.Fprint(w, "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				if err := app.Session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				u := app.Session.CurrentUser()
				if u == nil || !app.Session.IsAuthenticated(ctx) {
					return errNotLoggedIn
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %s\n", "ID", u.ID)
				fmt.Fprintf(out, "%-10s %s\n", "NAME", u.DisplayName)
				fmt.Fprintf(out, "%-10s %s\n", "EMAIL", u.Email)
				fmt.Fprintf(out, "%-10s %s\n", "ROLE", u.Role)

				token, err := app.Session.Token(ctx)
				if err != nil {
					return err
				}
				if info, err := session.ParseTokenInfo(token); err == nil && !info.ExpiresAt.IsZero() {
					state := "valid"
					if info.Expired(time.Now()) {
						state = "expired"
					}
					fmt.Fprintf(out, "%-10s %s (%s)\n", "EXPIRES", info.ExpiresAt.Local().Format(time.RFC3339), state)
				}
				return nil
			})
		},
	}
}

func menuCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the sections visible to the current role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				if !app.Session.IsAuthenticated(ctx) {
					return errNotLoggedIn
				}
				for _, item := range auth.Menu(app.Session.Role()) {
					fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", item.Path, item.Title)
				}
				return nil
			})
		},
	}
}

// requireRoute applies the same guard as the console server.
func requireRoute(ctx context.Context, app *console.App, route string) error {
	if !app.Session.IsAuthenticated(ctx) {
		return errNotLoggedIn
	}
	if !app.Session.CanAccess(route) {
		return fmt.Errorf("route %s not allowed for role %q", route, app.Session.Role())
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
