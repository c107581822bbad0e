package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehr/hospital-console/internal/console"
	"github.com/ehr/hospital-console/internal/domain/dashboard"
	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/pkg/pagination"
)

// entry resolves route and checks the session may open it.
func entry(ctx context.Context, app *console.App, route string) (console.Entry, error) {
	e, err := app.Registry().Lookup(strings.ToLower(route))
	if err != nil {
		return console.Entry{}, err
	}
	if err := requireRoute(ctx, app, e.Route); err != nil {
		return console.Entry{}, err
	}
	return e, nil
}

func parseFilters(raw []string) (url.Values, error) {
	q := url.Values{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("filter %q must be key=value", kv)
		}
		q.Add(k, v)
	}
	return q, nil
}

func listCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List one page of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			limit, _ := cmd.Flags().GetInt("limit")
			sort, _ := cmd.Flags().GetString("sort")
			order, _ := cmd.Flags().GetString("order")
			raw, _ := cmd.Flags().GetStringArray("filter")

			if limit > pagination.MaxLimit {
				limit = pagination.MaxLimit
			}
			p := pagination.Params{Page: page, Limit: limit, Sort: sort, Order: strings.ToLower(order)}
			if err := p.Validate(); err != nil {
				return err
			}
			q, err := parseFilters(raw)
			if err != nil {
				return err
			}

			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				e, err := entry(ctx, app, args[0])
				if err != nil {
					return err
				}
				out, err := e.List(ctx, p, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().Int("page", pagination.DefaultPage, "Page number, from 1")
	cmd.Flags().Int("limit", pagination.DefaultLimit, "Page size")
	cmd.Flags().String("sort", "", "Sort field")
	cmd.Flags().String("order", "", "Sort order: asc or desc")
	cmd.Flags().StringArrayP("filter", "f", nil, "Filter as key=value, repeatable")
	return cmd
}

func getCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				e, err := entry(ctx, app, args[0])
				if err != nil {
					return err
				}
				out, err := e.Get(ctx, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

// idCmd builds delete, reactivate and purge, which differ only in the Entry
// func they call.
func idCmd(c *cli, use, short, done string, pick func(console.Entry) func(context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <resource> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				e, err := entry(ctx, app, args[0])
				if err != nil {
					return err
				}
				fn := pick(e)
				if fn == nil {
					return fmt.Errorf("%s does not support %s", e.Route, use)
				}
				if err := fn(ctx, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", e.Route, args[1], done)
				return nil
			})
		},
	}
}

func deleteCmd(c *cli) *cobra.Command {
	return idCmd(c, "delete", "Delete a record (deactivates soft-delete resources)", "deleted",
		func(e console.Entry) func(context.Context, string) error { return e.Delete })
}

func reactivateCmd(c *cli) *cobra.Command {
	return idCmd(c, "reactivate", "Reactivate a deactivated record", "reactivated",
		func(e console.Entry) func(context.Context, string) error { return e.Reactivate })
}

func purgeCmd(c *cli) *cobra.Command {
	return idCmd(c, "purge", "Permanently delete a record", "purged",
		func(e console.Entry) func(context.Context, string) error { return e.Purge })
}

func dashboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *console.App) error {
				if err := requireRoute(ctx, app, auth.RouteDashboard); err != nil {
					return err
				}
				summary := dashboard.Summary{
					Admin:    app.Session.IsAdmin(),
					Consumer: app.Session.IsConsumer(),
				}
				if summary.Admin {
					stats, err := app.Dashboard.Stats(ctx)
					if err != nil {
						return err
					}
					summary.Stats = stats
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}
