package cli

import (
	"errors"
	"fmt"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/spf13/cobra"
)

// requireLogin is a PersistentPreRunE for command groups that only make sense
// signed in.
func (r *root) requireLogin(cmd *cobra.Command, args []string) error {
	if err := r.setup(cmd, args); err != nil {
		return err
	}
	_, err := r.app.RequireLogin(cmd.Context())
	return err
}

func (r *root) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your bookings and unread notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snap, err := r.app.RequireLogin(ctx)
			if err != nil {
				return err
			}
			d, err := r.app.API.Dashboard(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s\n", r.app.Prefs.T("dashboard.welcome"), snap.User.DisplayName())
			fmt.Fprintln(out, r.app.Prefs.T("dashboard.manage"))
			fmt.Fprintf(out, "%d %s\n\n", d.Unread, r.app.Prefs.T("dashboard.unread"))

			tw := newTable(out, "ID", "HOTEL", "CHECK-IN", "CHECK-OUT", "TOTAL", "STATUS")
			for _, b := range d.Bookings {
				row(tw, b.ID, hotelName(b), b.CheckIn, b.CheckOut, money(b.TotalPrice), statusLabel(r.app.Prefs, b.Status))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, n := range d.Notifications {
				fmt.Fprintf(out, "* %s: %s\n", n.Title, n.Message)
			}
			return nil
		},
	}
}

func (r *root) notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "notifications",
		Aliases:           []string{"notes"},
		Short:             "Read your notifications",
		PersistentPreRunE: r.requireLogin,
	}

	var unread bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f domain.NotificationFilter
			if unread {
				isRead := false
				f.IsRead = &isRead
			}
			page, err := r.app.API.Notifications.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "", "TITLE", "MESSAGE", "WHEN")
			for _, n := range page.Results {
				mark := ""
				if !n.IsRead {
					mark = "*"
				}
				when := n.TimeAgo
				if when == "" {
					when = n.CreatedAt.Format("2006-01-02 15:04")
				}
				row(tw, n.ID, mark, n.Title, n.Message, when)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")

	var all bool
	read := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case all:
				if err := r.app.API.Notifications.MarkAllRead(ctx); err != nil {
					return err
				}
			case len(args) == 1:
				if err := r.app.API.Notifications.MarkRead(ctx, domain.ID(args[0])); err != nil {
					return err
				}
			default:
				return errors.New("give a notification id or --all")
			}
			n, err := r.app.API.Notifications.UnreadCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", n, r.app.Prefs.T("dashboard.unread"))
			return nil
		},
	}
	read.Flags().BoolVar(&all, "all", false, "Mark every notification as read")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.API.Notifications.Delete(cmd.Context(), domain.ID(args[0]))
		},
	}

	cmd.AddCommand(list, read, remove)
	return cmd
}

func (r *root) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "favorites",
		Aliases:           []string{"fav"},
		Short:             "Manage favorite hotels",
		PersistentPreRunE: r.requireLogin,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite hotels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			favs, err := r.app.API.Favorites.List(cmd.Context())
			if err != nil {
				return err
			}
			props := make([]domain.Property, 0, len(favs))
			for _, f := range favs {
				if f.PropertyDetails != nil {
					props = append(props, *f.PropertyDetails)
				} else {
					props = append(props, domain.Property{ID: f.Property})
				}
			}
			printProperties(cmd.OutOrStdout(), props)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <hotel-id>",
		Short: "Add a hotel to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := r.app.API.Favorites.Add(cmd.Context(), domain.ID(args[0]))
			return err
		},
	}

	remove := &cobra.Command{
		Use:   "remove <hotel-id>",
		Short: "Remove a hotel from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.API.Favorites.Remove(cmd.Context(), domain.ID(args[0]))
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
