package cli

import (
	"errors"
	"fmt"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (r *root) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Staff tools",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := r.requireLogin(cmd, args); err != nil {
				return err
			}
			if !r.app.Session.User().IsStaff {
				return errors.New("a staff account is required")
			}
			return nil
		},
	}
	cmd.AddCommand(
		r.adminDashboardCmd(),
		r.adminUsersCmd(),
		r.adminBookingsCmd(),
		r.adminBookingActionCmd("confirm", "Confirm a pending booking"),
		r.adminBookingActionCmd("complete", "Complete a confirmed booking"),
		r.adminBookingActionCmd("cancel", "Cancel a booking on the guest's behalf"),
		r.adminRefundCmd(),
	)
	return cmd
}

func (r *root) adminDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"stats"},
		Short:   "Show platform totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := r.app.API.Admin.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Users:      %d\n", s.TotalUsers)
			fmt.Fprintf(out, "Hotels:     %d\n", s.TotalProperties)
			fmt.Fprintf(out, "Bookings:   %d (pending %d, confirmed %d, cancelled %d)\n",
				s.TotalBookings, s.PendingBookings, s.ConfirmedBookings, s.CancelledBookings)
			fmt.Fprintf(out, "Revenue:    %s\n", money(s.TotalRevenue))
			return nil
		},
	}
}

func (r *root) adminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := r.app.API.Admin.Users(cmd.Context(), domain.AdminFilter{})
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "EMAIL", "NAME", "ACTIVE", "STAFF")
			for _, u := range page.Results {
				row(tw, u.ID, u.Email, u.FullName(), u.IsActive, u.IsStaff)
			}
			return tw.Flush()
		},
	}
}

func (r *root) adminBookingsCmd() *cobra.Command {
	var f domain.AdminFilter
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List every booking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := r.app.API.Admin.Bookings(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "HOTEL", "GUEST", "CHECK-IN", "CHECK-OUT", "TOTAL", "STATUS", "PAYMENT")
			for _, b := range page.Results {
				row(tw, b.ID, hotelName(b), b.User, b.CheckIn, b.CheckOut, money(b.TotalPrice),
					statusLabel(r.app.Prefs, b.Status), b.PaymentStatus)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "Filter by booking status")
	cmd.Flags().StringVar(&f.PaymentStatus, "payment", "", "Filter by payment status")
	return cmd
}

func (r *root) adminBookingActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <booking-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := domain.ID(args[0])
			bookings := r.app.API.Bookings

			var (
				b   domain.Booking
				err error
			)
			switch action {
			case "confirm":
				b, err = bookings.Confirm(ctx, id)
			case "complete":
				b, err = bookings.Complete(ctx, id)
			case "cancel":
				var res domain.CancelResult
				res, err = bookings.AdminCancel(ctx, id)
				if res.Booking != nil {
					b = *res.Booking
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booking %s: %s\n", id, statusLabel(r.app.Prefs, b.Status))
			return nil
		},
	}
}

func (r *root) adminRefundCmd() *cobra.Command {
	var amount, reason string
	cmd := &cobra.Command{
		Use:   "refund <transaction-id>",
		Short: "Refund a payment, fully or partly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.RefundRequest{Reason: reason}
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil || !d.IsPositive() {
					return errors.New("--amount must be a positive number")
				}
				req.Amount = &d
			}
			tx, err := r.app.API.Admin.Refund(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			refunded := decimal.Zero
			if tx.RefundAmount != nil {
				refunded = *tx.RefundAmount
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s: %s, refunded %s\n", tx.ID, tx.Status, money(refunded))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to refund (defaults to the full amount)")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the refund")
	return cmd
}
