package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/spf13/cobra"
)

func (r *root) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "bookings",
		Aliases:           []string{"booking"},
		Short:             "Manage your bookings",
		PersistentPreRunE: r.requireLogin,
	}
	cmd.AddCommand(
		r.bookingsListCmd(),
		r.bookingsShowCmd(),
		r.bookingsCancelCmd(),
		r.bookingsReceiptCmd(),
		r.bookingsConfirmCmd(),
	)
	return cmd
}

func (r *root) bookingsListCmd() *cobra.Command {
	var status, payment string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your bookings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f domain.BookingFilter
			if status != "" {
				s, ok := domain.ParseBookingStatus(status)
				if !ok {
					return fmt.Errorf("unknown booking status %q", status)
				}
				f.Status = s
			}
			if payment != "" {
				s, ok := domain.ParsePaymentStatus(payment)
				if !ok {
					return fmt.Errorf("unknown payment status %q", payment)
				}
				f.PaymentStatus = s
			}
			page, err := r.app.API.Bookings.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "HOTEL", "CHECK-IN", "CHECK-OUT", "GUESTS", "TOTAL", "STATUS", "PAYMENT")
			for _, b := range page.Results {
				row(tw, b.ID, hotelName(b), b.CheckIn, b.CheckOut, b.Guests, money(b.TotalPrice),
					statusLabel(r.app.Prefs, b.Status), b.PaymentStatus)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by booking status")
	cmd.Flags().StringVar(&payment, "payment", "", "Filter by payment status")
	return cmd
}

func hotelName(b domain.Booking) string {
	if b.PropertyDetails != nil && b.PropertyDetails.Title != "" {
		return b.PropertyDetails.Title
	}
	return b.Property.String()
}

func (r *root) bookingsShowCmd() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := r.app.API.Bookings.Get(ctx, domain.ID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Booking:  %s\n", b.ID)
			fmt.Fprintf(out, "Hotel:    %s\n", hotelName(b))
			fmt.Fprintf(out, "Stay:     %s to %s, %d guest(s)\n", b.CheckIn, b.CheckOut, b.Guests)
			fmt.Fprintf(out, "Total:    %s\n", money(b.TotalPrice))
			fmt.Fprintf(out, "Status:   %s\n", statusLabel(r.app.Prefs, b.Status))
			fmt.Fprintf(out, "Payment:  %s\n", b.PaymentStatus)
			if b.RefundAmount != nil {
				fmt.Fprintf(out, "Refund:   %s\n", money(*b.RefundAmount))
			}

			var actions []string
			if b.CanPay() {
				actions = append(actions, "pay")
			}
			if b.CanCancel() {
				actions = append(actions, "cancel")
			}
			if b.CanComplete() {
				actions = append(actions, "complete")
			}
			if len(actions) > 0 {
				fmt.Fprintf(out, "Actions:  %s\n", strings.Join(actions, ", "))
			}

			if !history {
				return nil
			}
			entries, err := r.app.API.Notifications.StatusHistory(ctx, b.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			tw := newTable(out, "WHEN", "FROM", "TO", "BY", "REASON")
			for _, h := range entries {
				row(tw, h.CreatedAt.Format("2006-01-02 15:04"), h.OldStatus, h.NewStatus, h.ChangedByName, h.Reason)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Include the status history")
	return cmd
}

func (r *root) bookingsCancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.app.API.Bookings.Cancel(cmd.Context(), domain.ID(args[0]), reason)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.app.Prefs.T("booking.cancel_success"))
			if res.RefundAmount != nil {
				fmt.Fprintf(out, "Refund:    %s\n", money(*res.RefundAmount))
			}
			if res.DeductionAmount != nil {
				fmt.Fprintf(out, "Deduction: %s\n", money(*res.DeductionAmount))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for cancelling")
	return cmd
}

func (r *root) bookingsReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <id>",
		Short: "Print a booking receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := r.app.API.Bookings.Receipt(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}

func (r *root) bookingsConfirmCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "send-confirmation <id>",
		Short: "Resend the booking confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := domain.ConfirmationChannel(channel)
			switch ch {
			case domain.ConfirmByEmail, domain.ConfirmByWhatsApp, domain.ConfirmByBoth:
			default:
				return fmt.Errorf("unknown channel %q", channel)
			}
			detail, err := r.app.API.Bookings.SendConfirmation(cmd.Context(), domain.ID(args[0]), ch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), detail)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "via", string(domain.ConfirmByEmail), "email, whatsapp or both")
	return cmd
}

func (r *root) payCmd() *cobra.Command {
	var (
		method string
		req    domain.PaymentRequest
		verify string
	)
	cmd := &cobra.Command{
		Use:   "pay <booking-id>",
		Short: "Pay for a booking",
		Long: `Pay for a booking. Required flags depend on --method:

  credit_card     --card-number --expiry --cvv --cardholder
  bank_transfer   --bank-account --transaction-id
  jazz_cash       --phone
  easy_paisa      --phone

Use --verify <transaction-id> to check a pending mobile wallet payment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := r.app.RequireLogin(ctx); err != nil {
				return err
			}
			id := domain.ID(args[0])
			out := cmd.OutOrStdout()

			if verify != "" {
				res, err := r.app.API.Bookings.VerifyPayment(ctx, id, verify)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%s)\n", res.Detail, res.PaymentStatus)
				return nil
			}

			m, ok := domain.ParsePaymentMethod(method)
			if !ok {
				return fmt.Errorf("unknown payment method %q", method)
			}
			req.Method = m
			res, err := r.app.API.Bookings.Pay(ctx, id, req)
			if errors.Is(err, domain.ErrMissingWalletPhone) {
				return fmt.Errorf("%w (use --phone)", err)
			}
			if err != nil {
				return err
			}

			switch res.PaymentStatus {
			case domain.PaymentProcessing:
				fmt.Fprintln(out, r.app.Prefs.T("payment.processing"))
			default:
				fmt.Fprintln(out, r.app.Prefs.T("payment.success"))
			}
			if res.TransactionID != "" {
				fmt.Fprintf(out, "Transaction: %s\n", res.TransactionID)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&method, "method", string(domain.MethodCreditCard), "credit_card, bank_transfer, jazz_cash or easy_paisa")
	fl.StringVar(&req.CardNumber, "card-number", "", "Card number")
	fl.StringVar(&req.ExpiryDate, "expiry", "", "Card expiry (MM/YY)")
	fl.StringVar(&req.CVV, "cvv", "", "Card security code")
	fl.StringVar(&req.CardholderName, "cardholder", "", "Name on the card")
	fl.StringVar(&req.BillingAddress, "billing-address", "", "Billing address")
	fl.StringVar(&req.BankAccount, "bank-account", "", "Bank account the transfer came from")
	fl.StringVar(&req.TransactionID, "transaction-id", "", "Bank transfer reference")
	fl.StringVar(&req.PhoneNumber, "phone", "", "Mobile wallet number")
	fl.StringVar(&verify, "verify", "", "Verify a pending payment by transaction id")
	return cmd
}
