package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diagnosis/pakbooking/internal/booking"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/spf13/cobra"
)

func (r *root) hotelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hotels",
		Aliases: []string{"hotel"},
		Short:   "Search and inspect hotels",
	}
	cmd.AddCommand(r.hotelsListCmd(), r.hotelsShowCmd())
	return cmd
}

func (r *root) hotelsListCmd() *cobra.Command {
	var (
		f                 domain.PropertyFilter
		checkIn, checkOut string
		featured          bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hotels, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var props []domain.Property
			if featured {
				got, err := r.app.API.Listings.Featured(ctx)
				if err != nil {
					return err
				}
				props = got
			} else {
				if checkIn != "" {
					d, err := parseDateFlag("check-in", checkIn)
					if err != nil {
						return err
					}
					f.CheckIn = d
				}
				if checkOut != "" {
					d, err := parseDateFlag("check-out", checkOut)
					if err != nil {
						return err
					}
					f.CheckOut = d
				}
				page, err := r.app.API.Listings.List(ctx, f)
				if err != nil {
					return err
				}
				props = page.Results
			}
			printProperties(cmd.OutOrStdout(), props)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.City, "city", "", "City")
	fl.StringVar(&f.Search, "search", "", "Free-text search")
	fl.IntVar(&f.Guests, "guests", 0, "Number of guests")
	fl.StringVar(&f.MinPrice, "min-price", "", "Minimum price per night")
	fl.StringVar(&f.MaxPrice, "max-price", "", "Maximum price per night")
	fl.StringSliceVar(&f.Amenities, "amenity", nil, "Required amenity (repeatable)")
	fl.StringVar(&f.Ordering, "order", "", "Ordering, e.g. price_per_night or -rating")
	fl.IntVar(&f.Page, "page", 0, "Page number")
	fl.StringVar(&checkIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	fl.StringVar(&checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	fl.BoolVar(&featured, "featured", false, "Only featured hotels")
	return cmd
}

func printProperties(w io.Writer, props []domain.Property) {
	tw := newTable(w, "ID", "TITLE", "CITY", "PER NIGHT", "GUESTS", "RATING")
	for _, p := range props {
		row(tw, p.ID, p.Title, p.City, money(p.PricePerNight), p.MaxGuests, p.Rating.StringFixed(1))
	}
	tw.Flush()
}

func (r *root) hotelsShowCmd() *cobra.Command {
	var reviews bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a hotel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := r.app.API.Listings.Get(ctx, domain.ID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", p.Title, p.City)
			if p.Address != "" {
				fmt.Fprintln(out, p.Address)
			}
			fmt.Fprintf(out, "Per night:  %s\n", money(p.PricePerNight))
			fmt.Fprintf(out, "Max guests: %d\n", p.MaxGuests)
			fmt.Fprintf(out, "Rating:     %s\n", p.Rating.StringFixed(1))
			if len(p.Amenities) > 0 {
				fmt.Fprintf(out, "Amenities:  %s\n", strings.Join(p.Amenities, ", "))
			}
			if img := p.PrimaryImage(); img != "" {
				fmt.Fprintf(out, "Image:      %s\n", img)
			}
			if !p.IsAvailable {
				fmt.Fprintln(out, r.app.Prefs.T("booking.unavailable"))
			}
			if p.Description != "" {
				fmt.Fprintf(out, "\n%s\n", p.Description)
			}

			if !reviews {
				return nil
			}
			page, err := r.app.API.Reviews.ForProperty(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			for _, rv := range page.Results {
				who := "guest"
				if rv.User != nil {
					who = rv.User.DisplayName()
				}
				fmt.Fprintf(out, "%s %d/5  %s\n", who, rv.Rating, rv.Comment)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reviews, "reviews", false, "Include reviews")
	return cmd
}

type stayFlags struct {
	checkIn, checkOut string
	guests            int
}

func (s *stayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.checkIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&s.checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&s.guests, "guests", 1, "Number of guests")
}

func (s *stayFlags) stay(property domain.ID) (booking.Stay, error) {
	in, err := parseDateFlag("check-in", s.checkIn)
	if err != nil {
		return booking.Stay{}, err
	}
	out, err := parseDateFlag("check-out", s.checkOut)
	if err != nil {
		return booking.Stay{}, err
	}
	return booking.Stay{PropertyID: property, CheckIn: in, CheckOut: out, Guests: s.guests}, nil
}

// quote loads the property and computes a quote for the flags' stay.
func (r *root) quote(cmd *cobra.Command, id string, sf *stayFlags) (*booking.Quoter, booking.Quote, error) {
	ctx := cmd.Context()
	p, err := r.app.API.Listings.Get(ctx, domain.ID(id))
	if err != nil {
		return nil, booking.Quote{}, err
	}
	stay, err := sf.stay(p.ID)
	if err != nil {
		return nil, booking.Quote{}, err
	}
	q := booking.NewQuoter(p, r.app.API.Listings, r.app.API.Bookings)
	quote, err := q.Update(ctx, stay)
	if err != nil {
		return nil, booking.Quote{}, err
	}
	return q, quote, nil
}

func (r *root) printQuote(w io.Writer, title string, q booking.Quote) {
	fmt.Fprintf(w, "%s: %s to %s, %d guest(s)\n", title, q.Stay.CheckIn, q.Stay.CheckOut, q.Stay.Guests)
	if !q.Available() {
		fmt.Fprintln(w, r.app.Prefs.T("booking.unavailable"))
		return
	}
	p := q.Price
	fmt.Fprintf(w, "Nights:  %d x %s\n", p.Nights, money(p.PricePerNight))
	fmt.Fprintf(w, "Base:    %s\n", money(p.BasePrice))
	fmt.Fprintf(w, "Taxes:   %s\n", money(p.Taxes))
	if p.ProcessingFee.IsPositive() {
		fmt.Fprintf(w, "Fee:     %s\n", money(p.ProcessingFee))
	}
	fmt.Fprintf(w, "Total:   %s\n", money(p.TotalPrice))
	if q.Estimated {
		fmt.Fprintln(w, r.app.Prefs.T("booking.estimated"))
	}
}

func (r *root) quoteCmd() *cobra.Command {
	var sf stayFlags
	cmd := &cobra.Command{
		Use:   "quote <hotel-id>",
		Short: "Check availability and price for a stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, quote, err := r.quote(cmd, args[0], &sf)
			if err != nil {
				return err
			}
			r.printQuote(cmd.OutOrStdout(), q.Property().Title, quote)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func (r *root) bookCmd() *cobra.Command {
	var (
		sf      stayFlags
		contact booking.Contact
	)
	cmd := &cobra.Command{
		Use:   "book <hotel-id>",
		Short: "Book a hotel for a stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := r.app.Bootstrap(ctx); err != nil {
				return err
			}
			if !r.app.Session.IsAuthenticated() {
				return errors.New(r.app.Prefs.T("booking.login_required"))
			}

			q, quote, err := r.quote(cmd, args[0], &sf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r.printQuote(out, q.Property().Title, quote)

			if contact.Email == "" {
				contact.Email = r.app.Session.User().Email
			}
			b, err := booking.NewSubmitter(r.app.Session, r.app.API.Bookings).Submit(ctx, q, contact)
			switch {
			case errors.Is(err, booking.ErrLoginRequired):
				return errors.New(r.app.Prefs.T("booking.login_required"))
			case errors.Is(err, booking.ErrNotAvailable):
				return errors.New(r.app.Prefs.T("booking.unavailable"))
			case err != nil:
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, r.app.Prefs.T("booking.congratulations"))
			fmt.Fprintf(out, "Booking %s: %s, total %s\n", b.ID, statusLabel(r.app.Prefs, b.Status), money(b.TotalPrice))
			fmt.Fprintln(out, r.app.Prefs.T("booking.success"))
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&contact.Email, "email", "", "Contact email (defaults to the account email)")
	cmd.Flags().StringVar(&contact.SpecialRequests, "requests", "", "Special requests")
	return cmd
}
