package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/preferences"
	"github.com/shopspring/decimal"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func money(d decimal.Decimal) string {
	return "PKR " + d.StringFixed(2)
}

// statusLabel translates booking statuses that have a catalog entry.
func statusLabel(p *preferences.Preferences, s domain.BookingStatus) string {
	key := "booking." + string(s)
	if label := p.T(key); label != key {
		return label
	}
	return string(s)
}

func parseDateFlag(name, v string) (domain.Date, error) {
	if v == "" {
		return domain.Date{}, fmt.Errorf("--%s is required", name)
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return domain.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}
