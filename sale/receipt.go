package sale

import (
	"fmt"
	"strings"

	"salesdesk/pricing"
)

const receiptWidth = 40

// FormatReceipt renders a created sale as fixed-width text.
func FormatReceipt(r Result) string {
	var lines []string

	lines = append(lines, strings.Repeat("═", receiptWidth))
	lines = append(lines, "             SALE RECEIPT")
	lines = append(lines, strings.Repeat("═", receiptWidth))
	lines = append(lines, fmt.Sprintf("Sale: #%d", r.Sale.ID))
	if r.Sale.Date != "" {
		lines = append(lines, fmt.Sprintf("Date: %s", r.Sale.Date))
	}
	if r.Client.Name != "" {
		lines = append(lines, fmt.Sprintf("Client: %s (DNI %s)", r.Client.Name, r.Client.DNI))
	} else {
		lines = append(lines, "Client: N/A")
	}
	lines = append(lines, strings.Repeat("─", receiptWidth))

	for _, l := range r.Lines {
		lines = append(lines, fmt.Sprintf("%d x %s @ S/. %s = S/. %s",
			l.Quantity,
			l.Name,
			l.UnitPrice.StringFixed(2),
			l.Subtotal.StringFixed(2)))
	}

	totals := r.Totals
	if totals.Grand.IsZero() && !r.Sale.Total.IsZero() {
		totals = pricing.Breakdown(r.Sale.Total)
	}
	totals = totals.Rounded()

	lines = append(lines, strings.Repeat("─", receiptWidth))
	lines = append(lines, fmt.Sprintf("Net:                   S/. %s", totals.Net.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("IGV (18%%):             S/. %s", totals.Tax.StringFixed(2)))
	lines = append(lines, strings.Repeat("─", receiptWidth))
	lines = append(lines, fmt.Sprintf("TOTAL:                 S/. %s", totals.Grand.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Payment: %s", r.PaymentMethod))
	lines = append(lines, strings.Repeat("═", receiptWidth))
	lines = append(lines, "     Thank you for your purchase!")
	lines = append(lines, strings.Repeat("═", receiptWidth))

	return strings.Join(lines, "\n")
}
