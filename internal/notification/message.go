package notification

import (
	"fmt"
	"strings"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Summary renders a plain text description of order for operators.
func Summary(order model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", order.ID)
	fmt.Fprintf(&b, "Customer: %s, %s\n", order.Customer.Name, order.Customer.Phone)
	if order.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", order.Customer.Email)
	}
	fmt.Fprintf(&b, "Address: %s\n", order.Customer.Address)
	b.WriteString("Items:\n")
	for _, item := range order.Items {
		if item.UnitPrice == 0 {
			fmt.Fprintf(&b, "- %d x %s (free sample)\n", item.Quantity, item.Name)
			continue
		}
		fmt.Fprintf(&b, "- %d x %s @ %.2f = %.2f\n", item.Quantity, item.Name, item.UnitPrice, item.LineTotal())
	}
	fmt.Fprintf(&b, "Total: %.2f\n", order.TotalAmount)
	if order.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Discount: %.2f\n", order.DiscountAmount)
	}
	fmt.Fprintf(&b, "To pay: %.2f\n", order.FinalAmount)
	fmt.Fprintf(&b, "Payment: %s", order.PaymentStatus)
	return b.String()
}
