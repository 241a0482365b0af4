package usecase

import (
	"fmt"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// MergeIdentity fills customer fields left empty from the authenticated profile.
func MergeIdentity(customer model.Customer, identity *model.Identity) model.Customer {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Address = strings.TrimSpace(customer.Address)
	customer.Email = strings.TrimSpace(customer.Email)
	if identity == nil {
		return customer
	}
	if customer.Name == "" {
		customer.Name = identity.Name
	}
	if customer.Phone == "" {
		customer.Phone = identity.Phone
	}
	if customer.Email == "" {
		customer.Email = identity.Email
	}
	return customer
}

// ValidateCustomer checks the contact details required for delivery.
// Guests must give name, phone and address. Signed-in users need an address and a way to reach them.
func ValidateCustomer(customer model.Customer, guest bool) error {
	if guest {
		switch {
		case customer.Name == "":
			return domainErrors.Invalid("customer.name", "customer name is required")
		case customer.Phone == "":
			return domainErrors.Invalid("customer.phone", "customer phone is required")
		case customer.Address == "":
			return domainErrors.Invalid("customer.address", "delivery address is required")
		}
		return nil
	}

	if customer.Address == "" {
		return domainErrors.Invalid("customer.address", "delivery address is required")
	}
	if customer.Phone == "" && customer.Email == "" {
		return domainErrors.Invalid("customer.phone", "phone or email is required")
	}
	return nil
}

// ValidateItems checks order lines and the discount.
func ValidateItems(items []model.Item, discount float64) error {
	if len(items) == 0 {
		return domainErrors.Invalid("items", "order must contain at least one item")
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			return domainErrors.Invalid(field+".name", "item name is required")
		}
		if item.Quantity < 1 {
			return domainErrors.Invalid(field+".quantity", "quantity must be at least 1")
		}
		if item.UnitPrice < 0 {
			return domainErrors.Invalid(field+".price", "price must not be negative")
		}
	}
	if discount < 0 {
		return domainErrors.Invalid("discount_amount", "discount must not be negative")
	}
	return nil
}

// ParseOrderStatus validates a status supplied by a client.
func ParseOrderStatus(raw string) (model.OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domainErrors.Invalid("status", "status is required")
	}
	status := model.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", domainErrors.Invalid("status", fmt.Sprintf("unknown status %q", raw))
	}
	return status, nil
}

// ParsePaymentStatus validates an optional payment status. Empty input yields nil.
func ParsePaymentStatus(raw string) (*model.PaymentStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	status := model.PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return nil, domainErrors.Invalid("payment_status", fmt.Sprintf("unknown payment status %q", raw))
	}
	return &status, nil
}
