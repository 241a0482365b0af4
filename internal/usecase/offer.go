package usecase

import (
	"context"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// FreeSampleOffer names the one-time free sample promotion.
const FreeSampleOffer = "free-sample"

// OfferPolicy decides whether an order claims the free sample and records the claim.
// It runs as a notification channel so it never delays order creation.
type OfferPolicy struct {
	ledger repository.OfferLedger
	logger *slog.Logger
}

func NewOfferPolicy(ledger repository.OfferLedger, logger *slog.Logger) *OfferPolicy {
	return &OfferPolicy{ledger: ledger, logger: logger}
}

func (p *OfferPolicy) Name() string { return "offer-policy" }

// Send records the free sample claim of order.
// Orders without a zero-priced item or without a contact are not applicable.
func (p *OfferPolicy) Send(ctx context.Context, order model.Order) error {
	if !order.HasFreeSample() {
		return domainErrors.ErrNotApplicable
	}
	contact := claimKey(order)
	if contact == "" {
		return domainErrors.ErrNotApplicable
	}

	first, err := p.ledger.Claim(ctx, FreeSampleOffer, contact)
	if err != nil {
		return fmt.Errorf("claim offer: %w", err)
	}
	if !first {
		p.logger.Warn("free sample already claimed",
			slog.String("order_id", order.ID),
			slog.String("contact", contact),
		)
		return nil
	}
	p.logger.Info("free sample claimed", slog.String("order_id", order.ID))
	return nil
}

func claimKey(order model.Order) string {
	switch {
	case order.UserID != "":
		return "user:" + order.UserID
	case order.Customer.Phone != "":
		return "phone:" + order.Customer.Phone
	case order.Customer.Email != "":
		return "email:" + order.Customer.Email
	}
	return ""
}
