package sendgrid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/notification"
)

// mailSender is the subset of the SendGrid client used by the channels.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends order emails through SendGrid.
type Mailer struct {
	client mailSender
	from   *mail.Email
	logger *slog.Logger
}

// NewMailer constructs a mailer authenticated with apiKey.
func NewMailer(apiKey, from string, logger *slog.Logger) *Mailer {
	return newMailer(sg.NewSendClient(apiKey), from, logger)
}

func newMailer(client mailSender, from string, logger *slog.Logger) *Mailer {
	return &Mailer{client: client, from: mail.NewEmail("Storefront", from), logger: logger}
}

func (m *Mailer) send(ctx context.Context, to *mail.Email, subject, body string) error {
	message := mail.NewSingleEmail(m.from, subject, to, body, "")
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		m.logger.Error("sendgrid request failed", slog.Int("status", resp.StatusCode), slog.String("body", resp.Body))
		return fmt.Errorf("sendgrid error: status %d", resp.StatusCode)
	}
	return nil
}

// WarehouseChannel emails every order to the operations address.
type WarehouseChannel struct {
	mailer *Mailer
	to     *mail.Email
}

// NewWarehouseChannel builds a channel delivering to opsEmail.
func NewWarehouseChannel(mailer *Mailer, opsEmail string) *WarehouseChannel {
	return &WarehouseChannel{mailer: mailer, to: mail.NewEmail("Warehouse", opsEmail)}
}

func (c *WarehouseChannel) Name() string { return "warehouse-email" }

func (c *WarehouseChannel) Send(ctx context.Context, order model.Order) error {
	subject := fmt.Sprintf("New order %s", order.ID)
	return c.mailer.send(ctx, c.to, subject, notification.Summary(order))
}

// CustomerChannel emails an order confirmation to the customer.
type CustomerChannel struct {
	mailer *Mailer
}

func NewCustomerChannel(mailer *Mailer) *CustomerChannel {
	return &CustomerChannel{mailer: mailer}
}

func (c *CustomerChannel) Name() string { return "customer-email" }

// Send skips orders without a customer email.
func (c *CustomerChannel) Send(ctx context.Context, order model.Order) error {
	if strings.TrimSpace(order.Customer.Email) == "" {
		return domainErrors.ErrNotApplicable
	}
	to := mail.NewEmail(order.Customer.Name, order.Customer.Email)
	subject := fmt.Sprintf("Your order %s is confirmed", order.ID)
	return c.mailer.send(ctx, to, subject, confirmation(order))
}

func confirmation(order model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", order.Customer.Name)
	fmt.Fprintf(&b, "Thank you for your order %s. We will deliver to:\n%s\n\n", order.ID, order.Customer.Address)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "\nAmount to pay: %.2f\n", order.FinalAmount)
	return b.String()
}
