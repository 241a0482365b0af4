package sendgrid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

type senderStub struct {
	resp *rest.Response
	err  error
	sent []*mail.SGMailV3
}

func (s *senderStub) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sampleOrder() model.Order {
	return model.Order{
		ID:       "ORD-1",
		Customer: model.Customer{Name: "Asha", Phone: "+910000000000", Address: "12 Market Rd", Email: "asha@example.com"},
		Items: []model.Item{
			{Name: "Turmeric Powder", Quantity: 2, UnitPrice: 200},
			{Name: "Chilli Sample", Quantity: 1, UnitPrice: 0},
		},
		TotalAmount:   400,
		FinalAmount:   400,
		PaymentStatus: model.PaymentStatusPending,
	}
}

func TestWarehouseChannelSend(t *testing.T) {
	stub := &senderStub{resp: &rest.Response{StatusCode: 202}}
	ch := NewWarehouseChannel(newMailer(stub, "orders@storefront.local", discardLogger()), "ops@storefront.local")

	require.NoError(t, ch.Send(context.Background(), sampleOrder()))
	require.Len(t, stub.sent, 1)

	msg := stub.sent[0]
	assert.Equal(t, "warehouse-email", ch.Name())
	assert.Equal(t, "New order ORD-1", msg.Subject)
	assert.Equal(t, "orders@storefront.local", msg.From.Address)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "ops@storefront.local", msg.Personalizations[0].To[0].Address)
	require.NotEmpty(t, msg.Content)
	assert.Contains(t, msg.Content[0].Value, "2 x Turmeric Powder")
	assert.Contains(t, msg.Content[0].Value, "(free sample)")
}

func TestCustomerChannelSend(t *testing.T) {
	stub := &senderStub{resp: &rest.Response{StatusCode: 202}}
	ch := NewCustomerChannel(newMailer(stub, "orders@storefront.local", discardLogger()))

	require.NoError(t, ch.Send(context.Background(), sampleOrder()))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, "asha@example.com", stub.sent[0].Personalizations[0].To[0].Address)
	assert.Contains(t, stub.sent[0].Content[0].Value, "Amount to pay: 400.00")
}

func TestCustomerChannelSkipsOrderWithoutEmail(t *testing.T) {
	stub := &senderStub{resp: &rest.Response{StatusCode: 202}}
	ch := NewCustomerChannel(newMailer(stub, "orders@storefront.local", discardLogger()))

	order := sampleOrder()
	order.Customer.Email = "  "
	err := ch.Send(context.Background(), order)
	assert.ErrorIs(t, err, domainErrors.ErrNotApplicable)
	assert.Empty(t, stub.sent)
}

func TestMailerErrors(t *testing.T) {
	tests := []struct {
		name string
		stub *senderStub
	}{
		{name: "transport", stub: &senderStub{err: errors.New("dial tcp: timeout")}},
		{name: "status", stub: &senderStub{resp: &rest.Response{StatusCode: 401, Body: `{"errors":[]}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := NewWarehouseChannel(newMailer(tt.stub, "orders@storefront.local", discardLogger()), "ops@storefront.local")
			assert.Error(t, ch.Send(context.Background(), sampleOrder()))
		})
	}
}

func TestNewChannels(t *testing.T) {
	res := newChannels(channelParams{Config: &config.Config{}, Logger: discardLogger()})
	assert.Empty(t, res.Channels)

	res = newChannels(channelParams{Config: &config.Config{SendGridAPIKey: "key", EmailFrom: "orders@storefront.local"}, Logger: discardLogger()})
	require.Len(t, res.Channels, 1)
	assert.Equal(t, "customer-email", res.Channels[0].Name())

	res = newChannels(channelParams{Config: &config.Config{SendGridAPIKey: "key", OpsEmail: "ops@storefront.local"}, Logger: discardLogger()})
	require.Len(t, res.Channels, 2)
	assert.Equal(t, "warehouse-email", res.Channels[1].Name())
}
