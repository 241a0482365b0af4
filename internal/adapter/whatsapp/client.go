package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/notification"
)

// TooManyRequestsError represents rate limiting signal from the Cloud API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client sends text messages through the WhatsApp Cloud API.
type Client struct {
	baseURL    *url.URL
	phoneID    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type textBody struct {
	Body string `json:"body"`
}

// message mirrors the Cloud API text message payload.
type message struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// NewClient creates a Cloud API client sending from phoneID.
func NewClient(baseURL, phoneID, token string, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse whatsapp url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("whatsapp url must be absolute")
	}
	if phoneID == "" {
		return nil, fmt.Errorf("whatsapp phone id is required")
	}
	return &Client{
		baseURL: parsed,
		phoneID: phoneID,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SendText delivers body to the recipient number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, c.phoneID, "messages")

	payload, err := json.Marshal(message{MessagingProduct: "whatsapp", To: to, Type: "text", Text: textBody{Body: body}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("whatsapp request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(respBody)))
		return fmt.Errorf("whatsapp error: %s", resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

// OpsChannel messages every order to the operations number.
type OpsChannel struct {
	client *Client
	to     string
}

func NewOpsChannel(client *Client, to string) *OpsChannel {
	return &OpsChannel{client: client, to: to}
}

func (c *OpsChannel) Name() string { return "whatsapp" }

func (c *OpsChannel) Send(ctx context.Context, order model.Order) error {
	return c.client.SendText(ctx, c.to, notification.Summary(order))
}
