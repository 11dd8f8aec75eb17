package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payment-router/internal/models"
)

// Notifier announces a created payment to whoever cares (admin webhook,
// customer channel). Implementations must be safe to call from a detached
// goroutine; a failing notifier never fails the payment.
type Notifier interface {
	PaymentCreated(ctx context.Context, order *models.OrderRecord, result *models.PaymentResult) error
}

type WebhookNotifier struct {
	url  string
	http *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) PaymentCreated(ctx context.Context, order *models.OrderRecord, result *models.PaymentResult) error {
	event := map[string]interface{}{
		"event":          "payment.created",
		"external_id":    result.ExternalID,
		"payment_id":     result.ID,
		"payment_method": result.ChannelID,
		"amount":         result.Amount,
		"status":         result.Status,
	}
	if order != nil {
		event["order_id"] = order.ID
		event["customer_email"] = order.CustomerEmail
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	return nil
}
