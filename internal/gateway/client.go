package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Upstream endpoints and the API version each one expects.
const (
	EndpointFixedAccounts   = "/callback_virtual_accounts"
	VersionFixedAccounts    = "2020-05-19"
	EndpointInvoices        = "/v2/invoices"
	VersionInvoices         = "2020-10-31"
	EndpointPaymentRequests = "/payment_requests"
	VersionPaymentRequests  = "2022-07-31"
	EndpointOTCPayments     = "/otc/payments"
	VersionOTCPayments      = "2023-03-01"
)

// Sender is the one-call surface the binder and the service depend on.
type Sender interface {
	Send(ctx context.Context, endpoint, apiVersion string, payload map[string]interface{}, idempotencyKey string) (map[string]interface{}, error)
}

// Client issues requests to the upstream gateway. It never retries on its
// own: retry policy belongs to the caller, and blind retries on a
// payment-creation endpoint risk duplicate charges. The idempotency-key
// header lets the gateway collapse transport-level retries.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(baseURL, secretKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

func (c *Client) Send(ctx context.Context, endpoint, apiVersion string, payload map[string]interface{}, idempotencyKey string) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))
	if apiVersion != "" {
		req.Header.Set("api-version", apiVersion)
	}
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway transport failure",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, &UnreachableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &RejectedError{StatusCode: resp.StatusCode, Body: respBody}
		rej.Code, rej.Message = parseErrorBody(respBody)
		c.logger.Warn("gateway rejected request",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("code", rej.Code))
		return nil, rej
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &RejectedError{
			StatusCode: resp.StatusCode,
			Message:    "gateway returned a non-JSON body",
			Body:       respBody,
		}
	}

	return decoded, nil
}

func parseErrorBody(body []byte) (code, message string) {
	var parsed struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.ErrorCode, parsed.Message
	}
	return "", ""
}
