package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payment-router/internal/channels"
	"payment-router/internal/gateway"
	"payment-router/internal/models"
)

type fakeEngine struct {
	result  *models.PaymentResult
	err     error
	payment *models.PaymentResult
}

func (f *fakeEngine) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResult, error) {
	return f.result, f.err
}

func (f *fakeEngine) GetPayment(ctx context.Context, id string) (*models.PaymentResult, error) {
	return f.payment, nil
}

func (f *fakeEngine) ListMethods() []models.PaymentChannel {
	return []models.PaymentChannel{
		{ID: "qris", DisplayName: "QRIS", Archetype: models.ArchetypeWalletOrQR, MinAmount: 1500, MaxAmount: 10000000, IsActive: true},
	}
}

func newRouter(engine *fakeEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPaymentHandler(engine, zap.NewNop())
	router.POST("/api/v1/payments", h.CreatePayment)
	router.GET("/api/v1/payments/:id", h.GetPayment)
	router.GET("/api/v1/payment-methods", h.ListPaymentMethods)
	return router
}

func postPayment(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{"amount":50000,"payment_method_id":"qris","external_id":"ord-1","customer":{"given_names":"Budi","email":"budi@example.com"}}`

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestCreatePaymentSuccess(t *testing.T) {
	engine := &fakeEngine{
		result: &models.PaymentResult{
			ID:         "pr_1",
			ExternalID: "ord-1",
			Amount:     50000,
			Currency:   "IDR",
			Status:     "PENDING",
			ChannelID:  "qris",
			ExpiryTime: time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC),
			QRString:   "00020101...",
		},
	}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["id"] != "pr_1" || body["qr_string"] != "00020101..." {
		t.Errorf("body = %v", body)
	}
	if body["payment_method"] != "qris" {
		t.Errorf("payment_method = %v", body["payment_method"])
	}
	if _, present := body["redirect_url"]; present {
		t.Error("redirect_url must be absent for a QR result")
	}
}

func TestCreatePaymentMalformedBody(t *testing.T) {
	w := postPayment(t, newRouter(&fakeEngine{}), `{"amount":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCreatePaymentMissingRequiredFields(t *testing.T) {
	w := postPayment(t, newRouter(&fakeEngine{}), `{"amount":50000}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCreatePaymentUnknownChannel(t *testing.T) {
	engine := &fakeEngine{err: fmt.Errorf("%w: doge-coin", channels.ErrNotFound)}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	methods, ok := body["available_methods"].([]interface{})
	if !ok || len(methods) == 0 {
		t.Errorf("available_methods missing: %v", body)
	}
}

func TestCreatePaymentInactiveChannel(t *testing.T) {
	engine := &fakeEngine{err: fmt.Errorf("%w: permata", channels.ErrInactive)}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if _, ok := body["suggestions"]; !ok {
		t.Errorf("suggestions missing: %v", body)
	}
}

func TestCreatePaymentAmountOutOfRange(t *testing.T) {
	engine := &fakeEngine{err: &channels.AmountRangeError{ChannelID: "qris", Amount: 100, Min: 1500, Max: 10000000}}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	details, ok := body["details"].(map[string]interface{})
	if !ok || details["min_amount"] != float64(1500) {
		t.Errorf("details = %v", body["details"])
	}
}

func TestCreatePaymentGatewayRejected(t *testing.T) {
	engine := &fakeEngine{err: &gateway.RejectedError{
		StatusCode: http.StatusNotFound,
		Code:       "CHANNEL_NOT_FOUND",
		Message:    "channel does not exist",
		Body:       []byte(`{"error_code":"CHANNEL_NOT_FOUND"}`),
	}}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, the upstream status passes through", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "payment method currently unavailable, try an alternative" {
		t.Errorf("error = %v", body["error"])
	}
	if _, ok := body["suggestions"]; !ok {
		t.Errorf("suggestions missing: %v", body)
	}
	details, ok := body["details"].(map[string]interface{})
	if !ok || details["upstream_status"] != float64(http.StatusNotFound) {
		t.Errorf("details = %v", body["details"])
	}
}

func TestCreatePaymentGatewayUnreachable(t *testing.T) {
	engine := &fakeEngine{err: &gateway.UnreachableError{Endpoint: "/payment_requests", Err: fmt.Errorf("timeout")}}

	w := postPayment(t, newRouter(engine), validBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["type"] != "processing_error" {
		t.Errorf("type = %v, the retryable marker is part of the contract", body["type"])
	}
}

func TestGetPayment(t *testing.T) {
	engine := &fakeEngine{payment: &models.PaymentResult{ID: "pr_1", Status: "PENDING"}}
	router := newRouter(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/pr_1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}

	engine.payment = nil
	req = httptest.NewRequest(http.MethodGet, "/api/v1/payments/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestListPaymentMethods(t *testing.T) {
	router := newRouter(&fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment-methods", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	methods, ok := body["payment_methods"].([]interface{})
	if !ok || len(methods) != 1 {
		t.Fatalf("payment_methods = %v", body)
	}
	entry := methods[0].(map[string]interface{})
	if entry["id"] != "qris" || entry["type"] != "wallet_qr" {
		t.Errorf("entry = %v", entry)
	}
}
