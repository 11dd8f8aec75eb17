package gateway

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type sentCall struct {
	endpoint       string
	apiVersion     string
	body           map[string]interface{}
	idempotencyKey string
}

type fakeSender struct {
	responses []map[string]interface{}
	errs      []error
	calls     []sentCall
}

func (f *fakeSender) Send(ctx context.Context, endpoint, apiVersion string, payload map[string]interface{}, idempotencyKey string) (map[string]interface{}, error) {
	i := len(f.calls)
	f.calls = append(f.calls, sentCall{endpoint: endpoint, apiVersion: apiVersion, body: payload, idempotencyKey: idempotencyKey})

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp map[string]interface{}
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func bindPayloads() PayloadSet {
	return NewBuilder("").Build(bankChannel("BRI"), sampleRequest(), payloadNow)
}

func TestBindHappyPath(t *testing.T) {
	sender := &fakeSender{
		responses: []map[string]interface{}{
			{"id": "va_1", "account_number": "8808123", "bank_code": "BRI", "name": "Budi Santoso", "expected_amount": float64(100000)},
			{"id": "inv_1", "status": "PENDING"},
		},
	}
	binder := NewBinder(sender, zap.NewNop())

	outcome, err := binder.Bind(context.Background(), bindPayloads(), "ord-42")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if outcome.State != StateBound {
		t.Errorf("State = %s", outcome.State)
	}
	if outcome.Account == nil || outcome.Account.AccountNumber != "8808123" {
		t.Fatalf("Account = %+v", outcome.Account)
	}
	if outcome.Account.GatewayAccountID != "va_1" || outcome.Account.ExpectedAmount != 100000 {
		t.Errorf("Account = %+v", outcome.Account)
	}
	if outcome.Invoice["id"] != "inv_1" {
		t.Errorf("Invoice = %v", outcome.Invoice)
	}

	if len(sender.calls) != 2 {
		t.Fatalf("gateway calls = %d, want 2", len(sender.calls))
	}
	if got := sender.calls[1].body["callback_virtual_account_id"]; got != "va_1" {
		t.Errorf("invoice binding reference = %v", got)
	}
	for _, call := range sender.calls {
		if call.idempotencyKey != "ord-42" {
			t.Errorf("idempotency key = %s", call.idempotencyKey)
		}
	}
}

func TestBindAccountCreationFailureSkipsInvoice(t *testing.T) {
	upstream := &RejectedError{StatusCode: 400, Code: "BANK_NOT_SUPPORTED", Body: []byte(`{"error_code":"BANK_NOT_SUPPORTED"}`)}
	sender := &fakeSender{errs: []error{upstream}}
	binder := NewBinder(sender, zap.NewNop())

	outcome, err := binder.Bind(context.Background(), bindPayloads(), "ord-42")
	if !errors.Is(err, upstream) {
		t.Errorf("err = %v, want the upstream error surfaced verbatim", err)
	}
	if outcome.State != StateFailed {
		t.Errorf("State = %s", outcome.State)
	}
	if outcome.Account != nil {
		t.Error("no account may be reported when creation failed")
	}
	if len(sender.calls) != 1 {
		t.Errorf("gateway calls = %d, the invoice call must never go out", len(sender.calls))
	}
}

func TestBindMissingAccountIDSkipsInvoice(t *testing.T) {
	sender := &fakeSender{
		responses: []map[string]interface{}{
			{"account_number": "8808123"}, // 2xx but no id
		},
	}
	binder := NewBinder(sender, zap.NewNop())

	outcome, err := binder.Bind(context.Background(), bindPayloads(), "ord-42")
	if err == nil {
		t.Fatal("Bind() must fail when the account response has no id")
	}
	if outcome.State != StateFailed {
		t.Errorf("State = %s", outcome.State)
	}
	if len(sender.calls) != 1 {
		t.Errorf("gateway calls = %d, the invoice call must never go out", len(sender.calls))
	}
}

func TestBindInvoiceFailureStillReturnsAccount(t *testing.T) {
	upstream := &RejectedError{StatusCode: 500, Body: []byte(`{}`)}
	sender := &fakeSender{
		responses: []map[string]interface{}{
			{"id": "va_1", "account_number": "8808123", "bank_code": "BRI"},
			nil,
		},
		errs: []error{nil, upstream},
	}
	binder := NewBinder(sender, zap.NewNop())

	outcome, err := binder.Bind(context.Background(), bindPayloads(), "ord-42")
	if !errors.Is(err, upstream) {
		t.Errorf("err = %v", err)
	}
	if outcome.State != StateFailed {
		t.Errorf("State = %s", outcome.State)
	}
	if outcome.Account == nil || outcome.Account.GatewayAccountID != "va_1" {
		t.Errorf("Account = %+v, the created account must travel back for persistence", outcome.Account)
	}
}
