package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"payment-router/internal/models"
)

// BindState tracks the create-then-bind sequence for bank transfers.
type BindState string

const (
	StateCreatingAccount BindState = "CREATING_ACCOUNT"
	StateAccountCreated  BindState = "ACCOUNT_CREATED"
	StateBindingInvoice  BindState = "BINDING_INVOICE"
	StateBound           BindState = "BOUND"
	StateFailed          BindState = "FAILED"
)

// BindOutcome is what a bind attempt produced. Account is set as soon as the
// gateway created it, even when invoice binding later fails: the account
// resource is live upstream and must be persisted for reconciliation.
type BindOutcome struct {
	State   BindState
	Account *models.FixedAccount
	Invoice map[string]interface{}
}

// Binder runs the two-call sequence the bank-transfer archetype requires:
// create a fixed account, then create an invoice bound to it. The two calls
// are inherently sequential; the invoice call never goes out unless account
// creation returned a usable id.
type Binder struct {
	client Sender
	logger *zap.Logger
}

func NewBinder(client Sender, logger *zap.Logger) *Binder {
	return &Binder{client: client, logger: logger}
}

func (b *Binder) Bind(ctx context.Context, set PayloadSet, externalID string) (*BindOutcome, error) {
	outcome := &BindOutcome{State: StateCreatingAccount}

	raw, err := b.client.Send(ctx, set.Account.Endpoint, set.Account.APIVersion, set.Account.Body, externalID)
	if err != nil {
		outcome.State = StateFailed
		return outcome, err
	}

	accountID := stringField(raw, "id")
	if accountID == "" {
		outcome.State = StateFailed
		body, _ := json.Marshal(raw)
		return outcome, &RejectedError{
			StatusCode: http.StatusBadGateway,
			Message:    "fixed account response carries no id",
			Body:       body,
		}
	}

	outcome.State = StateAccountCreated
	outcome.Account = accountFromRaw(raw, externalID)

	outcome.State = StateBindingInvoice
	invoiceBody := make(map[string]interface{}, len(set.Primary.Body)+1)
	for k, v := range set.Primary.Body {
		invoiceBody[k] = v
	}
	invoiceBody["callback_virtual_account_id"] = accountID

	invoice, err := b.client.Send(ctx, set.Primary.Endpoint, set.Primary.APIVersion, invoiceBody, externalID)
	if err != nil {
		// Created but unbound: not fatal bookkeeping-wise, the caller still
		// gets the error, but the account travels back for persistence.
		b.logger.Warn("invoice binding failed after account creation",
			zap.String("external_id", externalID),
			zap.String("gateway_account_id", accountID),
			zap.Error(err))
		outcome.State = StateFailed
		return outcome, err
	}

	outcome.State = StateBound
	outcome.Invoice = invoice
	return outcome, nil
}

func accountFromRaw(raw map[string]interface{}, externalID string) *models.FixedAccount {
	acct := &models.FixedAccount{
		GatewayAccountID:  stringField(raw, "id"),
		ExternalID:        externalID,
		BankCode:          stringField(raw, "bank_code"),
		AccountNumber:     stringField(raw, "account_number"),
		AccountHolderName: stringField(raw, "name"),
		ExpectedAmount:    int64Field(raw, "expected_amount"),
	}
	if ts, ok := parseTimestamp(raw["expiration_date"]); ok {
		acct.ExpirationTime = ts
	}
	return acct
}
