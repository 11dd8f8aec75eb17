package gateway

import (
	"time"

	"payment-router/internal/models"
)

// RequestedExpiry is the explicit expiry stamped on every outgoing payload.
// It doubles as the normalizer's last-resort fallback.
const RequestedExpiry = 24 * time.Hour

// Some banks reject account creation outright when the payload carries a
// free-text description. Their codes are hard-coded here; the registry stays
// pure routing data.
var descriptionDenyList = map[string]bool{
	"BCA": true,
	"BJB": true,
}

// Payload is one upstream request: where it goes, which API version header it
// needs, and its JSON body.
type Payload struct {
	Endpoint   string
	APIVersion string
	Body       map[string]interface{}
}

// PayloadSet is the builder output. Account is non-nil only for the
// bank-transfer archetype, whose attempt is a create-then-bind pair; Primary
// is the request whose response becomes the payment.
type PayloadSet struct {
	Account *Payload
	Primary Payload
}

// Builder constructs per-archetype request payloads. Pure apart from the
// injected webhook URL.
type Builder struct {
	webhookURL string
}

func NewBuilder(webhookURL string) *Builder {
	return &Builder{webhookURL: webhookURL}
}

func (b *Builder) Build(ch models.PaymentChannel, req models.PaymentRequest, now time.Time) PayloadSet {
	switch ch.Archetype {
	case models.ArchetypeBankTransfer:
		return b.buildBankTransfer(ch, req, now)
	case models.ArchetypeOverTheCounter:
		return b.buildOverTheCounter(ch, req, now)
	default:
		// WALLET_OR_QR, and the graceful fallback for anything unrecognized.
		return b.buildWalletOrQR(ch, req, now)
	}
}

func (b *Builder) buildBankTransfer(ch models.PaymentChannel, req models.PaymentRequest, now time.Time) PayloadSet {
	expiry := now.Add(RequestedExpiry).Format(time.RFC3339)

	account := map[string]interface{}{
		"external_id":     req.ExternalID,
		"bank_code":       ch.GatewayCode,
		"name":            req.Customer.GivenNames,
		"expected_amount": req.Amount,
		"is_closed":       true,
		"is_single_use":   true,
		"expiration_date": expiry,
	}
	if req.Description != "" && !descriptionDenyList[ch.GatewayCode] {
		account["description"] = req.Description
	}

	invoice := map[string]interface{}{
		"external_id":          req.ExternalID,
		"amount":               req.Amount,
		"currency":             req.Currency,
		"payer_email":          req.Customer.Email,
		"description":          req.Description,
		"success_redirect_url": req.SuccessRedirectURL,
		"failure_redirect_url": req.FailureRedirectURL,
		"expiry_date":          expiry,
		"payment_methods":      []string{ch.GatewayCode},
	}

	return PayloadSet{
		Account: &Payload{Endpoint: EndpointFixedAccounts, APIVersion: VersionFixedAccounts, Body: account},
		Primary: Payload{Endpoint: EndpointInvoices, APIVersion: VersionInvoices, Body: invoice},
	}
}

func (b *Builder) buildWalletOrQR(ch models.PaymentChannel, req models.PaymentRequest, now time.Time) PayloadSet {
	body := map[string]interface{}{
		"reference_id":   req.ExternalID,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"channel_code":   ch.GatewayCode,
		"capture_method": "AUTOMATIC",
		"webhook_url":    b.webhookURL,
		"expires_at":     now.Add(RequestedExpiry).Format(time.RFC3339),
		"metadata":       metadataBag(ch, req),
	}

	return PayloadSet{
		Primary: Payload{Endpoint: EndpointPaymentRequests, APIVersion: VersionPaymentRequests, Body: body},
	}
}

func (b *Builder) buildOverTheCounter(ch models.PaymentChannel, req models.PaymentRequest, now time.Time) PayloadSet {
	set := b.buildWalletOrQR(ch, req, now)
	set.Primary.Endpoint = EndpointOTCPayments
	set.Primary.APIVersion = VersionOTCPayments
	set.Primary.Body["customer_name"] = req.Customer.GivenNames
	return set
}

// metadataBag carries every order field reconciliation needs. The gateway
// echoes it back, which the normalizer uses as a fallback source of truth.
func metadataBag(ch models.PaymentChannel, req models.PaymentRequest) map[string]interface{} {
	bag := map[string]interface{}{
		"external_id":       req.ExternalID,
		"payment_method_id": ch.ID,
		"customer_email":    req.Customer.Email,
		"description":       req.Description,
	}
	if req.Order != nil {
		bag["product_id"] = req.Order.ProductID
		bag["order_type"] = req.Order.OrderType
		bag["user_id"] = req.Order.UserID
		if req.Order.RentalDuration > 0 {
			bag["rental_duration"] = req.Order.RentalDuration
		}
	}
	return bag
}
