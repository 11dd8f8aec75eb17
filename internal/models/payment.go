package models

import "time"

// Archetype identifies which upstream API surface a channel is routed through.
type Archetype string

const (
	ArchetypeBankTransfer   Archetype = "bank_transfer"
	ArchetypeWalletOrQR     Archetype = "wallet_qr"
	ArchetypeOverTheCounter Archetype = "over_the_counter"
	ArchetypeOther          Archetype = "other"
)

const (
	PaymentStatusPending = "PENDING"
	OrderStatusPending   = "pending"
)

// PaymentChannel is one registry entry. Loaded at startup, never mutated.
type PaymentChannel struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"name"`
	Archetype   Archetype `json:"type"`
	GatewayCode string    `json:"-"`
	MinAmount   int64     `json:"min_amount"`
	MaxAmount   int64     `json:"max_amount"`
	IsActive    bool      `json:"-"`
}

type Customer struct {
	GivenNames   string `json:"given_names"`
	Email        string `json:"email" binding:"omitempty,email"`
	MobileNumber string `json:"mobile_number"`
}

type OrderDetails struct {
	ProductID      string `json:"product_id"`
	OrderType      string `json:"order_type"` // purchase | rental
	RentalDuration int    `json:"rental_duration"`
	UserID         string `json:"user_id"`
}

type PaymentRequest struct {
	Amount             int64         `json:"amount" binding:"required,gt=0"`
	Currency           string        `json:"currency"`
	ChannelID          string        `json:"payment_method_id" binding:"required"`
	ExternalID         string        `json:"external_id" binding:"required"`
	Customer           Customer      `json:"customer"`
	Description        string        `json:"description"`
	SuccessRedirectURL string        `json:"success_redirect_url"`
	FailureRedirectURL string        `json:"failure_redirect_url"`
	Order              *OrderDetails `json:"order,omitempty"`
}

// FixedAccount is the virtual account created for one bank-transfer attempt.
// Consumed immediately by the same request; persisted for reconciliation.
type FixedAccount struct {
	GatewayAccountID  string    `json:"gateway_account_id"`
	ExternalID        string    `json:"external_id"`
	BankCode          string    `json:"bank_code"`
	AccountNumber     string    `json:"account_number"`
	AccountHolderName string    `json:"account_holder_name"`
	ExpectedAmount    int64     `json:"expected_amount"`
	ExpirationTime    time.Time `json:"expiration_time"`
}

// PaymentResult is the canonical record every upstream shape normalizes into.
// Constructed once per attempt, immutable afterwards.
type PaymentResult struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	ChannelID  string    `json:"payment_method"`
	ExpiryTime time.Time `json:"expiry_date"`

	AccountNumber     string `json:"virtual_account_number,omitempty"`
	BankCode          string `json:"bank_code,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	InvoiceURL        string `json:"invoice_url,omitempty"`
	QRString          string `json:"qr_string,omitempty"`
	RedirectURL       string `json:"redirect_url,omitempty"`
	PaymentCode       string `json:"payment_code,omitempty"`
}

type OrderRecord struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	CustomerEmail string    `json:"customer_email"`
	Amount        int64     `json:"amount"`
	ProductID     string    `json:"product_id,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Database schema
const OrderSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id VARCHAR(36) PRIMARY KEY,
    external_id VARCHAR(255) NOT NULL UNIQUE,
    customer_email VARCHAR(255),
    amount BIGINT NOT NULL,
    product_id VARCHAR(255),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_dedup ON orders (customer_email, amount, created_at);
`

const PaymentSchema = `
CREATE TABLE IF NOT EXISTS payments (
    id VARCHAR(255) PRIMARY KEY,
    external_id VARCHAR(255) NOT NULL,
    amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    status VARCHAR(30) NOT NULL,
    payment_method VARCHAR(50) NOT NULL,
    expiry_date TIMESTAMPTZ NOT NULL,
    virtual_account_number VARCHAR(50),
    bank_code VARCHAR(20),
    account_holder_name VARCHAR(255),
    invoice_url TEXT,
    qr_string TEXT,
    redirect_url TEXT,
    payment_code VARCHAR(50),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_external_id ON payments (external_id);
`

const FixedAccountSchema = `
CREATE TABLE IF NOT EXISTS fixed_accounts (
    external_id VARCHAR(255) PRIMARY KEY,
    gateway_account_id VARCHAR(255) NOT NULL,
    bank_code VARCHAR(20) NOT NULL,
    account_number VARCHAR(50) NOT NULL,
    account_holder_name VARCHAR(255),
    expected_amount BIGINT NOT NULL,
    expiration_time TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
