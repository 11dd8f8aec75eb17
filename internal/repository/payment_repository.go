package repository

import (
	"context"
	"database/sql"

	"payment-router/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Upsert is keyed on the upstream payment id, so re-normalizing the same
// attempt after a caller-side retry overwrites instead of duplicating.
func (r *PaymentRepository) Upsert(ctx context.Context, payment *models.PaymentResult) error {
	query := `
		INSERT INTO payments (
			id, external_id, amount, currency, status, payment_method,
			expiry_date, virtual_account_number, bank_code, account_holder_name,
			invoice_url, qr_string, redirect_url, payment_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			expiry_date = EXCLUDED.expiry_date,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.ExternalID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.ChannelID,
		payment.ExpiryTime,
		payment.AccountNumber,
		payment.BankCode,
		payment.AccountHolderName,
		payment.InvoiceURL,
		payment.QRString,
		payment.RedirectURL,
		payment.PaymentCode,
	)

	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.PaymentResult, error) {
	query := `
		SELECT id, external_id, amount, currency, status, payment_method,
			   expiry_date, virtual_account_number, bank_code, account_holder_name,
			   invoice_url, qr_string, redirect_url, payment_code
		FROM payments WHERE id = $1
	`

	payment := &models.PaymentResult{}
	var accountNumber, bankCode, holderName, invoiceURL, qrString, redirectURL, paymentCode sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.ExternalID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.ChannelID,
		&payment.ExpiryTime,
		&accountNumber,
		&bankCode,
		&holderName,
		&invoiceURL,
		&qrString,
		&redirectURL,
		&paymentCode,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payment.AccountNumber = accountNumber.String
	payment.BankCode = bankCode.String
	payment.AccountHolderName = holderName.String
	payment.InvoiceURL = invoiceURL.String
	payment.QRString = qrString.String
	payment.RedirectURL = redirectURL.String
	payment.PaymentCode = paymentCode.String

	return payment, nil
}
