package repository

import (
	"context"
	"database/sql"

	"payment-router/internal/models"
)

type FixedAccountRepository struct {
	db *sql.DB
}

func NewFixedAccountRepository(db *sql.DB) *FixedAccountRepository {
	return &FixedAccountRepository{db: db}
}

// Upsert records the account created at the gateway, keyed by external id.
// Written even when invoice binding fails: the account resource is live
// upstream and reconciliation needs a trace of it.
func (r *FixedAccountRepository) Upsert(ctx context.Context, account *models.FixedAccount) error {
	query := `
		INSERT INTO fixed_accounts (
			external_id, gateway_account_id, bank_code, account_number,
			account_holder_name, expected_amount, expiration_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			gateway_account_id = EXCLUDED.gateway_account_id,
			account_number = EXCLUDED.account_number,
			expiration_time = EXCLUDED.expiration_time
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ExternalID,
		account.GatewayAccountID,
		account.BankCode,
		account.AccountNumber,
		account.AccountHolderName,
		account.ExpectedAmount,
		account.ExpirationTime,
	)

	return err
}
