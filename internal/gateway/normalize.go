package gateway

import (
	"time"

	"payment-router/internal/models"
)

// Per-archetype key names for the direct fields. The upstream shapes share no
// schema; the generic payment-request surface names its id differently from
// the invoice surface, so each archetype gets its own ordered lookup lists.
type fieldTable struct {
	idKeys     []string
	statusKeys []string
	amountKeys []string
}

var fieldTables = map[models.Archetype]fieldTable{
	models.ArchetypeBankTransfer: {
		idKeys:     []string{"id", "invoice_id"},
		statusKeys: []string{"status"},
		amountKeys: []string{"amount", "expected_amount"},
	},
	models.ArchetypeWalletOrQR: {
		idKeys:     []string{"id", "payment_request_id"},
		statusKeys: []string{"status"},
		amountKeys: []string{"amount", "request_amount"},
	},
	models.ArchetypeOverTheCounter: {
		idKeys:     []string{"payment_request_id", "id"},
		statusKeys: []string{"status", "payment_status"},
		amountKeys: []string{"amount"},
	},
	models.ArchetypeOther: {
		idKeys:     []string{"id", "payment_request_id"},
		statusKeys: []string{"status"},
		amountKeys: []string{"amount"},
	},
}

// expiryKeys are the known upstream spellings, searched in order at the top
// level, then inside the first actions element, then in echoed metadata.
var expiryKeys = []string{
	"expiry_date",
	"expiration_date",
	"expires_at",
	"expired_at",
	"expiry",
	"expiration",
	"expire_date",
	"expiration_time",
	"expiry_time",
	"valid_until",
	"due_date",
	"expired_date",
}

// Action types whose value is a QR payload vs a customer redirect. Unknown
// types are skipped silently.
var qrActionTypes = map[string]bool{
	"PRESENT_TO_CUSTOMER": true,
	"QR_STRING":           true,
}

var redirectActionTypes = map[string]bool{
	"REDIRECT_CUSTOMER":        true,
	"AUTH":                     true,
	"MOBILE_DEEPLINK_CHECKOUT": true,
}

// Normalize maps one raw upstream response into the canonical record. The
// persisted payment method is always the caller's channel id, never whatever
// the gateway echoed back.
func Normalize(ch models.PaymentChannel, raw map[string]interface{}, account *models.FixedAccount, req models.PaymentRequest, now time.Time) models.PaymentResult {
	table, ok := fieldTables[ch.Archetype]
	if !ok {
		table = fieldTables[models.ArchetypeOther]
	}

	result := models.PaymentResult{
		ID:         firstString(raw, table.idKeys),
		ExternalID: req.ExternalID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Status:     models.PaymentStatusPending,
		ChannelID:  ch.ID,
		ExpiryTime: ResolveExpiry(raw, now),
	}

	if status := firstString(raw, table.statusKeys); status != "" {
		result.Status = status
	}
	if amount := firstInt64(raw, table.amountKeys); amount > 0 {
		result.Amount = amount
	}

	switch ch.Archetype {
	case models.ArchetypeBankTransfer:
		// The invoice response does not carry account details; the bound
		// FixedAccount is authoritative and the raw fields may be stale.
		if account != nil {
			result.AccountNumber = account.AccountNumber
			result.BankCode = account.BankCode
			result.AccountHolderName = account.AccountHolderName
		} else {
			result.AccountNumber = stringField(raw, "account_number")
			result.BankCode = stringField(raw, "bank_code")
			result.AccountHolderName = stringField(raw, "account_holder_name")
		}
		result.InvoiceURL = stringField(raw, "invoice_url")

	case models.ArchetypeOverTheCounter:
		result.PaymentCode = firstString(raw, []string{"payment_code", "retail_payment_code"})

	default:
		applyFirstAction(&result, raw)
	}

	return result
}

// applyFirstAction sets exactly one of QRString or RedirectURL from the first
// recognized element of the actions array.
func applyFirstAction(result *models.PaymentResult, raw map[string]interface{}) {
	for _, action := range actionsOf(raw) {
		kind := stringField(action, "type")
		value := firstString(action, []string{"value", "qr_string", "url"})
		if value == "" {
			continue
		}
		if qrActionTypes[kind] {
			result.QRString = value
			return
		}
		if redirectActionTypes[kind] {
			result.RedirectURL = value
			return
		}
	}
}

// ResolveExpiry walks the prioritized accessor list and always terminates
// with a usable timestamp: top-level keys, then the first actions element,
// then echoed metadata, then the requested default of now + 24h. Candidates
// already in the past are skipped so the result is never behind the request.
func ResolveExpiry(raw map[string]interface{}, now time.Time) time.Time {
	probes := []func() (time.Time, bool){
		func() (time.Time, bool) { return searchExpiryKeys(raw) },
		func() (time.Time, bool) {
			if actions := actionsOf(raw); len(actions) > 0 {
				return searchExpiryKeys(actions[0])
			}
			return time.Time{}, false
		},
		func() (time.Time, bool) {
			if meta, ok := raw["metadata"].(map[string]interface{}); ok {
				return searchExpiryKeys(meta)
			}
			return time.Time{}, false
		},
	}

	for _, probe := range probes {
		if ts, ok := probe(); ok && !ts.Before(now) {
			return ts
		}
	}
	return now.Add(RequestedExpiry)
}

func searchExpiryKeys(obj map[string]interface{}) (time.Time, bool) {
	for _, key := range expiryKeys {
		if raw, present := obj[key]; present {
			if ts, ok := parseTimestamp(raw); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func actionsOf(raw map[string]interface{}) []map[string]interface{} {
	list, ok := raw["actions"].([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	case float64:
		// Epoch seconds, or milliseconds for values past the year 33658.
		if t > 1e12 {
			return time.UnixMilli(int64(t)), true
		}
		if t > 0 {
			return time.Unix(int64(t), 0), true
		}
	}
	return time.Time{}, false
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func firstString(obj map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s := stringField(obj, key); s != "" {
			return s
		}
	}
	return ""
}

func int64Field(obj map[string]interface{}, key string) int64 {
	if f, ok := obj[key].(float64); ok {
		return int64(f)
	}
	return 0
}

func firstInt64(obj map[string]interface{}, keys []string) int64 {
	for _, key := range keys {
		if n := int64Field(obj, key); n != 0 {
			return n
		}
	}
	return 0
}
