package channels

import (
	"errors"
	"fmt"

	"payment-router/internal/models"
)

var (
	ErrNotFound = errors.New("payment channel not found")
	ErrInactive = errors.New("payment channel is inactive")
)

// AmountRangeError reports an amount outside a channel's configured limits.
// Detected before any network call; this is a client error.
type AmountRangeError struct {
	ChannelID string
	Amount    int64
	Min       int64
	Max       int64
}

func (e *AmountRangeError) Error() string {
	return fmt.Sprintf("amount %d out of range for channel %s (min %d, max %d)", e.Amount, e.ChannelID, e.Min, e.Max)
}

// Registry is the read-only channel lookup. Construct once at startup (or per
// test with fixture channels) and share freely; it is never mutated afterwards.
type Registry struct {
	byID  map[string]models.PaymentChannel
	order []string
}

func NewRegistry(channels []models.PaymentChannel) *Registry {
	r := &Registry{byID: make(map[string]models.PaymentChannel, len(channels))}
	for _, ch := range channels {
		if _, dup := r.byID[ch.ID]; dup {
			continue
		}
		r.byID[ch.ID] = ch
		r.order = append(r.order, ch.ID)
	}
	return r
}

// Resolve returns the channel for an internal method id. Activation is not
// checked here; callers that route payments must check IsActive and report
// ErrInactive distinctly so alternatives can be suggested.
func (r *Registry) Resolve(channelID string) (models.PaymentChannel, error) {
	ch, ok := r.byID[channelID]
	if !ok {
		return models.PaymentChannel{}, fmt.Errorf("%w: %s", ErrNotFound, channelID)
	}
	return ch, nil
}

// ValidateAmount accepts boundary values: min <= amount <= max.
func ValidateAmount(ch models.PaymentChannel, amount int64) bool {
	return amount >= ch.MinAmount && amount <= ch.MaxAmount
}

// ListActive returns active channels in registration order, for suggestion
// lists and checkout rendering.
func (r *Registry) ListActive() []models.PaymentChannel {
	var out []models.PaymentChannel
	for _, id := range r.order {
		if ch := r.byID[id]; ch.IsActive {
			out = append(out, ch)
		}
	}
	return out
}

// DefaultChannels is the production method catalog.
func DefaultChannels() []models.PaymentChannel {
	return []models.PaymentChannel{
		{ID: "bca", DisplayName: "BCA Virtual Account", Archetype: models.ArchetypeBankTransfer, GatewayCode: "BCA", MinAmount: 10000, MaxAmount: 50000000, IsActive: true},
		{ID: "bni", DisplayName: "BNI Virtual Account", Archetype: models.ArchetypeBankTransfer, GatewayCode: "BNI", MinAmount: 10000, MaxAmount: 50000000, IsActive: true},
		{ID: "bri", DisplayName: "BRI Virtual Account", Archetype: models.ArchetypeBankTransfer, GatewayCode: "BRI", MinAmount: 10000, MaxAmount: 50000000, IsActive: true},
		{ID: "mandiri", DisplayName: "Mandiri Virtual Account", Archetype: models.ArchetypeBankTransfer, GatewayCode: "MANDIRI", MinAmount: 10000, MaxAmount: 50000000, IsActive: true},
		{ID: "permata", DisplayName: "Permata Virtual Account", Archetype: models.ArchetypeBankTransfer, GatewayCode: "PERMATA", MinAmount: 10000, MaxAmount: 50000000, IsActive: false},
		{ID: "qris", DisplayName: "QRIS", Archetype: models.ArchetypeWalletOrQR, GatewayCode: "QRIS", MinAmount: 1500, MaxAmount: 10000000, IsActive: true},
		{ID: "ovo", DisplayName: "OVO", Archetype: models.ArchetypeWalletOrQR, GatewayCode: "ID_OVO", MinAmount: 1000, MaxAmount: 20000000, IsActive: true},
		{ID: "dana", DisplayName: "DANA", Archetype: models.ArchetypeWalletOrQR, GatewayCode: "ID_DANA", MinAmount: 1000, MaxAmount: 20000000, IsActive: true},
		{ID: "shopeepay", DisplayName: "ShopeePay", Archetype: models.ArchetypeWalletOrQR, GatewayCode: "ID_SHOPEEPAY", MinAmount: 1000, MaxAmount: 20000000, IsActive: true},
		{ID: "alfamart", DisplayName: "Alfamart", Archetype: models.ArchetypeOverTheCounter, GatewayCode: "ALFAMART", MinAmount: 10000, MaxAmount: 2500000, IsActive: true},
		{ID: "indomaret", DisplayName: "Indomaret", Archetype: models.ArchetypeOverTheCounter, GatewayCode: "INDOMARET", MinAmount: 10000, MaxAmount: 2500000, IsActive: true},
		{ID: "akulaku", DisplayName: "Akulaku PayLater", Archetype: models.ArchetypeOther, GatewayCode: "ID_AKULAKU", MinAmount: 10000, MaxAmount: 25000000, IsActive: true},
	}
}
