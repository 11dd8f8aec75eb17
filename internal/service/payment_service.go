package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payment-router/internal/channels"
	"payment-router/internal/gateway"
	"payment-router/internal/models"
	"payment-router/internal/notify"
)

// Look-back window for the duplicate-order guard.
const dedupWindow = 2 * time.Minute

const resultCacheTTL = 24 * time.Hour

type OrderStore interface {
	Create(ctx context.Context, order *models.OrderRecord) (bool, error)
	FindRecentDuplicate(ctx context.Context, email string, amount int64, since time.Time) (*models.OrderRecord, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.OrderRecord, error)
}

type PaymentStore interface {
	Upsert(ctx context.Context, payment *models.PaymentResult) error
	GetByID(ctx context.Context, id string) (*models.PaymentResult, error)
}

type AccountStore interface {
	Upsert(ctx context.Context, account *models.FixedAccount) error
}

type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// PaymentService routes a payment attempt through registry resolution,
// payload construction, the gateway call (or the bank-transfer bind
// sequence), normalization, idempotent persistence, and async notification.
type PaymentService struct {
	registry *channels.Registry
	builder  *gateway.Builder
	client   gateway.Sender
	binder   *gateway.Binder
	orders   OrderStore
	payments PaymentStore
	accounts AccountStore
	cache    ResultCache
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewPaymentService(
	registry *channels.Registry,
	builder *gateway.Builder,
	client gateway.Sender,
	binder *gateway.Binder,
	orders OrderStore,
	payments PaymentStore,
	accounts AccountStore,
	cache ResultCache,
	notifier notify.Notifier,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		registry: registry,
		builder:  builder,
		client:   client,
		binder:   binder,
		orders:   orders,
		payments: payments,
		accounts: accounts,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// CreatePayment runs one attempt end to end. Client-input errors are
// returned before any network call; persistence and notification failures
// after a gateway success are logged but never surfaced, because the payment
// exists upstream and that fact must reach the caller.
func (s *PaymentService) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResult, error) {
	if req.Currency == "" {
		req.Currency = "IDR"
	}

	ch, err := s.registry.Resolve(req.ChannelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, fmt.Errorf("%w: %s", channels.ErrInactive, ch.ID)
	}
	if !channels.ValidateAmount(ch, req.Amount) {
		return nil, &channels.AmountRangeError{
			ChannelID: ch.ID,
			Amount:    req.Amount,
			Min:       ch.MinAmount,
			Max:       ch.MaxAmount,
		}
	}

	// Same external id within the cache TTL means the same logical attempt.
	if cached := s.cachedResult(ctx, req.ExternalID); cached != nil {
		return cached, nil
	}

	now := time.Now()

	// Created before the gateway call so notifications can reference it.
	// Failure here is bookkeeping, not a reason to abort the attempt.
	order, err := s.upsertOrder(ctx, req, now)
	if err != nil {
		s.logger.Error("order persistence failed",
			zap.String("external_id", req.ExternalID),
			zap.Error(err))
	}

	set := s.builder.Build(ch, *req, now)

	var raw map[string]interface{}
	var account *models.FixedAccount

	if ch.Archetype == models.ArchetypeBankTransfer {
		outcome, bindErr := s.binder.Bind(ctx, set, req.ExternalID)
		if outcome != nil && outcome.Account != nil {
			account = outcome.Account
			if err := s.accounts.Upsert(ctx, account); err != nil {
				s.logger.Error("fixed account persistence failed",
					zap.String("external_id", req.ExternalID),
					zap.Error(err))
			}
		}
		if bindErr != nil {
			gatewayFailures.WithLabelValues(failureKind(bindErr)).Inc()
			return nil, bindErr
		}
		raw = outcome.Invoice
	} else {
		raw, err = s.client.Send(ctx, set.Primary.Endpoint, set.Primary.APIVersion, set.Primary.Body, req.ExternalID)
		if err != nil {
			gatewayFailures.WithLabelValues(failureKind(err)).Inc()
			return nil, err
		}
	}

	result := gateway.Normalize(ch, raw, account, *req, now)

	if err := s.payments.Upsert(ctx, &result); err != nil {
		s.logger.Error("payment persistence failed",
			zap.String("payment_id", result.ID),
			zap.String("external_id", req.ExternalID),
			zap.Error(err))
	}

	s.cacheResult(ctx, req.ExternalID, &result)
	paymentsCreated.WithLabelValues(ch.ID, string(ch.Archetype)).Inc()

	s.dispatchNotification(order, &result)

	return &result, nil
}

// GetPayment retrieves a persisted payment by its upstream id.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.PaymentResult, error) {
	return s.payments.GetByID(ctx, id)
}

// ListMethods returns the active channels for checkout rendering and for
// error suggestions.
func (s *PaymentService) ListMethods() []models.PaymentChannel {
	return s.registry.ListActive()
}

// upsertOrder applies the duplicate guard: an order from the same customer
// for the same amount inside the window is returned unchanged instead of
// inserted again. The unique constraint on external_id is the hard backstop.
func (s *PaymentService) upsertOrder(ctx context.Context, req *models.PaymentRequest, now time.Time) (*models.OrderRecord, error) {
	existing, err := s.orders.FindRecentDuplicate(ctx, req.Customer.Email, req.Amount, now.Add(-dedupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		duplicateOrders.Inc()
		return existing, nil
	}

	order := &models.OrderRecord{
		ID:            uuid.New().String(),
		ExternalID:    req.ExternalID,
		CustomerEmail: req.Customer.Email,
		Amount:        req.Amount,
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
	}
	if req.Order != nil {
		order.ProductID = req.Order.ProductID
	}

	inserted, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.orders.FindByExternalID(ctx, req.ExternalID)
	}
	return order, nil
}

func (s *PaymentService) cachedResult(ctx context.Context, externalID string) *models.PaymentResult {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, resultCacheKey(externalID))
	if err != nil {
		return nil
	}

	var result models.PaymentResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return &result
}

func (s *PaymentService) cacheResult(ctx context.Context, externalID string, result *models.PaymentResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, resultCacheKey(externalID), data, resultCacheTTL); err != nil {
		s.logger.Warn("result cache write failed",
			zap.String("external_id", externalID),
			zap.Error(err))
	}
}

func resultCacheKey(externalID string) string {
	return "payment:result:" + externalID
}

// dispatchNotification fires and forgets. Never awaited on the critical
// path; panics and errors stop here.
func (s *PaymentService) dispatchNotification(order *models.OrderRecord, result *models.PaymentResult) {
	if s.notifier == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification dispatch panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.notifier.PaymentCreated(ctx, order, result); err != nil {
			notificationFailures.Inc()
			s.logger.Warn("notification failed",
				zap.String("external_id", result.ExternalID),
				zap.Error(err))
		}
	}()
}

func failureKind(err error) string {
	switch err.(type) {
	case *gateway.UnreachableError:
		return "unreachable"
	case *gateway.RejectedError:
		return "rejected"
	default:
		return "other"
	}
}
