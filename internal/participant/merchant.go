// Package participant implements the five actors of the card-payment
// ecosystem. Each actor owns its own bookkeeping collections and emits one
// narrated event per message hop; transactions move between actors by value,
// so every actor holds a snapshot rather than a shared record.
package participant

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// PurchaseRequest is a card swipe at the merchant's terminal.
type PurchaseRequest struct {
	Amount       decimal.Decimal `validate:"required"`
	CardType     domain.CardType `validate:"required,oneof=credit debit"`
	CardBIN      string          `validate:"required,len=6,numeric"`
	CardholderID string          `validate:"required"`
}

// Merchant is the store where purchases originate and the party that
// defends chargebacks.
type Merchant struct {
	profile  domain.Merchant
	notifier event.Notifier
	logger   logger.Logger
	validate *validator.Validate

	sales       map[string]domain.Transaction
	disputes    map[string]domain.Chargeback
	defensesOut int
}

func NewMerchant(profile domain.Merchant, notifier event.Notifier, log logger.Logger) *Merchant {
	return &Merchant{
		profile:  profile,
		notifier: notifier,
		logger:   log,
		validate: validator.New(),
		sales:    make(map[string]domain.Transaction),
		disputes: make(map[string]domain.Chargeback),
	}
}

func (m *Merchant) Profile() domain.Merchant { return m.profile }

// InitiatePurchase validates the swipe and builds a pending transaction.
// The source system accepted any amount; non-positive amounts are rejected
// here so a nonsense purchase fails at the boundary instead of mid-pipeline.
func (m *Merchant) InitiatePurchase(req PurchaseRequest) (domain.Transaction, error) {
	if err := m.validate.Struct(req); err != nil {
		return domain.Transaction{}, apperrors.Wrap(err, "invalid purchase request")
	}
	if !req.Amount.IsPositive() {
		return domain.Transaction{}, apperrors.ErrInvalidAmount
	}

	tx := domain.NewTransaction(req.Amount, req.CardType, req.CardBIN, req.CardholderID, m.profile.ID)
	m.sales[tx.ID] = tx

	m.notifier.Notify(fmt.Sprintf("[%s] New sale %s: card %s, amount %s", m.profile.Name, tx.ID, tx.CardBIN, tx.Amount.StringFixed(2)), event.SeverityInfo)
	m.logger.Debug("purchase initiated", map[string]interface{}{
		"tx_id":  tx.ID,
		"amount": tx.Amount.String(),
	})
	return tx, nil
}

// ReceiveChargebackNotice records the dispute the acquirer relayed.
func (m *Merchant) ReceiveChargebackNotice(cb domain.Chargeback) {
	m.disputes[cb.ID] = cb
	m.notifier.Notify(fmt.Sprintf("[%s] Chargeback notice for sale %s (%s). Preparing defense...", m.profile.Name, cb.TransactionID, cb.Reason), event.SeverityWarning)
}

// PrepareDefense assembles the representment documents. The demo has no real
// document store; the flag stands in for an evidence bundle.
func (m *Merchant) PrepareDefense(cb domain.Chargeback) bool {
	if _, ok := m.disputes[cb.ID]; !ok {
		m.logger.Warn("defense requested for unknown dispute", map[string]interface{}{"chargeback_id": cb.ID})
		return false
	}
	m.defensesOut++
	m.notifier.Notify(fmt.Sprintf("[%s] Defense documents ready for chargeback %s", m.profile.Name, cb.ID), event.SeverityInfo)
	return true
}
