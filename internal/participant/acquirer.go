package participant

import (
	"fmt"
	"sort"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// Acquirer contracts merchants, routes their transactions toward the network
// and pays them out after settlement.
type Acquirer struct {
	name     string
	notifier event.Notifier
	logger   logger.Logger

	merchants   map[string]domain.Merchant
	received    []domain.Transaction // every transaction seen, any status
	captureWait []domain.Transaction // authorized, queued for the capture batch
	captured    []domain.Transaction
	payoutWait  []domain.Transaction // settled acquirer-side, ready for payout
	chargebacks map[string]domain.Chargeback
}

func NewAcquirer(name string, notifier event.Notifier, log logger.Logger) *Acquirer {
	return &Acquirer{
		name:        name,
		notifier:    notifier,
		logger:      log,
		merchants:   make(map[string]domain.Merchant),
		chargebacks: make(map[string]domain.Chargeback),
	}
}

func (a *Acquirer) Name() string { return a.name }

func (a *Acquirer) RegisterMerchant(m domain.Merchant) {
	a.merchants[m.ID] = m
	a.notifier.Notify(fmt.Sprintf("[%s] Merchant %s (%s) registered", a.name, m.Name, m.ID), event.SeveritySuccess)
}

func (a *Acquirer) Merchant(id string) (domain.Merchant, error) {
	m, ok := a.merchants[id]
	if !ok {
		return domain.Merchant{}, apperrors.ErrUnknownMerchant
	}
	return m, nil
}

func (a *Acquirer) MerchantCount() int { return len(a.merchants) }

// AcceptTransaction takes a pending transaction from one of the acquirer's
// merchants and records it before routing.
func (a *Acquirer) AcceptTransaction(tx domain.Transaction) (domain.Transaction, error) {
	if _, ok := a.merchants[tx.MerchantID]; !ok {
		return tx, apperrors.ErrUnknownMerchant
	}
	a.received = append(a.received, tx)
	a.notifier.Notify(fmt.Sprintf("[%s] Received transaction %s, amount %s", a.name, tx.ID, tx.Amount.StringFixed(2)), event.SeverityInfo)
	return tx, nil
}

// ReceiveAuthResponse records the network's relay of the issuer decision.
// Authorized transactions join the capture queue; declined ones stay only in
// the received list.
func (a *Acquirer) ReceiveAuthResponse(tx domain.Transaction) domain.Transaction {
	switch tx.Status {
	case domain.TransactionStatusAuthorized:
		a.captureWait = append(a.captureWait, tx)
		a.notifier.Notify(fmt.Sprintf("[%s] Transaction %s APPROVED, queued for capture (auth %s)", a.name, tx.ID, tx.AuthCode), event.SeveritySuccess)
	case domain.TransactionStatusDeclined:
		a.notifier.Notify(fmt.Sprintf("[%s] Transaction %s DECLINED: %s", a.name, tx.ID, tx.DeclineReason), event.SeverityError)
	default:
		a.logger.Warn("unexpected status in auth response", map[string]interface{}{
			"tx_id":  tx.ID,
			"status": tx.Status,
		})
	}
	// keep the received list current with the final decision
	for i := range a.received {
		if a.received[i].ID == tx.ID {
			a.received[i] = tx
		}
	}
	return tx
}

// CaptureQueue returns the authorized transactions awaiting the capture batch.
func (a *Acquirer) CaptureQueue() []domain.Transaction {
	out := make([]domain.Transaction, len(a.captureWait))
	copy(out, a.captureWait)
	return out
}

// RecordCaptured stores the network's captured snapshots and clears the queue.
func (a *Acquirer) RecordCaptured(txs []domain.Transaction) {
	a.captured = append(a.captured, txs...)
	a.captureWait = a.captureWait[:0]
	a.notifier.Notify(fmt.Sprintf("[%s] Capture batch confirmed: %d transaction(s)", a.name, len(txs)), event.SeveritySuccess)
}

// CapturedQueue returns captured transactions awaiting settlement.
func (a *Acquirer) CapturedQueue() []domain.Transaction {
	out := make([]domain.Transaction, len(a.captured))
	copy(out, a.captured)
	return out
}

// ProcessSettlement records the acquirer-addressed settlement batch and moves
// each transaction into the payout queue.
func (a *Acquirer) ProcessSettlement(txs []domain.Transaction) {
	for _, tx := range txs {
		a.payoutWait = append(a.payoutWait, tx)
		a.notifier.Notify(fmt.Sprintf("[%s] Transaction %s settled, ready for merchant payout", a.name, tx.ID), event.SeverityInfo)
	}
	a.captured = a.captured[:0]
}

// PayoutQueue returns the settled transactions awaiting the CNAB payout batch.
func (a *Acquirer) PayoutQueue() []domain.Transaction {
	out := make([]domain.Transaction, len(a.payoutWait))
	copy(out, a.payoutWait)
	return out
}

// Received returns every transaction the acquirer has seen, with final
// statuses. Used by the regulatory volume report.
func (a *Acquirer) Received() []domain.Transaction {
	out := make([]domain.Transaction, len(a.received))
	copy(out, a.received)
	return out
}

// ReceiveChargebackNotice records a dispute relayed by the network.
func (a *Acquirer) ReceiveChargebackNotice(cb domain.Chargeback) {
	a.chargebacks[cb.ID] = cb
	a.notifier.Notify(fmt.Sprintf("[%s] Chargeback %s received for transaction %s", a.name, cb.ID, cb.TransactionID), event.SeverityWarning)
}

// Chargebacks returns the disputes the acquirer is tracking, sorted by id so
// downstream report output does not depend on map iteration order.
func (a *Acquirer) Chargebacks() []domain.Chargeback {
	out := make([]domain.Chargeback, 0, len(a.chargebacks))
	for _, cb := range a.chargebacks {
		out = append(out, cb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
