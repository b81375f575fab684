package participant

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// Issuer is the cardholder's bank. It owns the tracked balances, makes the
// authorization decision and bills settled transactions.
type Issuer struct {
	name     string
	notifier event.Notifier
	logger   logger.Logger

	cardholders map[string]*domain.Cardholder
	approved    []domain.Transaction
	declined    []domain.Transaction
	billingWait []domain.Transaction // settled issuer-side, awaiting billing
	billed      []domain.Transaction
	chargebacks map[string]domain.Chargeback
}

func NewIssuer(name string, notifier event.Notifier, log logger.Logger) *Issuer {
	return &Issuer{
		name:        name,
		notifier:    notifier,
		logger:      log,
		cardholders: make(map[string]*domain.Cardholder),
		chargebacks: make(map[string]domain.Chargeback),
	}
}

func (i *Issuer) Name() string { return i.name }

func (i *Issuer) RegisterCardholder(ch domain.Cardholder) {
	copied := ch
	i.cardholders[ch.ID] = &copied
	i.notifier.Notify(fmt.Sprintf("[%s] Cardholder %s (%s) registered, balance %s", i.name, ch.Name, ch.ID, ch.Balance.StringFixed(2)), event.SeveritySuccess)
}

// Balance returns the issuer's tracked balance for a cardholder.
func (i *Issuer) Balance(cardholderID string) (decimal.Decimal, error) {
	ch, ok := i.cardholders[cardholderID]
	if !ok {
		return decimal.Zero, apperrors.ErrUnknownCardholder
	}
	return ch.Balance, nil
}

// Authorize applies the one real business rule of the pipeline: approve when
// the tracked balance covers the amount (a tie approves), debit on approval,
// decline with "insufficient funds" otherwise and leave the balance alone.
func (i *Issuer) Authorize(tx domain.Transaction) (domain.Transaction, error) {
	ch, ok := i.cardholders[tx.CardholderID]
	if !ok {
		return tx, apperrors.ErrUnknownCardholder
	}

	i.notifier.Notify(fmt.Sprintf("[%s] Authorization request %s: amount %s, balance %s", i.name, tx.ID, tx.Amount.StringFixed(2), ch.Balance.StringFixed(2)), event.SeverityInfo)

	if ch.Balance.GreaterThanOrEqual(tx.Amount) {
		if err := tx.Transition(domain.TransactionStatusAuthorized); err != nil {
			return tx, err
		}
		ch.Balance = ch.Balance.Sub(tx.Amount)
		tx.AuthCode = newAuthCode()
		i.approved = append(i.approved, tx)
		i.notifier.Notify(fmt.Sprintf("[%s] Transaction %s APPROVED, auth code %s, new balance %s", i.name, tx.ID, tx.AuthCode, ch.Balance.StringFixed(2)), event.SeveritySuccess)
		return tx, nil
	}

	if err := tx.Transition(domain.TransactionStatusDeclined); err != nil {
		return tx, err
	}
	tx.DeclineReason = apperrors.ErrInsufficientFunds.Error()
	i.declined = append(i.declined, tx)
	i.notifier.Notify(fmt.Sprintf("[%s] Transaction %s DECLINED (%s)", i.name, tx.ID, tx.DeclineReason), event.SeverityError)
	return tx, nil
}

// newAuthCode derives the authorization code from the current time, the same
// scheme the narrated demo has always shown.
func newAuthCode() string {
	return "A" + time.Now().Format("150405")
}

// ApprovedQueue returns the issuer's authorized snapshots awaiting issuer-side
// settlement.
func (i *Issuer) ApprovedQueue() []domain.Transaction {
	out := make([]domain.Transaction, len(i.approved))
	copy(out, i.approved)
	return out
}

// Declined returns the issuer's declined snapshots.
func (i *Issuer) Declined() []domain.Transaction {
	out := make([]domain.Transaction, len(i.declined))
	copy(out, i.declined)
	return out
}

// ProcessSettlement records the issuer-addressed settlement batch and queues
// each transaction for billing.
func (i *Issuer) ProcessSettlement(txs []domain.Transaction) {
	for _, tx := range txs {
		i.billingWait = append(i.billingWait, tx)
		i.notifier.Notify(fmt.Sprintf("[%s] Transaction %s settled, queued for billing", i.name, tx.ID), event.SeverityInfo)
	}
	i.approved = i.approved[:0]
}

// BillCardholders moves every settled transaction to billed and returns the
// updated copies for the billing artifact. One record per transaction; the
// demo does not aggregate statements per cardholder.
func (i *Issuer) BillCardholders() ([]domain.Transaction, error) {
	billedNow := make([]domain.Transaction, 0, len(i.billingWait))
	for _, tx := range i.billingWait {
		if err := tx.Transition(domain.TransactionStatusBilled); err != nil {
			return nil, err
		}
		billedNow = append(billedNow, tx)
		i.billed = append(i.billed, tx)
	}
	i.billingWait = i.billingWait[:0]
	if len(billedNow) > 0 {
		i.notifier.Notify(fmt.Sprintf("[%s] Billed %d transaction(s) to cardholders", i.name, len(billedNow)), event.SeveritySuccess)
	}
	return billedNow, nil
}

// Billed returns the issuer's billed snapshots, the credit-exposure report input.
func (i *Issuer) Billed() []domain.Transaction {
	out := make([]domain.Transaction, len(i.billed))
	copy(out, i.billed)
	return out
}

// ReceiveChargeback records a cardholder dispute.
func (i *Issuer) ReceiveChargeback(cb domain.Chargeback) {
	i.chargebacks[cb.ID] = cb
	i.notifier.Notify(fmt.Sprintf("[%s] Chargeback %s filed by cardholder for transaction %s (%s)", i.name, cb.ID, cb.TransactionID, cb.Reason), event.SeverityWarning)
}

// ReceiveResolution reacts to the network's final decision. Merchant-favor
// means the provisional refund is undone and the cardholder re-billed;
// cardholder-favor confirms the reversal.
func (i *Issuer) ReceiveResolution(cb domain.Chargeback) {
	i.chargebacks[cb.ID] = cb
	switch cb.Status {
	case domain.ChargebackStatusResolvedMerchant:
		i.notifier.Notify(fmt.Sprintf("[%s] Chargeback %s resolved for the MERCHANT; cardholder will be re-billed", i.name, cb.ID), event.SeveritySuccess)
	case domain.ChargebackStatusResolvedCardholder:
		i.notifier.Notify(fmt.Sprintf("[%s] Chargeback %s resolved for the CARDHOLDER; reversal confirmed", i.name, cb.ID), event.SeverityWarning)
	default:
		i.logger.Warn("resolution received with non-terminal status", map[string]interface{}{
			"chargeback_id": cb.ID,
			"status":        cb.Status,
		})
	}
}

// Chargebacks returns the disputes the issuer is tracking, sorted by id so
// downstream report output does not depend on map iteration order.
func (i *Issuer) Chargebacks() []domain.Chargeback {
	out := make([]domain.Chargeback, 0, len(i.chargebacks))
	for _, cb := range i.chargebacks {
		out = append(out, cb)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
