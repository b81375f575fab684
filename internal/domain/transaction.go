package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "cardsim/pkg/errors"
)

type CardType string

const (
	CardTypeCredit CardType = "credit"
	CardTypeDebit  CardType = "debit"
)

// Transaction represents one card purchase moving through the pipeline.
// Stages receive it by value and return the updated copy; each participant
// keeps its own snapshot, so there is no shared mutable record whose status
// two actors could disagree about.
type Transaction struct {
	ID            string            `json:"id"`
	Amount        decimal.Decimal   `json:"amount"`
	CardType      CardType          `json:"card_type"`
	CardBIN       string            `json:"card_bin"`
	CardholderID  string            `json:"cardholder_id"`
	MerchantID    string            `json:"merchant_id"`
	Status        TransactionStatus `json:"status"`
	DeclineReason string            `json:"decline_reason,omitempty"`
	AuthCode      string            `json:"auth_code,omitempty"`
	NetworkRef    string            `json:"network_ref,omitempty"` // NSU assigned by the network
	SettlementRef string            `json:"settlement_ref,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type TransactionStatus string

const (
	TransactionStatusPending         TransactionStatus = "pending"
	TransactionStatusAuthorized      TransactionStatus = "authorized"
	TransactionStatusDeclined        TransactionStatus = "declined"
	TransactionStatusCaptured        TransactionStatus = "captured"
	TransactionStatusSettledAcquirer TransactionStatus = "settled_acquirer"
	TransactionStatusSettledIssuer   TransactionStatus = "settled_issuer"
	TransactionStatusBilled          TransactionStatus = "billed"
	TransactionStatusReversed        TransactionStatus = "reversed"
)

// transactionTransitions is the monotonic pipeline: a declined transaction is
// terminal, the acquirer side ends at settled_acquirer, the issuer side runs
// through billing, and reversed is only reachable after capture (a dispute
// against a completed purchase).
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:         {TransactionStatusAuthorized, TransactionStatusDeclined},
	TransactionStatusAuthorized:      {TransactionStatusCaptured, TransactionStatusSettledIssuer},
	TransactionStatusCaptured:        {TransactionStatusSettledAcquirer, TransactionStatusReversed},
	TransactionStatusSettledAcquirer: {TransactionStatusReversed},
	TransactionStatusSettledIssuer:   {TransactionStatusBilled, TransactionStatusReversed},
	TransactionStatusBilled:          {TransactionStatusReversed},
}

// CanTransitionTo reports whether the pipeline allows moving to the target status.
func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition advances the transaction's status, rejecting any move the
// pipeline does not allow.
func (t *Transaction) Transition(to TransactionStatus) error {
	if !t.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s (txn %s)", apperrors.ErrInvalidStatusTransition, t.Status, to, t.ID)
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	return nil
}

// NewTransaction builds a pending transaction for a card purchase.
func NewTransaction(amount decimal.Decimal, cardType CardType, cardBIN, cardholderID, merchantID string) Transaction {
	now := time.Now()
	return Transaction{
		ID:           NewTransactionID(),
		Amount:       amount,
		CardType:     cardType,
		CardBIN:      cardBIN,
		CardholderID: cardholderID,
		MerchantID:   merchantID,
		Status:       TransactionStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewTransactionID() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
