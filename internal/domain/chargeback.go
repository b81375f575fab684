package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "cardsim/pkg/errors"
)

type ChargebackReason string

const (
	ChargebackReasonFraud              ChargebackReason = "fraud"
	ChargebackReasonGoodsNotReceived   ChargebackReason = "goods_not_received"
	ChargebackReasonServiceNotProvided ChargebackReason = "service_not_provided"
	ChargebackReasonDuplicate          ChargebackReason = "duplicate"
)

type ChargebackStatus string

const (
	ChargebackStatusFiled              ChargebackStatus = "filed"
	ChargebackStatusDocsRequested      ChargebackStatus = "docs_requested"
	ChargebackStatusDocsSubmitted      ChargebackStatus = "docs_submitted"
	ChargebackStatusRepresented        ChargebackStatus = "represented"
	ChargebackStatusArbitration        ChargebackStatus = "arbitration"
	ChargebackStatusResolvedMerchant   ChargebackStatus = "resolved_merchant"
	ChargebackStatusResolvedCardholder ChargebackStatus = "resolved_cardholder"
	ChargebackStatusCancelled          ChargebackStatus = "cancelled"
)

var chargebackTransitions = map[ChargebackStatus][]ChargebackStatus{
	ChargebackStatusFiled:         {ChargebackStatusDocsRequested, ChargebackStatusDocsSubmitted, ChargebackStatusCancelled},
	ChargebackStatusDocsRequested: {ChargebackStatusDocsSubmitted, ChargebackStatusCancelled},
	ChargebackStatusDocsSubmitted: {ChargebackStatusRepresented, ChargebackStatusCancelled},
	ChargebackStatusRepresented:   {ChargebackStatusArbitration, ChargebackStatusResolvedMerchant, ChargebackStatusResolvedCardholder, ChargebackStatusCancelled},
	ChargebackStatusArbitration:   {ChargebackStatusResolvedMerchant, ChargebackStatusResolvedCardholder},
}

// IsTerminal reports whether the dispute can no longer move.
func (s ChargebackStatus) IsTerminal() bool {
	switch s {
	case ChargebackStatusResolvedMerchant, ChargebackStatusResolvedCardholder, ChargebackStatusCancelled:
		return true
	}
	return false
}

func (s ChargebackStatus) CanTransitionTo(to ChargebackStatus) bool {
	for _, allowed := range chargebackTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusChange is one entry in a chargeback's append-only history.
type StatusChange struct {
	At     time.Time        `json:"at"`
	Status ChargebackStatus `json:"status"`
}

// Chargeback is a cardholder dispute against a completed transaction. The
// processor owns the single authoritative record for the dispute's duration;
// participants keep read-only snapshots.
type Chargeback struct {
	ID            string           `json:"id"`
	TransactionID string           `json:"transaction_id"`
	Reason        ChargebackReason `json:"reason"`
	Amount        decimal.Decimal  `json:"amount"`
	FiledAt       time.Time        `json:"filed_at"`
	Status        ChargebackStatus `json:"status"`
	History       []StatusChange   `json:"history"`
	DocsSubmitted bool             `json:"docs_submitted"`
}

// NewChargeback files a dispute against the given transaction.
func NewChargeback(tx Transaction, reason ChargebackReason) *Chargeback {
	now := time.Now()
	return &Chargeback{
		ID:            NewChargebackID(),
		TransactionID: tx.ID,
		Reason:        reason,
		Amount:        tx.Amount,
		FiledAt:       now,
		Status:        ChargebackStatusFiled,
		History:       []StatusChange{{At: now, Status: ChargebackStatusFiled}},
	}
}

// UpdateStatus advances the dispute and appends to its history. History is
// never rewritten; the current status is always the last entry.
func (c *Chargeback) UpdateStatus(to ChargebackStatus) error {
	if !c.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s (chargeback %s)", apperrors.ErrInvalidStatusTransition, c.Status, to, c.ID)
	}
	c.Status = to
	c.History = append(c.History, StatusChange{At: time.Now(), Status: to})
	return nil
}

func NewChargebackID() string {
	return fmt.Sprintf("CB-%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
