package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cardsim/pkg/errors"
)

func newTestTransaction() Transaction {
	return NewTransaction(decimal.NewFromFloat(150.00), CardTypeCredit, "456789", "CARD-0001", "MERCH-0001")
}

func TestNewTransactionStartsPending(t *testing.T) {
	tx := newTestTransaction()

	assert.Equal(t, TransactionStatusPending, tx.Status)
	assert.NotEmpty(t, tx.ID)
	assert.Contains(t, tx.ID, "TXN-")
	assert.False(t, tx.CreatedAt.IsZero())
}

func TestTransactionHappyPathIssuerSide(t *testing.T) {
	tx := newTestTransaction()

	for _, status := range []TransactionStatus{
		TransactionStatusAuthorized,
		TransactionStatusSettledIssuer,
		TransactionStatusBilled,
	} {
		require.NoError(t, tx.Transition(status))
		assert.Equal(t, status, tx.Status)
	}
}

func TestTransactionHappyPathAcquirerSide(t *testing.T) {
	tx := newTestTransaction()

	for _, status := range []TransactionStatus{
		TransactionStatusAuthorized,
		TransactionStatusCaptured,
		TransactionStatusSettledAcquirer,
	} {
		require.NoError(t, tx.Transition(status))
	}
	assert.Equal(t, TransactionStatusSettledAcquirer, tx.Status)
}

func TestTransactionInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
	}{
		{"pending cannot capture", TransactionStatusPending, TransactionStatusCaptured},
		{"pending cannot settle", TransactionStatusPending, TransactionStatusSettledAcquirer},
		{"pending cannot reverse", TransactionStatusPending, TransactionStatusReversed},
		{"authorized cannot reverse before capture", TransactionStatusAuthorized, TransactionStatusReversed},
		{"captured cannot go back", TransactionStatusCaptured, TransactionStatusAuthorized},
		{"declined is terminal", TransactionStatusDeclined, TransactionStatusAuthorized},
		{"reversed is terminal", TransactionStatusReversed, TransactionStatusBilled},
		{"billed cannot settle again", TransactionStatusBilled, TransactionStatusSettledIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTestTransaction()
			tx.Status = tt.from

			err := tx.Transition(tt.to)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
			assert.Equal(t, tt.from, tx.Status, "status must not change on a rejected transition")
		})
	}
}

func TestReversedReachableAfterCaptureOnly(t *testing.T) {
	assert.False(t, TransactionStatusAuthorized.CanTransitionTo(TransactionStatusReversed))
	assert.True(t, TransactionStatusCaptured.CanTransitionTo(TransactionStatusReversed))
	assert.True(t, TransactionStatusSettledAcquirer.CanTransitionTo(TransactionStatusReversed))
	assert.True(t, TransactionStatusBilled.CanTransitionTo(TransactionStatusReversed))
}
