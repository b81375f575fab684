package participant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

func newTestIssuer(balance float64) *Issuer {
	issuer := NewIssuer("BankAlpha", event.NewNop(), logger.NewNop())
	issuer.RegisterCardholder(domain.Cardholder{
		ID:       "CARD-0001",
		Name:     "Maria Silva",
		CardType: domain.CardTypeCredit,
		Balance:  decimal.NewFromFloat(balance),
	})
	return issuer
}

func pendingTx(amount float64) domain.Transaction {
	return domain.NewTransaction(decimal.NewFromFloat(amount), domain.CardTypeCredit, "456789", "CARD-0001", "MERCH-0001")
}

func TestAuthorizeApprovesAndDebitsBalance(t *testing.T) {
	issuer := newTestIssuer(2000.00)

	tx, err := issuer.Authorize(pendingTx(150.00))

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusAuthorized, tx.Status)
	assert.NotEmpty(t, tx.AuthCode)

	balance, err := issuer.Balance("CARD-0001")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(1850.00)), "balance should be debited on approval, got %s", balance)
	assert.Len(t, issuer.ApprovedQueue(), 1)
}

func TestAuthorizeDeclinesWithoutTouchingBalance(t *testing.T) {
	issuer := newTestIssuer(1000.00)

	tx, err := issuer.Authorize(pendingTx(1200.00))

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusDeclined, tx.Status)
	assert.Equal(t, apperrors.ErrInsufficientFunds.Error(), tx.DeclineReason)
	assert.Empty(t, tx.AuthCode)

	balance, err := issuer.Balance("CARD-0001")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(1000.00)), "declined authorization must not debit")
	assert.Empty(t, issuer.ApprovedQueue())
	assert.Len(t, issuer.Declined(), 1)
}

func TestAuthorizeApprovesExactBalance(t *testing.T) {
	issuer := newTestIssuer(150.00)

	tx, err := issuer.Authorize(pendingTx(150.00))

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusAuthorized, tx.Status)

	balance, err := issuer.Balance("CARD-0001")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestAuthorizeRejectsUnknownCardholder(t *testing.T) {
	issuer := NewIssuer("BankAlpha", event.NewNop(), logger.NewNop())

	_, err := issuer.Authorize(pendingTx(10.00))

	assert.ErrorIs(t, err, apperrors.ErrUnknownCardholder)
}

func TestRegisterCardholderCopiesTheRecord(t *testing.T) {
	issuer := NewIssuer("BankAlpha", event.NewNop(), logger.NewNop())
	ch := domain.Cardholder{ID: "CARD-0001", Balance: decimal.NewFromFloat(100.00)}
	issuer.RegisterCardholder(ch)

	ch.Balance = decimal.NewFromFloat(9999.00)

	balance, err := issuer.Balance("CARD-0001")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(100.00)), "issuer must own its balance record")
}

func TestIssuerChargebacksSortedByID(t *testing.T) {
	issuer := newTestIssuer(2000.00)
	for _, id := range []string{"CB-3", "CB-1", "CB-2"} {
		issuer.ReceiveChargeback(domain.Chargeback{ID: id, Status: domain.ChargebackStatusFiled})
	}

	got := issuer.Chargebacks()

	require.Len(t, got, 3)
	assert.Equal(t, []string{"CB-1", "CB-2", "CB-3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestBillCardholdersMovesSettledToBilled(t *testing.T) {
	issuer := newTestIssuer(2000.00)

	tx, err := issuer.Authorize(pendingTx(150.00))
	require.NoError(t, err)
	require.NoError(t, tx.Transition(domain.TransactionStatusSettledIssuer))
	issuer.ProcessSettlement([]domain.Transaction{tx})

	billed, err := issuer.BillCardholders()

	require.NoError(t, err)
	require.Len(t, billed, 1)
	assert.Equal(t, domain.TransactionStatusBilled, billed[0].Status)
	assert.Len(t, issuer.Billed(), 1)
	assert.Empty(t, issuer.ApprovedQueue(), "settlement clears the approved queue")

	again, err := issuer.BillCardholders()
	require.NoError(t, err)
	assert.Empty(t, again, "billing the same batch twice yields nothing")
}
