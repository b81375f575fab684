package participant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	"cardsim/pkg/logger"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(tx domain.Transaction) (domain.Transaction, error) {
	args := m.Called(tx)
	return args.Get(0).(domain.Transaction), args.Error(1)
}

func TestAuthorizeRoutesDecisionFromIssuer(t *testing.T) {
	network := NewNetwork("CardNet", event.NewNop(), logger.NewNop())

	authorizer := new(mockAuthorizer)
	authorizer.On("Authorize", mock.MatchedBy(func(tx domain.Transaction) bool { return tx.NetworkRef != "" })).
		Return(domain.Transaction{Status: domain.TransactionStatusAuthorized}, nil)

	first, err := network.Authorize(pendingTx(150.00), authorizer)
	require.NoError(t, err)
	second, err := network.Authorize(pendingTx(99.00), authorizer)
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusAuthorized, first.Status)
	assert.Equal(t, domain.TransactionStatusAuthorized, second.Status)
	authorizer.AssertNumberOfCalls(t, "Authorize", 2)
}

func TestAuthorizeStampsNetworkRefBeforeRouting(t *testing.T) {
	network := NewNetwork("CardNet", event.NewNop(), logger.NewNop())
	issuer := newTestIssuer(2000.00)

	tx, err := network.Authorize(pendingTx(150.00), issuer)

	require.NoError(t, err)
	assert.Equal(t, "00000001", tx.NetworkRef)
	assert.Equal(t, domain.TransactionStatusAuthorized, tx.Status)

	tx2, err := network.Authorize(pendingTx(50.00), issuer)
	require.NoError(t, err)
	assert.Equal(t, "00000002", tx2.NetworkRef)
}

func TestCaptureBatchSkipsNonAuthorized(t *testing.T) {
	network := NewNetwork("CardNet", event.NewNop(), logger.NewNop())
	issuer := newTestIssuer(2000.00)

	authorized, err := network.Authorize(pendingTx(150.00), issuer)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusAuthorized, authorized.Status)
	declined, err := network.Authorize(pendingTx(5000.00), issuer)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusDeclined, declined.Status)

	result, err := network.CaptureBatch([]domain.Transaction{authorized, declined})

	require.NoError(t, err)
	require.Len(t, result.Captured, 1)
	assert.Equal(t, domain.TransactionStatusCaptured, result.Captured[0].Status)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromFloat(150.00)))
}

func TestCaptureBatchSkipsRecordsTheNetworkNeverRouted(t *testing.T) {
	network := NewNetwork("CardNet", event.NewNop(), logger.NewNop())

	stray := pendingTx(150.00)
	require.NoError(t, stray.Transition(domain.TransactionStatusAuthorized))

	result, err := network.CaptureBatch([]domain.Transaction{stray})

	require.NoError(t, err)
	assert.Empty(t, result.Captured)
	assert.Equal(t, 1, result.Skipped, "a record with no authorization log entry must not capture")
	assert.True(t, result.TotalAmount.IsZero())
}

func TestSettlementBatchesFilterByStatus(t *testing.T) {
	network := NewNetwork("CardNet", event.NewNop(), logger.NewNop())

	captured := pendingTx(150.00)
	require.NoError(t, captured.Transition(domain.TransactionStatusAuthorized))
	require.NoError(t, captured.Transition(domain.TransactionStatusCaptured))

	acqSettled, err := network.SettleAcquirerBatch([]domain.Transaction{captured, pendingTx(10.00)})
	require.NoError(t, err)
	require.Len(t, acqSettled, 1)
	assert.Equal(t, domain.TransactionStatusSettledAcquirer, acqSettled[0].Status)

	approved := pendingTx(99.00)
	require.NoError(t, approved.Transition(domain.TransactionStatusAuthorized))

	issSettled, err := network.SettleIssuerBatch([]domain.Transaction{approved, pendingTx(10.00)})
	require.NoError(t, err)
	require.Len(t, issSettled, 1)
	assert.Equal(t, domain.TransactionStatusSettledIssuer, issSettled[0].Status)
}
