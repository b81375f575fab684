package chargeback

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) ReceiveChargeback(cb domain.Chargeback) { m.Called(cb) }
func (m *mockIssuer) ReceiveResolution(cb domain.Chargeback) { m.Called(cb) }

type mockNetwork struct{ mock.Mock }

func (m *mockNetwork) ReceiveChargeback(cb domain.Chargeback)    { m.Called(cb) }
func (m *mockNetwork) ReceiveRepresentment(cb domain.Chargeback) { m.Called(cb) }

type mockAcquirer struct{ mock.Mock }

func (m *mockAcquirer) ReceiveChargebackNotice(cb domain.Chargeback) { m.Called(cb) }

type mockMerchant struct{ mock.Mock }

func (m *mockMerchant) ReceiveChargebackNotice(cb domain.Chargeback) { m.Called(cb) }
func (m *mockMerchant) PrepareDefense(cb domain.Chargeback) bool {
	return m.Called(cb).Bool(0)
}

type disputeParties struct {
	issuer   *mockIssuer
	network  *mockNetwork
	acquirer *mockAcquirer
	merchant *mockMerchant
}

func newTestProcessor(t *testing.T, winRate float64) (*Processor, *disputeParties) {
	t.Helper()
	parties := &disputeParties{
		issuer:   new(mockIssuer),
		network:  new(mockNetwork),
		acquirer: new(mockAcquirer),
		merchant: new(mockMerchant),
	}
	rng := rand.New(rand.NewSource(42))
	p := NewProcessor(parties.issuer, parties.network, parties.acquirer, parties.merchant,
		winRate, rng, event.NewNop(), logger.NewNop())
	return p, parties
}

func billedTx() domain.Transaction {
	tx := domain.NewTransaction(decimal.NewFromFloat(150.00), domain.CardTypeCredit, "456789", "CARD-0001", "MERCH-0001")
	tx.Status = domain.TransactionStatusBilled
	return tx
}

func TestFileNotifiesEveryParty(t *testing.T) {
	p, parties := newTestProcessor(t, 0.70)
	anyCb := mock.AnythingOfType("domain.Chargeback")
	parties.issuer.On("ReceiveChargeback", anyCb).Once()
	parties.network.On("ReceiveChargeback", anyCb).Once()
	parties.acquirer.On("ReceiveChargebackNotice", anyCb).Once()
	parties.merchant.On("ReceiveChargebackNotice", anyCb).Once()

	cb, err := p.File(billedTx(), domain.ChargebackReasonGoodsNotReceived)

	require.NoError(t, err)
	assert.Equal(t, domain.ChargebackStatusFiled, cb.Status)
	assert.Len(t, p.Active(), 1)
	parties.issuer.AssertExpectations(t)
	parties.network.AssertExpectations(t)
	parties.acquirer.AssertExpectations(t)
	parties.merchant.AssertExpectations(t)
}

func TestFileRejectsIncompleteTransactions(t *testing.T) {
	p, _ := newTestProcessor(t, 0.70)

	for _, status := range []domain.TransactionStatus{
		domain.TransactionStatusPending,
		domain.TransactionStatusAuthorized,
		domain.TransactionStatusDeclined,
		domain.TransactionStatusReversed,
	} {
		tx := billedTx()
		tx.Status = status

		_, err := p.File(tx, domain.ChargebackReasonFraud)
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotDisputable, "status %s", status)
	}
	assert.Empty(t, p.Active())
}

func TestSubmitDefenseWalksRepresentment(t *testing.T) {
	p, parties := newTestProcessor(t, 0.70)
	anyCb := mock.AnythingOfType("domain.Chargeback")
	parties.issuer.On("ReceiveChargeback", anyCb)
	parties.network.On("ReceiveChargeback", anyCb)
	parties.acquirer.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("PrepareDefense", anyCb).Return(true).Once()
	parties.network.On("ReceiveRepresentment", anyCb).Once()

	cb, err := p.File(billedTx(), domain.ChargebackReasonGoodsNotReceived)
	require.NoError(t, err)

	require.NoError(t, p.SubmitDefense(cb))

	assert.Equal(t, domain.ChargebackStatusRepresented, cb.Status)
	assert.True(t, cb.DocsSubmitted)
	parties.merchant.AssertExpectations(t)
	parties.network.AssertExpectations(t)
}

func TestResolveMerchantWinsAtFullRate(t *testing.T) {
	p, parties := newTestProcessor(t, 1.0)
	anyCb := mock.AnythingOfType("domain.Chargeback")
	parties.issuer.On("ReceiveChargeback", anyCb)
	parties.network.On("ReceiveChargeback", anyCb)
	parties.acquirer.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("PrepareDefense", anyCb).Return(true)
	parties.network.On("ReceiveRepresentment", anyCb)
	parties.issuer.On("ReceiveResolution", anyCb).Once()

	cb, err := p.File(billedTx(), domain.ChargebackReasonGoodsNotReceived)
	require.NoError(t, err)
	require.NoError(t, p.SubmitDefense(cb))

	res, err := p.Resolve(cb)

	require.NoError(t, err)
	assert.True(t, res.MerchantWon)
	assert.Equal(t, domain.ChargebackStatusResolvedMerchant, res.Outcome)
	assert.Empty(t, p.Active(), "resolution removes the dispute from the active set")
	parties.issuer.AssertExpectations(t)
}

func TestResolveCardholderWinsAtZeroRate(t *testing.T) {
	p, parties := newTestProcessor(t, 0.0)
	anyCb := mock.AnythingOfType("domain.Chargeback")
	parties.issuer.On("ReceiveChargeback", anyCb)
	parties.network.On("ReceiveChargeback", anyCb)
	parties.acquirer.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("ReceiveChargebackNotice", anyCb)
	parties.merchant.On("PrepareDefense", anyCb).Return(true)
	parties.network.On("ReceiveRepresentment", anyCb)
	parties.issuer.On("ReceiveResolution", anyCb).Once()

	cb, err := p.File(billedTx(), domain.ChargebackReasonFraud)
	require.NoError(t, err)
	require.NoError(t, p.SubmitDefense(cb))

	res, err := p.Resolve(cb)

	require.NoError(t, err)
	assert.False(t, res.MerchantWon)
	assert.Equal(t, domain.ChargebackStatusResolvedCardholder, res.Outcome)
	assert.True(t, cb.Status.IsTerminal())
}

func TestResolveUnknownChargeback(t *testing.T) {
	p, _ := newTestProcessor(t, 0.70)
	cb := domain.NewChargeback(billedTx(), domain.ChargebackReasonFraud)

	_, err := p.Resolve(cb)
	assert.ErrorIs(t, err, apperrors.ErrChargebackNotFound)

	err = p.SubmitDefense(cb)
	assert.ErrorIs(t, err, apperrors.ErrChargebackNotFound)
}
