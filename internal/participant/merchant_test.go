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

func testMerchantProfile() domain.Merchant {
	return domain.Merchant{
		ID:            "MERCH-0001",
		Name:          "Corner Bookstore",
		CategoryCode:  "5942",
		BankCode:      "001",
		BranchCode:    "1234",
		AccountNumber: "00000001",
	}
}

func validPurchase() PurchaseRequest {
	return PurchaseRequest{
		Amount:       decimal.NewFromFloat(150.00),
		CardType:     domain.CardTypeCredit,
		CardBIN:      "456789",
		CardholderID: "CARD-0001",
	}
}

func TestInitiatePurchaseCreatesPendingTransaction(t *testing.T) {
	m := NewMerchant(testMerchantProfile(), event.NewNop(), logger.NewNop())

	tx, err := m.InitiatePurchase(validPurchase())

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.Equal(t, "MERCH-0001", tx.MerchantID)
	assert.Equal(t, "CARD-0001", tx.CardholderID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromFloat(150.00)))
}

func TestInitiatePurchaseRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PurchaseRequest)
	}{
		{"short bin", func(r *PurchaseRequest) { r.CardBIN = "4567" }},
		{"non numeric bin", func(r *PurchaseRequest) { r.CardBIN = "45ab89" }},
		{"unknown card type", func(r *PurchaseRequest) { r.CardType = "prepaid" }},
		{"missing cardholder", func(r *PurchaseRequest) { r.CardholderID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMerchant(testMerchantProfile(), event.NewNop(), logger.NewNop())
			req := validPurchase()
			tt.mutate(&req)

			_, err := m.InitiatePurchase(req)
			assert.Error(t, err)
		})
	}
}

func TestInitiatePurchaseRejectsNonPositiveAmounts(t *testing.T) {
	m := NewMerchant(testMerchantProfile(), event.NewNop(), logger.NewNop())

	for _, amount := range []decimal.Decimal{decimal.NewFromFloat(-10.00), decimal.NewFromFloat(-0.01)} {
		req := validPurchase()
		req.Amount = amount

		_, err := m.InitiatePurchase(req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	}
}

func TestPrepareDefenseRequiresKnownDispute(t *testing.T) {
	m := NewMerchant(testMerchantProfile(), event.NewNop(), logger.NewNop())
	tx, err := m.InitiatePurchase(validPurchase())
	require.NoError(t, err)

	cb := domain.NewChargeback(tx, domain.ChargebackReasonGoodsNotReceived)

	assert.False(t, m.PrepareDefense(*cb), "unknown dispute must not produce documents")

	m.ReceiveChargebackNotice(*cb)
	assert.True(t, m.PrepareDefense(*cb))
}
