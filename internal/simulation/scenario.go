package simulation

import (
	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
)

// Purchase is one scripted card swipe.
type Purchase struct {
	CardholderID string
	Amount       decimal.Decimal
	CardType     domain.CardType
	CardBIN      string
}

// DisputeScript files a chargeback against the first approved purchase
// after billing has run.
type DisputeScript struct {
	Reason domain.ChargebackReason
}

// Scenario is the full script for one run: participants, purchases and an
// optional dispute.
type Scenario struct {
	AcquirerName string
	NetworkName  string
	IssuerName   string
	Merchant     domain.Merchant
	Cardholders  []domain.Cardholder
	Purchases    []Purchase
	Dispute      *DisputeScript
}

// DefaultScenario is the classic two-transaction demo: one approved purchase
// that later gets disputed, and one declined for insufficient funds.
func DefaultScenario() Scenario {
	return Scenario{
		AcquirerName: "AcmeAcquiring",
		NetworkName:  "CardNet",
		IssuerName:   "BankAlpha",
		Merchant: domain.Merchant{
			ID:            "MERCH-0001",
			Name:          "Corner Bookstore",
			CategoryCode:  "5942",
			BankCode:      "001",
			BranchCode:    "1234",
			AccountNumber: "00000001",
		},
		Cardholders: []domain.Cardholder{
			{
				ID:       "CARD-0001",
				Name:     "Maria Silva",
				Document: "123.456.789-00",
				CardType: domain.CardTypeCredit,
				Balance:  decimal.NewFromFloat(2000.00),
			},
			{
				ID:       "CARD-0002",
				Name:     "Joao Pereira",
				Document: "987.654.321-00",
				CardType: domain.CardTypeDebit,
				Balance:  decimal.NewFromFloat(1000.00),
			},
		},
		Purchases: []Purchase{
			{CardholderID: "CARD-0001", Amount: decimal.NewFromFloat(150.00), CardType: domain.CardTypeCredit, CardBIN: "456789"},
			{CardholderID: "CARD-0002", Amount: decimal.NewFromFloat(1200.00), CardType: domain.CardTypeDebit, CardBIN: "987654"},
		},
		Dispute: &DisputeScript{Reason: domain.ChargebackReasonGoodsNotReceived},
	}
}
