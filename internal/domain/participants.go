package domain

import "github.com/shopspring/decimal"

// Cardholder is a card-carrying customer of the issuer. Balance is the
// issuer's tracked view of available funds, debited on authorization.
type Cardholder struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Document string          `json:"document"` // national ID / tax number
	CardType CardType        `json:"card_type"`
	Balance  decimal.Decimal `json:"balance"`
}

// Merchant is a store contracted by the acquirer. The routing tuple is where
// payouts land; the demo uses a single static destination per merchant.
type Merchant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CategoryCode  string `json:"category_code"` // MCC-style classification
	BankCode      string `json:"bank_code"`
	BranchCode    string `json:"branch_code"`
	AccountNumber string `json:"account_number"`
}
