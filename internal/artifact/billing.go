package artifact

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
)

// Simplified billing report structures, one block per billed transaction.

type billingReport struct {
	XMLName      xml.Name             `xml:"BillingReport"`
	GeneratedAt  string               `xml:"generated_at,attr"`
	Transactions []billingTransaction `xml:"Transaction"`
}

type billingTransaction struct {
	ID           string `xml:"id,attr"`
	CardholderID string `xml:"CardholderID"`
	CardBIN      string `xml:"CardBIN"`
	Amount       string `xml:"Amount"`
	PurchasedAt  string `xml:"PurchasedAt"`
	AuthCode     string `xml:"AuthCode"`
	NetworkRef   string `xml:"NetworkRef"`
	Status       string `xml:"Status"`
}

// WriteBillingFile emits the issuer's billing artifact for transactions
// already moved to billed. Returns an empty path for an empty batch.
func (s *Store) WriteBillingFile(txs []domain.Transaction) (string, error) {
	report := billingReport{GeneratedAt: time.Now().Format(time.RFC3339)}
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusBilled {
			continue
		}
		report.Transactions = append(report.Transactions, billingTransaction{
			ID:           tx.ID,
			CardholderID: tx.CardholderID,
			CardBIN:      tx.CardBIN,
			Amount:       tx.Amount.StringFixed(2),
			PurchasedAt:  tx.CreatedAt.Format(time.RFC3339),
			AuthCode:     tx.AuthCode,
			NetworkRef:   tx.NetworkRef,
			Status:       string(tx.Status),
		})
	}
	if len(report.Transactions) == 0 {
		return "", nil
	}

	output, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(err, "marshal billing report")
	}

	name := s.fileName("ISSUER", "BILLING", "xml")
	if err := os.WriteFile(name, []byte(xml.Header+string(output)+"\n"), 0o644); err != nil {
		return "", apperrors.Wrap(err, "write billing report")
	}
	s.notifier.Notify(fmt.Sprintf("Billing file generated: %s (%d transaction(s))", filepath.Base(name), len(report.Transactions)), event.SeveritySuccess)
	return name, nil
}
