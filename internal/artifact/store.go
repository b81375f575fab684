// Package artifact writes the batch files exchanged between participants:
// the capture file, the two settlement files, the CNAB-styled payout file and
// the billing XML. All flat files share the fixedwidth layout helper; every
// file name carries a timestamp plus a short unique suffix so two batches in
// the same second never collide.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/fixedwidth"
	"cardsim/pkg/logger"
)

var (
	captureLayout = fixedwidth.NewLayout(
		fixedwidth.Left("record_type", 2),
		fixedwidth.Left("transaction_id", 24),
		fixedwidth.Right("amount_minor", 10),
		fixedwidth.Left("nsu", 8),
		fixedwidth.Left("auth_code", 7),
		fixedwidth.Left("card_bin", 6),
	)

	acquirerSettlementLayout = fixedwidth.NewLayout(
		fixedwidth.Left("transaction_id", 24),
		fixedwidth.Right("amount_minor", 10),
		fixedwidth.Left("auth_code", 7),
		fixedwidth.Left("nsu", 8),
		fixedwidth.Left("settlement_flag", 10),
	)

	issuerSettlementLayout = fixedwidth.NewLayout(
		fixedwidth.Left("transaction_id", 24),
		fixedwidth.Right("amount_minor", 10),
		fixedwidth.Left("card_bin", 6),
		fixedwidth.Left("auth_code", 7),
		fixedwidth.Left("timestamp", 14),
		fixedwidth.Left("billing_flag", 10),
	)

	payoutLayout = fixedwidth.NewLayout(
		fixedwidth.Left("record_type", 1),
		fixedwidth.Left("bank_code", 3),
		fixedwidth.Left("branch_code", 4),
		fixedwidth.Left("account_number", 8),
		fixedwidth.Right("net_amount_minor", 10),
		fixedwidth.Left("transaction_id", 24),
	)
)

// MerchantLookup resolves payout routing for a merchant id.
type MerchantLookup func(merchantID string) (domain.Merchant, error)

// Store writes batch artifacts into one output directory.
type Store struct {
	outputDir string
	notifier  event.Notifier
	logger    logger.Logger
}

func NewStore(outputDir string, notifier event.Notifier, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "create output directory")
	}
	return &Store{outputDir: outputDir, notifier: notifier, logger: log}, nil
}

func (s *Store) fileName(entity, kind, ext string) string {
	stamp := time.Now().Format("20060102150405")
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s_%s_%s.%s", entity, kind, stamp, uuid.New().String()[:8], ext))
}

// minorUnits renders an amount as integer cents, the flat-file convention.
func minorUnits(d decimal.Decimal) string {
	return d.Shift(2).Round(0).BigInt().String()
}

// WriteCaptureFile emits one record per authorized transaction. Returns an
// empty path when there is nothing to capture.
func (s *Store) WriteCaptureFile(txs []domain.Transaction) (string, error) {
	var lines []string
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusAuthorized {
			continue
		}
		line, err := captureLayout.Format("01", tx.ID, minorUnits(tx.Amount), nsuOrDefault(tx), tx.AuthCode, tx.CardBIN)
		if err != nil {
			return "", apperrors.Wrap(err, "format capture record")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", nil
	}

	name := s.fileName("ACQUIRER", "CAPTURE", "txt")
	if err := s.writeLines(name, lines); err != nil {
		return "", err
	}
	s.notifier.Notify(fmt.Sprintf("Capture file generated: %s (%d record(s))", filepath.Base(name), len(lines)), event.SeveritySuccess)
	return name, nil
}

// WriteAcquirerSettlementFile emits the network's acquirer-addressed batch.
func (s *Store) WriteAcquirerSettlementFile(txs []domain.Transaction) (string, error) {
	var lines []string
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusSettledAcquirer {
			continue
		}
		line, err := acquirerSettlementLayout.Format(tx.ID, minorUnits(tx.Amount), tx.AuthCode, nsuOrDefault(tx), "SETTLED")
		if err != nil {
			return "", apperrors.Wrap(err, "format acquirer settlement record")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", nil
	}

	name := s.fileName("NETWORK", "SETTLEMENT_ACQUIRER", "txt")
	if err := s.writeLines(name, lines); err != nil {
		return "", err
	}
	s.notifier.Notify(fmt.Sprintf("Acquirer settlement file generated: %s", filepath.Base(name)), event.SeveritySuccess)
	return name, nil
}

// WriteIssuerSettlementFile emits the network's issuer-addressed batch.
func (s *Store) WriteIssuerSettlementFile(txs []domain.Transaction) (string, error) {
	var lines []string
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusSettledIssuer {
			continue
		}
		line, err := issuerSettlementLayout.Format(tx.ID, minorUnits(tx.Amount), tx.CardBIN, tx.AuthCode, tx.CreatedAt.Format("20060102150405"), "TO_BILL")
		if err != nil {
			return "", apperrors.Wrap(err, "format issuer settlement record")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", nil
	}

	name := s.fileName("NETWORK", "SETTLEMENT_ISSUER", "txt")
	if err := s.writeLines(name, lines); err != nil {
		return "", err
	}
	s.notifier.Notify(fmt.Sprintf("Issuer settlement file generated: %s", filepath.Base(name)), event.SeveritySuccess)
	return name, nil
}

// WritePayoutFile emits the CNAB-styled merchant payout batch. Net amount is
// gross minus the acquirer fee.
func (s *Store) WritePayoutFile(txs []domain.Transaction, lookup MerchantLookup, feeRate decimal.Decimal) (string, error) {
	multiplier := decimal.NewFromInt(1).Sub(feeRate)

	var lines []string
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusSettledAcquirer {
			continue
		}
		merchant, err := lookup(tx.MerchantID)
		if err != nil {
			return "", apperrors.Wrap(err, "resolve payout routing")
		}
		net := tx.Amount.Mul(multiplier)
		line, err := payoutLayout.Format("P", merchant.BankCode, merchant.BranchCode, merchant.AccountNumber, minorUnits(net), tx.ID)
		if err != nil {
			return "", apperrors.Wrap(err, "format payout record")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", nil
	}

	name := s.fileName("ACQUIRER", "PAYOUT_CNAB", "txt")
	if err := s.writeLines(name, lines); err != nil {
		return "", err
	}
	s.notifier.Notify(fmt.Sprintf("Payout file generated: %s (fee rate %s)", filepath.Base(name), feeRate.String()), event.SeveritySuccess)
	return name, nil
}

func nsuOrDefault(tx domain.Transaction) string {
	if tx.NetworkRef == "" {
		return "00000000"
	}
	return tx.NetworkRef
}

func (s *Store) writeLines(name string, lines []string) error {
	f, err := os.Create(name)
	if err != nil {
		return apperrors.Wrap(err, "create artifact file")
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return apperrors.Wrap(err, "write artifact record")
		}
	}
	return nil
}
