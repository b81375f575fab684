// Package report produces the regulator-addressed artifacts: a
// credit-exposure XML from issuer data and two delimited tabular reports for
// acquirer volume and general statistics. Every report is a pure fold over
// participant snapshots, keyed by a year+month period token, and is emitted
// even when there were no transactions at all.
package report

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// Reporter writes regulatory artifacts into the output directory.
type Reporter struct {
	outputDir string
	notifier  event.Notifier
	logger    logger.Logger
}

func NewReporter(outputDir string, notifier event.Notifier, log logger.Logger) (*Reporter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "create output directory")
	}
	return &Reporter{outputDir: outputDir, notifier: notifier, logger: log}, nil
}

func (r *Reporter) fileName(entity, kind, period, ext string) string {
	stamp := time.Now().Format("20060102150405")
	return filepath.Join(r.outputDir, fmt.Sprintf("REG_%s_%s_%s_%s_%s.%s", entity, kind, period, stamp, uuid.New().String()[:8], ext))
}

// CreditExposureInput is the issuer-side data for the exposure report.
type CreditExposureInput struct {
	IssuerName   string
	Transactions []domain.Transaction // issuer snapshots: settled or billed
	Chargebacks  []domain.Chargeback
}

type exposureReport struct {
	XMLName     xml.Name            `xml:"CreditExposureReport"`
	Issuer      string              `xml:"issuer,attr"`
	Period      string              `xml:"period,attr"`
	GeneratedAt string              `xml:"generated_at,attr"`
	Operations  []exposureOperation `xml:"Operation"`
}

type exposureOperation struct {
	ID            string `xml:"id,attr"`
	OperationType string `xml:"OperationType"`
	CardholderID  string `xml:"CardholderID,omitempty"`
	Amount        string `xml:"Amount"`
	Outstanding   string `xml:"Outstanding,omitempty"`
	ReferenceDate string `xml:"ReferenceDate"`
	Status        string `xml:"Status,omitempty"`
}

// WriteCreditExposure emits the issuer's credit-exposure XML: one operation
// per settled or billed credit transaction plus one adjustment per dispute.
func (r *Reporter) WriteCreditExposure(in CreditExposureInput, period string) (string, error) {
	report := exposureReport{
		Issuer:      in.IssuerName,
		Period:      period,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}

	for _, tx := range in.Transactions {
		switch tx.Status {
		case domain.TransactionStatusSettledIssuer, domain.TransactionStatusBilled:
			report.Operations = append(report.Operations, exposureOperation{
				ID:            tx.ID,
				OperationType: "card_" + string(tx.CardType),
				CardholderID:  tx.CardholderID,
				Amount:        tx.Amount.StringFixed(2),
				Outstanding:   tx.Amount.StringFixed(2),
				ReferenceDate: tx.CreatedAt.Format("2006-01-02"),
			})
		}
	}
	// adjustments in id order: re-running over the same state must yield the
	// same bytes apart from the generation timestamp
	chargebacks := make([]domain.Chargeback, len(in.Chargebacks))
	copy(chargebacks, in.Chargebacks)
	sort.Slice(chargebacks, func(i, j int) bool { return chargebacks[i].ID < chargebacks[j].ID })
	for _, cb := range chargebacks {
		report.Operations = append(report.Operations, exposureOperation{
			ID:            "CB_" + cb.ID,
			OperationType: "chargeback_adjustment",
			Amount:        cb.Amount.StringFixed(2),
			ReferenceDate: cb.FiledAt.Format("2006-01-02"),
			Status:        string(cb.Status),
		})
	}

	output, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(err, "marshal credit exposure report")
	}

	name := r.fileName("ISSUER", "CREDIT_EXPOSURE", period, "xml")
	if err := os.WriteFile(name, []byte(xml.Header+string(output)+"\n"), 0o644); err != nil {
		return "", apperrors.Wrap(err, "write credit exposure report")
	}
	r.notifier.Notify(fmt.Sprintf("Credit exposure report generated: %s", filepath.Base(name)), event.SeverityInfo)
	return name, nil
}

// VolumeInput is the acquirer-side data for the volume report.
type VolumeInput struct {
	AcquirerName  string
	Transactions  []domain.Transaction // acquirer's full received list, final statuses
	Chargebacks   []domain.Chargeback
	MerchantCount int
}

// WriteAcquirerVolume emits counts and sums per transaction outcome.
func (r *Reporter) WriteAcquirerVolume(in VolumeInput, period string) (string, error) {
	approvedCount, declinedCount := 0, 0
	approvedTotal, declinedTotal := decimal.Zero, decimal.Zero
	for _, tx := range in.Transactions {
		if tx.Status == domain.TransactionStatusDeclined {
			declinedCount++
			declinedTotal = declinedTotal.Add(tx.Amount)
			continue
		}
		if tx.Status != domain.TransactionStatusPending {
			approvedCount++
			approvedTotal = approvedTotal.Add(tx.Amount)
		}
	}
	cbTotal := decimal.Zero
	for _, cb := range in.Chargebacks {
		cbTotal = cbTotal.Add(cb.Amount)
	}

	rows := [][]string{
		{"reference_period", "entity", "transaction_outcome", "volume", "total_amount", "merchant_count"},
		{period, in.AcquirerName, "APPROVED", strconv.Itoa(approvedCount), approvedTotal.StringFixed(2), strconv.Itoa(in.MerchantCount)},
		{period, in.AcquirerName, "DECLINED", strconv.Itoa(declinedCount), declinedTotal.StringFixed(2), strconv.Itoa(in.MerchantCount)},
		{period, in.AcquirerName, "CHARGEBACK", strconv.Itoa(len(in.Chargebacks)), cbTotal.StringFixed(2), strconv.Itoa(in.MerchantCount)},
	}

	name := r.fileName("ACQUIRER", "VOLUME", period, "csv")
	if err := r.writeCSV(name, rows); err != nil {
		return "", err
	}
	r.notifier.Notify(fmt.Sprintf("Acquirer volume report generated: %s", filepath.Base(name)), event.SeverityInfo)
	return name, nil
}

// WriteStatistics emits approved volume and value grouped by card type.
func (r *Reporter) WriteStatistics(txs []domain.Transaction, period string) (string, error) {
	counts := map[domain.CardType]int{}
	totals := map[domain.CardType]decimal.Decimal{
		domain.CardTypeCredit: decimal.Zero,
		domain.CardTypeDebit:  decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Status == domain.TransactionStatusPending || tx.Status == domain.TransactionStatusDeclined {
			continue
		}
		counts[tx.CardType]++
		totals[tx.CardType] = totals[tx.CardType].Add(tx.Amount)
	}

	rows := [][]string{
		{"reference_period", "operation", "institution", "card_type", "volume", "total_amount"},
		{period, "payment", "ALL", string(domain.CardTypeCredit), strconv.Itoa(counts[domain.CardTypeCredit]), totals[domain.CardTypeCredit].StringFixed(2)},
		{period, "payment", "ALL", string(domain.CardTypeDebit), strconv.Itoa(counts[domain.CardTypeDebit]), totals[domain.CardTypeDebit].StringFixed(2)},
	}

	name := r.fileName("GENERAL", "STATISTICS", period, "csv")
	if err := r.writeCSV(name, rows); err != nil {
		return "", err
	}
	r.notifier.Notify(fmt.Sprintf("Statistics report generated: %s", filepath.Base(name)), event.SeverityInfo)
	return name, nil
}

func (r *Reporter) writeCSV(name string, rows [][]string) error {
	f, err := os.Create(name)
	if err != nil {
		return apperrors.Wrap(err, "create report file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return apperrors.Wrap(err, "write report rows")
	}
	w.Flush()
	return w.Error()
}
