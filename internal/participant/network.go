package participant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// Authorizer is the issuer-side decision the network routes to.
type Authorizer interface {
	Authorize(tx domain.Transaction) (domain.Transaction, error)
}

// CaptureResult summarizes one capture batch.
type CaptureResult struct {
	Captured    []domain.Transaction
	Skipped     int
	TotalAmount decimal.Decimal
}

// Network is the card scheme sitting between acquirer and issuer. It assigns
// the NSU, routes authorization messages, marks captures and derives the two
// settlement batches.
type Network struct {
	name     string
	notifier event.Notifier
	logger   logger.Logger

	nsuSeq      int
	routed      map[string]domain.Transaction
	captured    []domain.Transaction
	chargebacks map[string]domain.Chargeback
}

func NewNetwork(name string, notifier event.Notifier, log logger.Logger) *Network {
	return &Network{
		name:        name,
		notifier:    notifier,
		logger:      log,
		routed:      make(map[string]domain.Transaction),
		chargebacks: make(map[string]domain.Chargeback),
	}
}

func (n *Network) Name() string { return n.name }

// Authorize routes the authorization request to the issuer and relays the
// decision back. The wire format is narrated as ISO 8583 for flavor only.
func (n *Network) Authorize(tx domain.Transaction, issuer Authorizer) (domain.Transaction, error) {
	n.nsuSeq++
	tx.NetworkRef = fmt.Sprintf("%08d", n.nsuSeq)
	n.routed[tx.ID] = tx

	n.notifier.Notify(fmt.Sprintf("[%s] Routing ISO 8583 authorization: %s (NSU %s)", n.name, tx.ID, tx.NetworkRef), event.SeverityInfo)

	decided, err := issuer.Authorize(tx)
	if err != nil {
		return tx, apperrors.Wrap(err, "issuer authorization")
	}

	n.routed[decided.ID] = decided
	n.notifier.Notify(fmt.Sprintf("[%s] Routing ISO 8583 response: %s, status %s", n.name, decided.ID, decided.Status), event.SeverityInfo)
	return decided, nil
}

// CaptureBatch marks each authorized transaction as captured, provided the
// network routed its authorization. Unrouted or non-authorized records are
// skipped and counted; the batch itself never fails.
func (n *Network) CaptureBatch(txs []domain.Transaction) (CaptureResult, error) {
	result := CaptureResult{TotalAmount: decimal.Zero}

	for _, tx := range txs {
		if _, ok := n.routed[tx.ID]; !ok {
			result.Skipped++
			continue
		}
		if tx.Status != domain.TransactionStatusAuthorized {
			result.Skipped++
			continue
		}
		if err := tx.Transition(domain.TransactionStatusCaptured); err != nil {
			return result, err
		}
		n.captured = append(n.captured, tx)
		result.Captured = append(result.Captured, tx)
		result.TotalAmount = result.TotalAmount.Add(tx.Amount)
	}

	n.notifier.Notify(fmt.Sprintf("[%s] Capture batch processed: %d captured, %d skipped, total %s",
		n.name, len(result.Captured), result.Skipped, result.TotalAmount.StringFixed(2)), event.SeveritySuccess)
	return result, nil
}

// SettleAcquirerBatch flips captured transactions to settled on the acquirer
// side and returns the updated copies for the settlement file.
func (n *Network) SettleAcquirerBatch(txs []domain.Transaction) ([]domain.Transaction, error) {
	settled := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusCaptured {
			continue
		}
		if err := tx.Transition(domain.TransactionStatusSettledAcquirer); err != nil {
			return nil, err
		}
		settled = append(settled, tx)
	}
	if len(settled) > 0 {
		n.notifier.Notify(fmt.Sprintf("[%s] Acquirer settlement batch: %d transaction(s)", n.name, len(settled)), event.SeverityInfo)
	}
	return settled, nil
}

// SettleIssuerBatch flips issuer-approved transactions to settled on the
// issuer side.
func (n *Network) SettleIssuerBatch(txs []domain.Transaction) ([]domain.Transaction, error) {
	settled := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusAuthorized {
			continue
		}
		if err := tx.Transition(domain.TransactionStatusSettledIssuer); err != nil {
			return nil, err
		}
		settled = append(settled, tx)
	}
	if len(settled) > 0 {
		n.notifier.Notify(fmt.Sprintf("[%s] Issuer settlement batch: %d transaction(s)", n.name, len(settled)), event.SeverityInfo)
	}
	return settled, nil
}

// ReceiveChargeback records the issuer's dispute before relaying it onward.
func (n *Network) ReceiveChargeback(cb domain.Chargeback) {
	n.chargebacks[cb.ID] = cb
	n.notifier.Notify(fmt.Sprintf("[%s] Chargeback %s received from issuer", n.name, cb.ID), event.SeverityWarning)
}

// ReceiveRepresentment records the acquirer's defense submission.
func (n *Network) ReceiveRepresentment(cb domain.Chargeback) {
	n.chargebacks[cb.ID] = cb
	n.notifier.Notify(fmt.Sprintf("[%s] Representment received for chargeback %s", n.name, cb.ID), event.SeverityInfo)
}
