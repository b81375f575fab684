// Package chargeback orchestrates the three-phase dispute script: filing,
// defense (representment) and resolution.
package chargeback

import (
	"fmt"
	"math/rand"

	"cardsim/internal/domain"
	"cardsim/internal/event"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

// IssuerParty is the issuer's side of the dispute.
type IssuerParty interface {
	ReceiveChargeback(cb domain.Chargeback)
	ReceiveResolution(cb domain.Chargeback)
}

// NetworkParty is the card scheme's side of the dispute.
type NetworkParty interface {
	ReceiveChargeback(cb domain.Chargeback)
	ReceiveRepresentment(cb domain.Chargeback)
}

// AcquirerParty relays dispute notices to its merchant.
type AcquirerParty interface {
	ReceiveChargebackNotice(cb domain.Chargeback)
}

// MerchantParty is notified of disputes and assembles the defense.
type MerchantParty interface {
	ReceiveChargebackNotice(cb domain.Chargeback)
	PrepareDefense(cb domain.Chargeback) bool
}

// Resolution is the terminal outcome of one dispute.
type Resolution struct {
	ChargebackID string
	Outcome      domain.ChargebackStatus
	MerchantWon  bool
}

// Processor owns the authoritative chargeback record for each active dispute
// and walks it through the fixed script. Parties receive snapshots only.
type Processor struct {
	issuer   IssuerParty
	network  NetworkParty
	acquirer AcquirerParty
	merchant MerchantParty
	notifier event.Notifier
	logger   logger.Logger

	// merchantWinRate is the probability that resolution favors the
	// merchant. The rng is injected so tests can pin the coin flip.
	merchantWinRate float64
	rng             *rand.Rand

	active map[string]*domain.Chargeback
}

func NewProcessor(
	issuer IssuerParty,
	network NetworkParty,
	acquirer AcquirerParty,
	merchant MerchantParty,
	merchantWinRate float64,
	rng *rand.Rand,
	notifier event.Notifier,
	log logger.Logger,
) *Processor {
	return &Processor{
		issuer:          issuer,
		network:         network,
		acquirer:        acquirer,
		merchant:        merchant,
		merchantWinRate: merchantWinRate,
		rng:             rng,
		notifier:        notifier,
		logger:          log,
		active:          make(map[string]*domain.Chargeback),
	}
}

// disputable statuses: the purchase must have completed capture.
func disputable(status domain.TransactionStatus) bool {
	switch status {
	case domain.TransactionStatusCaptured,
		domain.TransactionStatusSettledAcquirer,
		domain.TransactionStatusSettledIssuer,
		domain.TransactionStatusBilled:
		return true
	}
	return false
}

// File opens a dispute on behalf of the cardholder and relays it through
// issuer, network, acquirer and merchant.
func (p *Processor) File(tx domain.Transaction, reason domain.ChargebackReason) (*domain.Chargeback, error) {
	if !disputable(tx.Status) {
		return nil, fmt.Errorf("%w: transaction %s is %s", apperrors.ErrTransactionNotDisputable, tx.ID, tx.Status)
	}

	cb := domain.NewChargeback(tx, reason)
	p.active[cb.ID] = cb

	p.notifier.Notify(fmt.Sprintf("[Cardholder -> Issuer] Filing chargeback %s on %s: %s", cb.ID, tx.ID, reason), event.SeverityWarning)
	p.issuer.ReceiveChargeback(*cb)

	p.notifier.Notify(fmt.Sprintf("[Issuer -> Network] Dispute %s forwarded", cb.ID), event.SeverityWarning)
	p.network.ReceiveChargeback(*cb)

	p.notifier.Notify(fmt.Sprintf("[Network -> Acquirer] Chargeback notification %s", cb.ID), event.SeverityWarning)
	p.acquirer.ReceiveChargebackNotice(*cb)

	p.notifier.Notify(fmt.Sprintf("[Acquirer -> Merchant] Chargeback notification %s", cb.ID), event.SeverityWarning)
	p.merchant.ReceiveChargebackNotice(*cb)

	p.logger.Info("chargeback filed", map[string]interface{}{
		"chargeback_id": cb.ID,
		"tx_id":         tx.ID,
		"reason":        reason,
	})
	return cb, nil
}

// SubmitDefense runs the representment phase: merchant documents, acquirer
// forwards, network records.
func (p *Processor) SubmitDefense(cb *domain.Chargeback) error {
	if _, ok := p.active[cb.ID]; !ok {
		return apperrors.ErrChargebackNotFound
	}

	cb.DocsSubmitted = p.merchant.PrepareDefense(*cb)
	if err := cb.UpdateStatus(domain.ChargebackStatusDocsSubmitted); err != nil {
		return err
	}
	p.notifier.Notify(fmt.Sprintf("[Merchant -> Acquirer] Defense documents for %s", cb.ID), event.SeverityInfo)

	if err := cb.UpdateStatus(domain.ChargebackStatusRepresented); err != nil {
		return err
	}
	p.notifier.Notify(fmt.Sprintf("[Acquirer -> Network] Representment for %s", cb.ID), event.SeverityInfo)
	p.network.ReceiveRepresentment(*cb)

	return nil
}

// Resolve decides the dispute with the configured weighted coin flip and
// notifies the issuer of the terminal outcome. The chargeback leaves the
// active set either way.
func (p *Processor) Resolve(cb *domain.Chargeback) (Resolution, error) {
	if _, ok := p.active[cb.ID]; !ok {
		return Resolution{}, apperrors.ErrChargebackNotFound
	}

	merchantWon := p.rng.Float64() < p.merchantWinRate
	outcome := domain.ChargebackStatusResolvedCardholder
	if merchantWon {
		outcome = domain.ChargebackStatusResolvedMerchant
	}
	if err := cb.UpdateStatus(outcome); err != nil {
		return Resolution{}, err
	}

	if merchantWon {
		p.notifier.Notify(fmt.Sprintf("[Network -> Issuer] Chargeback %s RESOLVED for the MERCHANT", cb.ID), event.SeveritySuccess)
	} else {
		p.notifier.Notify(fmt.Sprintf("[Network -> Issuer] Chargeback %s RESOLVED for the CARDHOLDER", cb.ID), event.SeverityWarning)
	}
	p.issuer.ReceiveResolution(*cb)

	delete(p.active, cb.ID)
	p.logger.Info("chargeback resolved", map[string]interface{}{
		"chargeback_id": cb.ID,
		"outcome":       outcome,
	})
	return Resolution{ChargebackID: cb.ID, Outcome: outcome, MerchantWon: merchantWon}, nil
}

// Active returns snapshots of the disputes still in flight, report input.
func (p *Processor) Active() []domain.Chargeback {
	out := make([]domain.Chargeback, 0, len(p.active))
	for _, cb := range p.active {
		out = append(out, *cb)
	}
	return out
}
