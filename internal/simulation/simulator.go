// Package simulation drives the scripted seven-phase demo: authorization,
// capture, settlement, merchant payout, issuer billing, chargeback dispute
// and regulatory reporting. The pipeline is synchronous and single-threaded;
// the orchestrator threads the authoritative transaction copy from stage to
// stage while each participant keeps its own snapshots.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"cardsim/internal/artifact"
	"cardsim/internal/chargeback"
	"cardsim/internal/domain"
	"cardsim/internal/event"
	"cardsim/internal/participant"
	"cardsim/internal/report"
	"cardsim/pkg/config"
	apperrors "cardsim/pkg/errors"
	"cardsim/pkg/logger"
)

type Simulator struct {
	cfg      config.SimulationConfig
	scenario Scenario
	notifier event.Notifier
	logger   logger.Logger
	pacer    Pacer

	merchant  *participant.Merchant
	acquirer  *participant.Acquirer
	network   *participant.Network
	issuer    *participant.Issuer
	disputes  *chargeback.Processor
	artifacts *artifact.Store
	reporter  *report.Reporter

	// processed holds the orchestrator's authoritative copy of every
	// transaction, updated after each pipeline stage.
	processed []domain.Transaction
	resolved  []domain.Chargeback
}

// New wires the participants for one run of the default scenario. A nil rng
// seeds from the clock; tests inject a fixed seed to pin the dispute outcome.
func New(cfg config.SimulationConfig, notifier event.Notifier, log logger.Logger, rng *rand.Rand) (*Simulator, error) {
	return NewWithScenario(cfg, DefaultScenario(), notifier, log, rng)
}

func NewWithScenario(cfg config.SimulationConfig, scenario Scenario, notifier event.Notifier, log logger.Logger, rng *rand.Rand) (*Simulator, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	artifacts, err := artifact.NewStore(cfg.OutputDir, notifier, log)
	if err != nil {
		return nil, err
	}
	reporter, err := report.NewReporter(cfg.OutputDir, notifier, log)
	if err != nil {
		return nil, err
	}

	merchant := participant.NewMerchant(scenario.Merchant, notifier, log)
	acquirer := participant.NewAcquirer(scenario.AcquirerName, notifier, log)
	network := participant.NewNetwork(scenario.NetworkName, notifier, log)
	issuer := participant.NewIssuer(scenario.IssuerName, notifier, log)

	acquirer.RegisterMerchant(scenario.Merchant)
	for _, ch := range scenario.Cardholders {
		issuer.RegisterCardholder(ch)
	}

	disputes := chargeback.NewProcessor(issuer, network, acquirer, merchant, cfg.MerchantWinRate, rng, notifier, log)

	return &Simulator{
		cfg:       cfg,
		scenario:  scenario,
		notifier:  notifier,
		logger:    log,
		pacer:     NewDelayPacer(cfg.StepDelay),
		merchant:  merchant,
		acquirer:  acquirer,
		network:   network,
		issuer:    issuer,
		disputes:  disputes,
		artifacts: artifacts,
		reporter:  reporter,
	}, nil
}

// Issuer exposes the issuer for balance assertions in tests and the bridge's
// summary endpoint.
func (s *Simulator) Issuer() *participant.Issuer { return s.issuer }

// Run executes the full script. Any error or panic anywhere in the pipeline
// is converted into a failed outcome at this single boundary; there is no
// partial recovery and no cleanup of files already written.
func (s *Simulator) Run(ctx context.Context) Outcome {
	out := Outcome{Status: StatusSuccess, StartedAt: time.Now()}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("simulation panic: %v", r)
			}
		}()
		return s.runScript(ctx, &out)
	}()

	if err != nil {
		out.Status = StatusFailed
		out.Reason = err.Error()
		s.notifier.Notify(fmt.Sprintf("SIMULATION FAILED: %v", err), event.SeverityError)
		s.logger.Error("simulation failed", map[string]interface{}{"error": err.Error()})
	} else {
		s.notifier.Notify("Simulation complete. Check the output directory for generated artifacts.", event.SeveritySuccess)
	}
	out.FinishedAt = time.Now()
	return out
}

func (s *Simulator) runScript(ctx context.Context, out *Outcome) error {
	if err := s.startStep(ctx, "1. REAL-TIME AUTHORIZATION (ISO 8583)"); err != nil {
		return err
	}
	if err := s.runAuthorization(out); err != nil {
		return err
	}

	if err := s.startStep(ctx, "2. CAPTURE (acquirer -> network batch)"); err != nil {
		return err
	}
	if err := s.runCapture(out); err != nil {
		return err
	}

	if err := s.startStep(ctx, "3. SETTLEMENT (network -> acquirer and issuer)"); err != nil {
		return err
	}
	if err := s.runSettlement(out); err != nil {
		return err
	}

	if err := s.startStep(ctx, "4. MERCHANT PAYOUT (CNAB batch)"); err != nil {
		return err
	}
	if err := s.runPayout(out); err != nil {
		return err
	}

	if err := s.startStep(ctx, "5. ISSUER BILLING"); err != nil {
		return err
	}
	if err := s.runBilling(out); err != nil {
		return err
	}

	if s.scenario.Dispute != nil {
		if err := s.startStep(ctx, "6. CHARGEBACK DISPUTE"); err != nil {
			return err
		}
		if err := s.runDispute(out); err != nil {
			return err
		}
	}

	if err := s.startStep(ctx, "7. REGULATORY REPORTING"); err != nil {
		return err
	}
	return s.runReporting(out)
}

func (s *Simulator) startStep(ctx context.Context, title string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, "simulation aborted")
	}
	s.notifier.StartStep(title)
	s.pacer.Wait()
	return nil
}

func (s *Simulator) runAuthorization(out *Outcome) error {
	for _, p := range s.scenario.Purchases {
		s.notifier.Notify(fmt.Sprintf("[Cardholder -> Merchant] Card swipe: BIN %s, amount %s", p.CardBIN, p.Amount.StringFixed(2)), event.SeverityNeutral)

		tx, err := s.merchant.InitiatePurchase(participant.PurchaseRequest{
			Amount:       p.Amount,
			CardType:     p.CardType,
			CardBIN:      p.CardBIN,
			CardholderID: p.CardholderID,
		})
		if err != nil {
			return err
		}

		tx, err = s.acquirer.AcceptTransaction(tx)
		if err != nil {
			return err
		}
		tx, err = s.network.Authorize(tx, s.issuer)
		if err != nil {
			return err
		}
		tx = s.acquirer.ReceiveAuthResponse(tx)
		s.processed = append(s.processed, tx)

		if tx.Status == domain.TransactionStatusAuthorized {
			out.ApprovedCount++
		} else {
			out.DeclinedCount++
		}
		s.pacer.Wait()
	}
	return nil
}

func (s *Simulator) runCapture(out *Outcome) error {
	queue := s.acquirer.CaptureQueue()
	if len(queue) == 0 {
		s.notifier.Notify("No authorized transactions to capture", event.SeverityNeutral)
		return nil
	}

	path, err := s.artifacts.WriteCaptureFile(queue)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)
	s.notifier.Notify("[Acquirer -> Network] Capture file transferred (SFTP)", event.SeverityInfo)

	result, err := s.network.CaptureBatch(queue)
	if err != nil {
		return err
	}
	s.acquirer.RecordCaptured(result.Captured)
	s.updateProcessed(result.Captured)
	return nil
}

func (s *Simulator) runSettlement(out *Outcome) error {
	acqSettled, err := s.network.SettleAcquirerBatch(s.acquirer.CapturedQueue())
	if err != nil {
		return err
	}
	if len(acqSettled) > 0 {
		path, err := s.artifacts.WriteAcquirerSettlementFile(acqSettled)
		if err != nil {
			return err
		}
		s.addArtifact(out, path)
		s.notifier.Notify("[Network -> Acquirer] Settlement file transferred (SFTP)", event.SeverityInfo)
		s.acquirer.ProcessSettlement(acqSettled)
		s.updateProcessed(acqSettled)
	}

	issSettled, err := s.network.SettleIssuerBatch(s.issuer.ApprovedQueue())
	if err != nil {
		return err
	}
	if len(issSettled) > 0 {
		path, err := s.artifacts.WriteIssuerSettlementFile(issSettled)
		if err != nil {
			return err
		}
		s.addArtifact(out, path)
		s.notifier.Notify("[Network -> Issuer] Settlement file transferred (SFTP)", event.SeverityInfo)
		s.issuer.ProcessSettlement(issSettled)
	}
	return nil
}

func (s *Simulator) runPayout(out *Outcome) error {
	queue := s.acquirer.PayoutQueue()
	if len(queue) == 0 {
		s.notifier.Notify("No settled transactions to pay out", event.SeverityNeutral)
		return nil
	}
	path, err := s.artifacts.WritePayoutFile(queue, s.acquirer.Merchant, s.cfg.MerchantFeeRate)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)
	s.notifier.Notify("[Acquirer -> Partner Banks] CNAB payout file transferred (SFTP)", event.SeverityInfo)
	return nil
}

func (s *Simulator) runBilling(out *Outcome) error {
	billed, err := s.issuer.BillCardholders()
	if err != nil {
		return err
	}
	if len(billed) == 0 {
		s.notifier.Notify("No settled transactions to bill", event.SeverityNeutral)
		return nil
	}
	path, err := s.artifacts.WriteBillingFile(billed)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)
	return nil
}

func (s *Simulator) runDispute(out *Outcome) error {
	target, ok := s.firstDisputable()
	if !ok {
		s.notifier.Notify("No completed transaction available to dispute", event.SeverityNeutral)
		return nil
	}

	cb, err := s.disputes.File(target, s.scenario.Dispute.Reason)
	if err != nil {
		return err
	}
	s.pacer.Wait()

	if err := s.disputes.SubmitDefense(cb); err != nil {
		return err
	}
	s.pacer.Wait()

	res, err := s.disputes.Resolve(cb)
	if err != nil {
		return err
	}
	out.ChargebackOutcome = string(res.Outcome)
	s.resolved = append(s.resolved, *cb)

	if !res.MerchantWon {
		if err := target.Transition(domain.TransactionStatusReversed); err != nil {
			return err
		}
		s.updateProcessed([]domain.Transaction{target})
		s.notifier.Notify(fmt.Sprintf("Transaction %s REVERSED following the dispute", target.ID), event.SeverityWarning)
	}
	return nil
}

func (s *Simulator) runReporting(out *Outcome) error {
	period := time.Now().Format("200601")

	path, err := s.reporter.WriteCreditExposure(report.CreditExposureInput{
		IssuerName:   s.issuer.Name(),
		Transactions: s.issuer.Billed(),
		Chargebacks:  s.issuer.Chargebacks(),
	}, period)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)

	path, err = s.reporter.WriteAcquirerVolume(report.VolumeInput{
		AcquirerName:  s.acquirer.Name(),
		Transactions:  s.acquirer.Received(),
		Chargebacks:   s.acquirer.Chargebacks(),
		MerchantCount: s.acquirer.MerchantCount(),
	}, period)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)

	path, err = s.reporter.WriteStatistics(s.processed, period)
	if err != nil {
		return err
	}
	s.addArtifact(out, path)
	return nil
}

// firstDisputable finds the earliest processed transaction a chargeback can
// be filed against.
func (s *Simulator) firstDisputable() (domain.Transaction, bool) {
	for _, tx := range s.processed {
		switch tx.Status {
		case domain.TransactionStatusCaptured,
			domain.TransactionStatusSettledAcquirer,
			domain.TransactionStatusSettledIssuer,
			domain.TransactionStatusBilled:
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

func (s *Simulator) updateProcessed(txs []domain.Transaction) {
	for _, tx := range txs {
		for i := range s.processed {
			if s.processed[i].ID == tx.ID {
				s.processed[i] = tx
			}
		}
	}
}

func (s *Simulator) addArtifact(out *Outcome, path string) {
	if path != "" {
		out.Artifacts = append(out.Artifacts, path)
	}
}
