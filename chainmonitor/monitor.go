package chainmonitor

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/contractcourt"
	"github.com/lnchancore/chancore/lnwallet"
)

// Monitor watches the chain for events that matter to a set of open
// channels -- a spend of the funding outpoint, and new blocks -- and drives
// contractcourt's classification and resolution-tracking logic as a funding
// spend arrives. The outputs of a closing transaction are not watched
// individually, so spends of commitment outputs are never observed here. It has no opinion on how outputs are eventually swept;
// it only classifies, tracks, and -- on a detected breach -- triggers the
// justice path.
type Monitor struct {
	Notifier ChainNotifier
	Resolver *contractcourt.Engine
	Justice  *contractcourt.JusticeEngine
	Clock    clock.Clock

	// SweepPkScript resolves the output script a channel's justice
	// transaction should pay into. Required if Justice is set.
	SweepPkScript func(chanState *channeldb.OpenChannel) ([]byte, error)

	// FeeEstimate returns the fee rate a justice transaction should pay.
	// Required if Justice is set.
	FeeEstimate func() lnwallet.SatPerKWeight

	// RebroadcastTicker fires periodically to re-publish any justice
	// transaction that hasn't confirmed yet. A spend notification only
	// delivers once; if the mempool drops a justice transaction (a fee
	// spike, a restart racing the original publish) nothing else would
	// ever retry it. Nil disables rebroadcasting.
	RebroadcastTicker ticker.Ticker

	mu       sync.Mutex
	channels map[wire.OutPoint]*channeldb.OpenChannel

	// unconfirmedJustice holds every justice transaction this monitor has
	// published but not yet seen confirm, so RebroadcastTicker has
	// something to retry.
	unconfirmedJustice map[chainhash.Hash]*wire.MsgTx

	// closedBy records, per channel, the txid this monitor has already
	// classified the funding spend as. A spend notification replaying the
	// same txid is a no-op; a DIFFERENT txid (a reorg reinstating a
	// different close) re-classifies from scratch.
	closedBy map[wire.OutPoint]chainhash.Hash

	blockEpoch *BlockEpochEvent
	quit       chan struct{}
	wg         sync.WaitGroup
}

// NewMonitor creates a Monitor dispatching onto resolver and justice through
// notifier.
func NewMonitor(notifier ChainNotifier, resolver *contractcourt.Engine,
	justice *contractcourt.JusticeEngine, clk clock.Clock) *Monitor {

	return &Monitor{
		Notifier:           notifier,
		Resolver:           resolver,
		Justice:            justice,
		Clock:              clk,
		channels:           make(map[wire.OutPoint]*channeldb.OpenChannel),
		closedBy:           make(map[wire.OutPoint]chainhash.Hash),
		unconfirmedJustice: make(map[chainhash.Hash]*wire.MsgTx),
		quit:               make(chan struct{}),
	}
}

// Start begins the shared block-epoch subscription that feeds handleBlock,
// and the justice rebroadcast loop when RebroadcastTicker is set.
func (m *Monitor) Start() error {
	epoch, err := m.Notifier.RegisterBlockEpochNtfn(0)
	if err != nil {
		return fmt.Errorf("unable to register block epoch notifications: %w", err)
	}
	m.blockEpoch = epoch

	m.wg.Add(1)
	go m.blockLoop()

	if m.RebroadcastTicker != nil {
		m.RebroadcastTicker.Resume()
		m.wg.Add(1)
		go m.rebroadcastLoop()
	}

	return nil
}

// Stop shuts down the monitor's background dispatch loops.
func (m *Monitor) Stop() error {
	close(m.quit)
	m.wg.Wait()

	if m.blockEpoch != nil && m.blockEpoch.Cancel != nil {
		m.blockEpoch.Cancel()
	}
	if m.RebroadcastTicker != nil {
		m.RebroadcastTicker.Stop()
	}

	return nil
}

// WatchChannel begins monitoring chanState's funding outpoint for a closing
// spend. It's idempotent: watching an already-watched channel is a no-op.
func (m *Monitor) WatchChannel(chanState *channeldb.OpenChannel) error {
	m.mu.Lock()
	if _, ok := m.channels[chanState.FundingOutpoint]; ok {
		m.mu.Unlock()
		return nil
	}
	m.channels[chanState.FundingOutpoint] = chanState
	m.mu.Unlock()

	spendEvent, err := m.Notifier.RegisterSpendNtfn(
		&chanState.FundingOutpoint, nil, chanState.FundingBroadcastHeight,
	)
	if err != nil {
		return fmt.Errorf("unable to register spend notification for %v: %w",
			chanState.FundingOutpoint, err)
	}

	m.wg.Add(1)
	go m.fundingSpendLoop(chanState, spendEvent)

	return nil
}

// blockLoop forwards each height from the shared block-epoch subscription
// to handleBlock.
func (m *Monitor) blockLoop() {
	defer m.wg.Done()

	for {
		select {
		case epoch, ok := <-m.blockEpoch.Epochs:
			if !ok {
				return
			}
			m.handleBlock(uint32(epoch.Height))

		case <-m.quit:
			return
		}
	}
}

// handleBlock only logs the new height; no per-block CLTV re-evaluation is
// done, and the monitor never hands an HTLC output spend to
// contractcourt.ClassifyHtlcSpend, since it does not watch those outputs.
// It's kept as a
// named hook so a future policy -- e.g. proactively broadcasting a timeout
// sweep the block an HTLC's CLTV expires, rather than waiting for a spend
// to classify -- has a single, obvious place to attach to.
func (m *Monitor) handleBlock(height uint32) {
	log.Debugf("Observed new block at height %d (%v)", height, m.Clock.Now())
}

// fundingSpendLoop waits for chanState's funding outpoint to be spent, then
// classifies the spend and begins tracking the resulting close to
// irrevocable resolution.
func (m *Monitor) fundingSpendLoop(chanState *channeldb.OpenChannel, spendEvent *SpendEvent) {
	defer m.wg.Done()

	select {
	case detail, ok := <-spendEvent.Spend:
		if !ok {
			return
		}
		m.handleFundingSpend(chanState, detail)

	case <-m.quit:
		return
	}
}

// handleFundingSpend classifies a transaction spending chanState's funding
// outpoint and tracks the close to irrevocable resolution. It's idempotent
// under replay: re-delivering the same spend detail for a txid already
// classified for this channel is a no-op.
func (m *Monitor) handleFundingSpend(chanState *channeldb.OpenChannel, detail *SpendDetail) {
	chanPoint := chanState.FundingOutpoint
	txid := *detail.SpenderTxHash

	m.mu.Lock()
	if already, ok := m.closedBy[chanPoint]; ok && already == txid {
		m.mu.Unlock()
		return
	}
	m.closedBy[chanPoint] = txid
	m.mu.Unlock()

	class, err := contractcourt.ClassifyFundingSpend(chanState, detail.SpendingTx)
	if err != nil {
		log.Errorf("unable to classify funding spend for %v: %v", chanPoint, err)
		return
	}

	log.Infof("Funding outpoint %v spent by %v, classified as %v",
		chanPoint, txid, class.Type)

	m.Resolver.Track(chanPoint, &contractcourt.OutputResolution{
		Outpoint:   wire.OutPoint{Hash: txid, Index: 0},
		Type:       class.Type,
		SpendingTx: detail.SpendingTx,
	})

	confEvent, err := m.Notifier.RegisterConfirmationsNtfn(
		&txid, detail.SpendingTx.TxOut[0].PkScript, m.Resolver.ConfirmationDepth,
		uint32(detail.SpendingHeight),
	)
	if err != nil {
		log.Errorf("unable to register confirmation notification for %v: %v", txid, err)
		return
	}

	m.wg.Add(1)
	go m.confirmationLoop(chanPoint, txid, confEvent)

	if class.Type == contractcourt.RevokedRemoteUnilateral && m.Justice != nil {
		m.triggerJustice(chanState, class.CommitHeight, txid)
	}
}

// confirmationLoop updates the resolver's confirmation depth for outpoint
// once the notifier reports that the close has reached the resolver's
// confirmation depth; the confirmation notification fires only once.
func (m *Monitor) confirmationLoop(chanPoint wire.OutPoint, txid chainhash.Hash,
	confEvent *ConfirmationEvent) {

	defer m.wg.Done()

	for {
		select {
		case conf, ok := <-confEvent.Confirmed:
			if !ok {
				return
			}
			outpoint := wire.OutPoint{Hash: txid, Index: 0}
			resolved := m.Resolver.UpdateConfirmations(chanPoint, outpoint,
				m.Resolver.ConfirmationDepth)
			if resolved {
				log.Infof("Channel %v close (%v) reached confirmation depth at height %d",
					chanPoint, txid, conf.BlockHeight)
			}
			return

		case <-confEvent.NegativeConf:
			// The closing transaction was reorged out. Forget the
			// classification so a future spend notification for
			// this channel is processed fresh.
			m.mu.Lock()
			delete(m.closedBy, chanPoint)
			m.mu.Unlock()
			return

		case <-m.quit:
			return
		}
	}
}

// triggerJustice builds and broadcasts the penalty transaction(s) for a
// detected breach of commitHeight.
func (m *Monitor) triggerJustice(chanState *channeldb.OpenChannel, commitHeight uint64,
	revokedCommitTxid chainhash.Hash) {

	if m.SweepPkScript == nil || m.FeeEstimate == nil {
		log.Errorf("justice engine has no sweep destination or fee estimator configured")
		return
	}

	sweepPkScript, err := m.SweepPkScript(chanState)
	if err != nil {
		log.Errorf("unable to resolve justice sweep destination: %v", err)
		return
	}

	txs, err := m.Justice.BuildJusticeTxs(
		chanState, commitHeight, revokedCommitTxid, sweepPkScript, m.FeeEstimate(),
	)
	if err != nil {
		log.Errorf("unable to build justice transaction for commit height %d: %v",
			commitHeight, err)
		return
	}

	for _, tx := range txs {
		txid := tx.TxHash()
		if err := m.Notifier.PublishTransaction(tx); err != nil {
			log.Errorf("unable to publish justice transaction %v: %v", txid, err)
			continue
		}

		m.mu.Lock()
		m.unconfirmedJustice[txid] = tx
		m.mu.Unlock()

		confEvent, err := m.Notifier.RegisterConfirmationsNtfn(
			&txid, tx.TxOut[0].PkScript, 1, 0,
		)
		if err != nil {
			log.Errorf("unable to register confirmation notification for "+
				"justice transaction %v: %v", txid, err)
			continue
		}

		m.wg.Add(1)
		go m.justiceConfirmationLoop(txid, confEvent)
	}
}

// justiceConfirmationLoop clears txid from the rebroadcast set once it
// confirms, or leaves it armed for the next rebroadcast tick if reorged out.
func (m *Monitor) justiceConfirmationLoop(txid chainhash.Hash, confEvent *ConfirmationEvent) {
	defer m.wg.Done()

	select {
	case _, ok := <-confEvent.Confirmed:
		if !ok {
			return
		}
		m.mu.Lock()
		delete(m.unconfirmedJustice, txid)
		m.mu.Unlock()
		log.Infof("Justice transaction %v confirmed", txid)

	case <-confEvent.NegativeConf:
		return

	case <-m.quit:
		return
	}
}

// rebroadcastLoop re-publishes every justice transaction this monitor has
// sent out but not yet seen confirm, each time RebroadcastTicker fires.
func (m *Monitor) rebroadcastLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.RebroadcastTicker.Ticks():
			m.mu.Lock()
			pending := make([]*wire.MsgTx, 0, len(m.unconfirmedJustice))
			for _, tx := range m.unconfirmedJustice {
				pending = append(pending, tx)
			}
			m.mu.Unlock()

			for _, tx := range pending {
				if err := m.Notifier.PublishTransaction(tx); err != nil {
					log.Debugf("rebroadcast of justice transaction %v failed: %v",
						tx.TxHash(), err)
				}
			}

		case <-m.quit:
			return
		}
	}
}
