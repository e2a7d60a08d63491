package chainmonitor

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// fakeTicker is a manually driven ticker.Ticker: tests fire a tick by
// sending on the channel returned from Ticks directly.
type fakeTicker struct {
	c       chan time.Time
	resumed int
	paused  int
	stopped int
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time, 1)}
}

func (f *fakeTicker) Ticks() <-chan time.Time { return f.c }
func (f *fakeTicker) Resume()                 { f.resumed++ }
func (f *fakeTicker) Pause()                  { f.paused++ }
func (f *fakeTicker) Stop()                   { f.stopped++ }

// fakeNotifier records every transaction handed to PublishTransaction and
// lets a test control what RegisterBlockEpochNtfn/RegisterConfirmationsNtfn
// hand back, without standing up a real chain backend.
type fakeNotifier struct {
	mu        sync.Mutex
	published []*wire.MsgTx

	confEvent *ConfirmationEvent
}

func (f *fakeNotifier) RegisterConfirmationsNtfn(txid *chainhash.Hash, pkScript []byte,
	numConfs, heightHint uint32) (*ConfirmationEvent, error) {

	if f.confEvent != nil {
		return f.confEvent, nil
	}
	return &ConfirmationEvent{
		Confirmed:    make(chan *TxConfirmation, 1),
		NegativeConf: make(chan int32, 1),
	}, nil
}

func (f *fakeNotifier) RegisterSpendNtfn(outpoint *wire.OutPoint, pkScript []byte,
	heightHint uint32) (*SpendEvent, error) {
	return &SpendEvent{Spend: make(chan *SpendDetail, 1)}, nil
}

func (f *fakeNotifier) RegisterBlockEpochNtfn(bestHeight int32) (*BlockEpochEvent, error) {
	return &BlockEpochEvent{Epochs: make(chan *BlockEpoch, 1), Cancel: func() {}}, nil
}

func (f *fakeNotifier) CurrentHeight() (uint32, error) { return 0, nil }

func (f *fakeNotifier) PublishTransaction(tx *wire.MsgTx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, tx)
	return nil
}

func (f *fakeNotifier) Start() error { return nil }
func (f *fakeNotifier) Stop() error  { return nil }

func (f *fakeNotifier) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func newTestTx(seed byte) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{seed}}})
	tx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x00}})
	return tx
}

func TestStartResumesRebroadcastTickerWhenConfigured(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	ticker := newFakeTicker()

	m := NewMonitor(notifier, nil, nil, nil)
	m.RebroadcastTicker = ticker

	require.NoError(t, m.Start())
	require.Equal(t, 1, ticker.resumed)

	require.NoError(t, m.Stop())
	require.Equal(t, 1, ticker.stopped)
}

func TestStartSkipsRebroadcastLoopWhenTickerNil(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	m := NewMonitor(notifier, nil, nil, nil)

	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())
}

func TestRebroadcastLoopRepublishesUnconfirmedJustice(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	ticker := newFakeTicker()

	m := NewMonitor(notifier, nil, nil, nil)
	m.RebroadcastTicker = ticker

	tx := newTestTx(0x01)
	m.mu.Lock()
	m.unconfirmedJustice[tx.TxHash()] = tx
	m.mu.Unlock()

	require.NoError(t, m.Start())

	ticker.c <- time.Time{}

	require.Eventually(t, func() bool {
		return notifier.publishCount() >= 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
}

func TestJusticeConfirmationLoopClearsUnconfirmedOnConfirm(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	m := NewMonitor(notifier, nil, nil, nil)

	tx := newTestTx(0x02)
	txid := tx.TxHash()

	m.mu.Lock()
	m.unconfirmedJustice[txid] = tx
	m.mu.Unlock()

	confEvent := &ConfirmationEvent{
		Confirmed:    make(chan *TxConfirmation, 1),
		NegativeConf: make(chan int32, 1),
	}

	m.wg.Add(1)
	go m.justiceConfirmationLoop(txid, confEvent)

	confEvent.Confirmed <- &TxConfirmation{Tx: tx}

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		_, stillPending := m.unconfirmedJustice[txid]
		return !stillPending
	}, time.Second, 10*time.Millisecond)

	m.wg.Wait()
}

func TestJusticeConfirmationLoopExitsOnNegativeConf(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	m := NewMonitor(notifier, nil, nil, nil)

	tx := newTestTx(0x03)
	txid := tx.TxHash()

	confEvent := &ConfirmationEvent{
		Confirmed:    make(chan *TxConfirmation, 1),
		NegativeConf: make(chan int32, 1),
	}

	done := make(chan struct{})
	m.wg.Add(1)
	go func() {
		m.justiceConfirmationLoop(txid, confEvent)
		close(done)
	}()

	confEvent.NegativeConf <- 1

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("justiceConfirmationLoop did not exit on negative confirmation")
	}
}
