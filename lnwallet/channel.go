package lnwallet

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/input"
	"github.com/lnchancore/chancore/lnwire"
)

// LightningChannel is the core state machine for one channel: the pair of
// commitment chains (ours and the copy we hand the remote party), the pair
// of update logs each side's adds/settles/fails/fee-updates are appended
// to, and the operations that advance them through a commitment turn.
//
// A LightningChannel never holds a basepoint private key; every signature
// it needs is obtained by handing a fully-populated input.SignDescriptor to
// its Signer.
type LightningChannel struct {
	sync.RWMutex

	Signer input.Signer

	channelState *channeldb.OpenChannel

	localChanCfg  *channeldb.ChannelConfig
	remoteChanCfg *channeldb.ChannelConfig

	localCommitChain  *CommitmentChain
	remoteCommitChain *CommitmentChain

	localUpdateLog  *UpdateLog
	remoteUpdateLog *UpdateLog

	fundingTxIn wire.TxIn

	// pendingFeeUpdate is a fee-rate change we've proposed but that
	// hasn't yet been covered by a commitment turn.
	pendingFeeUpdate *SatPerKWeight

	// pendingAckFeeUpdate is a fee-rate change the remote party proposed
	// that hasn't yet been covered by a commitment turn.
	pendingAckFeeUpdate *SatPerKWeight
}

// NewLightningChannel restores a channel's in-memory state machine from a
// persisted checkpoint.
func NewLightningChannel(signer input.Signer,
	state *channeldb.OpenChannel) (*LightningChannel, error) {

	lc := &LightningChannel{
		Signer:            signer,
		channelState:      state,
		localChanCfg:      &state.LocalChanCfg,
		remoteChanCfg:     &state.RemoteChanCfg,
		localCommitChain:  NewCommitmentChain(),
		remoteCommitChain: NewCommitmentChain(),
	}

	lc.localUpdateLog = NewUpdateLog(
		state.LocalCommitment.LocalLogIndex,
		state.LocalCommitment.LocalHtlcIndex,
	)
	lc.remoteUpdateLog = NewUpdateLog(
		state.LocalCommitment.RemoteLogIndex,
		state.LocalCommitment.RemoteHtlcIndex,
	)

	localCommit, err := commitmentFromDisk(&state.LocalCommitment, true)
	if err != nil {
		return nil, fmt.Errorf("unable to restore local commitment: %w", err)
	}
	remoteCommit, err := commitmentFromDisk(&state.RemoteCommitment, false)
	if err != nil {
		return nil, fmt.Errorf("unable to restore remote commitment: %w", err)
	}
	lc.localCommitChain.AddCommitment(localCommit)
	lc.remoteCommitChain.AddCommitment(remoteCommit)

	lc.fundingTxIn = *wire.NewTxIn(&state.FundingOutpoint, nil, nil)

	return lc, nil
}

func commitmentFromDisk(disk *channeldb.ChannelCommitment, isOurs bool) (*Commitment, error) {
	c := &Commitment{
		Height:            disk.CommitHeight,
		OurBalance:        disk.LocalBalance,
		TheirBalance:      disk.RemoteBalance,
		OurMessageIndex:   disk.LocalLogIndex,
		OurHtlcIndex:      disk.LocalHtlcIndex,
		TheirMessageIndex: disk.RemoteLogIndex,
		TheirHtlcIndex:    disk.RemoteHtlcIndex,
		FeePerKw:          SatPerKWeight(disk.FeePerKw),
		Fee:               disk.CommitFee,
		IsOurs:            isOurs,
		Txn:               disk.CommitTx,
		Sig:               disk.CommitSig,
	}

	for _, htlc := range disk.Htlcs {
		pd := PaymentDescriptor{
			RHash:     PaymentHash(htlc.RHash),
			Timeout:   htlc.RefundTimeout,
			Amount:    htlc.Amt,
			HtlcIndex: htlc.HtlcIndex,
			LogIndex:  htlc.LogIndex,
		}
		// Incoming is relative to the commitment's owner, so on the
		// remote commitment an incoming HTLC is one we offered.
		if htlc.Incoming == isOurs {
			c.IncomingHTLCs = append(c.IncomingHTLCs, pd)
		} else {
			c.OutgoingHTLCs = append(c.OutgoingHTLCs, pd)
		}
	}

	return c, nil
}

// ChannelPoint returns the outpoint of the channel's funding transaction.
func (lc *LightningChannel) ChannelPoint() *wire.OutPoint {
	return &lc.channelState.FundingOutpoint
}

// ShortChanID returns the channel's short channel ID, if it's confirmed.
func (lc *LightningChannel) ShortChanID() lnwire.ShortChannelID {
	return lc.channelState.ShortChannelID
}

// State returns the channel's underlying persisted checkpoint.
func (lc *LightningChannel) State() *channeldb.OpenChannel {
	return lc.channelState
}

// IsInitiator reports whether the local party funded this channel.
func (lc *LightningChannel) IsInitiator() bool {
	return lc.channelState.IsInitiator
}

// hasPendingHTLCs reports whether either commitment chain's tip still
// carries an HTLC, outgoing or incoming. A mutual close can't be negotiated
// until both commitments have cleared: the closing transaction has no way
// to represent an HTLC still in flight.
func (lc *LightningChannel) hasPendingHTLCs() bool {
	lc.RLock()
	defer lc.RUnlock()

	localTip := lc.localCommitChain.Tip()
	remoteTip := lc.remoteCommitChain.Tip()

	return len(localTip.OutgoingHTLCs) > 0 || len(localTip.IncomingHTLCs) > 0 ||
		len(remoteTip.OutgoingHTLCs) > 0 || len(remoteTip.IncomingHTLCs) > 0
}

// ---------------------------------------------------------------------
// HTLC log mutation
// ---------------------------------------------------------------------

// AddHTLC offers a new HTLC to the remote party, appending it to our own
// update log.
func (lc *LightningChannel) AddHTLC(htlc *lnwire.UpdateAddHTLC) (uint64, error) {
	lc.Lock()
	defer lc.Unlock()

	if lc.remoteCommitChain.HasUnackedCommitment() {
		return 0, &ProtocolViolationError{
			Msg: "cannot offer a new htlc while owed a revoke_and_ack",
		}
	}

	if err := lc.validateAddConstraints(htlc.Amount, true); err != nil {
		return 0, err
	}

	pd := &PaymentDescriptor{
		EntryType: Add,
		RHash:     PaymentHash(htlc.PaymentHash),
		Timeout:   htlc.Expiry,
		Amount:    htlc.Amount,
		OnionBlob: htlc.OnionBlob,
	}
	lc.localUpdateLog.AppendHtlc(pd)

	return pd.HtlcIndex, nil
}

// ReceiveHTLC records an HTLC the remote party offered us, appending it to
// their update log.
func (lc *LightningChannel) ReceiveHTLC(htlc *lnwire.UpdateAddHTLC) (uint64, error) {
	lc.Lock()
	defer lc.Unlock()

	if err := lc.validateAddConstraints(htlc.Amount, false); err != nil {
		return 0, err
	}

	pd := &PaymentDescriptor{
		EntryType: Add,
		RHash:     PaymentHash(htlc.PaymentHash),
		Timeout:   htlc.Expiry,
		Amount:    htlc.Amount,
		OnionBlob: htlc.OnionBlob,
	}
	lc.remoteUpdateLog.AppendHtlc(pd)

	return pd.HtlcIndex, nil
}

// validateAddConstraints enforces the MinHTLC bound of the side that would
// be accepting the new HTLC. MaxAcceptedHtlcs, MaxPendingAmount and the
// channel reserve are not checked here.
func (lc *LightningChannel) validateAddConstraints(amt lnwire.MilliSatoshi, weAreOffering bool) error {
	// The MinHTLC constraint binds whichever side is ACCEPTING the new
	// HTLC: when we're offering, that's the remote party's floor; when
	// we're receiving, that's our own.
	cfg := lc.localChanCfg
	if weAreOffering {
		cfg = lc.remoteChanCfg
	}

	if amt < cfg.MinHTLC {
		return fmt.Errorf("htlc amount %v below minimum %v", amt, cfg.MinHTLC)
	}

	return nil
}

// SettleHTLC settles an HTLC the remote party offered us, appending a
// Settle entry to our own log.
func (lc *LightningChannel) SettleHTLC(preimage [32]byte, htlcIndex uint64) error {
	lc.Lock()
	defer lc.Unlock()

	htlc := lc.remoteUpdateLog.LookupHtlc(htlcIndex)
	if htlc == nil {
		return fmt.Errorf("unknown htlc index %d", htlcIndex)
	}
	if sha256.Sum256(preimage[:]) != [32]byte(htlc.RHash) {
		return fmt.Errorf("preimage does not match htlc %d's payment hash", htlcIndex)
	}

	pd := &PaymentDescriptor{
		EntryType:   Settle,
		RPreimage:   PaymentHash(preimage),
		ParentIndex: htlcIndex,
		Amount:      htlc.Amount,
	}
	lc.localUpdateLog.AppendUpdate(pd)

	return nil
}

// ReceiveHTLCSettle records the remote party settling an HTLC we offered.
func (lc *LightningChannel) ReceiveHTLCSettle(preimage [32]byte, htlcIndex uint64) error {
	lc.Lock()
	defer lc.Unlock()

	htlc := lc.localUpdateLog.LookupHtlc(htlcIndex)
	if htlc == nil {
		return fmt.Errorf("unknown htlc index %d", htlcIndex)
	}
	if sha256.Sum256(preimage[:]) != [32]byte(htlc.RHash) {
		return fmt.Errorf("preimage does not match htlc %d's payment hash", htlcIndex)
	}

	pd := &PaymentDescriptor{
		EntryType:   Settle,
		RPreimage:   PaymentHash(preimage),
		ParentIndex: htlcIndex,
		Amount:      htlc.Amount,
	}
	lc.remoteUpdateLog.AppendUpdate(pd)

	return nil
}

// FailHTLC fails an HTLC the remote party offered us.
func (lc *LightningChannel) FailHTLC(htlcIndex uint64, reason []byte) error {
	lc.Lock()
	defer lc.Unlock()

	htlc := lc.remoteUpdateLog.LookupHtlc(htlcIndex)
	if htlc == nil {
		return fmt.Errorf("unknown htlc index %d", htlcIndex)
	}

	pd := &PaymentDescriptor{
		EntryType:   Fail,
		ParentIndex: htlcIndex,
		FailReason:  reason,
		Amount:      htlc.Amount,
	}
	lc.localUpdateLog.AppendUpdate(pd)

	return nil
}

// MalformedFailHTLC fails an HTLC whose onion blob we couldn't parse.
func (lc *LightningChannel) MalformedFailHTLC(htlcIndex uint64, failCode uint16,
	shaOnionBlob [sha256.Size]byte) error {

	lc.Lock()
	defer lc.Unlock()

	htlc := lc.remoteUpdateLog.LookupHtlc(htlcIndex)
	if htlc == nil {
		return fmt.Errorf("unknown htlc index %d", htlcIndex)
	}

	pd := &PaymentDescriptor{
		EntryType:    MalformedFail,
		ParentIndex:  htlcIndex,
		FailCode:     failCode,
		ShaOnionBlob: shaOnionBlob,
		Amount:       htlc.Amount,
	}
	lc.localUpdateLog.AppendUpdate(pd)

	return nil
}

// ReceiveFailHTLC records the remote party failing an HTLC we offered.
func (lc *LightningChannel) ReceiveFailHTLC(htlcIndex uint64, reason []byte) error {
	lc.Lock()
	defer lc.Unlock()

	htlc := lc.localUpdateLog.LookupHtlc(htlcIndex)
	if htlc == nil {
		return fmt.Errorf("unknown htlc index %d", htlcIndex)
	}

	pd := &PaymentDescriptor{
		EntryType:   Fail,
		ParentIndex: htlcIndex,
		FailReason:  reason,
		Amount:      htlc.Amount,
	}
	lc.remoteUpdateLog.AppendUpdate(pd)

	return nil
}

// ---------------------------------------------------------------------
// Fee updates
// ---------------------------------------------------------------------

// UpdateFee proposes a new commitment fee rate; only the channel initiator
// may call this.
func (lc *LightningChannel) UpdateFee(feePerKw SatPerKWeight) error {
	lc.Lock()
	defer lc.Unlock()

	if !lc.channelState.IsInitiator {
		return fmt.Errorf("only the channel initiator may update the fee rate")
	}

	if lc.remoteCommitChain.HasUnackedCommitment() {
		return &ProtocolViolationError{
			Msg: "cannot propose a fee update while owed a revoke_and_ack",
		}
	}

	pd := &PaymentDescriptor{EntryType: FeeUpdate, Amount: lnwire.MilliSatoshi(feePerKw)}
	lc.localUpdateLog.AppendUpdate(pd)

	lc.pendingFeeUpdate = &feePerKw

	return nil
}

// ReceiveUpdateFee records a fee-rate change proposed by the remote
// initiator.
func (lc *LightningChannel) ReceiveUpdateFee(feePerKw SatPerKWeight) error {
	lc.Lock()
	defer lc.Unlock()

	if lc.channelState.IsInitiator {
		return fmt.Errorf("non-initiator may not send update_fee")
	}

	pd := &PaymentDescriptor{EntryType: FeeUpdate, Amount: lnwire.MilliSatoshi(feePerKw)}
	lc.remoteUpdateLog.AppendUpdate(pd)

	lc.pendingAckFeeUpdate = &feePerKw

	return nil
}

// ---------------------------------------------------------------------
// Commitment view construction
// ---------------------------------------------------------------------

// computeView builds the next proposed commitment for the given chain by
// replaying every update-log entry beyond that chain's current tip's
// watermarks against the tip's balances and pending HTLC set.
func (lc *LightningChannel) computeView(remoteChain bool) (*Commitment, error) {
	var chain *CommitmentChain
	if remoteChain {
		chain = lc.remoteCommitChain
	} else {
		chain = lc.localCommitChain
	}
	prev := chain.Tip()

	ourBalance := prev.OurBalance
	theirBalance := prev.TheirBalance

	ourLogIndex := prev.OurMessageIndex
	ourHtlcIndex := prev.OurHtlcIndex
	theirLogIndex := prev.TheirMessageIndex
	theirHtlcIndex := prev.TheirHtlcIndex

	pendingOutgoing := make(map[uint64]*PaymentDescriptor)
	pendingIncoming := make(map[uint64]*PaymentDescriptor)
	for i := range prev.OutgoingHTLCs {
		pendingOutgoing[prev.OutgoingHTLCs[i].HtlcIndex] = &prev.OutgoingHTLCs[i]
	}
	for i := range prev.IncomingHTLCs {
		pendingIncoming[prev.IncomingHTLCs[i].HtlcIndex] = &prev.IncomingHTLCs[i]
	}

	feeRate := prev.FeePerKw

	for e := lc.localUpdateLog.Front(); e != nil; e = e.Next() {
		pd := e.Value.(*PaymentDescriptor)
		if pd.LogIndex < ourLogIndex {
			continue
		}

		switch pd.EntryType {
		case Add:
			ourBalance -= pd.Amount
			pendingOutgoing[pd.HtlcIndex] = pd
			ourHtlcIndex = pd.HtlcIndex + 1
		case Settle:
			if htlc, ok := pendingIncoming[pd.ParentIndex]; ok {
				ourBalance += htlc.Amount
				delete(pendingIncoming, pd.ParentIndex)
			}
		case Fail, MalformedFail:
			if htlc, ok := pendingIncoming[pd.ParentIndex]; ok {
				theirBalance += htlc.Amount
				delete(pendingIncoming, pd.ParentIndex)
			}
		case FeeUpdate:
			feeRate = SatPerKWeight(pd.Amount)
		}

		ourLogIndex = pd.LogIndex + 1
	}

	for e := lc.remoteUpdateLog.Front(); e != nil; e = e.Next() {
		pd := e.Value.(*PaymentDescriptor)
		if pd.LogIndex < theirLogIndex {
			continue
		}

		switch pd.EntryType {
		case Add:
			theirBalance -= pd.Amount
			pendingIncoming[pd.HtlcIndex] = pd
			theirHtlcIndex = pd.HtlcIndex + 1
		case Settle:
			if htlc, ok := pendingOutgoing[pd.ParentIndex]; ok {
				theirBalance += htlc.Amount
				delete(pendingOutgoing, pd.ParentIndex)
			}
		case Fail, MalformedFail:
			if htlc, ok := pendingOutgoing[pd.ParentIndex]; ok {
				ourBalance += htlc.Amount
				delete(pendingOutgoing, pd.ParentIndex)
			}
		case FeeUpdate:
			feeRate = SatPerKWeight(pd.Amount)
		}

		theirLogIndex = pd.LogIndex + 1
	}

	outgoing := sortedDescriptors(pendingOutgoing)
	incoming := sortedDescriptors(pendingIncoming)

	dustLimit := lc.localChanCfg.DustLimit
	if remoteChain {
		dustLimit = lc.remoteChanCfg.DustLimit
	}
	isOurs := !remoteChain

	// Account for the commitment transaction's fee before the view is
	// handed back: weight scales with the number of non-dust HTLCs this
	// exact feerate and dust limit leave standing, so dust filtering
	// must happen first.
	numHTLCs := countNonDustHTLCs(outgoing, incoming, isOurs, feeRate, dustLimit)
	weight := input.EstimateCommitTxWeight(numHTLCs, lc.channelState.ChanType.HasAnchors())
	fee := feeRate.FeeForWeight(weight)
	feeMsat := lnwire.NewMSatFromSatoshis(uint64(fee))

	funderBalance := &ourBalance
	if !lc.channelState.IsInitiator {
		funderBalance = &theirBalance
	}
	if *funderBalance < feeMsat {
		return nil, &FeeInsufficientError{
			Height:    prev.Height + 1,
			Fee:       fee,
			Available: *funderBalance,
		}
	}
	*funderBalance -= feeMsat

	return &Commitment{
		Height:            prev.Height + 1,
		OurBalance:        ourBalance,
		TheirBalance:      theirBalance,
		OurMessageIndex:   ourLogIndex,
		OurHtlcIndex:      ourHtlcIndex,
		TheirMessageIndex: theirLogIndex,
		TheirHtlcIndex:    theirHtlcIndex,
		FeePerKw:          feeRate,
		Fee:               fee,
		DustLimit:         dustLimit,
		IsOurs:            isOurs,
		OutgoingHTLCs:     outgoing,
		IncomingHTLCs:     incoming,
	}, nil
}

// countNonDustHTLCs reports how many of outgoing and incoming would still
// carry their own output on a commitment built for isOurs at feeRate --
// the same predicate buildCommitmentTx applies when deciding which HTLCs to
// include, used here up front so the commitment's fee reflects the
// transaction's real weight.
func countNonDustHTLCs(outgoing, incoming []PaymentDescriptor, isOurs bool,
	feeRate SatPerKWeight, dustLimit btcutil.Amount) int {

	count := 0

	ourOfferedIncoming := !isOurs
	for i := range outgoing {
		if !HtlcIsDust(ourOfferedIncoming, isOurs, feeRate,
			btcutil.Amount(outgoing[i].Amount.ToSatoshis()), dustLimit) {

			count++
		}
	}

	theirOfferedIncoming := isOurs
	for i := range incoming {
		if !HtlcIsDust(theirOfferedIncoming, isOurs, feeRate,
			btcutil.Amount(incoming[i].Amount.ToSatoshis()), dustLimit) {

			count++
		}
	}

	return count
}

func sortedDescriptors(m map[uint64]*PaymentDescriptor) []PaymentDescriptor {
	out := make([]PaymentDescriptor, 0, len(m))
	for _, pd := range m {
		out = append(out, *pd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HtlcIndex < out[j].HtlcIndex })
	return out
}

// buildCommitmentTx constructs and stores the unsigned transaction for a
// proposed commitment.
func (lc *LightningChannel) buildCommitmentTx(view *Commitment, commitPoint *btcec.PublicKey) error {
	chanType := lc.channelState.ChanType

	keyRing := DeriveCommitmentKeys(
		commitPoint, view.IsOurs, chanType, lc.localChanCfg, lc.remoteChanCfg,
	)

	var (
		amountToSelf, amountToThem btcutil.Amount
		csvTimeout                 uint32
		fundingKeySelf             *btcec.PublicKey
		fundingKeyRemote           *btcec.PublicKey
	)
	if view.IsOurs {
		amountToSelf = btcutil.Amount(view.OurBalance.ToSatoshis())
		amountToThem = btcutil.Amount(view.TheirBalance.ToSatoshis())
		csvTimeout = uint32(lc.localChanCfg.CsvDelay)
		fundingKeySelf = lc.localChanCfg.MultiSigKey.PubKey
		fundingKeyRemote = lc.remoteChanCfg.MultiSigKey.PubKey
	} else {
		amountToSelf = btcutil.Amount(view.TheirBalance.ToSatoshis())
		amountToThem = btcutil.Amount(view.OurBalance.ToSatoshis())
		csvTimeout = uint32(lc.remoteChanCfg.CsvDelay)
		fundingKeySelf = lc.remoteChanCfg.MultiSigKey.PubKey
		fundingKeyRemote = lc.localChanCfg.MultiSigKey.PubKey
	}

	// Every HTLC starts out marked as trimmed; the write-back below
	// overwrites the index of each one that gets an output.
	for _, pds := range [][]PaymentDescriptor{view.OutgoingHTLCs, view.IncomingHTLCs} {
		for i := range pds {
			if view.IsOurs {
				pds[i].LocalOutputIndex = -1
			} else {
				pds[i].RemoteOutputIndex = -1
			}
		}
	}

	var htlcs []htlcOutput
	// An HTLC we offered is incoming from the point of view of whichever
	// party the commitment belongs to when that party isn't us.
	ourOfferedIncoming := !view.IsOurs
	for i := range view.OutgoingHTLCs {
		pd := &view.OutgoingHTLCs[i]
		if HtlcIsDust(ourOfferedIncoming, view.IsOurs, view.FeePerKw, btcutil.Amount(pd.Amount.ToSatoshis()), view.DustLimit) {
			continue
		}
		h, err := BuildHTLCOutput(pd, ourOfferedIncoming, view.IsOurs, keyRing, chanType)
		if err != nil {
			return err
		}
		htlcs = append(htlcs, h)
	}
	theirOfferedIncoming := view.IsOurs
	for i := range view.IncomingHTLCs {
		pd := &view.IncomingHTLCs[i]
		if HtlcIsDust(theirOfferedIncoming, view.IsOurs, view.FeePerKw, btcutil.Amount(pd.Amount.ToSatoshis()), view.DustLimit) {
			continue
		}
		h, err := BuildHTLCOutput(pd, theirOfferedIncoming, view.IsOurs, keyRing, chanType)
		if err != nil {
			return err
		}
		htlcs = append(htlcs, h)
	}

	obscureFactor := ObscuringFactor(
		lc.channelState.IsInitiator,
		lc.localChanCfg.PaymentBasePoint.PubKey,
		lc.remoteChanCfg.PaymentBasePoint.PubKey,
	)

	tx, err := CreateCommitTx(
		lc.fundingTxIn, keyRing, chanType, view.IsOurs, csvTimeout,
		amountToSelf, amountToThem, view.DustLimit, htlcs, obscureFactor,
		view.Height, fundingKeySelf, fundingKeyRemote,
	)
	if err != nil {
		return err
	}

	// CreateCommitTx sorts htlcs in place before appending them to tx, so
	// their final position is whatever's left of tx.TxOut once the
	// leading to_local/to_remote/anchor outputs are accounted for.
	leading := len(tx.TxOut) - len(htlcs)
	for i, h := range htlcs {
		idx := int32(leading + i)
		if view.IsOurs {
			h.pd.LocalOutputIndex = idx
		} else {
			h.pd.RemoteOutputIndex = idx
		}
	}

	view.Txn = tx
	return nil
}

// ---------------------------------------------------------------------
// Commitment turn
// ---------------------------------------------------------------------

// SignNextCommitment builds, signs, and proposes the next commitment for
// the remote party: a signature over its commitment transaction plus one
// per non-dust HTLC, in output order.
func (lc *LightningChannel) SignNextCommitment() ([]byte, [][]byte, error) {
	lc.Lock()
	defer lc.Unlock()

	if lc.remoteCommitChain.HasUnackedCommitment() {
		return nil, nil, &ProtocolViolationError{
			Msg: "cannot propose a new commitment while owed a revoke_and_ack",
		}
	}

	view, err := lc.computeView(true)
	if err != nil {
		return nil, nil, err
	}

	commitPoint := lc.channelState.RemoteNextRevocation
	if commitPoint == nil {
		return nil, nil, fmt.Errorf("no remote per-commitment point available")
	}

	if err := lc.buildCommitmentTx(view, commitPoint); err != nil {
		return nil, nil, err
	}

	sigHashes := txscript.NewTxSigHashes(view.Txn)

	fundingScript, fundingOutput, err := input.FundingOutput(
		lc.localChanCfg.MultiSigKey.PubKey, lc.remoteChanCfg.MultiSigKey.PubKey,
		int64(lc.channelState.Capacity),
	)
	if err != nil {
		return nil, nil, err
	}

	commitSig, err := lc.Signer.SignOutputRaw(view.Txn, &input.SignDescriptor{
		KeyDesc:       lc.localChanCfg.MultiSigKey,
		WitnessScript: fundingScript,
		Output:        fundingOutput,
		HashType:      txscript.SigHashAll,
		SigHashes:     sigHashes,
		InputIndex:    0,
	})
	if err != nil {
		return nil, nil, err
	}

	htlcSigs, err := lc.signHTLCSigs(view, sigHashes)
	if err != nil {
		return nil, nil, err
	}

	lc.remoteCommitChain.AddCommitment(view)

	return commitSig, htlcSigs, nil
}

// signHTLCSigs produces the remote party's second-level HTLC signatures,
// one per non-dust HTLC on view's transaction, in the order those outputs
// appear.
func (lc *LightningChannel) signHTLCSigs(view *Commitment, sigHashes *txscript.TxSigHashes) ([][]byte, error) {
	keyRing := DeriveCommitmentKeys(
		lc.channelState.RemoteNextRevocation, view.IsOurs,
		lc.channelState.ChanType, lc.localChanCfg, lc.remoteChanCfg,
	)

	all := append(append([]PaymentDescriptor{}, view.OutgoingHTLCs...), view.IncomingHTLCs...)
	sort.Slice(all, func(i, j int) bool { return all[i].HtlcIndex < all[j].HtlcIndex })

	sigs := make([][]byte, 0, len(all))
	for i := range all {
		pd := &all[i]
		if HtlcIsDust(false, view.IsOurs, view.FeePerKw, btcutil.Amount(pd.Amount.ToSatoshis()), view.DustLimit) {
			continue
		}

		script, err := input.SecondLevelHTLCScript(
			keyRing.RevocationKey, keyRing.DelayKey, uint32(lc.remoteChanCfg.CsvDelay),
		)
		if err != nil {
			return nil, err
		}
		pkScript, err := input.WitnessScriptHash(script)
		if err != nil {
			return nil, err
		}

		sig, err := lc.Signer.SignOutputRaw(view.Txn, &input.SignDescriptor{
			KeyDesc:       lc.localChanCfg.HtlcBasePoint,
			SingleTweak:   keyRing.LocalHtlcKeyTweak,
			WitnessScript: pkScript,
			HashType:      txscript.SigHashAll,
			SigHashes:     sigHashes,
		})
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}

	return sigs, nil
}

// ReceiveNewCommitment validates the remote party's proposed signature for
// our own next commitment transaction -- the commitment signature itself,
// then one second-level signature per non-dust HTLC it carries -- before
// admitting it to our local commitment chain. An unverified signature would
// let a malicious or buggy peer convince us a commitment is broadcastable
// when it was never actually countersigned.
func (lc *LightningChannel) ReceiveNewCommitment(commitSig []byte, htlcSigs [][]byte) error {
	lc.Lock()
	defer lc.Unlock()

	view, err := lc.computeView(false)
	if err != nil {
		return err
	}

	perCommitSecret := lc.channelState.RevocationProducer.AtHeight(view.Height)
	_, commitPub := btcec.PrivKeyFromBytes(perCommitSecret[:])

	if err := lc.buildCommitmentTx(view, commitPub); err != nil {
		return err
	}

	fundingScript, fundingOutput, err := input.FundingOutput(
		lc.localChanCfg.MultiSigKey.PubKey, lc.remoteChanCfg.MultiSigKey.PubKey,
		int64(lc.channelState.Capacity),
	)
	if err != nil {
		return err
	}

	if err := verifyCommitSig(view.Txn, commitSig, lc.remoteChanCfg.MultiSigKey.PubKey,
		fundingScript, fundingOutput); err != nil {

		return &InvalidCommitSigError{CommitHeight: view.Height}
	}

	if err := lc.verifyHTLCSigs(view, commitPub, htlcSigs); err != nil {
		return err
	}

	view.Sig = commitSig
	view.HtlcSigs = htlcSigs

	lc.localCommitChain.AddCommitment(view)

	return nil
}

// verifyHTLCSigs checks the remote party's second-level signatures for
// every non-dust HTLC on view's transaction, in the same HtlcIndex order
// signHTLCSigs produces them in.
func (lc *LightningChannel) verifyHTLCSigs(view *Commitment, commitPoint *btcec.PublicKey,
	htlcSigs [][]byte) error {

	keyRing := DeriveCommitmentKeys(
		commitPoint, view.IsOurs, lc.channelState.ChanType, lc.localChanCfg, lc.remoteChanCfg,
	)

	all := append(append([]PaymentDescriptor{}, view.OutgoingHTLCs...), view.IncomingHTLCs...)
	sort.Slice(all, func(i, j int) bool { return all[i].HtlcIndex < all[j].HtlcIndex })

	csvDelay := uint32(lc.remoteChanCfg.CsvDelay)
	if view.IsOurs {
		csvDelay = uint32(lc.localChanCfg.CsvDelay)
	}

	var nonDust []PaymentDescriptor
	for i := range all {
		pd := &all[i]
		if HtlcIsDust(false, view.IsOurs, view.FeePerKw,
			btcutil.Amount(pd.Amount.ToSatoshis()), view.DustLimit) {

			continue
		}
		nonDust = append(nonDust, *pd)
	}

	if len(htlcSigs) != len(nonDust) {
		return fmt.Errorf("expected %d htlc signatures, received %d",
			len(nonDust), len(htlcSigs))
	}

	for i := range nonDust {
		pd := &nonDust[i]

		script, err := input.SecondLevelHTLCScript(
			keyRing.RevocationKey, keyRing.DelayKey, csvDelay,
		)
		if err != nil {
			return err
		}
		pkScript, err := input.WitnessScriptHash(script)
		if err != nil {
			return err
		}

		outputIdx := pd.RemoteOutputIndex
		if view.IsOurs {
			outputIdx = pd.LocalOutputIndex
		}
		if outputIdx < 0 || int(outputIdx) >= len(view.Txn.TxOut) {
			return fmt.Errorf("htlc %d has no output on this commitment", pd.HtlcIndex)
		}
		htlcOut := view.Txn.TxOut[outputIdx]

		if err := verifyCommitSig(view.Txn, htlcSigs[i], keyRing.RemoteHtlcKey,
			pkScript, htlcOut); err != nil {

			return fmt.Errorf("invalid htlc signature for htlc %d: %w", pd.HtlcIndex, err)
		}
	}

	return nil
}

// generateRevocation produces the RevokeAndAck for the commitment at the
// given height: the per-commitment secret that supersedes it, plus the
// next-but-one per-commitment point.
func (lc *LightningChannel) generateRevocation(height uint64) (*lnwire.RevokeAndAck, error) {
	revocation := lc.channelState.RevocationProducer.AtHeight(height)

	nextSecret := lc.channelState.RevocationProducer.AtHeight(height + 2)
	_, nextPoint := btcec.PrivKeyFromBytes(nextSecret[:])

	return &lnwire.RevokeAndAck{
		ChanID:             lnwire.NewChanIDFromOutPoint(&lc.channelState.FundingOutpoint),
		Revocation:         revocation,
		NextPerCommitPoint: nextPoint,
	}, nil
}

// RevokeCurrentCommitment reveals the per-commitment secret for the
// commitment we're superseding, advancing our own commitment chain's tail.
func (lc *LightningChannel) RevokeCurrentCommitment() (*lnwire.RevokeAndAck, error) {
	lc.Lock()
	defer lc.Unlock()

	tail := lc.localCommitChain.Tail()

	rev, err := lc.generateRevocation(tail.Height)
	if err != nil {
		return nil, err
	}

	if lc.localCommitChain.HasUnackedCommitment() {
		lc.localCommitChain.AdvanceTail()
	}

	return rev, nil
}

// ReceiveRevocation processes the remote party's revocation, advancing our
// copy of their commitment chain's tail and retiring any HTLC that's now
// been removed on both chains.
func (lc *LightningChannel) ReceiveRevocation(rev *lnwire.RevokeAndAck) ([]*PaymentDescriptor, error) {
	lc.Lock()
	defer lc.Unlock()

	tail := lc.remoteCommitChain.Tail()

	if err := lc.channelState.RevocationStore.Insert(tail.Height, rev.Revocation); err != nil {
		return nil, fmt.Errorf("invalid revocation for height %d: %w", tail.Height, err)
	}

	// The revealed secret must reproduce the per-commitment point we were
	// previously told to expect for the commitment it's revoking. A
	// mismatch means either side has lost synchronization with the
	// other's revocation state, which the shachain insertion above can't
	// catch on its own -- it only verifies internal consistency of the
	// secret tree, not that this secret belongs to the commitment we
	// think it does.
	_, derivedPoint := btcec.PrivKeyFromBytes(rev.Revocation[:])
	if lc.channelState.RemoteCurrentRevocation != nil &&
		!derivedPoint.IsEqual(lc.channelState.RemoteCurrentRevocation) {

		return nil, &RevocationMismatchError{Height: tail.Height}
	}

	lc.logRevokedCommitment(tail)

	if lc.remoteCommitChain.HasUnackedCommitment() {
		lc.remoteCommitChain.AdvanceTail()
	}

	lc.channelState.RemoteCurrentRevocation = lc.channelState.RemoteNextRevocation
	lc.channelState.RemoteNextRevocation = rev.NextPerCommitPoint

	var retired []*PaymentDescriptor
	for e := lc.localUpdateLog.Front(); e != nil; {
		next := e.Next()
		pd := e.Value.(*PaymentDescriptor)
		if (pd.EntryType == Settle || pd.EntryType == Fail || pd.EntryType == MalformedFail) &&
			pd.LogIndex < tail.OurMessageIndex {

			lc.remoteUpdateLog.RemoveHtlc(pd.ParentIndex)
			lc.localUpdateLog.RemoveHtlc(pd.HtlcIndex)
			retired = append(retired, pd)
		}
		e = next
	}

	return retired, nil
}

// logRevokedCommitment snapshots a now-revoked remote commitment's balances
// and HTLC set into the channel's revocation log, so a breach of this exact
// commitment can be reconstructed and penalized even though the signed
// commitment transaction itself is never retained.
func (lc *LightningChannel) logRevokedCommitment(commit *Commitment) {
	if lc.channelState.RevocationLog == nil {
		lc.channelState.RevocationLog = make(map[uint64]channeldb.RevocationLogEntry)
	}

	htlcs := make([]channeldb.HTLC, 0, len(commit.IncomingHTLCs)+len(commit.OutgoingHTLCs))
	for _, pd := range commit.IncomingHTLCs {
		htlcs = append(htlcs, channeldb.HTLC{
			Incoming:      false,
			Amt:           pd.Amount,
			RHash:         pd.RHash,
			RefundTimeout: pd.Timeout,
			OutputIndex:   pd.RemoteOutputIndex,
			HtlcIndex:     pd.HtlcIndex,
			LogIndex:      pd.LogIndex,
		})
	}
	for _, pd := range commit.OutgoingHTLCs {
		htlcs = append(htlcs, channeldb.HTLC{
			Incoming:      true,
			Amt:           pd.Amount,
			RHash:         pd.RHash,
			RefundTimeout: pd.Timeout,
			OutputIndex:   pd.RemoteOutputIndex,
			HtlcIndex:     pd.HtlcIndex,
			LogIndex:      pd.LogIndex,
		})
	}

	entry := channeldb.RevocationLogEntry{
		CommitHeight: commit.Height,
		OurBalance:   commit.OurBalance,
		TheirBalance: commit.TheirBalance,
		Htlcs:        htlcs,
	}
	if commit.Txn != nil {
		entry.CommitTxHash = commit.Txn.TxHash()
	}

	lc.channelState.RevocationLog[commit.Height] = entry
}

// ---------------------------------------------------------------------
// Balance / snapshot
// ---------------------------------------------------------------------

// AvailableBalance returns the local balance still available to offer in
// new outgoing HTLCs, after accounting for the channel reserve and every
// currently pending HTLC.
func (lc *LightningChannel) AvailableBalance() lnwire.MilliSatoshi {
	lc.RLock()
	defer lc.RUnlock()

	view, err := lc.computeView(false)
	if err != nil {
		return 0
	}

	reserve := lnwire.NewMSatFromSatoshis(uint64(lc.localChanCfg.ChanReserve))
	if view.OurBalance <= reserve {
		return 0
	}

	return view.OurBalance - reserve
}

// StateSnapshot returns a read-only view of the channel's current local
// commitment.
func (lc *LightningChannel) StateSnapshot() *channeldb.ChannelSnapshot {
	lc.RLock()
	defer lc.RUnlock()

	tip := lc.localCommitChain.Tip()

	return &channeldb.ChannelSnapshot{
		ChannelPoint:  lc.channelState.FundingOutpoint,
		ChanType:      lc.channelState.ChanType,
		Capacity:      lc.channelState.Capacity,
		LocalBalance:  tip.OurBalance,
		RemoteBalance: tip.TheirBalance,
	}
}

// ---------------------------------------------------------------------
// Cooperative close
// ---------------------------------------------------------------------

// CreateCloseProposal builds our proposed closing transaction at the given
// fee, along with our signature over it.
func (lc *LightningChannel) CreateCloseProposal(proposedFee btcutil.Amount,
	localScript, remoteScript []byte) ([]byte, *wire.MsgTx, btcutil.Amount, error) {

	lc.Lock()
	defer lc.Unlock()

	tip := lc.localCommitChain.Tip()

	ourBalance := btcutil.Amount(tip.OurBalance.ToSatoshis())
	theirBalance := btcutil.Amount(tip.TheirBalance.ToSatoshis())

	if lc.channelState.IsInitiator {
		ourBalance -= proposedFee
	} else {
		theirBalance -= proposedFee
	}

	closeTx := CreateCooperativeCloseTx(
		lc.fundingTxIn, lc.localChanCfg.DustLimit, lc.remoteChanCfg.DustLimit,
		ourBalance, theirBalance, localScript, remoteScript,
	)

	fundingScript, fundingOutput, err := input.FundingOutput(
		lc.localChanCfg.MultiSigKey.PubKey, lc.remoteChanCfg.MultiSigKey.PubKey,
		int64(lc.channelState.Capacity),
	)
	if err != nil {
		return nil, nil, 0, err
	}

	sig, err := lc.Signer.SignOutputRaw(closeTx, &input.SignDescriptor{
		KeyDesc:       lc.localChanCfg.MultiSigKey,
		WitnessScript: fundingScript,
		Output:        fundingOutput,
		HashType:      txscript.SigHashAll,
		SigHashes:     txscript.NewTxSigHashes(closeTx),
		InputIndex:    0,
	})
	if err != nil {
		return nil, nil, 0, err
	}

	return sig, closeTx, proposedFee, nil
}

// CompleteCooperativeClose finalizes a mutual close once both signatures
// agree on the same fee.
func (lc *LightningChannel) CompleteCooperativeClose(localSig, remoteSig []byte,
	localScript, remoteScript []byte, fee btcutil.Amount) (*wire.MsgTx, error) {

	lc.Lock()
	defer lc.Unlock()

	tip := lc.localCommitChain.Tip()
	ourBalance := btcutil.Amount(tip.OurBalance.ToSatoshis())
	theirBalance := btcutil.Amount(tip.TheirBalance.ToSatoshis())
	if lc.channelState.IsInitiator {
		ourBalance -= fee
	} else {
		theirBalance -= fee
	}

	closeTx := CreateCooperativeCloseTx(
		lc.fundingTxIn, lc.localChanCfg.DustLimit, lc.remoteChanCfg.DustLimit,
		ourBalance, theirBalance, localScript, remoteScript,
	)

	fundingScript, err := input.GenFundingScript(
		lc.localChanCfg.MultiSigKey.PubKey, lc.remoteChanCfg.MultiSigKey.PubKey,
	)
	if err != nil {
		return nil, err
	}

	closeTx.TxIn[0].Witness = input.SpendMultiSig(
		fundingScript,
		lc.localChanCfg.MultiSigKey.PubKey, localSig,
		lc.remoteChanCfg.MultiSigKey.PubKey, remoteSig,
	)

	return closeTx, nil
}

// ---------------------------------------------------------------------
// Force close
// ---------------------------------------------------------------------

// ForceCloseSummary bundles the signed commitment transaction a
// unilateral close broadcasts and the CSV delay of its to_local output.
// ForceClose leaves ToLocalOutput, ToLocalSignDesc and HtlcResolutions
// unset.
type ForceCloseSummary struct {
	CloseTx *wire.MsgTx

	ToLocalOutput   *wire.TxOut
	ToLocalSignDesc *input.SignDescriptor
	ToLocalCsvDelay uint32

	HtlcResolutions []HtlcResolution
}

// HtlcResolution carries what's needed to claim or time out a single HTLC
// output on a force-closed commitment transaction.
type HtlcResolution struct {
	PaymentHash PaymentHash
	Incoming    bool
	SignedTx    *wire.MsgTx
	SignDesc    *input.SignDescriptor
	CsvDelay    uint32
	Expiry      uint32
}

// ForceClose signs our latest commitment transaction for unilateral
// broadcast. It does not compute claim paths for the HTLCs the commitment
// carries, nor a sign descriptor for its to_local output.
func (lc *LightningChannel) ForceClose() (*ForceCloseSummary, error) {
	lc.Lock()
	defer lc.Unlock()

	tip := lc.localCommitChain.Tip()
	if tip.Txn == nil {
		return nil, fmt.Errorf("no broadcastable commitment transaction available")
	}

	commitTx := tip.Txn.Copy()

	fundingScript, fundingOutput, err := input.FundingOutput(
		lc.localChanCfg.MultiSigKey.PubKey, lc.remoteChanCfg.MultiSigKey.PubKey,
		int64(lc.channelState.Capacity),
	)
	if err != nil {
		return nil, err
	}

	ourSig, err := lc.Signer.SignOutputRaw(commitTx, &input.SignDescriptor{
		KeyDesc:       lc.localChanCfg.MultiSigKey,
		WitnessScript: fundingScript,
		Output:        fundingOutput,
		HashType:      txscript.SigHashAll,
		SigHashes:     txscript.NewTxSigHashes(commitTx),
		InputIndex:    0,
	})
	if err != nil {
		return nil, err
	}

	commitTx.TxIn[0].Witness = input.SpendMultiSig(
		fundingScript,
		lc.localChanCfg.MultiSigKey.PubKey, ourSig,
		lc.remoteChanCfg.MultiSigKey.PubKey, tip.Sig,
	)

	lc.channelState.ApplyChanStatus(channeldb.StatusCommitmentBroadcast)

	return &ForceCloseSummary{
		CloseTx:         commitTx,
		ToLocalCsvDelay: uint32(lc.localChanCfg.CsvDelay),
	}, nil
}

// ---------------------------------------------------------------------
// Reestablishment
// ---------------------------------------------------------------------

// ChanSyncMsg builds the ChannelReestablish we send upon reconnecting to
// the remote party.
func (lc *LightningChannel) ChanSyncMsg() (*lnwire.ChannelReestablish, error) {
	lc.RLock()
	defer lc.RUnlock()

	tail := lc.remoteCommitChain.Tail()

	var lastSecret [32]byte
	if tail.Height > 0 {
		if secret, ok := lc.channelState.RevocationStore.LookupSecret(tail.Height - 1); ok {
			lastSecret = secret
		}
	}

	localTip := lc.localCommitChain.Tip()
	commitSecret := lc.channelState.RevocationProducer.AtHeight(localTip.Height)
	_, commitPoint := btcec.PrivKeyFromBytes(commitSecret[:])

	return &lnwire.ChannelReestablish{
		ChanID:                    lnwire.NewChanIDFromOutPoint(&lc.channelState.FundingOutpoint),
		NextLocalCommitHeight:     localTip.Height + 1,
		RemoteCommitTailHeight:    tail.Height,
		LastRemoteCommitSecret:    lastSecret,
		LocalUnrevokedCommitPoint: commitPoint,
	}, nil
}

// ProcessChanSyncMsg reconciles a ChannelReestablish from the remote party
// against our own state, detecting either side having fallen behind. It
// returns the messages (if any) we must retransmit to resynchronize.
func (lc *LightningChannel) ProcessChanSyncMsg(msg *lnwire.ChannelReestablish) ([]lnwire.Message, error) {
	lc.Lock()
	defer lc.Unlock()

	var updates []lnwire.Message

	localTail := lc.localCommitChain.Tail()

	switch {
	case msg.RemoteCommitTailHeight > localTail.Height+1:
		// The remote party claims to have revoked a commitment height
		// ahead of what we believe is our current state -- we've lost
		// data and must not broadcast anything further.
		lc.channelState.ApplyChanStatus(channeldb.StatusLocalDataLoss)
		return nil, fmt.Errorf("remote claims commit height %d, we have %d: "+
			"local data loss suspected", msg.RemoteCommitTailHeight, localTail.Height)

	case msg.RemoteCommitTailHeight == localTail.Height+1:
		// The remote is just ahead by the in-flight revocation; nothing
		// to retransmit.

	case msg.RemoteCommitTailHeight < localTail.Height:
		// The remote appears to have lost state relative to what we've
		// already revoked past; they'll need our retransmitted
		// commitment_signed/revoke_and_ack to catch up, nothing further
		// for us to do here beyond flagging it upstream.
	}

	if msg.NextLocalCommitHeight == lc.remoteCommitChain.Tail().Height {
		// The remote never received our last revocation.
		rev, err := lc.generateRevocation(lc.remoteCommitChain.Tail().Height - 1)
		if err == nil {
			updates = append(updates, rev)
		}
	}

	return updates, nil
}

// ---------------------------------------------------------------------
// Validation helpers
// ---------------------------------------------------------------------

// InvalidCommitSigError indicates a commitment signature failed to verify
// against the transaction it was supposed to cover.
type InvalidCommitSigError struct {
	CommitHeight uint64
}

func (i *InvalidCommitSigError) Error() string {
	return fmt.Sprintf("rejected commitment signature for height %d: invalid signature",
		i.CommitHeight)
}

// RevocationMismatchError indicates a revealed per-commitment secret didn't
// reproduce the per-commitment point previously advertised for the
// commitment it claims to revoke. This is fatal: it means either side has
// lost synchronization with the other's revocation state, and continuing
// to extend the channel risks signing over funds that can no longer be
// proven revoked.
type RevocationMismatchError struct {
	Height uint64
}

func (r *RevocationMismatchError) Error() string {
	return fmt.Sprintf("revocation for height %d does not match the previously "+
		"advertised per-commitment point", r.Height)
}

// FeeInsufficientError indicates the channel funder's balance can't cover
// the fee a proposed commitment transaction requires at its current weight
// and feerate.
type FeeInsufficientError struct {
	Height    uint64
	Fee       btcutil.Amount
	Available lnwire.MilliSatoshi
}

func (f *FeeInsufficientError) Error() string {
	return fmt.Sprintf("funder cannot cover fee %v for commitment height %d: "+
		"only %v available", f.Fee, f.Height, f.Available)
}

// ProtocolViolationError indicates the local party attempted an action the
// BOLT-2 turn-based update protocol forbids in the channel's current state,
// such as proposing a new commitment while still owed a revoke_and_ack for
// the last one.
type ProtocolViolationError struct {
	Msg string
}

func (p *ProtocolViolationError) Error() string {
	return p.Msg
}

// verifyCommitSig checks a DER signature plus sighash byte against the
// funding output, for a commitment transaction signed by the counterparty.
func verifyCommitSig(tx *wire.MsgTx, sigWithHashType []byte, pubKey *btcec.PublicKey,
	fundingScript []byte, fundingOutput *wire.TxOut) error {

	if len(sigWithHashType) == 0 {
		return fmt.Errorf("empty signature")
	}

	sig, err := ecdsa.ParseDERSignature(sigWithHashType[:len(sigWithHashType)-1])
	if err != nil {
		return err
	}

	sigHashes := txscript.NewTxSigHashes(tx)
	hash, err := txscript.CalcWitnessSigHash(
		fundingScript, sigHashes, txscript.SigHashAll, tx, 0, fundingOutput.Value,
	)
	if err != nil {
		return err
	}

	if !sig.Verify(hash, pubKey) {
		return fmt.Errorf("signature does not verify")
	}

	return nil
}
