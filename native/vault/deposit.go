package vault

import (
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
)

// Deposit converts assets into shares of the (termID, curveID) vault for
// receiver, settling every fee component through the fee engine. minShares is
// the caller's slippage bound on the minted shares.
func (e *Engine) Deposit(caller, receiver types.Address, termID types.TermID, curveID uint64, assets, minShares *big.Int) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot := e.state.Snapshot()
	shares, err := e.deposit(caller, receiver, termID, curveID, assets, minShares)
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return nil, err
	}
	return shares, nil
}

// DepositBatch applies several deposits as a unit: all succeed or none do.
func (e *Engine) DepositBatch(caller, receiver types.Address, termIDs []types.TermID, curveIDs []uint64, assets, minShares []*big.Int) ([]*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if len(termIDs) == 0 {
		return nil, errEmptyBatch
	}
	if len(termIDs) != len(curveIDs) || len(termIDs) != len(assets) || len(termIDs) != len(minShares) {
		return nil, errBatchLengthMismatch
	}
	snapshot := e.state.Snapshot()
	out := make([]*big.Int, 0, len(termIDs))
	for i := range termIDs {
		shares, err := e.deposit(caller, receiver, termIDs[i], curveIDs[i], assets[i], minShares[i])
		if err != nil {
			e.state.RevertToSnapshot(snapshot)
			return nil, err
		}
		out = append(out, shares)
	}
	return out, nil
}

func (e *Engine) deposit(caller, receiver types.Address, termID types.TermID, curveID uint64, assets, minShares *big.Int) (*big.Int, error) {
	if err := e.guardPause(); err != nil {
		return nil, err
	}
	if receiver != caller && !e.state.Approval(receiver, caller).Allows(ApprovalDeposit) {
		return nil, errNotApproved
	}
	if !e.termExists(termID) {
		return nil, errTermNotFound
	}
	provider, err := e.curve(curveID)
	if err != nil {
		return nil, err
	}
	if assets == nil || assets.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if assets.Cmp(e.params.MinDeposit) < 0 {
		return nil, errMinimumDeposit
	}
	if err := e.guardCounterStake(receiver, termID, curveID); err != nil {
		return nil, err
	}

	totalsBefore := e.loadVault(termID, curveID)
	breakdown, err := e.computeFeesAndShares(assets, termID, curveID, true, false, nil)
	if err != nil {
		return nil, err
	}
	if minShares != nil && breakdown.Shares.Cmp(minShares) < 0 {
		return nil, errSlippageExceeded
	}
	assetsAfter := new(big.Int).Add(totalsBefore.TotalAssets, breakdown.TotalAssetsDelta)
	if assetsAfter.Cmp(provider.MaxAssets()) > 0 {
		return nil, errMaxAssetsExceeded
	}
	sharesAfter := new(big.Int).Add(totalsBefore.TotalShares, breakdown.Shares)
	if err := e.setTotals(termID, curveID, assetsAfter, sharesAfter); err != nil {
		return nil, err
	}
	if err := e.mint(receiver, termID, curveID, breakdown.Shares); err != nil {
		return nil, err
	}

	epoch, err := e.applyUtilization(receiver, copyBigInt(assets))
	if err != nil {
		return nil, err
	}
	if err := e.accrueProtocolFee(epoch, breakdown.ProtocolFee); err != nil {
		return nil, err
	}
	if breakdown.AtomWalletFee.Sign() > 0 {
		if err := e.accrueAtomWalletFee(termID, breakdown.AtomWalletFee); err != nil {
			return nil, err
		}
	}
	if breakdown.AtomDepositFraction.Sign() > 0 {
		if err := e.fanOutAtomDepositFraction(caller, receiver, termID, breakdown.AtomDepositFraction, epoch); err != nil {
			return nil, err
		}
	}

	e.emit(events.Deposited{VaultFlow: events.VaultFlow{
		Caller:              caller,
		Receiver:            receiver,
		TermID:              termID,
		CurveID:             curveID,
		Epoch:               epoch,
		Assets:              copyBigInt(assets),
		Shares:              copyBigInt(breakdown.Shares),
		EntryFee:            breakdown.EntryFee,
		ProtocolFee:         breakdown.ProtocolFee,
		AtomWalletFee:       breakdown.AtomWalletFee,
		AtomDepositFraction: breakdown.AtomDepositFraction,
		TotalAssetsBefore:   totalsBefore.TotalAssets,
		TotalAssetsAfter:    assetsAfter,
		TotalSharesBefore:   totalsBefore.TotalShares,
		TotalSharesAfter:    sharesAfter,
	}})
	e.observeDeposit(curveID, assets, breakdown)
	return copyBigInt(breakdown.Shares), nil
}

// guardCounterStake rejects a steady-state deposit when the receiver already
// backs the opposite stance of the same claim on the signal-carrying curve.
// Alternate curves exist for economic games and are exempt.
func (e *Engine) guardCounterStake(receiver types.Address, termID types.TermID, curveID uint64) error {
	if curveID != DefaultCurveID {
		return nil
	}
	var opposite types.TermID
	if tripleID, ok := e.state.TripleForCounter(termID); ok {
		opposite = tripleID
	} else if term, ok := e.state.Term(termID); ok && term.Kind == TermKindTriple {
		opposite = CounterID(termID)
	} else {
		return nil
	}
	if e.state.Shares(receiver, opposite, curveID).Sign() > 0 {
		return errHasCounterStake
	}
	return nil
}

// fanOutAtomDepositFraction pushes a triple deposit's fraction one layer down
// into the three underlying atom vaults, minting the resulting shares to the
// original depositor. The fan-out is structurally one hop: each leg runs with
// the atom-leg fee rule and no leg ever fans out again. The 1-2 unit
// integer-division remainder stays uncredited.
func (e *Engine) fanOutAtomDepositFraction(caller, receiver types.Address, termID types.TermID, fraction *big.Int, epoch uint64) error {
	term, ok := e.termIsTripleLike(termID)
	if !ok {
		return errNotTriple
	}
	third := new(big.Int).Quo(fraction, big.NewInt(3))
	if third.Sign() == 0 {
		return nil
	}
	for _, atomID := range []types.TermID{term.Subject, term.Predicate, term.Object} {
		if _, err := e.depositLeg(caller, receiver, atomID, DefaultCurveID, third, epoch, true); err != nil {
			return err
		}
	}
	return nil
}

// depositLeg is the entry-fee-only deposit used by creation deposits and the
// atom deposit-fraction fan-out. It bypasses the minimum-deposit floor and
// the counter-stake guard, both of which apply to steady-state deposits only.
func (e *Engine) depositLeg(caller, receiver types.Address, termID types.TermID, curveID uint64, amount *big.Int, epoch uint64, isAtomLeg bool) (*big.Int, error) {
	totalsBefore := e.loadVault(termID, curveID)
	breakdown, err := e.computeFeesAndShares(amount, termID, curveID, true, true, nil)
	if err != nil {
		return nil, err
	}
	assetsAfter := new(big.Int).Add(totalsBefore.TotalAssets, breakdown.TotalAssetsDelta)
	sharesAfter := new(big.Int).Add(totalsBefore.TotalShares, breakdown.Shares)
	if err := e.setTotals(termID, curveID, assetsAfter, sharesAfter); err != nil {
		return nil, err
	}
	if err := e.mint(receiver, termID, curveID, breakdown.Shares); err != nil {
		return nil, err
	}
	e.emit(events.Deposited{VaultFlow: events.VaultFlow{
		Caller:            caller,
		Receiver:          receiver,
		TermID:            termID,
		CurveID:           curveID,
		Epoch:             epoch,
		Assets:            copyBigInt(amount),
		Shares:            copyBigInt(breakdown.Shares),
		EntryFee:          breakdown.EntryFee,
		TotalAssetsBefore: totalsBefore.TotalAssets,
		TotalAssetsAfter:  assetsAfter,
		TotalSharesBefore: totalsBefore.TotalShares,
		TotalSharesAfter:  sharesAfter,
		IsAtomLeg:         isAtomLeg,
	}})
	e.observeDeposit(curveID, amount, breakdown)
	return copyBigInt(breakdown.Shares), nil
}

func (e *Engine) observeDeposit(curveID uint64, assets *big.Int, breakdown *FeesBreakdown) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveDeposit(curveID, assets)
	e.metrics.ObserveFee("entry", breakdown.EntryFee)
	e.metrics.ObserveFee("protocol", breakdown.ProtocolFee)
	e.metrics.ObserveFee("atom_wallet", breakdown.AtomWalletFee)
	e.metrics.ObserveFee("atom_deposit_fraction", breakdown.AtomDepositFraction)
}
