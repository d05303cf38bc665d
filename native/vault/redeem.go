package vault

import (
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
)

// Redeem burns owner's shares of the (termID, curveID) vault and pays the
// resulting assets to receiver. minAssets is the caller's slippage bound.
// Redemption is deliberately never pause-guarded: pausing suppresses fee
// extraction but must leave the exit open.
func (e *Engine) Redeem(caller, owner, receiver types.Address, termID types.TermID, curveID uint64, shares, minAssets *big.Int) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot := e.state.Snapshot()
	assets, err := e.redeem(caller, owner, receiver, termID, curveID, shares, minAssets)
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return nil, err
	}
	return assets, nil
}

// RedeemBatch applies several redemptions as a unit: all succeed or none do.
func (e *Engine) RedeemBatch(caller, owner, receiver types.Address, termIDs []types.TermID, curveIDs []uint64, shares, minAssets []*big.Int) ([]*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if len(termIDs) == 0 {
		return nil, errEmptyBatch
	}
	if len(termIDs) != len(curveIDs) || len(termIDs) != len(shares) || len(termIDs) != len(minAssets) {
		return nil, errBatchLengthMismatch
	}
	snapshot := e.state.Snapshot()
	out := make([]*big.Int, 0, len(termIDs))
	for i := range termIDs {
		assets, err := e.redeem(caller, owner, receiver, termIDs[i], curveIDs[i], shares[i], minAssets[i])
		if err != nil {
			e.state.RevertToSnapshot(snapshot)
			return nil, err
		}
		out = append(out, assets)
	}
	return out, nil
}

func (e *Engine) redeem(caller, owner, receiver types.Address, termID types.TermID, curveID uint64, shares, minAssets *big.Int) (*big.Int, error) {
	if owner != caller && !e.state.Approval(owner, caller).Allows(ApprovalRedemption) {
		return nil, errNotApproved
	}
	if !e.termExists(termID) {
		return nil, errTermNotFound
	}
	provider, err := e.curve(curveID)
	if err != nil {
		return nil, err
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	balance := e.state.Shares(owner, termID, curveID)
	if balance.Cmp(shares) < 0 {
		return nil, errInsufficientBalance
	}
	totalsBefore := e.loadVault(termID, curveID)
	remaining := new(big.Int).Sub(totalsBefore.TotalShares, shares)
	if remaining.Cmp(e.params.MinShare) < 0 {
		return nil, errRemainingSharesFloor
	}
	raw := provider.PreviewRedeem(shares, totalsBefore.TotalShares, totalsBefore.TotalAssets)
	if raw.Sign() == 0 {
		return nil, errZeroAssets
	}
	breakdown, err := e.computeFeesAndShares(raw, termID, curveID, false, false, shares)
	if err != nil {
		return nil, err
	}
	if minAssets != nil && breakdown.Assets.Cmp(minAssets) < 0 {
		return nil, errSlippageExceeded
	}

	if err := e.burn(owner, termID, curveID, shares); err != nil {
		return nil, err
	}
	assetsAfter := new(big.Int).Add(totalsBefore.TotalAssets, breakdown.TotalAssetsDelta)
	if err := e.setTotals(termID, curveID, assetsAfter, remaining); err != nil {
		return nil, err
	}

	epoch, err := e.applyUtilization(owner, new(big.Int).Neg(raw))
	if err != nil {
		return nil, err
	}
	if err := e.accrueProtocolFee(epoch, breakdown.ProtocolFee); err != nil {
		return nil, err
	}

	e.emit(events.Redeemed{VaultFlow: events.VaultFlow{
		Caller:            caller,
		Receiver:          receiver,
		TermID:            termID,
		CurveID:           curveID,
		Epoch:             epoch,
		Assets:            copyBigInt(breakdown.Assets),
		Shares:            copyBigInt(shares),
		ExitFee:           breakdown.ExitFee,
		ProtocolFee:       breakdown.ProtocolFee,
		TotalAssetsBefore: totalsBefore.TotalAssets,
		TotalAssetsAfter:  assetsAfter,
		TotalSharesBefore: totalsBefore.TotalShares,
		TotalSharesAfter:  remaining,
	}})
	if e.metrics != nil {
		e.metrics.ObserveRedeem(curveID, breakdown.Assets)
		e.metrics.ObserveFee("exit", breakdown.ExitFee)
		e.metrics.ObserveFee("protocol", breakdown.ProtocolFee)
	}
	return copyBigInt(breakdown.Assets), nil
}
