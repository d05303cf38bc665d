package vault

import (
	"fmt"
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
)

// applyUtilization performs the lazy epoch rollover and then applies the
// signed delta (positive for deposits, negative for redemptions) to both the
// global and personal current-epoch buckets.
//
// The global carry-forward runs on the first utilization-affecting action by
// anyone in a new epoch, exactly once, regardless of which account acts; the
// personal carry runs on each account's own first action in the epoch.
// Correctness never depends on any particular account acting in any
// particular epoch.
func (e *Engine) applyUtilization(account types.Address, delta *big.Int) (uint64, error) {
	current, err := e.currentEpoch()
	if err != nil {
		return 0, err
	}
	if err := e.rollGlobalEpoch(current); err != nil {
		return 0, err
	}
	if err := e.rollPersonalEpoch(account, current); err != nil {
		return 0, err
	}

	global, _ := e.state.GlobalUtilization(current)
	global = new(big.Int).Add(copyBigInt(global), delta)
	if err := e.state.SetGlobalUtilization(current, global); err != nil {
		return 0, err
	}
	personal, _ := e.state.PersonalUtilization(account, current)
	personal = new(big.Int).Add(copyBigInt(personal), delta)
	if err := e.state.SetPersonalUtilization(account, current, personal); err != nil {
		return 0, err
	}
	return current, nil
}

// rollGlobalEpoch seeds the global bucket for current from the previous
// observed epoch, snapshots the distribution flag, and settles the previous
// epoch's protocol fees. All of it happens at most once per epoch: once the
// bucket exists, later actions in the same epoch skip the whole transition.
func (e *Engine) rollGlobalEpoch(current uint64) error {
	if _, ok := e.state.GlobalUtilization(current); ok {
		return nil
	}
	previous := e.state.LastGlobalEpoch()
	carried := big.NewInt(0)
	if previous != 0 && previous < current {
		if value, ok := e.state.GlobalUtilization(previous); ok {
			carried = copyBigInt(value)
		}
	}
	if err := e.state.SetGlobalUtilization(current, carried); err != nil {
		return err
	}
	// Snapshot the flag now so later configuration flips never retroactively
	// change how this epoch settles.
	if err := e.state.SetDistributionSnapshot(current, e.params.FeesDistributionEnabled); err != nil {
		return err
	}
	if previous != 0 && previous < current {
		if err := e.settleEpoch(previous); err != nil {
			return err
		}
	}
	return e.state.SetLastGlobalEpoch(current)
}

func (e *Engine) rollPersonalEpoch(account types.Address, current uint64) error {
	last := e.state.LastActiveEpoch(account)
	switch {
	case last == 0:
		// First action ever: nothing to carry.
		return e.state.SetLastActiveEpoch(account, current)
	case last == current:
		return nil
	case last > current:
		return fmt.Errorf("vault engine: epoch clock moved backwards (%d -> %d)", last, current)
	}
	if _, ok := e.state.PersonalUtilization(account, current); !ok {
		carried := big.NewInt(0)
		if value, ok := e.state.PersonalUtilization(account, last); ok {
			carried = copyBigInt(value)
		}
		if err := e.state.SetPersonalUtilization(account, current, carried); err != nil {
			return err
		}
	}
	return e.state.SetLastActiveEpoch(account, current)
}

// settleEpoch routes the previous epoch's accumulated protocol fees exactly
// once: to the bonding sink when that epoch's snapshot enabled distribution,
// to the protocol treasury otherwise. The accumulator is zeroed either way.
func (e *Engine) settleEpoch(epoch uint64) error {
	amount := copyBigInt(e.state.AccumulatedProtocolFees(epoch))
	if amount.Sign() == 0 {
		return nil
	}
	enabled, _ := e.state.DistributionSnapshot(epoch)
	distributed := enabled && e.sink != nil
	if distributed {
		if err := e.sink.RegisterClaimableForEpoch(epoch, amount); err != nil {
			return fmt.Errorf("vault engine: register claimable for epoch %d: %w", epoch, err)
		}
		if err := e.sink.ReceiveProtocolFees(epoch, amount); err != nil {
			return fmt.Errorf("vault engine: settle epoch %d: %w", epoch, err)
		}
	}
	if err := e.state.SetAccumulatedProtocolFees(epoch, big.NewInt(0)); err != nil {
		return err
	}
	e.emit(events.EpochSettled{Epoch: epoch, Amount: amount, Distributed: distributed})
	if e.metrics != nil {
		e.metrics.ObserveEpochSettled(amount, distributed)
	}
	return nil
}

// accrueProtocolFee adds the fee extracted by the current call to the
// epoch's claimable accumulator.
func (e *Engine) accrueProtocolFee(epoch uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	accrued := copyBigInt(e.state.AccumulatedProtocolFees(epoch))
	return e.state.SetAccumulatedProtocolFees(epoch, accrued.Add(accrued, amount))
}

// accrueAtomWalletFee credits the atom's receiving wallet accumulator.
func (e *Engine) accrueAtomWalletFee(atomID types.TermID, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if e.wallets == nil {
		return errNilWalletFactory
	}
	wallet := e.wallets.ComputeAtomWalletAddress(atomID)
	accrued := copyBigInt(e.state.AtomWalletFees(wallet))
	return e.state.SetAtomWalletFees(wallet, accrued.Add(accrued, amount))
}
