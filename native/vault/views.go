package vault

import (
	"math/big"

	"multivault/core/types"
)

// PreviewDeposit quotes the shares a deposit would mint and the assets left
// after fees, without mutating state.
func (e *Engine) PreviewDeposit(termID types.TermID, curveID uint64, assets *big.Int) (shares, assetsAfterFees *big.Int, err error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if !e.termExists(termID) {
		return nil, nil, errTermNotFound
	}
	breakdown, err := e.computeFeesAndShares(assets, termID, curveID, true, false, nil)
	if err != nil {
		return nil, nil, err
	}
	return copyBigInt(breakdown.Shares), copyBigInt(breakdown.NetAssets), nil
}

// PreviewRedeem quotes the assets a redemption would pay out after fees,
// without mutating state.
func (e *Engine) PreviewRedeem(termID types.TermID, curveID uint64, shares *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !e.termExists(termID) {
		return nil, errTermNotFound
	}
	provider, err := e.curve(curveID)
	if err != nil {
		return nil, err
	}
	totals := e.loadVault(termID, curveID)
	raw := provider.PreviewRedeem(shares, totals.TotalShares, totals.TotalAssets)
	if raw.Sign() == 0 {
		return nil, errZeroAssets
	}
	breakdown, err := e.computeFeesAndShares(raw, termID, curveID, false, false, shares)
	if err != nil {
		return nil, err
	}
	return copyBigInt(breakdown.Assets), nil
}

// GetShares returns the account's share balance in the (termID, curveID)
// vault.
func (e *Engine) GetShares(account types.Address, termID types.TermID, curveID uint64) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	return copyBigInt(e.state.Shares(account, termID, curveID))
}

// VaultTotals returns the vault's total assets and total shares.
func (e *Engine) VaultTotals(termID types.TermID, curveID uint64) (assets, shares *big.Int) {
	if e == nil || e.state == nil {
		return big.NewInt(0), big.NewInt(0)
	}
	totals := e.loadVault(termID, curveID)
	return totals.TotalAssets, totals.TotalShares
}

// CurrentSharePrice returns the derived per-share price of the vault.
func (e *Engine) CurrentSharePrice(termID types.TermID, curveID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.sharePrice(curveID, e.loadVault(termID, curveID))
}

// MaxRedeem returns the largest share amount the owner can redeem without
// breaching the min-share floor.
func (e *Engine) MaxRedeem(owner types.Address, termID types.TermID, curveID uint64) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	balance := copyBigInt(e.state.Shares(owner, termID, curveID))
	totals := e.loadVault(termID, curveID)
	headroom := new(big.Int).Sub(totals.TotalShares, e.params.MinShare)
	if headroom.Sign() < 0 {
		return big.NewInt(0)
	}
	if balance.Cmp(headroom) > 0 {
		return headroom
	}
	return balance
}

// IsTermCreated reports whether the id names a created atom, triple, or the
// counter of a created triple.
func (e *Engine) IsTermCreated(id types.TermID) bool {
	if e == nil || e.state == nil {
		return false
	}
	return e.termExists(id)
}

// IsAtom reports whether the id names a created atom.
func (e *Engine) IsAtom(id types.TermID) bool {
	if e == nil || e.state == nil {
		return false
	}
	return e.termIsAtom(id)
}

// IsTriple reports whether the id names a created triple or the counter of
// one. Counters answer true because they share the triple's underlying atoms.
func (e *Engine) IsTriple(id types.TermID) bool {
	if e == nil || e.state == nil {
		return false
	}
	_, ok := e.termIsTripleLike(id)
	return ok
}

// IsCounterTriple reports whether the id is the counter of a created triple,
// resolved purely through the reverse map.
func (e *Engine) IsCounterTriple(id types.TermID) bool {
	if e == nil || e.state == nil {
		return false
	}
	_, ok := e.state.TripleForCounter(id)
	return ok
}

// Triple returns the positive triple id and its three atom ids for a triple
// or counter id.
func (e *Engine) Triple(id types.TermID) (tripleID types.TermID, subject, predicate, object types.TermID, err error) {
	if e == nil || e.state == nil {
		err = errNilState
		return
	}
	term, ok := e.termIsTripleLike(id)
	if !ok {
		err = errNotTriple
		return
	}
	return term.ID, term.Subject, term.Predicate, term.Object, nil
}

// AtomData returns the stored payload of an atom.
func (e *Engine) AtomData(id types.TermID) ([]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	term, ok := e.state.Term(id)
	if !ok || term.Kind != TermKindAtom {
		return nil, errAtomNotFound
	}
	return append([]byte(nil), term.AtomData...), nil
}

// TermCount returns the number of created terms. Counter ids are not terms
// and do not count.
func (e *Engine) TermCount() uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return e.state.TermCount()
}

// AtomCost returns the static cost of creating an atom.
func (e *Engine) AtomCost() *big.Int { return e.params.AtomCost() }

// TripleCost returns the static cost of creating a triple.
func (e *Engine) TripleCost() *big.Int { return e.params.TripleCost() }

// GlobalUtilization returns the net signed flow recorded for the epoch.
func (e *Engine) GlobalUtilization(epoch uint64) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	value, _ := e.state.GlobalUtilization(epoch)
	return copyBigInt(value)
}

// PersonalUtilization returns the account's net signed flow for the epoch.
func (e *Engine) PersonalUtilization(account types.Address, epoch uint64) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	value, _ := e.state.PersonalUtilization(account, epoch)
	return copyBigInt(value)
}

// LastActiveEpoch returns the account's epoch pointer.
func (e *Engine) LastActiveEpoch(account types.Address) uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return e.state.LastActiveEpoch(account)
}

// AccumulatedProtocolFees returns the unclaimed protocol fees for the epoch.
func (e *Engine) AccumulatedProtocolFees(epoch uint64) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	return copyBigInt(e.state.AccumulatedProtocolFees(epoch))
}

// AtomWalletFees returns the unclaimed deposit fees accumulated for an atom
// wallet.
func (e *Engine) AtomWalletFees(wallet types.Address) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	return copyBigInt(e.state.AtomWalletFees(wallet))
}
