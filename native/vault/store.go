package vault

import (
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
)

// The three primitives below are the only writers of vault totals and share
// balances. Every entry point reaches them through the validated flow; no
// other path mutates the ledger.

// mint credits shares to an account unconditionally. Callers pair it with a
// prior setTotals so backing assets always land before the shares do.
func (e *Engine) mint(account types.Address, id types.TermID, curveID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance := e.state.Shares(account, id, curveID)
	next := new(big.Int).Add(copyBigInt(balance), amount)
	return e.state.SetShares(account, id, curveID, next)
}

// burn debits shares from an account, guarding the subtraction against
// underflow before attempting it.
func (e *Engine) burn(account types.Address, id types.TermID, curveID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance := copyBigInt(e.state.Shares(account, id, curveID))
	if balance.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	return e.state.SetShares(account, id, curveID, balance.Sub(balance, amount))
}

// setTotals stores the vault totals and surfaces the derived per-share price
// as an observability signal. The price is recomputed from the curve on every
// totals change and never persisted as ground truth.
func (e *Engine) setTotals(id types.TermID, curveID uint64, assets, shares *big.Int) error {
	state := &VaultState{TotalAssets: copyBigInt(assets), TotalShares: copyBigInt(shares)}
	if err := e.state.PutVault(id, curveID, state); err != nil {
		return err
	}
	price, err := e.sharePrice(curveID, state)
	if err != nil {
		return err
	}
	e.emit(events.SharePriceChanged{
		TermID:      id,
		CurveID:     curveID,
		Price:       price,
		TotalAssets: copyBigInt(state.TotalAssets),
		TotalShares: copyBigInt(state.TotalShares),
	})
	return nil
}

// sharePrice derives the quoted per-share price for a vault: zero before the
// first deposit, the one-share conversion once the supply covers a whole
// normalized share, and the raw marginal price for sub-unit supplies where
// the one-share conversion would be unstable.
func (e *Engine) sharePrice(curveID uint64, state *VaultState) (*big.Int, error) {
	provider, err := e.curve(curveID)
	if err != nil {
		return nil, err
	}
	state = state.normalize()
	if state.TotalShares.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if state.TotalShares.Cmp(oneShare) >= 0 {
		return provider.ConvertToAssets(OneShare(), state.TotalShares, state.TotalAssets), nil
	}
	return provider.CurrentPrice(state.TotalShares, state.TotalAssets), nil
}

// loadVault returns a normalized copy of the (term, curve) totals, zeroed
// when the vault has never been touched.
func (e *Engine) loadVault(id types.TermID, curveID uint64) *VaultState {
	state, ok := e.state.Vault(id, curveID)
	if !ok {
		return (&VaultState{}).normalize()
	}
	return state.Clone().normalize()
}
