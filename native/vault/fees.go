package vault

import (
	"math/big"

	"multivault/core/types"
)

// FeesBreakdown is the ephemeral result of a single fee computation. Exactly
// one of EntryFee/ExitFee is nonzero per call, and AtomWalletFee and
// AtomDepositFraction are mutually exclusive by term kind.
type FeesBreakdown struct {
	// Shares is what the receiver is minted on a deposit.
	Shares *big.Int
	// Assets is what the receiver is paid on a redemption.
	Assets *big.Int
	// NetAssets is the deposit amount left after fees, i.e. what the curve
	// converted into shares.
	NetAssets *big.Int
	// TotalAssetsDelta is the signed change applied to the vault's total
	// assets: positive for deposits (net plus the retained entry fee),
	// negative for redemptions (payout plus the extracted protocol fee; the
	// exit fee stays in the vault).
	TotalAssetsDelta *big.Int

	EntryFee            *big.Int
	ExitFee             *big.Int
	ProtocolFee         *big.Int
	AtomWalletFee       *big.Int
	AtomDepositFraction *big.Int
}

func newFeesBreakdown() *FeesBreakdown {
	return &FeesBreakdown{
		Shares:              big.NewInt(0),
		Assets:              big.NewInt(0),
		NetAssets:           big.NewInt(0),
		TotalAssetsDelta:    big.NewInt(0),
		EntryFee:            big.NewInt(0),
		ExitFee:             big.NewInt(0),
		ProtocolFee:         big.NewInt(0),
		AtomWalletFee:       big.NewInt(0),
		AtomDepositFraction: big.NewInt(0),
	}
}

// computeFeesAndShares is the single source of truth for every fee and share
// number in the system. No other code path may compute fees independently.
//
// isAtomLeg marks a triple's deposit fraction being pushed one layer down
// into one of its atoms: only the entry fee applies there, and the fan-out
// never recurses further. sharesToRedeem is consulted on the redeem direction
// to decide the prospective min-share exit fee exemption.
func (e *Engine) computeFeesAndShares(raw *big.Int, id types.TermID, curveID uint64, isDeposit, isAtomLeg bool, sharesToRedeem *big.Int) (*FeesBreakdown, error) {
	if raw == nil || raw.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	provider, err := e.curve(curveID)
	if err != nil {
		return nil, err
	}
	totals := e.loadVault(id, curveID)
	out := newFeesBreakdown()

	if !isDeposit {
		// Emergency-exit guarantee: pausing suppresses every redemption fee
		// so funds are never trapped behind fee extraction.
		if e.paused() {
			out.Assets = copyBigInt(raw)
			out.TotalAssetsDelta = new(big.Int).Neg(raw)
			return out, nil
		}
		out.ProtocolFee = feeOn(raw, e.params.ProtocolFeeBps)
		remaining := new(big.Int).Sub(totals.TotalShares, copyBigInt(sharesToRedeem))
		if remaining.Cmp(e.params.MinShare) > 0 {
			out.ExitFee = feeOn(raw, e.params.ExitFeeBps)
		}
		out.Assets = new(big.Int).Sub(raw, out.ProtocolFee)
		out.Assets.Sub(out.Assets, out.ExitFee)
		if out.Assets.Sign() <= 0 {
			return nil, errZeroAssets
		}
		out.TotalAssetsDelta = new(big.Int).Add(out.Assets, out.ProtocolFee)
		out.TotalAssetsDelta.Neg(out.TotalAssetsDelta)
		return out, nil
	}

	entryExempt := totals.TotalShares.Cmp(e.params.MinShare) <= 0

	if isAtomLeg {
		if !entryExempt {
			out.EntryFee = feeOn(raw, e.params.EntryFeeBps)
		}
		out.NetAssets = new(big.Int).Sub(raw, out.EntryFee)
	} else {
		out.ProtocolFee = feeOn(raw, e.params.ProtocolFeeBps)
		if e.termIsAtom(id) {
			out.AtomWalletFee = feeOn(raw, e.params.AtomWalletFeeBps)
		} else if _, ok := e.termIsTripleLike(id); ok {
			out.AtomDepositFraction = feeOn(raw, e.params.AtomDepositFractionBps)
		}
		if !entryExempt {
			out.EntryFee = feeOn(raw, e.params.EntryFeeBps)
		}
		out.NetAssets = new(big.Int).Sub(raw, out.ProtocolFee)
		out.NetAssets.Sub(out.NetAssets, out.EntryFee)
		out.NetAssets.Sub(out.NetAssets, out.AtomWalletFee)
		out.NetAssets.Sub(out.NetAssets, out.AtomDepositFraction)
	}
	if out.NetAssets.Sign() <= 0 {
		return nil, errZeroAssets
	}
	out.Shares = provider.PreviewDeposit(out.NetAssets, totals.TotalAssets, totals.TotalShares)
	if out.Shares.Sign() == 0 {
		return nil, errZeroShares
	}
	// The entry fee stays in the vault, raising the floor for existing
	// holders; protocol, wallet, and fraction fees leave it.
	out.TotalAssetsDelta = new(big.Int).Add(out.NetAssets, out.EntryFee)
	return out, nil
}
