package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"multivault/core/types"
)

const (
	// TypeAtomCreated marks the registration of a new atom term and its vault.
	TypeAtomCreated = "vault.atom_created"
	// TypeTripleCreated marks the registration of a new triple term, its
	// counter term, and both vaults.
	TypeTripleCreated = "vault.triple_created"
	// TypeDeposited records assets entering a vault and the shares minted.
	TypeDeposited = "vault.deposited"
	// TypeRedeemed records shares leaving a vault and the assets paid out.
	TypeRedeemed = "vault.redeemed"
	// TypeSharePriceChanged surfaces the derived per-share price after a
	// totals mutation.
	TypeSharePriceChanged = "vault.share_price_changed"
	// TypeApprovalSet records an approval grant or revocation.
	TypeApprovalSet = "vault.approval_set"
	// TypeEpochSettled records the one-time settlement of an epoch's
	// accumulated protocol fees.
	TypeEpochSettled = "vault.epoch_settled"
	// TypeAtomWalletFeesClaimed records a wallet controller draining its
	// accumulated deposit fees.
	TypeAtomWalletFeesClaimed = "vault.atom_wallet_fees_claimed"
)

// AtomCreated is emitted once per atom registration.
type AtomCreated struct {
	Creator    types.Address
	TermID     types.TermID
	AtomData   []byte
	AtomWallet types.Address
}

// EventType satisfies the events.Event interface.
func (AtomCreated) EventType() string { return TypeAtomCreated }

// Event converts the payload into its attribute-map form.
func (e AtomCreated) Event() *types.Event {
	attrs := map[string]string{
		"creator":    e.Creator.Hex(),
		"termId":     e.TermID.Hex(),
		"atomWallet": e.AtomWallet.Hex(),
	}
	if len(e.AtomData) > 0 {
		attrs["atomData"] = hex.EncodeToString(e.AtomData)
	}
	return &types.Event{Type: TypeAtomCreated, Attributes: attrs}
}

// TripleCreated is emitted once per triple registration.
type TripleCreated struct {
	Creator   types.Address
	TermID    types.TermID
	CounterID types.TermID
	Subject   types.TermID
	Predicate types.TermID
	Object    types.TermID
}

// EventType satisfies the events.Event interface.
func (TripleCreated) EventType() string { return TypeTripleCreated }

// Event converts the payload into its attribute-map form.
func (e TripleCreated) Event() *types.Event {
	return &types.Event{Type: TypeTripleCreated, Attributes: map[string]string{
		"creator":   e.Creator.Hex(),
		"termId":    e.TermID.Hex(),
		"counterId": e.CounterID.Hex(),
		"subject":   e.Subject.Hex(),
		"predicate": e.Predicate.Hex(),
		"object":    e.Object.Hex(),
	}}
}

// VaultFlow captures the fields shared by deposit and redemption payloads.
// Before/after totals plus the full fee breakdown make the event log
// sufficient to reconstruct the ledger without reading state.
type VaultFlow struct {
	Caller              types.Address
	Receiver            types.Address
	TermID              types.TermID
	CurveID             uint64
	Epoch               uint64
	Assets              *big.Int
	Shares              *big.Int
	EntryFee            *big.Int
	ExitFee             *big.Int
	ProtocolFee         *big.Int
	AtomWalletFee       *big.Int
	AtomDepositFraction *big.Int
	TotalAssetsBefore   *big.Int
	TotalAssetsAfter    *big.Int
	TotalSharesBefore   *big.Int
	TotalSharesAfter    *big.Int
	IsAtomLeg           bool
}

func (e VaultFlow) attributes() map[string]string {
	attrs := map[string]string{
		"caller":   e.Caller.Hex(),
		"receiver": e.Receiver.Hex(),
		"termId":   e.TermID.Hex(),
		"curveId":  strconv.FormatUint(e.CurveID, 10),
		"epoch":    strconv.FormatUint(e.Epoch, 10),
	}
	putBig(attrs, "assets", e.Assets)
	putBig(attrs, "shares", e.Shares)
	putBig(attrs, "entryFee", e.EntryFee)
	putBig(attrs, "exitFee", e.ExitFee)
	putBig(attrs, "protocolFee", e.ProtocolFee)
	putBig(attrs, "atomWalletFee", e.AtomWalletFee)
	putBig(attrs, "atomDepositFraction", e.AtomDepositFraction)
	putBig(attrs, "totalAssetsBefore", e.TotalAssetsBefore)
	putBig(attrs, "totalAssetsAfter", e.TotalAssetsAfter)
	putBig(attrs, "totalSharesBefore", e.TotalSharesBefore)
	putBig(attrs, "totalSharesAfter", e.TotalSharesAfter)
	if e.IsAtomLeg {
		attrs["atomLeg"] = "true"
	}
	return attrs
}

// Deposited is emitted for every deposit leg, including creation deposits and
// atom deposit-fraction fan-out legs.
type Deposited struct {
	VaultFlow
}

// EventType satisfies the events.Event interface.
func (Deposited) EventType() string { return TypeDeposited }

// Event converts the payload into its attribute-map form.
func (e Deposited) Event() *types.Event {
	return &types.Event{Type: TypeDeposited, Attributes: e.attributes()}
}

// Redeemed is emitted for every redemption.
type Redeemed struct {
	VaultFlow
}

// EventType satisfies the events.Event interface.
func (Redeemed) EventType() string { return TypeRedeemed }

// Event converts the payload into its attribute-map form.
func (e Redeemed) Event() *types.Event {
	return &types.Event{Type: TypeRedeemed, Attributes: e.attributes()}
}

// SharePriceChanged surfaces the derived per-share price after any totals
// mutation. The price is an observability signal, never stored state.
type SharePriceChanged struct {
	TermID      types.TermID
	CurveID     uint64
	Price       *big.Int
	TotalAssets *big.Int
	TotalShares *big.Int
}

// EventType satisfies the events.Event interface.
func (SharePriceChanged) EventType() string { return TypeSharePriceChanged }

// Event converts the payload into its attribute-map form.
func (e SharePriceChanged) Event() *types.Event {
	attrs := map[string]string{
		"termId":  e.TermID.Hex(),
		"curveId": strconv.FormatUint(e.CurveID, 10),
	}
	putBig(attrs, "price", e.Price)
	putBig(attrs, "totalAssets", e.TotalAssets)
	putBig(attrs, "totalShares", e.TotalShares)
	return &types.Event{Type: TypeSharePriceChanged, Attributes: attrs}
}

// ApprovalSet records an account granting or revoking operator rights.
type ApprovalSet struct {
	Owner    types.Address
	Operator types.Address
	Approval uint8
}

// EventType satisfies the events.Event interface.
func (ApprovalSet) EventType() string { return TypeApprovalSet }

// Event converts the payload into its attribute-map form.
func (e ApprovalSet) Event() *types.Event {
	return &types.Event{Type: TypeApprovalSet, Attributes: map[string]string{
		"owner":    e.Owner.Hex(),
		"operator": e.Operator.Hex(),
		"approval": strconv.FormatUint(uint64(e.Approval), 10),
	}}
}

// EpochSettled records the destination and amount of an epoch's protocol fees.
type EpochSettled struct {
	Epoch       uint64
	Amount      *big.Int
	Distributed bool
}

// EventType satisfies the events.Event interface.
func (EpochSettled) EventType() string { return TypeEpochSettled }

// Event converts the payload into its attribute-map form.
func (e EpochSettled) Event() *types.Event {
	attrs := map[string]string{
		"epoch":       strconv.FormatUint(e.Epoch, 10),
		"distributed": strconv.FormatBool(e.Distributed),
	}
	putBig(attrs, "amount", e.Amount)
	return &types.Event{Type: TypeEpochSettled, Attributes: attrs}
}

// AtomWalletFeesClaimed records a wallet draining its fee accumulator.
type AtomWalletFeesClaimed struct {
	Wallet types.Address
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (AtomWalletFeesClaimed) EventType() string { return TypeAtomWalletFeesClaimed }

// Event converts the payload into its attribute-map form.
func (e AtomWalletFeesClaimed) Event() *types.Event {
	attrs := map[string]string{"wallet": e.Wallet.Hex()}
	putBig(attrs, "amount", e.Amount)
	return &types.Event{Type: TypeAtomWalletFeesClaimed, Attributes: attrs}
}

func putBig(attrs map[string]string, key string, v *big.Int) {
	if v == nil {
		attrs[key] = "0"
		return
	}
	attrs[key] = v.String()
}
