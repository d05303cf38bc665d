package vault

import (
	"math/big"

	"multivault/core/types"
)

const moduleName = "vault"

// TermKind distinguishes the two disjoint term families.
type TermKind uint8

const (
	// TermKindAtom is a leaf term wrapping opaque data.
	TermKindAtom TermKind = iota + 1
	// TermKindTriple is a composite term over three atom ids.
	TermKindTriple
)

// Term is the identity-defining record of an atom or triple. Once stored it is
// never mutated.
type Term struct {
	ID   types.TermID `json:"id"`
	Kind TermKind     `json:"kind"`
	Seq  uint64       `json:"seq"`

	// AtomData is set for atoms only.
	AtomData []byte `json:"atomData,omitempty"`

	// Subject, Predicate, and Object are set for triples only.
	Subject   types.TermID `json:"subject,omitempty"`
	Predicate types.TermID `json:"predicate,omitempty"`
	Object    types.TermID `json:"object,omitempty"`
}

// Clone returns a deep copy so stored terms never alias caller-held slices.
func (t *Term) Clone() *Term {
	if t == nil {
		return nil
	}
	clone := *t
	clone.AtomData = append([]byte(nil), t.AtomData...)
	return &clone
}

// VaultState holds the totals side of a (term, curve) ledger. Per-account
// share balances live in their own keyspace so totals mutations never touch
// balance records.
type VaultState struct {
	TotalAssets *big.Int `json:"totalAssets"`
	TotalShares *big.Int `json:"totalShares"`
}

// Clone returns a copy with duplicated big.Int values.
func (v *VaultState) Clone() *VaultState {
	if v == nil {
		return nil
	}
	return &VaultState{
		TotalAssets: copyBigInt(v.TotalAssets),
		TotalShares: copyBigInt(v.TotalShares),
	}
}

func (v *VaultState) normalize() *VaultState {
	if v == nil {
		return &VaultState{TotalAssets: big.NewInt(0), TotalShares: big.NewInt(0)}
	}
	if v.TotalAssets == nil {
		v.TotalAssets = big.NewInt(0)
	}
	if v.TotalShares == nil {
		v.TotalShares = big.NewInt(0)
	}
	return v
}

// ApprovalType is the bitmask gating actions performed on behalf of another
// account.
type ApprovalType uint8

const (
	// ApprovalNone revokes all operator rights.
	ApprovalNone ApprovalType = 0
	// ApprovalDeposit lets the operator deposit for the owner.
	ApprovalDeposit ApprovalType = 1
	// ApprovalRedemption lets the operator redeem for the owner.
	ApprovalRedemption ApprovalType = 2
	// ApprovalBoth combines deposit and redemption rights.
	ApprovalBoth = ApprovalDeposit | ApprovalRedemption
)

// Allows reports whether the mask includes the requested right.
func (a ApprovalType) Allows(right ApprovalType) bool {
	return a&right == right
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
