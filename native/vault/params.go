package vault

import (
	"errors"
	"fmt"
	"math/big"

	"multivault/core/types"
)

// FeeDenominator is the fixed basis-point denominator for every fee rate.
const FeeDenominator = 10_000

// DefaultCurveID selects the pro-rata curve that carries signal. The
// counter-stake policy applies to this curve only.
const DefaultCurveID uint64 = 1

// oneShare is the share normalization constant (1e18) used when deriving the
// quoted per-share price.
var oneShare = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// OneShare returns the share normalization constant.
func OneShare() *big.Int { return new(big.Int).Set(oneShare) }

// Params is the versioned economic configuration snapshot injected into the
// engine. It is pulled from the configuration source at sync points and never
// read from globals.
type Params struct {
	Version uint64

	EntryFeeBps            uint64
	ExitFeeBps             uint64
	ProtocolFeeBps         uint64
	AtomWalletFeeBps       uint64
	AtomDepositFractionBps uint64

	// MinShare is the ghost-share floor minted to the admin at vault
	// initialization and enforced against every redemption thereafter.
	MinShare *big.Int
	// MinDeposit is the smallest accepted steady-state deposit.
	MinDeposit *big.Int

	// AtomCreationProtocolFee and TripleCreationProtocolFee are the static
	// protocol components of the respective creation costs.
	AtomCreationProtocolFee   *big.Int
	TripleCreationProtocolFee *big.Int

	// TotalAtomDepositsOnTripleCreation, when nonzero, is split evenly across
	// the three underlying atom vaults as an assets-only totals bump during
	// triple creation.
	TotalAtomDepositsOnTripleCreation *big.Int

	// AtomDataMaxLength caps the accepted atom payload size.
	AtomDataMaxLength int

	// Admin receives ghost shares; ProtocolTreasury receives protocol fees
	// for epochs whose snapshot has distribution disabled.
	Admin            types.Address
	ProtocolTreasury types.Address

	// FeesDistributionEnabled is snapshotted per epoch at rollover; later
	// flips never retroactively affect an already-rolled epoch.
	FeesDistributionEnabled bool
}

// DefaultParams returns a conservative configuration with every rate within
// bounds and 18-decimal asset units.
func DefaultParams() Params {
	return Params{
		Version:                           1,
		EntryFeeBps:                       50,
		ExitFeeBps:                        50,
		ProtocolFeeBps:                    100,
		AtomWalletFeeBps:                  100,
		AtomDepositFractionBps:            900,
		MinShare:                          new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil),
		MinDeposit:                        big.NewInt(1_000),
		AtomCreationProtocolFee:           new(big.Int).Exp(big.NewInt(10), big.NewInt(5), nil),
		TripleCreationProtocolFee:         new(big.Int).Exp(big.NewInt(10), big.NewInt(5), nil),
		TotalAtomDepositsOnTripleCreation: big.NewInt(0),
		AtomDataMaxLength:                 1_000,
		FeesDistributionEnabled:           false,
	}
}

// Validate ensures the snapshot is internally consistent.
func (p Params) Validate() error {
	for name, bps := range map[string]uint64{
		"entry fee":             p.EntryFeeBps,
		"exit fee":              p.ExitFeeBps,
		"protocol fee":          p.ProtocolFeeBps,
		"atom wallet fee":       p.AtomWalletFeeBps,
		"atom deposit fraction": p.AtomDepositFractionBps,
	} {
		if bps > FeeDenominator {
			return fmt.Errorf("%s rate must be <= %d bps", name, FeeDenominator)
		}
	}
	if p.MinShare == nil || p.MinShare.Sign() <= 0 {
		return errors.New("min share must be positive")
	}
	if p.MinDeposit == nil || p.MinDeposit.Sign() < 0 {
		return errors.New("min deposit cannot be negative")
	}
	if p.AtomCreationProtocolFee == nil || p.AtomCreationProtocolFee.Sign() < 0 {
		return errors.New("atom creation protocol fee cannot be negative")
	}
	if p.TripleCreationProtocolFee == nil || p.TripleCreationProtocolFee.Sign() < 0 {
		return errors.New("triple creation protocol fee cannot be negative")
	}
	if p.TotalAtomDepositsOnTripleCreation != nil && p.TotalAtomDepositsOnTripleCreation.Sign() < 0 {
		return errors.New("total atom deposits on triple creation cannot be negative")
	}
	if p.AtomDataMaxLength <= 0 {
		return errors.New("atom data max length must be positive")
	}
	return nil
}

// AtomCost is the static cost deducted from every atom creation deposit: the
// protocol fee seed plus one MinShare worth of ghost-share backing.
func (p Params) AtomCost() *big.Int {
	cost := copyBigInt(p.AtomCreationProtocolFee)
	return cost.Add(cost, copyBigInt(p.MinShare))
}

// TripleCost is the static cost deducted from every triple creation deposit:
// the protocol fee seed, ghost-share backing for both the triple and its
// counter vault, and the static atom deposit distribution.
func (p Params) TripleCost() *big.Int {
	cost := copyBigInt(p.TripleCreationProtocolFee)
	cost.Add(cost, copyBigInt(p.MinShare))
	cost.Add(cost, copyBigInt(p.MinShare))
	if p.TotalAtomDepositsOnTripleCreation != nil {
		cost.Add(cost, p.TotalAtomDepositsOnTripleCreation)
	}
	return cost
}

// feeOn computes amount * bps / FeeDenominator rounded up. Ceiling division
// biases every fee in favour of the protocol, which is what prevents
// fee-rounding exploitation; it must not be changed to floor.
func feeOn(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	den := big.NewInt(FeeDenominator)
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}
