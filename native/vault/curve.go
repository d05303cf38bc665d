package vault

import (
	"math/big"
	"sort"
)

// CurveProvider is the pricing boundary. Implementations must be pure and
// deterministic given their inputs; the engine never hands them a reference
// into ledger state.
type CurveProvider interface {
	// PreviewDeposit converts an asset amount into the shares it buys at the
	// current vault totals.
	PreviewDeposit(assets, totalAssets, totalShares *big.Int) *big.Int
	// PreviewRedeem converts a share amount into the assets it redeems for
	// at the current vault totals.
	PreviewRedeem(shares, totalShares, totalAssets *big.Int) *big.Int
	// ConvertToShares and ConvertToAssets are the fee-free conversion
	// helpers used by views.
	ConvertToShares(assets, totalAssets, totalShares *big.Int) *big.Int
	ConvertToAssets(shares, totalShares, totalAssets *big.Int) *big.Int
	// CurrentPrice quotes the marginal price at the given share supply.
	CurrentPrice(totalShares, totalAssets *big.Int) *big.Int
	// MaxAssets caps the assets a vault on this curve may hold.
	MaxAssets() *big.Int
	// Name identifies the curve in events and views.
	Name() string
}

// CurveRegistry resolves integer curve ids to providers.
type CurveRegistry interface {
	Curve(id uint64) (CurveProvider, bool)
	Count() uint64
}

// Registry is a map-backed CurveRegistry.
type Registry struct {
	curves map[uint64]CurveProvider
}

// NewRegistry returns a registry preloaded with the default pro-rata curve.
func NewRegistry() *Registry {
	r := &Registry{curves: make(map[uint64]CurveProvider)}
	r.Register(DefaultCurveID, ProRataCurve{})
	return r
}

// Register installs or replaces the provider for id.
func (r *Registry) Register(id uint64, provider CurveProvider) {
	if r == nil || provider == nil {
		return
	}
	r.curves[id] = provider
}

// Curve implements the CurveRegistry interface.
func (r *Registry) Curve(id uint64) (CurveProvider, bool) {
	if r == nil {
		return nil, false
	}
	provider, ok := r.curves[id]
	return provider, ok
}

// Count implements the CurveRegistry interface.
func (r *Registry) Count() uint64 {
	if r == nil {
		return 0
	}
	return uint64(len(r.curves))
}

// IDs returns the registered curve ids in ascending order.
func (r *Registry) IDs() []uint64 {
	if r == nil {
		return nil
	}
	ids := make([]uint64, 0, len(r.curves))
	for id := range r.curves {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ProRataCurve prices shares linearly against the pool: every share is worth
// totalAssets/totalShares. It is the default signal-carrying curve; richer
// bonding curves plug in through the registry.
type ProRataCurve struct{}

// Name implements the CurveProvider interface.
func (ProRataCurve) Name() string { return "pro-rata" }

// MaxAssets implements the CurveProvider interface. The pro-rata curve only
// bounds the pool by the width of the accounting integers.
func (ProRataCurve) MaxAssets() *big.Int {
	max := big.NewInt(1)
	return max.Lsh(max, 255)
}

// PreviewDeposit implements the CurveProvider interface. Rounding is floor,
// in favour of the vault.
func (c ProRataCurve) PreviewDeposit(assets, totalAssets, totalShares *big.Int) *big.Int {
	return c.ConvertToShares(assets, totalAssets, totalShares)
}

// PreviewRedeem implements the CurveProvider interface. Rounding is floor,
// in favour of the vault.
func (c ProRataCurve) PreviewRedeem(shares, totalShares, totalAssets *big.Int) *big.Int {
	return c.ConvertToAssets(shares, totalShares, totalAssets)
}

// ConvertToShares implements the CurveProvider interface.
func (ProRataCurve) ConvertToShares(assets, totalAssets, totalShares *big.Int) *big.Int {
	if assets == nil || assets.Sign() <= 0 {
		return big.NewInt(0)
	}
	if totalShares == nil || totalShares.Sign() == 0 || totalAssets == nil || totalAssets.Sign() == 0 {
		return new(big.Int).Set(assets)
	}
	out := new(big.Int).Mul(assets, totalShares)
	return out.Quo(out, totalAssets)
}

// ConvertToAssets implements the CurveProvider interface.
func (ProRataCurve) ConvertToAssets(shares, totalShares, totalAssets *big.Int) *big.Int {
	if shares == nil || shares.Sign() <= 0 || totalShares == nil || totalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	if totalAssets == nil || totalAssets.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(shares, totalAssets)
	return out.Quo(out, totalShares)
}

// CurrentPrice implements the CurveProvider interface: the asset value of
// one normalized share at the current totals.
func (c ProRataCurve) CurrentPrice(totalShares, totalAssets *big.Int) *big.Int {
	if totalShares == nil || totalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(oneShare, copyBigInt(totalAssets))
	return out.Quo(out, totalShares)
}
