package observability

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics records ledger activity for the operations dashboards. All
// amount series are in base-asset units.
type VaultMetrics struct {
	deposits    *prometheus.CounterVec
	redeems     *prometheus.CounterVec
	creates     *prometheus.CounterVec
	fees        *prometheus.CounterVec
	settlements *prometheus.CounterVec
}

var (
	vaultMetricsOnce sync.Once
	vaultRegistry    *VaultMetrics
)

// Vault returns the lazily-initialised vault metrics registry.
func Vault() *VaultMetrics {
	vaultMetricsOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "multivault",
				Subsystem: "ledger",
				Name:      "deposit_assets_total",
				Help:      "Total assets deposited, segmented by curve id.",
			}, []string{"curve"}),
			redeems: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "multivault",
				Subsystem: "ledger",
				Name:      "redeem_assets_total",
				Help:      "Total assets redeemed, segmented by curve id.",
			}, []string{"curve"}),
			creates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "multivault",
				Subsystem: "ledger",
				Name:      "terms_created_total",
				Help:      "Terms created, segmented by kind (atom, triple).",
			}, []string{"kind"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "multivault",
				Subsystem: "ledger",
				Name:      "fees_total",
				Help:      "Fees assessed, segmented by component.",
			}, []string{"component"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "multivault",
				Subsystem: "ledger",
				Name:      "epoch_settlements_total",
				Help:      "Protocol fee settlements, segmented by destination.",
			}, []string{"destination"}),
		}
		prometheus.MustRegister(
			vaultRegistry.deposits,
			vaultRegistry.redeems,
			vaultRegistry.creates,
			vaultRegistry.fees,
			vaultRegistry.settlements,
		)
	})
	return vaultRegistry
}

// ObserveDeposit records deposited assets for a curve.
func (m *VaultMetrics) ObserveDeposit(curveID uint64, assets *big.Int) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(strconv.FormatUint(curveID, 10)).Add(bigToFloat(assets))
}

// ObserveRedeem records redeemed assets for a curve.
func (m *VaultMetrics) ObserveRedeem(curveID uint64, assets *big.Int) {
	if m == nil {
		return
	}
	m.redeems.WithLabelValues(strconv.FormatUint(curveID, 10)).Add(bigToFloat(assets))
}

// ObserveFee records an assessed fee component.
func (m *VaultMetrics) ObserveFee(component string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.fees.WithLabelValues(component).Add(bigToFloat(amount))
}

// ObserveTermCreated records a term registration.
func (m *VaultMetrics) ObserveTermCreated(kind string) {
	if m == nil {
		return
	}
	m.creates.WithLabelValues(kind).Inc()
}

// ObserveEpochSettled records a protocol fee settlement.
func (m *VaultMetrics) ObserveEpochSettled(amount *big.Int, distributed bool) {
	if m == nil {
		return
	}
	destination := "treasury"
	if distributed {
		destination = "bonding_sink"
	}
	m.settlements.WithLabelValues(destination).Add(bigToFloat(amount))
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
