package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, ":8670", cfg.ListenAddress)
	require.NoError(t, cfg.Validate())

	params, err := cfg.VaultParams()
	require.NoError(t, err)
	require.NoError(t, params.Validate())
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
ListenAddress = ":9000"
Environment = "staging"

[Epoch]
GenesisUnix = 1735689600
EpochSeconds = 3600

[Vault]
EntryFeeBps = 25
ExitFeeBps = 25
ProtocolFeeBps = 50
AtomWalletFeeBps = 50
AtomDepositFractionBps = 500
MinShare = "1000000000000000000"
MinDeposit = "100"
AtomCreationProtocolFee = "10"
TripleCreationProtocolFee = "20"
TotalAtomDepositsOnTripleCreation = "0"
AtomDataMaxLength = 256
Admin = "0x00000000000000000000000000000000000000aa"
ProtocolTreasury = "0x00000000000000000000000000000000000000bb"
FeesDistributionEnabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddress)
	require.Equal(t, "staging", cfg.Environment)

	params, err := cfg.VaultParams()
	require.NoError(t, err)
	require.Equal(t, uint64(25), params.EntryFeeBps)
	want, _ := new(big.Int).SetString("1000000000000000000", 10)
	require.Zero(t, params.MinShare.Cmp(want))
	require.Equal(t, byte(0xAA), params.Admin[19])
	require.Equal(t, byte(0xBB), params.ProtocolTreasury[19])
	require.True(t, params.FeesDistributionEnabled)

	clock := cfg.Clock()
	require.NotNil(t, clock)
}

func TestLoadRejectsInvalidEconomicBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[Vault]
EntryFeeBps = 10001
MinShare = "1000000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[Vault]
MinShare = "not a number"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsEmptyListenAddress(t *testing.T) {
	cfg := Default()
	cfg.ListenAddress = "  "
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveEpochLength(t *testing.T) {
	cfg := Default()
	cfg.Epoch.EpochSeconds = 0
	require.Error(t, cfg.Validate())
}
