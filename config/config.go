package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"multivault/core/types"
	"multivault/native/vault"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	Epoch EpochConfig `toml:"Epoch"`
	Vault VaultConfig `toml:"Vault"`
}

// EpochConfig drives the fixed-length epoch clock.
type EpochConfig struct {
	GenesisUnix  int64 `toml:"GenesisUnix"`
	EpochSeconds int64 `toml:"EpochSeconds"`
}

// VaultConfig carries the economic parameter snapshot in TOML-friendly form.
// Amounts are decimal strings so 18-decimal values survive the round trip.
type VaultConfig struct {
	EntryFeeBps            uint64 `toml:"EntryFeeBps"`
	ExitFeeBps             uint64 `toml:"ExitFeeBps"`
	ProtocolFeeBps         uint64 `toml:"ProtocolFeeBps"`
	AtomWalletFeeBps       uint64 `toml:"AtomWalletFeeBps"`
	AtomDepositFractionBps uint64 `toml:"AtomDepositFractionBps"`

	MinShare                          string `toml:"MinShare"`
	MinDeposit                        string `toml:"MinDeposit"`
	AtomCreationProtocolFee           string `toml:"AtomCreationProtocolFee"`
	TripleCreationProtocolFee         string `toml:"TripleCreationProtocolFee"`
	TotalAtomDepositsOnTripleCreation string `toml:"TotalAtomDepositsOnTripleCreation"`

	AtomDataMaxLength int `toml:"AtomDataMaxLength"`

	Admin                   string `toml:"Admin"`
	ProtocolTreasury        string `toml:"ProtocolTreasury"`
	FeesDistributionEnabled bool   `toml:"FeesDistributionEnabled"`
}

// Load reads the configuration file, filling defaults for absent fields. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	params := vault.DefaultParams()
	return &Config{
		ListenAddress: ":8670",
		DataDir:       "./multivault-data",
		Environment:   "local",
		Epoch: EpochConfig{
			GenesisUnix:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
			EpochSeconds: 14 * 24 * 60 * 60,
		},
		Vault: VaultConfig{
			EntryFeeBps:                       params.EntryFeeBps,
			ExitFeeBps:                        params.ExitFeeBps,
			ProtocolFeeBps:                    params.ProtocolFeeBps,
			AtomWalletFeeBps:                  params.AtomWalletFeeBps,
			AtomDepositFractionBps:            params.AtomDepositFractionBps,
			MinShare:                          params.MinShare.String(),
			MinDeposit:                        params.MinDeposit.String(),
			AtomCreationProtocolFee:           params.AtomCreationProtocolFee.String(),
			TripleCreationProtocolFee:         params.TripleCreationProtocolFee.String(),
			TotalAtomDepositsOnTripleCreation: params.TotalAtomDepositsOnTripleCreation.String(),
			AtomDataMaxLength:                 params.AtomDataMaxLength,
			FeesDistributionEnabled:           params.FeesDistributionEnabled,
		},
	}
}

// Validate checks the structural fields; economic bounds are checked by the
// derived vault.Params.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Epoch.EpochSeconds <= 0 {
		return fmt.Errorf("config: epoch seconds must be positive")
	}
	if _, err := c.VaultParams(); err != nil {
		return err
	}
	return nil
}

// VaultParams converts the TOML snapshot into the engine's parameter struct.
func (c *Config) VaultParams() (vault.Params, error) {
	params := vault.Params{
		Version:                 1,
		EntryFeeBps:             c.Vault.EntryFeeBps,
		ExitFeeBps:              c.Vault.ExitFeeBps,
		ProtocolFeeBps:          c.Vault.ProtocolFeeBps,
		AtomWalletFeeBps:        c.Vault.AtomWalletFeeBps,
		AtomDepositFractionBps:  c.Vault.AtomDepositFractionBps,
		AtomDataMaxLength:       c.Vault.AtomDataMaxLength,
		FeesDistributionEnabled: c.Vault.FeesDistributionEnabled,
	}
	var err error
	if params.MinShare, err = parseAmount("MinShare", c.Vault.MinShare); err != nil {
		return vault.Params{}, err
	}
	if params.MinDeposit, err = parseAmount("MinDeposit", c.Vault.MinDeposit); err != nil {
		return vault.Params{}, err
	}
	if params.AtomCreationProtocolFee, err = parseAmount("AtomCreationProtocolFee", c.Vault.AtomCreationProtocolFee); err != nil {
		return vault.Params{}, err
	}
	if params.TripleCreationProtocolFee, err = parseAmount("TripleCreationProtocolFee", c.Vault.TripleCreationProtocolFee); err != nil {
		return vault.Params{}, err
	}
	if params.TotalAtomDepositsOnTripleCreation, err = parseAmount("TotalAtomDepositsOnTripleCreation", c.Vault.TotalAtomDepositsOnTripleCreation); err != nil {
		return vault.Params{}, err
	}
	if params.Admin, err = parseOptionalAddress(c.Vault.Admin); err != nil {
		return vault.Params{}, fmt.Errorf("config: Admin: %w", err)
	}
	if params.ProtocolTreasury, err = parseOptionalAddress(c.Vault.ProtocolTreasury); err != nil {
		return vault.Params{}, fmt.Errorf("config: ProtocolTreasury: %w", err)
	}
	if err := params.Validate(); err != nil {
		return vault.Params{}, fmt.Errorf("config: %w", err)
	}
	return params, nil
}

// Clock constructs the epoch clock described by the configuration.
func (c *Config) Clock() *vault.FixedLengthClock {
	return vault.NewFixedLengthClock(
		time.Unix(c.Epoch.GenesisUnix, 0),
		time.Duration(c.Epoch.EpochSeconds)*time.Second,
	)
}

func parseAmount(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: %s: invalid amount %q", field, raw)
	}
	return value, nil
}

func parseOptionalAddress(raw string) (types.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Address{}, nil
	}
	return types.ParseAddress(raw)
}
