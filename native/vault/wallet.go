package vault

import (
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"multivault/core/types"
)

// DeterministicWalletFactory derives the receiving account bound to an atom
// with a CREATE2-style digest over a fixed deployer and the atom id as salt.
// Address computation never requires the wallet to be deployed.
type DeterministicWalletFactory struct {
	deployer     types.Address
	initCodeHash [32]byte

	mu          sync.RWMutex
	controllers map[types.Address]types.Address
}

// NewDeterministicWalletFactory constructs a factory for the given deployer
// account and wallet init-code hash.
func NewDeterministicWalletFactory(deployer types.Address, initCodeHash [32]byte) *DeterministicWalletFactory {
	return &DeterministicWalletFactory{
		deployer:     deployer,
		initCodeHash: initCodeHash,
		controllers:  make(map[types.Address]types.Address),
	}
}

// ComputeAtomWalletAddress implements the WalletFactory interface.
func (f *DeterministicWalletFactory) ComputeAtomWalletAddress(atomID types.TermID) types.Address {
	digest := ethcrypto.Keccak256([]byte{0xff}, f.deployer[:], atomID[:], f.initCodeHash[:])
	var addr types.Address
	copy(addr[:], digest[12:])
	return addr
}

// RegisterController records the account entitled to claim a wallet's
// accumulated fees. In production this mirrors the wallet subsystem's
// ownership registry.
func (f *DeterministicWalletFactory) RegisterController(wallet, controller types.Address) {
	f.mu.Lock()
	f.controllers[wallet] = controller
	f.mu.Unlock()
}

// WalletController implements the WalletFactory interface.
func (f *DeterministicWalletFactory) WalletController(wallet types.Address) (types.Address, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	controller, ok := f.controllers[wallet]
	return controller, ok
}
