// Package vaultstate persists the vault ledger over a generic key-value
// database with JSON-encoded records and a write journal, so entry points can
// snapshot the ledger and discard partial mutations as a unit.
package vaultstate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"multivault/core/types"
	"multivault/native/vault"
	"multivault/storage"
)

const (
	prefixTerm          = "t:"
	prefixCounter       = "c:"
	prefixVault         = "v:"
	prefixShares        = "s:"
	prefixApproval      = "a:"
	prefixGlobalUtil    = "ug:"
	prefixPersonalUtil  = "up:"
	prefixLastActive    = "ul:"
	prefixDistSnapshot  = "ud:"
	prefixProtocolFees  = "fp:"
	prefixWalletFees    = "fw:"
	keyTermCount        = "meta:termcount"
	keyLastGlobalEpoch  = "meta:lastglobalepoch"
)

// State is the LevelDB/MemDB-backed implementation of the vault engine's
// persistence boundary.
type State struct {
	db      storage.Database
	journal []journalEntry
}

type journalEntry struct {
	key     string
	prev    []byte
	existed bool
}

// New constructs a State over the given database.
func New(db storage.Database) *State {
	return &State{db: db}
}

// Snapshot returns a revision id capturing the current journal position.
func (s *State) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every write made since the revision was taken.
func (s *State) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		return
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		entry := s.journal[i]
		if entry.existed {
			_ = s.db.Put([]byte(entry.key), entry.prev)
		} else {
			_ = s.db.Delete([]byte(entry.key))
		}
	}
	s.journal = s.journal[:id]
}

func (s *State) put(key string, value []byte) error {
	prev, err := s.db.Get([]byte(key))
	existed := err == nil
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	s.journal = append(s.journal, journalEntry{key: key, prev: prev, existed: existed})
	return s.db.Put([]byte(key), value)
}

func (s *State) get(key string) ([]byte, bool) {
	value, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return value, true
}

func epochKey(prefix string, epoch uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	return prefix + string(buf[:])
}

func accountKey(prefix string, account types.Address, rest string) string {
	return prefix + string(account[:]) + rest
}

func vaultKey(prefix string, id types.TermID, curveID uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], curveID)
	return prefix + string(id[:]) + string(buf[:])
}

func (s *State) putJSON(key string, value interface{}) error {
	blob, err := marshalJSON(value)
	if err != nil {
		return fmt.Errorf("vaultstate: encode %q: %w", key, err)
	}
	return s.put(key, blob)
}

// Term implements the engine state interface.
func (s *State) Term(id types.TermID) (*vault.Term, bool) {
	blob, ok := s.get(prefixTerm + string(id[:]))
	if !ok {
		return nil, false
	}
	term := new(vault.Term)
	if err := unmarshalJSON(blob, term); err != nil {
		return nil, false
	}
	return term, true
}

// PutTerm implements the engine state interface.
func (s *State) PutTerm(t *vault.Term) error {
	if t == nil {
		return errors.New("vaultstate: nil term")
	}
	return s.putJSON(prefixTerm+string(t.ID[:]), t.Clone())
}

// TripleForCounter implements the engine state interface.
func (s *State) TripleForCounter(id types.TermID) (types.TermID, bool) {
	blob, ok := s.get(prefixCounter + string(id[:]))
	if !ok || len(blob) != len(id) {
		return types.TermID{}, false
	}
	var tripleID types.TermID
	copy(tripleID[:], blob)
	return tripleID, true
}

// PutCounterLink implements the engine state interface.
func (s *State) PutCounterLink(counter, triple types.TermID) error {
	return s.put(prefixCounter+string(counter[:]), triple[:])
}

// TermCount implements the engine state interface.
func (s *State) TermCount() uint64 {
	blob, ok := s.get(keyTermCount)
	if !ok || len(blob) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(blob)
}

// SetTermCount implements the engine state interface.
func (s *State) SetTermCount(n uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return s.put(keyTermCount, buf[:])
}

// Vault implements the engine state interface.
func (s *State) Vault(id types.TermID, curveID uint64) (*vault.VaultState, bool) {
	blob, ok := s.get(vaultKey(prefixVault, id, curveID))
	if !ok {
		return nil, false
	}
	state := new(vault.VaultState)
	if err := unmarshalJSON(blob, state); err != nil {
		return nil, false
	}
	return state, true
}

// PutVault implements the engine state interface.
func (s *State) PutVault(id types.TermID, curveID uint64, v *vault.VaultState) error {
	if v == nil {
		return errors.New("vaultstate: nil vault state")
	}
	return s.putJSON(vaultKey(prefixVault, id, curveID), v.Clone())
}

// Shares implements the engine state interface.
func (s *State) Shares(owner types.Address, id types.TermID, curveID uint64) *big.Int {
	blob, ok := s.get(accountKey(prefixShares, owner, vaultKey("", id, curveID)))
	if !ok {
		return big.NewInt(0)
	}
	return bytesToBig(blob)
}

// SetShares implements the engine state interface.
func (s *State) SetShares(owner types.Address, id types.TermID, curveID uint64, amount *big.Int) error {
	return s.put(accountKey(prefixShares, owner, vaultKey("", id, curveID)), bigToBytes(amount))
}

// Approval implements the engine state interface.
func (s *State) Approval(owner, operator types.Address) vault.ApprovalType {
	blob, ok := s.get(accountKey(prefixApproval, owner, string(operator[:])))
	if !ok || len(blob) != 1 {
		return vault.ApprovalNone
	}
	return vault.ApprovalType(blob[0])
}

// SetApproval implements the engine state interface.
func (s *State) SetApproval(owner, operator types.Address, approval vault.ApprovalType) error {
	return s.put(accountKey(prefixApproval, owner, string(operator[:])), []byte{byte(approval)})
}

// LastActiveEpoch implements the engine state interface.
func (s *State) LastActiveEpoch(account types.Address) uint64 {
	blob, ok := s.get(accountKey(prefixLastActive, account, ""))
	if !ok || len(blob) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(blob)
}

// SetLastActiveEpoch implements the engine state interface.
func (s *State) SetLastActiveEpoch(account types.Address, epoch uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	return s.put(accountKey(prefixLastActive, account, ""), buf[:])
}

// LastGlobalEpoch implements the engine state interface.
func (s *State) LastGlobalEpoch() uint64 {
	blob, ok := s.get(keyLastGlobalEpoch)
	if !ok || len(blob) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(blob)
}

// SetLastGlobalEpoch implements the engine state interface.
func (s *State) SetLastGlobalEpoch(epoch uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	return s.put(keyLastGlobalEpoch, buf[:])
}

// GlobalUtilization implements the engine state interface.
func (s *State) GlobalUtilization(epoch uint64) (*big.Int, bool) {
	blob, ok := s.get(epochKey(prefixGlobalUtil, epoch))
	if !ok {
		return nil, false
	}
	return bytesToBig(blob), true
}

// SetGlobalUtilization implements the engine state interface.
func (s *State) SetGlobalUtilization(epoch uint64, value *big.Int) error {
	return s.put(epochKey(prefixGlobalUtil, epoch), bigToBytes(value))
}

// PersonalUtilization implements the engine state interface.
func (s *State) PersonalUtilization(account types.Address, epoch uint64) (*big.Int, bool) {
	blob, ok := s.get(accountKey(prefixPersonalUtil, account, epochKey("", epoch)))
	if !ok {
		return nil, false
	}
	return bytesToBig(blob), true
}

// SetPersonalUtilization implements the engine state interface.
func (s *State) SetPersonalUtilization(account types.Address, epoch uint64, value *big.Int) error {
	return s.put(accountKey(prefixPersonalUtil, account, epochKey("", epoch)), bigToBytes(value))
}

// DistributionSnapshot implements the engine state interface.
func (s *State) DistributionSnapshot(epoch uint64) (bool, bool) {
	blob, ok := s.get(epochKey(prefixDistSnapshot, epoch))
	if !ok || len(blob) != 1 {
		return false, false
	}
	return blob[0] == 1, true
}

// SetDistributionSnapshot implements the engine state interface.
func (s *State) SetDistributionSnapshot(epoch uint64, enabled bool) error {
	value := byte(0)
	if enabled {
		value = 1
	}
	return s.put(epochKey(prefixDistSnapshot, epoch), []byte{value})
}

// AccumulatedProtocolFees implements the engine state interface.
func (s *State) AccumulatedProtocolFees(epoch uint64) *big.Int {
	blob, ok := s.get(epochKey(prefixProtocolFees, epoch))
	if !ok {
		return big.NewInt(0)
	}
	return bytesToBig(blob)
}

// SetAccumulatedProtocolFees implements the engine state interface.
func (s *State) SetAccumulatedProtocolFees(epoch uint64, amount *big.Int) error {
	return s.put(epochKey(prefixProtocolFees, epoch), bigToBytes(amount))
}

// AtomWalletFees implements the engine state interface.
func (s *State) AtomWalletFees(wallet types.Address) *big.Int {
	blob, ok := s.get(accountKey(prefixWalletFees, wallet, ""))
	if !ok {
		return big.NewInt(0)
	}
	return bytesToBig(blob)
}

// SetAtomWalletFees implements the engine state interface.
func (s *State) SetAtomWalletFees(wallet types.Address, amount *big.Int) error {
	return s.put(accountKey(prefixWalletFees, wallet, ""), bigToBytes(amount))
}
