package vault

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"multivault/core/types"
)

// counterSalt is the fixed domain-separation constant hashed ahead of a
// triple id to derive its counter id. Changing it would re-key every counter
// vault.
var counterSalt = ethcrypto.Keccak256([]byte("multivault.counter-triple"))

// AtomID derives the content-addressed identifier of an atom from its raw
// data. Pure: identical bytes always map to the same id.
func AtomID(data []byte) types.TermID {
	var id types.TermID
	copy(id[:], ethcrypto.Keccak256(data))
	return id
}

// TripleID derives the identifier of a triple from its three atom ids in
// subject, predicate, object order. Order-sensitive: swapping subject and
// object yields a different id.
func TripleID(subject, predicate, object types.TermID) types.TermID {
	var id types.TermID
	copy(id[:], ethcrypto.Keccak256(subject[:], predicate[:], object[:]))
	return id
}

// CounterID derives the deterministic negation counterpart of a triple id.
// Counters are recognised through the reverse map, not by any value-range
// property of the id itself.
func CounterID(triple types.TermID) types.TermID {
	var id types.TermID
	copy(id[:], ethcrypto.Keccak256(counterSalt, triple[:]))
	return id
}
