package vaultstate

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"multivault/core/types"
	"multivault/native/vault"
	"multivault/storage"
)

func testTermID(fill byte) types.TermID {
	var id types.TermID
	for i := range id {
		id[i] = fill
	}
	return id
}

func testAddr(fill byte) types.Address {
	var addr types.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestTermRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	id := testTermID(0x01)

	_, ok := state.Term(id)
	require.False(t, ok)

	term := &vault.Term{ID: id, Kind: vault.TermKindAtom, Seq: 7, AtomData: []byte("payload")}
	require.NoError(t, state.PutTerm(term))

	got, ok := state.Term(id)
	require.True(t, ok)
	require.Equal(t, term.ID, got.ID)
	require.Equal(t, vault.TermKindAtom, got.Kind)
	require.Equal(t, uint64(7), got.Seq)
	require.Equal(t, []byte("payload"), got.AtomData)
}

func TestTripleTermRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	id := testTermID(0x02)
	term := &vault.Term{
		ID:        id,
		Kind:      vault.TermKindTriple,
		Seq:       3,
		Subject:   testTermID(0x10),
		Predicate: testTermID(0x11),
		Object:    testTermID(0x12),
	}
	require.NoError(t, state.PutTerm(term))

	got, ok := state.Term(id)
	require.True(t, ok)
	require.Equal(t, term.Subject, got.Subject)
	require.Equal(t, term.Predicate, got.Predicate)
	require.Equal(t, term.Object, got.Object)
}

func TestCounterLinkRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	counter := testTermID(0x03)
	triple := testTermID(0x04)

	_, ok := state.TripleForCounter(counter)
	require.False(t, ok)

	require.NoError(t, state.PutCounterLink(counter, triple))
	got, ok := state.TripleForCounter(counter)
	require.True(t, ok)
	require.Equal(t, triple, got)
}

func TestVaultTotalsRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	id := testTermID(0x05)

	_, ok := state.Vault(id, 1)
	require.False(t, ok)

	totals := &vault.VaultState{TotalAssets: big.NewInt(12_345), TotalShares: big.NewInt(6_789)}
	require.NoError(t, state.PutVault(id, 1, totals))

	got, ok := state.Vault(id, 1)
	require.True(t, ok)
	require.Zero(t, got.TotalAssets.Cmp(big.NewInt(12_345)))
	require.Zero(t, got.TotalShares.Cmp(big.NewInt(6_789)))

	// Curves partition the keyspace.
	_, ok = state.Vault(id, 2)
	require.False(t, ok)
}

func TestSharesRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	owner := testAddr(0x01)
	id := testTermID(0x06)

	require.Zero(t, state.Shares(owner, id, 1).Sign())
	require.NoError(t, state.SetShares(owner, id, 1, big.NewInt(42)))
	require.Zero(t, state.Shares(owner, id, 1).Cmp(big.NewInt(42)))
	require.Zero(t, state.Shares(testAddr(0x02), id, 1).Sign())
	require.Zero(t, state.Shares(owner, id, 2).Sign())
}

func TestApprovalRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	owner := testAddr(0x01)
	operator := testAddr(0x02)

	require.Equal(t, vault.ApprovalNone, state.Approval(owner, operator))
	require.NoError(t, state.SetApproval(owner, operator, vault.ApprovalBoth))
	require.Equal(t, vault.ApprovalBoth, state.Approval(owner, operator))
	// Direction matters.
	require.Equal(t, vault.ApprovalNone, state.Approval(operator, owner))
}

func TestEpochLedgerRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	account := testAddr(0x01)

	require.Zero(t, state.LastActiveEpoch(account))
	require.NoError(t, state.SetLastActiveEpoch(account, 9))
	require.Equal(t, uint64(9), state.LastActiveEpoch(account))

	require.Zero(t, state.LastGlobalEpoch())
	require.NoError(t, state.SetLastGlobalEpoch(9))
	require.Equal(t, uint64(9), state.LastGlobalEpoch())

	_, ok := state.GlobalUtilization(9)
	require.False(t, ok)
	require.NoError(t, state.SetGlobalUtilization(9, big.NewInt(1_000)))
	value, ok := state.GlobalUtilization(9)
	require.True(t, ok)
	require.Zero(t, value.Cmp(big.NewInt(1_000)))

	// A zero-valued bucket is still present; presence drives the rollover.
	require.NoError(t, state.SetGlobalUtilization(10, big.NewInt(0)))
	value, ok = state.GlobalUtilization(10)
	require.True(t, ok)
	require.Zero(t, value.Sign())

	require.NoError(t, state.SetPersonalUtilization(account, 9, big.NewInt(-250)))
	value, ok = state.PersonalUtilization(account, 9)
	require.True(t, ok)
	require.Zero(t, value.Cmp(big.NewInt(-250)))
}

func TestDistributionSnapshotRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())

	_, ok := state.DistributionSnapshot(4)
	require.False(t, ok)

	require.NoError(t, state.SetDistributionSnapshot(4, true))
	enabled, ok := state.DistributionSnapshot(4)
	require.True(t, ok)
	require.True(t, enabled)

	require.NoError(t, state.SetDistributionSnapshot(5, false))
	enabled, ok = state.DistributionSnapshot(5)
	require.True(t, ok)
	require.False(t, enabled)
}

func TestFeeAccumulatorsRoundTrip(t *testing.T) {
	state := New(storage.NewMemDB())
	wallet := testAddr(0x01)

	require.Zero(t, state.AccumulatedProtocolFees(3).Sign())
	require.NoError(t, state.SetAccumulatedProtocolFees(3, big.NewInt(777)))
	require.Zero(t, state.AccumulatedProtocolFees(3).Cmp(big.NewInt(777)))

	require.Zero(t, state.AtomWalletFees(wallet).Sign())
	require.NoError(t, state.SetAtomWalletFees(wallet, big.NewInt(55)))
	require.Zero(t, state.AtomWalletFees(wallet).Cmp(big.NewInt(55)))
}

func TestSnapshotRevertRestoresPriorValues(t *testing.T) {
	state := New(storage.NewMemDB())
	id := testTermID(0x07)
	owner := testAddr(0x01)

	require.NoError(t, state.SetShares(owner, id, 1, big.NewInt(100)))
	require.NoError(t, state.SetTermCount(1))

	snapshot := state.Snapshot()
	require.NoError(t, state.SetShares(owner, id, 1, big.NewInt(999)))
	require.NoError(t, state.SetTermCount(5))
	require.NoError(t, state.PutTerm(&vault.Term{ID: id, Kind: vault.TermKindAtom, Seq: 5, AtomData: []byte("x")}))

	state.RevertToSnapshot(snapshot)

	require.Zero(t, state.Shares(owner, id, 1).Cmp(big.NewInt(100)))
	require.Equal(t, uint64(1), state.TermCount())
	// The term written after the snapshot must be gone, not zeroed.
	_, ok := state.Term(id)
	require.False(t, ok)
}

func TestNestedSnapshots(t *testing.T) {
	state := New(storage.NewMemDB())
	require.NoError(t, state.SetTermCount(1))

	outer := state.Snapshot()
	require.NoError(t, state.SetTermCount(2))
	inner := state.Snapshot()
	require.NoError(t, state.SetTermCount(3))

	state.RevertToSnapshot(inner)
	require.Equal(t, uint64(2), state.TermCount())

	state.RevertToSnapshot(outer)
	require.Equal(t, uint64(1), state.TermCount())
}

func TestSnapshotIsCheapWhenUntouched(t *testing.T) {
	state := New(storage.NewMemDB())
	snapshot := state.Snapshot()
	state.RevertToSnapshot(snapshot)
	require.Zero(t, state.TermCount())
}
