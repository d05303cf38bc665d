package vault

import (
	"fmt"
	"math/big"
	"testing"

	"multivault/core/types"
)

type mockState struct {
	terms        map[types.TermID]*Term
	counters     map[types.TermID]types.TermID
	termCount    uint64
	vaults       map[string]*VaultState
	shares       map[string]*big.Int
	approvals    map[string]ApprovalType
	lastActive   map[types.Address]uint64
	lastGlobal   uint64
	globalUtil   map[uint64]*big.Int
	personalUtil map[string]*big.Int
	distSnap     map[uint64]bool
	protoFees    map[uint64]*big.Int
	walletFees   map[types.Address]*big.Int

	snapshots []*mockState
}

func newMockState() *mockState {
	return &mockState{
		terms:        make(map[types.TermID]*Term),
		counters:     make(map[types.TermID]types.TermID),
		vaults:       make(map[string]*VaultState),
		shares:       make(map[string]*big.Int),
		approvals:    make(map[string]ApprovalType),
		lastActive:   make(map[types.Address]uint64),
		globalUtil:   make(map[uint64]*big.Int),
		personalUtil: make(map[string]*big.Int),
		distSnap:     make(map[uint64]bool),
		protoFees:    make(map[uint64]*big.Int),
		walletFees:   make(map[types.Address]*big.Int),
	}
}

func vaultMapKey(id types.TermID, curveID uint64) string {
	return fmt.Sprintf("%x/%d", id[:], curveID)
}

func sharesMapKey(owner types.Address, id types.TermID, curveID uint64) string {
	return fmt.Sprintf("%x/%x/%d", owner[:], id[:], curveID)
}

func (m *mockState) clone() *mockState {
	clone := newMockState()
	clone.termCount = m.termCount
	clone.lastGlobal = m.lastGlobal
	for k, v := range m.terms {
		clone.terms[k] = v.Clone()
	}
	for k, v := range m.counters {
		clone.counters[k] = v
	}
	for k, v := range m.vaults {
		clone.vaults[k] = v.Clone()
	}
	for k, v := range m.shares {
		clone.shares[k] = new(big.Int).Set(v)
	}
	for k, v := range m.approvals {
		clone.approvals[k] = v
	}
	for k, v := range m.lastActive {
		clone.lastActive[k] = v
	}
	for k, v := range m.globalUtil {
		clone.globalUtil[k] = new(big.Int).Set(v)
	}
	for k, v := range m.personalUtil {
		clone.personalUtil[k] = new(big.Int).Set(v)
	}
	for k, v := range m.distSnap {
		clone.distSnap[k] = v
	}
	for k, v := range m.protoFees {
		clone.protoFees[k] = new(big.Int).Set(v)
	}
	for k, v := range m.walletFees {
		clone.walletFees[k] = new(big.Int).Set(v)
	}
	return clone
}

func (m *mockState) restore(other *mockState) {
	m.terms = other.terms
	m.counters = other.counters
	m.termCount = other.termCount
	m.vaults = other.vaults
	m.shares = other.shares
	m.approvals = other.approvals
	m.lastActive = other.lastActive
	m.lastGlobal = other.lastGlobal
	m.globalUtil = other.globalUtil
	m.personalUtil = other.personalUtil
	m.distSnap = other.distSnap
	m.protoFees = other.protoFees
	m.walletFees = other.walletFees
}

func (m *mockState) Term(id types.TermID) (*Term, bool) {
	term, ok := m.terms[id]
	if !ok {
		return nil, false
	}
	return term.Clone(), true
}

func (m *mockState) PutTerm(t *Term) error {
	m.terms[t.ID] = t.Clone()
	return nil
}

func (m *mockState) TripleForCounter(id types.TermID) (types.TermID, bool) {
	tripleID, ok := m.counters[id]
	return tripleID, ok
}

func (m *mockState) PutCounterLink(counter, triple types.TermID) error {
	m.counters[counter] = triple
	return nil
}

func (m *mockState) TermCount() uint64 { return m.termCount }

func (m *mockState) SetTermCount(n uint64) error {
	m.termCount = n
	return nil
}

func (m *mockState) Vault(id types.TermID, curveID uint64) (*VaultState, bool) {
	state, ok := m.vaults[vaultMapKey(id, curveID)]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

func (m *mockState) PutVault(id types.TermID, curveID uint64, v *VaultState) error {
	m.vaults[vaultMapKey(id, curveID)] = v.Clone()
	return nil
}

func (m *mockState) Shares(owner types.Address, id types.TermID, curveID uint64) *big.Int {
	balance, ok := m.shares[sharesMapKey(owner, id, curveID)]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (m *mockState) SetShares(owner types.Address, id types.TermID, curveID uint64, amount *big.Int) error {
	m.shares[sharesMapKey(owner, id, curveID)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) Approval(owner, operator types.Address) ApprovalType {
	return m.approvals[fmt.Sprintf("%x/%x", owner[:], operator[:])]
}

func (m *mockState) SetApproval(owner, operator types.Address, approval ApprovalType) error {
	m.approvals[fmt.Sprintf("%x/%x", owner[:], operator[:])] = approval
	return nil
}

func (m *mockState) LastActiveEpoch(account types.Address) uint64 {
	return m.lastActive[account]
}

func (m *mockState) SetLastActiveEpoch(account types.Address, epoch uint64) error {
	m.lastActive[account] = epoch
	return nil
}

func (m *mockState) LastGlobalEpoch() uint64 { return m.lastGlobal }

func (m *mockState) SetLastGlobalEpoch(epoch uint64) error {
	m.lastGlobal = epoch
	return nil
}

func (m *mockState) GlobalUtilization(epoch uint64) (*big.Int, bool) {
	value, ok := m.globalUtil[epoch]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(value), true
}

func (m *mockState) SetGlobalUtilization(epoch uint64, value *big.Int) error {
	m.globalUtil[epoch] = new(big.Int).Set(value)
	return nil
}

func (m *mockState) PersonalUtilization(account types.Address, epoch uint64) (*big.Int, bool) {
	value, ok := m.personalUtil[fmt.Sprintf("%x/%d", account[:], epoch)]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(value), true
}

func (m *mockState) SetPersonalUtilization(account types.Address, epoch uint64, value *big.Int) error {
	m.personalUtil[fmt.Sprintf("%x/%d", account[:], epoch)] = new(big.Int).Set(value)
	return nil
}

func (m *mockState) DistributionSnapshot(epoch uint64) (bool, bool) {
	enabled, ok := m.distSnap[epoch]
	return enabled, ok
}

func (m *mockState) SetDistributionSnapshot(epoch uint64, enabled bool) error {
	m.distSnap[epoch] = enabled
	return nil
}

func (m *mockState) AccumulatedProtocolFees(epoch uint64) *big.Int {
	accrued, ok := m.protoFees[epoch]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(accrued)
}

func (m *mockState) SetAccumulatedProtocolFees(epoch uint64, amount *big.Int) error {
	m.protoFees[epoch] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) AtomWalletFees(wallet types.Address) *big.Int {
	accrued, ok := m.walletFees[wallet]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(accrued)
}

func (m *mockState) SetAtomWalletFees(wallet types.Address, amount *big.Int) error {
	m.walletFees[wallet] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) Snapshot() int {
	m.snapshots = append(m.snapshots, m.clone())
	return len(m.snapshots) - 1
}

func (m *mockState) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	m.restore(m.snapshots[id])
	m.snapshots = m.snapshots[:id]
}

type mockClock struct {
	epoch uint64
}

func (c *mockClock) CurrentEpoch() uint64 { return c.epoch }

type mockSink struct {
	registered   map[uint64]*big.Int
	received     map[uint64]*big.Int
	receiveCalls int
}

func newMockSink() *mockSink {
	return &mockSink{registered: make(map[uint64]*big.Int), received: make(map[uint64]*big.Int)}
}

func (s *mockSink) RegisterClaimableForEpoch(epoch uint64, max *big.Int) error {
	s.registered[epoch] = new(big.Int).Set(max)
	return nil
}

func (s *mockSink) ReceiveProtocolFees(epoch uint64, amount *big.Int) error {
	s.received[epoch] = new(big.Int).Set(amount)
	s.receiveCalls++
	return nil
}

type mockPauses struct {
	paused bool
}

func (p *mockPauses) IsPaused(string) bool { return p.paused }

func newTestAddress(fill byte) types.Address {
	var addr types.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testParams() Params {
	return Params{
		Version:                           1,
		EntryFeeBps:                       100,
		ExitFeeBps:                        100,
		ProtocolFeeBps:                    200,
		AtomWalletFeeBps:                  100,
		AtomDepositFractionBps:            1_500,
		MinShare:                          big.NewInt(1_000),
		MinDeposit:                        big.NewInt(10),
		AtomCreationProtocolFee:           big.NewInt(100),
		TripleCreationProtocolFee:         big.NewInt(200),
		TotalAtomDepositsOnTripleCreation: big.NewInt(0),
		AtomDataMaxLength:                 100,
		Admin:                             newTestAddress(0xAA),
		ProtocolTreasury:                  newTestAddress(0xBB),
		FeesDistributionEnabled:           false,
	}
}

type testEnv struct {
	engine  *Engine
	state   *mockState
	clock   *mockClock
	sink    *mockSink
	pauses  *mockPauses
	wallets *DeterministicWalletFactory
}

func newTestEngine(t *testing.T, params Params) *testEnv {
	t.Helper()
	if err := params.Validate(); err != nil {
		t.Fatalf("invalid test params: %v", err)
	}
	env := &testEnv{
		state:   newMockState(),
		clock:   &mockClock{epoch: 1},
		sink:    newMockSink(),
		pauses:  &mockPauses{},
		wallets: NewDeterministicWalletFactory(newTestAddress(0xFD), [32]byte{}),
	}
	env.engine = NewEngine(params, NewRegistry())
	env.engine.SetState(env.state)
	env.engine.SetEpochClock(env.clock)
	env.engine.SetBondingSink(env.sink)
	env.engine.SetPauses(env.pauses)
	env.engine.SetWalletFactory(env.wallets)
	return env
}

// createTestAtom registers an atom with enough value for a creation deposit
// of extra units and returns its id.
func (env *testEnv) createTestAtom(t *testing.T, creator types.Address, data []byte, extra int64) types.TermID {
	t.Helper()
	value := new(big.Int).Add(env.engine.AtomCost(), big.NewInt(extra))
	id, err := env.engine.CreateAtom(creator, data, value)
	if err != nil {
		t.Fatalf("create atom: %v", err)
	}
	return id
}

func (env *testEnv) createTestTriple(t *testing.T, creator types.Address, subject, predicate, object types.TermID, extra int64) types.TermID {
	t.Helper()
	value := new(big.Int).Add(env.engine.TripleCost(), big.NewInt(extra))
	id, err := env.engine.CreateTriple(creator, subject, predicate, object, value)
	if err != nil {
		t.Fatalf("create triple: %v", err)
	}
	return id
}

// sumBalances adds the share balances held by the given accounts in a vault;
// tests use it to assert the share conservation invariant.
func (env *testEnv) sumBalances(id types.TermID, curveID uint64, accounts ...types.Address) *big.Int {
	total := big.NewInt(0)
	for _, account := range accounts {
		total.Add(total, env.state.Shares(account, id, curveID))
	}
	return total
}

func TestEngineRequiresState(t *testing.T) {
	engine := NewEngine(testParams(), NewRegistry())
	if _, err := engine.Deposit(newTestAddress(1), newTestAddress(1), types.TermID{}, DefaultCurveID, big.NewInt(100), nil); err != errNilState {
		t.Fatalf("expected errNilState, got %v", err)
	}
}

func TestReentrancyGuardReleasesOnError(t *testing.T) {
	env := newTestEngine(t, testParams())
	if _, err := env.engine.Deposit(newTestAddress(1), newTestAddress(1), types.TermID{}, DefaultCurveID, big.NewInt(100), nil); err != errTermNotFound {
		t.Fatalf("expected errTermNotFound, got %v", err)
	}
	// The guard must have been released by the failed call.
	atomID := env.createTestAtom(t, newTestAddress(1), []byte("release-check"), 500)
	if !env.engine.IsAtom(atomID) {
		t.Fatal("expected atom to exist after guarded failure")
	}
}
