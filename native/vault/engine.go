package vault

import (
	"errors"
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
	nativecommon "multivault/native/common"
	"multivault/observability"
)

var (
	errNilState                = errors.New("vault engine: state not configured")
	errNilCurveRegistry        = errors.New("vault engine: curve registry not configured")
	errNilWalletFactory        = errors.New("vault engine: wallet factory not configured")
	errNilEpochClock           = errors.New("vault engine: epoch clock not configured")
	errReentrantCall           = errors.New("vault engine: reentrant call")
	errInvalidCurve            = errors.New("vault engine: unknown curve id")
	errTermNotFound            = errors.New("vault engine: term does not exist")
	errAtomNotFound            = errors.New("vault engine: atom does not exist")
	errAtomExists              = errors.New("vault engine: atom already exists")
	errTripleExists            = errors.New("vault engine: triple already exists")
	errNotTriple               = errors.New("vault engine: term is not a triple")
	errAtomDataEmpty           = errors.New("vault engine: atom data is empty")
	errAtomDataTooLong         = errors.New("vault engine: atom data exceeds max length")
	errInvalidAmount           = errors.New("vault engine: amount must be positive")
	errMinimumDeposit          = errors.New("vault engine: amount below minimum deposit")
	errInsufficientCreationFee = errors.New("vault engine: deposit does not cover creation cost")
	errInsufficientBalance     = errors.New("vault engine: insufficient share balance")
	errZeroShares              = errors.New("vault engine: resulting shares are zero")
	errZeroAssets              = errors.New("vault engine: resulting assets are zero")
	errSlippageExceeded        = errors.New("vault engine: slippage bound violated")
	errRemainingSharesFloor    = errors.New("vault engine: remaining shares would breach min share floor")
	errHasCounterStake         = errors.New("vault engine: receiver holds counter-stake on the default curve")
	errSelfApproval            = errors.New("vault engine: cannot approve or revoke self")
	errNotApproved             = errors.New("vault engine: caller not approved for this action")
	errBatchLengthMismatch     = errors.New("vault engine: batch array lengths differ")
	errEmptyBatch              = errors.New("vault engine: batch arrays are empty")
	errMaxAssetsExceeded       = errors.New("vault engine: vault would exceed curve max assets")
	errNothingToClaim          = errors.New("vault engine: nothing to claim")
	errNotWalletController     = errors.New("vault engine: caller does not control this atom wallet")
)

// engineState is the persistence boundary of the ledger. Implementations must
// support journaled snapshots so batch entry points can discard partial
// mutations as a unit.
type engineState interface {
	Term(id types.TermID) (*Term, bool)
	PutTerm(t *Term) error
	TripleForCounter(id types.TermID) (types.TermID, bool)
	PutCounterLink(counter, triple types.TermID) error
	TermCount() uint64
	SetTermCount(n uint64) error

	Vault(id types.TermID, curveID uint64) (*VaultState, bool)
	PutVault(id types.TermID, curveID uint64, v *VaultState) error
	Shares(owner types.Address, id types.TermID, curveID uint64) *big.Int
	SetShares(owner types.Address, id types.TermID, curveID uint64, amount *big.Int) error

	Approval(owner, operator types.Address) ApprovalType
	SetApproval(owner, operator types.Address, approval ApprovalType) error

	LastActiveEpoch(account types.Address) uint64
	SetLastActiveEpoch(account types.Address, epoch uint64) error
	LastGlobalEpoch() uint64
	SetLastGlobalEpoch(epoch uint64) error
	GlobalUtilization(epoch uint64) (*big.Int, bool)
	SetGlobalUtilization(epoch uint64, value *big.Int) error
	PersonalUtilization(account types.Address, epoch uint64) (*big.Int, bool)
	SetPersonalUtilization(account types.Address, epoch uint64, value *big.Int) error
	DistributionSnapshot(epoch uint64) (bool, bool)
	SetDistributionSnapshot(epoch uint64, enabled bool) error
	AccumulatedProtocolFees(epoch uint64) *big.Int
	SetAccumulatedProtocolFees(epoch uint64, amount *big.Int) error
	AtomWalletFees(wallet types.Address) *big.Int
	SetAtomWalletFees(wallet types.Address, amount *big.Int) error

	Snapshot() int
	RevertToSnapshot(id int)
}

// WalletFactory derives the deterministic receiving account bound to an atom.
// Address computation must not require the wallet to be deployed.
type WalletFactory interface {
	ComputeAtomWalletAddress(atomID types.TermID) types.Address
	// WalletController resolves the account entitled to claim the wallet's
	// accumulated deposit fees.
	WalletController(wallet types.Address) (types.Address, bool)
}

// EpochClock supplies the current accounting epoch.
type EpochClock interface {
	CurrentEpoch() uint64
}

// BondingSink receives settled protocol fees for epochs whose snapshot had
// distribution enabled. RegisterClaimableForEpoch is an accounting
// cross-check announced before the transfer, not a capability grant.
type BondingSink interface {
	RegisterClaimableForEpoch(epoch uint64, max *big.Int) error
	ReceiveProtocolFees(epoch uint64, amount *big.Int) error
}

// Engine is the multi-tenant vault ledger: term lifecycle, fee settlement,
// and utilization accounting over a journaled state backend. The surrounding
// execution environment serialises entry points; the engine itself only
// guards against reentrant invocation during an in-flight call.
type Engine struct {
	state   engineState
	params  Params
	curves  CurveRegistry
	wallets WalletFactory
	clock   EpochClock
	sink    BondingSink
	pauses  nativecommon.PauseView
	emitter events.Emitter
	metrics *observability.VaultMetrics

	entered bool
}

// NewEngine constructs an engine over the supplied parameter snapshot and
// curve registry. State and collaborators are wired through setters.
func NewEngine(params Params, curves CurveRegistry) *Engine {
	return &Engine{
		params:  params,
		curves:  curves,
		emitter: events.NoopEmitter{},
	}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetParams replaces the economic snapshot at a synchronization point.
func (e *Engine) SetParams(params Params) error {
	if e == nil {
		return errNilState
	}
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active economic snapshot.
func (e *Engine) Params() Params { return e.params }

// SetWalletFactory configures the atom wallet collaborator.
func (e *Engine) SetWalletFactory(factory WalletFactory) {
	if e == nil {
		return
	}
	e.wallets = factory
}

// SetEpochClock configures the epoch collaborator.
func (e *Engine) SetEpochClock(clock EpochClock) {
	if e == nil {
		return
	}
	e.clock = clock
}

// SetBondingSink configures the protocol fee distribution sink. A nil sink
// routes every settlement to the treasury.
func (e *Engine) SetBondingSink(sink BondingSink) {
	if e == nil {
		return
	}
	e.sink = sink
}

// SetPauses wires the administrative pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetMetrics wires the optional prometheus registry.
func (e *Engine) SetMetrics(m *observability.VaultMetrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// enter acquires the reentrancy guard. The returned release must run on every
// exit path.
func (e *Engine) enter() (func(), error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.entered {
		return nil, errReentrantCall
	}
	e.entered = true
	return func() { e.entered = false }, nil
}

func (e *Engine) paused() bool {
	return e.pauses != nil && e.pauses.IsPaused(moduleName)
}

// guardPause rejects the call while the module is paused. Redemption entry
// points deliberately skip this guard: pausing must never trap user funds.
func (e *Engine) guardPause() error {
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) curve(curveID uint64) (CurveProvider, error) {
	if e.curves == nil {
		return nil, errNilCurveRegistry
	}
	provider, ok := e.curves.Curve(curveID)
	if !ok {
		return nil, errInvalidCurve
	}
	return provider, nil
}

// termExists reports whether id names a created atom, triple, or the counter
// of a created triple. Counter ids are never stored as terms; they are
// recognised purely through the reverse map.
func (e *Engine) termExists(id types.TermID) bool {
	if _, ok := e.state.Term(id); ok {
		return true
	}
	_, ok := e.state.TripleForCounter(id)
	return ok
}

// termIsTripleLike reports whether id is a positive triple or a counter, and
// resolves the positive triple record either way.
func (e *Engine) termIsTripleLike(id types.TermID) (*Term, bool) {
	if term, ok := e.state.Term(id); ok {
		if term.Kind == TermKindTriple {
			return term, true
		}
		return nil, false
	}
	if tripleID, ok := e.state.TripleForCounter(id); ok {
		if term, ok := e.state.Term(tripleID); ok && term.Kind == TermKindTriple {
			return term, true
		}
	}
	return nil, false
}

func (e *Engine) termIsAtom(id types.TermID) bool {
	term, ok := e.state.Term(id)
	return ok && term.Kind == TermKindAtom
}

func (e *Engine) currentEpoch() (uint64, error) {
	if e.clock == nil {
		return 0, errNilEpochClock
	}
	return e.clock.CurrentEpoch(), nil
}
