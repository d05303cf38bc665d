package vault

import (
	"math/big"

	"multivault/core/events"
	"multivault/core/types"
)

// CreateAtom registers a new atom term, initializes its default-curve vault
// with ghost shares, and deposits the value remaining after the static atom
// cost. It returns the derived term id.
func (e *Engine) CreateAtom(caller types.Address, data []byte, value *big.Int) (types.TermID, error) {
	release, err := e.enter()
	if err != nil {
		return types.TermID{}, err
	}
	defer release()
	snapshot := e.state.Snapshot()
	id, err := e.createAtom(caller, data, value)
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return types.TermID{}, err
	}
	return id, nil
}

// CreateAtoms is the batch variant of CreateAtom. The whole batch succeeds or
// fails as a unit.
func (e *Engine) CreateAtoms(caller types.Address, datas [][]byte, values []*big.Int) ([]types.TermID, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if len(datas) == 0 {
		return nil, errEmptyBatch
	}
	if len(datas) != len(values) {
		return nil, errBatchLengthMismatch
	}
	snapshot := e.state.Snapshot()
	ids := make([]types.TermID, 0, len(datas))
	for i := range datas {
		id, err := e.createAtom(caller, datas[i], values[i])
		if err != nil {
			e.state.RevertToSnapshot(snapshot)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *Engine) createAtom(caller types.Address, data []byte, value *big.Int) (types.TermID, error) {
	if err := e.guardPause(); err != nil {
		return types.TermID{}, err
	}
	if len(data) == 0 {
		return types.TermID{}, errAtomDataEmpty
	}
	if len(data) > e.params.AtomDataMaxLength {
		return types.TermID{}, errAtomDataTooLong
	}
	if value == nil || value.Sign() <= 0 {
		return types.TermID{}, errInvalidAmount
	}
	id := AtomID(data)
	if e.termExists(id) {
		return types.TermID{}, errAtomExists
	}
	cost := e.params.AtomCost()
	if value.Cmp(cost) < 0 {
		return types.TermID{}, errInsufficientCreationFee
	}
	if e.wallets == nil {
		return types.TermID{}, errNilWalletFactory
	}

	seq := e.state.TermCount() + 1
	term := &Term{ID: id, Kind: TermKindAtom, Seq: seq, AtomData: append([]byte(nil), data...)}
	if err := e.state.PutTerm(term); err != nil {
		return types.TermID{}, err
	}
	if err := e.state.SetTermCount(seq); err != nil {
		return types.TermID{}, err
	}

	epoch, err := e.applyUtilization(caller, copyBigInt(value))
	if err != nil {
		return types.TermID{}, err
	}
	if err := e.accrueProtocolFee(epoch, e.params.AtomCreationProtocolFee); err != nil {
		return types.TermID{}, err
	}
	if err := e.initGhostShares(id, DefaultCurveID); err != nil {
		return types.TermID{}, err
	}

	net := new(big.Int).Sub(value, cost)
	if net.Sign() > 0 {
		if _, err := e.depositLeg(caller, caller, id, DefaultCurveID, net, epoch, false); err != nil {
			return types.TermID{}, err
		}
	}

	wallet := e.wallets.ComputeAtomWalletAddress(id)
	e.emit(events.AtomCreated{Creator: caller, TermID: id, AtomData: term.AtomData, AtomWallet: wallet})
	if e.metrics != nil {
		e.metrics.ObserveTermCreated("atom")
	}
	return id, nil
}

// CreateTriple registers a new triple over three existing atoms, opens both
// the triple vault and its counter vault with ghost shares, distributes the
// configured static atom deposits, and deposits the value remaining after the
// static triple cost.
func (e *Engine) CreateTriple(caller types.Address, subject, predicate, object types.TermID, value *big.Int) (types.TermID, error) {
	release, err := e.enter()
	if err != nil {
		return types.TermID{}, err
	}
	defer release()
	snapshot := e.state.Snapshot()
	id, err := e.createTriple(caller, subject, predicate, object, value)
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return types.TermID{}, err
	}
	return id, nil
}

// CreateTriples is the batch variant of CreateTriple with unit atomicity.
func (e *Engine) CreateTriples(caller types.Address, subjects, predicates, objects []types.TermID, values []*big.Int) ([]types.TermID, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if len(subjects) == 0 {
		return nil, errEmptyBatch
	}
	if len(subjects) != len(predicates) || len(subjects) != len(objects) || len(subjects) != len(values) {
		return nil, errBatchLengthMismatch
	}
	snapshot := e.state.Snapshot()
	ids := make([]types.TermID, 0, len(subjects))
	for i := range subjects {
		id, err := e.createTriple(caller, subjects[i], predicates[i], objects[i], values[i])
		if err != nil {
			e.state.RevertToSnapshot(snapshot)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *Engine) createTriple(caller types.Address, subject, predicate, object types.TermID, value *big.Int) (types.TermID, error) {
	if err := e.guardPause(); err != nil {
		return types.TermID{}, err
	}
	if value == nil || value.Sign() <= 0 {
		return types.TermID{}, errInvalidAmount
	}
	for _, atomID := range []types.TermID{subject, predicate, object} {
		if !e.termIsAtom(atomID) {
			return types.TermID{}, errAtomNotFound
		}
	}
	id := TripleID(subject, predicate, object)
	if e.termExists(id) {
		return types.TermID{}, errTripleExists
	}
	cost := e.params.TripleCost()
	if value.Cmp(cost) < 0 {
		return types.TermID{}, errInsufficientCreationFee
	}

	counterID := CounterID(id)
	seq := e.state.TermCount() + 1
	term := &Term{ID: id, Kind: TermKindTriple, Seq: seq, Subject: subject, Predicate: predicate, Object: object}
	if err := e.state.PutTerm(term); err != nil {
		return types.TermID{}, err
	}
	if err := e.state.SetTermCount(seq); err != nil {
		return types.TermID{}, err
	}
	if err := e.state.PutCounterLink(counterID, id); err != nil {
		return types.TermID{}, err
	}

	epoch, err := e.applyUtilization(caller, copyBigInt(value))
	if err != nil {
		return types.TermID{}, err
	}
	if err := e.accrueProtocolFee(epoch, e.params.TripleCreationProtocolFee); err != nil {
		return types.TermID{}, err
	}

	// Both stance vaults exist and are priced from the same moment.
	if err := e.initGhostShares(id, DefaultCurveID); err != nil {
		return types.TermID{}, err
	}
	if err := e.initGhostShares(counterID, DefaultCurveID); err != nil {
		return types.TermID{}, err
	}

	if err := e.distributeStaticAtomDeposits(term); err != nil {
		return types.TermID{}, err
	}

	net := new(big.Int).Sub(value, cost)
	if net.Sign() > 0 {
		if _, err := e.depositLeg(caller, caller, id, DefaultCurveID, net, epoch, false); err != nil {
			return types.TermID{}, err
		}
	}

	e.emit(events.TripleCreated{
		Creator:   caller,
		TermID:    id,
		CounterID: counterID,
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	})
	if e.metrics != nil {
		e.metrics.ObserveTermCreated("triple")
	}
	return id, nil
}

// initGhostShares opens a vault in its anti-inflation state: MinShare ghost
// shares minted to the admin against MinShare of backing assets, so the first
// real depositor cannot manipulate the share price.
func (e *Engine) initGhostShares(id types.TermID, curveID uint64) error {
	minShare := copyBigInt(e.params.MinShare)
	if err := e.setTotals(id, curveID, minShare, minShare); err != nil {
		return err
	}
	return e.mint(e.params.Admin, id, curveID, copyBigInt(e.params.MinShare))
}

// distributeStaticAtomDeposits splits the configured static amount evenly
// across the triple's three atom vaults as an assets-only totals bump. No
// shares are minted; the bump raises the floor price for existing holders.
// The 1-2 unit integer-division remainder stays uncredited.
func (e *Engine) distributeStaticAtomDeposits(term *Term) error {
	total := e.params.TotalAtomDepositsOnTripleCreation
	if total == nil || total.Sign() == 0 {
		return nil
	}
	third := new(big.Int).Quo(total, big.NewInt(3))
	if third.Sign() == 0 {
		return nil
	}
	for _, atomID := range []types.TermID{term.Subject, term.Predicate, term.Object} {
		totals := e.loadVault(atomID, DefaultCurveID)
		assets := new(big.Int).Add(totals.TotalAssets, third)
		if err := e.setTotals(atomID, DefaultCurveID, assets, totals.TotalShares); err != nil {
			return err
		}
	}
	return nil
}

// ClaimAtomWalletFees drains an atom wallet's accumulated deposit fees to its
// controller. The accumulator is zeroed exactly once per claim.
func (e *Engine) ClaimAtomWalletFees(caller types.Address, wallet types.Address) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if e.wallets == nil {
		return nil, errNilWalletFactory
	}
	controller, ok := e.wallets.WalletController(wallet)
	if !ok || controller != caller {
		return nil, errNotWalletController
	}
	amount := copyBigInt(e.state.AtomWalletFees(wallet))
	if amount.Sign() == 0 {
		return nil, errNothingToClaim
	}
	if err := e.state.SetAtomWalletFees(wallet, big.NewInt(0)); err != nil {
		return nil, err
	}
	e.emit(events.AtomWalletFeesClaimed{Wallet: wallet, Amount: amount})
	return amount, nil
}
