package vault

import (
	"multivault/core/events"
	"multivault/core/types"
)

// SetApproval grants or revokes operator rights over the owner's deposits and
// redemptions. Self-action is always implicitly allowed, so approving or
// revoking oneself is rejected rather than silently ignored.
func (e *Engine) SetApproval(owner, operator types.Address, approval ApprovalType) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if owner == operator {
		return errSelfApproval
	}
	if approval > ApprovalBoth {
		return errInvalidAmount
	}
	if err := e.state.SetApproval(owner, operator, approval); err != nil {
		return err
	}
	e.emit(events.ApprovalSet{Owner: owner, Operator: operator, Approval: uint8(approval)})
	return nil
}

// Approval returns the rights owner has granted to operator.
func (e *Engine) Approval(owner, operator types.Address) (ApprovalType, error) {
	if e == nil || e.state == nil {
		return ApprovalNone, errNilState
	}
	return e.state.Approval(owner, operator), nil
}
