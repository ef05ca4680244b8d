package game

import "github.com/duobloom/garden/pkg/store"

// Status classifies the outcome of applying an intent.
type Status int

const (
	// StatusApplied means the intent passed validation and its field
	// operations were emitted. The local view changes only when the
	// next snapshot arrives.
	StatusApplied Status = iota
	// StatusNoOp means the intent was silently ignored (cooldown not
	// elapsed, or the target references a stale catalog entry).
	StatusNoOp
	// StatusNeedsConfirmation means the intent must be resubmitted with
	// the confirm flag set.
	StatusNeedsConfirmation
	// StatusRejected means a precondition failed; no operation was
	// submitted.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNoOp:
		return "noop"
	case StatusNeedsConfirmation:
		return "needs_confirmation"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of one intent. Rejections carry the
// domain error; they are never raised as faults.
type Result struct {
	Status Status
	Reason error
	Ops    []store.Op
}

func applied(ops ...store.Op) *Result {
	return &Result{Status: StatusApplied, Ops: ops}
}

func noop() *Result {
	return &Result{Status: StatusNoOp}
}

func needsConfirmation() *Result {
	return &Result{Status: StatusNeedsConfirmation}
}

func rejected(reason error) *Result {
	return &Result{Status: StatusRejected, Reason: reason}
}
