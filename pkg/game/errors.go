package game

import "errors"

// Domain errors surfaced as typed intent rejections. Wrap with
// fmt.Errorf("%w: ...") when additional context helps the caller.
var (
	ErrSpectator         = errors.New("spectators cannot mutate the room")
	ErrNotAMember        = errors.New("not a room member")
	ErrOutOfRange        = errors.New("coordinate out of range")
	ErrGardenLocked      = errors.New("garden is locked")
	ErrUnknownItem       = errors.New("unknown catalog item")
	ErrUnknownTier       = errors.New("unknown garden tier")
	ErrWrongCategory     = errors.New("item category does not match intent")
	ErrCellOccupied      = errors.New("cell is occupied")
	ErrEmptyCell         = errors.New("cell is empty")
	ErrNoFloor           = errors.New("cell has no floor")
	ErrNotASeed          = errors.New("occupant is not a seed")
	ErrNotADecoration    = errors.New("occupant is not a decoration")
	ErrNotGrown          = errors.New("seed is not fully grown")
	ErrAlreadyGrown      = errors.New("seed is already grown")
	ErrInsufficientItems = errors.New("insufficient inventory")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyUnlocked   = errors.New("garden already unlocked")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskDone          = errors.New("task already completed")
	ErrInvalidIntent     = errors.New("invalid intent payload")
	ErrUnknownIntent     = errors.New("unknown intent type")
)
