package game

import (
	"fmt"

	"github.com/duobloom/garden/pkg/game/types"
	"github.com/duobloom/garden/pkg/store"
)

// Currency identifies one of the two room balances.
type Currency string

const (
	CurrencyCoins Currency = "coins"
	CurrencyGems  Currency = "gems"
)

// InventoryLedger validates item counts against the latest known
// snapshot and builds the corresponding atomic field operations. All
// engine item consumption and refunds route through it; a debit that
// would take a count below zero is rejected before anything is emitted.
type InventoryLedger struct {
	room *types.Room
}

// NewInventoryLedger creates a ledger over the latest room snapshot.
func NewInventoryLedger(room *types.Room) *InventoryLedger {
	return &InventoryLedger{room: room}
}

// Debit builds an op consuming n units of an item. It fails without
// emitting anything if the locally known count is insufficient.
func (l *InventoryLedger) Debit(itemID string, n int64) (store.Op, error) {
	if n <= 0 {
		return store.Op{}, fmt.Errorf("%w: debit of %d", ErrInvalidIntent, n)
	}
	if l.room.InventoryCount(itemID) < n {
		return store.Op{}, fmt.Errorf("%w: %s", ErrInsufficientItems, itemID)
	}
	return store.Increment("inventory."+itemID, -n), nil
}

// Credit builds an op refunding or granting n units of an item.
func (l *InventoryLedger) Credit(itemID string, n int64) store.Op {
	return store.Increment("inventory."+itemID, n)
}

// EconomyLedger guards the coin and gem balances. Affordability is
// checked against the locally known balance; see the concurrency notes
// for the race this implies between two concurrent buyers.
type EconomyLedger struct {
	room *types.Room
}

// NewEconomyLedger creates a ledger over the latest room snapshot.
func NewEconomyLedger(room *types.Room) *EconomyLedger {
	return &EconomyLedger{room: room}
}

func (l *EconomyLedger) balance(currency Currency) int64 {
	switch currency {
	case CurrencyGems:
		return l.room.Gems
	default:
		return l.room.Coins
	}
}

// Debit builds an op spending n units of a currency. It fails without
// emitting anything if the locally known balance is insufficient.
func (l *EconomyLedger) Debit(currency Currency, n int64) (store.Op, error) {
	if n < 0 {
		return store.Op{}, fmt.Errorf("%w: debit of %d", ErrInvalidIntent, n)
	}
	if l.balance(currency) < n {
		return store.Op{}, fmt.Errorf("%w: %s", ErrInsufficientFunds, currency)
	}
	return store.Increment(string(currency), -n), nil
}

// Credit builds an op granting n units of a currency.
func (l *EconomyLedger) Credit(currency Currency, n int64) store.Op {
	return store.Increment(string(currency), n)
}
