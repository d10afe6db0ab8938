package services

import (
	"context"

	"arguebank/db"
)

// CostLedger derives message pricing and the bank total from the stored
// message log. No separate counters exist, so the bank amount can never
// drift from what was actually charged.
type CostLedger struct {
	store     db.Store
	increment int64
}

func NewCostLedger(store db.Store, increment int64) *CostLedger {
	return &CostLedger{store: store, increment: increment}
}

// PriceForNextMessage returns (N+1) * increment where N is the number of
// messages already recorded for the round. Store failures are surfaced,
// never silently priced as zero.
func (l *CostLedger) PriceForNextMessage(ctx context.Context, roundID string) (int64, error) {
	count, err := l.store.CountMessages(ctx, roundID)
	if err != nil {
		return 0, err
	}
	return (count + 1) * l.increment, nil
}

// BankAmount returns the sum of all message costs recorded for the round.
func (l *CostLedger) BankAmount(ctx context.Context, roundID string) (int64, error) {
	return l.store.SumCost(ctx, roundID)
}
