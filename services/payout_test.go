package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"arguebank/db"
)

type fakeLedger struct {
	mu        sync.Mutex
	calls     int
	lastNet   int64
	lastAddr  string
	failNext  bool
	transfers []int64
}

func (f *fakeLedger) Transfer(ctx context.Context, recipient string, lamports int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failNext {
		f.failNext = false
		return errors.New("rpc node unreachable")
	}
	f.lastNet = lamports
	f.lastAddr = recipient
	f.transfers = append(f.transfers, lamports)
	return nil
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPayoutDeductsPlatformFee(t *testing.T) {
	store := db.NewMemStore()
	ledger := &fakeLedger{}
	coordinator := NewPayoutCoordinator(store, ledger, 0.1)
	ctx := context.Background()

	round, _ := store.CreateRound(ctx, "Pineapple belongs on pizza", "Disprove Pineapple belongs on pizza")
	roundID := round.ID.Hex()

	net, err := coordinator.Payout(ctx, roundID, 30, "winner-address")
	if err != nil {
		t.Fatalf("Payout failed: %v", err)
	}
	if net != 27 {
		t.Errorf("Expected net of 27 from gross 30 at 10%% fee, got %d", net)
	}
	if ledger.lastNet != 27 || ledger.lastAddr != "winner-address" {
		t.Errorf("Ledger saw transfer of %d to %s", ledger.lastNet, ledger.lastAddr)
	}

	updated, _ := store.GetRound(ctx, roundID)
	if !updated.Completed {
		t.Error("Expected round to be completed after payout")
	}
}

func TestPayoutRefusedOnCompletedRound(t *testing.T) {
	store := db.NewMemStore()
	ledger := &fakeLedger{}
	coordinator := NewPayoutCoordinator(store, ledger, 0.1)
	ctx := context.Background()

	round, _ := store.CreateRound(ctx, "Water is dry", "Disprove Water is dry")
	roundID := round.ID.Hex()

	if _, err := coordinator.Payout(ctx, roundID, 100, "first-winner"); err != nil {
		t.Fatalf("First payout failed: %v", err)
	}

	_, err := coordinator.Payout(ctx, roundID, 100, "second-winner")
	if !errors.Is(err, ErrAlreadyPaidOut) {
		t.Errorf("Expected ErrAlreadyPaidOut, got %v", err)
	}
	if ledger.callCount() != 1 {
		t.Errorf("Expected exactly 1 ledger call, got %d", ledger.callCount())
	}
}

func TestFailedTransferLeavesRoundPayable(t *testing.T) {
	store := db.NewMemStore()
	ledger := &fakeLedger{failNext: true}
	coordinator := NewPayoutCoordinator(store, ledger, 0.1)
	ctx := context.Background()

	round, _ := store.CreateRound(ctx, "Mondays are great", "Disprove Mondays are great")
	roundID := round.ID.Hex()

	if _, err := coordinator.Payout(ctx, roundID, 50, "winner"); err == nil {
		t.Fatal("Expected payout to fail when the ledger fails")
	}

	updated, _ := store.GetRound(ctx, roundID)
	if updated.Completed {
		t.Error("Round must stay payable after a failed transfer")
	}

	// A retry succeeds.
	net, err := coordinator.Payout(ctx, roundID, 50, "winner")
	if err != nil {
		t.Fatalf("Retry payout failed: %v", err)
	}
	if net != 45 {
		t.Errorf("Expected net of 45, got %d", net)
	}
}

func TestPayoutUnknownRound(t *testing.T) {
	store := db.NewMemStore()
	coordinator := NewPayoutCoordinator(store, &fakeLedger{}, 0.1)

	_, err := coordinator.Payout(context.Background(), "ffffffffffffffffffffffff", 10, "winner")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
