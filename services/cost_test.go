package services

import (
	"context"
	"testing"

	"arguebank/db"
	"arguebank/models"
)

func TestCostLedgerPricing(t *testing.T) {
	store := db.NewMemStore()
	ledger := NewCostLedger(store, 10)
	ctx := context.Background()

	round, err := store.CreateRound(ctx, "The earth is flat", "Disprove The earth is flat")
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	roundID := round.ID.Hex()

	price, err := ledger.PriceForNextMessage(ctx, roundID)
	if err != nil {
		t.Fatalf("Failed to price first message: %v", err)
	}
	if price != 10 {
		t.Errorf("Expected first message to cost 10, got %d", price)
	}

	bank, err := ledger.BankAmount(ctx, roundID)
	if err != nil {
		t.Fatalf("Failed to read bank: %v", err)
	}
	if bank != 0 {
		t.Errorf("Expected empty bank, got %d", bank)
	}

	err = store.AppendMessage(ctx, &models.ChatMessage{RoundID: round.ID, Content: "hi", Response: "no", Cost: 10})
	if err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	bank, err = ledger.BankAmount(ctx, roundID)
	if err != nil {
		t.Fatalf("Failed to read bank: %v", err)
	}
	if bank != 10 {
		t.Errorf("Expected bank of 10 after one message, got %d", bank)
	}

	price, err = ledger.PriceForNextMessage(ctx, roundID)
	if err != nil {
		t.Fatalf("Failed to price second message: %v", err)
	}
	if price != 20 {
		t.Errorf("Expected second message to cost 20, got %d", price)
	}
}

func TestBankEqualsSumOfCosts(t *testing.T) {
	store := db.NewMemStore()
	ledger := NewCostLedger(store, 10)
	ctx := context.Background()

	round, _ := store.CreateRound(ctx, "Cats are liquid", "Disprove Cats are liquid")
	roundID := round.ID.Hex()

	var want int64
	for n := int64(1); n <= 5; n++ {
		price, err := ledger.PriceForNextMessage(ctx, roundID)
		if err != nil {
			t.Fatalf("Failed to price message %d: %v", n, err)
		}
		if price != n*10 {
			t.Errorf("Message %d: expected price %d, got %d", n, n*10, price)
		}
		if err := store.AppendMessage(ctx, &models.ChatMessage{RoundID: round.ID, Content: "m", Response: "r", Cost: price}); err != nil {
			t.Fatalf("Failed to append message %d: %v", n, err)
		}
		want += price

		bank, err := ledger.BankAmount(ctx, roundID)
		if err != nil {
			t.Fatalf("Failed to read bank: %v", err)
		}
		if bank != want {
			t.Errorf("After message %d: expected bank %d, got %d", n, want, bank)
		}
	}
}
