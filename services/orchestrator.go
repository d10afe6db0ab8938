package services

import (
	"context"
	"fmt"
	"log"

	"arguebank/db"
	"arguebank/models"

	"google.golang.org/genai"
)

// TurnResult is the terse outcome returned to the payer. The reply text
// itself is delivered through the broadcast channel, not this response.
type TurnResult string

const (
	TurnVictory  TurnResult = "victory"
	TurnContinue TurnResult = "continue"
)

// Orchestrator drives one paid chat turn end to end: price validation,
// context assembly, inference, conditional payout, persistence. The whole
// sequence runs under the round's lock.
type Orchestrator struct {
	store   db.Store
	costs   *CostLedger
	chat    ChatModel
	payouts *PayoutCoordinator
	locks   *roundLocks
}

func NewOrchestrator(store db.Store, costs *CostLedger, chat ChatModel, payouts *PayoutCoordinator) *Orchestrator {
	return &Orchestrator{
		store:   store,
		costs:   costs,
		chat:    chat,
		payouts: payouts,
		locks:   newRoundLocks(),
	}
}

// HandleTurn processes one submitted message. claimedCost must equal the
// authoritative price for the round's next message.
func (o *Orchestrator) HandleTurn(ctx context.Context, roundID string, claimedCost int64, message, payerAddress string) (TurnResult, error) {
	unlock := o.locks.lock(roundID)
	defer unlock()

	round, err := o.store.GetRound(ctx, roundID)
	if err != nil {
		return "", err
	}
	if round.Completed {
		return "", ErrRoundClosed
	}

	price, err := o.costs.PriceForNextMessage(ctx, roundID)
	if err != nil {
		return "", err
	}
	if price != claimedCost {
		return "", ErrCostMismatch
	}

	history, err := o.store.ListMessages(ctx, roundID)
	if err != nil {
		return "", err
	}
	turns := append(ProjectTurns(history), Turn{Role: genai.RoleUser, Text: message})

	outcome, err := o.chat.Converse(ctx, SystemPrompt(round.Belief), turns)
	if err != nil {
		return "", err
	}

	bank, err := o.costs.BankAmount(ctx, roundID)
	if err != nil {
		return "", err
	}
	// The pool as it will be once this message's cost is recorded.
	bankIncludingTurn := bank + claimedCost

	victory := false
	reply := outcome.Reply
	if outcome.Action != nil && outcome.Action.Name == TransferToolName && outcome.Action.Transfer {
		net, payErr := o.payouts.Payout(ctx, roundID, bankIncludingTurn, payerAddress)
		if payErr != nil {
			// Deliberate partial-failure choice: a failed payout degrades the
			// turn to non-winning rather than losing the charged cost.
			log.Printf("Payout failed for round %s: %v", roundID, payErr)
		} else {
			victory = true
			reply = victoryReply(net)
		}
	}
	if reply == "" {
		reply = "No content returned."
	}

	msg := &models.ChatMessage{
		RoundID:  round.ID,
		Address:  payerAddress,
		Content:  message,
		Response: reply,
		Cost:     claimedCost,
		Victory:  victory,
	}
	if err := o.store.AppendMessage(ctx, msg); err != nil {
		return "", err
	}

	if victory {
		return TurnVictory, nil
	}
	return TurnContinue, nil
}

func victoryReply(netAmount int64) string {
	return fmt.Sprintf("Congratulations! You took the whole bank of $%d (with platform fee already extracted). Spend this sum wisely!", netAmount)
}
