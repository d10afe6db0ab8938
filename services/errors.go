package services

import "errors"

var (
	// ErrCostMismatch means the client-claimed price differs from the
	// authoritative price, e.g. a stale client racing another payer.
	ErrCostMismatch = errors.New("incorrect message cost")
	// ErrRoundClosed means the round already paid out; no further turns
	// may be charged against it.
	ErrRoundClosed = errors.New("round already completed")
	// ErrAlreadyPaidOut means a payout was attempted on a completed round.
	ErrAlreadyPaidOut = errors.New("round already paid out")
	// ErrInference wraps chat inference failures; the turn is aborted and
	// nothing is persisted.
	ErrInference = errors.New("inference service error")
)
