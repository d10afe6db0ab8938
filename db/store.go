package db

import (
	"context"
	"errors"

	"arguebank/models"
)

var (
	// ErrNotFound is returned when a round id does not resolve to a round.
	ErrNotFound = errors.New("round not found")
	// ErrNoRounds is returned by LatestRound when no round has been created yet.
	ErrNoRounds = errors.New("no rounds exist")
	// ErrUnavailable wraps backend failures. Financial reads must surface it
	// instead of defaulting to zero, or a message could be under-priced.
	ErrUnavailable = errors.New("store unavailable")
)

// Store owns persistence of rounds and their message log. Every other
// component reads and mutates round state exclusively through it.
type Store interface {
	CreateRound(ctx context.Context, belief, shortDesc string) (*models.Round, error)
	GetRound(ctx context.Context, id string) (*models.Round, error)
	LatestRound(ctx context.Context) (*models.Round, error)
	MarkCompleted(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, roundID string) ([]models.ChatMessage, error)
	CountMessages(ctx context.Context, roundID string) (int64, error)
	SumCost(ctx context.Context, roundID string) (int64, error)
}
