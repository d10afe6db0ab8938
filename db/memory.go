package db

import (
	"context"
	"sync"
	"time"

	"arguebank/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory Store used by tests and local development.
type MemStore struct {
	mu       sync.Mutex
	rounds   []*models.Round
	messages map[string][]models.ChatMessage // keyed by round id hex
}

func NewMemStore() *MemStore {
	return &MemStore{messages: make(map[string][]models.ChatMessage)}
}

func (s *MemStore) CreateRound(ctx context.Context, belief, shortDesc string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round := &models.Round{
		ID:        primitive.NewObjectID(),
		Belief:    belief,
		ShortDesc: shortDesc,
		CreatedAt: time.Now().UTC(),
	}
	s.rounds = append(s.rounds, round)
	return copyRound(round), nil
}

func (s *MemStore) GetRound(ctx context.Context, id string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.ID.Hex() == id {
			return copyRound(r), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) LatestRound(ctx context.Context) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rounds) == 0 {
		return nil, ErrNoRounds
	}
	return copyRound(s.rounds[len(s.rounds)-1]), nil
}

func (s *MemStore) MarkCompleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.ID.Hex() == id {
			r.Completed = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	key := msg.RoundID.Hex()
	s.messages[key] = append(s.messages[key], *msg)
	return nil
}

func (s *MemStore) ListMessages(ctx context.Context, roundID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[roundID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemStore) CountMessages(ctx context.Context, roundID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages[roundID])), nil
}

func (s *MemStore) SumCost(ctx context.Context, roundID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, m := range s.messages[roundID] {
		total += m.Cost
	}
	return total, nil
}

func copyRound(r *models.Round) *models.Round {
	dup := *r
	return &dup
}
