package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Round is one game session: the agent defends a single belief statement
// and all paid messages accrue into the round's bank until a payout closes it.
type Round struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Belief    string             `json:"topic" bson:"belief"`
	ShortDesc string             `json:"short_desc" bson:"shortDesc"`
	Completed bool               `json:"completed" bson:"completed"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// ChatMessage is one paid turn: the user's text, the agent's reply, and the
// cost charged for it. Victory is true on at most one message per round.
type ChatMessage struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RoundID   primitive.ObjectID `json:"roundId" bson:"roundId"`
	Address   string             `json:"address,omitempty" bson:"address,omitempty"`
	Content   string             `json:"content" bson:"content"`
	Response  string             `json:"response" bson:"response"`
	Cost      int64              `json:"cost" bson:"cost"`
	Victory   bool               `json:"victory" bson:"victory"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
