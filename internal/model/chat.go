package model

import "time"

// ChatMessage is one entry in the ledger's chat widget.
type ChatMessage struct {
	CreatedAt time.Time
	Nickname  string
	Message   string
	ID        int64
}
