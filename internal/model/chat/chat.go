package chat

import "time"

// Chat groups the messages of one named conversation.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
