package entities

import "time"

// AgentExchange is the persisted transcript of one chat agent turn: the user
// message, the final reply, and the tools the model invoked along the way.
type AgentExchange struct {
	ID           string    `json:"id" db:"id"`
	UserMessage  string    `json:"user_message" db:"user_message"`
	Reply        string    `json:"reply" db:"reply"`
	ToolsInvoked []string  `json:"tools_invoked" db:"-"`
	Iterations   int       `json:"iterations" db:"iterations"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
