package model

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatTurn is one message of a support conversation.
type ChatTurn struct {
	Role ChatRole `json:"role" validate:"required,oneof=user model"`
	Text string   `json:"text" validate:"required,max=4000"`
}
