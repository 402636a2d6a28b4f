package model

import "time"

type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "approved"
	ModerationPending  ModerationStatus = "pending"
	ModerationRejected ModerationStatus = "rejected"
)

type ForumPost struct {
	ID               int64            `json:"id"`
	ParentID         *int64           `json:"parent_id,omitempty"` // nil для корневого поста
	AuthorID         int64            `json:"-"`
	AuthorAlias      string           `json:"author_alias"`
	Category         string           `json:"category"`
	Title            string           `json:"title,omitempty"`
	Body             string           `json:"body"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	Flags            []string         `json:"flags,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`

	Replies []*ForumPost `json:"replies,omitempty"`
}

// ForumCategories lists the peer support topics a post can be filed under.
var ForumCategories = []string{
	"academic",
	"career",
	"family",
	"relationships",
	"financial",
	"mental-health",
	"campus",
}

func IsForumCategory(c string) bool {
	for _, known := range ForumCategories {
		if c == known {
			return true
		}
	}
	return false
}
