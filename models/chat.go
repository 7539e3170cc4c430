package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Opposite returns the role on the other side of a thread.
func (r Role) Opposite() Role {
	if r == RoleAdmin {
		return RoleCustomer
	}
	return RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

const ThreadOpen = "open"

// ChatThread is stored at chats/{threadId}; its messages live in the
// chats/{threadId}/messages list and are attached by the projection.
type ChatThread struct {
	ID                string    `json:"id" bson:"id"`
	CustomerName      string    `json:"customerName" bson:"customerName"`
	UserID            string    `json:"userId,omitempty" bson:"userId,omitempty"`
	Status            string    `json:"status" bson:"status"`
	LastMessageAt     time.Time `json:"lastMessageAt" bson:"lastMessageAt"`
	LastMessageBy     string    `json:"lastMessageBy" bson:"lastMessageBy"`
	LastMessage       string    `json:"lastMessage" bson:"lastMessage"`
	UnreadForCustomer bool      `json:"unreadForCustomer" bson:"unreadForCustomer"`
	UnreadForAdmin    bool      `json:"unreadForAdmin" bson:"unreadForAdmin"`
	AutoResponseSent  bool      `json:"autoResponseSent" bson:"autoResponseSent"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	Messages          []Message `json:"messages,omitempty" bson:"-"`
}

// UnreadFor returns the unread flag that belongs to role.
func (t ChatThread) UnreadFor(role Role) bool {
	if role == RoleAdmin {
		return t.UnreadForAdmin
	}
	return t.UnreadForCustomer
}

// Message is immutable once appended.
type Message struct {
	ID             string    `json:"id,omitempty" bson:"id,omitempty"`
	Sender         string    `json:"sender" bson:"sender"`
	Role           Role      `json:"role" bson:"role"`
	Text           string    `json:"text" bson:"text"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	IsAutoResponse bool      `json:"isAutoResponse" bson:"isAutoResponse"`
}
