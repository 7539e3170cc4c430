package view

import (
	"strings"

	"caintamart/models"
	"caintamart/state"
)

const DropdownSize = 10

type MessageView struct {
	ID             string   `json:"id"`
	Sender         string   `json:"sender"`
	RoleClass      string   `json:"roleClass"`
	Mine           bool     `json:"mine"`
	Lines          []string `json:"lines"`
	TimeLabel      string   `json:"timeLabel"`
	IsAutoResponse bool     `json:"isAutoResponse"`
}

type ChatWindow struct {
	ThreadID              string        `json:"threadId"`
	Title                 string        `json:"title"`
	Messages              []MessageView `json:"messages"`
	Unread                bool          `json:"unread"`
	AnchorBottomThreshold int           `json:"anchorBottomThreshold"`
	StickToBottom         bool          `json:"stickToBottom"`
}

type DropdownRow struct {
	ThreadID     string `json:"threadId"`
	CustomerName string `json:"customerName"`
	Preview      string `json:"preview"`
	LastBy       string `json:"lastBy"`
	TimeLabel    string `json:"timeLabel"`
	Unread       bool   `json:"unread"`
}

type AdminDropdown struct {
	Badge   int           `json:"badge"`
	Threads []DropdownRow `json:"threads"`
}

type Bubble struct {
	ThreadID string `json:"threadId"`
	Unread   bool   `json:"unread"`
}

func Message(m models.Message, viewer models.Role) MessageView {
	return MessageView{
		ID:             m.ID,
		Sender:         m.Sender,
		RoleClass:      "message-" + string(m.Role),
		Mine:           m.Role == viewer,
		Lines:          strings.Split(m.Text, "\n"),
		TimeLabel:      TimeLabel(m.Timestamp),
		IsAutoResponse: m.IsAutoResponse,
	}
}

// Window is the chat panel for viewer: the customer bubble window or the
// admin modal.
func Window(t models.ChatThread, viewer models.Role) ChatWindow {
	w := ChatWindow{
		ThreadID:              t.ID,
		Messages:              make([]MessageView, 0, len(t.Messages)),
		Unread:                t.UnreadFor(viewer),
		AnchorBottomThreshold: AnchorBottomThreshold,
		StickToBottom:         true,
	}
	if viewer == models.RoleAdmin {
		w.Title = t.CustomerName
		if w.Title == "" {
			w.Title = "Guest"
		}
	} else {
		w.Title = "Cainta Fresh Market Support"
	}
	for _, m := range t.Messages {
		w.Messages = append(w.Messages, Message(m, viewer))
	}
	return w
}

// Badge counts threads waiting on an admin.
func Badge(s state.Snapshot) int {
	n := 0
	for _, t := range s.Threads {
		if t.UnreadForAdmin {
			n++
		}
	}
	return n
}

// Dropdown is the admin header list: the most recent threads first.
func Dropdown(s state.Snapshot, limit int) AdminDropdown {
	d := AdminDropdown{Badge: Badge(s), Threads: []DropdownRow{}}
	for i, t := range s.Threads {
		if limit > 0 && i >= limit {
			break
		}
		name := t.CustomerName
		if name == "" {
			name = "Guest"
		}
		d.Threads = append(d.Threads, DropdownRow{
			ThreadID:     t.ID,
			CustomerName: name,
			Preview:      t.LastMessage,
			LastBy:       t.LastMessageBy,
			TimeLabel:    TimeLabel(t.LastMessageAt),
			Unread:       t.UnreadForAdmin,
		})
	}
	return d
}

func CustomerBubble(t models.ChatThread) Bubble {
	return Bubble{ThreadID: t.ID, Unread: t.UnreadForCustomer}
}
