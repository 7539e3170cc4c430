package chat

import (
	"encoding/json"
	"log"
	"strings"

	"caintamart/models"
	"caintamart/state"
	"caintamart/view"
)

// Publisher delivers frames to rooms; HasClients is the visibility check.
type Publisher interface {
	HasClients(room string) bool
	Publish(room string, data []byte)
}

const (
	SurfaceAdminBadge     = "adminBadge"
	SurfaceAdminDropdown  = "adminDropdown"
	SurfaceAdminModal     = "adminModal"
	SurfaceCustomerBubble = "customerBubble"
	SurfaceCustomerWindow = "customerWindow"
)

const AdminRoom = "admin"

func AdminThreadRoom(threadID string) string { return "admin:" + threadID }
func ThreadRoom(threadID string) string      { return "thread:" + threadID }

// Frame is the outbound websocket payload.
type Frame struct {
	Surface string `json:"surface"`
	Data    any    `json:"data"`
}

// Surfaces re-derives every chat surface after a chats change and pushes
// each one only to rooms that currently have viewers.
type Surfaces struct {
	pub Publisher
}

func NewSurfaces(pub Publisher) *Surfaces {
	return &Surfaces{pub: pub}
}

// Attach subscribes the surfaces to chat state changes. The returned func
// detaches them.
func (s *Surfaces) Attach(app *state.App) func() {
	return app.OnChange(func(snap state.Snapshot, kind state.Kind) {
		if kind == state.Chats {
			s.Refresh(snap)
		}
	})
}

func (s *Surfaces) Refresh(snap state.Snapshot) {
	if s.pub.HasClients(AdminRoom) {
		s.send(AdminRoom, SurfaceAdminBadge, view.Badge(snap))
		s.send(AdminRoom, SurfaceAdminDropdown, view.Dropdown(snap, view.DropdownSize))
	}
	for _, t := range snap.Threads {
		if room := AdminThreadRoom(t.ID); s.pub.HasClients(room) {
			s.send(room, SurfaceAdminModal, view.Window(t, models.RoleAdmin))
		}
		if room := ThreadRoom(t.ID); s.pub.HasClients(room) {
			s.send(room, SurfaceCustomerBubble, view.CustomerBubble(t))
			s.send(room, SurfaceCustomerWindow, view.Window(t, models.RoleCustomer))
		}
	}
}

func (s *Surfaces) send(room, surface string, data any) {
	b, err := json.Marshal(Frame{Surface: surface, Data: data})
	if err != nil {
		log.Printf("[chat] encode %s: %v", surface, err)
		return
	}
	s.pub.Publish(room, b)
}

// InitialFrames are the frames a newly connected viewer of room needs.
func InitialFrames(snap state.Snapshot, room string) [][]byte {
	var frames []Frame
	if room == AdminRoom {
		frames = append(frames,
			Frame{Surface: SurfaceAdminBadge, Data: view.Badge(snap)},
			Frame{Surface: SurfaceAdminDropdown, Data: view.Dropdown(snap, view.DropdownSize)})
	} else if id, ok := strings.CutPrefix(room, "admin:"); ok {
		t, _ := snap.Thread(id)
		t.ID = id
		frames = append(frames, Frame{Surface: SurfaceAdminModal, Data: view.Window(t, models.RoleAdmin)})
	} else if id, ok := strings.CutPrefix(room, "thread:"); ok {
		t, _ := snap.Thread(id)
		t.ID = id
		frames = append(frames,
			Frame{Surface: SurfaceCustomerBubble, Data: view.CustomerBubble(t)},
			Frame{Surface: SurfaceCustomerWindow, Data: view.Window(t, models.RoleCustomer)})
	}
	out := make([][]byte, 0, len(frames))
	for _, f := range frames {
		if b, err := json.Marshal(f); err == nil {
			out = append(out, b)
		}
	}
	return out
}
