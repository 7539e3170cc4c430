package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"caintamart/hub"
	"caintamart/models"
	"caintamart/state"
	"caintamart/utils"
	"caintamart/view"

	"github.com/julienschmidt/httprouter"
)

var errCodes = map[error]int{ErrThreadNotFound: http.StatusNotFound}

// Handler serves the chat JSON API and websocket endpoints.
type Handler struct {
	sync *Synchronizer
	app  *state.App
	hub  *hub.Hub
	now  func() time.Time
}

func NewHandler(sync *Synchronizer, app *state.App, h *hub.Hub) *Handler {
	return &Handler{sync: sync, app: app, hub: h, now: time.Now}
}

type sendRequest struct {
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
}

type inboundFrame struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (h *Handler) customerName(r *http.Request, given string) string {
	a := utils.ActorFromRequest(r)
	switch {
	case a.Name != "":
		return a.Name
	case a.Email != "":
		return a.Email
	case strings.TrimSpace(given) != "":
		return strings.TrimSpace(given)
	}
	return "Guest"
}

func adminName(r *http.Request) string {
	if a := utils.ActorFromRequest(r); a.Name != "" {
		return a.Name
	}
	return "Admin"
}

func (h *Handler) thread(ctx context.Context, id string) models.ChatThread {
	t, err := h.sync.Thread(ctx, id)
	if err != nil {
		t = models.ChatThread{ID: id}
	}
	return t
}

// GetThread resolves the caller's thread and returns the customer window.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := ResolveThreadID(utils.GetUserIDFromRequest(r), CookieSession{W: w, R: r}, h.now())
	utils.RespondWithJSON(w, http.StatusOK, view.WithScroll(view.Window(h.thread(r.Context(), id), models.RoleCustomer), r.URL.Query()))
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req sendRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	uid := utils.GetUserIDFromRequest(r)
	id := ResolveThreadID(uid, CookieSession{W: w, R: r}, h.now())
	msg, err := h.sync.SendMessage(r.Context(), id, h.customerName(r, req.Name), req.Text, models.RoleCustomer, uid)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, view.Message(*msg, models.RoleCustomer))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := ResolveThreadID(utils.GetUserIDFromRequest(r), CookieSession{W: w, R: r}, h.now())
	if err := h.sync.MarkRead(r.Context(), id, models.RoleCustomer); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"threadId": id, "unread": false})
}

// ListThreads is the admin dropdown without a row limit.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, view.Dropdown(h.app.Snapshot(), 0))
}

func (h *Handler) AdminThread(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := h.sync.Thread(r.Context(), ps.ByName("threadid"))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.WithScroll(view.Window(t, models.RoleAdmin), r.URL.Query()))
}

func (h *Handler) AdminReply(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req sendRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	msg, err := h.sync.SendMessage(r.Context(), ps.ByName("threadid"), adminName(r), req.Text, models.RoleAdmin, "")
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, view.Message(*msg, models.RoleAdmin))
}

func (h *Handler) AdminMarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("threadid")
	if err := h.sync.MarkRead(r.Context(), id, models.RoleAdmin); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"threadId": id, "unread": false})
}

// CustomerSocket joins the caller's thread room. Guests must already hold
// the session cookie handed out by GetThread.
func (h *Handler) CustomerSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid := utils.GetUserIDFromRequest(r)
	id := uid
	if id == "" {
		id = CookieSession{W: w, R: r}.Get(GuestCookie)
		if !IsGuestID(id) {
			http.Error(w, "Open the chat before connecting", http.StatusBadRequest)
			return
		}
	}
	room := ThreadRoom(id)
	name := h.customerName(r, r.URL.Query().Get("name"))
	h.serve(w, r, room, id, func(ctx context.Context, in inboundFrame) error {
		switch in.Action {
		case "send":
			if in.Name != "" && uid == "" {
				name = in.Name
			}
			_, err := h.sync.SendMessage(ctx, id, name, in.Text, models.RoleCustomer, uid)
			return err
		case "read":
			return h.sync.MarkRead(ctx, id, models.RoleCustomer)
		}
		return nil
	})
}

// AdminSocket joins the admin room, or one thread's modal room when a
// thread id is given.
func (h *Handler) AdminSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	threadID := ps.ByName("threadid")
	room := AdminRoom
	if threadID != "" {
		room = AdminThreadRoom(threadID)
	}
	name := adminName(r)
	h.serve(w, r, room, utils.GetUserIDFromRequest(r), func(ctx context.Context, in inboundFrame) error {
		if threadID == "" {
			return nil
		}
		switch in.Action {
		case "send":
			_, err := h.sync.SendMessage(ctx, threadID, name, in.Text, models.RoleAdmin, "")
			return err
		case "read":
			return h.sync.MarkRead(ctx, threadID, models.RoleAdmin)
		}
		return nil
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, room, userID string, handle func(context.Context, inboundFrame) error) {
	initial := InitialFrames(h.app.Snapshot(), room)
	err := h.hub.Upgrade(w, r, room, userID, initial, func(c *hub.Client, raw []byte) {
		var in inboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Printf("[chat] invalid frame in %s: %v", room, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := handle(ctx, in); err != nil {
			log.Printf("[chat] %s in %s: %v", in.Action, room, err)
		}
	})
	if err != nil {
		log.Printf("[chat] upgrade %s: %v", room, err)
	}
}
