// Package admin serves the admin dashboard and the audit logs.
package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/profile"
	"caintamart/state"
	"caintamart/utils"
	"caintamart/view"

	"github.com/julienschmidt/httprouter"
)

// Stats is the dashboard summary.
type Stats struct {
	Products             int                        `json:"products"`
	LowStock             int                        `json:"lowStock"`
	Preorders            int                        `json:"preorders"`
	OrdersByStatus       map[models.OrderStatus]int `json:"ordersByStatus"`
	Revenue              float64                    `json:"revenue"`
	RevenueLabel         string                     `json:"revenueLabel"`
	PendingVerifications int                        `json:"pendingVerifications"`
	UnreadChats          int                        `json:"unreadChats"`
}

// Compute derives every figure except pending verifications from snap.
func Compute(snap state.Snapshot) Stats {
	st := Stats{OrdersByStatus: map[models.OrderStatus]int{}}
	for _, status := range models.StatusProgression {
		st.OrdersByStatus[status] = 0
	}
	st.Products = len(snap.Products)
	for _, p := range snap.Products {
		if p.Preorder {
			st.Preorders++
		} else if p.Quantity < view.LowStock {
			st.LowStock++
		}
	}
	for _, o := range snap.Orders {
		st.OrdersByStatus[o.Status]++
		if o.Status == models.StatusDelivered {
			st.Revenue += o.Total
		}
	}
	st.Revenue = models.Round2(st.Revenue)
	st.RevenueLabel = view.PriceLabel(st.Revenue)
	st.UnreadChats = view.Badge(snap)
	return st
}

type Handler struct {
	store    docstore.Store
	app      *state.App
	profiles *profile.Service
}

func NewHandler(store docstore.Store, app *state.App, profiles *profile.Service) *Handler {
	return &Handler{store: store, app: app, profiles: profiles}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st := Compute(h.app.Snapshot())
	pending, err := h.profiles.Pending(r.Context(), utils.ActorFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	st.PendingVerifications = len(pending)
	utils.RespondWithJSON(w, http.StatusOK, st)
}

// DeleteLogs returns deleteLogs newest first.
func DeleteLogs(ctx context.Context, store docstore.Store) ([]models.DeleteLog, error) {
	recs, err := store.List(ctx, "deleteLogs")
	if err != nil {
		return nil, fmt.Errorf("admin: list delete logs: %w", err)
	}
	out := make([]models.DeleteLog, 0, len(recs))
	for _, rec := range recs {
		var l models.DeleteLog
		if err := rec.Decode(&l); err != nil {
			log.Printf("[admin] skip delete log %s: %v", rec.ID, err)
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	return out, nil
}

// DenialLogs returns denialLogs newest first.
func DenialLogs(ctx context.Context, store docstore.Store) ([]models.DenialLog, error) {
	recs, err := store.List(ctx, "denialLogs")
	if err != nil {
		return nil, fmt.Errorf("admin: list denial logs: %w", err)
	}
	out := make([]models.DenialLog, 0, len(recs))
	for _, rec := range recs {
		var l models.DenialLog
		if err := rec.Decode(&l); err != nil {
			log.Printf("[admin] skip denial log %s: %v", rec.ID, err)
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeniedAt.After(out[j].DeniedAt) })
	return out, nil
}

func (h *Handler) GetDeleteLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logs, err := DeleteLogs(r.Context(), h.store)
	if err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, logs)
}

func (h *Handler) GetDenialLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logs, err := DenialLogs(r.Context(), h.store)
	if err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, logs)
}
