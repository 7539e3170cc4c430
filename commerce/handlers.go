package commerce

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caintamart/models"
	"caintamart/receipt"
	"caintamart/state"
	"caintamart/utils"
	"caintamart/view"

	"github.com/julienschmidt/httprouter"
)

// Handler serves the catalog, cart, checkout and order endpoints.
type Handler struct {
	svc      *Service
	app      *state.App
	receipts *receipt.Renderer
	now      func() time.Time
}

func NewHandler(svc *Service, app *state.App, receipts *receipt.Renderer) *Handler {
	return &Handler{svc: svc, app: app, receipts: receipts, now: time.Now}
}

type qtyRequest struct {
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	Preordered bool   `json:"preordered,omitempty"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type preorderRequest struct {
	Days int `json:"days"`
}

func (h *Handler) cartView(w http.ResponseWriter, r *http.Request, c models.Cart) {
	fee, err := h.svc.deliveryFee(r.Context())
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.Cart(c, fee))
}

// ---- catalog ----

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f := view.FiltersFromQuery(r.URL.Query())
	utils.RespondWithJSON(w, http.StatusOK, view.Catalog(h.app.Snapshot(), f, h.now()))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, ok := h.app.Snapshot().Product(ps.ByName("id"))
	if !ok {
		utils.RespondWithErr(w, ErrProductNotFound, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.Card(p, h.now()))
}

// ---- cart ----

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c, err := h.svc.Cart(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	h.cartView(w, r, c)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req qtyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	c, err := h.svc.AddToCart(r.Context(), utils.GetUserIDFromRequest(r), req.ProductID, req.Quantity)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	h.cartView(w, r, c)
}

func (h *Handler) PreOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req qtyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	c, err := h.svc.PreOrderItem(r.Context(), utils.GetUserIDFromRequest(r), req.ProductID, req.Quantity)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	h.cartView(w, r, c)
}

// UpdateCartItem sets the quantity of the line named by the path.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req qtyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	c, err := h.svc.ChangeCartItemQuantity(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("productId"), req.Preordered, req.Quantity)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	h.cartView(w, r, c)
}

// RemoveCartItem drops a line; ?preordered=true targets the preorder line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	preordered, _ := strconv.ParseBool(r.URL.Query().Get("preordered"))
	c, err := h.svc.RemoveCartItem(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("productId"), preordered)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	h.cartView(w, r, c)
}

// ---- checkout and orders ----

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sum, err := h.svc.Checkout(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sum)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var form OrderForm
	if err := utils.DecodeJSON(r, &form); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	o, err := h.svc.PlaceOrder(r.Context(), utils.GetUserIDFromRequest(r), form)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"orderId": o.ID,
		"order":   view.Row(o),
		"message": "Order placed! We will contact you at " + o.ContactNumber,
	})
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid := utils.GetUserIDFromRequest(r)
	if uid == "" {
		utils.RespondWithErr(w, ErrAuthRequired, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.CustomerOrders(h.app.Snapshot(), uid))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	o, err := h.svc.Order(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"order": o, "row": view.Row(o)})
}

// Receipt streams the order receipt PDF.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	o, err := h.svc.Order(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	pdf, err := h.receipts.Render(o)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", o.ID+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ---- admin ----

func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	utils.RespondWithJSON(w, http.StatusOK, view.AdminOrders(h.app.Snapshot(), status))
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	o, err := h.svc.AdvanceOrder(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.Row(o))
}

func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	o, err := h.svc.SetOrderStatus(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"), req.Status)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.Row(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.DeleteOrder(r.Context(), utils.ActorFromRequest(r), ps.ByName("id")); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), utils.ActorFromRequest(r), in)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.DeleteProduct(r.Context(), utils.ActorFromRequest(r), ps.ByName("id")); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartPreorder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req preorderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	p, err := h.svc.StartPreorder(r.Context(), utils.ActorFromRequest(r), ps.ByName("id"), req.Days)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view.Card(p, h.now()))
}
