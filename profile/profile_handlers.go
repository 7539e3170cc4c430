package profile

import (
	"errors"
	"net/http"

	"caintamart/filemgr"
	"caintamart/models"
	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
)

var errCodes = map[error]int{
	ErrUserNotFound: http.StatusNotFound,
	ErrNotSubmitted: http.StatusConflict,
}

// Handler serves the profile endpoints. Uploads go through up.
type Handler struct {
	svc *Service
	up  filemgr.Uploader
}

func NewHandler(svc *Service, up filemgr.Uploader) *Handler {
	return &Handler{svc: svc, up: up}
}

type profileResponse struct {
	Profile models.Profile `json:"profile"`
	Status  Status         `json:"status"`
	IDTypes []string       `json:"idTypes"`
}

func respond(w http.ResponseWriter, code int, p models.Profile) {
	utils.RespondWithJSON(w, code, profileResponse{Profile: p, Status: StatusOf(p), IDTypes: IDTypes})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := h.svc.Get(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	respond(w, http.StatusOK, p)
}

// SubmitProfile reads the multipart profile form with an optional
// "idFile" image.
func (h *Handler) SubmitProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := filemgr.ParseForm(w, r); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub := Submission{
		FullName: r.FormValue("fullName"),
		Birthday: r.FormValue("birthday"),
		Phone:    r.FormValue("phone"),
		Street:   r.FormValue("street"),
		Barangay: r.FormValue("barangay"),
		City:     r.FormValue("city"),
		Province: r.FormValue("province"),
		IDType:   r.FormValue("idType"),
	}

	var upload *filemgr.Upload
	up, err := filemgr.SaveFormFile(r, "idFile", h.up)
	switch {
	case err == nil:
		upload = &up
	case errors.Is(err, filemgr.ErrNoFile):
	case filemgr.IsClientError(err):
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"error": err.Error(), "field": "idFile"})
		return
	default:
		utils.RespondWithErr(w, err, errCodes)
		return
	}

	p, err := h.svc.Submit(r.Context(), utils.GetUserIDFromRequest(r), sub, upload)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.svc.Pending(r.Context(), utils.ActorFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.svc.Verify(r.Context(), utils.ActorFromRequest(r), ps.ByName("uid"))
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	respond(w, http.StatusOK, p)
}

type denyRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Deny(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req denyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	p, err := h.svc.Deny(r.Context(), utils.ActorFromRequest(r), ps.ByName("uid"), req.Reason)
	if err != nil {
		utils.RespondWithErr(w, err, errCodes)
		return
	}
	respond(w, http.StatusOK, p)
}
