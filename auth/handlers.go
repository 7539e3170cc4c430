package auth

import (
	"errors"
	"net/http"

	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
)

func respondErr(w http.ResponseWriter, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		utils.RespondWithJSON(w, ae.Status, utils.M{"error": ae.Message, "code": ae.Code})
		return
	}
	utils.RespondWithErr(w, err, nil)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type codeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword,omitempty"`
}

func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		respondErr(w, err)
		return
	}
	u, err := s.Register(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"user":    u,
		"message": "Account created. Check your email for a verification code.",
	})
}

func (s *Service) VerifyEmailHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in codeRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		respondErr(w, err)
		return
	}
	if err := s.VerifyEmail(r.Context(), in.Email, in.Code); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Email verified"})
}

func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		respondErr(w, err)
		return
	}
	sess, err := s.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// LogoutHandler is stateless; the client drops its token.
func (s *Service) LogoutHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Logged out successfully"})
}

func (s *Service) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in codeRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		respondErr(w, err)
		return
	}
	if err := s.RequestPasswordReset(r.Context(), in.Email); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "A reset code was sent to your email"})
}

func (s *Service) ResetPasswordHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in codeRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		respondErr(w, err)
		return
	}
	if err := s.ResetPassword(r.Context(), in.Email, in.Code, in.NewPassword); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Password updated. You can now log in."})
}

func (s *Service) MeHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.Me(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}
