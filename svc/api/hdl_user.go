package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"snipbin/pkg/domain"
	"snipbin/svc/util"
)

type RegisterReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResp struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Hdl) Register(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	var req RegisterReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err, requestID)
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.Name == "" || req.Password == "" {
		writeErr(w, domain.ErrValidation, requestID)
		return
	}
	id, err := h.account.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		log.Warn().Err(err).Str("email", util.RedactEmail(req.Email)).Msg("registration failed")
		writeErr(w, err, requestID)
		return
	}
	log.Info().Int64("user_id", id).Msg("registration complete")
	writeJSON(w, http.StatusOK, map[string]string{"response": "User created successfully"})
}

func (h *Hdl) Login(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	var req LoginReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err, requestID)
		return
	}
	token, _, err := h.account.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().
			Str("email", util.RedactEmail(req.Email)).
			Str("ip", util.RedactIP(r.RemoteAddr)).
			Msg("login failed")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, TokenResp{AccessToken: token, TokenType: "bearer"})
}

// TokenForm is the OAuth2 password-grant flavor of Login: form fields
// username (the email) and password, same token envelope out.
func (h *Hdl) TokenForm(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	if err := r.ParseForm(); err != nil {
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeErr(w, domain.ErrValidation, requestID)
		return
	}
	token, _, err := h.account.Login(r.Context(), email, password)
	if err != nil {
		log.Warn().
			Str("email", util.RedactEmail(email)).
			Str("ip", util.RedactIP(r.RemoteAddr)).
			Msg("form login failed")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, TokenResp{AccessToken: token, TokenType: "bearer"})
}

func (h *Hdl) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, UserResp{ID: user.ID, Name: user.Name, Email: user.Email})
}

func (h *Hdl) GetUser(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		writeErr(w, domain.ErrValidation, requestID)
		return
	}
	user, err := h.account.GetUser(r.Context(), id)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, UserResp{ID: user.ID, Name: user.Name, Email: user.Email})
}
