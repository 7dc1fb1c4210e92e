package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"snipbin/pkg/domain"
	"snipbin/svc/util"
)

type SnippetReq struct {
	Title    string `json:"title"`
	Code     string `json:"code"`
	IsPublic *bool  `json:"is_public,omitempty"`
}

type SnippetResp struct {
	UUID       string    `json:"uuid"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	AuthorName string    `json:"author_name"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
	ShareLink  string    `json:"share_link"`
}

func (h *Hdl) snippetResp(sn *domain.Snippet) SnippetResp {
	return SnippetResp{
		UUID:       sn.UUID,
		Title:      sn.Title,
		Code:       sn.Code,
		AuthorName: sn.AuthorName,
		IsPublic:   sn.IsPublic,
		CreatedAt:  sn.CreatedAt,
		ShareLink:  h.snippet.LinkFor(sn.UUID),
	}
}

func (h *Hdl) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	user := UserFromContext(r.Context())
	var req SnippetReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err, requestID)
		return
	}
	// Visibility defaults to public when the field is omitted.
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	sn, err := h.snippet.Create(r.Context(), user, domain.SnippetCreateParams{
		Title:    req.Title,
		Code:     req.Code,
		IsPublic: isPublic,
	})
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("snippet create failed")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, h.snippetResp(sn))
}

// GetSnippet is deliberately unauthenticated: the UUID is the sharing
// capability, and share links must work for anyone holding one.
func (h *Hdl) GetSnippet(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "uuid")
	sn, err := h.snippet.Get(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("uuid", id).Msg("snippet get failed")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, h.snippetResp(sn))
}

func (h *Hdl) AllSnippets(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	user := UserFromContext(r.Context())
	snippets, err := h.snippet.ListVisibleTo(r.Context(), user)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	resp := make([]SnippetResp, 0, len(snippets))
	for i := range snippets {
		resp = append(resp, h.snippetResp(&snippets[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Hdl) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "uuid")
	var req SnippetReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err, requestID)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	sn, err := h.snippet.Update(r.Context(), id, user, domain.SnippetUpdateParams{
		Title:    req.Title,
		Code:     req.Code,
		IsPublic: isPublic,
	})
	if err != nil {
		log.Warn().Err(err).Str("uuid", id).Int64("user_id", user.ID).Msg("snippet update failed")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, h.snippetResp(sn))
}

func (h *Hdl) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "uuid")
	if err := h.snippet.Delete(r.Context(), id, user); err != nil {
		log.Warn().Err(err).Str("uuid", id).Int64("user_id", user.ID).Msg("snippet delete failed")
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Snippet deleted"})
}

func (h *Hdl) ShareSnippet(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "uuid")
	link, err := h.snippet.ShareLink(r.Context(), id)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_link": link})
}
