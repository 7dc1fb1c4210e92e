package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"snipbin/cfg"
	"snipbin/pkg/domain"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

const maxRequestSize = 1 * 1024 * 1024

type Hdl struct {
	account *svc.Account
	snippet *svc.Snippet
	cfg     *cfg.Cfg
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		errorMsg = "Internal server error"
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}

// decodeJSON enforces the JSON content type, bounds the body and rejects
// unknown fields. Returns a domain error ready for writeErr.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return domain.ErrInvalidRequest
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return domain.ErrInvalidRequest
		}
		return domain.ErrValidation
	}
	return nil
}
