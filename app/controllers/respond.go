package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"quill/app/models"
	"quill/app/repositories"
	"quill/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Response messages shared with the router and middleware.
const (
	MsgUnauthenticated    = "Unauthenticated."
	MsgForbidden          = "This action is unauthorized."
	MsgInvalidCredentials = "These credentials do not match our records."
	MsgBadJSON            = "Invalid JSON payload"
	MsgTooLarge           = "Request Entity Too Large"
	MsgNotFound           = "Not Found"
	MsgMethodNotAllowed   = "Method Not Allowed"
	MsgServerError        = "Server Error"
)

var errBadJSON = errors.New("invalid json payload")

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// SendJSON writes data as a JSON response with the given status.
func SendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// SendMessage writes a {"message": ...} body.
func SendMessage(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, errorBody{Message: message})
}

// sendError maps an error to its status and body. Unknown errors are logged
// and reported as a bare 500.
func sendError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	var nf *services.NotFoundError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		SendJSON(w, http.StatusUnprocessableEntity, errorBody{Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, services.ErrUnauthenticated):
		SendMessage(w, http.StatusUnauthorized, MsgUnauthenticated)
	case errors.Is(err, services.ErrInvalidCredentials):
		SendMessage(w, http.StatusUnauthorized, MsgInvalidCredentials)
	case errors.Is(err, services.ErrForbidden):
		SendMessage(w, http.StatusForbidden, MsgForbidden)
	case errors.As(err, &nf):
		SendMessage(w, http.StatusNotFound, nf.Error())
	case errors.Is(err, repositories.ErrNotFound):
		SendMessage(w, http.StatusNotFound, MsgNotFound)
	case errors.As(err, &tooLarge):
		SendMessage(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
	case errors.Is(err, errBadJSON):
		SendMessage(w, http.StatusBadRequest, MsgBadJSON)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		SendMessage(w, http.StatusInternalServerError, MsgServerError)
	}
}

// decodeJSON reads the request body into dst. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return errBadJSON
}

// pathID parses a numeric route variable. The routes only match digits, so
// failure means the value overflowed.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
