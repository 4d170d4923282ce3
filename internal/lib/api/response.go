package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Written *int     `json:"written,omitempty"`
	Total   *int     `json:"total,omitempty"`
}

func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteError(w, r, status, ErrorResponse{Error: msg})
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
