// Package response renders the API's single envelope shape:
// {error: bool, message: string, data: T}. Empty data is an empty array,
// matching what the web client expects.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/val/markdown-notes/internal/domain"
)

type Envelope struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// EmptyData is the data payload for responses that carry none.
var EmptyData = []interface{}{}

func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	if data == nil {
		data = EmptyData
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: false, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: true, Message: message, Data: EmptyData})
}

// HandleError is the central responder. Domain errors keep their status and
// message; anything else is logged and degrades to a fixed 500 with no
// internal detail crossing the boundary.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		Fail(w, domainErr.Status, domainErr.Message)
		return
	}

	slog.ErrorContext(r.Context(), "unhandled error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	Fail(w, http.StatusInternalServerError, "Internal server error")
}
