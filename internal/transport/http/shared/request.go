package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
)

// DecodeJSON reads one JSON value from the body into dst. On failure it has
// already answered the request.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// Confirmed reads the confirm query flag destructive operations require.
func Confirmed(r *http.Request) bool {
	ok, err := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return err == nil && ok
}
