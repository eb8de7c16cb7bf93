package httpapi

import (
	"encoding/json"
	"net/http"

	pkgerrors "niis/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates coded domain errors into the JSON error envelope.
// Internal details are never echoed to clients.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != pkgerrors.CodeInternal && code != pkgerrors.CodeComputation {
		if msg := pkgerrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	writeJSON(w, pkgerrors.ToHTTPStatus(code), body)
}
