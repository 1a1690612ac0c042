package httpserver

import (
    "encoding/json"
    "net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) error {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    return json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data any) error {
    return writeJSON(w, status, map[string]any{"success": true, "data": data})
}
