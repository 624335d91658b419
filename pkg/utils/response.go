package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

// APIErrorBody is the storefront's error envelope.
type APIErrorBody struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func WriteError(w http.ResponseWriter, status int, message, description string) {
	WriteJSON(w, status, APIErrorBody{Status: status, Message: message, Description: description})
}
