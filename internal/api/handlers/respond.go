package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorResponse is the shared error shape; details is dropped in production
type errorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

// RespondError writes {success:false, status, message, details?}
func RespondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{
		Success: false,
		Status:  status,
		Message: message,
		Details: details,
	})
}

// NotFound answers unmatched routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusNotFound, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path), "")
}
