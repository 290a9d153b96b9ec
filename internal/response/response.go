// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response is the envelope of every API reply. Success mirrors Status for
// clients that only check a boolean.
type Response struct {
	Status  string      `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes resp with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, resp Response) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
		return err
	}
	return nil
}

// WriteSuccess writes a 200 reply carrying data
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{
		Status:  "success",
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError writes an error reply
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, Response{
		Status: "error",
		Error:  message,
	})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnauthorized, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message)
}

// WriteTooLarge is used when a request body exceeds the upload limit
func WriteTooLarge(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusRequestEntityTooLarge, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message)
}

// WriteUnavailable is used when an optional backend such as Cloud Storage is
// not configured
func WriteUnavailable(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusServiceUnavailable, message)
}
