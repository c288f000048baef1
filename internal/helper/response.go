package helper

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type ResponseSuccess struct {
	Data interface{} `json:"data"`
}

type ResponseError struct {
	ErrorKind ErrorKind `json:"error_kind"`
	Error     string    `json:"error"`
}

type PaginationMeta struct {
	NextCursor  string   `json:"next_cursor,omitempty"`
	HasNext     bool     `json:"has_next"`
	DegradedIDs []string `json:"degraded_ids,omitempty"`
}

type ResponseWithPagination struct {
	Data interface{}    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	if data == nil {
		data = ""
	}
	WriteJSON(w, http.StatusOK, ResponseSuccess{
		Data: data,
	})
}

func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, ResponseSuccess{
		Data: data,
	})
}

func WriteSuccessWithPagination(w http.ResponseWriter, data interface{}, meta PaginationMeta) {
	WriteJSON(w, http.StatusOK, ResponseWithPagination{
		Data: data,
		Meta: meta,
	})
}

// WriteError never exposes the text of errors that are not AppErrors.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		slog.Error("Unhandled error reached the response writer", "error", err)
		appErr = NewPersistenceError("")
	}

	WriteJSON(w, appErr.Code, ResponseError{
		ErrorKind: appErr.Kind,
		Error:     appErr.Message,
	})
}
