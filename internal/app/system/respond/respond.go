// internal/app/system/respond/respond.go
//
// Package respond reads JSON request bodies and writes the JSON envelope
// every endpoint answers with:
//
//	{ "success": true|false, "message": "...", "data": ..., "id": "...", "exists": bool }
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MsgNoData is the message sent with an empty list.
const MsgNoData = "no data"

// MsgFound is the message sent with a non-empty result.
const MsgFound = "data found"

// maxBody bounds request bodies.
const maxBody = 1 << 20

// Envelope is the response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	ID      string `json:"id,omitempty"`
	Exists  *bool  `json:"exists,omitempty"`
}

// Body decodes a JSON object body. An empty body yields an empty map.
func Body(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body)
	if errors.Is(err, io.EOF) {
		return body, nil
	}
	if err != nil {
		return nil, apperr.Validation("request body must be a JSON object")
	}
	return body, nil
}

// JSON writes env with status.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 acknowledgement.
func OK(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

// Created writes a 201 acknowledgement.
func Created(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: msg})
}

// List writes a 200 list. An empty list is still a success, flagged with
// MsgNoData.
func List[T any](w http.ResponseWriter, items []T) {
	env := Envelope{Success: true, Message: MsgFound, Data: items}
	if len(items) == 0 {
		env.Message = MsgNoData
		env.Data = []T{}
	}
	JSON(w, http.StatusOK, env)
}

// Exists writes a 200 boolean check result.
func Exists(w http.ResponseWriter, exists bool, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Exists: &exists, Message: msg})
}

// Error writes err with the status its kind maps to. Server-side failures
// are logged with their cause; client errors are not.
func Error(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error(op+" failed", zap.Error(err))
	}
	JSON(w, status, Envelope{Success: false, Message: apperr.Message(err)})
}
