package handler

import (
	"amongirl/internal/game"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     game.Code         `json:"code,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeGameError maps a service error onto an HTTP status by its code
func writeGameError(w http.ResponseWriter, err error) {
	code := game.CodeOf(err)
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeJSON(w, status, ErrorResponse{Error: "internal error"})
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		resp.Metadata = gameErr.Metadata
	}
	writeJSON(w, status, resp)
}

// StatusFor returns the HTTP status for a game error code
func StatusFor(code game.Code) int {
	switch code {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeInvalidPhase,
		game.CodeSabotageOnCooldown,
		game.CodeSabotageAlreadyOngoing,
		game.CodeAlreadyVoted,
		game.CodeTaskAlreadyCompleted,
		game.CodeVersionConflict:
		return http.StatusConflict
	case game.CodeInvalidArgument,
		game.CodeInvalidConfiguration,
		game.CodeInsufficientTaskPool,
		game.CodeMissingCommonTask:
		return http.StatusBadRequest
	case game.CodePermissionDenied:
		return http.StatusForbidden
	case game.CodeTransientFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
