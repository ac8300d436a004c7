package rest

import (
	"amongirl/internal/repository"
	"amongirl/internal/service"
	"amongirl/internal/transport/rest/handler"
	"net/http"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	SessionService *service.SessionService
	Results        repository.ResultRepo
	AllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.SessionService, c.Results)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Lobby
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/imposter-count", sessionHandler.UpdateImposterCount).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/start", sessionHandler.Start).Methods("POST", "OPTIONS")

	// Sabotage
	v1.HandleFunc("/sessions/{id}/sabotage", sessionHandler.TriggerSabotage).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/sabotage/resolve", sessionHandler.ResolveSabotage).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/sabotage/timeout", sessionHandler.SabotageTimeout).Methods("POST", "OPTIONS")

	// Meetings and voting
	v1.HandleFunc("/sessions/{id}/meeting", sessionHandler.CallMeeting).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/meeting/end", sessionHandler.EndMeeting).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/voting/start", sessionHandler.StartVoting).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/votes", sessionHandler.SubmitVote).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/voting/end", sessionHandler.EndVoting).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/voting/deadline", sessionHandler.VotingDeadline).Methods("POST", "OPTIONS")

	// Tasks, deaths and the end of the game
	v1.HandleFunc("/sessions/{id}/tasks/complete", sessionHandler.CompleteTask).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/dead", sessionHandler.MarkSelfDead).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/end", sessionHandler.End).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/proofs", sessionHandler.Proofs).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/result", sessionHandler.Result).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
