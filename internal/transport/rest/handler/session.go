package handler

import (
	"amongirl/internal/model"
	"amongirl/internal/repository"
	"amongirl/internal/service"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionHandler handles game session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	results    repository.ResultRepo
}

// NewSessionHandler creates a new session handler. results may be nil when
// no archive is configured.
func NewSessionHandler(sessionSvc *service.SessionService, results repository.ResultRepo) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		results:    results,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// respond writes either the error or the result of a session operation
func respond(w http.ResponseWriter, status int, result interface{}, err error) {
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, status, result)
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.sessionSvc.CreateSession(r.Context(), req.HostNickname, req.ImposterCount, req.Snitch)
	respond(w, http.StatusCreated, resp, err)
}

// Join handles POST /v1/sessions/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinSessionRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.sessionSvc.JoinSession(r.Context(), req.Code, req.Nickname)
	respond(w, http.StatusOK, resp, err)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.GetSession(r.Context(), sessionID(r))
	respond(w, http.StatusOK, sess, err)
}

// UpdateImposterCount handles POST /v1/sessions/{id}/imposter-count
func (h *SessionHandler) UpdateImposterCount(w http.ResponseWriter, r *http.Request) {
	var req model.ImposterCountRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.UpdateImposterCount(r.Context(), sessionID(r), req.PlayerID, req.ImposterCount)
	respond(w, http.StatusOK, sess, err)
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.AssignRoles(r.Context(), sessionID(r), req.PlayerID)
	respond(w, http.StatusOK, sess, err)
}

// TriggerSabotage handles POST /v1/sessions/{id}/sabotage
func (h *SessionHandler) TriggerSabotage(w http.ResponseWriter, r *http.Request) {
	var req model.PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.TriggerSabotage(r.Context(), sessionID(r), req.PlayerID)
	respond(w, http.StatusOK, sess, err)
}

// ResolveSabotage handles POST /v1/sessions/{id}/sabotage/resolve
func (h *SessionHandler) ResolveSabotage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.ResolveSabotage(r.Context(), sessionID(r))
	respond(w, http.StatusOK, sess, err)
}

// SabotageTimeout handles POST /v1/sessions/{id}/sabotage/timeout
func (h *SessionHandler) SabotageTimeout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.SabotageTimeout(r.Context(), sessionID(r))
	respond(w, http.StatusOK, sess, err)
}

// CallMeeting handles POST /v1/sessions/{id}/meeting
func (h *SessionHandler) CallMeeting(w http.ResponseWriter, r *http.Request) {
	var req model.PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.CallMeeting(r.Context(), sessionID(r), req.PlayerID)
	respond(w, http.StatusOK, sess, err)
}

// EndMeeting handles POST /v1/sessions/{id}/meeting/end
func (h *SessionHandler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.EndMeeting(r.Context(), sessionID(r))
	respond(w, http.StatusOK, sess, err)
}

// StartVoting handles POST /v1/sessions/{id}/voting/start
func (h *SessionHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.StartVoting(r.Context(), sessionID(r))
	respond(w, http.StatusOK, sess, err)
}

// SubmitVote handles POST /v1/sessions/{id}/votes
func (h *SessionHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req model.VoteRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.SubmitVote(r.Context(), sessionID(r), req.PlayerID, req.TargetID)
	respond(w, http.StatusOK, sess, err)
}

// EndVoting handles POST /v1/sessions/{id}/voting/end
func (h *SessionHandler) EndVoting(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionSvc.EndVoting(r.Context(), sessionID(r))
	respond(w, http.StatusOK, result, err)
}

// VotingDeadline handles POST /v1/sessions/{id}/voting/deadline
func (h *SessionHandler) VotingDeadline(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionSvc.VotingDeadline(r.Context(), sessionID(r))
	respond(w, http.StatusOK, result, err)
}

// CompleteTask handles POST /v1/sessions/{id}/tasks/complete
func (h *SessionHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteTaskRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.CompleteTask(r.Context(), sessionID(r), req.PlayerID, req.TaskID, req.ProofRef)
	respond(w, http.StatusOK, sess, err)
}

// MarkSelfDead handles POST /v1/sessions/{id}/dead
func (h *SessionHandler) MarkSelfDead(w http.ResponseWriter, r *http.Request) {
	var req model.PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.MarkSelfDead(r.Context(), sessionID(r), req.PlayerID)
	respond(w, http.StatusOK, sess, err)
}

// End handles POST /v1/sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req model.EndGameRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.sessionSvc.EndGameManually(r.Context(), sessionID(r), req.PlayerID, req.Winner)
	respond(w, http.StatusOK, sess, err)
}

// Proofs handles GET /v1/sessions/{id}/proofs
func (h *SessionHandler) Proofs(w http.ResponseWriter, r *http.Request) {
	proofs, err := h.sessionSvc.ListProofs(r.Context(), sessionID(r))
	respond(w, http.StatusOK, proofs, err)
}

// Result handles GET /v1/sessions/{id}/result
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusNotFound, "result archive not configured")
		return
	}
	result, err := h.results.GetBySessionID(r.Context(), sessionID(r))
	if err != nil {
		writeGameError(w, err)
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
