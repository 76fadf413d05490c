package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dukerupert/tandem/internal/auth"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Broadcaster pushes real-time events to users' private rooms.
type Broadcaster interface {
	EmitToUsers(userIDs []int64, event string, payload any)
}

// Real-time event names emitted after mutations.
const (
	EventTaskUpdated         = "task_updated"
	EventTaskDeleted         = "task_deleted"
	EventTaskShared          = "task_shared"
	EventListUpdated         = "list_updated"
	EventListDeleted         = "list_deleted"
	EventEventUpdated        = "event_updated"
	EventEventDeleted        = "event_deleted"
	EventFriendRequest       = "friend_request"
	EventFriendUpdated       = "friend_updated"
	EventNotificationCreated = "notification_created"
)

func broadcast(b Broadcaster, userIDs []int64, event string, payload any) {
	if b == nil || len(userIDs) == 0 {
		return
	}
	b.EmitToUsers(userIDs, event, payload)
}

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathInt(r, "id")
}

func parsePathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body required")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON")
		}
		return false
	}
	return true
}

// currentUser returns the caller's ID. Routes are mounted behind RequireAuth,
// so a missing user means a wiring bug and is answered with 401.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}
