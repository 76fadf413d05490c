package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/store"
)

type FriendHandler struct {
	friendStore *store.FriendStore
	userStore   *store.UserStore
	notifier    *Notifier
	bc          Broadcaster
	logger      *slog.Logger
}

func NewFriendHandler(fs *store.FriendStore, us *store.UserStore, notifier *Notifier, bc Broadcaster, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friendStore: fs, userStore: us, notifier: notifier, bc: bc, logger: logger}
}

// List handles GET /api/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friendships, err := h.friendStore.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	if friendships == nil {
		friendships = []model.Friendship{}
	}
	writeJSON(w, http.StatusOK, friendships)
}

type friendRequest struct {
	Email string `json:"email"`
}

// Request handles POST /api/friends/requests
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req friendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	target, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.ID == userID {
		writeError(w, http.StatusBadRequest, "cannot befriend yourself")
		return
	}

	existing, err := h.friendStore.Between(r.Context(), userID, target.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check friendship")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "friendship already exists")
		return
	}

	f, err := h.friendStore.Request(r.Context(), userID, target.ID)
	if err != nil {
		h.logger.Error("create friend request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send request")
		return
	}

	requester, _ := h.userStore.GetByID(r.Context(), userID)
	name := "Someone"
	if requester != nil {
		name = requester.Name
	}
	h.notifier.Notify(r.Context(), target.ID, model.NotifTypeFriendRequest,
		"New friend request", name+" wants to be your friend", strconv.FormatInt(f.ID, 10))
	broadcast(h.bc, []int64{target.ID}, EventFriendRequest, map[string]any{"id": f.ID, "from": requester})

	writeJSON(w, http.StatusCreated, f)
}

// Accept handles POST /api/friends/requests/{id}/accept
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	f, err := h.friendStore.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get request")
		return
	}
	if f == nil || f.AddresseeID != userID {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if f.Status == model.FriendshipAccepted {
		writeJSON(w, http.StatusOK, f)
		return
	}

	if err := h.friendStore.Accept(r.Context(), id); err != nil {
		h.logger.Error("accept friend request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept request")
		return
	}
	f, err = h.friendStore.GetByID(r.Context(), id, userID)
	if err != nil || f == nil {
		writeError(w, http.StatusInternalServerError, "failed to get request")
		return
	}

	accepter, _ := h.userStore.GetByID(r.Context(), userID)
	name := "Someone"
	if accepter != nil {
		name = accepter.Name
	}
	h.notifier.Notify(r.Context(), f.RequesterID, model.NotifTypeFriendAccepted,
		"Friend request accepted", name+" accepted your friend request", strconv.FormatInt(f.ID, 10))
	broadcast(h.bc, []int64{f.RequesterID, f.AddresseeID}, EventFriendUpdated, map[string]any{"id": f.ID, "status": f.Status})

	writeJSON(w, http.StatusOK, f)
}

// Delete handles DELETE /api/friends/{id}. Either side may remove the
// friendship or withdraw a pending request.
func (h *FriendHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	f, err := h.friendStore.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get friendship")
		return
	}
	if f == nil || (f.RequesterID != userID && f.AddresseeID != userID) {
		writeError(w, http.StatusNotFound, "friendship not found")
		return
	}

	if err := h.friendStore.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete friendship")
		return
	}
	broadcast(h.bc, []int64{f.RequesterID, f.AddresseeID}, EventFriendUpdated, map[string]any{"id": f.ID, "status": "removed"})

	w.WriteHeader(http.StatusNoContent)
}

// requireFriends checks that every id is an accepted friend of userID. It
// writes the error response and returns false otherwise.
func requireFriends(w http.ResponseWriter, r *http.Request, fs *store.FriendStore, userID int64, ids []int64) bool {
	for _, id := range ids {
		if id == userID {
			continue
		}
		ok, err := fs.AreFriends(r.Context(), userID, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check friendship")
			return false
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "user "+strconv.FormatInt(id, 10)+" is not your friend")
			return false
		}
	}
	return true
}
