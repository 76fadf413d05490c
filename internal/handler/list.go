package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/store"
)

type ListHandler struct {
	listStore   *store.ListStore
	friendStore *store.FriendStore
	notifier    *Notifier
	bc          Broadcaster
	logger      *slog.Logger
}

func NewListHandler(ls *store.ListStore, fs *store.FriendStore, notifier *Notifier, bc Broadcaster, logger *slog.Logger) *ListHandler {
	return &ListHandler{listStore: ls, friendStore: fs, notifier: notifier, bc: bc, logger: logger}
}

func listAudience(l *model.SharedList) []int64 {
	ids := []int64{l.Creator.ID}
	for _, u := range l.Collaborators {
		ids = append(ids, u.ID)
	}
	return ids
}

func (h *ListHandler) load(w http.ResponseWriter, r *http.Request, userID int64) (*model.SharedList, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	list, err := h.listStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return nil, false
	}
	if list == nil || !list.CanEdit(userID) {
		writeError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	return list, true
}

// changed reloads the list and pushes it to everyone on it.
func (h *ListHandler) changed(r *http.Request, listID int64) {
	list, err := h.listStore.GetByID(r.Context(), listID)
	if err != nil || list == nil {
		return
	}
	broadcast(h.bc, listAudience(list), EventListUpdated, list)
}

type listRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/lists
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	lists, err := h.listStore.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list lists")
		return
	}
	if lists == nil {
		lists = []model.SharedList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// Create handles POST /api/lists
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req listRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = cleanText(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list, err := h.listStore.Create(r.Context(), userID, req.Name)
	if err != nil {
		h.logger.Error("create list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create list")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// Get handles GET /api/lists/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PUT /api/lists/{id}
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Creator.ID != userID {
		writeError(w, http.StatusForbidden, "only the creator can rename this list")
		return
	}
	var req listRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = cleanText(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list, err := h.listStore.Rename(r.Context(), existing.ID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update list")
		return
	}
	broadcast(h.bc, listAudience(list), EventListUpdated, list)
	writeJSON(w, http.StatusOK, list)
}

// Delete handles DELETE /api/lists/{id}
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Creator.ID != userID {
		writeError(w, http.StatusForbidden, "only the creator can delete this list")
		return
	}
	if err := h.listStore.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete list")
		return
	}
	broadcast(h.bc, listAudience(existing), EventListDeleted, map[string]int64{"id": existing.ID})
	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	Text  string  `json:"text"`
	DueAt *string `json:"due_at"`
}

func (h *ListHandler) parseItem(w http.ResponseWriter, r *http.Request) (*itemRequest, bool) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	req.Text = cleanText(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return nil, false
	}
	return &req, true
}

// AddItem handles POST /api/lists/{id}/items
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	req, ok := h.parseItem(w, r)
	if !ok {
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be RFC3339 format")
		return
	}

	item, err := h.listStore.AddItem(r.Context(), list.ID, req.Text, dueAt)
	if err != nil {
		h.logger.Error("add list item", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	h.changed(r, list.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) loadItem(w http.ResponseWriter, r *http.Request, listID int64) (*model.ListItem, bool) {
	itemID, err := parsePathInt(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}
	item, err := h.listStore.GetItem(r.Context(), listID, itemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

// UpdateItem handles PUT /api/lists/{id}/items/{item_id}
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	existing, ok := h.loadItem(w, r, list.ID)
	if !ok {
		return
	}
	req, ok := h.parseItem(w, r)
	if !ok {
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be RFC3339 format")
		return
	}

	item, err := h.listStore.UpdateItem(r.Context(), list.ID, existing.ID, req.Text, dueAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	h.changed(r, list.ID)
	writeJSON(w, http.StatusOK, item)
}

// ToggleItem handles POST /api/lists/{id}/items/{item_id}/toggle
func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	existing, ok := h.loadItem(w, r, list.ID)
	if !ok {
		return
	}

	item, err := h.listStore.ToggleItem(r.Context(), list.ID, existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to toggle item")
		return
	}
	h.changed(r, list.ID)
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/lists/{id}/items/{item_id}
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	existing, ok := h.loadItem(w, r, list.ID)
	if !ok {
		return
	}

	if err := h.listStore.DeleteItem(r.Context(), list.ID, existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	h.changed(r, list.ID)
	w.WriteHeader(http.StatusNoContent)
}

// AddCollaborator handles POST /api/lists/{id}/collaborators
func (h *ListHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if list.Creator.ID != userID {
		writeError(w, http.StatusForbidden, "only the creator can add collaborators")
		return
	}
	var req shareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 || req.UserID == userID {
		writeError(w, http.StatusBadRequest, "user_id must be another user")
		return
	}
	if !requireFriends(w, r, h.friendStore, userID, []int64{req.UserID}) {
		return
	}

	if err := h.listStore.AddCollaborator(r.Context(), list.ID, req.UserID); err != nil {
		h.logger.Error("add collaborator", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add collaborator")
		return
	}
	updated, err := h.listStore.GetByID(r.Context(), list.ID)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return
	}

	h.notifier.Notify(r.Context(), req.UserID, model.NotifTypeListShared,
		"List shared with you", updated.Creator.Name+" added you to \""+updated.Name+"\"", strconv.FormatInt(updated.ID, 10))
	broadcast(h.bc, listAudience(updated), EventListUpdated, updated)

	writeJSON(w, http.StatusOK, updated)
}

// RemoveCollaborator handles DELETE /api/lists/{id}/collaborators/{user_id}.
// The creator may remove anyone; a collaborator may leave.
func (h *ListHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	targetID, err := parsePathInt(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if list.Creator.ID != userID && targetID != userID {
		writeError(w, http.StatusForbidden, "only the creator can remove collaborators")
		return
	}

	if err := h.listStore.RemoveCollaborator(r.Context(), list.ID, targetID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove collaborator")
		return
	}
	broadcast(h.bc, listAudience(list), EventListUpdated, map[string]int64{"id": list.ID})
	w.WriteHeader(http.StatusNoContent)
}
