package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/store"
)

type TaskHandler struct {
	taskStore   *store.TaskStore
	friendStore *store.FriendStore
	notifier    *Notifier
	bc          Broadcaster
	logger      *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, fs *store.FriendStore, notifier *Notifier, bc Broadcaster, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, friendStore: fs, notifier: notifier, bc: bc, logger: logger}
}

type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueAt       *string `json:"due_at"`
}

func taskAudience(t *model.Task) []int64 {
	ids := []int64{t.Owner.ID}
	for _, u := range t.SharedWith {
		ids = append(ids, u.ID)
	}
	return ids
}

// load fetches the task and checks the caller can see it.
func (h *TaskHandler) load(w http.ResponseWriter, r *http.Request, userID int64) (*model.Task, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	task, err := h.taskStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, false
	}
	if task == nil || !task.CanView(userID) {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) parse(w http.ResponseWriter, r *http.Request) (*taskRequest, bool) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	req.Title = cleanText(req.Title)
	req.Description = cleanText(req.Description)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}
	return &req, true
}

// List handles GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.taskStore.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be RFC3339 format")
		return
	}

	task, err := h.taskStore.Create(r.Context(), userID, req.Title, req.Description, dueAt)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	broadcast(h.bc, taskAudience(task), EventTaskUpdated, task)
	writeJSON(w, http.StatusCreated, task)
}

// Get handles GET /api/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	task, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PUT /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Owner.ID != userID {
		writeError(w, http.StatusForbidden, "only the owner can edit this task")
		return
	}
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be RFC3339 format")
		return
	}

	task, err := h.taskStore.Update(r.Context(), existing.ID, req.Title, req.Description, dueAt)
	if err != nil {
		h.logger.Error("update task", "task_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	broadcast(h.bc, taskAudience(task), EventTaskUpdated, task)
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Owner.ID != userID {
		writeError(w, http.StatusForbidden, "only the owner can delete this task")
		return
	}

	if err := h.taskStore.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	broadcast(h.bc, taskAudience(existing), EventTaskDeleted, map[string]int64{"id": existing.ID})
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// Complete handles POST /api/tasks/{id}/complete. Owners and shared users
// may complete a task; an optional {"completed": false} reopens it.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}

	completed := true
	if r.ContentLength > 0 {
		var req completeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Completed != nil {
			completed = *req.Completed
		}
	}

	task, err := h.taskStore.SetCompleted(r.Context(), existing.ID, completed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	broadcast(h.bc, taskAudience(task), EventTaskUpdated, task)
	writeJSON(w, http.StatusOK, task)
}

type shareRequest struct {
	UserID int64 `json:"user_id"`
}

// Share handles POST /api/tasks/{id}/share
func (h *TaskHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Owner.ID != userID {
		writeError(w, http.StatusForbidden, "only the owner can share this task")
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

	if err := h.taskStore.Share(r.Context(), existing.ID, req.UserID); err != nil {
		h.logger.Error("share task", "task_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to share task")
		return
	}
	task, err := h.taskStore.GetByID(r.Context(), existing.ID)
	if err != nil || task == nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	h.notifier.Notify(r.Context(), req.UserID, model.NotifTypeTaskShared,
		"Task shared with you", task.Owner.Name+" shared \""+task.Title+"\"", strconv.FormatInt(task.ID, 10))
	broadcast(h.bc, []int64{req.UserID}, EventTaskShared, task)
	broadcast(h.bc, taskAudience(task), EventTaskUpdated, task)

	writeJSON(w, http.StatusOK, task)
}

// Unshare handles DELETE /api/tasks/{id}/share/{user_id}. The owner may
// remove anyone; a shared user may remove themselves.
func (h *TaskHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	targetID, err := parsePathInt(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if existing.Owner.ID != userID && targetID != userID {
		writeError(w, http.StatusForbidden, "only the owner can unshare this task")
		return
	}

	if err := h.taskStore.Unshare(r.Context(), existing.ID, targetID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to unshare task")
		return
	}
	broadcast(h.bc, taskAudience(existing), EventTaskUpdated, map[string]int64{"id": existing.ID})
	w.WriteHeader(http.StatusNoContent)
}
