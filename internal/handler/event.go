package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/store"
)

type EventHandler struct {
	eventStore  *store.EventStore
	friendStore *store.FriendStore
	notifier    *Notifier
	bc          Broadcaster
	logger      *slog.Logger
}

func NewEventHandler(es *store.EventStore, fs *store.FriendStore, notifier *Notifier, bc Broadcaster, logger *slog.Logger) *EventHandler {
	return &EventHandler{eventStore: es, friendStore: fs, notifier: notifier, bc: bc, logger: logger}
}

type eventRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Location       string  `json:"location"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

func eventAudience(e *model.CalendarEvent) []int64 {
	ids := []int64{e.Creator.ID}
	for _, u := range e.Participants {
		ids = append(ids, u.ID)
	}
	return ids
}

func (h *EventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request, userID int64) (*eventRequest, time.Time, time.Time, bool) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return nil, time.Time{}, time.Time{}, false
	}

	req.Title = cleanText(req.Title)
	req.Description = cleanText(req.Description)
	req.Location = cleanText(req.Location)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, time.Time{}, time.Time{}, false
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339 format")
		return nil, time.Time{}, time.Time{}, false
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be RFC3339 format")
		return nil, time.Time{}, time.Time{}, false
	}
	if !startTime.Before(endTime) {
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
		return nil, time.Time{}, time.Time{}, false
	}

	req.ParticipantIDs = slices.DeleteFunc(slices.Compact(slices.Sorted(slices.Values(req.ParticipantIDs))),
		func(id int64) bool { return id == userID })
	if !requireFriends(w, r, h.friendStore, userID, req.ParticipantIDs) {
		return nil, time.Time{}, time.Time{}, false
	}

	return &req, startTime.UTC(), endTime.UTC(), true
}

func (h *EventHandler) load(w http.ResponseWriter, r *http.Request, userID int64) (*model.CalendarEvent, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	event, err := h.eventStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return nil, false
	}
	if event == nil || !event.CanView(userID) {
		writeError(w, http.StatusNotFound, "event not found")
		return nil, false
	}
	return event, true
}

// invite notifies participants who were not on the event before.
func (h *EventHandler) invite(r *http.Request, event *model.CalendarEvent, before []model.UserRef) {
	for _, p := range event.Participants {
		if slices.ContainsFunc(before, func(u model.UserRef) bool { return u.ID == p.ID }) {
			continue
		}
		h.notifier.Notify(r.Context(), p.ID, model.NotifTypeEventInvite,
			"Event invitation", event.Creator.Name+" invited you to \""+event.Title+"\"", strconv.FormatInt(event.ID, 10))
	}
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, start, end, ok := h.parseAndValidate(w, r, userID)
	if !ok {
		return
	}

	event, err := h.eventStore.Create(r.Context(), userID, req.Title, req.Description, req.Location, start, end, req.ParticipantIDs)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	h.invite(r, event, nil)
	broadcast(h.bc, eventAudience(event), EventEventUpdated, event)
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /api/events?start=...&end=...
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}
	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD format")
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD format")
		return
	}

	events, err := h.eventStore.ListByDateRange(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	event, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Update handles PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Creator.ID != userID {
		writeError(w, http.StatusForbidden, "only the creator can edit this event")
		return
	}
	req, start, end, ok := h.parseAndValidate(w, r, userID)
	if !ok {
		return
	}

	event, err := h.eventStore.Update(r.Context(), existing.ID, req.Title, req.Description, req.Location, start, end, req.ParticipantIDs)
	if err != nil {
		h.logger.Error("update event", "event_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	h.invite(r, event, existing.Participants)

	// Removed participants still hear about the change.
	audience := eventAudience(event)
	for _, p := range existing.Participants {
		if !slices.Contains(audience, p.ID) {
			audience = append(audience, p.ID)
		}
	}
	broadcast(h.bc, audience, EventEventUpdated, event)
	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if existing.Creator.ID != userID {
		writeError(w, http.StatusForbidden, "only the creator can delete this event")
		return
	}
	if err := h.eventStore.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	broadcast(h.bc, eventAudience(existing), EventEventDeleted, map[string]int64{"id": existing.ID})
	w.WriteHeader(http.StatusNoContent)
}
