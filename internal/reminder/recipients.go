package reminder

import "github.com/dukerupert/tandem/internal/model"

// recipientSet returns primary followed by others, each user at most once.
func recipientSet(primary model.UserRef, others []model.UserRef) []model.UserRef {
	seen := make(map[int64]struct{}, len(others)+1)
	out := make([]model.UserRef, 0, len(others)+1)
	for _, u := range append([]model.UserRef{primary}, others...) {
		if u.ID == 0 {
			continue
		}
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// TaskRecipients is the owner plus everyone the task is shared with.
func TaskRecipients(t *model.Task) []model.UserRef {
	return recipientSet(t.Owner, t.SharedWith)
}

// ListRecipients is the creator plus the list's collaborators.
func ListRecipients(l *model.SharedList) []model.UserRef {
	return recipientSet(l.Creator, l.Collaborators)
}

// EventRecipients is the creator plus the event's participants.
func EventRecipients(e *model.CalendarEvent) []model.UserRef {
	return recipientSet(e.Creator, e.Participants)
}
