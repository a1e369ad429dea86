// ABOUTME: Suggestion lifecycle tracking for accepted and dismissed insights
// ABOUTME: Pure operations on an explicit ExclusionState value; callers persist the result
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

// TaskPriorityFor maps an insight priority band onto a task priority.
func TaskPriorityFor(priority int) string {
	switch {
	case priority <= 1:
		return models.TaskPriorityHigh
	case priority <= 3:
		return models.TaskPriorityMedium
	default:
		return models.TaskPriorityLow
	}
}

// TaskFromInsight builds the concrete task an accepted insight turns into.
func TaskFromInsight(ownerID string, in models.Insight, now time.Time) models.Task {
	title := in.Title
	if in.ActionLabel != "" && in.LeadName != "" {
		title = in.ActionLabel + ": " + in.LeadName
	}
	task := models.Task{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Title:           title,
		DueDate:         StartOfDay(now).AddDate(0, 0, in.DueInDays),
		Priority:        TaskPriorityFor(in.Priority),
		Status:          models.TaskStatusPending,
		SourceInsightID: in.ID,
		CreatedAt:       now,
	}
	if in.LeadID != nil {
		leadID := *in.LeadID
		task.LeadID = &leadID
	}
	return task
}

// Accept converts an insight into a task and records the id as accepted.
// The returned state is a copy; the input is not modified.
func Accept(state models.ExclusionState, ownerID string, in models.Insight, now time.Time) (models.ExclusionState, models.Task) {
	next := state.Clone()
	next.Accepted[in.ID] = struct{}{}
	return next, TaskFromInsight(ownerID, in, now)
}

// Dismiss hides an insight. Dismissing twice changes nothing.
func Dismiss(state models.ExclusionState, id string) (models.ExclusionState, bool) {
	if state.Dismissed.Has(id) {
		return state, false
	}
	next := state.Clone()
	next.Dismissed[id] = struct{}{}
	return next, true
}

// Restore brings a dismissed insight back.
func Restore(state models.ExclusionState, id string) (models.ExclusionState, bool) {
	if !state.Dismissed.Has(id) {
		return state, false
	}
	next := state.Clone()
	delete(next.Dismissed, id)
	return next, true
}

// DismissAdvisory hides a status advisory key for good.
func DismissAdvisory(state models.ExclusionState, id string) (models.ExclusionState, bool) {
	if state.DismissedAdvisories.Has(id) {
		return state, false
	}
	next := state.Clone()
	next.DismissedAdvisories[id] = struct{}{}
	return next, true
}
