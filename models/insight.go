// ABOUTME: Insight and status advisory models produced by the engine
// ABOUTME: Also defines IDSet and ExclusionState, the persisted handled-id bookkeeping
package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Insight kinds.
const (
	KindUrgent      = "urgent"
	KindWarning     = "warning"
	KindOpportunity = "opportunity"
	KindMilestone   = "milestone"
	KindReminder    = "reminder"
)

// Insight is an alert or a suggested task. The ID is derived from the rule
// tag and the subject id so regenerating the list yields the same ids.
type Insight struct {
	ID           string     `json:"id"`
	Rule         string     `json:"rule"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ActionLabel  string     `json:"action_label,omitempty"`
	ActionTarget string     `json:"action_target,omitempty"`
	LeadID       *uuid.UUID `json:"lead_id,omitempty"`
	LeadName     string     `json:"lead_name,omitempty"`
	Priority     int        `json:"priority"`
	DueInDays    int        `json:"due_in_days"`
	Dismissed    bool       `json:"dismissed"`
}

// Advisory actions.
const (
	AdvisoryActionAdvance           = "advance"
	AdvisoryActionCreateTransaction = "create-transaction"
)

// StatusAdvisory proposes moving a transaction forward because a lead's
// notes mention a later stage.
type StatusAdvisory struct {
	ID              string     `json:"id"`
	LeadID          uuid.UUID  `json:"lead_id"`
	LeadName        string     `json:"lead_name"`
	TransactionID   *uuid.UUID `json:"transaction_id,omitempty"`
	MatchedPhrase   string     `json:"matched_phrase"`
	SuggestedStatus string     `json:"suggested_status"`
	Action          string     `json:"action"`
	CreatedAt       time.Time  `json:"created_at"`
	Dismissed       bool       `json:"dismissed"`
}

// IDSet is a set of string ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Slice returns the ids sorted, so serialized sets are stable.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ExclusionState is the handled-id bookkeeping for one owner.
type ExclusionState struct {
	Dismissed           IDSet `json:"dismissed"`
	Accepted            IDSet `json:"accepted"`
	DismissedAdvisories IDSet `json:"dismissed_advisories"`
}

// NewExclusionState returns an empty state with all sets allocated.
func NewExclusionState() ExclusionState {
	return ExclusionState{
		Dismissed:           IDSet{},
		Accepted:            IDSet{},
		DismissedAdvisories: IDSet{},
	}
}

// Clone returns a deep copy so callers can keep the previous state around.
func (s ExclusionState) Clone() ExclusionState {
	return ExclusionState{
		Dismissed:           s.Dismissed.Clone(),
		Accepted:            s.Accepted.Clone(),
		DismissedAdvisories: s.DismissedAdvisories.Clone(),
	}
}
