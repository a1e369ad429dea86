// ABOUTME: Rule catalog mapping lead, task, and transaction patterns to insights
// ABOUTME: Rules are declarative records held in one ordered table
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadengine/models"
)

// Thresholds used by the default catalog.
const (
	ColdContactDays      = 30
	HotContactDays       = 3
	SpeedToLeadAgeDays   = 2
	SpeedToLeadGapDays   = 1
	WaitingRecentDays    = 7
	FollowupMinDays      = 14
	ClosingSoonDays      = 7
	DripCampaignMinLeads = 5
)

// MilestoneDays are the lead ages that get a one-day milestone insight.
var MilestoneDays = []int{90, 180, 365}

// Scope selects what a rule is evaluated against.
type Scope int

const (
	ScopeLead Scope = iota
	ScopeTask
	ScopeTransaction
	ScopeAggregate
)

// LeadFacts is a lead plus the metrics the rules read.
type LeadFacts struct {
	Lead             models.Lead
	Status           string
	DaysSinceContact int
	DaysSinceCreated int
}

// NewLeadFacts derives the metrics for a lead at now.
func NewLeadFacts(lead models.Lead, now time.Time) LeadFacts {
	return LeadFacts{
		Lead:             lead,
		Status:           strings.ToLower(strings.TrimSpace(lead.Status)),
		DaysSinceContact: DaysSince(lead.LastContact, now),
		DaysSinceCreated: DaysSinceCreated(lead.CreatedAt, now),
	}
}

// Subject is what one rule evaluation looks at. Only the fields for the
// rule's scope are set.
type Subject struct {
	Now         time.Time
	Lead        *LeadFacts
	Task        *models.Task
	Transaction *models.Transaction
	LinkedLead  *models.Lead
	ActiveLeads []LeadFacts
}

// Copy is the human-facing text of an insight.
type Copy struct {
	Title        string
	Description  string
	ActionLabel  string
	ActionTarget string
}

// Rule maps a trigger predicate to an insight template.
type Rule struct {
	Tag       string
	Scope     Scope
	Kind      string
	Priority  int
	DueInDays int
	Match     func(s Subject) bool
	Render    func(s Subject) Copy
}

// Catalog is an ordered rule table. Order is evaluation order and breaks
// priority ties.
type Catalog []Rule

// DefaultCatalog is the canonical rule set.
var DefaultCatalog = Catalog{
	{
		Tag: "cold", Scope: ScopeLead, Kind: models.KindUrgent, Priority: 1, DueInDays: 0,
		Match: func(s Subject) bool {
			return s.Lead.DaysSinceContact >= ColdContactDays
		},
		Render: func(s Subject) Copy {
			title := fmt.Sprintf("No contact in %d days: %s", s.Lead.DaysSinceContact, s.Lead.Lead.Name)
			if s.Lead.DaysSinceContact >= NeverContactedDays {
				title = fmt.Sprintf("Never contacted: %s", s.Lead.Lead.Name)
			}
			return Copy{
				Title:        title,
				Description:  "This lead has gone cold. Reach out before they work with another agent.",
				ActionLabel:  "Call now",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "hot", Scope: ScopeLead, Kind: models.KindUrgent, Priority: 1, DueInDays: 0,
		Match: func(s Subject) bool {
			return s.Lead.Status == models.LeadStatusHot && s.Lead.DaysSinceContact >= HotContactDays
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("Hot lead going quiet: %s", s.Lead.Lead.Name),
				Description:  fmt.Sprintf("%s is marked hot but has not heard from you in %s.", s.Lead.Lead.Name, dayCount(s.Lead.DaysSinceContact)),
				ActionLabel:  "Follow up today",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "speed", Scope: ScopeLead, Kind: models.KindWarning, Priority: 2, DueInDays: 0,
		Match: func(s Subject) bool {
			return s.Lead.DaysSinceCreated <= SpeedToLeadAgeDays && s.Lead.DaysSinceContact >= SpeedToLeadGapDays
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("New lead waiting on first touch: %s", s.Lead.Lead.Name),
				Description:  "New leads convert best when contacted within the first day.",
				ActionLabel:  "Make first contact",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "waiting", Scope: ScopeLead, Kind: models.KindOpportunity, Priority: 3, DueInDays: 1,
		Match: func(s Subject) bool {
			return s.Lead.Status == models.LeadStatusWaiting && s.Lead.DaysSinceContact <= WaitingRecentDays
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("Ball is in your court: %s", s.Lead.Lead.Name),
				Description:  fmt.Sprintf("%s is waiting on you after a recent conversation.", s.Lead.Lead.Name),
				ActionLabel:  "Send next step",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "milestone", Scope: ScopeLead, Kind: models.KindMilestone, Priority: 4, DueInDays: 3,
		Match: func(s Subject) bool {
			for _, d := range MilestoneDays {
				if s.Lead.DaysSinceCreated == d {
					return true
				}
			}
			return false
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("%s in your pipeline: %s", dayCount(s.Lead.DaysSinceCreated), s.Lead.Lead.Name),
				Description:  "A good moment to check whether their plans or timeline have changed.",
				ActionLabel:  "Send a check-in",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "followup", Scope: ScopeLead, Kind: models.KindReminder, Priority: 5, DueInDays: 2,
		Match: func(s Subject) bool {
			d := s.Lead.DaysSinceContact
			return d >= FollowupMinDays && d < ColdContactDays && s.Lead.Status != models.LeadStatusHot
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("Time to follow up: %s", s.Lead.Lead.Name),
				Description:  fmt.Sprintf("Last contact was %s ago.", dayCount(s.Lead.DaysSinceContact)),
				ActionLabel:  "Schedule follow-up",
				ActionTarget: leadTarget(s.Lead.Lead),
			}
		},
	},
	{
		Tag: "overdue", Scope: ScopeTask, Kind: models.KindUrgent, Priority: 1, DueInDays: 0,
		Match: func(s Subject) bool {
			return s.Task.IsOverdue(StartOfDay(s.Now))
		},
		Render: func(s Subject) Copy {
			late := -DaysUntil(s.Task.DueDate, s.Now)
			desc := fmt.Sprintf("Due %s ago.", dayCount(late))
			if s.LinkedLead != nil {
				desc = fmt.Sprintf("Due %s ago for %s.", dayCount(late), s.LinkedLead.Name)
			}
			return Copy{
				Title:        fmt.Sprintf("Overdue: %s", s.Task.Title),
				Description:  desc,
				ActionLabel:  "Complete task",
				ActionTarget: "task/" + s.Task.ID.String(),
			}
		},
	},
	{
		Tag: "closing-overdue", Scope: ScopeTransaction, Kind: models.KindUrgent, Priority: 1, DueInDays: 0,
		Match: func(s Subject) bool {
			tx := s.Transaction
			return !IsTerminal(tx.Status) && tx.ClosingDate != nil && DaysUntil(*tx.ClosingDate, s.Now) < 0
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("Closing date passed: %s", s.Transaction.PropertyAddress),
				Description:  fmt.Sprintf("Still at %s. Update the stage or the closing date.", StageLabel(s.Transaction.Status)),
				ActionLabel:  "Update transaction",
				ActionTarget: "transaction/" + s.Transaction.ID.String(),
			}
		},
	},
	{
		Tag: "closing", Scope: ScopeTransaction, Kind: models.KindWarning, Priority: 2, DueInDays: 1,
		Match: func(s Subject) bool {
			tx := s.Transaction
			if IsTerminal(tx.Status) || tx.ClosingDate == nil {
				return false
			}
			d := DaysUntil(*tx.ClosingDate, s.Now)
			return d >= 0 && d <= ClosingSoonDays
		},
		Render: func(s Subject) Copy {
			d := DaysUntil(*s.Transaction.ClosingDate, s.Now)
			when := "today"
			if d > 0 {
				when = "in " + dayCount(d)
			}
			return Copy{
				Title:        fmt.Sprintf("Closing %s: %s", when, s.Transaction.PropertyAddress),
				Description:  fmt.Sprintf("Currently %s. Confirm the remaining steps with %s.", StageLabel(s.Transaction.Status), s.Transaction.ClientName),
				ActionLabel:  "Review checklist",
				ActionTarget: "transaction/" + s.Transaction.ID.String(),
			}
		},
	},
	{
		Tag: "drip-suggestion", Scope: ScopeAggregate, Kind: models.KindOpportunity, Priority: 3, DueInDays: 7,
		Match: func(s Subject) bool {
			return countCold(s.ActiveLeads) >= DripCampaignMinLeads
		},
		Render: func(s Subject) Copy {
			return Copy{
				Title:        fmt.Sprintf("%d cold leads: start a re-engagement campaign", countCold(s.ActiveLeads)),
				Description:  "Enough leads have gone quiet that a drip campaign beats one-off calls.",
				ActionLabel:  "Start campaign",
				ActionTarget: "leads?stale=" + fmt.Sprint(ColdContactDays),
			}
		},
	},
}

func countCold(leads []LeadFacts) int {
	n := 0
	for _, f := range leads {
		if f.DaysSinceContact >= ColdContactDays {
			n++
		}
	}
	return n
}

func leadTarget(l models.Lead) string {
	return "lead/" + l.ID.String()
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Tags lists the rule tags in evaluation order.
func (c Catalog) Tags() []string {
	tags := make([]string, len(c))
	for i, r := range c {
		tags[i] = r.Tag
	}
	return tags
}

func (c Catalog) scoped(scope Scope) []Rule {
	var out []Rule
	for _, r := range c {
		if r.Scope == scope {
			out = append(out, r)
		}
	}
	return out
}
