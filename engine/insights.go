// ABOUTME: Insight generator evaluating the rule catalog against a data snapshot
// ABOUTME: Produces a deduplicated, priority-sorted insight list with stable ids
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

// AcceptCooldown is how long an accepted insight stays hidden while the task
// created from it is still pending.
const AcceptCooldown = 7 * day

// Snapshot is the record set one generation pass reads.
type Snapshot struct {
	Leads        []models.Lead
	Tasks        []models.Task
	Transactions []models.Transaction
}

func (s Snapshot) leadIndex() map[uuid.UUID]*models.Lead {
	idx := make(map[uuid.UUID]*models.Lead, len(s.Leads))
	for i := range s.Leads {
		if _, seen := idx[s.Leads[i].ID]; !seen {
			idx[s.Leads[i].ID] = &s.Leads[i]
		}
	}
	return idx
}

// Generate runs the default catalog. Dismissed insights are left out.
func Generate(snap Snapshot, state models.ExclusionState, now time.Time) []models.Insight {
	return DefaultCatalog.Generate(snap, state, now)
}

// Generate evaluates every rule and returns the live insights sorted by
// ascending priority. Ties keep evaluation order.
func (c Catalog) Generate(snap Snapshot, state models.ExclusionState, now time.Time) []models.Insight {
	all := c.evaluate(snap, state, now)
	live := all[:0]
	for _, in := range all {
		if !in.Dismissed {
			live = append(live, in)
		}
	}
	return live
}

// GenerateWithDismissed is Generate but keeps dismissed insights, flagged,
// so a UI can offer to restore them.
func (c Catalog) GenerateWithDismissed(snap Snapshot, state models.ExclusionState, now time.Time) []models.Insight {
	return c.evaluate(snap, state, now)
}

func (c Catalog) evaluate(snap Snapshot, state models.ExclusionState, now time.Time) []models.Insight {
	leads := snap.leadIndex()

	var (
		out    []models.Insight
		active []LeadFacts
		seen   = make(map[string]struct{})
	)

	emit := func(r Rule, subjectID string, s Subject, lead *models.Lead) {
		id := r.Tag
		if subjectID != "" {
			id = r.Tag + "-" + subjectID
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		text := r.Render(s)
		in := models.Insight{
			ID:           id,
			Rule:         r.Tag,
			Kind:         r.Kind,
			Title:        text.Title,
			Description:  text.Description,
			ActionLabel:  text.ActionLabel,
			ActionTarget: text.ActionTarget,
			Priority:     r.Priority,
			DueInDays:    r.DueInDays,
			Dismissed:    state.Dismissed.Has(id),
		}
		if lead != nil {
			leadID := lead.ID
			in.LeadID = &leadID
			in.LeadName = lead.Name
		}
		out = append(out, in)
	}

	leadRules := c.scoped(ScopeLead)
	for i := range snap.Leads {
		lead := snap.Leads[i]
		if !lead.IsActive() {
			continue
		}
		facts := NewLeadFacts(lead, now)
		active = append(active, facts)
		for _, r := range leadRules {
			s := Subject{Now: now, Lead: &facts}
			if r.Match(s) {
				emit(r, lead.ID.String(), s, &lead)
			}
		}
	}

	taskRules := c.scoped(ScopeTask)
	for i := range snap.Tasks {
		task := snap.Tasks[i]
		linked := resolveLead(leads, task.LeadID)
		for _, r := range taskRules {
			s := Subject{Now: now, Task: &task, LinkedLead: linked}
			if r.Match(s) {
				emit(r, task.ID.String(), s, linked)
			}
		}
	}

	txRules := c.scoped(ScopeTransaction)
	for i := range snap.Transactions {
		tx := snap.Transactions[i]
		linked := resolveLead(leads, tx.LeadID)
		for _, r := range txRules {
			s := Subject{Now: now, Transaction: &tx, LinkedLead: linked}
			if r.Match(s) {
				emit(r, tx.ID.String(), s, linked)
			}
		}
	}

	for _, r := range c.scoped(ScopeAggregate) {
		s := Subject{Now: now, ActiveLeads: active}
		if r.Match(s) {
			emit(r, "", s, nil)
		}
	}

	cooling := coolingDown(snap.Tasks, state, now)
	kept := out[:0]
	for _, in := range out {
		if _, hide := cooling[in.ID]; hide {
			continue
		}
		kept = append(kept, in)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority < kept[j].Priority
	})
	return kept
}

// coolingDown returns accepted insight ids that still have a recent pending
// task created from them.
func coolingDown(tasks []models.Task, state models.ExclusionState, now time.Time) map[string]struct{} {
	out := make(map[string]struct{})
	if len(state.Accepted) == 0 {
		return out
	}
	for _, t := range tasks {
		if t.SourceInsightID == "" || t.IsCompleted() || !state.Accepted.Has(t.SourceInsightID) {
			continue
		}
		if now.Sub(t.CreatedAt) < AcceptCooldown {
			out[t.SourceInsightID] = struct{}{}
		}
	}
	return out
}

// resolveLead follows a weak lead reference. A dangling id reads as unlinked.
func resolveLead(idx map[uuid.UUID]*models.Lead, id *uuid.UUID) *models.Lead {
	if id == nil {
		return nil
	}
	return idx[*id]
}

// FindInsight returns the insight with the given id from a generated list.
func FindInsight(insights []models.Insight, id string) (models.Insight, bool) {
	for _, in := range insights {
		if in.ID == id {
			return in, true
		}
	}
	return models.Insight{}, false
}
