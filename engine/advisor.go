// ABOUTME: Keyword-driven status advisor scanning lead notes for stage language
// ABOUTME: Proposes forward-only transaction moves and applies accepted advisories
package engine

import (
	"time"

	"github.com/harperreed/leadengine/models"
)

// Advisor scans notes against a phrase table.
type Advisor struct {
	Keywords KeywordTable
}

// DefaultAdvisor uses DefaultKeywords.
var DefaultAdvisor = Advisor{Keywords: DefaultKeywords}

// AdvisoryID is the dedup key: one live advisory per lead and stage.
func AdvisoryID(lead models.Lead, stage string) string {
	return lead.ID.String() + "-" + stage
}

// Scan runs the default advisor.
func Scan(leads []models.Lead, transactions []models.Transaction, dismissed models.IDSet, now time.Time) []models.StatusAdvisory {
	return DefaultAdvisor.Scan(leads, transactions, dismissed, now)
}

// Scan returns one advisory per (lead, stage) whose phrases appear in the
// lead's notes and that would move the linked transaction forward. Leads
// with no transaction get a create-transaction advisory instead.
func (a Advisor) Scan(leads []models.Lead, transactions []models.Transaction, dismissed models.IDSet, now time.Time) []models.StatusAdvisory {
	var out []models.StatusAdvisory
	seen := make(map[string]struct{})

	for _, lead := range leads {
		if lead.Notes == "" {
			continue
		}
		tx := LinkedTransaction(lead, transactions)
		for _, stage := range pipeline {
			phrase, ok := a.Keywords.FirstMatch(stage.Name, lead.Notes)
			if !ok {
				continue
			}

			id := AdvisoryID(lead, stage.Name)
			if _, dup := seen[id]; dup || dismissed.Has(id) {
				continue
			}

			adv := models.StatusAdvisory{
				ID:              id,
				LeadID:          lead.ID,
				LeadName:        lead.Name,
				MatchedPhrase:   phrase,
				SuggestedStatus: stage.Name,
				CreatedAt:       now,
			}

			if tx != nil {
				if !advances(tx.Status, stage.Name) {
					continue
				}
				txID := tx.ID
				adv.TransactionID = &txID
				adv.Action = models.AdvisoryActionAdvance
			} else {
				adv.Action = models.AdvisoryActionCreateTransaction
			}

			seen[id] = struct{}{}
			out = append(out, adv)
		}
	}
	return out
}

// advances reports whether moving from current to suggested is a strict
// step forward. Terminal stages have no successors.
func advances(current, suggested string) bool {
	if IsTerminal(current) {
		return false
	}
	cur, ok := Step(current)
	if !ok {
		return false
	}
	next, ok := Step(suggested)
	return ok && next > cur
}

// LinkedTransaction resolves the transaction a lead's notes should drive:
// the first open one linked to the lead, else the first linked at all.
func LinkedTransaction(lead models.Lead, transactions []models.Transaction) *models.Transaction {
	var terminal *models.Transaction
	for i := range transactions {
		tx := &transactions[i]
		if !tx.LinkedTo(lead.ID) {
			continue
		}
		if !IsTerminal(tx.Status) {
			return tx
		}
		if terminal == nil {
			terminal = tx
		}
	}
	return terminal
}

// Apply carries out an advisory. For a linked advisory it sets the
// transaction to the suggested stage and returns the updated copy. For an
// unlinked one, or one whose transaction no longer exists, it returns nil and
// the caller creates the transaction. The advisory comes back dismissed in
// both cases.
func Apply(adv models.StatusAdvisory, transactions []models.Transaction, now time.Time) (*models.Transaction, models.StatusAdvisory, error) {
	adv.Dismissed = true
	if adv.TransactionID == nil {
		return nil, adv, nil
	}
	for _, tx := range transactions {
		if tx.ID != *adv.TransactionID {
			continue
		}
		updated, err := SetStatus(tx, adv.SuggestedStatus, now)
		if err != nil {
			return nil, adv, err
		}
		return &updated, adv, nil
	}
	return nil, adv, nil
}

// FindAdvisory returns the advisory with the given id from a scan result.
func FindAdvisory(advisories []models.StatusAdvisory, id string) (models.StatusAdvisory, bool) {
	for _, a := range advisories {
		if a.ID == id {
			return a, true
		}
	}
	return models.StatusAdvisory{}, false
}
