// ABOUTME: Lead matching by email address
// ABOUTME: Maps counterparties seen in mail to existing leads without creating any
package sync

import (
	"strings"

	"github.com/harperreed/leadengine/models"
)

type LeadMatcher struct {
	byEmail map[string]*models.Lead
}

// NewLeadMatcher indexes leads by normalized email. Leads without an email
// are never matched; the first lead wins when two share an address.
func NewLeadMatcher(leads []models.Lead) *LeadMatcher {
	m := &LeadMatcher{byEmail: make(map[string]*models.Lead)}
	for i := range leads {
		email := normalizeEmail(leads[i].Email)
		if email == "" {
			continue
		}
		if _, taken := m.byEmail[email]; !taken {
			m.byEmail[email] = &leads[i]
		}
	}
	return m
}

// FindMatch looks for an existing lead by email.
func (m *LeadMatcher) FindMatch(email string) (*models.Lead, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}
	lead, found := m.byEmail[normalized]
	return lead, found
}

func (m *LeadMatcher) Len() int {
	return len(m.byEmail)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
