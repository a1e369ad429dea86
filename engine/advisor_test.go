// ABOUTME: Tests for the keyword-driven status advisor
// ABOUTME: Covers the forward-only guard, dedup keys, apply, and phrase boundaries
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadengine/models"
)

func linkedPair(t *testing.T, notes, stage string) (models.Lead, models.Transaction) {
	t.Helper()
	lead := newLead("Dana", models.LeadStatusNegotiating, 1, 30)
	lead.Notes = notes
	tx := TransactionFromLead(lead, testNow)
	if stage != models.StagePending {
		var err error
		tx, err = SetStatus(tx, stage, testNow)
		require.NoError(t, err)
	}
	return lead, tx
}

func TestAdvisorForwardOnlyGuard(t *testing.T) {
	cases := []struct {
		notes string
		want  string
	}{
		{"they said it's under contract now", ""},
		{"home inspection went fine", ""},
		{"appraisal ordered by lender", models.StageAppraisal},
		{"We are clear to close!", models.StageClearToClose},
	}
	for _, tc := range cases {
		lead, tx := linkedPair(t, tc.notes, models.StageInspection)
		advisories := Scan([]models.Lead{lead}, []models.Transaction{tx}, nil, testNow)
		if tc.want == "" {
			assert.Empty(t, advisories, tc.notes)
			continue
		}
		require.Len(t, advisories, 1, tc.notes)
		assert.Equal(t, tc.want, advisories[0].SuggestedStatus)
		assert.Equal(t, models.AdvisoryActionAdvance, advisories[0].Action)
	}
}

func TestAdvisorApplyThenRescan(t *testing.T) {
	lead, tx := linkedPair(t, "Great news, we are under contract", models.StagePending)
	txs := []models.Transaction{tx}

	advisories := Scan([]models.Lead{lead}, txs, nil, testNow)
	require.Len(t, advisories, 1)
	adv := advisories[0]
	assert.Equal(t, models.StageUnderContract, adv.SuggestedStatus)
	assert.Equal(t, "under contract", adv.MatchedPhrase)
	require.NotNil(t, adv.TransactionID)

	updated, applied, err := Apply(adv, txs, testNow)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, applied.Dismissed)
	assert.Equal(t, models.StageUnderContract, updated.Status)
	assert.Len(t, updated.StatusHistory, len(tx.StatusHistory)+1)

	txs[0] = *updated
	assert.Empty(t, Scan([]models.Lead{lead}, txs, nil, testNow))
}

func TestAdvisorCollapsesPhrasesForSameStage(t *testing.T) {
	lead, tx := linkedPair(t, "Offer accepted! Officially under contract and ratified.", models.StagePending)

	advisories := Scan([]models.Lead{lead}, []models.Transaction{tx}, nil, testNow)

	require.Len(t, advisories, 1)
	assert.Equal(t, AdvisoryID(lead, models.StageUnderContract), advisories[0].ID)
}

func TestAdvisorEmitsEachLaterStage(t *testing.T) {
	lead, tx := linkedPair(t, "ratified yesterday, inspection scheduled for friday", models.StagePending)

	advisories := Scan([]models.Lead{lead}, []models.Transaction{tx}, nil, testNow)

	require.Len(t, advisories, 2)
	assert.Equal(t, models.StageUnderContract, advisories[0].SuggestedStatus)
	assert.Equal(t, models.StageInspection, advisories[1].SuggestedStatus)
}

func TestAdvisorUnlinkedLeadSuggestsTransaction(t *testing.T) {
	lead := newLead("Eli", models.LeadStatusHot, 1, 30)
	lead.Notes = "Offer accepted on the condo"

	advisories := Scan([]models.Lead{lead}, nil, nil, testNow)
	require.Len(t, advisories, 1)
	adv := advisories[0]
	assert.Equal(t, models.AdvisoryActionCreateTransaction, adv.Action)
	assert.Nil(t, adv.TransactionID)

	updated, applied, err := Apply(adv, nil, testNow)
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.True(t, applied.Dismissed)
}

func TestAdvisorSkipsDismissedKeys(t *testing.T) {
	lead, tx := linkedPair(t, "under contract", models.StagePending)
	dismissed := models.NewIDSet(AdvisoryID(lead, models.StageUnderContract))

	assert.Empty(t, Scan([]models.Lead{lead}, []models.Transaction{tx}, dismissed, testNow))
}

func TestAdvisorIgnoresTerminalTransactions(t *testing.T) {
	for _, stage := range []string{models.StageClosed, models.StageCancelled} {
		lead, tx := linkedPair(t, "appraisal scheduled, clear to close, keys handed", stage)
		assert.Empty(t, Scan([]models.Lead{lead}, []models.Transaction{tx}, nil, testNow), stage)
	}
}

func TestAdvisorPrefersOpenTransaction(t *testing.T) {
	lead, closed := linkedPair(t, "appraiser came by", models.StageClosed)
	open := TransactionFromLead(lead, testNow)

	advisories := Scan([]models.Lead{lead}, []models.Transaction{closed, open}, nil, testNow)

	require.Len(t, advisories, 1)
	assert.Equal(t, open.ID, *advisories[0].TransactionID)
}

func TestApplyWithMissingTransactionFallsBackToUnlinked(t *testing.T) {
	lead, tx := linkedPair(t, "under contract", models.StagePending)
	advisories := Scan([]models.Lead{lead}, []models.Transaction{tx}, nil, testNow)
	require.Len(t, advisories, 1)

	updated, applied, err := Apply(advisories[0], nil, testNow)
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.True(t, applied.Dismissed)
}

func TestContainsPhraseRespectsWordBoundaries(t *testing.T) {
	assert.True(t, containsPhrase("we closed on the house", "closed on"))
	assert.False(t, containsPhrase("enclosed only the deposit", "closed on"))
	assert.False(t, containsPhrase("two inspectors came", "inspector"))
	assert.True(t, containsPhrase("inspector: bob", "inspector"))
	assert.True(t, containsPhrase("status: ratified.", "ratified"))
	assert.False(t, containsPhrase("anything", ""))
}

func TestKeywordMatchIsCaseInsensitive(t *testing.T) {
	phrase, ok := DefaultKeywords.FirstMatch(models.StageClearToClose, "Lender says CLEAR TO CLOSE")
	assert.True(t, ok)
	assert.Equal(t, "clear to close", phrase)
}
