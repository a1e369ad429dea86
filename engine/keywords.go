// ABOUTME: Phrase table linking note language to pipeline stages
// ABOUTME: Matching is case-insensitive and respects word boundaries
package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harperreed/leadengine/models"
)

// KeywordTable maps a suggested stage to the lowercase phrases that imply it.
type KeywordTable map[string][]string

// DefaultKeywords is the phrase table the advisor uses.
var DefaultKeywords = KeywordTable{
	models.StageUnderContract: {
		"under contract", "offer accepted", "accepted offer", "accepted our offer",
		"ratified", "contract signed", "signed contract",
	},
	models.StageContingent: {
		"contingent", "contingency period", "pending contingencies",
	},
	models.StageInspection: {
		"inspection scheduled", "home inspection", "inspection booked", "inspector",
	},
	models.StageAppraisal: {
		"appraisal ordered", "appraisal scheduled", "appraised", "appraiser",
	},
	models.StageClearToClose: {
		"clear to close", "cleared to close", "final approval", "loan approved",
	},
	models.StageClosed: {
		"closed on", "closing complete", "keys handed", "handed over the keys",
		"settled", "deed recorded",
	},
}

// FirstMatch returns the first phrase for stage found in text.
func (k KeywordTable) FirstMatch(stage, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range k[stage] {
		if containsPhrase(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs in text with no letter or
// digit touching either end.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
