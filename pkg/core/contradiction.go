package core

import (
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+`)

// IsContradiction reports whether a candidate fact contradicts an existing
// memory. Detection is rule based and deliberately conservative: only
// allergy and medication memories of the same category can contradict, and
// only via the patterns below. Everything else is treated as compatible.
//
// Allergy: the existing memory denies an allergy while the candidate
// asserts one, in two fixed pairings: "no allergy" against "allergic", and
// "not allergic" against "allergic to".
//
// Medication: both mention numbers (doses) and the sets of numbers differ.
func IsContradiction(candidate *ExtractedMemory, existing *Memory) bool {
	if candidate == nil || existing == nil {
		return false
	}
	if candidate.Category != existing.Category {
		return false
	}

	candidateContent := strings.ToLower(candidate.Content)
	existingContent := strings.ToLower(existing.Content)

	switch candidate.Category {
	case CategoryAllergy:
		if strings.Contains(existingContent, "no allergy") && strings.Contains(candidateContent, "allergic") {
			return true
		}
		if strings.Contains(existingContent, "not allergic") && strings.Contains(candidateContent, "allergic to") {
			return true
		}
		return false

	case CategoryMedication:
		candidateNumbers := numberSet(candidateContent)
		existingNumbers := numberSet(existingContent)
		if len(candidateNumbers) == 0 || len(existingNumbers) == 0 {
			return false
		}
		return !equalSets(candidateNumbers, existingNumbers)
	}

	return false
}

// numberSet extracts the set of numeric tokens in the content.
func numberSet(content string) map[string]bool {
	tokens := numberPattern.FindAllString(content, -1)
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for token := range a {
		if !b[token] {
			return false
		}
	}
	return true
}
