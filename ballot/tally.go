// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import "github.com/danielhkuo/civic-ballot/models"

// BuildTally derives counts and percentages from per-choice counters.
// Percentages are left unrounded; when nothing was cast every share is 0.
func BuildTally(kind models.DomainKind, scopeID string, counts []models.ChoiceCount) models.Tally {
	var total int64
	for _, c := range counts {
		total += c.Count
	}

	t := models.Tally{
		Kind:    kind,
		ScopeID: scopeID,
		Choices: make([]models.ChoiceTally, len(counts)),
		Total:   total,
	}
	for i, c := range counts {
		t.Choices[i] = models.ChoiceTally{
			Choice:     c.Choice,
			Count:      c.Count,
			Percentage: percentage(c.Count, total),
		}
	}
	return t
}

func percentage(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
