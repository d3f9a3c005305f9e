// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"math"
	"testing"

	"github.com/danielhkuo/civic-ballot/models"
)

func TestBuildTally(t *testing.T) {
	tests := []struct {
		name      string
		counts    []models.ChoiceCount
		wantTotal int64
		wantPct   map[string]float64
	}{
		{
			name:      "no votes",
			counts:    []models.ChoiceCount{{Choice: "yes"}, {Choice: "no"}},
			wantTotal: 0,
			wantPct:   map[string]float64{"yes": 0, "no": 0},
		},
		{
			name:      "unanimous",
			counts:    []models.ChoiceCount{{Choice: "A", Count: 1}, {Choice: "B"}},
			wantTotal: 1,
			wantPct:   map[string]float64{"A": 100, "B": 0},
		},
		{
			name:      "thirds",
			counts:    []models.ChoiceCount{{Choice: "A", Count: 1}, {Choice: "B", Count: 1}, {Choice: "C", Count: 1}},
			wantTotal: 3,
			wantPct:   map[string]float64{"A": 100.0 / 3, "B": 100.0 / 3, "C": 100.0 / 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := BuildTally(models.KindPoll, "p1", tt.counts)
			if tally.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", tally.Total, tt.wantTotal)
			}
			var sum float64
			for choice, want := range tt.wantPct {
				got := tally.Percentage(choice)
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("Percentage(%s) = %f, want %f", choice, got, want)
				}
				sum += got
			}
			if tt.wantTotal > 0 && math.Abs(sum-100) > 0.01 {
				t.Errorf("Percentages sum to %f", sum)
			}
		})
	}
}

func TestTally_Leader(t *testing.T) {
	empty := BuildTally(models.KindReferendum, "national", []models.ChoiceCount{{Choice: "yes"}, {Choice: "no"}})
	if _, ok := empty.Leader(); ok {
		t.Error("Expected no leader without votes")
	}

	tied := BuildTally(models.KindReferendum, "national", []models.ChoiceCount{{Choice: "yes", Count: 2}, {Choice: "no", Count: 2}})
	if leader, ok := tied.Leader(); !ok || leader != "yes" {
		t.Errorf("Expected tie to go to the earlier choice, got %q", leader)
	}
}
