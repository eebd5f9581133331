// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"math"
	"testing"
)

const weightEpsilon = 1e-9

func TestDefaultWeightsSumToOne(t *testing.T) {
	tests := []struct {
		name    string
		weights SignalWeights
	}{
		{"no_query", DefaultNoQueryWeights()},
		{"query", DefaultQueryWeights()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := math.Abs(tt.weights.Sum() - 1.0); diff > weightEpsilon {
				t.Errorf("Sum() = %v, want 1.0", tt.weights.Sum())
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    SignalWeights
		check func(t *testing.T, out SignalWeights)
	}{
		{
			name: "scales_to_one",
			in:   SignalWeights{Collaborative: 2, Content: 1, Demographic: 1, Keyword: 0},
			check: func(t *testing.T, out SignalWeights) {
				if math.Abs(out.Sum()-1.0) > weightEpsilon {
					t.Errorf("Sum() = %v, want 1.0", out.Sum())
				}
				if math.Abs(out.Collaborative-0.5) > weightEpsilon {
					t.Errorf("Collaborative = %v, want 0.5", out.Collaborative)
				}
			},
		},
		{
			name: "zero_vector_falls_back_to_default",
			in:   SignalWeights{},
			check: func(t *testing.T, out SignalWeights) {
				if out != DefaultNoQueryWeights() {
					t.Errorf("Normalize() = %+v, want no-query defaults", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.in.Normalize())
		})
	}
}

func TestAdjustWeights(t *testing.T) {
	adj := DefaultWeightAdjustments()

	tests := []struct {
		name    string
		profile *BehaviorProfile
		check   func(t *testing.T, out SignalWeights)
	}{
		{
			name:    "nil_profile_returns_base",
			profile: nil,
			check: func(t *testing.T, out SignalWeights) {
				want := DefaultNoQueryWeights()
				if math.Abs(out.Collaborative-want.Collaborative) > weightEpsilon ||
					math.Abs(out.Content-want.Content) > weightEpsilon {
					t.Errorf("got %+v, want unmodified defaults", out)
				}
			},
		},
		{
			name: "high_activity_raises_collaborative",
			profile: &BehaviorProfile{
				TotalInteractions: 25,
			},
			check: func(t *testing.T, out SignalWeights) {
				base := DefaultNoQueryWeights()
				if out.Collaborative <= base.Collaborative {
					t.Errorf("Collaborative = %v, want above %v", out.Collaborative, base.Collaborative)
				}
			},
		},
		{
			name: "dominant_genre_raises_content",
			profile: &BehaviorProfile{
				TotalInteractions:  5,
				DominantGenre:      "Action",
				DominantGenreCount: 4,
			},
			check: func(t *testing.T, out SignalWeights) {
				base := DefaultNoQueryWeights()
				if out.Content <= base.Content {
					t.Errorf("Content = %v, want above %v", out.Content, base.Content)
				}
			},
		},
		{
			name: "recent_release_skew_raises_content",
			profile: &BehaviorProfile{
				TotalInteractions:  6,
				RecentReleaseShare: 0.8,
			},
			check: func(t *testing.T, out SignalWeights) {
				base := DefaultNoQueryWeights()
				if out.Content <= base.Content {
					t.Errorf("Content = %v, want above %v", out.Content, base.Content)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := AdjustWeights(DefaultNoQueryWeights(), tt.profile, adj)
			if math.Abs(out.Sum()-1.0) > weightEpsilon {
				t.Fatalf("Sum() = %v, want 1.0 after adjustment", out.Sum())
			}
			tt.check(t, out)
		})
	}
}

func TestRedistributeMissing(t *testing.T) {
	tests := []struct {
		name    string
		base    SignalWeights
		missing map[string]bool
		check   func(t *testing.T, out SignalWeights)
	}{
		{
			name:    "one_missing_redistributes",
			base:    DefaultNoQueryWeights(),
			missing: map[string]bool{SignalDemographic: true},
			check: func(t *testing.T, out SignalWeights) {
				if out.Demographic != 0 {
					t.Errorf("Demographic = %v, want 0", out.Demographic)
				}
				if math.Abs(out.Sum()-1.0) > weightEpsilon {
					t.Errorf("Sum() = %v, want 1.0", out.Sum())
				}
				// 0.45/0.80 after removing demographic's 0.20.
				if math.Abs(out.Collaborative-0.5625) > weightEpsilon {
					t.Errorf("Collaborative = %v, want 0.5625", out.Collaborative)
				}
			},
		},
		{
			name: "all_missing_returns_zero_vector",
			base: DefaultNoQueryWeights(),
			missing: map[string]bool{
				SignalCollaborative: true,
				SignalContent:       true,
				SignalDemographic:   true,
				SignalKeyword:       true,
			},
			check: func(t *testing.T, out SignalWeights) {
				if out.Sum() != 0 {
					t.Errorf("Sum() = %v, want 0 to trigger the popularity fallback", out.Sum())
				}
			},
		},
		{
			name:    "none_missing_keeps_normalized_base",
			base:    DefaultQueryWeights(),
			missing: map[string]bool{},
			check: func(t *testing.T, out SignalWeights) {
				want := DefaultQueryWeights()
				if math.Abs(out.Keyword-want.Keyword) > weightEpsilon ||
					math.Abs(out.Collaborative-want.Collaborative) > weightEpsilon {
					t.Errorf("got %+v, want query defaults", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, RedistributeMissing(tt.base, tt.missing))
		})
	}
}

func TestGetAndToMapAgree(t *testing.T) {
	w := DefaultQueryWeights()
	m := w.ToMap()
	for _, name := range []string{SignalCollaborative, SignalContent, SignalDemographic, SignalKeyword} {
		if w.Get(name) != m[name] {
			t.Errorf("Get(%q) = %v, ToMap()[%q] = %v", name, w.Get(name), name, m[name])
		}
	}
	if w.Get("unknown") != 0 {
		t.Errorf("Get(unknown) = %v, want 0", w.Get("unknown"))
	}
}
