// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

// SignalWeights is the weight vector blending the four scoring signals.
// Weights are re-normalized to sum to exactly 1 after every adjustment;
// callers may rely on that invariant.
type SignalWeights struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
	Demographic   float64 `json:"demographic"`
	Keyword       float64 `json:"keyword"`
}

// Sum returns the sum of the four weights.
func (w SignalWeights) Sum() float64 {
	return w.Collaborative + w.Content + w.Demographic + w.Keyword
}

// Normalize returns a copy with weights scaled to sum to 1.0.
// A zero vector normalizes to the no-query default split.
func (w SignalWeights) Normalize() SignalWeights {
	sum := w.Sum()
	if sum == 0 {
		return DefaultNoQueryWeights()
	}
	return SignalWeights{
		Collaborative: w.Collaborative / sum,
		Content:       w.Content / sum,
		Demographic:   w.Demographic / sum,
		Keyword:       w.Keyword / sum,
	}
}

// ToMap returns the weights keyed by signal name.
func (w SignalWeights) ToMap() map[string]float64 {
	return map[string]float64{
		SignalCollaborative: w.Collaborative,
		SignalContent:       w.Content,
		SignalDemographic:   w.Demographic,
		SignalKeyword:       w.Keyword,
	}
}

// Get returns the weight for a signal name.
func (w SignalWeights) Get(name string) float64 {
	switch name {
	case SignalCollaborative:
		return w.Collaborative
	case SignalContent:
		return w.Content
	case SignalDemographic:
		return w.Demographic
	case SignalKeyword:
		return w.Keyword
	default:
		return 0
	}
}

// DefaultNoQueryWeights returns the base split used when no free-text
// query is present: collaborative-dominant, keyword zeroed.
func DefaultNoQueryWeights() SignalWeights {
	return SignalWeights{
		Collaborative: 0.45,
		Content:       0.35,
		Demographic:   0.20,
		Keyword:       0,
	}
}

// DefaultQueryWeights returns the base split used when a query is present:
// keyword-dominant, remainder split across the other three.
func DefaultQueryWeights() SignalWeights {
	return SignalWeights{
		Collaborative: 0.20,
		Content:       0.20,
		Demographic:   0.10,
		Keyword:       0.50,
	}
}

// WeightAdjustments holds the behavior-profile nudges applied on top of
// the selected base weights. The deltas are small relative shifts; the
// result is always re-normalized.
type WeightAdjustments struct {
	// RecentReleaseDelta is added to content weight (and split off
	// collaborative and demographic) for users skewing toward
	// recently-released titles.
	RecentReleaseDelta float64 `json:"recent_release_delta"`

	// RecentReleaseShareMin is the interaction share of recent releases
	// that triggers the recent-release nudge.
	RecentReleaseShareMin float64 `json:"recent_release_share_min"`

	// HighActivityDelta is added to collaborative weight for users with
	// a high total interaction count.
	HighActivityDelta float64 `json:"high_activity_delta"`

	// HighActivityMin is the interaction count that triggers the
	// high-activity nudge.
	HighActivityMin int `json:"high_activity_min"`

	// DominantGenreDelta is added to content weight when a single genre
	// dominates the user's interactions.
	DominantGenreDelta float64 `json:"dominant_genre_delta"`

	// DominantGenreMin is the occurrence count that makes a genre dominant.
	DominantGenreMin int `json:"dominant_genre_min"`

	// ActiveWindowDelta is added to content weight for users active
	// within the boost recency window.
	ActiveWindowDelta float64 `json:"active_window_delta"`
}

// DefaultWeightAdjustments returns the default nudge deltas.
func DefaultWeightAdjustments() WeightAdjustments {
	return WeightAdjustments{
		RecentReleaseDelta:    0.05,
		RecentReleaseShareMin: 0.5,
		HighActivityDelta:     0.05,
		HighActivityMin:       20,
		DominantGenreDelta:    0.05,
		DominantGenreMin:      3,
		ActiveWindowDelta:     0.05,
	}
}

// AdjustWeights applies behavior-profile nudges to a base weight vector
// and re-normalizes. A nil profile returns the normalized base weights.
func AdjustWeights(base SignalWeights, profile *BehaviorProfile, adj WeightAdjustments) SignalWeights {
	if profile == nil {
		return base.Normalize()
	}

	w := base

	if profile.RecentReleaseShare >= adj.RecentReleaseShareMin && profile.TotalInteractions > 0 {
		w.Content += adj.RecentReleaseDelta
		w.Collaborative -= adj.RecentReleaseDelta / 2
		w.Demographic -= adj.RecentReleaseDelta / 2
	}
	if profile.TotalInteractions >= adj.HighActivityMin {
		w.Collaborative += adj.HighActivityDelta
	}
	if profile.DominantGenreCount >= adj.DominantGenreMin {
		w.Content += adj.DominantGenreDelta
	}
	if profile.ActiveInWindow {
		w.Content += adj.ActiveWindowDelta
	}

	// Negative weights are clamped before normalization so a nudge can
	// never flip a signal's contribution.
	if w.Collaborative < 0 {
		w.Collaborative = 0
	}
	if w.Content < 0 {
		w.Content = 0
	}
	if w.Demographic < 0 {
		w.Demographic = 0
	}
	if w.Keyword < 0 {
		w.Keyword = 0
	}

	return w.Normalize()
}

// RedistributeMissing zeroes the weights of missing signals and
// re-normalizes across the remaining ones. If every signal is missing the
// zero vector is returned; the caller falls back to the popularity prior.
func RedistributeMissing(w SignalWeights, missing map[string]bool) SignalWeights {
	if missing[SignalCollaborative] {
		w.Collaborative = 0
	}
	if missing[SignalContent] {
		w.Content = 0
	}
	if missing[SignalDemographic] {
		w.Demographic = 0
	}
	if missing[SignalKeyword] {
		w.Keyword = 0
	}

	if w.Sum() == 0 {
		return SignalWeights{}
	}
	return w.Normalize()
}
