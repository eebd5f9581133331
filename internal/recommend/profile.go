// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"math"
	"time"
)

// BehaviorProfile is a time-windowed statistical summary of a user's
// recent interactions. It lives for one scoring request and drives both
// the weight nudges of the combiner and the boost factors.
type BehaviorProfile struct {
	// WindowDays is the recency window the profile was built over.
	WindowDays int `json:"window_days"`

	// AllTime indicates the window contained no events and the profile
	// fell back to the full interaction history.
	AllTime bool `json:"all_time"`

	// TotalInteractions is the number of events the profile summarizes.
	TotalInteractions int `json:"total_interactions"`

	// Genres is the weighted genre distribution, normalized to sum to 1.
	Genres map[string]float64 `json:"genres,omitempty"`

	// Publishers is the weighted publisher distribution, normalized to sum to 1.
	Publishers map[string]float64 `json:"publishers,omitempty"`

	// Platforms is the weighted platform distribution, normalized to sum to 1.
	Platforms map[string]float64 `json:"platforms,omitempty"`

	// AgeRatings is the weighted age-rating distribution, normalized to sum to 1.
	AgeRatings map[string]float64 `json:"age_ratings,omitempty"`

	// Modes is the weighted play-mode distribution, normalized to sum to 1.
	Modes map[string]float64 `json:"modes,omitempty"`

	// PriceMean and PriceStd summarize the prices of interacted items.
	PriceMean float64 `json:"price_mean"`
	PriceStd  float64 `json:"price_std"`

	// DominantGenre is the most frequent genre and DominantGenreCount its
	// raw occurrence count across the profiled events.
	DominantGenre      string `json:"dominant_genre,omitempty"`
	DominantGenreCount int    `json:"dominant_genre_count"`

	// DominantAgeRating is the highest-weighted age rating.
	DominantAgeRating string `json:"dominant_age_rating,omitempty"`

	// DominantMode is the highest-weighted play mode.
	DominantMode string `json:"dominant_mode,omitempty"`

	// ActiveInWindow indicates at least one event fell inside the window.
	ActiveInWindow bool `json:"active_in_window"`

	// RecentReleaseShare is the share of events whose item was released
	// within the configured recent-release horizon.
	RecentReleaseShare float64 `json:"recent_release_share"`
}

// ProfileOptions tunes behavior profile construction.
type ProfileOptions struct {
	// WindowDays is the recency window. Default: 7.
	WindowDays int

	// RecentReleaseYears is the horizon for counting an item as a recent
	// release. Default: 2.
	RecentReleaseYears int

	// FavoriteWeight, PurchaseWeight, and ViewWeight weight events by type
	// when building the distributions.
	FavoriteWeight float64
	PurchaseWeight float64
	ViewWeight     float64
}

// DefaultProfileOptions returns the default profiling parameters.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		WindowDays:         7,
		RecentReleaseYears: 2,
		FavoriteWeight:     5.0,
		PurchaseWeight:     3.0,
		ViewWeight:         0.5,
	}
}

// eventWeight returns the profile weight of an interaction type.
func (o ProfileOptions) eventWeight(t InteractionType) float64 {
	switch t {
	case InteractionFavorite:
		return o.FavoriteWeight
	case InteractionPurchase:
		return o.PurchaseWeight
	case InteractionView:
		return o.ViewWeight
	default:
		return 0
	}
}

// BuildProfile derives a behavior profile from a user's interaction events.
// Events outside the recency window are excluded; if no event falls inside
// the window, the profile falls back to the full history (AllTime=true).
// items maps item ID to catalog entry for attribute lookup.
func BuildProfile(events []Interaction, items map[string]*Item, now time.Time, opts ProfileOptions) *BehaviorProfile {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultProfileOptions().WindowDays
	}
	if opts.RecentReleaseYears <= 0 {
		opts.RecentReleaseYears = DefaultProfileOptions().RecentReleaseYears
	}
	if opts.FavoriteWeight == 0 && opts.PurchaseWeight == 0 && opts.ViewWeight == 0 {
		d := DefaultProfileOptions()
		opts.FavoriteWeight = d.FavoriteWeight
		opts.PurchaseWeight = d.PurchaseWeight
		opts.ViewWeight = d.ViewWeight
	}

	cutoff := now.AddDate(0, 0, -opts.WindowDays)
	windowed := make([]Interaction, 0, len(events))
	for _, ev := range events {
		if !ev.Timestamp.Before(cutoff) {
			windowed = append(windowed, ev)
		}
	}

	profile := &BehaviorProfile{
		WindowDays:     opts.WindowDays,
		ActiveInWindow: len(windowed) > 0,
	}

	selected := windowed
	if len(selected) == 0 {
		selected = events
		profile.AllTime = true
	}
	if len(selected) == 0 {
		return profile
	}

	profile.TotalInteractions = len(selected)

	genres := make(map[string]float64)
	genreCounts := make(map[string]int)
	publishers := make(map[string]float64)
	platforms := make(map[string]float64)
	ageRatings := make(map[string]float64)
	modes := make(map[string]float64)

	var priceSum, priceSqSum float64
	var priceN int
	var recentN int
	recentCutoff := now.AddDate(-opts.RecentReleaseYears, 0, 0)

	for _, ev := range selected {
		item, ok := items[ev.ItemID]
		if !ok {
			continue
		}
		w := opts.eventWeight(ev.Type)

		for _, g := range item.Genres {
			genres[g] += w
			genreCounts[g]++
		}
		if item.Publisher != "" {
			publishers[item.Publisher] += w
		}
		for _, p := range item.Platforms {
			platforms[p] += w
		}
		if item.AgeRating != "" {
			ageRatings[item.AgeRating] += w
		}
		if item.Mode != "" {
			modes[item.Mode] += w
		}

		priceSum += item.Price
		priceSqSum += item.Price * item.Price
		priceN++

		if !item.ReleaseDate.IsZero() && !item.ReleaseDate.Before(recentCutoff) {
			recentN++
		}
	}

	normalizeDistribution(genres)
	normalizeDistribution(publishers)
	normalizeDistribution(platforms)
	normalizeDistribution(ageRatings)
	normalizeDistribution(modes)

	profile.Genres = genres
	profile.Publishers = publishers
	profile.Platforms = platforms
	profile.AgeRatings = ageRatings
	profile.Modes = modes

	if priceN > 0 {
		mean := priceSum / float64(priceN)
		variance := priceSqSum/float64(priceN) - mean*mean
		if variance < 0 {
			variance = 0
		}
		profile.PriceMean = mean
		profile.PriceStd = math.Sqrt(variance)
	}

	profile.DominantGenre, profile.DominantGenreCount = dominantCount(genreCounts)
	profile.DominantAgeRating = dominantWeight(ageRatings)
	profile.DominantMode = dominantWeight(modes)
	profile.RecentReleaseShare = float64(recentN) / float64(len(selected))

	return profile
}

// normalizeDistribution scales map values in place to sum to 1.
func normalizeDistribution(m map[string]float64) {
	var sum float64
	for _, v := range m {
		sum += v
	}
	if sum == 0 {
		return
	}
	for k, v := range m {
		m[k] = v / sum
	}
}

// dominantCount returns the key with the highest count. Ties break toward
// the lexicographically smaller key so profiles are deterministic.
func dominantCount(m map[string]int) (string, int) {
	var best string
	var bestN int
	for k, n := range m {
		if n > bestN || (n == bestN && (best == "" || k < best)) {
			best, bestN = k, n
		}
	}
	return best, bestN
}

// dominantWeight returns the key with the highest weight, with the same
// deterministic tie-break as dominantCount.
func dominantWeight(m map[string]float64) string {
	var best string
	var bestW float64
	for k, w := range m {
		if w > bestW || (w == bestW && (best == "" || k < best)) {
			best, bestW = k, w
		}
	}
	return best
}
