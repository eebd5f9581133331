// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package boost adjusts blended recommendation scores with bounded
// multiplicative factors derived from a user's recent behavior profile.
// Each factor stays within a configured band so no single preference can
// dominate, and the combined product is capped so boosting reorders the
// list without drowning the underlying signals.
package boost

import (
	"strings"

	"github.com/gamestore/recsys/internal/recommend"
)

// Config bounds the boost factors.
type Config struct {
	// MinFactor and MaxFactor clamp each individual factor.
	// Defaults: 0.8 and 1.5.
	MinFactor float64
	MaxFactor float64

	// TotalCap clamps the product of all factors. Default: 2.0.
	TotalCap float64

	// PriceBandBoost is the factor for items inside the user's price
	// band (mean ± std), PriceOutsidePenalty for items far outside it.
	// Defaults: 1.25 and 0.85.
	PriceBandBoost      float64
	PriceOutsidePenalty float64

	// PriceStdFallbackRatio widens a zero-width band to this fraction
	// of the mean so a user with uniform purchase prices still gets a
	// working band. Default: 0.1.
	PriceStdFallbackRatio float64

	// GenreScale and PublisherScale convert profile affinity shares
	// into factor deltas above 1.0. Defaults: 0.5 each.
	GenreScale     float64
	PublisherScale float64

	// MatchBoost is the factor for a dominant age-rating or mode match.
	// Default: 1.15.
	MatchBoost float64

	// PlatformScale converts platform affinity into a factor delta.
	// Default: 0.3.
	PlatformScale float64
}

// DefaultConfig returns the default boost configuration.
func DefaultConfig() Config {
	return Config{
		MinFactor:             0.8,
		MaxFactor:             1.5,
		TotalCap:              2.0,
		PriceBandBoost:        1.25,
		PriceOutsidePenalty:   0.85,
		PriceStdFallbackRatio: 0.1,
		GenreScale:            0.5,
		PublisherScale:        0.5,
		MatchBoost:            1.15,
		PlatformScale:         0.3,
	}
}

// Booster computes per-item boost factors from a behavior profile.
type Booster struct {
	cfg Config
}

var _ recommend.Booster = (*Booster)(nil)

// Name returns the booster identifier.
func (b *Booster) Name() string {
	return "adaptive"
}

// New creates a booster with the given configuration. Zero-valued
// fields fall back to the defaults.
func New(cfg Config) *Booster {
	def := DefaultConfig()
	if cfg.MinFactor <= 0 {
		cfg.MinFactor = def.MinFactor
	}
	if cfg.MaxFactor <= 0 {
		cfg.MaxFactor = def.MaxFactor
	}
	if cfg.TotalCap <= 0 {
		cfg.TotalCap = def.TotalCap
	}
	if cfg.PriceBandBoost <= 0 {
		cfg.PriceBandBoost = def.PriceBandBoost
	}
	if cfg.PriceOutsidePenalty <= 0 {
		cfg.PriceOutsidePenalty = def.PriceOutsidePenalty
	}
	if cfg.PriceStdFallbackRatio <= 0 {
		cfg.PriceStdFallbackRatio = def.PriceStdFallbackRatio
	}
	if cfg.GenreScale <= 0 {
		cfg.GenreScale = def.GenreScale
	}
	if cfg.PublisherScale <= 0 {
		cfg.PublisherScale = def.PublisherScale
	}
	if cfg.MatchBoost <= 0 {
		cfg.MatchBoost = def.MatchBoost
	}
	if cfg.PlatformScale <= 0 {
		cfg.PlatformScale = def.PlatformScale
	}
	return &Booster{cfg: cfg}
}

// Factors computes the six boost factors for an item. A nil or empty
// profile returns identity factors so cold users see unboosted scores.
func (b *Booster) Factors(profile *recommend.BehaviorProfile, item *recommend.Item) recommend.BoostFactors {
	identity := recommend.BoostFactors{
		Genre: 1, Publisher: 1, Price: 1, AgeRating: 1, Mode: 1, Platform: 1,
		Total: 1,
	}
	if profile == nil || profile.TotalInteractions == 0 || item == nil {
		return identity
	}

	f := recommend.BoostFactors{
		Genre:     b.clamp(b.genreFactor(profile, item)),
		Publisher: b.clamp(b.publisherFactor(profile, item)),
		Price:     b.clamp(b.priceFactor(profile, item)),
		AgeRating: b.clamp(b.matchFactor(profile.DominantAgeRating, item.AgeRating)),
		Mode:      b.clamp(b.matchFactor(profile.DominantMode, item.Mode)),
		Platform:  b.clamp(b.platformFactor(profile, item)),
	}

	total := f.Genre * f.Publisher * f.Price * f.AgeRating * f.Mode * f.Platform
	if total > b.cfg.TotalCap {
		total = b.cfg.TotalCap
	}
	f.Total = total
	return f
}

// genreFactor rewards overlap between the item's genres and the
// profile's weighted genre distribution.
func (b *Booster) genreFactor(profile *recommend.BehaviorProfile, item *recommend.Item) float64 {
	if len(item.Genres) == 0 || len(profile.Genres) == 0 {
		return 1
	}
	var overlap float64
	for _, g := range item.Genres {
		overlap += profile.Genres[g]
	}
	return 1 + b.cfg.GenreScale*overlap
}

func (b *Booster) publisherFactor(profile *recommend.BehaviorProfile, item *recommend.Item) float64 {
	if item.Publisher == "" {
		return 1
	}
	return 1 + b.cfg.PublisherScale*profile.Publishers[item.Publisher]
}

// priceFactor boosts items inside the user's habitual price band and
// penalizes items far outside it. Free items are left neutral; price is
// no preference signal for them.
func (b *Booster) priceFactor(profile *recommend.BehaviorProfile, item *recommend.Item) float64 {
	if profile.PriceMean <= 0 || item.Price <= 0 {
		return 1
	}

	std := profile.PriceStd
	if std == 0 {
		std = b.cfg.PriceStdFallbackRatio * profile.PriceMean
	}

	diff := item.Price - profile.PriceMean
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= std:
		return b.cfg.PriceBandBoost
	case diff > 2*std:
		return b.cfg.PriceOutsidePenalty
	default:
		return 1
	}
}

func (b *Booster) matchFactor(dominant, value string) float64 {
	if dominant == "" || value == "" {
		return 1
	}
	if strings.EqualFold(dominant, value) {
		return b.cfg.MatchBoost
	}
	return 1
}

func (b *Booster) platformFactor(profile *recommend.BehaviorProfile, item *recommend.Item) float64 {
	if len(item.Platforms) == 0 || len(profile.Platforms) == 0 {
		return 1
	}
	var overlap float64
	for _, p := range item.Platforms {
		overlap += profile.Platforms[p]
	}
	return 1 + b.cfg.PlatformScale*overlap
}

func (b *Booster) clamp(v float64) float64 {
	if v < b.cfg.MinFactor {
		return b.cfg.MinFactor
	}
	if v > b.cfg.MaxFactor {
		return b.cfg.MaxFactor
	}
	return v
}
