// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights selects and adjusts the signal weight vector.
	Weights WeightsConfig `json:"weights"`

	// Matrix contains implicit-affinity weights for the user-item matrix.
	Matrix MatrixConfig `json:"matrix"`

	// Collaborative contains parameters for the latent factor model.
	Collaborative CollaborativeConfig `json:"collaborative"`

	// Normalize contains the per-signal normalization parameters.
	Normalize NormalizeConfig `json:"normalize"`

	// Boost contains parameters for the adaptive boost engine.
	Boost BoostConfig `json:"boost"`

	// Training contains retrain policy parameters.
	Training TrainingConfig `json:"training"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`

	// Seed is the random seed for request ID generation.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// WeightsConfig is the explicit two-variant weight configuration: one base
// vector for requests with a free-text query, one for requests without,
// selected once per request and then nudged by the behavior profile.
type WeightsConfig struct {
	// NoQuery is the base vector when no query is present (keyword must be 0).
	NoQuery SignalWeights `json:"no_query"`

	// Query is the base vector when a query is present (keyword-dominant).
	Query SignalWeights `json:"query"`

	// Adjust holds the behavior-profile nudge deltas.
	Adjust WeightAdjustments `json:"adjust"`
}

// Select returns the base weight vector for the request shape.
func (w WeightsConfig) Select(hasQuery bool) SignalWeights {
	if hasQuery {
		return w.Query
	}
	return w.NoQuery
}

// MatrixConfig contains the implicit-affinity weights used to build the
// user-item matrix. All resulting cells are >= 0; absent interaction is 0.
type MatrixConfig struct {
	// FavoriteWeight is the affinity contributed by a wishlist entry.
	// Default: 5.
	FavoriteWeight float64 `json:"favorite_weight"`

	// PurchaseWeight is the affinity contributed by a purchase when the
	// purchase carries no explicit rating. Default: 3.
	PurchaseWeight float64 `json:"purchase_weight"`

	// ViewWeight is the affinity contributed per view. Default: 0.5.
	ViewWeight float64 `json:"view_weight"`

	// ViewCap bounds the total view contribution per item. Default: 2.
	ViewCap float64 `json:"view_cap"`
}

// CollaborativeConfig contains parameters for the truncated SVD model.
type CollaborativeConfig struct {
	// Rank is the factorization rank k. Zero selects an automatic rank
	// bounded by MaxRank and the matrix dimensions.
	Rank int `json:"rank"`

	// MaxRank bounds the automatic rank selection. Default: 20.
	MaxRank int `json:"max_rank"`
}

// NormalizeConfig maps each raw signal onto a comparable [0,1] scale
// before combination.
type NormalizeConfig struct {
	// CollabOffset and CollabScale define the affine map
	// (score+CollabOffset)/CollabScale for predicted affinities, clipped
	// to [0,1]. Defaults: 5 and 10.
	CollabOffset float64 `json:"collab_offset"`
	CollabScale  float64 `json:"collab_scale"`

	// DemographicScale divides the demographic score (a 0-5 rating scale).
	// Default: 5.
	DemographicScale float64 `json:"demographic_scale"`
}

// BoostConfig contains parameters for the adaptive boost engine.
type BoostConfig struct {
	// WindowDays is the default recency window for behavior profiling.
	// Default: 7.
	WindowDays int `json:"window_days"`

	// RecentReleaseYears is the horizon for counting an item as recent.
	// Default: 2.
	RecentReleaseYears int `json:"recent_release_years"`

	// MinFactor and MaxFactor bound every individual boost factor.
	// Defaults: 0.8 and 1.5.
	MinFactor float64 `json:"min_factor"`
	MaxFactor float64 `json:"max_factor"`

	// TotalCap bounds the product of the six factors. Default: 2.0.
	TotalCap float64 `json:"total_cap"`
}

// TrainingConfig contains retrain policy parameters.
type TrainingConfig struct {
	// RetrainEvery triggers a model rebuild after this many new
	// interactions since the last train. Default: 10.
	RetrainEvery int `json:"retrain_every"`

	// Timeout is the maximum time allowed for a training run. Default: 2m.
	Timeout time.Duration `json:"timeout"`

	// MinUsers and MinItems are the smallest matrix the collaborative
	// filter will factorize. Defaults: 2 and 2.
	MinUsers int `json:"min_users"`
	MinItems int `json:"min_items"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value. Default: 100.
	MaxK int `json:"max_k"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether response caching is active. Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live. Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses. Default: 10000.
	MaxEntries int `json:"max_entries"`

	// InvalidateOnTrain controls whether the cache is cleared after a
	// successful training run. Default: true.
	InvalidateOnTrain bool `json:"invalidate_on_train"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: WeightsConfig{
			NoQuery: DefaultNoQueryWeights(),
			Query:   DefaultQueryWeights(),
			Adjust:  DefaultWeightAdjustments(),
		},
		Matrix: MatrixConfig{
			FavoriteWeight: 5.0,
			PurchaseWeight: 3.0,
			ViewWeight:     0.5,
			ViewCap:        2.0,
		},
		Collaborative: CollaborativeConfig{
			Rank:    0,
			MaxRank: 20,
		},
		Normalize: NormalizeConfig{
			CollabOffset:     5.0,
			CollabScale:      10.0,
			DemographicScale: 5.0,
		},
		Boost: BoostConfig{
			WindowDays:         7,
			RecentReleaseYears: 2,
			MinFactor:          0.8,
			MaxFactor:          1.5,
			TotalCap:           2.0,
		},
		Training: TrainingConfig{
			RetrainEvery: 10,
			Timeout:      2 * time.Minute,
			MinUsers:     2,
			MinItems:     2,
		},
		Limits: LimitsConfig{
			DefaultK: 10,
			MaxK:     100,
		},
		Cache: CacheConfig{
			Enabled:           true,
			TTL:               5 * time.Minute,
			MaxEntries:        10000,
			InvalidateOnTrain: true,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Weights.NoQuery.Keyword != 0 {
		return fmt.Errorf("weights.no_query.keyword must be 0, got %f", c.Weights.NoQuery.Keyword)
	}
	if c.Weights.Query.Keyword <= 0 {
		return fmt.Errorf("weights.query.keyword must be positive, got %f", c.Weights.Query.Keyword)
	}
	if c.Matrix.FavoriteWeight < 0 || c.Matrix.PurchaseWeight < 0 || c.Matrix.ViewWeight < 0 {
		return fmt.Errorf("matrix weights must be non-negative")
	}
	if c.Matrix.ViewCap < c.Matrix.ViewWeight {
		return fmt.Errorf("matrix.view_cap must be >= matrix.view_weight, got %f < %f", c.Matrix.ViewCap, c.Matrix.ViewWeight)
	}
	if c.Collaborative.Rank < 0 {
		return fmt.Errorf("collaborative.rank must be non-negative, got %d", c.Collaborative.Rank)
	}
	if c.Collaborative.MaxRank < 1 {
		return fmt.Errorf("collaborative.max_rank must be positive, got %d", c.Collaborative.MaxRank)
	}
	if c.Normalize.CollabScale <= 0 {
		return fmt.Errorf("normalize.collab_scale must be positive, got %f", c.Normalize.CollabScale)
	}
	if c.Normalize.DemographicScale <= 0 {
		return fmt.Errorf("normalize.demographic_scale must be positive, got %f", c.Normalize.DemographicScale)
	}
	if c.Boost.WindowDays < 1 {
		return fmt.Errorf("boost.window_days must be positive, got %d", c.Boost.WindowDays)
	}
	if c.Boost.MinFactor <= 0 || c.Boost.MinFactor > 1 {
		return fmt.Errorf("boost.min_factor must be in (0, 1], got %f", c.Boost.MinFactor)
	}
	if c.Boost.MaxFactor < 1 {
		return fmt.Errorf("boost.max_factor must be >= 1, got %f", c.Boost.MaxFactor)
	}
	if c.Boost.TotalCap < c.Boost.MaxFactor {
		return fmt.Errorf("boost.total_cap must be >= boost.max_factor, got %f < %f", c.Boost.TotalCap, c.Boost.MaxFactor)
	}
	if c.Training.RetrainEvery < 1 {
		return fmt.Errorf("training.retrain_every must be positive, got %d", c.Training.RetrainEvery)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types.
	clone := *c
	return &clone
}

// ProfileOptions derives the behavior-profiling parameters from the
// boost and matrix sections.
func (c *Config) ProfileOptions() ProfileOptions {
	return ProfileOptions{
		WindowDays:         c.Boost.WindowDays,
		RecentReleaseYears: c.Boost.RecentReleaseYears,
		FavoriteWeight:     c.Matrix.FavoriteWeight,
		PurchaseWeight:     c.Matrix.PurchaseWeight,
		ViewWeight:         c.Matrix.ViewWeight,
	}
}
