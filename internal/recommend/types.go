// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"errors"
	"time"
)

// Common engine errors surfaced to callers.
var (
	// ErrUnknownUser indicates the scoring request names a user the snapshot
	// does not contain. There is no reasonable default, so this is a hard error.
	ErrUnknownUser = errors.New("unknown user")

	// ErrTrainingInProgress indicates a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrEmptyCatalog indicates the catalog snapshot contains no items.
	ErrEmptyCatalog = errors.New("catalog snapshot is empty")
)

// InteractionType classifies user-item interactions for implicit feedback.
type InteractionType int

const (
	// InteractionView indicates the user opened an item's store page.
	InteractionView InteractionType = iota
	// InteractionFavorite indicates the user added the item to their wishlist.
	InteractionFavorite
	// InteractionPurchase indicates the user bought the item.
	InteractionPurchase
)

// String returns a human-readable name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionView:
		return "view"
	case InteractionFavorite:
		return "favorite"
	case InteractionPurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

// ParseInteractionType parses a wire-format interaction type name.
func ParseInteractionType(s string) (InteractionType, bool) {
	switch s {
	case "view":
		return InteractionView, true
	case "favorite":
		return InteractionFavorite, true
	case "purchase":
		return InteractionPurchase, true
	default:
		return InteractionView, false
	}
}

// Interaction represents a single user-item interaction event.
// Events are append-only; the boost engine windows them by recency.
type Interaction struct {
	// UserID is the user identifier.
	UserID string `json:"user_id"`

	// ItemID is the catalog item identifier.
	ItemID string `json:"item_id"`

	// Type classifies the interaction.
	Type InteractionType `json:"type"`

	// Rating is an optional explicit rating attached to a purchase.
	Rating float64 `json:"rating,omitempty"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Item represents an immutable catalog entry.
// Items are created at catalog load and never mutated by the engine.
type Item struct {
	// ID is the unique catalog identifier.
	ID string `json:"id"`

	// Name is the display title.
	Name string `json:"name"`

	// Description is the free-text store description.
	Description string `json:"description,omitempty"`

	// Genres is the set of genre tags. Order is irrelevant.
	Genres []string `json:"genres"`

	// Publisher is the publishing studio.
	Publisher string `json:"publisher,omitempty"`

	// Price is the list price in the store currency.
	Price float64 `json:"price"`

	// Rating is the aggregate customer rating (0-5).
	Rating float64 `json:"rating,omitempty"`

	// ReleaseDate is the catalog release date.
	ReleaseDate time.Time `json:"release_date"`

	// AgeRating is the audience rating (e.g. "3+", "12+", "18+").
	AgeRating string `json:"age_rating,omitempty"`

	// Mode is the play mode (e.g. "singleplayer", "co-op", "online").
	Mode string `json:"mode,omitempty"`

	// Multiplayer indicates multiplayer support.
	Multiplayer bool `json:"multiplayer"`

	// Platforms is the set of supported platforms (e.g. "PC", "PS5").
	Platforms []string `json:"platforms,omitempty"`

	// Languages is the set of supported languages.
	Languages []string `json:"languages,omitempty"`

	// MinCPU is the minimum CPU requirement as a benchmark-lookup key.
	MinCPU string `json:"min_cpu,omitempty"`

	// MinGPU is the minimum GPU requirement as a benchmark-lookup key.
	MinGPU string `json:"min_gpu,omitempty"`

	// MinRAM is the minimum memory requirement (e.g. "8GB", "512MB").
	MinRAM string `json:"min_ram,omitempty"`

	// Downloads is the lifetime download counter.
	Downloads int64 `json:"downloads,omitempty"`
}

// ReleaseYear returns the release year, or zero when unset.
func (i *Item) ReleaseYear() int {
	if i.ReleaseDate.IsZero() {
		return 0
	}
	return i.ReleaseDate.Year()
}

// User represents a store account with its interaction collections.
// The engine reads a snapshot per request; the store owns the data.
type User struct {
	// ID is the user identifier.
	ID string `json:"id"`

	// Age is the user's age in years.
	Age int `json:"age"`

	// Gender is the self-reported gender ("male", "female", "other").
	Gender string `json:"gender,omitempty"`

	// Favorites is the set of wishlisted item IDs.
	Favorites []string `json:"favorites,omitempty"`

	// Purchases maps item ID to the rating/weight attached to the purchase.
	Purchases map[string]float64 `json:"purchases,omitempty"`

	// Views maps item ID to view count.
	Views map[string]int `json:"views,omitempty"`
}

// IsFavorite reports whether the item is on the user's favorites list.
func (u *User) IsFavorite(itemID string) bool {
	for _, id := range u.Favorites {
		if id == itemID {
			return true
		}
	}
	return false
}

// HasInteracted reports whether the user has any recorded interaction
// with the item.
func (u *User) HasInteracted(itemID string) bool {
	if u.IsFavorite(itemID) {
		return true
	}
	if _, ok := u.Purchases[itemID]; ok {
		return true
	}
	if _, ok := u.Views[itemID]; ok {
		return true
	}
	return false
}

// Snapshot is an immutable view of the catalog, users, and interaction log
// taken at the collaborator boundary. All scoring within one request reads
// a single snapshot.
type Snapshot struct {
	Items  []Item
	Users  []User
	Events []Interaction
}

// Signal names used in weights, component score maps, and response metadata.
const (
	SignalCollaborative = "collaborative"
	SignalContent       = "content"
	SignalDemographic   = "demographic"
	SignalKeyword       = "keyword"
)

// ComponentScores carries the raw per-signal scores for a candidate,
// before normalization and weighting.
type ComponentScores struct {
	// Collaborative is the raw predicted affinity from the latent factor model.
	Collaborative float64 `json:"collaborative"`

	// Content is the mean signed cosine similarity to the user's interaction set.
	Content float64 `json:"content"`

	// Demographic is the neighbor-propagated preference score (0-5 scale).
	Demographic float64 `json:"demographic"`

	// Keyword is the field-weighted query match score (0-1).
	Keyword float64 `json:"keyword"`
}

// BoostFactors carries the six bounded multiplicative boost factors and
// their capped product.
type BoostFactors struct {
	Publisher float64 `json:"publisher"`
	Genre     float64 `json:"genre"`
	Price     float64 `json:"price"`
	AgeRating float64 `json:"age_rating"`
	Mode      float64 `json:"mode"`
	Platform  float64 `json:"platform"`

	// Total is the product of the six factors, capped at the configured ceiling.
	Total float64 `json:"total"`
}

// ScoredItem is one ranked result with full score provenance.
type ScoredItem struct {
	// Item is the pass-through catalog metadata.
	Item Item `json:"item"`

	// Score is the final blended and boosted score.
	Score float64 `json:"score"`

	// Components is the breakdown of raw per-signal scores.
	Components ComponentScores `json:"components"`

	// Boost is the breakdown of boost factors applied.
	Boost BoostFactors `json:"boost"`
}

// Request represents a scoring request.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID string `json:"user_id"`

	// Query is an optional free-text query. When non-empty, the keyword
	// signal dominates the weight vector.
	Query string `json:"query,omitempty"`

	// WindowDays is the recency window for behavior profiling.
	// Defaults to Config.Boost.WindowDays if zero.
	WindowDays int `json:"window_days,omitempty"`

	// K is the number of recommendations to return.
	// Defaults to Config.Limits.DefaultK if zero.
	K int `json:"k,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response represents a scoring response.
type Response struct {
	// Items is the ordered list of recommended items.
	Items []ScoredItem `json:"items"`

	// TotalCandidates is the number of candidate items considered.
	TotalCandidates int `json:"total_candidates"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Query     string `json:"query,omitempty"`

	// SignalsUsed lists the signals that contributed non-missing scores.
	SignalsUsed []string `json:"signals_used"`

	// Weights is the final normalized weight vector after behavior
	// adjustment and missing-signal redistribution.
	Weights SignalWeights `json:"weights"`

	LatencyMS    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	ModelVersion int       `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScoreQuery carries everything a signal needs to score candidates for
// one request.
type ScoreQuery struct {
	// UserID is the target user.
	UserID string

	// Query is the raw free-text query. Only the keyword signal uses it.
	Query string

	// Candidates is the set of item IDs eligible for scoring.
	Candidates []string
}

// Signal is one independent scoring component of the hybrid engine.
// Implementations must be safe for concurrent use: Train builds a new
// model aside and publishes it atomically, Score reads the published model.
type Signal interface {
	// Name returns the signal identifier (one of the Signal* constants).
	Name() string

	// Train fits the signal on a snapshot. A failed train must leave the
	// previously published model untouched.
	Train(ctx context.Context, snap *Snapshot) error

	// Score returns raw scores for candidate items. An empty map means the
	// signal has nothing to contribute (missing, not zero preference).
	Score(ctx context.Context, q ScoreQuery) (map[string]float64, error)

	// IsTrained returns whether the signal has been trained.
	IsTrained() bool
}

// Booster computes the six per-attribute boost factors for a candidate
// given a behavior profile.
type Booster interface {
	// Name returns the booster identifier.
	Name() string

	// Factors returns the per-attribute boost factors for the item.
	// Each factor lies within the configured bound and Total is their
	// product, capped.
	Factors(profile *BehaviorProfile, item *Item) BoostFactors
}

// DataProvider defines the interface for fetching scoring snapshots.
// This is typically implemented by the storage layer.
type DataProvider interface {
	// GetItems returns the catalog snapshot.
	GetItems(ctx context.Context) ([]Item, error)

	// GetUsers returns all user records with their interaction collections.
	GetUsers(ctx context.Context) ([]User, error)

	// GetInteractions returns interaction events at or after since,
	// ordered by timestamp. A zero since returns the full log.
	GetInteractions(ctx context.Context, since time.Time) ([]Interaction, error)
}

// TrainingStatus represents the current training state.
type TrainingStatus struct {
	IsTraining             bool      `json:"is_training"`
	LastTrainedAt          time.Time `json:"last_trained_at"`
	LastTrainingDurationMS int64     `json:"last_training_duration_ms"`
	LastError              string    `json:"last_error,omitempty"`
	InteractionCount       int       `json:"interaction_count"`
	ItemCount              int       `json:"item_count"`
	UserCount              int       `json:"user_count"`
	ModelVersion           int       `json:"model_version"`
}
