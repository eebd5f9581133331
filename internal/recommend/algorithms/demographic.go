// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"context"
	"strings"

	"github.com/gamestore/recsys/internal/recommend"
)

// DemographicConfig contains configuration for demographic scoring.
type DemographicConfig struct {
	// AgeDecay is the similarity lost per year of age difference.
	// Default: 0.03.
	AgeDecay float64

	// AgeFloor is the minimum age similarity. Default: 0.1.
	AgeFloor float64

	// GenderMismatch is the multiplier applied when genders differ or
	// either is unknown. Default: 0.7.
	GenderMismatch float64

	// FavoriteRating and PurchaseFallback are the implied ratings for
	// favorites and unrated purchases. Defaults: 5 and 3.
	FavoriteRating   float64
	PurchaseFallback float64
}

// DefaultDemographicConfig returns the default demographic configuration.
func DefaultDemographicConfig() DemographicConfig {
	return DemographicConfig{
		AgeDecay:         0.03,
		AgeFloor:         0.1,
		GenderMismatch:   0.7,
		FavoriteRating:   5.0,
		PurchaseFallback: 3.0,
	}
}

// Demographic scores items by how strongly demographically similar users
// rated them. Similarity between two users is an age term, linear decay
// with a floor, multiplied by a gender term. An item's score for a user
// is the similarity-weighted mean of the implied ratings from every other
// user with a positive interaction on it: favorites rate 5, purchases
// rate their stored rating or 3, views carry no rating and are ignored.
// Items nobody else positively interacted with are omitted entirely so
// the engine treats them as missing rather than disliked.
type Demographic struct {
	BaseSignal

	cfg   DemographicConfig
	model *demoModel
}

type demoModel struct {
	users map[string]*recommend.User

	// raters maps item ID to every (user, implied rating) pair.
	raters map[string][]demoRating
}

type demoRating struct {
	userID string
	rating float64
}

// NewDemographic creates a new demographic signal.
func NewDemographic(cfg DemographicConfig) *Demographic {
	def := DefaultDemographicConfig()
	if cfg.AgeDecay <= 0 {
		cfg.AgeDecay = def.AgeDecay
	}
	if cfg.AgeFloor <= 0 {
		cfg.AgeFloor = def.AgeFloor
	}
	if cfg.GenderMismatch <= 0 {
		cfg.GenderMismatch = def.GenderMismatch
	}
	if cfg.FavoriteRating <= 0 {
		cfg.FavoriteRating = def.FavoriteRating
	}
	if cfg.PurchaseFallback <= 0 {
		cfg.PurchaseFallback = def.PurchaseFallback
	}

	return &Demographic{
		BaseSignal: NewBaseSignal(recommend.SignalDemographic),
		cfg:        cfg,
	}
}

// Train indexes users and their positive interactions per item.
func (d *Demographic) Train(ctx context.Context, snap *recommend.Snapshot) error {
	if contextCancelled(ctx) {
		return ctx.Err()
	}

	model := &demoModel{
		users:  make(map[string]*recommend.User, len(snap.Users)),
		raters: make(map[string][]demoRating),
	}

	for i := range snap.Users {
		user := &snap.Users[i]
		model.users[user.ID] = user

		for _, itemID := range user.Favorites {
			model.raters[itemID] = append(model.raters[itemID], demoRating{
				userID: user.ID,
				rating: d.cfg.FavoriteRating,
			})
		}
		for itemID, rating := range user.Purchases {
			if user.IsFavorite(itemID) {
				continue // favorite already implies the top rating
			}
			r := rating
			if r <= 0 {
				r = d.cfg.PurchaseFallback
			}
			model.raters[itemID] = append(model.raters[itemID], demoRating{
				userID: user.ID,
				rating: r,
			})
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.model = model
	d.markTrained()
	return nil
}

// Score returns similarity-weighted peer ratings for each candidate.
func (d *Demographic) Score(_ context.Context, q recommend.ScoreQuery) (map[string]float64, error) {
	d.mu.RLock()
	model := d.model
	d.mu.RUnlock()

	if model == nil {
		return nil, nil
	}

	target, ok := model.users[q.UserID]
	if !ok {
		return nil, nil
	}

	// Memoized pairwise similarity; user populations are small relative
	// to the candidate set.
	simCache := make(map[string]float64, len(model.users))
	similarity := func(otherID string) float64 {
		if s, ok := simCache[otherID]; ok {
			return s
		}
		s := d.userSimilarity(target, model.users[otherID])
		simCache[otherID] = s
		return s
	}

	scores := make(map[string]float64, len(q.Candidates))
	for _, itemID := range q.Candidates {
		raters := model.raters[itemID]

		var weighted, total float64
		for _, r := range raters {
			if r.userID == q.UserID {
				continue
			}
			sim := similarity(r.userID)
			weighted += sim * r.rating
			total += sim
		}
		if total == 0 {
			continue // no peer signal: omit rather than score zero
		}
		scores[itemID] = weighted / total
	}

	return scores, nil
}

// userSimilarity computes the age/gender similarity between two users.
func (d *Demographic) userSimilarity(a, b *recommend.User) float64 {
	if b == nil {
		return 0
	}

	diff := a.Age - b.Age
	if diff < 0 {
		diff = -diff
	}
	age := 1.0 - d.cfg.AgeDecay*float64(diff)
	if age < d.cfg.AgeFloor {
		age = d.cfg.AgeFloor
	}

	gender := d.cfg.GenderMismatch
	if a.Gender != "" && strings.EqualFold(a.Gender, b.Gender) {
		gender = 1.0
	}

	return age * gender
}
