// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"context"
	"math"
	"sort"

	"github.com/gamestore/recsys/internal/recommend"
)

// ContentConfig contains configuration for the content similarity engine.
type ContentConfig struct {
	// NumericWeight down-weights the standardized numeric columns when
	// they are concatenated to the TF-IDF text representation. Default: 0.5.
	NumericWeight float64

	// ViewRepeatCap bounds how many multiset entries an item's views
	// contribute to the per-user averaging. Default: 2.
	ViewRepeatCap int

	// Encoder configures the feature encoder.
	Encoder EncoderConfig
}

// DefaultContentConfig returns the default content configuration.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		NumericWeight: 0.5,
		ViewRepeatCap: 2,
		Encoder:       DefaultEncoderConfig(),
	}
}

// Content implements the content similarity signal. It vectorizes every
// item's text bag into a TF-IDF representation, concatenates the
// down-weighted standardized numeric vector, and computes pairwise cosine
// similarity over the combined representation.
//
// Similarity values are signed: items with opposing term distributions
// legitimately score below zero ("oppositional"), and the combiner maps
// the full [-1,1] range rather than flooring it. The matrix is symmetric
// with a diagonal of exactly 1.
type Content struct {
	BaseSignal

	cfg     ContentConfig
	encoder *Encoder

	model *contentModel
}

// contentModel is the published similarity matrix plus the per-user
// interaction multisets, swapped wholesale on retrain.
type contentModel struct {
	itemIDs []string
	index   map[string]int

	// sim is the symmetric item-by-item similarity matrix.
	sim [][]float64

	// interactions maps user ID to the item multiset used for averaging:
	// one entry per favorite, one per purchase, and one per view up to
	// the repeat cap, so repeat interactions weight the average.
	interactions map[string][]string
}

// NewContent creates a new content similarity signal.
func NewContent(cfg ContentConfig) *Content {
	if cfg.NumericWeight <= 0 {
		cfg.NumericWeight = 0.5
	}
	if cfg.ViewRepeatCap <= 0 {
		cfg.ViewRepeatCap = 2
	}

	return &Content{
		BaseSignal: NewBaseSignal(recommend.SignalContent),
		cfg:        cfg,
		encoder:    NewEncoder(cfg.Encoder, nil, nil),
	}
}

// Train builds the similarity matrix and interaction multisets.
// The new model is built aside and published atomically; a canceled
// context leaves the previous model in place.
func (c *Content) Train(ctx context.Context, snap *recommend.Snapshot) error {
	bags, numeric := EncodeCatalog(c.encoder, snap.Items)
	vectors := c.buildVectors(bags, numeric)

	model := &contentModel{
		itemIDs:      make([]string, len(snap.Items)),
		index:        make(map[string]int, len(snap.Items)),
		sim:          make([][]float64, len(snap.Items)),
		interactions: make(map[string][]string, len(snap.Users)),
	}
	for i := range snap.Items {
		model.itemIDs[i] = snap.Items[i].ID
		model.index[snap.Items[i].ID] = i
	}

	for i := range vectors {
		if contextCancelled(ctx) {
			return ctx.Err()
		}
		model.sim[i] = make([]float64, len(vectors))
		model.sim[i][i] = 1
		for j := 0; j < i; j++ {
			s := dot(vectors[i], vectors[j])
			model.sim[i][j] = s
			model.sim[j][i] = s
		}
	}

	for u := range snap.Users {
		user := &snap.Users[u]
		model.interactions[user.ID] = c.buildMultiset(user, model.index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
	c.markTrained()
	return nil
}

// buildVectors produces L2-normalized combined TF-IDF + numeric vectors,
// so pairwise cosine reduces to a dot product and self-similarity is
// exactly 1.
func (c *Content) buildVectors(bags [][]string, numeric [][]float64) [][]float64 {
	// Document frequency over the catalog.
	df := make(map[string]int)
	for _, bag := range bags {
		seen := make(map[string]struct{}, len(bag))
		for _, tok := range bag {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}

	// Stable term ordering for the sparse-to-dense layout.
	terms := make([]string, 0, len(df))
	for tok := range df {
		terms = append(terms, tok)
	}
	sort.Strings(terms)
	termIndex := make(map[string]int, len(terms))
	for i, tok := range terms {
		termIndex[tok] = i
	}

	n := float64(len(bags))
	vectors := make([][]float64, len(bags))
	for i, bag := range bags {
		v := make([]float64, len(terms)+NumericFeatureCount)
		for _, tok := range bag {
			idf := math.Log((1+n)/(1+float64(df[tok]))) + 1
			v[termIndex[tok]] += idf
		}
		// Normalize the text part alone, then append the down-weighted
		// numeric columns and normalize the whole.
		l2Normalize(v[:len(terms)])
		for j := 0; j < NumericFeatureCount; j++ {
			v[len(terms)+j] = numeric[i][j] * c.cfg.NumericWeight
		}
		l2Normalize(v)
		vectors[i] = v
	}
	return vectors
}

// buildMultiset collects a user's interaction multiset: repeat
// interactions with the same item contribute repeat entries.
func (c *Content) buildMultiset(user *recommend.User, index map[string]int) []string {
	multiset := make([]string, 0, len(user.Favorites)+len(user.Purchases)+len(user.Views))

	for _, id := range user.Favorites {
		if _, ok := index[id]; ok {
			multiset = append(multiset, id)
		}
	}
	for id := range user.Purchases {
		if _, ok := index[id]; ok {
			multiset = append(multiset, id)
		}
	}
	for id, count := range user.Views {
		if _, ok := index[id]; !ok {
			continue
		}
		if count > c.cfg.ViewRepeatCap {
			count = c.cfg.ViewRepeatCap
		}
		for k := 0; k < count; k++ {
			multiset = append(multiset, id)
		}
	}

	return multiset
}

// Score returns, for each candidate, the mean signed similarity to every
// entry of the user's interaction multiset. Users with no interactions
// produce an empty map: a missing signal, not zero preference.
func (c *Content) Score(_ context.Context, q recommend.ScoreQuery) (map[string]float64, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	if model == nil {
		return nil, nil
	}

	multiset := model.interactions[q.UserID]
	if len(multiset) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(q.Candidates))
	for _, id := range q.Candidates {
		ci, ok := model.index[id]
		if !ok {
			continue
		}
		var sum float64
		for _, interacted := range multiset {
			sum += model.sim[ci][model.index[interacted]]
		}
		scores[id] = sum / float64(len(multiset))
	}

	return scores, nil
}

// SimilarityMatrix returns the published matrix and item ordering.
// Exposed for diagnostics and tests; the returned slices must not be
// mutated.
func (c *Content) SimilarityMatrix() ([]string, [][]float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.model == nil {
		return nil, nil
	}
	return c.model.itemIDs, c.model.sim
}

// dot computes the dot product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
