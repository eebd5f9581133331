// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gamestore/recsys/internal/recommend"
)

// CollaborativeConfig contains configuration for the latent factor model.
type CollaborativeConfig struct {
	// Rank is the truncation rank k. Zero selects an automatic rank
	// bounded by MaxRank and min(users, items)-1.
	Rank int

	// MaxRank bounds automatic rank selection. Default: 20.
	MaxRank int

	// MinUsers and MinItems are the smallest matrix worth factorizing.
	// Below either bound the signal trains to an empty model and
	// contributes nothing. Defaults: 2 and 2.
	MinUsers int
	MinItems int

	// Matrix holds the implicit-affinity weights.
	Matrix recommend.MatrixConfig
}

// DefaultCollaborativeConfig returns the default collaborative configuration.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		Rank:     0,
		MaxRank:  20,
		MinUsers: 2,
		MinItems: 2,
		Matrix: recommend.MatrixConfig{
			FavoriteWeight: 5.0,
			PurchaseWeight: 3.0,
			ViewWeight:     0.5,
			ViewCap:        2.0,
		},
	}
}

// CollaborativeFromEngine derives the signal configuration from the
// engine's collaborative, training, and matrix sections.
func CollaborativeFromEngine(cfg *recommend.Config) CollaborativeConfig {
	return CollaborativeConfig{
		Rank:     cfg.Collaborative.Rank,
		MaxRank:  cfg.Collaborative.MaxRank,
		MinUsers: cfg.Training.MinUsers,
		MinItems: cfg.Training.MinItems,
		Matrix:   cfg.Matrix,
	}
}

// Collaborative implements latent-factor collaborative filtering.
//
// It builds the implicit user-item affinity matrix (favorite=5,
// purchase=rating or 3, views capped), subtracts each user's row mean,
// factorizes the de-meaned matrix with a truncated SVD of rank k, and
// reconstructs predicted affinity as U·Σ·Vᵗ plus the row mean.
//
// For a target user, candidates are the items with zero raw affinity;
// their predicted affinity is the raw collaborative score. Matrices with
// fewer than two users or items produce an empty model: the signal is
// then missing, never an error.
type Collaborative struct {
	BaseSignal

	cfg   CollaborativeConfig
	model *cfModel
}

// cfModel is the published factorization, swapped wholesale on retrain.
// A nil predicted matrix marks a degenerate (empty) model.
type cfModel struct {
	userIndex map[string]int
	itemIDs   []string

	// raw is the implicit affinity matrix; zero cells mark candidates.
	raw *mat.Dense

	// predicted is the reconstructed affinity U·Σ·Vᵗ + row mean.
	predicted *mat.Dense
}

// NewCollaborative creates a new collaborative filtering signal.
func NewCollaborative(cfg CollaborativeConfig) *Collaborative {
	if cfg.MaxRank <= 0 {
		cfg.MaxRank = 20
	}
	if cfg.MinUsers < 2 {
		cfg.MinUsers = 2
	}
	if cfg.MinItems < 2 {
		cfg.MinItems = 2
	}
	if cfg.Matrix.FavoriteWeight == 0 && cfg.Matrix.PurchaseWeight == 0 && cfg.Matrix.ViewWeight == 0 {
		cfg.Matrix = DefaultCollaborativeConfig().Matrix
	}

	return &Collaborative{
		BaseSignal: NewBaseSignal(recommend.SignalCollaborative),
		cfg:        cfg,
	}
}

// Train factorizes the current snapshot. Degenerate matrices publish an
// empty model rather than failing the run; a genuine factorization
// failure keeps the previous model.
func (c *Collaborative) Train(ctx context.Context, snap *recommend.Snapshot) error {
	if contextCancelled(ctx) {
		return ctx.Err()
	}

	model, err := c.factorize(snap)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
	c.markTrained()
	return nil
}

// factorize builds the affinity matrix and runs the truncated SVD.
func (c *Collaborative) factorize(snap *recommend.Snapshot) (*cfModel, error) {
	nUsers := len(snap.Users)
	nItems := len(snap.Items)

	model := &cfModel{
		userIndex: make(map[string]int, nUsers),
		itemIDs:   make([]string, nItems),
	}
	for i := range snap.Users {
		model.userIndex[snap.Users[i].ID] = i
	}
	for i := range snap.Items {
		model.itemIDs[i] = snap.Items[i].ID
	}

	if nUsers < c.cfg.MinUsers || nItems < c.cfg.MinItems {
		return model, nil // degenerate: empty model, signal goes missing
	}

	k := c.cfg.Rank
	maxK := min(nUsers, nItems) - 1
	if k <= 0 {
		k = min(c.cfg.MaxRank, maxK)
	}
	if k > maxK {
		k = maxK
	}
	if k < 1 {
		return model, nil
	}

	raw := mat.NewDense(nUsers, nItems, nil)
	itemCol := make(map[string]int, nItems)
	for i, id := range model.itemIDs {
		itemCol[id] = i
	}
	for u := range snap.Users {
		user := &snap.Users[u]
		for _, id := range user.Favorites {
			if col, ok := itemCol[id]; ok {
				raw.Set(u, col, raw.At(u, col)+c.cfg.Matrix.FavoriteWeight)
			}
		}
		for id, rating := range user.Purchases {
			col, ok := itemCol[id]
			if !ok {
				continue
			}
			w := c.cfg.Matrix.PurchaseWeight
			if rating > 0 {
				w = rating
			}
			raw.Set(u, col, raw.At(u, col)+w)
		}
		for id, count := range user.Views {
			col, ok := itemCol[id]
			if !ok {
				continue
			}
			w := c.cfg.Matrix.ViewWeight * float64(count)
			if w > c.cfg.Matrix.ViewCap {
				w = c.cfg.Matrix.ViewCap
			}
			raw.Set(u, col, raw.At(u, col)+w)
		}
	}

	// De-mean each user's row, factorize the residual.
	rowMeans := make([]float64, nUsers)
	demeaned := mat.NewDense(nUsers, nItems, nil)
	for u := 0; u < nUsers; u++ {
		var sum float64
		for i := 0; i < nItems; i++ {
			sum += raw.At(u, i)
		}
		rowMeans[u] = sum / float64(nItems)
		for i := 0; i < nItems; i++ {
			demeaned.Set(u, i, raw.At(u, i)-rowMeans[u])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(demeaned, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization did not converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// Truncate to rank k: predicted = U_k · diag(σ_k) · V_kᵗ + row mean.
	uk := u.Slice(0, nUsers, 0, k)
	vk := v.Slice(0, nItems, 0, k)
	sk := mat.NewDiagDense(k, sigma[:k])

	var us, reconstructed mat.Dense
	us.Mul(uk, sk)
	reconstructed.Mul(&us, vk.T())

	predicted := mat.NewDense(nUsers, nItems, nil)
	for uRow := 0; uRow < nUsers; uRow++ {
		for i := 0; i < nItems; i++ {
			predicted.Set(uRow, i, reconstructed.At(uRow, i)+rowMeans[uRow])
		}
	}

	model.raw = raw
	model.predicted = predicted
	return model, nil
}

// Score returns predicted affinities for the user's zero-affinity
// candidates. Unknown users and degenerate models return an empty map.
func (c *Collaborative) Score(_ context.Context, q recommend.ScoreQuery) (map[string]float64, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	if model == nil || model.predicted == nil {
		return nil, nil
	}

	row, ok := model.userIndex[q.UserID]
	if !ok {
		return nil, nil
	}

	itemCol := make(map[string]int, len(model.itemIDs))
	for i, id := range model.itemIDs {
		itemCol[id] = i
	}

	scores := make(map[string]float64, len(q.Candidates))
	for _, id := range q.Candidates {
		col, ok := itemCol[id]
		if !ok {
			continue
		}
		// Only items the user never interacted with are candidates here.
		if model.raw.At(row, col) != 0 {
			continue
		}
		scores[id] = model.predicted.At(row, col)
	}

	return scores, nil
}
