// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package algorithms implements the four scoring signals of the hybrid
// engine: collaborative filtering, content similarity, demographic
// similarity, and keyword matching.
//
// Each signal implements the recommend.Signal interface and can be
// registered with the recommendation engine.
//
// # Thread Safety
//
// All signals are safe for concurrent use. Train builds a new model
// aside and publishes it under an exclusive lock; Score reads the
// published model under a shared lock, so a failed train never exposes
// a half-built model.
package algorithms

import (
	"context"
	"math"
	"sync"

	"github.com/gamestore/recsys/internal/recommend"
)

// BaseSignal provides common state for all signals.
type BaseSignal struct {
	name    string
	trained bool
	mu      sync.RWMutex
}

// NewBaseSignal creates a new base signal with the given name.
func NewBaseSignal(name string) BaseSignal {
	return BaseSignal{name: name}
}

// Name returns the signal identifier.
func (b *BaseSignal) Name() string {
	return b.name
}

// IsTrained returns whether the signal has been trained.
func (b *BaseSignal) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// markTrained updates the trained state.
// Must be called while holding the write lock.
func (b *BaseSignal) markTrained() {
	b.trained = true
}

// l2Normalize scales a vector in place to unit length. Zero vectors are
// left untouched.
func l2Normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
}

// contextCancelled checks if the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all signals implement the interface.
var (
	_ recommend.Signal = (*Collaborative)(nil)
	_ recommend.Signal = (*Content)(nil)
	_ recommend.Signal = (*Demographic)(nil)
	_ recommend.Signal = (*Keyword)(nil)
)
