// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recommend implements a hybrid recommendation engine for the
// game store.
//
// # Architecture
//
// The engine blends four scoring signals into one ranked list:
//
//   - Collaborative Filtering: truncated-SVD latent factors over the
//     implicit user-item affinity matrix
//   - Content Similarity: TF-IDF item vectors with down-weighted
//     numeric features, averaged over the user's interaction history
//   - Demographic: similarity-weighted peer ratings by age and gender
//   - Keyword: field-weighted matching of synonym-expanded queries
//
// Signal scores are normalized into [0,1], combined with a
// context-sensitive weight vector (keyword dominates when a query is
// present), and finally multiplied by bounded boost factors derived
// from the user's recent behavior profile.
//
// # Design Principles
//
//   - Deterministic: same snapshot and request produce identical output
//   - Missing is not zero: a signal with nothing to say is dropped and
//     its weight redistributed, never counted as a zero score
//   - Bounded adaptation: behavior boosts reorder the list but cannot
//     drown the underlying signals
//   - Non-blocking training: scoring keeps serving the previous model
//     while a new one trains; the swap is atomic
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetDataProvider(store)
//	engine.RegisterSignal(algorithms.NewCollaborative(collabCfg))
//	...
//	resp, err := engine.Recommend(ctx, recommend.Request{UserID: "u1", K: 10})
package recommend
