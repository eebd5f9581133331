// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"context"
	"math"
	"testing"

	"github.com/gamestore/recsys/internal/recommend"
)

func contentTestSnapshot() *recommend.Snapshot {
	return &recommend.Snapshot{
		Items: []recommend.Item{
			{
				ID:          "a",
				Name:        "Shadow Strike",
				Genres:      []string{"Action", "Shooter"},
				Description: "Fast paced tactical action with online battles",
				Publisher:   "StudioA",
				Price:       100,
			},
			{
				ID:          "b",
				Name:        "Night Assault",
				Genres:      []string{"Action", "Shooter"},
				Description: "Tactical action shooter with online squads",
				Publisher:   "StudioA",
				Price:       120,
			},
			{
				ID:          "c",
				Name:        "Quiet Garden",
				Genres:      []string{"Puzzle"},
				Description: "Relaxing garden puzzles for calm evenings",
				Publisher:   "StudioB",
				Price:       30,
			},
		},
		Users: []recommend.User{
			{ID: "u1", Purchases: map[string]float64{"a": 5}},
			{ID: "u2"},
			{ID: "u3", Favorites: []string{"a"}, Purchases: map[string]float64{"a": 5}},
			{ID: "u4", Favorites: []string{"a"}},
		},
	}
}

func TestContentTrainMatrixProperties(t *testing.T) {
	content := NewContent(DefaultContentConfig())
	snap := contentTestSnapshot()

	if err := content.Train(context.Background(), snap); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if !content.IsTrained() {
		t.Fatal("IsTrained() = false after Train")
	}

	ids, sim := content.SimilarityMatrix()
	if len(ids) != 3 || len(sim) != 3 {
		t.Fatalf("matrix size = %dx%d, want 3x3", len(ids), len(sim))
	}

	for i := range sim {
		if sim[i][i] != 1 {
			t.Errorf("diagonal[%d] = %v, want exactly 1", i, sim[i][i])
		}
		for j := range sim[i] {
			if sim[i][j] != sim[j][i] {
				t.Errorf("sim[%d][%d] = %v, sim[%d][%d] = %v, want symmetric", i, j, sim[i][j], j, i, sim[j][i])
			}
			if sim[i][j] < -1-1e-9 || sim[i][j] > 1+1e-9 {
				t.Errorf("sim[%d][%d] = %v outside [-1,1]", i, j, sim[i][j])
			}
		}
	}
}

func TestContentScoreRanksSharedGenresHigher(t *testing.T) {
	content := NewContent(DefaultContentConfig())
	snap := contentTestSnapshot()

	if err := content.Train(context.Background(), snap); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// u1 purchased the action shooter "a"; the similar shooter "b" must
	// outrank the unrelated puzzle game "c".
	scores, err := content.Score(context.Background(), recommend.ScoreQuery{
		UserID:     "u1",
		Candidates: []string{"b", "c"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if scores["b"] <= scores["c"] {
		t.Errorf("score(b) = %v not above score(c) = %v", scores["b"], scores["c"])
	}
}

func TestContentScoreMissingForColdUser(t *testing.T) {
	content := NewContent(DefaultContentConfig())
	snap := contentTestSnapshot()

	if err := content.Train(context.Background(), snap); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// u2 has no interactions: the signal goes missing, not zero.
	scores, err := content.Score(context.Background(), recommend.ScoreQuery{
		UserID:     "u2",
		Candidates: []string{"b", "c"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Score() = %v, want empty for a user with no interactions", scores)
	}
}

func TestContentScoreUntrained(t *testing.T) {
	content := NewContent(DefaultContentConfig())

	scores, err := content.Score(context.Background(), recommend.ScoreQuery{
		UserID:     "u1",
		Candidates: []string{"a"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Score() = %v, want empty before training", scores)
	}
}

func TestContentMultisetWeighting(t *testing.T) {
	content := NewContent(DefaultContentConfig())
	snap := contentTestSnapshot()

	if err := content.Train(context.Background(), snap); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// u3 favorited AND purchased "a" (two multiset entries); u4 only
	// favorited it. Both average over copies of the same row, so the
	// scores agree, but both rank b above c.
	for _, userID := range []string{"u3", "u4"} {
		scores, err := content.Score(context.Background(), recommend.ScoreQuery{
			UserID:     userID,
			Candidates: []string{"b", "c"},
		})
		if err != nil {
			t.Fatalf("Score(%s) error = %v", userID, err)
		}
		if scores["b"] <= scores["c"] {
			t.Errorf("user %s: score(b) = %v not above score(c) = %v", userID, scores["b"], scores["c"])
		}
	}
}

func TestContentSelfSimilarityViaScore(t *testing.T) {
	content := NewContent(DefaultContentConfig())
	snap := contentTestSnapshot()

	if err := content.Train(context.Background(), snap); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// u4's multiset is exactly {a}; scoring "a" itself is the diagonal.
	scores, err := content.Score(context.Background(), recommend.ScoreQuery{
		UserID:     "u4",
		Candidates: []string{"a"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(scores["a"]-1) > 1e-12 {
		t.Errorf("self-similarity = %v, want 1", scores["a"])
	}
}
