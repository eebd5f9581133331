// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProvider serves a fixed snapshot.
type fakeProvider struct {
	items  []Item
	users  []User
	events []Interaction
}

func (p *fakeProvider) GetItems(context.Context) ([]Item, error)  { return p.items, nil }
func (p *fakeProvider) GetUsers(context.Context) ([]User, error)  { return p.users, nil }
func (p *fakeProvider) GetInteractions(context.Context, time.Time) ([]Interaction, error) {
	return p.events, nil
}

// fakeSignal returns canned scores for a signal name.
type fakeSignal struct {
	name     string
	scores   map[string]float64
	trained  bool
	trainErr error
	trains   int
}

func (s *fakeSignal) Name() string { return s.name }
func (s *fakeSignal) Train(context.Context, *Snapshot) error {
	s.trains++
	if s.trainErr != nil {
		return s.trainErr
	}
	s.trained = true
	return nil
}
func (s *fakeSignal) Score(context.Context, ScoreQuery) (map[string]float64, error) {
	return s.scores, nil
}
func (s *fakeSignal) IsTrained() bool { return s.trained }

func testEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func testProvider() *fakeProvider {
	return &fakeProvider{
		items: []Item{
			{ID: "g1", Name: "Alpha", Downloads: 1000, Rating: 4.0},
			{ID: "g2", Name: "Beta", Downloads: 100, Rating: 5.0},
			{ID: "g3", Name: "Gamma", Downloads: 10, Rating: 2.0},
		},
		users: []User{
			{ID: "u1", Age: 25, Gender: "f", Purchases: map[string]float64{"g1": 4}},
			{ID: "u2", Age: 30, Gender: "m"},
		},
		events: []Interaction{
			{UserID: "u1", ItemID: "g1", Type: InteractionPurchase, Rating: 4, Timestamp: time.Now().Add(-24 * time.Hour)},
		},
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())

	_, err := engine.Recommend(context.Background(), Request{UserID: "nobody"})
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("Recommend() error = %v, want ErrUnknownUser", err)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(&fakeProvider{})

	_, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("Recommend() error = %v, want ErrEmptyCatalog", err)
	}
}

func TestRecommendExcludesInteractedItems(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())
	engine.RegisterSignal(&fakeSignal{
		name:    SignalContent,
		trained: true,
		scores:  map[string]float64{"g1": 0.9, "g2": 0.8, "g3": 0.2},
	})

	resp, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for _, item := range resp.Items {
		if item.Item.ID == "g1" {
			t.Error("purchased item g1 appeared in recommendations")
		}
	}
	if resp.TotalCandidates != 2 {
		t.Errorf("TotalCandidates = %d, want 2", resp.TotalCandidates)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())
	engine.RegisterSignal(&fakeSignal{
		name:    SignalContent,
		trained: true,
		scores:  map[string]float64{"g2": 0.6, "g3": 0.6},
	})

	first, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(first.Items) != len(second.Items) {
		t.Fatalf("result lengths differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].Item.ID != second.Items[i].Item.ID {
			t.Errorf("position %d differs: %s vs %s", i, first.Items[i].Item.ID, second.Items[i].Item.ID)
		}
	}
	// Equal scores break ties by item ID.
	if first.Items[0].Item.ID != "g2" {
		t.Errorf("first item = %s, want g2 (lexicographic tie-break)", first.Items[0].Item.ID)
	}
}

func TestRecommendMissingSignalRedistributes(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())

	// Content speaks, collaborative is trained but has nothing to say.
	engine.RegisterSignal(&fakeSignal{
		name:    SignalCollaborative,
		trained: true,
		scores:  map[string]float64{},
	})
	engine.RegisterSignal(&fakeSignal{
		name:    SignalContent,
		trained: true,
		scores:  map[string]float64{"g2": 0.5, "g3": 0.1},
	})

	resp, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if resp.Metadata.Weights.Collaborative != 0 {
		t.Errorf("collaborative weight = %v, want 0 for missing signal", resp.Metadata.Weights.Collaborative)
	}
	for _, name := range resp.Metadata.SignalsUsed {
		if name == SignalCollaborative {
			t.Error("missing collaborative signal listed in SignalsUsed")
		}
	}
	if resp.Metadata.Weights.Sum() < 0.999 {
		t.Errorf("weights sum = %v, want 1.0 after redistribution", resp.Metadata.Weights.Sum())
	}
}

func TestRecommendPopularityFallback(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())
	// No signals registered at all: cold start for everything.

	resp, err := engine.Recommend(context.Background(), Request{UserID: "u2"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(resp.Metadata.SignalsUsed) != 1 || resp.Metadata.SignalsUsed[0] != "popularity" {
		t.Fatalf("SignalsUsed = %v, want [popularity]", resp.Metadata.SignalsUsed)
	}
	if len(resp.Items) == 0 {
		t.Fatal("popularity fallback returned no items")
	}
	// g1 has by far the most downloads.
	if resp.Items[0].Item.ID != "g1" {
		t.Errorf("top fallback item = %s, want g1", resp.Items[0].Item.ID)
	}
}

func TestRecommendKLimit(t *testing.T) {
	engine := testEngine(t, func(c *Config) {
		c.Limits.DefaultK = 1
		c.Limits.MaxK = 2
	})
	engine.SetDataProvider(testProvider())
	engine.RegisterSignal(&fakeSignal{
		name:    SignalContent,
		trained: true,
		scores:  map[string]float64{"g2": 0.9, "g3": 0.8},
	})

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"default_k", 0, 1},
		{"explicit_k", 2, 2},
		{"k_clamped_to_max", 50, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := engine.Recommend(context.Background(), Request{UserID: "u2", K: tt.k})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(resp.Items) != tt.want {
				t.Errorf("len(Items) = %d, want %d", len(resp.Items), tt.want)
			}
		})
	}
}

func TestTrainIncrementsVersionAndTrainsSignals(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())

	sig := &fakeSignal{name: SignalContent, scores: map[string]float64{"g2": 0.5}}
	engine.RegisterSignal(sig)

	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if sig.trains != 1 {
		t.Errorf("signal trained %d times, want 1", sig.trains)
	}
	if v := engine.Status().ModelVersion; v != 1 {
		t.Errorf("ModelVersion = %d, want 1", v)
	}

	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("second Train() error = %v", err)
	}
	if v := engine.Status().ModelVersion; v != 2 {
		t.Errorf("ModelVersion = %d, want 2", v)
	}
}

func TestTrainFailureKeepsVersion(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(testProvider())

	sig := &fakeSignal{name: SignalContent, trainErr: errors.New("boom")}
	engine.RegisterSignal(sig)

	if err := engine.Train(context.Background()); err == nil {
		t.Fatal("Train() = nil, want error")
	}
	if v := engine.Status().ModelVersion; v != 0 {
		t.Errorf("ModelVersion = %d, want 0 after failed training", v)
	}
	if engine.Status().LastError == "" {
		t.Error("LastError empty, want failure recorded")
	}
}

func TestAutoRetrainAfterEnoughEvents(t *testing.T) {
	provider := testProvider()
	engine := testEngine(t, func(c *Config) {
		c.Training.RetrainEvery = 3
	})
	engine.SetDataProvider(provider)

	sig := &fakeSignal{name: SignalContent, scores: map[string]float64{"g2": 0.5}}
	engine.RegisterSignal(sig)

	// First request trains the untrained model.
	if _, err := engine.Recommend(context.Background(), Request{UserID: "u1"}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if sig.trains != 1 {
		t.Fatalf("trains = %d, want 1 after initial request", sig.trains)
	}

	// One new event is below the threshold; no retrain.
	provider.events = append(provider.events, Interaction{
		UserID: "u1", ItemID: "g2", Type: InteractionView, Timestamp: time.Now(),
	})
	if _, err := engine.Recommend(context.Background(), Request{UserID: "u1"}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if sig.trains != 1 {
		t.Fatalf("trains = %d, want still 1 below the retrain threshold", sig.trains)
	}

	// Two more events reach the threshold; retrain on next request.
	for i := 0; i < 2; i++ {
		provider.events = append(provider.events, Interaction{
			UserID: "u2", ItemID: "g3", Type: InteractionView, Timestamp: time.Now(),
		})
	}
	if _, err := engine.Recommend(context.Background(), Request{UserID: "u1"}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if sig.trains != 2 {
		t.Errorf("trains = %d, want 2 after crossing the retrain threshold", sig.trains)
	}
}

func TestResponseCache(t *testing.T) {
	engine := testEngine(t, func(c *Config) {
		c.Cache.Enabled = true
		c.Cache.TTL = time.Minute
	})
	engine.SetDataProvider(testProvider())
	engine.RegisterSignal(&fakeSignal{
		name:    SignalContent,
		trained: true,
		scores:  map[string]float64{"g2": 0.5},
	})

	first, err := engine.Recommend(context.Background(), Request{UserID: "u1", RequestID: "r1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first response claims a cache hit")
	}

	second, err := engine.Recommend(context.Background(), Request{UserID: "u1", RequestID: "r2"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second identical request missed the cache")
	}
}

func TestRecommendNoCandidates(t *testing.T) {
	engine := testEngine(t, nil)
	engine.SetDataProvider(&fakeProvider{
		items: []Item{{ID: "g1"}},
		users: []User{{ID: "u1", Purchases: map[string]float64{"g1": 5}}},
	})

	resp, err := engine.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0 when everything was interacted with", len(resp.Items))
	}
}
